// Package config reads process configuration from the environment.
//
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	Port           int    `env:"RENTINDEX_PORT"            envDefault:"8080"`
	Store          string `env:"RENTINDEX_STORE"           envDefault:"sqlite"`
	DBPath         string `env:"RENTINDEX_DB_PATH"         envDefault:"rentindex.db"`
	PostgresDSN    string `env:"RENTINDEX_POSTGRES_DSN"`
	LogLevel       string `env:"RENTINDEX_LOG_LEVEL"       envDefault:"info"`
	LogDevelopment bool   `env:"RENTINDEX_LOG_DEVELOPMENT" envDefault:"false"`
	MetricsPrefix  string `env:"RENTINDEX_METRICS_PREFIX"  envDefault:"rentindex"`
	LegacySchedule bool   `env:"RENTINDEX_LEGACY_SCHEDULE" envDefault:"false"`

	Kafka KafkaConfig
}

type KafkaConfig struct {
	Brokers []string `env:"RENTINDEX_KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"RENTINDEX_KAFKA_TOPIC"   envDefault:"rent-events"`
	GroupID string   `env:"RENTINDEX_KAFKA_GROUP"   envDefault:"rentindex"`
}

// Load reads the optional dotenv files (".env" when none are named), then
// parses and validates the environment.
func Load(dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("RENTINDEX_POSTGRES_DSN is required when RENTINDEX_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown RENTINDEX_STORE %q", c.Store)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid RENTINDEX_PORT %d", c.Port)
	}
	return nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }
