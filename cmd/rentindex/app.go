package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/api"
	"github.com/warp/rent-indexer/config"
	"github.com/warp/rent-indexer/entity/store"
	"github.com/warp/rent-indexer/indexer"
	"github.com/warp/rent-indexer/logger"
	"github.com/warp/rent-indexer/metrics"
	"github.com/warp/rent-indexer/store/gormstore"
	"github.com/warp/rent-indexer/store/sqlite"
)

// app holds the dependencies every subcommand shares.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	store    api.Backend
	registry *prometheus.Registry
	recorder *metrics.Recorder
	closers  []func() error
}

func newApp(ctx context.Context, envFiles []string) (*app, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.LogDevelopment,
		Service:     "rentindex",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.recorder = metrics.New(a.registry, cfg.MetricsPrefix)

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store {
	case config.StoreMemory:
		a.store = store.NewTxMemory()
	case config.StoreSQLite:
		st, err := sqlite.New(a.cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open sqlite %s: %w", a.cfg.DBPath, err)
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
	case config.StorePostgres:
		st, err := gormstore.Open(ctx, gormstore.Config{Driver: gormstore.DriverPostgres, DSN: a.cfg.PostgresDSN})
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
	default:
		return fmt.Errorf("unknown store %q", a.cfg.Store)
	}
	a.log.Info("store opened", zap.String("store", a.cfg.Store))
	return nil
}

// indexer builds an indexer recording checkpoints under source.
func (a *app) indexer(source string) *indexer.Indexer {
	return indexer.New(a.store,
		indexer.WithLogger(a.log.Named("indexer")),
		indexer.WithRecorder(a.recorder),
		indexer.WithSource(source),
		indexer.WithLegacySchedule(a.cfg.LegacySchedule),
	)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
