/*
main.go - Application entry point

PURPOSE:
  Command-line front end of the rent indexer. Every subcommand loads the
  same configuration, opens the configured store and reduces events
  through one indexer.

COMMANDS:
  serve              HTTP API (ingest, reads, scenarios, /metrics)
  replay FILE        Apply a JSON file of envelopes ("-" for stdin)
  consume            Apply envelopes from the configured Kafka topic
  scenario NAME      Reset the store and load a demo scenario

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections / stop fetching messages
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # In-memory store, verbose logs
  RENTINDEX_STORE=memory RENTINDEX_LOG_LEVEL=debug ./rentindex serve

  # Resume a replay where the last one stopped
  ./rentindex replay --from-checkpoint events.json

ENVIRONMENT:
  See config/config.go. A .env file is read when present.

SEE ALSO:
  - api/server.go: Router configuration
  - source/kafka/consumer.go: Kafka transport
  - indexer/indexer.go: Ordered delivery
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/rent-indexer/api"
	"github.com/warp/rent-indexer/factory"
	"github.com/warp/rent-indexer/indexer"
	"github.com/warp/rent-indexer/metrics"
	"github.com/warp/rent-indexer/source/kafka"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "rentindex",
		Short:         "Index rental protocol events into a queryable entity graph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	root.AddCommand(
		serveCmd(&envFiles),
		replayCmd(&envFiles),
		consumeCmd(&envFiles),
		scenarioCmd(&envFiles),
	)
	return root
}

// =============================================================================
// SERVE
// =============================================================================

func serveCmd(envFiles *[]string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *envFiles)
			if err != nil {
				return err
			}
			defer a.Close()

			addr := a.cfg.Addr()
			if port != 0 {
				addr = fmt.Sprintf(":%d", port)
			}

			handler := api.NewHandler(a.store, a.indexer("http"), a.log.Named("api"))
			server := &http.Server{
				Addr:         addr,
				Handler:      api.NewRouter(handler, metrics.Handler(a.registry)),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.log.Info("server starting", zap.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.log.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			a.log.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides RENTINDEX_PORT)")
	return cmd
}

// =============================================================================
// REPLAY
// =============================================================================

func replayCmd(envFiles *[]string) *cobra.Command {
	var (
		source         string
		fromCheckpoint bool
	)

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Apply a JSON array of envelopes in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			envs, err := factory.NewEventFactory().ParseBatch(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.Close()

			var opts []indexer.RunOption
			if fromCheckpoint {
				opts = append(opts, indexer.FromCheckpoint())
			}
			res, err := a.indexer(source).Run(cmd.Context(), envs, opts...)
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d, skipped %d of %d events\n", res.Applied, res.Skipped, len(envs))
			return err
		},
	}
	cmd.Flags().StringVar(&source, "source", "replay", "stream name the checkpoint is recorded under")
	cmd.Flags().BoolVar(&fromCheckpoint, "from-checkpoint", false, "skip events at or before the stored checkpoint")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// =============================================================================
// CONSUME
// =============================================================================

func consumeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Apply envelopes from the configured Kafka topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.Close()

			reader, err := kafka.NewReader(a.cfg.Kafka)
			if err != nil {
				return err
			}
			consumer := kafka.NewConsumer(reader, a.indexer("kafka:"+a.cfg.Kafka.Topic), a.log.Named("kafka"))
			defer consumer.Close()

			a.log.Info("consuming",
				zap.Strings("brokers", a.cfg.Kafka.Brokers),
				zap.String("topic", a.cfg.Kafka.Topic),
				zap.String("group", a.cfg.Kafka.GroupID))
			return consumer.Run(cmd.Context())
		},
	}
}

// =============================================================================
// SCENARIO
// =============================================================================

func scenarioCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:       "scenario NAME",
		Short:     "Reset the store and load a demo scenario",
		Long:      "Available scenarios: " + strings.Join(api.ScenarioIDs(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: api.ScenarioIDs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer a.Close()

			h := api.NewHandler(a.store, a.indexer("http"), a.log.Named("api"))
			res, err := h.ApplyScenario(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %s: %d events applied\n", args[0], res.Applied)
			return nil
		},
	}
}
