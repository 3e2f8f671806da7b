// Command migrate runs maintenance over the resource partitions:
// reclassifying undefined records, verifying partition counts, queueing
// background runs and importing seed data.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"vet1stop-platform/internal/app"
	"vet1stop-platform/internal/config"
	"vet1stop-platform/internal/logger"
	"vet1stop-platform/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Resource partition maintenance",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env is populated once per invocation by PersistentPreRunE
var env struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *telemetry.Metrics
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		env.cfg = cfg
		env.log = logger.InitLogger(cfg)
		if m, err := telemetry.InitMetrics(); err == nil {
			env.metrics = m
		}
		return nil
	}
}

// openStores connects using the loaded configuration
func openStores() (*app.Stores, error) {
	return app.Open(env.cfg, env.log, env.metrics)
}

func main() {
	// SIGINT stops a run at the next record boundary
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
