package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"avd/internal/platform/httpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Starts the HTTP API. Without a database URL the service keeps all state
in memory; without a Redis URL rate limits are enforced per process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("load config", err)
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := buildApp(ctx, cfg, log, reg)
	if err != nil {
		log.Error("failed to start", "error", err)
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	for _, run := range a.workers {
		g.Go(func() error {
			if err := run(gctx); err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.New(cfg.Server.Addr, a.router), log, cfg.Server.ShutdownTimeout)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}
