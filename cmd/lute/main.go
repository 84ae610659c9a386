// Command lute runs the fabric as a single process: EventCore, Sched,
// CrawlerCore, Index, EmbedCore, and Parser Dispatch all share one
// bbolt handle and one Redis client, exposed over the gRPC API and a
// plain-HTTP health server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shedrachokonofua/lute-sub001/pkg/api"
	"github.com/shedrachokonofua/lute-sub001/pkg/app"
	"github.com/shedrachokonofua/lute-sub001/pkg/config"
	"github.com/shedrachokonofua/lute-sub001/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lute",
	Short: "Run the fabric",
	Long: `lute runs every core system of the fabric in one process:
EventCore's append-only log and subscriber delivery, Sched's durable
job store, CrawlerCore's priority queue and rate limiter, Index's
read models, EmbedCore's embedding pipeline, and Parser Dispatch.

Configuration is read from the file named by LUTE_CONFIG_PATH, or
from built-in defaults if that variable is unset.`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("construct fabric: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	apiServer := api.NewServer(a)
	apiErrCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(cfg.ListenAddr); err != nil {
			apiErrCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	log.Logger.Info().Str("addr", cfg.ListenAddr).Msg("gRPC API listening")

	healthServer := api.NewHealthServer(a)
	healthErrCh := make(chan error, 1)
	go func() {
		if err := healthServer.Start(cfg.HealthAddr); err != nil {
			healthErrCh <- fmt.Errorf("health server: %w", err)
		}
	}()
	log.Logger.Info().Str("addr", cfg.HealthAddr).Msg("health server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Logger.Info().Msg("shutdown signal received")
	case err := <-apiErrCh:
		log.Logger.Error().Err(err).Msg("api server error")
	case err := <-healthErrCh:
		log.Logger.Error().Err(err).Msg("health server error")
	}

	cancel()
	apiServer.Stop()
	if err := a.Stop(); err != nil {
		return fmt.Errorf("stop fabric: %w", err)
	}
	log.Logger.Info().Msg("shutdown complete")
	return nil
}
