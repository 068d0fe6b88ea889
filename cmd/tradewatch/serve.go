package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/opensource-finance/tradewatch/internal/api"
	"github.com/opensource-finance/tradewatch/internal/domain"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the scoring HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Listen address",
				Value:   "0.0.0.0",
				Sources: cli.EnvVars("TRADEWATCH_HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Listen port",
				Value:   8080,
				Sources: cli.EnvVars("TRADEWATCH_PORT"),
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	slog.Info("starting tradewatch",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Server.Host = cmd.String("host")
	cfg.Server.Port = int(cmd.Int("port"))

	slog.Info("configuration loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"rules_file", cfg.RulesFile,
		"log_level", cfg.Logging.Level,
	)

	scorer, err := newScorer(cfg)
	if err != nil {
		return err
	}
	slog.Info("scorer initialized",
		"rules_count", scorer.Engine().RulesCount(),
		"high_threshold", cfg.Scoring.HighRiskThreshold,
		"moderate_threshold", cfg.Scoring.ModerateRiskThreshold,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	srv := api.NewServer(cfg.Server, scorer, Version)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("tradewatch is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cmd.Root().Writer, cfg, Version)

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("tradewatch shutdown complete")
	return nil
}

func printBanner(w io.Writer, cfg *domain.Config, version string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  TRADEWATCH")
	fmt.Fprintln(w, "  Trade-based money laundering risk scoring")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Version:  %s\n", version)
	fmt.Fprintf(w, "  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Endpoints:")
	fmt.Fprintln(w, "    POST /score                - Score a transaction")
	fmt.Fprintln(w, "    POST /score/batch          - Score a batch (?sort=desc to rank)")
	fmt.Fprintln(w, "    GET  /rules                - Show the active rule table")
	fmt.Fprintln(w, "    GET  /health               - Health check")
	fmt.Fprintln(w)
}
