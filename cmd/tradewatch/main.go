// Tradewatch - Trade-based money laundering risk scoring.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/opensource-finance/tradewatch/internal/domain"
	"github.com/opensource-finance/tradewatch/internal/logging"
	"github.com/opensource-finance/tradewatch/internal/rules"
	"github.com/opensource-finance/tradewatch/internal/scoring"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const (
	flagRules     = "rules"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "tradewatch",
		Usage:   "Score trade transactions for money-laundering risk",
		Version: fmt.Sprintf("%s (%s - %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagRules,
				Usage:   "Path to a YAML rule-set file overriding the built-in rule table",
				Sources: cli.EnvVars("TRADEWATCH_RULES"),
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "Log level [debug, info, warn, error]",
				Value:   "info",
				Sources: cli.EnvVars("TRADEWATCH_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    flagLogFormat,
				Usage:   "Log format [json, text]",
				Value:   "json",
				Sources: cli.EnvVars("TRADEWATCH_LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.Setup(cmd.Root().ErrWriter, domain.LoggingConfig{
				Level:  cmd.String(flagLogLevel),
				Format: cmd.String(flagLogFormat),
			})
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			scoreCmd(),
			batchCmd(),
			rulesCmd(),
		},
	}
}

// loadConfig builds the configuration from defaults, flags and the
// optional rule-set file.
func loadConfig(cmd *cli.Command) (*domain.Config, error) {
	cfg := domain.DefaultConfig()
	cfg.Logging.Level = cmd.String(flagLogLevel)
	cfg.Logging.Format = cmd.String(flagLogFormat)
	cfg.RulesFile = cmd.String(flagRules)

	if cfg.RulesFile != "" {
		scoringCfg, err := rules.LoadRuleSet(cfg.RulesFile, cfg.Scoring)
		if err != nil {
			return nil, err
		}
		cfg.Scoring = scoringCfg
		slog.Info("rule set loaded", "path", cfg.RulesFile)
	}

	return cfg, nil
}

// newScorer compiles the configured rule table.
func newScorer(cfg *domain.Config) (*scoring.Scorer, error) {
	scorer, err := scoring.New(cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scorer: %w", err)
	}
	slog.Debug("rule engine initialized", "rules_count", scorer.Engine().RulesCount())
	return scorer, nil
}
