package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/opensource-finance/tradewatch/internal/domain"
)

func scoreCmd() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Score a single transaction given on the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Transaction identifier", Value: "NEW_TXN"},
			&cli.FloatFlag{Name: "actual-distance", Usage: "Route distance actually travelled", Value: 8000},
			&cli.FloatFlag{Name: "shortest-distance", Usage: "Shortest possible route distance", Value: 2000},
			&cli.FloatFlag{Name: "unit-price", Usage: "Declared unit price", Value: 1500},
			&cli.FloatFlag{Name: "market-price", Usage: "Market benchmark price", Value: 950},
			&cli.StringFlag{Name: "origin-country", Usage: "Country of origin", Value: "Panama"},
			&cli.FloatFlag{Name: "company-age", Usage: "Company age in years", Value: 1.5},
			&cli.BoolFlag{Name: "doc-discrepancy", Usage: "Shipping documents are inconsistent"},
		},
		Action: runScore,
	}
}

func runScore(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scorer, err := newScorer(cfg)
	if err != nil {
		return err
	}

	tx := &domain.Transaction{
		ID:                  cmd.String("id"),
		ActualDistance:      cmd.Float("actual-distance"),
		ShortestDistance:    cmd.Float("shortest-distance"),
		UnitPrice:           cmd.Float("unit-price"),
		MarketPrice:         cmd.Float("market-price"),
		OriginCountry:       cmd.String("origin-country"),
		CompanyAge:          cmd.Float("company-age"),
		DocumentDiscrepancy: cmd.Bool("doc-discrepancy"),
	}

	scored, err := scorer.Score(tx)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	fmt.Fprintf(w, "Money Laundering Probability: %.2f (%.0f%%)\n", scored.RiskScore, scored.RiskScore*100)
	fmt.Fprintln(w, scored.RiskTier.Message())
	if len(scored.TriggeredRules) > 0 {
		fmt.Fprintf(w, "Triggered rules: %s\n", strings.Join(scored.TriggeredRules, ", "))
	}
	return nil
}
