package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

func rulesCmd() *cli.Command {
	return &cli.Command{
		Name:   "rules",
		Usage:  "Print the active rule table",
		Action: runRules,
	}
}

func runRules(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scorer, err := newScorer(cfg)
	if err != nil {
		return err
	}
	active := scorer.Engine().Config()

	w := cmd.Root().Writer
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tWEIGHT\tEXPRESSION")
	for _, r := range active.Rules {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", r.ID, r.Weight, r.Expression)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "route_ratio_threshold:     %v\n", active.RouteRatioThreshold)
	fmt.Fprintf(w, "pricing_anomaly_threshold: %v\n", active.PricingAnomalyThreshold)
	fmt.Fprintf(w, "company_age_threshold:     %v\n", active.CompanyAgeThreshold)
	fmt.Fprintf(w, "tax_havens:                %s\n", strings.Join(active.TaxHavens, ", "))
	fmt.Fprintf(w, "tiers:                     HIGH >= %v, MODERATE >= %v\n",
		active.HighRiskThreshold, active.ModerateRiskThreshold)
	return nil
}
