package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/tradewatch/internal/dataset"
	"github.com/opensource-finance/tradewatch/internal/domain"
	"github.com/opensource-finance/tradewatch/internal/scoring"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func batchCmd() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Score a batch of transactions from a CSV, JSON or YAML file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Batch file (.csv, .json, .yaml)"},
			&cli.BoolFlag{Name: "sample", Usage: "Score the built-in demonstration batch"},
			&cli.BoolFlag{Name: "sort", Usage: "Rank results by descending risk score"},
			&cli.StringFlag{Name: "format", Usage: "Output format [table, json, yaml]", Value: formatTable},
		},
		Action: runBatch,
	}
}

func runBatch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("file")
	useSample := cmd.Bool("sample")
	if (path == "") == !useSample {
		return fmt.Errorf("exactly one of --file or --sample is required")
	}

	format := strings.ToLower(cmd.String("format"))
	if format == "yml" {
		format = formatYAML
	}
	if format != formatTable && format != formatJSON && format != formatYAML {
		return fmt.Errorf("unsupported output format %q", format)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scorer, err := newScorer(cfg)
	if err != nil {
		return err
	}

	var inputs []domain.TransactionInput
	if useSample {
		inputs = dataset.SampleInputs()
	} else {
		inputs, err = dataset.ReadFile(path)
		if err != nil {
			return err
		}
	}
	if len(inputs) == 0 {
		return fmt.Errorf("batch is empty")
	}

	batch := scorer.ScoreBatch(inputs)
	if cmd.Bool("sort") {
		batch.Results = scoring.RankByScore(batch.Results)
	}

	return writeBatch(cmd.Root().Writer, format, batch)
}

func writeBatch(w io.Writer, format string, batch *domain.BatchResult) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(batch)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(batch)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCORE\tTIER\tCOUNTRY\tTRIGGERED")
	for _, r := range batch.Results {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\n",
			r.ID, r.RiskScore, r.RiskTier, r.OriginCountry, strings.Join(r.TriggeredRules, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range batch.Errors {
		fmt.Fprintf(w, "rejected record %d (%s): %s\n", e.Index, e.TransactionID, e.Error)
	}
	return nil
}
