package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opensource-finance/tradewatch/internal/domain"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(context.Background(), append([]string{"tradewatch"}, args...))
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		out, err := runApp(t, "score")
		if err != nil {
			t.Fatalf("score failed: %v", err)
		}
		if !strings.Contains(out, "Money Laundering Probability: 0.70 (70%)") {
			t.Errorf("unexpected probability line in %q", out)
		}
		if !strings.Contains(out, domain.TierHigh.Message()) {
			t.Errorf("expected high risk message in %q", out)
		}
		if !strings.Contains(out, "route_distance, pricing_anomaly, company_age") {
			t.Errorf("expected triggered rules in %q", out)
		}
	})

	t.Run("clean trade", func(t *testing.T) {
		out, err := runApp(t, "score",
			"--actual-distance", "100",
			"--shortest-distance", "90",
			"--unit-price", "105",
			"--market-price", "100",
			"--origin-country", "USA",
			"--company-age", "10",
		)
		if err != nil {
			t.Fatalf("score failed: %v", err)
		}
		if !strings.Contains(out, "Money Laundering Probability: 0.00 (0%)") {
			t.Errorf("unexpected probability line in %q", out)
		}
		if !strings.Contains(out, domain.TierLow.Message()) {
			t.Errorf("expected low risk message in %q", out)
		}
		if strings.Contains(out, "Triggered rules") {
			t.Errorf("no rules should be listed in %q", out)
		}
	})
}

func TestBatchCommand(t *testing.T) {
	t.Run("sample sorted json", func(t *testing.T) {
		out, err := runApp(t, "batch", "--sample", "--sort", "--format", "json")
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}

		var batch domain.BatchResult
		if err := json.Unmarshal([]byte(out), &batch); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if len(batch.Results) != 10 {
			t.Fatalf("expected 10 results, got %d", len(batch.Results))
		}

		want := []string{"TXN005", "TXN007", "TXN002", "TXN010", "TXN001"}
		for i, id := range want {
			if batch.Results[i].ID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, batch.Results[i].ID)
			}
		}
	})

	t.Run("file table with rejected record", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "batch.csv")
		csv := "transaction_id,actual_distance,shortest_distance,unit_price,market_price,origin_country,document_discrepancy,company_age\n" +
			"A,5000,1500,200,190,Cayman Islands,true,1.2\n" +
			"B,100,90,105,100,USA,false,\n" +
			"C,far,90,105,100,USA,false,10\n" +
			"D,100,90,105,100,USA,false,10\n"
		if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
			t.Fatal(err)
		}

		out, err := runApp(t, "batch", "--file", path)
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}
		if !strings.Contains(out, "HIGH") {
			t.Errorf("expected HIGH row in %q", out)
		}
		if !strings.Contains(out, "rejected record 1 (B)") {
			t.Errorf("expected rejected record line in %q", out)
		}
		if !strings.Contains(out, "rejected record 2 (C): actual_distance: invalid field value") {
			t.Errorf("expected unparsable row to be rejected alone in %q", out)
		}
		if !strings.Contains(out, "\nD ") {
			t.Errorf("expected rows after a malformed one to be scored in %q", out)
		}
	})

	t.Run("requires exactly one source", func(t *testing.T) {
		if _, err := runApp(t, "batch"); err == nil {
			t.Error("expected error without --file or --sample")
		}
		if _, err := runApp(t, "batch", "--sample", "--file", "x.csv"); err == nil {
			t.Error("expected error with both --file and --sample")
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := runApp(t, "batch", "--sample", "--format", "xml"); err == nil {
			t.Error("expected error for xml format")
		}
	})
}

func TestRulesCommand(t *testing.T) {
	out, err := runApp(t, "rules")
	if err != nil {
		t.Fatalf("rules failed: %v", err)
	}
	for _, id := range []string{
		domain.RuleRouteDistance,
		domain.RulePricingAnomaly,
		domain.RuleTaxHaven,
		domain.RuleDocDiscrepancy,
		domain.RuleCompanyAge,
	} {
		if !strings.Contains(out, id) {
			t.Errorf("expected rule %s in output", id)
		}
	}
	if !strings.Contains(out, "Switzerland, Mauritius, Cayman Islands") {
		t.Errorf("expected tax havens in %q", out)
	}
}

func TestRuleSetFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := "tax_havens:\n  - Panama\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := runApp(t, "--rules", path, "score")
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if !strings.Contains(out, "Money Laundering Probability: 0.90 (90%)") {
		t.Errorf("expected Panama to count as a tax haven, got %q", out)
	}

	if _, err := runApp(t, "--rules", filepath.Join(t.TempDir(), "missing.yaml"), "score"); err == nil {
		t.Error("expected error for missing rule set")
	}
}
