//go:build integration
// +build integration

// Package integration provides end-to-end tests against a running
// Tradewatch server.
//
// These tests verify the complete scoring pipeline:
//
//	Transaction → Rules → Weighted Sum → Tier
//
// Run with:
//
//	go run ./cmd/tradewatch serve &
//	go test -tags=integration -v ./tests/integration/...
//
// The server must run with the built-in rule table:
//
// | Rule ID          | Weight | Triggers When                                 |
// |------------------|--------|-----------------------------------------------|
// | route_distance   | 0.20   | actual / shortest distance > 3.0              |
// | pricing_anomaly  | 0.30   | |unit - market| / market price > 0.50         |
// | tax_haven        | 0.20   | origin in Switzerland, Mauritius, Cayman Is.  |
// | doc_discrepancy  | 0.10   | documents inconsistent                        |
// | company_age      | 0.20   | company age < 2.0 years                       |
//
// Tiers: HIGH >= 0.50, MODERATE >= 0.25, LOW otherwise.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestConfig holds test environment configuration
type TestConfig struct {
	BaseURL string
}

func getTestConfig() TestConfig {
	baseURL := os.Getenv("TRADEWATCH_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return TestConfig{BaseURL: baseURL}
}

// ScoreRequest mirrors the POST /score body.
type ScoreRequest struct {
	TransactionID       string   `json:"transaction_id,omitempty"`
	ActualDistance      *float64 `json:"actual_distance,omitempty"`
	ShortestDistance    *float64 `json:"shortest_distance,omitempty"`
	UnitPrice           *float64 `json:"unit_price,omitempty"`
	MarketPrice         *float64 `json:"market_price,omitempty"`
	OriginCountry       *string  `json:"origin_country,omitempty"`
	DocumentDiscrepancy *bool    `json:"document_discrepancy,omitempty"`
	CompanyAge          *float64 `json:"company_age,omitempty"`
}

// ScoreResponse mirrors the POST /score response.
type ScoreResponse struct {
	TransactionID  string   `json:"transaction_id"`
	RiskScore      float64  `json:"risk_score"`
	RiskTier       string   `json:"risk_tier"`
	TriggeredRules []string `json:"triggered_rules"`
	Metadata       struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

func num(v float64) *float64 { return &v }
func str(v string) *string { return &v }
func flag(v bool) *bool { return &v }

// cleanTrade triggers no rule.
func cleanTrade(id string) ScoreRequest {
	return ScoreRequest{
		TransactionID:       id,
		ActualDistance:      num(100),
		ShortestDistance:    num(90),
		UnitPrice:           num(105),
		MarketPrice:         num(100),
		OriginCountry:       str("USA"),
		DocumentDiscrepancy: flag(false),
		CompanyAge:          num(10),
	}
}

func post(t *testing.T, config TestConfig, path string, body any) (int, []byte) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(config.BaseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Failed to call %s: %v", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return resp.StatusCode, data
}

func score(t *testing.T, config TestConfig, req ScoreRequest) ScoreResponse {
	t.Helper()

	status, data := post(t, config, "/score", req)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, data)
	}

	var resp ScoreResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestCleanTrade_LowRisk(t *testing.T) {
	config := getTestConfig()

	resp := score(t, config, cleanTrade("INT-CLEAN"))

	if resp.RiskScore != 0 {
		t.Errorf("Expected score 0, got %.2f", resp.RiskScore)
	}
	if resp.RiskTier != "LOW" {
		t.Errorf("Expected LOW, got %s", resp.RiskTier)
	}
	if len(resp.TriggeredRules) != 0 {
		t.Errorf("Expected no triggered rules, got %v", resp.TriggeredRules)
	}
}

func TestExactRouteThreshold_NoTrigger(t *testing.T) {
	config := getTestConfig()

	req := cleanTrade("INT-EXACT")
	req.ActualDistance = num(3000)
	req.ShortestDistance = num(1000)

	resp := score(t, config, req)
	if resp.RiskScore != 0 {
		t.Errorf("Ratio of exactly 3.0 must not trigger, got %.2f", resp.RiskScore)
	}
}

func TestJustAboveRouteThreshold_Triggers(t *testing.T) {
	config := getTestConfig()

	req := cleanTrade("INT-ABOVE")
	req.ActualDistance = num(3001)
	req.ShortestDistance = num(1000)

	resp := score(t, config, req)
	if resp.RiskScore != 0.20 {
		t.Errorf("Expected 0.20, got %.2f", resp.RiskScore)
	}
	if resp.RiskTier != "LOW" {
		t.Errorf("Expected LOW, got %s", resp.RiskTier)
	}
}

func TestCompoundRisk_High(t *testing.T) {
	config := getTestConfig()

	req := ScoreRequest{
		TransactionID:       "INT-COMPOUND",
		ActualDistance:      num(8000),
		ShortestDistance:    num(2000),
		UnitPrice:           num(1500),
		MarketPrice:         num(950),
		OriginCountry:       str("Panama"),
		DocumentDiscrepancy: flag(false),
		CompanyAge:          num(1.5),
	}

	resp := score(t, config, req)
	if resp.RiskScore != 0.70 {
		t.Errorf("Expected 0.70, got %.2f", resp.RiskScore)
	}
	if resp.RiskTier != "HIGH" {
		t.Errorf("Expected HIGH, got %s", resp.RiskTier)
	}
	if len(resp.TriggeredRules) != 3 {
		t.Errorf("Expected 3 triggered rules, got %v", resp.TriggeredRules)
	}
}

func TestZeroDenominators_NoTrigger(t *testing.T) {
	config := getTestConfig()

	req := cleanTrade("INT-ZERO")
	req.ShortestDistance = num(0)
	req.MarketPrice = num(0)

	resp := score(t, config, req)
	if resp.RiskScore != 0 {
		t.Errorf("Zero denominators must not trigger, got %.2f", resp.RiskScore)
	}
}

func TestMissingField_Error(t *testing.T) {
	config := getTestConfig()

	req := cleanTrade("INT-MISSING")
	req.CompanyAge = nil

	status, data := post(t, config, "/score", req)
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", status, data)
	}

	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if body["field"] != "company_age" {
		t.Errorf("Expected field company_age, got %q", body["field"])
	}
}

func TestBatch_SortedAndRejected(t *testing.T) {
	config := getTestConfig()

	high := cleanTrade("INT-B-HIGH")
	high.OriginCountry = str("Cayman Islands")
	high.CompanyAge = num(0.5)
	high.DocumentDiscrepancy = flag(true)

	missing := cleanTrade("INT-B-MISSING")
	missing.MarketPrice = nil

	status, data := post(t, config, "/score/batch?sort=desc", map[string]any{
		"transactions": []ScoreRequest{cleanTrade("INT-B-LOW"), missing, high},
	})
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, data)
	}

	var resp struct {
		Results  []ScoreResponse `json:"results"`
		Scored   int             `json:"scored"`
		Rejected int             `json:"rejected"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Scored != 2 || resp.Rejected != 1 {
		t.Fatalf("Expected 2 scored and 1 rejected, got %d/%d", resp.Scored, resp.Rejected)
	}
	if resp.Results[0].TransactionID != "INT-B-HIGH" {
		t.Errorf("Expected INT-B-HIGH first, got %s", resp.Results[0].TransactionID)
	}
	if resp.Results[0].RiskScore != 0.50 || resp.Results[0].RiskTier != "HIGH" {
		t.Errorf("Expected 0.50 HIGH, got %.2f %s", resp.Results[0].RiskScore, resp.Results[0].RiskTier)
	}
}

func TestResponseMetadata(t *testing.T) {
	config := getTestConfig()

	resp := score(t, config, cleanTrade("INT-META"))

	if resp.Metadata.TraceID == "" {
		t.Error("Expected trace ID in metadata")
	}
	if resp.Metadata.Version == "" {
		t.Error("Expected version in metadata")
	}
}
