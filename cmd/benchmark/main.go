// Benchmark tool for measuring Tradewatch against labelled trade data.
//
// Usage:
//
//	go run ./cmd/benchmark --csv /path/to/labelled.csv --url http://localhost:8080
//
// This tool:
//  1. Reads a trade CSV carrying an is_laundering label column
//  2. Sends the records to Tradewatch in chunks via POST /score/batch
//  3. Treats a HIGH tier as a positive prediction and compares with the label
//  4. Calculates precision, recall, F1-score and the confusion matrix
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/opensource-finance/tradewatch/internal/api"
	"github.com/opensource-finance/tradewatch/internal/dataset"
	"github.com/opensource-finance/tradewatch/internal/domain"
)

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Laundering scored HIGH
	FalsePositives int64 // Clean trade scored HIGH
	TrueNegatives  int64 // Clean trade below HIGH
	FalseNegatives int64 // Laundering below HIGH (missed!)

	TotalProcessed int64
	TotalPositive  int64
	TotalNegative  int64
	TotalRejected  int64
	TotalErrors    int64

	Requests         int64
	ProcessingTimeMs int64
}

// labelled is a record with a known ground truth.
type labelled struct {
	input domain.TransactionInput
	label bool
}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure Tradewatch detection quality against a labelled CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "csv", Usage: "Path to labelled CSV file", Required: true},
			&cli.StringFlag{Name: "url", Usage: "Tradewatch base URL", Value: "http://localhost:8080"},
			&cli.IntFlag{Name: "limit", Usage: "Maximum records to process (0 = all)", Value: 10000},
			&cli.IntFlag{Name: "chunk", Usage: "Records per batch request", Value: 500},
			&cli.IntFlag{Name: "workers", Usage: "Number of concurrent workers", Value: 4},
			&cli.BoolFlag{Name: "verbose", Usage: "Print each record result"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	csvPath := cmd.String("csv")
	baseURL := cmd.String("url")
	limit := int(cmd.Int("limit"))
	chunk := int(cmd.Int("chunk"))
	workers := int(cmd.Int("workers"))
	verbose := cmd.Bool("verbose")

	if chunk <= 0 || chunk > api.MaxBatchSize {
		return fmt.Errorf("chunk must be between 1 and %d", api.MaxBatchSize)
	}
	if workers <= 0 {
		workers = 1
	}

	fmt.Println("TRADEWATCH BENCHMARK - labelled trade data")
	fmt.Printf("\nCSV File:    %s\n", csvPath)
	fmt.Printf("URL:         %s\n", baseURL)
	fmt.Printf("Workers:     %d\n", workers)
	fmt.Printf("Chunk:       %d\n", chunk)
	fmt.Printf("Limit:       %d\n", limit)
	fmt.Println()

	if err := checkHealth(ctx, baseURL); err != nil {
		fmt.Println("Make sure Tradewatch is running:")
		fmt.Println("  go run ./cmd/tradewatch serve")
		return fmt.Errorf("tradewatch not reachable at %s: %w", baseURL, err)
	}
	fmt.Println("Tradewatch is healthy")

	fmt.Printf("\nReading labelled data from %s...\n", csvPath)
	records, err := readLabelledCSV(csvPath, limit)
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no labelled records in %s", csvPath)
	}
	fmt.Printf("Loaded %d labelled records\n", len(records))

	positives := 0
	for _, r := range records {
		if r.label {
			positives++
		}
	}
	fmt.Printf("  - Laundering: %d (%.2f%%)\n", positives, 100*float64(positives)/float64(len(records)))
	fmt.Printf("  - Clean:      %d (%.2f%%)\n", len(records)-positives, 100*float64(len(records)-positives)/float64(len(records)))

	fmt.Printf("\nRunning benchmark with %d workers...\n", workers)
	startTime := time.Now()
	metrics := runBenchmark(ctx, records, baseURL, chunk, workers, verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
	return nil
}

func checkHealth(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readLabelledCSV keeps only rows that carry a label.
func readLabelledCSV(path string, limit int) ([]labelled, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := dataset.ReadCSV(file)
	if err != nil {
		return nil, err
	}

	var out []labelled
	for _, row := range rows {
		if row.Label == nil {
			continue
		}
		out = append(out, labelled{input: row.Input, label: *row.Label})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func runBenchmark(ctx context.Context, records []labelled, baseURL string, chunk, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan []labelled, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 60 * time.Second}

			for part := range work {
				start := time.Now()
				resp, err := scoreChunk(ctx, client, baseURL, part)
				atomic.AddInt64(&metrics.ProcessingTimeMs, time.Since(start).Milliseconds())
				atomic.AddInt64(&metrics.Requests, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, int64(len(part)))
					if verbose {
						fmt.Printf("ERROR: chunk of %d -> %v\n", len(part), err)
					}
					continue
				}

				tally(metrics, part, resp, verbose)
			}
		}()
	}

	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		work <- records[start:end]
	}
	close(work)

	wg.Wait()

	return metrics
}

// tally matches unsorted batch results back to their labels. Results keep
// input order with rejected indices removed.
func tally(m *Metrics, part []labelled, resp *api.BatchResponse, verbose bool) {
	rejected := make(map[int]bool, len(resp.Errors))
	for _, e := range resp.Errors {
		rejected[e.Index] = true
	}
	atomic.AddInt64(&m.TotalRejected, int64(len(resp.Errors)))

	next := 0
	for i, rec := range part {
		if rejected[i] {
			continue
		}
		if next >= len(resp.Results) {
			atomic.AddInt64(&m.TotalErrors, 1)
			continue
		}
		result := resp.Results[next]
		next++

		atomic.AddInt64(&m.TotalProcessed, 1)
		if rec.label {
			atomic.AddInt64(&m.TotalPositive, 1)
		} else {
			atomic.AddInt64(&m.TotalNegative, 1)
		}

		predicted := result.RiskTier == domain.TierHigh
		actual := rec.label

		switch {
		case predicted && actual:
			atomic.AddInt64(&m.TruePositives, 1)
		case predicted && !actual:
			atomic.AddInt64(&m.FalsePositives, 1)
		case !predicted && !actual:
			atomic.AddInt64(&m.TrueNegatives, 1)
		default:
			atomic.AddInt64(&m.FalseNegatives, 1)
		}

		if verbose {
			status := "ok "
			if predicted != actual {
				status = "MISS"
			}
			fmt.Printf("%s %-12s | Country: %-14s | Laundering: %-5v | Tier: %-8s (%.2f)\n",
				status,
				result.ID,
				result.OriginCountry,
				actual,
				result.RiskTier,
				result.RiskScore,
			)
		}
	}
}

func scoreChunk(ctx context.Context, client *http.Client, baseURL string, part []labelled) (*api.BatchResponse, error) {
	req := api.BatchRequest{Transactions: make([]domain.TransactionInput, len(part))}
	for i, rec := range part {
		req.Transactions[i] = rec.input
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/score/batch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result api.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\nBENCHMARK RESULTS")

	fmt.Printf("\nDATASET STATISTICS\n")
	fmt.Printf("   Total Scored:     %d\n", m.TotalProcessed)
	fmt.Printf("   Laundering:       %d\n", m.TotalPositive)
	fmt.Printf("   Clean:            %d\n", m.TotalNegative)
	fmt.Printf("   Rejected:         %d\n", m.TotalRejected)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\nCONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                    HIGH        other")
	fmt.Println("              +----------+----------+")
	fmt.Printf("   Actual  L  | %8d | %8d |  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              +----------+----------+")
	fmt.Printf("           C  | %8d | %8d |  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              +----------+----------+")

	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\nDETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of HIGH verdicts, how many were laundering)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of laundering, how many scored HIGH)\n", recall)
	fmt.Printf("   F1-Score:   %.4f\n", f1)
	fmt.Printf("   Accuracy:   %.4f\n", accuracy)

	fmt.Printf("\nPERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.Requests > 0 {
		fmt.Printf("   Requests:         %d\n", m.Requests)
		fmt.Printf("   Avg Latency:      %.2f ms/request\n", float64(m.ProcessingTimeMs)/float64(m.Requests))
	}
	if m.TotalProcessed > 0 && duration > 0 {
		fmt.Printf("   Throughput:       %.2f tx/sec\n", float64(m.TotalProcessed)/duration.Seconds())
	}

	fmt.Println()
}
