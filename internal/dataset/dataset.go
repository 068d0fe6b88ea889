// Package dataset reads transaction batches from CSV, JSON and YAML files.
// Absent columns, cells or keys are left unset so the scorer can report
// them as missing fields on the affected records.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/tradewatch/internal/domain"
)

// Format identifies a batch file encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ColumnLabel is the optional CSV column carrying a ground-truth label.
const ColumnLabel = "is_laundering"

// Record is one parsed row together with its optional label.
type Record struct {
	Input domain.TransactionInput
	Label *bool
}

// envelope is the object form of a JSON or YAML batch.
type envelope struct {
	Transactions []domain.TransactionInput `json:"transactions" yaml:"transactions"`
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported batch file extension %q", filepath.Ext(path))
	}
}

// ReadFile loads a batch from path, picking the reader by extension.
func ReadFile(path string) ([]domain.TransactionInput, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, format)
}

// Read decodes a batch in the given format.
func Read(r io.Reader, format Format) ([]domain.TransactionInput, error) {
	switch format {
	case FormatCSV:
		records, err := ReadCSV(r)
		if err != nil {
			return nil, err
		}
		out := make([]domain.TransactionInput, len(records))
		for i, rec := range records {
			out[i] = rec.Input
		}
		return out, nil
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	default:
		return nil, fmt.Errorf("unsupported batch format %q", format)
	}
}

// ReadJSON accepts either an array of records or {"transactions": [...]}.
func ReadJSON(r io.Reader) ([]domain.TransactionInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON batch: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []domain.TransactionInput
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to decode JSON batch: %w", err)
		}
		return list, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode JSON batch: %w", err)
	}
	return env.Transactions, nil
}

// ReadYAML accepts either a sequence of records or a transactions key.
func ReadYAML(r io.Reader) ([]domain.TransactionInput, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode YAML batch: %w", err)
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	if root.Kind == yaml.SequenceNode {
		var list []domain.TransactionInput
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to decode YAML batch: %w", err)
		}
		return list, nil
	}

	var env envelope
	if err := root.Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode YAML batch: %w", err)
	}
	return env.Transactions, nil
}

// ReadCSV decodes a CSV batch whose header names the fields. Columns may
// appear in any order; unknown columns are ignored. An empty cell or a
// short row leaves the field unset. A row that cannot be parsed is kept
// with its DecodeErr set so the scorer rejects only that record.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			var rec Record
			rec.Input.DecodeErr = domain.InvalidField(domain.FieldRecord, parseErr)
			records = append(records, rec)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		records = append(records, parseRow(row, columns))
	}

	return records, nil
}

func parseRow(row []string, columns map[string]int) Record {
	cell := func(name string) (string, bool) {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[idx])
		return v, v != ""
	}

	number := func(name string) (*float64, error) {
		v, ok := cell(name)
		if !ok {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, domain.InvalidField(name, err)
		}
		return &f, nil
	}

	flag := func(name string) (*bool, error) {
		v, ok := cell(name)
		if !ok {
			return nil, nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, domain.InvalidField(name, err)
		}
		return &b, nil
	}

	var (
		rec Record
		err error
	)
	in := &rec.Input

	if v, ok := cell(domain.FieldTransactionID); ok {
		in.ID = v
	}
	if v, ok := cell(domain.FieldOriginCountry); ok {
		in.OriginCountry = &v
	}
	if rec.Label, err = flag(ColumnLabel); err != nil {
		in.DecodeErr = err
		return rec
	}

	if in.ActualDistance, err = number(domain.FieldActualDistance); err != nil {
		in.DecodeErr = err
		return rec
	}
	if in.ShortestDistance, err = number(domain.FieldShortestDistance); err != nil {
		in.DecodeErr = err
		return rec
	}
	if in.UnitPrice, err = number(domain.FieldUnitPrice); err != nil {
		in.DecodeErr = err
		return rec
	}
	if in.MarketPrice, err = number(domain.FieldMarketPrice); err != nil {
		in.DecodeErr = err
		return rec
	}
	if in.DocumentDiscrepancy, err = flag(domain.FieldDocumentDiscrepancy); err != nil {
		in.DecodeErr = err
		return rec
	}
	if in.CompanyAge, err = number(domain.FieldCompanyAge); err != nil {
		in.DecodeErr = err
	}

	return rec
}
