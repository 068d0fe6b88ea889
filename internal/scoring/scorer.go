// Package scoring turns rule results into a bounded risk score and tier.
package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/opensource-finance/tradewatch/internal/domain"
	"github.com/opensource-finance/tradewatch/internal/rules"
)

// Scorer sums the weights of triggered rules for each transaction.
// It holds no mutable state; one Scorer may serve concurrent callers.
type Scorer struct {
	engine   *rules.Engine
	high     decimal.Decimal
	moderate decimal.Decimal
}

// NewScorer creates a scorer over a compiled rule engine.
func NewScorer(engine *rules.Engine) *Scorer {
	cfg := engine.Config()
	return &Scorer{
		engine:   engine,
		high:     decimal.NewFromFloat(cfg.HighRiskThreshold),
		moderate: decimal.NewFromFloat(cfg.ModerateRiskThreshold),
	}
}

// New builds the rule engine for cfg and wraps it in a Scorer.
func New(cfg domain.ScoringConfig) (*Scorer, error) {
	engine, err := rules.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return NewScorer(engine), nil
}

// Default returns a scorer over the built-in rule table.
func Default() (*Scorer, error) {
	return New(domain.DefaultScoringConfig())
}

// Engine returns the underlying rule engine.
func (s *Scorer) Engine() *rules.Engine {
	return s.engine
}

// Score computes the risk score of a single transaction. The input is
// copied into the result and never modified.
func (s *Scorer) Score(tx *domain.Transaction) (*domain.ScoredTransaction, error) {
	results, err := s.engine.Evaluate(tx)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	triggered := make([]string, 0, len(results))
	for _, r := range results {
		if !r.Triggered {
			continue
		}
		total = total.Add(decimal.NewFromFloat(r.Weight))
		triggered = append(triggered, r.RuleID)
	}

	// The tier is derived from the reported two-place score.
	score := total.Round(2)

	return &domain.ScoredTransaction{
		Transaction:    *tx,
		RiskScore:      score.InexactFloat64(),
		RiskTier:       s.tierOf(score),
		TriggeredRules: triggered,
	}, nil
}

// ScoreInput validates a wire record and scores it.
// A record with an absent field fails with domain.ErrMissingField.
func (s *Scorer) ScoreInput(in *domain.TransactionInput) (*domain.ScoredTransaction, error) {
	tx, err := in.ToTransaction()
	if err != nil {
		return nil, err
	}
	return s.Score(tx)
}

// ScoreTransactions scores well-formed records, preserving order.
func (s *Scorer) ScoreTransactions(txs []domain.Transaction) ([]domain.ScoredTransaction, error) {
	out := make([]domain.ScoredTransaction, 0, len(txs))
	for i := range txs {
		scored, err := s.Score(&txs[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, *scored)
	}
	return out, nil
}

// ScoreBatch scores every record independently, preserving input order.
// A record that cannot be scored is reported in Errors and skipped; it
// never aborts the rest of the batch.
func (s *Scorer) ScoreBatch(inputs []domain.TransactionInput) *domain.BatchResult {
	batch := &domain.BatchResult{
		Results: make([]domain.ScoredTransaction, 0, len(inputs)),
	}

	for i := range inputs {
		scored, err := s.ScoreInput(&inputs[i])
		if err != nil {
			slog.Warn("record rejected",
				"index", i,
				"transaction_id", inputs[i].ID,
				"missing_field", errors.Is(err, domain.ErrMissingField),
				"error", err,
			)
			batch.Errors = append(batch.Errors, domain.RecordError{
				Index:         i,
				TransactionID: inputs[i].ID,
				Error:         err.Error(),
			})
			continue
		}
		batch.Results = append(batch.Results, *scored)
	}

	return batch
}

// Tier maps a risk score onto the configured tiers.
func (s *Scorer) Tier(score float64) domain.RiskTier {
	return s.tierOf(decimal.NewFromFloat(score))
}

func (s *Scorer) tierOf(score decimal.Decimal) domain.RiskTier {
	switch {
	case score.GreaterThanOrEqual(s.high):
		return domain.TierHigh
	case score.GreaterThanOrEqual(s.moderate):
		return domain.TierModerate
	default:
		return domain.TierLow
	}
}

// RankByScore returns a copy of results ordered by descending risk score.
// Records with equal scores keep their original relative order.
func RankByScore(results []domain.ScoredTransaction) []domain.ScoredTransaction {
	ranked := make([]domain.ScoredTransaction, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskScore > ranked[j].RiskScore
	})
	return ranked
}
