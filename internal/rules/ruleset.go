package rules

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/tradewatch/internal/domain"
)

var totalWeight = decimal.NewFromInt(1)

// LoadRuleSet reads a YAML rule-set file and overlays it on base.
// Keys absent from the file keep their base values.
func LoadRuleSet(path string, base domain.ScoringConfig) (domain.ScoringConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, fmt.Errorf("failed to open rule set %s: %w", path, err)
	}
	defer f.Close()

	return ParseRuleSet(f, base)
}

// ParseRuleSet decodes a YAML rule set from r and overlays it on base.
// The result is validated before it is returned.
func ParseRuleSet(r io.Reader, base domain.ScoringConfig) (domain.ScoringConfig, error) {
	cfg := base.Clone()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return base, fmt.Errorf("failed to decode rule set: %w", err)
	}

	if len(cfg.Rules) == 0 {
		cfg.Rules = BuiltinRules()
	}

	if err := ValidateConfig(cfg); err != nil {
		return base, err
	}

	return cfg, nil
}

// ValidateConfig checks the structural rules of a scoring configuration:
// unique non-empty rule IDs, non-negative weights summing to exactly 1.00,
// and ordered tier cut-offs within [0, 1].
func ValidateConfig(cfg domain.ScoringConfig) error {
	if len(cfg.Rules) == 0 {
		return fmt.Errorf("%w: at least one rule is required", domain.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(cfg.Rules))
	sum := decimal.Zero

	for i, rc := range cfg.Rules {
		if rc.ID == "" {
			return fmt.Errorf("%w: rule %d has no id", domain.ErrInvalidConfig, i)
		}
		if _, dup := seen[rc.ID]; dup {
			return fmt.Errorf("%w: duplicate rule id %q", domain.ErrInvalidConfig, rc.ID)
		}
		seen[rc.ID] = struct{}{}

		if rc.Expression == "" {
			return fmt.Errorf("%w: rule %s has no expression", domain.ErrInvalidConfig, rc.ID)
		}
		if math.IsNaN(rc.Weight) || math.IsInf(rc.Weight, 0) || rc.Weight < 0 {
			return fmt.Errorf("%w: rule %s has invalid weight %v", domain.ErrInvalidConfig, rc.ID, rc.Weight)
		}
		sum = sum.Add(decimal.NewFromFloat(rc.Weight))
	}

	if !sum.Equal(totalWeight) {
		return fmt.Errorf("%w: rule weights sum to %s, want 1.00", domain.ErrInvalidConfig, sum.StringFixed(2))
	}

	if cfg.ModerateRiskThreshold < 0 || cfg.HighRiskThreshold > 1 ||
		cfg.ModerateRiskThreshold > cfg.HighRiskThreshold {
		return fmt.Errorf("%w: tier thresholds must satisfy 0 <= moderate (%v) <= high (%v) <= 1",
			domain.ErrInvalidConfig, cfg.ModerateRiskThreshold, cfg.HighRiskThreshold)
	}

	return nil
}
