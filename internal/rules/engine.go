// Package rules provides the CEL-Go based rule evaluation engine.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"

	"github.com/opensource-finance/tradewatch/internal/domain"
)

// CEL variable names available to rule expressions.
const (
	VarActualDistance      = "actual_distance"
	VarShortestDistance    = "shortest_distance"
	VarUnitPrice           = "unit_price"
	VarMarketPrice         = "market_price"
	VarOriginCountry       = "origin_country"
	VarDocumentDiscrepancy = "document_discrepancy"
	VarCompanyAge          = "company_age"

	VarRouteRatioThreshold     = "route_ratio_threshold"
	VarPricingAnomalyThreshold = "pricing_anomaly_threshold"
	VarCompanyAgeThreshold     = "company_age_threshold"
	VarTaxHavens               = "tax_havens"
)

// Engine evaluates an ordered rule table against transactions.
// It is immutable once built and safe for concurrent use.
type Engine struct {
	env    *cel.Env
	config domain.ScoringConfig
	rules  []*CompiledRule
	params map[string]any
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  domain.RuleConfig
	Weight  decimal.Decimal
	Program cel.Program
}

// NewEngine validates cfg and compiles its rules. An empty rule list
// selects BuiltinRules.
func NewEngine(cfg domain.ScoringConfig) (*Engine, error) {
	cfg = cfg.Clone()
	if len(cfg.Rules) == 0 {
		cfg.Rules = BuiltinRules()
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Engine{
		env:    env,
		config: cfg,
		rules:  make([]*CompiledRule, 0, len(cfg.Rules)),
		params: map[string]any{
			VarRouteRatioThreshold:     cfg.RouteRatioThreshold,
			VarPricingAnomalyThreshold: cfg.PricingAnomalyThreshold,
			VarCompanyAgeThreshold:     cfg.CompanyAgeThreshold,
			VarTaxHavens:               cfg.TaxHavens,
		},
	}

	for _, rc := range cfg.Rules {
		compiled, err := e.compileRule(rc)
		if err != nil {
			return nil, err
		}
		e.rules = append(e.rules, compiled)
	}

	return e, nil
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(VarActualDistance, cel.DoubleType),
		cel.Variable(VarShortestDistance, cel.DoubleType),
		cel.Variable(VarUnitPrice, cel.DoubleType),
		cel.Variable(VarMarketPrice, cel.DoubleType),
		cel.Variable(VarOriginCountry, cel.StringType),
		cel.Variable(VarDocumentDiscrepancy, cel.BoolType),
		cel.Variable(VarCompanyAge, cel.DoubleType),
		cel.Variable(VarRouteRatioThreshold, cel.DoubleType),
		cel.Variable(VarPricingAnomalyThreshold, cel.DoubleType),
		cel.Variable(VarCompanyAgeThreshold, cel.DoubleType),
		cel.Variable(VarTaxHavens, cel.ListType(cel.StringType)),
	)
}

// ValidateRule compiles a rule against the engine environment without
// changing the loaded rule table.
func (e *Engine) ValidateRule(rc domain.RuleConfig) error {
	_, err := e.compileRule(rc)
	return err
}

// Evaluate runs every rule against tx, in table order. All rules are
// evaluated; one rule firing never skips another.
func (e *Engine) Evaluate(tx *domain.Transaction) ([]domain.RuleResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}

	activation := e.activation(tx)
	results := make([]domain.RuleResult, 0, len(e.rules))

	for _, rule := range e.rules {
		out, _, err := rule.Program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("rule %s: evaluation error: %w", rule.Config.ID, err)
		}

		triggered, ok := out.(types.Bool)
		if !ok {
			return nil, fmt.Errorf("rule %s: expected bool result, got %s", rule.Config.ID, out.Type().TypeName())
		}

		results = append(results, domain.RuleResult{
			RuleID:    rule.Config.ID,
			Triggered: bool(triggered),
			Weight:    rule.Config.Weight,
		})
	}

	return results, nil
}

// activation builds the CEL variables for one transaction. The shared
// params map is copied, never written.
func (e *Engine) activation(tx *domain.Transaction) map[string]any {
	vars := make(map[string]any, len(e.params)+7)
	for k, v := range e.params {
		vars[k] = v
	}
	vars[VarActualDistance] = tx.ActualDistance
	vars[VarShortestDistance] = tx.ShortestDistance
	vars[VarUnitPrice] = tx.UnitPrice
	vars[VarMarketPrice] = tx.MarketPrice
	vars[VarOriginCountry] = tx.OriginCountry
	vars[VarDocumentDiscrepancy] = tx.DocumentDiscrepancy
	vars[VarCompanyAge] = tx.CompanyAge
	return vars
}

// CompiledRules returns the loaded rules in evaluation order.
func (e *Engine) CompiledRules() []*CompiledRule {
	out := make([]*CompiledRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Config returns a copy of the configuration the engine was built from.
func (e *Engine) Config() domain.ScoringConfig {
	return e.config.Clone()
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	return len(e.rules)
}

func (e *Engine) compileRule(rc domain.RuleConfig) (*CompiledRule, error) {
	ast, issues := e.env.Compile(rc.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", rc.ID, issues.Err())
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", rc.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rc.ID, err)
	}

	return &CompiledRule{
		Config:  rc,
		Weight:  decimal.NewFromFloat(rc.Weight),
		Program: program,
	}, nil
}
