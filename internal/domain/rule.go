package domain

// RuleConfig defines a single weighted risk rule.
type RuleConfig struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// CEL expression; must evaluate to bool
	Expression string `json:"expression" yaml:"expression"`

	// Contribution to the risk score when the expression is true
	Weight float64 `json:"weight" yaml:"weight"`
}

// RuleResult is the outcome of one rule against one transaction.
type RuleResult struct {
	RuleID    string  `json:"ruleId"`
	Triggered bool    `json:"triggered"`
	Weight    float64 `json:"weight"`
}

// Built-in rule IDs.
const (
	RuleRouteDistance  = "route_distance"
	RulePricingAnomaly = "pricing_anomaly"
	RuleTaxHaven       = "tax_haven"
	RuleDocDiscrepancy = "doc_discrepancy"
	RuleCompanyAge     = "company_age"
)
