package domain

// RiskTier is the categorical label derived from a risk score.
type RiskTier string

const (
	TierHigh     RiskTier = "HIGH"
	TierModerate RiskTier = "MODERATE"
	TierLow      RiskTier = "LOW"
)

// Message returns the reviewer-facing summary for the tier.
func (t RiskTier) Message() string {
	switch t {
	case TierHigh:
		return "HIGH RISK: This transaction is suspicious."
	case TierModerate:
		return "MODERATE RISK: Requires further review."
	default:
		return "LOW RISK: No major red flags detected."
	}
}

// ScoredTransaction is a Transaction augmented with its risk score.
type ScoredTransaction struct {
	Transaction

	RiskScore      float64  `json:"risk_score" yaml:"risk_score"`
	RiskTier       RiskTier `json:"risk_tier" yaml:"risk_tier"`
	TriggeredRules []string `json:"triggered_rules" yaml:"triggered_rules"`
}

// RecordError reports a batch record that could not be scored.
type RecordError struct {
	Index         int    `json:"index" yaml:"index"`
	TransactionID string `json:"transactionId,omitempty" yaml:"transaction_id,omitempty"`
	Error         string `json:"error" yaml:"error"`
}

// BatchResult holds the outcome of scoring a batch. Results keep the
// relative input order of the records that were scored.
type BatchResult struct {
	Results []ScoredTransaction `json:"results" yaml:"results"`
	Errors  []RecordError       `json:"errors,omitempty" yaml:"errors,omitempty"`
}
