package domain

// Config holds the complete Tradewatch configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Rule table, thresholds and tier cut-offs
	Scoring ScoringConfig `json:"scoring"`

	// Path to an optional YAML rule-set file overriding Scoring
	RulesFile string `json:"rulesFile,omitempty"`

	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// ScoringConfig is the fixed rule table used by the scorer.
// Thresholds and the tax haven set are exposed to rule expressions as
// variables, so substituting them never requires touching a rule.
type ScoringConfig struct {
	RouteRatioThreshold     float64  `json:"routeRatioThreshold" yaml:"route_ratio_threshold"`
	PricingAnomalyThreshold float64  `json:"pricingAnomalyThreshold" yaml:"pricing_anomaly_threshold"`
	CompanyAgeThreshold     float64  `json:"companyAgeThreshold" yaml:"company_age_threshold"`
	TaxHavens               []string `json:"taxHavens" yaml:"tax_havens"`

	// Tier cut-offs, lower bound inclusive
	HighRiskThreshold     float64 `json:"highRiskThreshold" yaml:"high_risk_threshold"`
	ModerateRiskThreshold float64 `json:"moderateRiskThreshold" yaml:"moderate_risk_threshold"`

	// Ordered rule list. Empty means the built-in rules.
	Rules []RuleConfig `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// DefaultScoringConfig returns the standard trade-based laundering rule table.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		RouteRatioThreshold:     3.0,
		PricingAnomalyThreshold: 0.50,
		CompanyAgeThreshold:     2.0,
		TaxHavens:               []string{"Switzerland", "Mauritius", "Cayman Islands"},
		HighRiskThreshold:       0.50,
		ModerateRiskThreshold:   0.25,
	}
}

// Clone returns a deep copy so callers cannot mutate shared slices.
func (c ScoringConfig) Clone() ScoringConfig {
	out := c
	out.TaxHavens = append([]string(nil), c.TaxHavens...)
	if c.Rules != nil {
		out.Rules = append([]RuleConfig(nil), c.Rules...)
	}
	return out
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Scoring: DefaultScoringConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
