package rules

import "github.com/opensource-finance/tradewatch/internal/domain"

// BuiltinRules returns the standard trade-based laundering rule table.
// Ratio rules guard their denominator explicitly so a zero distance or
// price suppresses the rule instead of producing an infinite ratio.
func BuiltinRules() []domain.RuleConfig {
	return []domain.RuleConfig{
		{
			ID:          domain.RuleRouteDistance,
			Description: "Route travelled is much longer than the shortest route",
			Expression:  "shortest_distance != 0.0 && actual_distance / shortest_distance > route_ratio_threshold",
			Weight:      0.20,
		},
		{
			ID:          domain.RulePricingAnomaly,
			Description: "Declared price deviates strongly from the market price",
			Expression: "market_price != 0.0 && " +
				"(unit_price >= market_price ? unit_price - market_price : market_price - unit_price) / " +
				"market_price > pricing_anomaly_threshold",
			Weight: 0.30,
		},
		{
			ID:          domain.RuleTaxHaven,
			Description: "Goods originate from a configured tax haven",
			Expression:  "origin_country in tax_havens",
			Weight:      0.20,
		},
		{
			ID:          domain.RuleDocDiscrepancy,
			Description: "Shipping documents are inconsistent",
			Expression:  "document_discrepancy",
			Weight:      0.10,
		},
		{
			ID:          domain.RuleCompanyAge,
			Description: "Trading company is newly established",
			Expression:  "company_age < company_age_threshold",
			Weight:      0.20,
		},
	}
}
