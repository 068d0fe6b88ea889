package dataset

import "github.com/opensource-finance/tradewatch/internal/domain"

// Sample returns the ten-record demonstration batch.
func Sample() []domain.Transaction {
	return []domain.Transaction{
		{ID: "TXN001", ActualDistance: 100, ShortestDistance: 90, UnitPrice: 105, MarketPrice: 100, OriginCountry: "USA", CompanyAge: 10},
		{ID: "TXN002", ActualDistance: 5000, ShortestDistance: 1500, UnitPrice: 200, MarketPrice: 190, OriginCountry: "Cayman Islands", DocumentDiscrepancy: true, CompanyAge: 1.2},
		{ID: "TXN003", ActualDistance: 250, ShortestDistance: 240, UnitPrice: 50, MarketPrice: 52, OriginCountry: "Germany", CompanyAge: 15},
		{ID: "TXN004", ActualDistance: 800, ShortestDistance: 750, UnitPrice: 80, MarketPrice: 85, OriginCountry: "UK", CompanyAge: 8},
		{ID: "TXN005", ActualDistance: 12000, ShortestDistance: 11000, UnitPrice: 1500, MarketPrice: 950, OriginCountry: "Switzerland", DocumentDiscrepancy: true, CompanyAge: 0.5},
		{ID: "TXN006", ActualDistance: 300, ShortestDistance: 200, UnitPrice: 95, MarketPrice: 98, OriginCountry: "Canada", CompanyAge: 25},
		{ID: "TXN007", ActualDistance: 6000, ShortestDistance: 5500, UnitPrice: 25, MarketPrice: 55, OriginCountry: "Mauritius", DocumentDiscrepancy: true, CompanyAge: 1.8},
		{ID: "TXN008", ActualDistance: 450, ShortestDistance: 400, UnitPrice: 310, MarketPrice: 300, OriginCountry: "Japan", CompanyAge: 30},
		{ID: "TXN009", ActualDistance: 1500, ShortestDistance: 1400, UnitPrice: 55, MarketPrice: 58, OriginCountry: "China", CompanyAge: 12},
		{ID: "TXN010", ActualDistance: 9000, ShortestDistance: 2500, UnitPrice: 10.0, MarketPrice: 9.5, OriginCountry: "Cayman Islands", DocumentDiscrepancy: true, CompanyAge: 0.2},
	}
}

// SampleInputs returns Sample as wire records.
func SampleInputs() []domain.TransactionInput {
	txs := Sample()
	out := make([]domain.TransactionInput, len(txs))
	for i, tx := range txs {
		out[i] = domain.NewTransactionInput(tx)
	}
	return out
}
