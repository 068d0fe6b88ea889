// Package domain defines the core types shared by the Tradewatch scorer,
// its HTTP API and its command line tools.
package domain

// Transaction is a trade/shipment record to be scored.
type Transaction struct {
	// Optional caller identifier, never used by rules.
	ID string `json:"transaction_id,omitempty" yaml:"transaction_id,omitempty"`

	// Logistics
	ActualDistance   float64 `json:"actual_distance" yaml:"actual_distance"`
	ShortestDistance float64 `json:"shortest_distance" yaml:"shortest_distance"`

	// Pricing
	UnitPrice   float64 `json:"unit_price" yaml:"unit_price"`
	MarketPrice float64 `json:"market_price" yaml:"market_price"`

	// Counterparty
	OriginCountry       string  `json:"origin_country" yaml:"origin_country"`
	DocumentDiscrepancy bool    `json:"document_discrepancy" yaml:"document_discrepancy"`
	CompanyAge          float64 `json:"company_age" yaml:"company_age"`
}

// TransactionInput is the wire shape of a Transaction. Every field is a
// pointer so that an absent field can be told apart from a zero value.
type TransactionInput struct {
	ID                  string   `json:"transaction_id,omitempty" yaml:"transaction_id,omitempty"`
	ActualDistance      *float64 `json:"actual_distance" yaml:"actual_distance"`
	ShortestDistance    *float64 `json:"shortest_distance" yaml:"shortest_distance"`
	UnitPrice           *float64 `json:"unit_price" yaml:"unit_price"`
	MarketPrice         *float64 `json:"market_price" yaml:"market_price"`
	OriginCountry       *string  `json:"origin_country" yaml:"origin_country"`
	DocumentDiscrepancy *bool    `json:"document_discrepancy" yaml:"document_discrepancy"`
	CompanyAge          *float64 `json:"company_age" yaml:"company_age"`

	// Set when the record could not be decoded; ToTransaction returns it.
	DecodeErr error `json:"-" yaml:"-"`
}

// Field names as they appear on the wire.
const (
	FieldTransactionID       = "transaction_id"
	FieldActualDistance      = "actual_distance"
	FieldShortestDistance    = "shortest_distance"
	FieldUnitPrice           = "unit_price"
	FieldMarketPrice         = "market_price"
	FieldOriginCountry       = "origin_country"
	FieldDocumentDiscrepancy = "document_discrepancy"
	FieldCompanyAge          = "company_age"

	// FieldRecord names the record as a whole when no single field is at fault.
	FieldRecord = "transaction"
)

// RequiredFields lists the fields every record must carry, in wire order.
var RequiredFields = []string{
	FieldActualDistance,
	FieldShortestDistance,
	FieldUnitPrice,
	FieldMarketPrice,
	FieldOriginCountry,
	FieldDocumentDiscrepancy,
	FieldCompanyAge,
}

// ToTransaction converts the input into a Transaction.
// It returns the decode error of a malformed record, otherwise a
// *FieldError wrapping ErrMissingField for the first absent field.
func (in *TransactionInput) ToTransaction() (*Transaction, error) {
	if in == nil {
		return nil, &FieldError{Field: FieldRecord, Err: ErrMissingField}
	}
	if in.DecodeErr != nil {
		return nil, in.DecodeErr
	}

	missing := func(name string) error {
		return &FieldError{Field: name, Err: ErrMissingField}
	}

	switch {
	case in.ActualDistance == nil:
		return nil, missing(FieldActualDistance)
	case in.ShortestDistance == nil:
		return nil, missing(FieldShortestDistance)
	case in.UnitPrice == nil:
		return nil, missing(FieldUnitPrice)
	case in.MarketPrice == nil:
		return nil, missing(FieldMarketPrice)
	case in.OriginCountry == nil:
		return nil, missing(FieldOriginCountry)
	case in.DocumentDiscrepancy == nil:
		return nil, missing(FieldDocumentDiscrepancy)
	case in.CompanyAge == nil:
		return nil, missing(FieldCompanyAge)
	}

	return &Transaction{
		ID:                  in.ID,
		ActualDistance:      *in.ActualDistance,
		ShortestDistance:    *in.ShortestDistance,
		UnitPrice:           *in.UnitPrice,
		MarketPrice:         *in.MarketPrice,
		OriginCountry:       *in.OriginCountry,
		DocumentDiscrepancy: *in.DocumentDiscrepancy,
		CompanyAge:          *in.CompanyAge,
	}, nil
}

// NewTransactionInput builds a fully populated input from a Transaction.
func NewTransactionInput(tx Transaction) TransactionInput {
	return TransactionInput{
		ID:                  tx.ID,
		ActualDistance:      &tx.ActualDistance,
		ShortestDistance:    &tx.ShortestDistance,
		UnitPrice:           &tx.UnitPrice,
		MarketPrice:         &tx.MarketPrice,
		OriginCountry:       &tx.OriginCountry,
		DocumentDiscrepancy: &tx.DocumentDiscrepancy,
		CompanyAge:          &tx.CompanyAge,
	}
}
