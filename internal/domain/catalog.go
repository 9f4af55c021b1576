package domain

import (
	"github.com/shopspring/decimal"
)

// CatalogItem is a master-data item the upstream service owns. The
// engine only reads it to auto-fill line rates.
type CatalogItem struct {
	Ref      string
	Name     string
	UnitRate decimal.Decimal
}

// TaxRate is a master-data tax definition. Selecting one on a document
// produces a TaxSelection.
type TaxRate struct {
	ID          string
	Name        string
	RatePercent decimal.Decimal
}
