package domain

import (
	"github.com/shopspring/decimal"
)

// LineItem is a single priced row of a trade document. Amount is kept
// equal to Quantity * UnitRate after every edit.
type LineItem struct {
	ID          string
	ItemRef     string
	Description string
	Quantity    decimal.Decimal
	UnitRate    decimal.Decimal
	Amount      decimal.Decimal
}

func (li *LineItem) recompute() {
	li.Amount = li.Quantity.Mul(li.UnitRate)
}

// AddLine appends a zeroed row and returns the updated slice together
// with the new row.
func AddLine(lines []LineItem, id string) ([]LineItem, LineItem) {
	line := LineItem{
		ID:       id,
		Quantity: decimal.Zero,
		UnitRate: decimal.Zero,
		Amount:   decimal.Zero,
	}
	return append(lines, line), line
}

// SetQuantity updates the quantity of the identified row and
// recomputes its amount. Unknown ids are a no-op.
func SetQuantity(lines []LineItem, id string, quantity decimal.Decimal) {
	if li := findLine(lines, id); li != nil {
		li.Quantity = quantity
		li.recompute()
	}
}

// SetUnitRate updates the unit rate of the identified row and
// recomputes its amount. Unknown ids are a no-op.
func SetUnitRate(lines []LineItem, id string, rate decimal.Decimal) {
	if li := findLine(lines, id); li != nil {
		li.UnitRate = rate
		li.recompute()
	}
}

// SelectItem points the row at a catalog item and re-derives the unit
// rate from the item's catalog rate. Unknown ids are a no-op.
func SelectItem(lines []LineItem, id, itemRef string, catalogRate decimal.Decimal) {
	if li := findLine(lines, id); li != nil {
		li.ItemRef = itemRef
		li.UnitRate = catalogRate
		li.recompute()
	}
}

// RemoveLine deletes the identified row, preserving the order of the
// rest. Removing an unknown id is a no-op.
func RemoveLine(lines []LineItem, id string) []LineItem {
	for i := range lines {
		if lines[i].ID == id {
			return append(lines[:i], lines[i+1:]...)
		}
	}
	return lines
}

// GrossTotal is the sum of current line amounts. Display order never
// affects it.
func GrossTotal(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Amount)
	}
	return total
}

func findLine(lines []LineItem, id string) *LineItem {
	for i := range lines {
		if lines[i].ID == id {
			return &lines[i]
		}
	}
	return nil
}
