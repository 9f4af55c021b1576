package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TaxSelection references a single tax from master data. Documents
// carry at most one selection; there is no multi-tax stacking.
type TaxSelection struct {
	TaxID       string
	RatePercent decimal.Decimal
}

// TaxAmount applies the selected tax rate to the gross total. The
// result stays unrounded; rounding to minor units happens only at the
// presentation edge so repeated recomputation cannot drift.
func TaxAmount(gross decimal.Decimal, sel *TaxSelection) decimal.Decimal {
	if sel == nil {
		return decimal.Zero
	}
	return gross.Mul(sel.RatePercent).Div(hundred)
}

// DocumentTotals are the derived figures of a document. They are
// recomputed from lines, tax, discount and paid input on every change
// and never stored on their own.
type DocumentTotals struct {
	Gross        decimal.Decimal
	TaxAmount    decimal.Decimal
	Discount     decimal.Decimal
	Subtotal     decimal.Decimal
	PaidOrRefund decimal.Decimal
	Balance      decimal.Decimal
	HasBalance   bool
}

// ResolveTotals combines gross, tax, discount and the paid or refund
// amount. Discount and paid are non-negative by the time they reach
// this layer; nothing is clamped here. A negative balance means
// overpayment and is reported as-is. Refund documents get no balance:
// the refund amount is terminal.
func ResolveTotals(gross, tax, discount, paidOrRefund decimal.Decimal, refund bool) DocumentTotals {
	subtotal := gross.Add(tax).Sub(discount)

	totals := DocumentTotals{
		Gross:        gross,
		TaxAmount:    tax,
		Discount:     discount,
		Subtotal:     subtotal,
		PaidOrRefund: paidOrRefund,
	}

	if !refund {
		totals.Balance = subtotal.Sub(paidOrRefund)
		totals.HasBalance = true
	}

	return totals
}
