package domain

import (
	"github.com/shopspring/decimal"
)

// JournalLine is a debit or credit against an account. Conventional
// double-entry practice expects one side per line, but only the
// aggregate debit == credit invariant is enforced here.
type JournalLine struct {
	ID         string
	AccountRef string
	Narration  string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
}

// JournalTotals are the summed sides of a journal entry.
type JournalTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// SumJournal totals the debit and credit sides across all lines.
func SumJournal(lines []JournalLine) JournalTotals {
	totals := JournalTotals{Debit: decimal.Zero, Credit: decimal.Zero}
	for i := range lines {
		totals.Debit = totals.Debit.Add(lines[i].Debit)
		totals.Credit = totals.Credit.Add(lines[i].Credit)
	}
	return totals
}

// IsBalanced reports whether total debits equal total credits exactly.
// Amounts are decimals, so currency values compare without the float
// rounding false negatives the check would otherwise suffer.
func IsBalanced(lines []JournalLine) bool {
	totals := SumJournal(lines)
	return totals.Debit.Equal(totals.Credit)
}

// Imbalance returns |debit - credit| for the user-facing rejection
// message of an unbalanced entry.
func Imbalance(lines []JournalLine) decimal.Decimal {
	totals := SumJournal(lines)
	return totals.Debit.Sub(totals.Credit).Abs()
}
