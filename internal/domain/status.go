package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus is the status set for invoice, bill and return
// documents.
type TradeStatus string

const (
	TradeStatusDraft     TradeStatus = "draft"
	TradeStatusSent      TradeStatus = "sent"
	TradeStatusPaid      TradeStatus = "paid"
	TradeStatusOverdue   TradeStatus = "overdue"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// JournalStatus is the status set for ledger entries. Voiding is
// one-way: a voided entry never returns to posted or draft.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "draft"
	JournalStatusPosted JournalStatus = "posted"
	JournalStatusVoid   JournalStatus = "void"
)

// Transition tables. Overdue is absent as a target on purpose: it is
// observed from the due date, never user-invoked.
var tradeTransitions = map[TradeStatus][]TradeStatus{
	TradeStatusDraft:   {TradeStatusSent, TradeStatusPaid, TradeStatusCancelled},
	TradeStatusSent:    {TradeStatusPaid, TradeStatusCancelled},
	TradeStatusOverdue: {TradeStatusPaid, TradeStatusCancelled},
}

var journalTransitions = map[JournalStatus][]JournalStatus{
	JournalStatusDraft:  {JournalStatusPosted},
	JournalStatusPosted: {JournalStatusVoid},
}

// CanTransitionTrade reports whether a trade document may move from
// one status to another. Paid and cancelled are terminal.
func CanTransitionTrade(from, to TradeStatus) bool {
	for _, allowed := range tradeTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionJournal reports whether a ledger entry may move from
// one status to another.
func CanTransitionJournal(from, to JournalStatus) bool {
	for _, allowed := range journalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EffectiveTradeStatus derives the observed status: a sent document
// past its due date with an outstanding balance reads as overdue. The
// stored status is not rewritten.
func EffectiveTradeStatus(status TradeStatus, dueDate *time.Time, balance decimal.Decimal, now time.Time) TradeStatus {
	if status != TradeStatusSent || dueDate == nil {
		return status
	}
	if now.After(*dueDate) && balance.GreaterThan(decimal.Zero) {
		return TradeStatusOverdue
	}
	return status
}
