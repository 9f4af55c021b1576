package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType identifies a document family handled by the engine.
type DocumentType string

const (
	DocTypeInvoice DocumentType = "invoice"
	DocTypeBill    DocumentType = "bill"
	DocTypeReturn  DocumentType = "return"
	DocTypeJournal DocumentType = "journal"
)

// ValidDocumentType reports whether t names a known document family.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocTypeInvoice, DocTypeBill, DocTypeReturn, DocTypeJournal:
		return true
	}
	return false
}

// IsRefund reports whether the document's paid amount represents a
// refund. Refund documents carry no running balance.
func (t DocumentType) IsRefund() bool {
	return t == DocTypeReturn
}

// IsLedger reports whether lines are debit/credit pairs against
// accounts rather than priced goods.
func (t DocumentType) IsLedger() bool {
	return t == DocTypeJournal
}

// DocumentHeader carries the identifying fields shared by every
// document family. Number is immutable once the document has been
// persisted remotely.
type DocumentHeader struct {
	CompanyID      string
	CounterpartyID string
	Number         string
	Date           time.Time
	DueDate        *time.Time
	Remarks        string
}

// Document is a draft or persisted financial document: a header plus
// line items for trade families, or journal lines for the ledger
// family. Totals are always derived, never stored.
type Document struct {
	ID             string
	Type           DocumentType
	Header         DocumentHeader
	Lines          []LineItem
	JournalLines   []JournalLine
	Tax            *TaxSelection
	Discount       decimal.Decimal
	PaidOrRefund   decimal.Decimal
	Payment        PaymentDetails
	TradeStatus    TradeStatus
	JournalStatus  JournalStatus
	ProvisionalNum bool
	Persisted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Totals recomputes the derived totals from the document's current
// lines, tax selection, discount and paid amount.
func (d *Document) Totals() DocumentTotals {
	gross := GrossTotal(d.Lines)
	tax := TaxAmount(gross, d.Tax)
	return ResolveTotals(gross, tax, d.Discount, d.PaidOrRefund, d.Type.IsRefund())
}

// Status returns the document's status as a string, whichever family
// it belongs to.
func (d *Document) Status() string {
	if d.Type.IsLedger() {
		return string(d.JournalStatus)
	}
	return string(d.TradeStatus)
}
