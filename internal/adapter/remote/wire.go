package remote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
)

// wireDocument is the upstream JSON shape of a document. Monetary
// fields travel as quoted decimal strings.
type wireDocument struct {
	ID             string            `json:"id"`
	CompanyID      string            `json:"company_id"`
	CounterpartyID string            `json:"counterparty_id,omitempty"`
	Number         string            `json:"number"`
	Date           time.Time         `json:"date"`
	DueDate        *time.Time        `json:"due_date,omitempty"`
	Remarks        string            `json:"remarks,omitempty"`
	Lines          []wireLine        `json:"line_items,omitempty"`
	JournalLines   []wireJournalLine `json:"journal_lines,omitempty"`
	Tax            *wireTax          `json:"tax,omitempty"`
	Discount       decimal.Decimal   `json:"discount"`
	PaidOrRefund   decimal.Decimal   `json:"paid_amount"`
	Payment        *wirePayment      `json:"payment,omitempty"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type wireLine struct {
	ID          string          `json:"id"`
	ItemRef     string          `json:"item_ref,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type wireJournalLine struct {
	ID         string          `json:"id"`
	AccountRef string          `json:"account_ref"`
	Narration  string          `json:"narration,omitempty"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
}

type wireTax struct {
	ID          string          `json:"id"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

type wireItem struct {
	Ref      string          `json:"ref"`
	Name     string          `json:"name"`
	UnitRate decimal.Decimal `json:"unit_rate"`
}

type wireTaxRate struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

type wirePayment struct {
	Method        string `json:"method"`
	AccountNumber string `json:"account_number,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

func fromDomain(doc *domain.Document) wireDocument {
	wire := wireDocument{
		ID:             doc.ID,
		CompanyID:      doc.Header.CompanyID,
		CounterpartyID: doc.Header.CounterpartyID,
		Number:         doc.Header.Number,
		Date:           doc.Header.Date,
		DueDate:        doc.Header.DueDate,
		Remarks:        doc.Header.Remarks,
		Discount:       doc.Discount,
		PaidOrRefund:   doc.PaidOrRefund,
		Status:         doc.Status(),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}

	for _, line := range doc.Lines {
		wire.Lines = append(wire.Lines, wireLine(line))
	}
	for _, line := range doc.JournalLines {
		wire.JournalLines = append(wire.JournalLines, wireJournalLine(line))
	}
	if doc.Tax != nil {
		wire.Tax = &wireTax{ID: doc.Tax.TaxID, RatePercent: doc.Tax.RatePercent}
	}
	if doc.Payment.Method != "" {
		wire.Payment = &wirePayment{
			Method:        string(doc.Payment.Method),
			AccountNumber: doc.Payment.AccountNumber,
			AttachmentRef: doc.Payment.AttachmentRef,
		}
	}

	return wire
}

func (w *wireDocument) toDomain(docType domain.DocumentType) *domain.Document {
	doc := &domain.Document{
		ID:   w.ID,
		Type: docType,
		Header: domain.DocumentHeader{
			CompanyID:      w.CompanyID,
			CounterpartyID: w.CounterpartyID,
			Number:         w.Number,
			Date:           w.Date,
			DueDate:        w.DueDate,
			Remarks:        w.Remarks,
		},
		Discount:     w.Discount,
		PaidOrRefund: w.PaidOrRefund,
		Persisted:    true,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}

	for _, line := range w.Lines {
		doc.Lines = append(doc.Lines, domain.LineItem(line))
	}
	for _, line := range w.JournalLines {
		doc.JournalLines = append(doc.JournalLines, domain.JournalLine(line))
	}
	if w.Tax != nil {
		doc.Tax = &domain.TaxSelection{TaxID: w.Tax.ID, RatePercent: w.Tax.RatePercent}
	}
	if w.Payment != nil {
		doc.Payment = domain.PaymentDetails{
			Method:        domain.PaymentMethod(w.Payment.Method),
			AccountNumber: w.Payment.AccountNumber,
			AttachmentRef: w.Payment.AttachmentRef,
		}
	}

	if docType.IsLedger() {
		doc.JournalStatus = domain.JournalStatus(w.Status)
	} else {
		doc.TradeStatus = domain.TradeStatus(w.Status)
	}

	return doc
}
