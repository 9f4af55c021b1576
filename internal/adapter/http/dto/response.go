package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
)

// Envelope is the uniform response wrapper. Every endpoint answers
// with it, success or failure.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ListEnvelope is the paged payload nested in Envelope.Data.
type ListEnvelope struct {
	Data   any `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// DocumentResponse represents a document with its derived totals.
type DocumentResponse struct {
	ID             string                `json:"id"`
	Type           string                `json:"type"`
	CompanyID      string                `json:"company_id"`
	CounterpartyID string                `json:"counterparty_id,omitempty"`
	Number         string                `json:"number"`
	Provisional    bool                  `json:"provisional_number,omitempty"`
	Date           time.Time             `json:"date"`
	DueDate        *time.Time            `json:"due_date,omitempty"`
	Remarks        string                `json:"remarks,omitempty"`
	Lines          []LineItemResponse    `json:"line_items,omitempty"`
	JournalLines   []JournalLineResponse `json:"journal_lines,omitempty"`
	TaxID          string                `json:"tax_id,omitempty"`
	Payment        *PaymentResponse      `json:"payment,omitempty"`
	Status         string                `json:"status"`
	Persistence    string                `json:"persistence"`
	Totals         TotalsResponse        `json:"totals"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// LineItemResponse represents one priced row.
type LineItemResponse struct {
	ID          string          `json:"id"`
	ItemRef     string          `json:"item_ref,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// JournalLineResponse represents one debit/credit row.
type JournalLineResponse struct {
	ID         string          `json:"id"`
	AccountRef string          `json:"account_ref"`
	Narration  string          `json:"narration,omitempty"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
}

// PaymentResponse represents the payment mode fields.
type PaymentResponse struct {
	Method        string `json:"method"`
	AccountNumber string `json:"account_number,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

// TotalsResponse represents the derived totals block.
type TotalsResponse struct {
	Gross      decimal.Decimal `json:"gross"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Paid       decimal.Decimal `json:"paid"`
	Balance    *decimal.Decimal `json:"balance,omitempty"`
	Debit      *decimal.Decimal `json:"debit,omitempty"`
	Credit     *decimal.Decimal `json:"credit,omitempty"`
	IsBalanced *bool            `json:"is_balanced,omitempty"`
}

const (
	persistenceRemote  = "remote"
	persistenceOffline = "offline"
	persistenceDraft   = "draft"
)

// DocumentFromDomain converts a domain document to a response.
func DocumentFromDomain(doc *domain.Document, offline bool) *DocumentResponse {
	resp := &DocumentResponse{
		ID:             doc.ID,
		Type:           string(doc.Type),
		CompanyID:      doc.Header.CompanyID,
		CounterpartyID: doc.Header.CounterpartyID,
		Number:         doc.Header.Number,
		Provisional:    doc.ProvisionalNum,
		Date:           doc.Header.Date,
		DueDate:        doc.Header.DueDate,
		Remarks:        doc.Header.Remarks,
		Status:         doc.Status(),
		Persistence:    persistence(doc, offline),
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}

	for _, line := range doc.Lines {
		resp.Lines = append(resp.Lines, LineItemResponse(line))
	}
	for _, line := range doc.JournalLines {
		resp.JournalLines = append(resp.JournalLines, JournalLineResponse(line))
	}
	if doc.Tax != nil {
		resp.TaxID = doc.Tax.TaxID
	}
	if doc.Payment.Method != "" {
		resp.Payment = &PaymentResponse{
			Method:        string(doc.Payment.Method),
			AccountNumber: doc.Payment.AccountNumber,
			AttachmentRef: doc.Payment.AttachmentRef,
		}
	}

	if doc.Type.IsLedger() {
		totals := domain.SumJournal(doc.JournalLines)
		// Balance is judged on the exact sums; only the displayed
		// figures are rounded.
		balanced := totals.Debit.Equal(totals.Credit)
		debit := totals.Debit.Round(2)
		credit := totals.Credit.Round(2)
		resp.Totals = TotalsResponse{
			Debit:      &debit,
			Credit:     &credit,
			IsBalanced: &balanced,
		}
	} else {
		totals := doc.Totals()
		resp.Totals = TotalsResponse{
			Gross:    totals.Gross.Round(2),
			Tax:      totals.TaxAmount.Round(2),
			Discount: totals.Discount.Round(2),
			Subtotal: totals.Subtotal.Round(2),
			Paid:     totals.PaidOrRefund.Round(2),
		}
		if totals.HasBalance {
			balance := totals.Balance.Round(2)
			resp.Totals.Balance = &balance
		}
	}

	return resp
}

func persistence(doc *domain.Document, offline bool) string {
	switch {
	case offline:
		return persistenceOffline
	case doc.Persisted:
		return persistenceRemote
	default:
		return persistenceDraft
	}
}

// DocumentsFromDomain converts domain documents to responses.
func DocumentsFromDomain(docs []*domain.Document) []*DocumentResponse {
	result := make([]*DocumentResponse, len(docs))
	for i, doc := range docs {
		result[i] = DocumentFromDomain(doc, false)
	}
	return result
}

// CatalogItemResponse represents an item master record.
type CatalogItemResponse struct {
	Ref      string          `json:"ref"`
	Name     string          `json:"name"`
	UnitRate decimal.Decimal `json:"unit_rate"`
}

// TaxRateResponse represents a tax master record.
type TaxRateResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

// ItemsFromDomain converts catalog items to responses.
func ItemsFromDomain(items []domain.CatalogItem) []CatalogItemResponse {
	result := make([]CatalogItemResponse, len(items))
	for i, item := range items {
		result[i] = CatalogItemResponse(item)
	}
	return result
}

// TaxesFromDomain converts tax rates to responses.
func TaxesFromDomain(taxes []domain.TaxRate) []TaxRateResponse {
	result := make([]TaxRateResponse, len(taxes))
	for i, tax := range taxes {
		result[i] = TaxRateResponse(tax)
	}
	return result
}

// OfflineReportResponse summarizes the offline queue.
type OfflineReportResponse struct {
	Counts    map[string]int64 `json:"counts"`
	Total     int64            `json:"total"`
	CheckedAt time.Time        `json:"checked_at"`
}

// OfflineReportFromDomain converts an offline report to a response.
func OfflineReportFromDomain(report *usecase.OfflineReport) *OfflineReportResponse {
	counts := make(map[string]int64, len(report.Counts))
	for docType, n := range report.Counts {
		counts[string(docType)] = n
	}
	return &OfflineReportResponse{
		Counts:    counts,
		Total:     report.Total,
		CheckedAt: report.CheckedAt,
	}
}
