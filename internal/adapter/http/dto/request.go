package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
)

// LooseDecimal accepts the sloppy numeric input form fields produce:
// JSON numbers, quoted numbers, empty strings and outright garbage.
// Anything that does not parse is coerced to zero instead of failing
// the whole request, matching spreadsheet-style form behavior.
type LooseDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *LooseDecimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if s == "" || s == "null" {
		d.Decimal = decimal.Zero
		return nil
	}

	parsed, err := decimal.NewFromString(s)
	if err != nil {
		d.Decimal = decimal.Zero
		return nil
	}
	d.Decimal = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d LooseDecimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Decimal)
}

// CreateDocumentRequest represents a request to open a new draft.
type CreateDocumentRequest struct {
	CompanyID      string     `json:"company_id"`
	CounterpartyID string     `json:"counterparty_id"`
	Date           time.Time  `json:"date"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Remarks        string     `json:"remarks"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateDocumentRequest) ToUseCaseInput(docType domain.DocumentType) usecase.CreateDraftInput {
	date := r.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	return usecase.CreateDraftInput{
		Type:           docType,
		CompanyID:      r.CompanyID,
		CounterpartyID: r.CounterpartyID,
		Date:           date,
		DueDate:        r.DueDate,
		Remarks:        r.Remarks,
	}
}

// UpdateDocumentRequest represents a partial draft update. Absent
// fields are left untouched.
type UpdateDocumentRequest struct {
	CounterpartyID *string              `json:"counterparty_id,omitempty"`
	Number         *string              `json:"number,omitempty"`
	Date           *time.Time           `json:"date,omitempty"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	Remarks        *string              `json:"remarks,omitempty"`
	TaxID          *string              `json:"tax_id,omitempty"`
	Discount       *LooseDecimal        `json:"discount,omitempty"`
	PaidOrRefund   *LooseDecimal        `json:"paid_amount,omitempty"`
	Payment        *PaymentRequest      `json:"payment,omitempty"`
	JournalLines   []JournalLineRequest `json:"journal_lines,omitempty"`
}

// PaymentRequest carries the payment mode fields of a draft.
type PaymentRequest struct {
	Method        string `json:"method"`
	AccountNumber string `json:"account_number"`
	AttachmentRef string `json:"attachment_ref"`
}

// JournalLineRequest represents one debit/credit row.
type JournalLineRequest struct {
	ID         string       `json:"id"`
	AccountRef string       `json:"account_ref"`
	Narration  string       `json:"narration"`
	Debit      LooseDecimal `json:"debit"`
	Credit     LooseDecimal `json:"credit"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateDocumentRequest) ToUseCaseInput() usecase.UpdateDraftInput {
	input := usecase.UpdateDraftInput{
		CounterpartyID: r.CounterpartyID,
		Number:         r.Number,
		Date:           r.Date,
		DueDate:        r.DueDate,
		Remarks:        r.Remarks,
		TaxID:          r.TaxID,
	}
	if r.Discount != nil {
		input.Discount = &r.Discount.Decimal
	}
	if r.PaidOrRefund != nil {
		input.PaidOrRefund = &r.PaidOrRefund.Decimal
	}
	if r.Payment != nil {
		input.Payment = &domain.PaymentDetails{
			Method:        domain.PaymentMethod(r.Payment.Method),
			AccountNumber: r.Payment.AccountNumber,
			AttachmentRef: r.Payment.AttachmentRef,
		}
	}
	if r.JournalLines != nil {
		lines := make([]domain.JournalLine, len(r.JournalLines))
		for i, l := range r.JournalLines {
			lines[i] = domain.JournalLine{
				ID:         l.ID,
				AccountRef: l.AccountRef,
				Narration:  l.Narration,
				Debit:      l.Debit.Decimal,
				Credit:     l.Credit.Decimal,
			}
		}
		input.JournalLines = lines
	}
	return input
}

// EditLineRequest represents a single line-item field edit.
type EditLineRequest struct {
	Field   string       `json:"field"`
	Value   LooseDecimal `json:"value"`
	ItemRef string       `json:"item_ref"`
}

// ToUseCaseInput converts to use case input.
func (r *EditLineRequest) ToUseCaseInput(lineID string) usecase.LineEdit {
	return usecase.LineEdit{
		LineID:  lineID,
		Field:   usecase.LineField(r.Field),
		Value:   r.Value.Decimal,
		ItemRef: r.ItemRef,
	}
}

// PayRequest represents a payment against a document.
type PayRequest struct {
	Amount LooseDecimal `json:"amount"`
}
