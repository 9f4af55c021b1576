package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
)

const submitGuardTTL = 2 * time.Minute

// DocumentUseCase is the form controller: it owns draft state, wires
// field edits to the line ledger and totals resolver, runs the local
// validation gate, and drives the submit/cancel/delete lifecycle.
type DocumentUseCase struct {
	local    LocalStore
	remote   RemoteGateway
	gateway  *PersistenceGateway
	issuer   *NumberIssuer
	catalog  *CatalogUseCase
	guard    SubmitGuard
	guardTTL time.Duration
	idGen    IDGenerator
	logger   zerolog.Logger
}

// NewDocumentUseCase creates a new DocumentUseCase.
func NewDocumentUseCase(
	local LocalStore,
	remote RemoteGateway,
	gateway *PersistenceGateway,
	issuer *NumberIssuer,
	catalog *CatalogUseCase,
	guard SubmitGuard,
	idGen IDGenerator,
	logger zerolog.Logger,
) *DocumentUseCase {
	return &DocumentUseCase{
		local:    local,
		remote:   remote,
		gateway:  gateway,
		issuer:   issuer,
		catalog:  catalog,
		guard:    guard,
		guardTTL: submitGuardTTL,
		idGen:    idGen,
		logger:   logger,
	}
}

// WithSubmitLockTTL overrides how long a submit guard lock is held.
func (uc *DocumentUseCase) WithSubmitLockTTL(ttl time.Duration) *DocumentUseCase {
	if ttl > 0 {
		uc.guardTTL = ttl
	}
	return uc
}

// CreateDraftInput represents input for creating a draft document.
type CreateDraftInput struct {
	Type           domain.DocumentType
	CompanyID      string
	CounterpartyID string
	Date           time.Time
	DueDate        *time.Time
	Remarks        string
}

// CreateDraft builds a new draft with an issued document number and
// stores it locally. Drafting never blocks on the remote counter.
func (uc *DocumentUseCase) CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.Document, error) {
	if !domain.ValidDocumentType(input.Type) {
		return nil, domain.ErrUnknownDocumentType
	}

	now := time.Now().UTC()
	number := uc.issuer.Next(ctx, input.Type)

	doc := &domain.Document{
		ID:   uc.idGen.Generate(),
		Type: input.Type,
		Header: domain.DocumentHeader{
			CompanyID:      input.CompanyID,
			CounterpartyID: input.CounterpartyID,
			Number:         number.Value,
			Date:           input.Date,
			DueDate:        input.DueDate,
			Remarks:        input.Remarks,
		},
		Discount:       decimal.Zero,
		PaidOrRefund:   decimal.Zero,
		ProvisionalNum: number.Provisional,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if input.Type.IsLedger() {
		doc.JournalStatus = domain.JournalStatusDraft
	} else {
		doc.TradeStatus = domain.TradeStatusDraft
	}

	if err := uc.local.Put(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// GetDocument reads a document, consulting the local store first so
// reads observe offline writes from the same session.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error) {
	doc, _, err := uc.local.Get(ctx, docType, id)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		return nil, err
	}

	doc, err = uc.remote.Get(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	doc.Persisted = true
	return doc, nil
}

// ListDocumentsInput represents input for listing documents.
type ListDocumentsInput struct {
	Type   domain.DocumentType
	Limit  int
	Offset int
}

// ListDocuments lists remote documents and merges in offline snapshots
// so a document saved through the fallback path is still visible.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, input ListDocumentsInput) ([]*domain.Document, int, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	docs, total, err := uc.remote.List(ctx, input.Type, input.Limit, input.Offset)
	if err != nil {
		return nil, 0, err
	}

	offline, err := uc.local.ListOffline(ctx, input.Type, input.Limit, 0)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("offline snapshot listing failed")
		return docs, total, nil
	}

	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		seen[d.ID] = true
	}
	for _, d := range offline {
		if !seen[d.ID] {
			docs = append(docs, d)
			total++
		}
	}

	return docs, total, nil
}

// UpdateDraftInput carries the editable header-level form fields.
// Only non-nil fields are applied.
type UpdateDraftInput struct {
	CounterpartyID *string
	Number         *string
	Date           *time.Time
	DueDate        *time.Time
	Remarks        *string
	TaxID          *string
	Discount       *decimal.Decimal
	PaidOrRefund   *decimal.Decimal
	Payment        *domain.PaymentDetails
	JournalLines   []domain.JournalLine
}

// UpdateDraft applies header-level edits and recomputes. A tax id is
// resolved against the tax catalog; an empty id clears the selection.
func (uc *DocumentUseCase) UpdateDraft(ctx context.Context, docType domain.DocumentType, id string, input UpdateDraftInput) (*domain.Document, error) {
	doc, err := uc.loadForEdit(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	if input.CounterpartyID != nil {
		doc.Header.CounterpartyID = *input.CounterpartyID
	}
	if input.Number != nil && *input.Number != doc.Header.Number {
		// Numbers are frozen once the document has reached the remote
		// ledger; only never-persisted drafts may override theirs.
		if doc.Persisted {
			return nil, domain.ErrImmutableNumber
		}
		doc.Header.Number = *input.Number
		doc.ProvisionalNum = false
	}
	if input.Date != nil {
		doc.Header.Date = *input.Date
	}
	if input.DueDate != nil {
		doc.Header.DueDate = input.DueDate
	}
	if input.Remarks != nil {
		doc.Header.Remarks = *input.Remarks
	}
	if input.Discount != nil {
		doc.Discount = *input.Discount
	}
	if input.PaidOrRefund != nil {
		doc.PaidOrRefund = *input.PaidOrRefund
	}
	if input.Payment != nil {
		doc.Payment = *input.Payment
	}
	if input.JournalLines != nil && docType.IsLedger() {
		doc.JournalLines = input.JournalLines
	}

	if input.TaxID != nil {
		if *input.TaxID == "" {
			doc.Tax = nil
		} else {
			rate, err := uc.catalog.TaxByID(ctx, *input.TaxID)
			if err != nil {
				return nil, err
			}
			doc.Tax = &domain.TaxSelection{TaxID: rate.ID, RatePercent: rate.RatePercent}
		}
	}

	return uc.saveDraft(ctx, doc)
}

// AddLine appends an empty row to a trade draft.
func (uc *DocumentUseCase) AddLine(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error) {
	doc, err := uc.loadForEdit(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	doc.Lines, _ = domain.AddLine(doc.Lines, uc.idGen.Generate())
	return uc.saveDraft(ctx, doc)
}

// LineField names an editable line-item field.
type LineField string

const (
	LineFieldQuantity LineField = "quantity"
	LineFieldUnitRate LineField = "unit_rate"
	LineFieldItem     LineField = "item"
)

// LineEdit represents a single field edit on a line item.
type LineEdit struct {
	LineID  string
	Field   LineField
	Value   decimal.Decimal
	ItemRef string
}

// EditLine applies one field edit and recomputes the line amount.
// Selecting an item re-derives the unit rate from the catalog.
func (uc *DocumentUseCase) EditLine(ctx context.Context, docType domain.DocumentType, id string, edit LineEdit) (*domain.Document, error) {
	doc, err := uc.loadForEdit(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	switch edit.Field {
	case LineFieldQuantity:
		domain.SetQuantity(doc.Lines, edit.LineID, edit.Value)
	case LineFieldUnitRate:
		domain.SetUnitRate(doc.Lines, edit.LineID, edit.Value)
	case LineFieldItem:
		rate, err := uc.catalog.RateFor(ctx, edit.ItemRef)
		if err != nil {
			return nil, err
		}
		domain.SelectItem(doc.Lines, edit.LineID, edit.ItemRef, rate)
	}

	return uc.saveDraft(ctx, doc)
}

// RemoveLine deletes a row. Unknown line ids are a no-op.
func (uc *DocumentUseCase) RemoveLine(ctx context.Context, docType domain.DocumentType, id, lineID string) (*domain.Document, error) {
	doc, err := uc.loadForEdit(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	doc.Lines = domain.RemoveLine(doc.Lines, lineID)
	return uc.saveDraft(ctx, doc)
}

// Submit validates the document locally, issues a number if the draft
// has none, and persists through the gateway. A second submit for the
// same document while one is in flight is rejected. The remote call is
// not cancelled by the caller leaving; a result arriving after that is
// dropped.
func (uc *DocumentUseCase) Submit(ctx context.Context, docType domain.DocumentType, id string) (*PersistResult, error) {
	doc, err := uc.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateForSubmit(doc); err != nil {
		return nil, err
	}

	if doc.Header.Number == "" {
		number := uc.issuer.Next(ctx, docType)
		doc.Header.Number = number.Value
		doc.ProvisionalNum = number.Provisional
	}

	if !docType.IsLedger() {
		doc.TradeStatus = uc.submitStatus(doc)
	}

	acquired, err := uc.guard.Acquire(ctx, docType, id, uc.guardTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrSubmitInFlight
	}

	// Detach from the request context: navigating away must not
	// cancel an in-flight submit.
	detached := context.WithoutCancel(ctx)
	defer uc.guard.Release(detached, docType, id)

	isNew := !doc.Persisted
	doc.UpdatedAt = time.Now().UTC()

	result, err := uc.gateway.Submit(detached, doc, isNew)

	if ctx.Err() != nil {
		uc.logger.Info().
			Str("doc_type", string(docType)).
			Str("doc_id", id).
			Bool("failed", err != nil).
			Msg("caller gone, dropping submit outcome")
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	if !result.Offline {
		result.Document.Persisted = true
	}

	return result, nil
}

// Pay records a payment against a trade document and moves it to paid
// when the balance is settled.
func (uc *DocumentUseCase) Pay(ctx context.Context, docType domain.DocumentType, id string, amount decimal.Decimal) (*domain.Document, error) {
	if docType.IsLedger() || docType.IsRefund() {
		return nil, domain.ErrInvalidTransition
	}

	doc, err := uc.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	current := uc.effectiveStatus(doc)
	if current == domain.TradeStatusPaid || current == domain.TradeStatusCancelled {
		return nil, domain.ErrInvalidTransition
	}

	// Paying a draft persists it, so it crosses the same validation
	// gate as submit.
	if err := domain.ValidateForSubmit(doc); err != nil {
		return nil, err
	}

	doc.PaidOrRefund = doc.PaidOrRefund.Add(amount)
	totals := doc.Totals()

	settled := totals.Balance.LessThanOrEqual(decimal.Zero)
	if settled {
		if !domain.CanTransitionTrade(current, domain.TradeStatusPaid) {
			return nil, domain.ErrInvalidTransition
		}
		doc.TradeStatus = domain.TradeStatusPaid
	}

	result, err := uc.gateway.Submit(ctx, doc, !doc.Persisted)
	if err != nil {
		return nil, err
	}

	if !result.Offline {
		result.Document.Persisted = true
		if settled {
			uc.proxyAction(ctx, docType, id, "pay")
		}
	}

	return result.Document, nil
}

// Cancel cancels a trade document. Allowed from any non-terminal
// state; the result is terminal.
func (uc *DocumentUseCase) Cancel(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error) {
	if docType.IsLedger() {
		return nil, domain.ErrInvalidTransition
	}

	doc, err := uc.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}

	current := uc.effectiveStatus(doc)
	if !domain.CanTransitionTrade(current, domain.TradeStatusCancelled) {
		return nil, domain.ErrInvalidTransition
	}
	doc.TradeStatus = domain.TradeStatusCancelled

	if !doc.Persisted {
		// Never left this client: no remote round trip needed.
		if err := uc.local.Put(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	result, err := uc.gateway.Submit(ctx, doc, false)
	if err != nil {
		return nil, err
	}
	if !result.Offline {
		result.Document.Persisted = true
		uc.proxyAction(ctx, docType, id, "cancel")
	}

	return result.Document, nil
}

// Post posts a balanced journal entry. Unbalanced entries are rejected
// before any network call, naming the imbalance amount.
func (uc *DocumentUseCase) Post(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.GetDocument(ctx, domain.DocTypeJournal, id)
	if err != nil {
		return nil, err
	}

	if err := domain.ValidateForSubmit(doc); err != nil {
		return nil, err
	}
	if !domain.CanTransitionJournal(doc.JournalStatus, domain.JournalStatusPosted) {
		return nil, domain.ErrInvalidTransition
	}
	doc.JournalStatus = domain.JournalStatusPosted

	result, err := uc.gateway.Submit(ctx, doc, !doc.Persisted)
	if err != nil {
		return nil, err
	}
	if !result.Offline {
		result.Document.Persisted = true
		uc.proxyAction(ctx, domain.DocTypeJournal, id, "post")
	}

	return result.Document, nil
}

// Void voids a posted journal entry. Voiding is one-way.
func (uc *DocumentUseCase) Void(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := uc.GetDocument(ctx, domain.DocTypeJournal, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransitionJournal(doc.JournalStatus, domain.JournalStatusVoid) {
		return nil, domain.ErrInvalidTransition
	}
	doc.JournalStatus = domain.JournalStatusVoid

	result, err := uc.gateway.Submit(ctx, doc, !doc.Persisted)
	if err != nil {
		return nil, err
	}
	if !result.Offline {
		result.Document.Persisted = true
		uc.proxyAction(ctx, domain.DocTypeJournal, id, "void")
	}

	return result.Document, nil
}

// DeleteDocument removes a document. Never-persisted drafts only touch
// the local store; everything else goes through the two-path discard.
func (uc *DocumentUseCase) DeleteDocument(ctx context.Context, docType domain.DocumentType, id string) (bool, error) {
	doc, _, err := uc.local.Get(ctx, docType, id)
	if err == nil && !doc.Persisted {
		return false, uc.local.Delete(ctx, docType, id)
	}
	if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return false, err
	}

	return uc.gateway.Discard(ctx, docType, id)
}

// loadForEdit fetches the working copy for an interactive edit. The
// local store wins so uncommitted edits are never clobbered.
func (uc *DocumentUseCase) loadForEdit(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error) {
	return uc.GetDocument(ctx, docType, id)
}

func (uc *DocumentUseCase) saveDraft(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	doc.UpdatedAt = time.Now().UTC()
	if err := uc.local.Put(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// submitStatus decides where a trade draft lands on submission: paid
// in full at creation goes straight to paid, otherwise sent.
func (uc *DocumentUseCase) submitStatus(doc *domain.Document) domain.TradeStatus {
	if doc.TradeStatus != domain.TradeStatusDraft {
		return doc.TradeStatus
	}

	totals := doc.Totals()
	if totals.HasBalance && doc.PaidOrRefund.GreaterThan(decimal.Zero) && totals.Balance.LessThanOrEqual(decimal.Zero) {
		return domain.TradeStatusPaid
	}
	return domain.TradeStatusSent
}

func (uc *DocumentUseCase) effectiveStatus(doc *domain.Document) domain.TradeStatus {
	totals := doc.Totals()
	balance := totals.Balance
	return domain.EffectiveTradeStatus(doc.TradeStatus, doc.Header.DueDate, balance, time.Now().UTC())
}

// proxyAction forwards a server-side status transition. Best effort:
// the document state is already persisted, so a transient action
// failure is logged and reconciled later rather than surfaced.
func (uc *DocumentUseCase) proxyAction(ctx context.Context, docType domain.DocumentType, id, action string) {
	if err := uc.remote.Action(ctx, docType, id, action); err != nil {
		uc.logger.Warn().
			Err(err).
			Str("doc_type", string(docType)).
			Str("doc_id", id).
			Str("action", action).
			Msg("status action call failed")
	}
}
