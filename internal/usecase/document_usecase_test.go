package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
	"github.com/finform/finform/internal/usecase/mocks"
)

type controllerFixture struct {
	uc      *usecase.DocumentUseCase
	remote  *mocks.MockRemoteGateway
	local   *mocks.MockLocalStore
	numbers *mocks.MockNumberSource
	catalog *mocks.MockCatalogSource
	guard   *mocks.MockSubmitGuard
}

func newControllerFixture() *controllerFixture {
	remote := mocks.NewMockRemoteGateway()
	local := mocks.NewMockLocalStore()
	numbers := mocks.NewMockNumberSource()
	catalogSrc := mocks.NewMockCatalogSource()
	catalogSrc.ItemsData = []domain.CatalogItem{
		{Ref: "item-1", Name: "Widget", UnitRate: decimal.NewFromInt(25)},
		{Ref: "item-2", Name: "Gadget", UnitRate: decimal.RequireFromString("9.99")},
	}
	catalogSrc.TaxesData = []domain.TaxRate{
		{ID: "tax-1", Name: "VAT 10%", RatePercent: decimal.NewFromInt(10)},
	}
	guard := mocks.NewMockSubmitGuard()
	idGen := mocks.NewMockIDGenerator()
	logger := zerolog.Nop()

	issuer := usecase.NewNumberIssuer(numbers, idGen, logger)
	gateway := usecase.NewPersistenceGateway(
		remote, local, mocks.NewMockTransactionManager(), issuer, mocks.NewMockRetrier(), logger)
	catalog := usecase.NewCatalogUseCase(catalogSrc, mocks.NewMockCache(), time.Minute, logger)

	return &controllerFixture{
		uc:      usecase.NewDocumentUseCase(local, remote, gateway, issuer, catalog, guard, idGen, logger),
		remote:  remote,
		local:   local,
		numbers: numbers,
		catalog: catalogSrc,
		guard:   guard,
	}
}

func (f *controllerFixture) draftInvoice(t *testing.T) *domain.Document {
	t.Helper()
	doc, err := f.uc.CreateDraft(context.Background(), usecase.CreateDraftInput{
		Type:           domain.DocTypeInvoice,
		CompanyID:      "co-1",
		CounterpartyID: "cust-1",
		Date:           time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	return doc
}

func (f *controllerFixture) draftJournal(t *testing.T, lines []domain.JournalLine) *domain.Document {
	t.Helper()
	doc, err := f.uc.CreateDraft(context.Background(), usecase.CreateDraftInput{
		Type:      domain.DocTypeJournal,
		CompanyID: "co-1",
		Date:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if lines != nil {
		doc, err = f.uc.UpdateDraft(context.Background(), domain.DocTypeJournal, doc.ID, usecase.UpdateDraftInput{
			JournalLines: lines,
		})
		if err != nil {
			t.Fatalf("UpdateDraft() error = %v", err)
		}
	}
	return doc
}

func TestDocumentUseCase_CreateDraft(t *testing.T) {
	f := newControllerFixture()

	doc := f.draftInvoice(t)

	if doc.TradeStatus != domain.TradeStatusDraft {
		t.Errorf("TradeStatus = %q, want draft", doc.TradeStatus)
	}
	if doc.Header.Number == "" {
		t.Error("draft has no document number")
	}
	if doc.Persisted {
		t.Error("fresh draft marked persisted")
	}

	stored, _, err := f.local.Get(context.Background(), domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatalf("draft not in local store: %v", err)
	}
	if stored.ID != doc.ID {
		t.Errorf("stored id = %q, want %q", stored.ID, doc.ID)
	}
}

func TestDocumentUseCase_CreateDraftUnknownType(t *testing.T) {
	f := newControllerFixture()

	_, err := f.uc.CreateDraft(context.Background(), usecase.CreateDraftInput{Type: "receipt"})
	if !errors.Is(err, domain.ErrUnknownDocumentType) {
		t.Fatalf("CreateDraft() error = %v, want ErrUnknownDocumentType", err)
	}
}

func TestDocumentUseCase_CreateDraftWorksWhileRemoteDown(t *testing.T) {
	f := newControllerFixture()
	f.numbers.NextNumberFunc = func(ctx context.Context, docType domain.DocumentType) (string, error) {
		return "", errors.New("connection refused")
	}

	doc := f.draftInvoice(t)
	if !doc.ProvisionalNum {
		t.Error("expected provisional number while remote counter is down")
	}
	if doc.Header.Number == "" {
		t.Error("draft has no document number")
	}
}

func TestDocumentUseCase_LineEditing(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)

	doc, err := f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatalf("AddLine() error = %v", err)
	}
	if len(doc.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(doc.Lines))
	}
	lineID := doc.Lines[0].ID

	// Selecting an item pulls the rate from the catalog.
	doc, err = f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: lineID, Field: usecase.LineFieldItem, ItemRef: "item-1",
	})
	if err != nil {
		t.Fatalf("EditLine(item) error = %v", err)
	}
	if !doc.Lines[0].UnitRate.Equal(decimal.NewFromInt(25)) {
		t.Errorf("unit rate = %s, want 25", doc.Lines[0].UnitRate)
	}

	doc, err = f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: lineID, Field: usecase.LineFieldQuantity, Value: decimal.NewFromInt(4),
	})
	if err != nil {
		t.Fatalf("EditLine(quantity) error = %v", err)
	}
	if !doc.Lines[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("amount = %s, want 100", doc.Lines[0].Amount)
	}

	totals := doc.Totals()
	if !totals.Gross.Equal(decimal.NewFromInt(100)) {
		t.Errorf("gross = %s, want 100", totals.Gross)
	}

	doc, err = f.uc.RemoveLine(ctx, domain.DocTypeInvoice, doc.ID, lineID)
	if err != nil {
		t.Fatalf("RemoveLine() error = %v", err)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("lines = %d after removal, want 0", len(doc.Lines))
	}
}

func TestDocumentUseCase_EditLineUnknownItem(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)
	doc, err := f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldItem, ItemRef: "no-such-item",
	})
	if !errors.Is(err, domain.ErrUnknownItem) {
		t.Fatalf("EditLine() error = %v, want ErrUnknownItem", err)
	}
}

func TestDocumentUseCase_UpdateDraftTaxSelection(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)

	taxID := "tax-1"
	doc, err := f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{TaxID: &taxID})
	if err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}
	if doc.Tax == nil || !doc.Tax.RatePercent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("tax selection = %+v, want 10%%", doc.Tax)
	}

	clear := ""
	doc, err = f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{TaxID: &clear})
	if err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}
	if doc.Tax != nil {
		t.Error("tax selection not cleared")
	}

	unknown := "tax-404"
	if _, err := f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{TaxID: &unknown}); !errors.Is(err, domain.ErrUnknownTax) {
		t.Fatalf("UpdateDraft() error = %v, want ErrUnknownTax", err)
	}
}

func TestDocumentUseCase_UpdateDraftNumberFreezesOnPersist(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)

	// Before persistence a manual number may replace the issued one.
	manual := "INV-CUSTOM-7"
	doc, err := f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{Number: &manual})
	if err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}
	if doc.Header.Number != manual {
		t.Fatalf("number = %q, want %q", doc.Header.Number, manual)
	}
	if doc.ProvisionalNum {
		t.Error("manually assigned number still flagged provisional")
	}

	doc, err = f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldItem, ItemRef: "item-1",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Submit(ctx, domain.DocTypeInvoice, doc.ID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Once the remote ledger has the document the number is frozen.
	other := "INV-CUSTOM-8"
	if _, err := f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{Number: &other}); !errors.Is(err, domain.ErrImmutableNumber) {
		t.Fatalf("UpdateDraft() error = %v, want ErrImmutableNumber", err)
	}

	// Re-sending the same number is a no-op, not a violation.
	if _, err := f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{Number: &manual}); err != nil {
		t.Fatalf("UpdateDraft() with unchanged number error = %v", err)
	}
}

func TestDocumentUseCase_SubmitInvoice(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)
	doc, err := f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldItem, ItemRef: "item-1",
	}); err != nil {
		t.Fatal(err)
	}

	result, err := f.uc.Submit(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Offline {
		t.Error("Submit() went offline with remote up")
	}
	if result.Document.TradeStatus != domain.TradeStatusSent {
		t.Errorf("status = %q, want sent", result.Document.TradeStatus)
	}
	if !result.Document.Persisted {
		t.Error("document not marked persisted after remote success")
	}
}

func TestDocumentUseCase_SubmitValidationStopsBeforeRemote(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	var remoteCalls atomic.Int64
	f.remote.CreateFunc = func(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
		remoteCalls.Add(1)
		return doc, nil
	}

	// Journal entry that is off by one: debits 100, credits 99.
	doc := f.draftJournal(t, []domain.JournalLine{
		{ID: "l1", AccountRef: "cash", Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
		{ID: "l2", AccountRef: "sales", Debit: decimal.Zero, Credit: decimal.NewFromInt(99)},
	})

	_, err := f.uc.Submit(ctx, domain.DocTypeJournal, doc.ID)
	if !errors.Is(err, domain.ErrUnbalancedEntry) {
		t.Fatalf("Submit() error = %v, want ErrUnbalancedEntry", err)
	}
	if remoteCalls.Load() != 0 {
		t.Errorf("unbalanced entry reached the remote service %d times", remoteCalls.Load())
	}
}

func TestDocumentUseCase_SubmitEmptyDocument(t *testing.T) {
	f := newControllerFixture()

	doc := f.draftInvoice(t)

	_, err := f.uc.Submit(context.Background(), domain.DocTypeInvoice, doc.ID)
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("Submit() error = %v, want ErrEmptyDocument", err)
	}
}

func TestDocumentUseCase_SubmitGuardRejectsConcurrent(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)
	doc, err := f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldItem, ItemRef: "item-1",
	}); err != nil {
		t.Fatal(err)
	}

	// Simulate an in-flight submit holding the per-document lock.
	if _, err := f.guard.Acquire(ctx, domain.DocTypeInvoice, doc.ID, time.Minute); err != nil {
		t.Fatal(err)
	}

	if _, err := f.uc.Submit(ctx, domain.DocTypeInvoice, doc.ID); !errors.Is(err, domain.ErrSubmitInFlight) {
		t.Fatalf("Submit() error = %v, want ErrSubmitInFlight", err)
	}
}

func TestDocumentUseCase_SubmitRemoteDownStaysUnpersisted(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	f.remote.CreateFunc = func(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
		return nil, errors.New("i/o timeout")
	}

	doc := f.draftInvoice(t)
	doc, err := f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldItem, ItemRef: "item-1",
	}); err != nil {
		t.Fatal(err)
	}

	result, err := f.uc.Submit(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !result.Offline {
		t.Fatal("Submit() not marked offline")
	}
	if result.Document.Persisted {
		t.Error("offline snapshot wrongly marked persisted")
	}

	// A later submit would create, not update, since the document
	// never reached the remote side.
	if result.Document.Header.Number == "" {
		t.Error("offline snapshot lost its number")
	}
}

func TestDocumentUseCase_PaySettlesBalance(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftInvoice(t)
	doc, err := f.uc.AddLine(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldItem, ItemRef: "item-1",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.EditLine(ctx, domain.DocTypeInvoice, doc.ID, usecase.LineEdit{
		LineID: doc.Lines[0].ID, Field: usecase.LineFieldQuantity, Value: decimal.NewFromInt(4),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.uc.Submit(ctx, domain.DocTypeInvoice, doc.ID); err != nil {
		t.Fatal(err)
	}

	// Partial payment: still sent.
	paid, err := f.uc.Pay(ctx, domain.DocTypeInvoice, doc.ID, decimal.NewFromInt(40))
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}
	if paid.TradeStatus != domain.TradeStatusSent {
		t.Errorf("status after partial payment = %q, want sent", paid.TradeStatus)
	}

	// Remainder settles the balance.
	paid, err = f.uc.Pay(ctx, domain.DocTypeInvoice, doc.ID, decimal.NewFromInt(60))
	if err != nil {
		t.Fatalf("Pay() error = %v", err)
	}
	if paid.TradeStatus != domain.TradeStatusPaid {
		t.Errorf("status after full payment = %q, want paid", paid.TradeStatus)
	}

	// Terminal: no further payments.
	if _, err := f.uc.Pay(ctx, domain.DocTypeInvoice, doc.ID, decimal.NewFromInt(1)); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Pay() on paid document error = %v, want ErrInvalidTransition", err)
	}
}

func TestDocumentUseCase_PayRejectsInvalidDraft(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	var remoteCalls atomic.Int64
	f.remote.CreateFunc = func(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
		remoteCalls.Add(1)
		return doc, nil
	}

	// Cheque-paid draft with no account number, no attachment and no
	// lines: paying it would persist it, so it must cross the same
	// validation gate as submit.
	doc := f.draftInvoice(t)
	if _, err := f.uc.UpdateDraft(ctx, domain.DocTypeInvoice, doc.ID, usecase.UpdateDraftInput{
		Payment: &domain.PaymentDetails{Method: domain.PaymentCheque},
	}); err != nil {
		t.Fatal(err)
	}

	_, err := f.uc.Pay(ctx, domain.DocTypeInvoice, doc.ID, decimal.NewFromInt(50))
	if !errors.Is(err, domain.ErrMissingAccountNumber) {
		t.Fatalf("Pay() error = %v, want ErrMissingAccountNumber", err)
	}
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("Pay() error = %v, want ErrEmptyDocument joined in", err)
	}
	if remoteCalls.Load() != 0 {
		t.Error("invalid draft reached the remote service")
	}
}

func TestDocumentUseCase_CancelDraftStaysLocal(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	var remoteCalls atomic.Int64
	f.remote.UpdateFunc = func(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
		remoteCalls.Add(1)
		return doc, nil
	}

	doc := f.draftInvoice(t)

	cancelled, err := f.uc.Cancel(ctx, domain.DocTypeInvoice, doc.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.TradeStatus != domain.TradeStatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.TradeStatus)
	}
	if remoteCalls.Load() != 0 {
		t.Error("cancelling a never-persisted draft hit the remote service")
	}

	// Cancelled is terminal.
	if _, err := f.uc.Cancel(ctx, domain.DocTypeInvoice, doc.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second Cancel() error = %v, want ErrInvalidTransition", err)
	}
}

func TestDocumentUseCase_JournalPostAndVoid(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	doc := f.draftJournal(t, []domain.JournalLine{
		{ID: "l1", AccountRef: "cash", Debit: decimal.NewFromInt(250), Credit: decimal.Zero},
		{ID: "l2", AccountRef: "sales", Debit: decimal.Zero, Credit: decimal.NewFromInt(250)},
	})

	posted, err := f.uc.Post(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if posted.JournalStatus != domain.JournalStatusPosted {
		t.Errorf("status = %q, want posted", posted.JournalStatus)
	}

	voided, err := f.uc.Void(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Void() error = %v", err)
	}
	if voided.JournalStatus != domain.JournalStatusVoid {
		t.Errorf("status = %q, want void", voided.JournalStatus)
	}

	// Void is one-way.
	if _, err := f.uc.Post(ctx, doc.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Post() after void error = %v, want ErrInvalidTransition", err)
	}
}

func TestDocumentUseCase_DeleteDraftNeverTouchesRemote(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	var remoteDeletes atomic.Int64
	f.remote.DeleteFunc = func(ctx context.Context, docType domain.DocumentType, id string) error {
		remoteDeletes.Add(1)
		return nil
	}

	doc := f.draftInvoice(t)

	if _, err := f.uc.DeleteDocument(ctx, domain.DocTypeInvoice, doc.ID); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}
	if remoteDeletes.Load() != 0 {
		t.Error("deleting a never-persisted draft hit the remote service")
	}
	if _, _, err := f.local.Get(ctx, domain.DocTypeInvoice, doc.ID); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("draft still in local store: %v", err)
	}
}

func TestDocumentUseCase_ListMergesOfflineDocuments(t *testing.T) {
	f := newControllerFixture()
	ctx := context.Background()

	remoteDoc := newTestDocument(domain.DocTypeInvoice, "doc-remote")
	if _, err := f.remote.Create(ctx, remoteDoc); err != nil {
		t.Fatal(err)
	}

	offlineDoc := newTestDocument(domain.DocTypeInvoice, "doc-offline")
	if err := f.local.Put(ctx, offlineDoc); err != nil {
		t.Fatal(err)
	}
	if err := f.local.EnqueueOfflineTx(ctx, nil, offlineDoc.Type, offlineDoc.ID); err != nil {
		t.Fatal(err)
	}

	docs, total, err := f.uc.ListDocuments(ctx, usecase.ListDocumentsInput{Type: domain.DocTypeInvoice, Limit: 20})
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID] = true
	}
	if !ids["doc-remote"] || !ids["doc-offline"] {
		t.Errorf("merged listing = %v, want both remote and offline documents", ids)
	}
}
