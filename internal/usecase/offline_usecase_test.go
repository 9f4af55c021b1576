package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
	"github.com/finform/finform/internal/usecase/mocks"
)

func TestOfflineUseCase_Report(t *testing.T) {
	local := mocks.NewMockLocalStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		doc := newTestDocument(domain.DocTypeInvoice, id)
		if err := local.Put(ctx, doc); err != nil {
			t.Fatal(err)
		}
		if err := local.EnqueueOfflineTx(ctx, nil, doc.Type, doc.ID); err != nil {
			t.Fatal(err)
		}
	}
	journal := newTestDocument(domain.DocTypeJournal, "j1")
	if err := local.Put(ctx, journal); err != nil {
		t.Fatal(err)
	}
	if err := local.EnqueueOfflineTx(ctx, nil, journal.Type, journal.ID); err != nil {
		t.Fatal(err)
	}

	// A plain draft does not count as pending.
	if err := local.Put(ctx, newTestDocument(domain.DocTypeInvoice, "draft")); err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewOfflineUseCase(local)
	report, err := uc.Report(ctx)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if report.Total != 3 {
		t.Errorf("Total = %d, want 3", report.Total)
	}
	if report.Counts[domain.DocTypeInvoice] != 2 {
		t.Errorf("invoice count = %d, want 2", report.Counts[domain.DocTypeInvoice])
	}
	if report.Counts[domain.DocTypeJournal] != 1 {
		t.Errorf("journal count = %d, want 1", report.Counts[domain.DocTypeJournal])
	}
	if report.CheckedAt.IsZero() {
		t.Error("CheckedAt not set")
	}
}

func TestOfflineUseCase_PendingByType(t *testing.T) {
	local := mocks.NewMockLocalStore()
	ctx := context.Background()

	doc := newTestDocument(domain.DocTypeBill, "b1")
	if err := local.Put(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if err := local.EnqueueOfflineTx(ctx, nil, doc.Type, doc.ID); err != nil {
		t.Fatal(err)
	}

	uc := usecase.NewOfflineUseCase(local)

	pending, err := uc.PendingByType(ctx, domain.DocTypeBill, 0, 0)
	if err != nil {
		t.Fatalf("PendingByType() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "b1" {
		t.Errorf("pending = %v, want [b1]", pending)
	}

	if _, err := uc.PendingByType(ctx, "receipt", 10, 0); !errors.Is(err, domain.ErrUnknownDocumentType) {
		t.Fatalf("PendingByType() error = %v, want ErrUnknownDocumentType", err)
	}
}
