package usecase

import (
	"context"
	"time"

	"github.com/finform/finform/internal/domain"
)

// OfflineUseCase inspects the offline fallback queue: documents that
// could not reach the remote service and are held locally. Inspection
// is read-only; nothing here replays the queue.
type OfflineUseCase struct {
	local LocalStore
}

// NewOfflineUseCase creates a new offline inspection use case.
func NewOfflineUseCase(local LocalStore) *OfflineUseCase {
	return &OfflineUseCase{local: local}
}

// PendingByType lists the offline snapshots for one document family.
func (uc *OfflineUseCase) PendingByType(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error) {
	if !domain.ValidDocumentType(docType) {
		return nil, domain.ErrUnknownDocumentType
	}
	if limit <= 0 {
		limit = 50
	}
	return uc.local.ListOffline(ctx, docType, limit, offset)
}

// OfflineReport summarizes the fallback queue across all families.
type OfflineReport struct {
	Counts    map[domain.DocumentType]int64
	Total     int64
	CheckedAt time.Time
}

// Report counts pending offline snapshots per document family.
func (uc *OfflineUseCase) Report(ctx context.Context) (*OfflineReport, error) {
	counts, err := uc.local.CountOffline(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	return &OfflineReport{
		Counts:    counts,
		Total:     total,
		CheckedAt: time.Now().UTC(),
	}, nil
}
