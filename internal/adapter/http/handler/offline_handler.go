package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finform/finform/internal/adapter/http/dto"
	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
)

// OfflineService defines the behavior needed by OfflineHandler.
type OfflineService interface {
	Report(ctx context.Context) (*usecase.OfflineReport, error)
	PendingByType(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error)
}

// OfflineHandler exposes the offline queue for inspection.
type OfflineHandler struct {
	offlineUC OfflineService
}

// NewOfflineHandler creates a new OfflineHandler.
func NewOfflineHandler(offlineUC OfflineService) *OfflineHandler {
	return &OfflineHandler{offlineUC: offlineUC}
}

// Report summarizes queued documents per type.
func (h *OfflineHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.offlineUC.Report(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OfflineReportFromDomain(report))
}

// Pending lists queued documents of one type, oldest first.
func (h *OfflineHandler) Pending(w http.ResponseWriter, r *http.Request) {
	dt := domain.DocumentType(chi.URLParam(r, "type"))
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	docs, err := h.offlineUC.PendingByType(r.Context(), dt, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]*dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = dto.DocumentFromDomain(doc, true)
	}

	writeJSON(w, http.StatusOK, dto.ListEnvelope{
		Data:   responses,
		Total:  len(responses),
		Limit:  limit,
		Offset: offset,
	})
}
