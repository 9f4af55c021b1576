package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/adapter/http/dto"
	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
)

// DocumentService defines the behavior needed by DocumentHandler.
type DocumentService interface {
	CreateDraft(ctx context.Context, input usecase.CreateDraftInput) (*domain.Document, error)
	GetDocument(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, input usecase.ListDocumentsInput) ([]*domain.Document, int, error)
	UpdateDraft(ctx context.Context, docType domain.DocumentType, id string, input usecase.UpdateDraftInput) (*domain.Document, error)
	AddLine(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error)
	EditLine(ctx context.Context, docType domain.DocumentType, id string, edit usecase.LineEdit) (*domain.Document, error)
	RemoveLine(ctx context.Context, docType domain.DocumentType, id, lineID string) (*domain.Document, error)
	Submit(ctx context.Context, docType domain.DocumentType, id string) (*usecase.PersistResult, error)
	Pay(ctx context.Context, docType domain.DocumentType, id string, amount decimal.Decimal) (*domain.Document, error)
	Cancel(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error)
	Post(ctx context.Context, id string) (*domain.Document, error)
	Void(ctx context.Context, id string) (*domain.Document, error)
	DeleteDocument(ctx context.Context, docType domain.DocumentType, id string) (bool, error)
}

// DocumentHandler handles document-related HTTP requests.
type DocumentHandler struct {
	documentUC DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentUC DocumentService) *DocumentHandler {
	return &DocumentHandler{documentUC: documentUC}
}

// docType reads and validates the {type} URL parameter. A false return
// means the response has already been written.
func docType(w http.ResponseWriter, r *http.Request) (domain.DocumentType, bool) {
	dt := domain.DocumentType(chi.URLParam(r, "type"))
	if !domain.ValidDocumentType(dt) {
		writeError(w, http.StatusBadRequest, domain.ErrUnknownDocumentType.Error())
		return "", false
	}
	return dt, true
}

// Create opens a new draft document.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	var req dto.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.documentUC.CreateDraft(r.Context(), req.ToUseCaseInput(dt))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DocumentFromDomain(doc, false))
}

// Get retrieves a document by ID.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	doc, err := h.documentUC.GetDocument(r.Context(), dt, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// List lists documents of one type.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	docs, total, err := h.documentUC.ListDocuments(r.Context(), usecase.ListDocumentsInput{
		Type:   dt,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEnvelope{
		Data:   dto.DocumentsFromDomain(docs),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Update applies a partial edit to a draft.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.documentUC.UpdateDraft(r.Context(), dt, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// AddLine appends an empty line item to a draft.
func (h *DocumentHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	doc, err := h.documentUC.AddLine(r.Context(), dt, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// EditLine applies a single field edit to a line item.
func (h *DocumentHandler) EditLine(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	var req dto.EditLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.documentUC.EditLine(r.Context(), dt, chi.URLParam(r, "id"), req.ToUseCaseInput(chi.URLParam(r, "lineID")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// RemoveLine deletes a line item from a draft.
func (h *DocumentHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	doc, err := h.documentUC.RemoveLine(r.Context(), dt, chi.URLParam(r, "id"), chi.URLParam(r, "lineID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// Submit validates and persists a document. A document saved through
// the offline fallback answers 202 with persistence "offline".
func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	result, err := h.documentUC.Submit(r.Context(), dt, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusOK
	if result.Offline {
		status = http.StatusAccepted
	}
	writeJSON(w, status, dto.DocumentFromDomain(result.Document, result.Offline))
}

// Pay records a payment against a trade document.
func (h *DocumentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	var req dto.PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.documentUC.Pay(r.Context(), dt, chi.URLParam(r, "id"), req.Amount.Decimal)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// Cancel cancels a trade document.
func (h *DocumentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	doc, err := h.documentUC.Cancel(r.Context(), dt, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// Post posts a journal entry to the ledger.
func (h *DocumentHandler) Post(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentUC.Post(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// Void voids a posted journal entry.
func (h *DocumentHandler) Void(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documentUC.Void(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DocumentFromDomain(doc, false))
}

// Delete removes a document. Drafts are deleted locally; persisted
// documents are discarded on the remote as well.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dt, ok := docType(w, r)
	if !ok {
		return
	}

	localOnly, err := h.documentUC.DeleteDocument(r.Context(), dt, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	message := "document deleted"
	if localOnly {
		message = "document deleted locally; remote was unreachable"
	}
	writeMessage(w, http.StatusOK, message)
}
