package handler

import (
	"context"
	"net/http"

	"github.com/finform/finform/internal/adapter/http/dto"
	"github.com/finform/finform/internal/domain"
)

// CatalogService defines the behavior needed by CatalogHandler.
type CatalogService interface {
	Items(ctx context.Context) ([]domain.CatalogItem, error)
	Taxes(ctx context.Context) ([]domain.TaxRate, error)
	Invalidate(ctx context.Context)
}

// CatalogHandler serves the item and tax master data forms pick from.
type CatalogHandler struct {
	catalogUC CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogUC CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC}
}

// Items lists the item catalog.
func (h *CatalogHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalogUC.Items(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ItemsFromDomain(items))
}

// Taxes lists the tax catalog.
func (h *CatalogHandler) Taxes(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.catalogUC.Taxes(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TaxesFromDomain(taxes))
}

// Refresh drops the cached catalogs so the next read hits upstream.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.catalogUC.Invalidate(r.Context())
	writeMessage(w, http.StatusOK, "catalog cache invalidated")
}
