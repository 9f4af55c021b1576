package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
)

type catalogServiceStub struct {
	itemsFn      func(ctx context.Context) ([]domain.CatalogItem, error)
	taxesFn      func(ctx context.Context) ([]domain.TaxRate, error)
	invalidateFn func(ctx context.Context)
}

func (s *catalogServiceStub) Items(ctx context.Context) ([]domain.CatalogItem, error) {
	return s.itemsFn(ctx)
}

func (s *catalogServiceStub) Taxes(ctx context.Context) ([]domain.TaxRate, error) {
	return s.taxesFn(ctx)
}

func (s *catalogServiceStub) Invalidate(ctx context.Context) {
	if s.invalidateFn != nil {
		s.invalidateFn(ctx)
	}
}

func TestCatalogHandler_Items(t *testing.T) {
	handler := NewCatalogHandler(&catalogServiceStub{
		itemsFn: func(ctx context.Context) ([]domain.CatalogItem, error) {
			return []domain.CatalogItem{
				{Ref: "item-1", Name: "Widget", UnitRate: decimal.NewFromInt(25)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/catalog/items", nil)
	rec := httptest.NewRecorder()

	handler.Items(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}
}

func TestCatalogHandler_Taxes_UpstreamDown(t *testing.T) {
	handler := NewCatalogHandler(&catalogServiceStub{
		taxesFn: func(ctx context.Context) ([]domain.TaxRate, error) {
			return nil, errors.New("connection refused")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/catalog/taxes", nil)
	rec := httptest.NewRecorder()

	handler.Taxes(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestCatalogHandler_Refresh(t *testing.T) {
	invalidated := false
	handler := NewCatalogHandler(&catalogServiceStub{
		invalidateFn: func(ctx context.Context) { invalidated = true },
	})

	req := httptest.NewRequest(http.MethodPost, "/catalog/refresh", nil)
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !invalidated {
		t.Fatal("expected the cache to be invalidated")
	}
}
