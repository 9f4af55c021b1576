package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// fakeERP is an in-memory stand-in for the upstream ERP API. Setting
// down makes every endpoint answer 502 so transient-failure paths can
// be exercised.
type fakeERP struct {
	mu      sync.Mutex
	docs    map[string]json.RawMessage
	counter int
	down    bool
	srv     *httptest.Server
}

func newFakeERP() *fakeERP {
	erp := &fakeERP{docs: make(map[string]json.RawMessage)}

	r := chi.NewRouter()
	r.Use(erp.availability)

	r.Get("/items", func(w http.ResponseWriter, _ *http.Request) {
		erp.ok(w, json.RawMessage(`[
			{"ref":"item-1","name":"Widget","unit_rate":"25"},
			{"ref":"item-2","name":"Gadget","unit_rate":"9.99"}
		]`))
	})
	r.Get("/taxes", func(w http.ResponseWriter, _ *http.Request) {
		erp.ok(w, json.RawMessage(`[{"id":"tax-1","name":"VAT 10%","rate_percent":"10"}]`))
	})

	r.Get("/{type}/next-number", func(w http.ResponseWriter, r *http.Request) {
		erp.mu.Lock()
		erp.counter++
		number := fmt.Sprintf("INV-2026-%04d", erp.counter)
		erp.mu.Unlock()
		erp.ok(w, json.RawMessage(fmt.Sprintf(`{"number":%q}`, number)))
	})

	r.Get("/{type}", func(w http.ResponseWriter, r *http.Request) {
		docType := chi.URLParam(r, "type")
		erp.mu.Lock()
		var docs []json.RawMessage
		for key, doc := range erp.docs {
			if len(key) > len(docType) && key[:len(docType)] == docType {
				docs = append(docs, doc)
			}
		}
		erp.mu.Unlock()

		listing, _ := json.Marshal(map[string]any{"data": docs, "total": len(docs)})
		erp.ok(w, listing)
	})

	r.Post("/{type}", func(w http.ResponseWriter, r *http.Request) {
		erp.store(w, r, chi.URLParam(r, "type"), "")
	})
	r.Put("/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		erp.store(w, r, chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	})
	r.Get("/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		erp.mu.Lock()
		doc, found := erp.docs[chi.URLParam(r, "type")+"/"+chi.URLParam(r, "id")]
		erp.mu.Unlock()
		if !found {
			erp.fail(w, http.StatusNotFound, "document not found")
			return
		}
		erp.ok(w, doc)
	})
	r.Delete("/{type}/{id}", func(w http.ResponseWriter, r *http.Request) {
		erp.mu.Lock()
		delete(erp.docs, chi.URLParam(r, "type")+"/"+chi.URLParam(r, "id"))
		erp.mu.Unlock()
		erp.ok(w, nil)
	})
	r.Post("/{type}/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		erp.ok(w, nil)
	})

	erp.srv = httptest.NewServer(r)
	return erp
}

func (e *fakeERP) setDown(down bool) {
	e.mu.Lock()
	e.down = down
	e.mu.Unlock()
}

func (e *fakeERP) availability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		down := e.down
		e.mu.Unlock()
		if down {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (e *fakeERP) store(w http.ResponseWriter, r *http.Request, docType, id string) {
	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		e.fail(w, http.StatusBadRequest, "malformed document")
		return
	}
	if id == "" {
		id, _ = doc["id"].(string)
	}

	raw, _ := json.Marshal(doc)
	e.mu.Lock()
	e.docs[docType+"/"+id] = raw
	e.mu.Unlock()

	e.ok(w, raw)
}

func (e *fakeERP) ok(w http.ResponseWriter, data json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (e *fakeERP) fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
