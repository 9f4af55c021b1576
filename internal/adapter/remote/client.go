// Package remote implements the upstream ERP REST client. Every
// response uses the uniform envelope {success, message, data}; list
// payloads nest a second envelope with paging counters.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finform/finform/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Config holds the upstream connection settings.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	BearerToken   string
	SessionCookie string
}

// Client talks to the upstream ERP document API. It implements the
// RemoteGateway, NumberSource and CatalogSource ports.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	cookie  string
	logger  zerolog.Logger
}

// NewClient creates a new upstream API client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		token:   cfg.BearerToken,
		cookie:  cfg.SessionCookie,
		logger:  logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type listPayload struct {
	Data   json.RawMessage `json:"data"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Get fetches one document.
func (c *Client) Get(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error) {
	data, err := c.do(ctx, http.MethodGet, c.docPath(docType, id), nil)
	if err != nil {
		return nil, err
	}

	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding %s %s: %w", docType, id, err)
	}
	return wire.toDomain(docType), nil
}

// List fetches a page of documents of one family.
func (c *Client) List(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	data, err := c.do(ctx, http.MethodGet, c.docPath(docType, "")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}

	var page listPayload
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, 0, fmt.Errorf("decoding %s listing: %w", docType, err)
	}

	var wires []wireDocument
	if page.Data != nil {
		if err := json.Unmarshal(page.Data, &wires); err != nil {
			return nil, 0, fmt.Errorf("decoding %s listing: %w", docType, err)
		}
	}

	docs := make([]*domain.Document, 0, len(wires))
	for i := range wires {
		docs = append(docs, wires[i].toDomain(docType))
	}
	return docs, page.Total, nil
}

// Create persists a new document.
func (c *Client) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	data, err := c.do(ctx, http.MethodPost, c.docPath(doc.Type, ""), fromDomain(doc))
	if err != nil {
		return nil, err
	}
	return c.decodePersisted(doc, data)
}

// Update persists changes to an existing document.
func (c *Client) Update(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	data, err := c.do(ctx, http.MethodPut, c.docPath(doc.Type, doc.ID), fromDomain(doc))
	if err != nil {
		return nil, err
	}
	return c.decodePersisted(doc, data)
}

// Delete removes a document upstream.
func (c *Client) Delete(ctx context.Context, docType domain.DocumentType, id string) error {
	_, err := c.do(ctx, http.MethodDelete, c.docPath(docType, id), nil)
	return err
}

// Action posts a server-side status transition (post, void, pay,
// cancel).
func (c *Client) Action(ctx context.Context, docType domain.DocumentType, id, action string) error {
	_, err := c.do(ctx, http.MethodPost, c.docPath(docType, id)+"/"+action, nil)
	return err
}

// NextNumber asks the authoritative counter for the next document
// number.
func (c *Client) NextNumber(ctx context.Context, docType domain.DocumentType) (string, error) {
	data, err := c.do(ctx, http.MethodGet, c.docPath(docType, "")+"/next-number", nil)
	if err != nil {
		return "", err
	}

	var payload struct {
		Number string `json:"number"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("decoding next number: %w", err)
	}
	return payload.Number, nil
}

// Items fetches the item catalog.
func (c *Client) Items(ctx context.Context) ([]domain.CatalogItem, error) {
	data, err := c.do(ctx, http.MethodGet, "/items", nil)
	if err != nil {
		return nil, err
	}

	var wires []wireItem
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("decoding item catalog: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(wires))
	for _, w := range wires {
		items = append(items, domain.CatalogItem(w))
	}
	return items, nil
}

// Taxes fetches the tax rate catalog.
func (c *Client) Taxes(ctx context.Context) ([]domain.TaxRate, error) {
	data, err := c.do(ctx, http.MethodGet, "/taxes", nil)
	if err != nil {
		return nil, err
	}

	var wires []wireTaxRate
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("decoding tax catalog: %w", err)
	}

	taxes := make([]domain.TaxRate, 0, len(wires))
	for _, w := range wires {
		taxes = append(taxes, domain.TaxRate(w))
	}
	return taxes, nil
}

func (c *Client) docPath(docType domain.DocumentType, id string) string {
	if id == "" {
		return "/" + string(docType)
	}
	return "/" + string(docType) + "/" + id
}

func (c *Client) decodePersisted(sent *domain.Document, data []byte) (*domain.Document, error) {
	if len(data) == 0 || string(data) == "null" {
		// Some write endpoints answer with an empty data field.
		return sent, nil
	}
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding persisted document: %w", err)
	}
	return wire.toDomain(sent.Type), nil
}

// do performs one request and classifies the outcome. A reachable
// server that answers success=false is authoritative: the error wraps
// ErrNumberConflict for duplicate numbers and ErrRemoteRejected
// otherwise. Transport failures and 5xx answers stay unwrapped so the
// gateway treats them as transient.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	} else if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s %s: upstream status %d", method, path, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s %s: malformed envelope: %w", method, path, err)
	}

	if env.Success {
		return env.Data, nil
	}

	return nil, c.classifyRejection(resp.StatusCode, env.Message)
}

func (c *Client) classifyRejection(status int, message string) error {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrDocumentNotFound
	case status == http.StatusConflict || isDuplicateNumber(message):
		return fmt.Errorf("%w: %s", domain.ErrNumberConflict, message)
	default:
		return fmt.Errorf("%w: %s", domain.ErrRemoteRejected, message)
	}
}

// isDuplicateNumber recognizes the upstream duplicate-number rejection
// from the message text; older deployments answer 400 instead of 409.
func isDuplicateNumber(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "duplicate") && strings.Contains(lower, "number")
}
