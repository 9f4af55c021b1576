package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
)

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentRepository implements usecase.LocalStore on PostgreSQL.
// Documents are stored whole as jsonb snapshots; the offline queue is
// a separate table so enqueue/dequeue does not rewrite the payload.
type DocumentRepository struct {
	pool dbPool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return newDocumentRepositoryWithPool(pool)
}

func newDocumentRepositoryWithPool(pool dbPool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// storedDocument is the jsonb payload shape. It carries everything the
// domain document holds, including derivation flags the upstream wire
// format drops.
type storedDocument struct {
	ID             string               `json:"id"`
	Type           string               `json:"type"`
	CompanyID      string               `json:"company_id"`
	CounterpartyID string               `json:"counterparty_id,omitempty"`
	Number         string               `json:"number"`
	Date           time.Time            `json:"date"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	Remarks        string               `json:"remarks,omitempty"`
	Lines          []storedLine         `json:"line_items,omitempty"`
	JournalLines   []storedJournalLine  `json:"journal_lines,omitempty"`
	Tax            *storedTax           `json:"tax,omitempty"`
	Discount       decimal.Decimal      `json:"discount"`
	PaidOrRefund   decimal.Decimal      `json:"paid_amount"`
	Payment        storedPayment        `json:"payment"`
	TradeStatus    string               `json:"trade_status,omitempty"`
	JournalStatus  string               `json:"journal_status,omitempty"`
	ProvisionalNum bool                 `json:"provisional_number"`
	Persisted      bool                 `json:"persisted"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

type storedLine struct {
	ID          string          `json:"id"`
	ItemRef     string          `json:"item_ref,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	Amount      decimal.Decimal `json:"amount"`
}

type storedJournalLine struct {
	ID         string          `json:"id"`
	AccountRef string          `json:"account_ref"`
	Narration  string          `json:"narration,omitempty"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
}

type storedTax struct {
	ID          string          `json:"id"`
	RatePercent decimal.Decimal `json:"rate_percent"`
}

type storedPayment struct {
	Method        string `json:"method,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
}

func encodeDocument(doc *domain.Document) ([]byte, error) {
	stored := storedDocument{
		ID:             doc.ID,
		Type:           string(doc.Type),
		CompanyID:      doc.Header.CompanyID,
		CounterpartyID: doc.Header.CounterpartyID,
		Number:         doc.Header.Number,
		Date:           doc.Header.Date,
		DueDate:        doc.Header.DueDate,
		Remarks:        doc.Header.Remarks,
		Discount:       doc.Discount,
		PaidOrRefund:   doc.PaidOrRefund,
		Payment: storedPayment{
			Method:        string(doc.Payment.Method),
			AccountNumber: doc.Payment.AccountNumber,
			AttachmentRef: doc.Payment.AttachmentRef,
		},
		TradeStatus:    string(doc.TradeStatus),
		JournalStatus:  string(doc.JournalStatus),
		ProvisionalNum: doc.ProvisionalNum,
		Persisted:      doc.Persisted,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
	for _, line := range doc.Lines {
		stored.Lines = append(stored.Lines, storedLine(line))
	}
	for _, line := range doc.JournalLines {
		stored.JournalLines = append(stored.JournalLines, storedJournalLine(line))
	}
	if doc.Tax != nil {
		stored.Tax = &storedTax{ID: doc.Tax.TaxID, RatePercent: doc.Tax.RatePercent}
	}
	return json.Marshal(stored)
}

func decodeDocument(payload []byte) (*domain.Document, error) {
	var stored storedDocument
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("decoding stored document: %w", err)
	}

	doc := &domain.Document{
		ID:   stored.ID,
		Type: domain.DocumentType(stored.Type),
		Header: domain.DocumentHeader{
			CompanyID:      stored.CompanyID,
			CounterpartyID: stored.CounterpartyID,
			Number:         stored.Number,
			Date:           stored.Date,
			DueDate:        stored.DueDate,
			Remarks:        stored.Remarks,
		},
		Discount:     stored.Discount,
		PaidOrRefund: stored.PaidOrRefund,
		Payment: domain.PaymentDetails{
			Method:        domain.PaymentMethod(stored.Payment.Method),
			AccountNumber: stored.Payment.AccountNumber,
			AttachmentRef: stored.Payment.AttachmentRef,
		},
		TradeStatus:    domain.TradeStatus(stored.TradeStatus),
		JournalStatus:  domain.JournalStatus(stored.JournalStatus),
		ProvisionalNum: stored.ProvisionalNum,
		Persisted:      stored.Persisted,
		CreatedAt:      stored.CreatedAt,
		UpdatedAt:      stored.UpdatedAt,
	}
	for _, line := range stored.Lines {
		doc.Lines = append(doc.Lines, domain.LineItem(line))
	}
	for _, line := range stored.JournalLines {
		doc.JournalLines = append(doc.JournalLines, domain.JournalLine(line))
	}
	if stored.Tax != nil {
		doc.Tax = &domain.TaxSelection{TaxID: stored.Tax.ID, RatePercent: stored.Tax.RatePercent}
	}
	return doc, nil
}

const upsertDocumentSQL = `
INSERT INTO local_documents (doc_type, id, payload, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (doc_type, id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

// Put upserts a document snapshot.
func (r *DocumentRepository) Put(ctx context.Context, doc *domain.Document) error {
	payload, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, upsertDocumentSQL, string(doc.Type), doc.ID, payload, doc.UpdatedAt)
	return err
}

// PutTx upserts a document snapshot within a transaction.
func (r *DocumentRepository) PutTx(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	payload, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	pgxTx := tx.(*Tx).PgxTx()
	_, err = pgxTx.Exec(ctx, upsertDocumentSQL, string(doc.Type), doc.ID, payload, doc.UpdatedAt)
	return err
}

// EnqueueOfflineTx marks a snapshot as waiting for reconciliation.
func (r *DocumentRepository) EnqueueOfflineTx(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error {
	pgxTx := tx.(*Tx).PgxTx()
	_, err := pgxTx.Exec(ctx, `
		INSERT INTO offline_queue (doc_type, id, enqueued_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (doc_type, id) DO NOTHING`,
		string(docType), id, time.Now().UTC())
	return err
}

// DequeueOfflineTx removes a snapshot from the pending queue.
func (r *DocumentRepository) DequeueOfflineTx(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error {
	pgxTx := tx.(*Tx).PgxTx()
	_, err := pgxTx.Exec(ctx, `
		DELETE FROM offline_queue WHERE doc_type = $1 AND id = $2`,
		string(docType), id)
	return err
}

// Get reads one snapshot, reporting whether it is queued offline.
func (r *DocumentRepository) Get(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, bool, error) {
	var payload []byte
	var offline bool

	err := r.pool.QueryRow(ctx, `
		SELECT d.payload, q.id IS NOT NULL
		FROM local_documents d
		LEFT JOIN offline_queue q ON q.doc_type = d.doc_type AND q.id = d.id
		WHERE d.doc_type = $1 AND d.id = $2`,
		string(docType), id).Scan(&payload, &offline)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrDocumentNotFound
		}
		return nil, false, err
	}

	doc, err := decodeDocument(payload)
	if err != nil {
		return nil, false, err
	}
	return doc, offline, nil
}

// ListByType lists snapshots of one family, newest first.
func (r *DocumentRepository) ListByType(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT payload FROM local_documents
		WHERE doc_type = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3`,
		string(docType), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListOffline lists snapshots of one family queued for reconciliation.
func (r *DocumentRepository) ListOffline(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.payload
		FROM local_documents d
		JOIN offline_queue q ON q.doc_type = d.doc_type AND q.id = d.id
		WHERE d.doc_type = $1
		ORDER BY q.enqueued_at ASC
		LIMIT $2 OFFSET $3`,
		string(docType), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// Delete removes a snapshot and its queue entry.
func (r *DocumentRepository) Delete(ctx context.Context, docType domain.DocumentType, id string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM local_documents WHERE doc_type = $1 AND id = $2`,
		string(docType), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// DeleteTx removes a snapshot within a transaction. Unlike Delete a
// missing row is not an error: cleanup after a remote persist runs
// whether or not a local copy exists.
func (r *DocumentRepository) DeleteTx(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error {
	pgxTx := tx.(*Tx).PgxTx()
	_, err := pgxTx.Exec(ctx, `
		DELETE FROM local_documents WHERE doc_type = $1 AND id = $2`,
		string(docType), id)
	return err
}

// CountOffline counts queued snapshots per document family.
func (r *DocumentRepository) CountOffline(ctx context.Context) (map[domain.DocumentType]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doc_type, COUNT(*) FROM offline_queue GROUP BY doc_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.DocumentType]int64)
	for rows.Next() {
		var docType string
		var n int64
		if err := rows.Scan(&docType, &n); err != nil {
			return nil, err
		}
		counts[domain.DocumentType(docType)] = n
	}
	return counts, rows.Err()
}

func collectDocuments(rows pgx.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(payload)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
