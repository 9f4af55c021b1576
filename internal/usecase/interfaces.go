package usecase

import (
	"context"
	"time"

	"github.com/finform/finform/internal/domain"
)

// RemoteGateway is the upstream ERP service's document surface. Errors
// wrap domain.ErrRemoteRejected for authoritative rejections and
// domain.ErrNumberConflict for duplicate document numbers; anything
// else is treated as transient.
type RemoteGateway interface {
	Get(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error)
	List(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, int, error)
	Create(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	Delete(ctx context.Context, docType domain.DocumentType, id string) error
	Action(ctx context.Context, docType domain.DocumentType, id, action string) error
}

// NumberSource hands out the next document number from the
// authoritative remote counter.
type NumberSource interface {
	NextNumber(ctx context.Context, docType domain.DocumentType) (string, error)
}

// CatalogSource reads item and tax master data from the upstream
// service.
type CatalogSource interface {
	Items(ctx context.Context) ([]domain.CatalogItem, error)
	Taxes(ctx context.Context) ([]domain.TaxRate, error)
}

// LocalStore is the durable local persistence for drafts and offline
// snapshots. A document enqueued offline is a snapshot that could not
// reach the remote service and awaits reconciliation.
type LocalStore interface {
	Put(ctx context.Context, doc *domain.Document) error
	PutTx(ctx context.Context, tx Transaction, doc *domain.Document) error
	EnqueueOfflineTx(ctx context.Context, tx Transaction, docType domain.DocumentType, id string) error
	DequeueOfflineTx(ctx context.Context, tx Transaction, docType domain.DocumentType, id string) error
	Get(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, bool, error)
	ListByType(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error)
	ListOffline(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error)
	Delete(ctx context.Context, docType domain.DocumentType, id string) error
	DeleteTx(ctx context.Context, tx Transaction, docType domain.DocumentType, id string) error
	CountOffline(ctx context.Context) (map[domain.DocumentType]int64, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// SubmitGuard prevents a second concurrent submit for the same
// document instance.
type SubmitGuard interface {
	Acquire(ctx context.Context, docType domain.DocumentType, id string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, docType domain.DocumentType, id string) error
}

// Cache defines caching operations for catalog data.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Retrier retries an operation on retryable storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
