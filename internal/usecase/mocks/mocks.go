package mocks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finform/finform/internal/domain"
	"github.com/finform/finform/internal/usecase"
)

func docKey(docType domain.DocumentType, id string) string {
	return string(docType) + ":" + id
}

// MockRemoteGateway is a mock implementation of RemoteGateway backed
// by an in-memory map. Set the Func fields to override behavior.
type MockRemoteGateway struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document

	GetFunc    func(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error)
	ListFunc   func(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, int, error)
	CreateFunc func(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	UpdateFunc func(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	DeleteFunc func(ctx context.Context, docType domain.DocumentType, id string) error
	ActionFunc func(ctx context.Context, docType domain.DocumentType, id, action string) error
}

func NewMockRemoteGateway() *MockRemoteGateway {
	return &MockRemoteGateway{docs: make(map[string]*domain.Document)}
}

func (m *MockRemoteGateway) Get(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, docType, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if doc, ok := m.docs[docKey(docType, id)]; ok {
		return doc, nil
	}
	return nil, domain.ErrDocumentNotFound
}

func (m *MockRemoteGateway) List(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, int, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, docType, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.docs {
		if doc.Type == docType {
			docs = append(docs, doc)
		}
	}
	return docs, len(docs), nil
}

func (m *MockRemoteGateway) Create(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docKey(doc.Type, doc.ID)] = doc
	return doc, nil
}

func (m *MockRemoteGateway) Update(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docKey(doc.Type, doc.ID)] = doc
	return doc, nil
}

func (m *MockRemoteGateway) Delete(ctx context.Context, docType domain.DocumentType, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, docType, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[docKey(docType, id)]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, docKey(docType, id))
	return nil
}

func (m *MockRemoteGateway) Action(ctx context.Context, docType domain.DocumentType, id, action string) error {
	if m.ActionFunc != nil {
		return m.ActionFunc(ctx, docType, id, action)
	}
	return nil
}

// MockLocalStore is a mock implementation of LocalStore backed by
// in-memory maps. Transactional variants share the same state.
type MockLocalStore struct {
	mu      sync.RWMutex
	docs    map[string]*domain.Document
	offline map[string]bool

	PutFunc            func(ctx context.Context, doc *domain.Document) error
	PutTxFunc          func(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error
	EnqueueOfflineFunc func(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error
	DequeueOfflineFunc func(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error
	GetFunc            func(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, bool, error)
	ListByTypeFunc     func(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error)
	ListOfflineFunc    func(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error)
	DeleteFunc         func(ctx context.Context, docType domain.DocumentType, id string) error
	DeleteTxFunc       func(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error
	CountOfflineFunc   func(ctx context.Context) (map[domain.DocumentType]int64, error)
}

func NewMockLocalStore() *MockLocalStore {
	return &MockLocalStore{
		docs:    make(map[string]*domain.Document),
		offline: make(map[string]bool),
	}
}

func (m *MockLocalStore) Put(ctx context.Context, doc *domain.Document) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, doc)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[docKey(doc.Type, doc.ID)] = doc
	return nil
}

func (m *MockLocalStore) PutTx(ctx context.Context, tx usecase.Transaction, doc *domain.Document) error {
	if m.PutTxFunc != nil {
		return m.PutTxFunc(ctx, tx, doc)
	}
	return m.Put(ctx, doc)
}

func (m *MockLocalStore) EnqueueOfflineTx(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error {
	if m.EnqueueOfflineFunc != nil {
		return m.EnqueueOfflineFunc(ctx, tx, docType, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline[docKey(docType, id)] = true
	return nil
}

func (m *MockLocalStore) DequeueOfflineTx(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error {
	if m.DequeueOfflineFunc != nil {
		return m.DequeueOfflineFunc(ctx, tx, docType, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.offline, docKey(docType, id))
	return nil
}

func (m *MockLocalStore) Get(ctx context.Context, docType domain.DocumentType, id string) (*domain.Document, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, docType, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := docKey(docType, id)
	if doc, ok := m.docs[key]; ok {
		return doc, m.offline[key], nil
	}
	return nil, false, domain.ErrDocumentNotFound
}

func (m *MockLocalStore) ListByType(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error) {
	if m.ListByTypeFunc != nil {
		return m.ListByTypeFunc(ctx, docType, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.docs {
		if doc.Type == docType {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockLocalStore) ListOffline(ctx context.Context, docType domain.DocumentType, limit, offset int) ([]*domain.Document, error) {
	if m.ListOfflineFunc != nil {
		return m.ListOfflineFunc(ctx, docType, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for key, doc := range m.docs {
		if doc.Type == docType && m.offline[key] {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockLocalStore) Delete(ctx context.Context, docType domain.DocumentType, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, docType, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := docKey(docType, id)
	if _, ok := m.docs[key]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.docs, key)
	delete(m.offline, key)
	return nil
}

func (m *MockLocalStore) DeleteTx(ctx context.Context, tx usecase.Transaction, docType domain.DocumentType, id string) error {
	if m.DeleteTxFunc != nil {
		return m.DeleteTxFunc(ctx, tx, docType, id)
	}
	return m.Delete(ctx, docType, id)
}

func (m *MockLocalStore) CountOffline(ctx context.Context) (map[domain.DocumentType]int64, error) {
	if m.CountOfflineFunc != nil {
		return m.CountOfflineFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[domain.DocumentType]int64)
	for key, doc := range m.docs {
		if m.offline[key] {
			counts[doc.Type]++
		}
	}
	return counts, nil
}

// OfflineCount returns the number of enqueued offline snapshots.
func (m *MockLocalStore) OfflineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.offline)
}

// MockNumberSource is a mock implementation of NumberSource producing
// sequential numbers.
type MockNumberSource struct {
	counter atomic.Int64

	NextNumberFunc func(ctx context.Context, docType domain.DocumentType) (string, error)
}

func NewMockNumberSource() *MockNumberSource {
	return &MockNumberSource{}
}

func (m *MockNumberSource) NextNumber(ctx context.Context, docType domain.DocumentType) (string, error) {
	if m.NextNumberFunc != nil {
		return m.NextNumberFunc(ctx, docType)
	}
	n := m.counter.Add(1)
	return fmt.Sprintf("%s-%04d", docType, n), nil
}

// MockCatalogSource is a mock implementation of CatalogSource.
type MockCatalogSource struct {
	ItemsData []domain.CatalogItem
	TaxesData []domain.TaxRate

	ItemsFunc func(ctx context.Context) ([]domain.CatalogItem, error)
	TaxesFunc func(ctx context.Context) ([]domain.TaxRate, error)

	itemsCalls atomic.Int64
	taxesCalls atomic.Int64
}

func NewMockCatalogSource() *MockCatalogSource {
	return &MockCatalogSource{}
}

func (m *MockCatalogSource) Items(ctx context.Context) ([]domain.CatalogItem, error) {
	m.itemsCalls.Add(1)
	if m.ItemsFunc != nil {
		return m.ItemsFunc(ctx)
	}
	return m.ItemsData, nil
}

func (m *MockCatalogSource) Taxes(ctx context.Context) ([]domain.TaxRate, error) {
	m.taxesCalls.Add(1)
	if m.TaxesFunc != nil {
		return m.TaxesFunc(ctx)
	}
	return m.TaxesData, nil
}

func (m *MockCatalogSource) ItemsCalls() int64 { return m.itemsCalls.Load() }
func (m *MockCatalogSource) TaxesCalls() int64 { return m.taxesCalls.Load() }

// MockSubmitGuard is a mock implementation of SubmitGuard.
type MockSubmitGuard struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireFunc func(ctx context.Context, docType domain.DocumentType, id string, ttl time.Duration) (bool, error)
	ReleaseFunc func(ctx context.Context, docType domain.DocumentType, id string) error
}

func NewMockSubmitGuard() *MockSubmitGuard {
	return &MockSubmitGuard{locks: make(map[string]bool)}
}

func (m *MockSubmitGuard) Acquire(ctx context.Context, docType domain.DocumentType, id string, ttl time.Duration) (bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, docType, id, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := docKey(docType, id)
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockSubmitGuard) Release(ctx context.Context, docType domain.DocumentType, id string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, docType, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, docKey(docType, id))
	return nil
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string][]byte)}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator producing
// sequential ids.
type MockIDGenerator struct {
	counter atomic.Int64

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	return fmt.Sprintf("id-%04d", m.counter.Add(1))
}

// MockTransaction is a no-op transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockRetrier runs the operation once with no retries.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}
