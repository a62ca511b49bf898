package sync

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
)

// MockCredentialSource is a mock implementation of CredentialSource
type MockCredentialSource struct {
	mock.Mock
}

func (m *MockCredentialSource) Acquire(ctx context.Context) (syncdomain.Credential, error) {
	args := m.Called(ctx)
	return args.Get(0).(syncdomain.Credential), args.Error(1)
}

// MockAccountingGateway is a mock implementation of AccountingGateway
type MockAccountingGateway struct {
	mock.Mock
}

func (m *MockAccountingGateway) CreateDocuments(ctx context.Context, token string, docs []syncdomain.AccountingDocument) ([]syncdomain.DocumentRef, error) {
	args := m.Called(ctx, token, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.DocumentRef), args.Error(1)
}

func (m *MockAccountingGateway) VoidDocuments(ctx context.Context, token string, reqs []syncdomain.VoidRequest) error {
	args := m.Called(ctx, token, reqs)
	return args.Error(0)
}

func (m *MockAccountingGateway) UpsertItems(ctx context.Context, token string, items []syncdomain.CatalogItem) error {
	args := m.Called(ctx, token, items)
	return args.Error(0)
}

func (m *MockAccountingGateway) ListChangedItems(ctx context.Context, token string, since time.Time) ([]syncdomain.ChangedItem, error) {
	args := m.Called(ctx, token, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.ChangedItem), args.Error(1)
}

// MockCommerceGateway is a mock implementation of CommerceGateway
type MockCommerceGateway struct {
	mock.Mock
}

func (m *MockCommerceGateway) FindVariantBySKU(ctx context.Context, sku string) (*syncdomain.CommerceVariant, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.CommerceVariant), args.Error(1)
}

func (m *MockCommerceGateway) UpdateVariantPrice(ctx context.Context, variantID string, price decimal.Decimal) error {
	args := m.Called(ctx, variantID, price)
	return args.Error(0)
}

func (m *MockCommerceGateway) SetInventoryLevel(ctx context.Context, inventoryItemID string, quantity decimal.Decimal) error {
	args := m.Called(ctx, inventoryItemID, quantity)
	return args.Error(0)
}

// MockCursorStore is a mock implementation of CursorStore
type MockCursorStore struct {
	mock.Mock
}

func (m *MockCursorStore) Get(ctx context.Context, name string) (time.Time, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockCursorStore) Set(ctx context.Context, name string, ts time.Time) error {
	args := m.Called(ctx, name, ts)
	return args.Error(0)
}

// memoryMappingStore is an in-memory mapping store with the real
// check-then-act semantics, so the idempotency paths behave as in production
type memoryMappingStore struct {
	mu       sync.Mutex
	mappings map[string]*syncdomain.OrderMapping
}

func newMemoryMappingStore() *memoryMappingStore {
	return &memoryMappingStore{mappings: make(map[string]*syncdomain.OrderMapping)}
}

func (s *memoryMappingStore) Get(orderID string) (*syncdomain.OrderMapping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapping, ok := s.mappings[orderID]
	if !ok {
		return nil, false
	}
	copied := *mapping
	return &copied, true
}

func (s *memoryMappingStore) CreateIfAbsent(ctx context.Context, orderID string, build syncdomain.MappingBuilder) (*syncdomain.OrderMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mapping, ok := s.mappings[orderID]; ok {
		copied := *mapping
		return &copied, nil
	}

	mapping, err := build(ctx)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		return nil, syncdomain.ErrNilMapping
	}
	mapping.OrderID = orderID
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = time.Now()
	}
	s.mappings[orderID] = mapping
	copied := *mapping
	return &copied, nil
}

func (s *memoryMappingStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mappings)
}
