package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erp/bridge/internal/domain/shared"
	syncdomain "github.com/erp/bridge/internal/domain/sync"
	"github.com/erp/bridge/internal/infrastructure/persistence/models"
)

// GormMappingStore implements the order mapping store using GORM. The full
// table is loaded into memory at Init; reads never touch the database, and
// every create is flushed before it becomes visible in memory.
type GormMappingStore struct {
	db     *gorm.DB
	logger *zap.Logger

	mu       sync.RWMutex
	loaded   bool
	mappings map[string]*syncdomain.OrderMapping

	// per-order critical sections for CreateIfAbsent
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Compile-time interface check
var _ syncdomain.MappingStore = (*GormMappingStore)(nil)

// NewGormMappingStore creates a new GormMappingStore
func NewGormMappingStore(db *gorm.DB, logger *zap.Logger) *GormMappingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormMappingStore{
		db:       db,
		logger:   logger.Named("mapping-store"),
		mappings: make(map[string]*syncdomain.OrderMapping),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Init loads the persisted mapping table into memory. It must run once
// before the store serves requests; calling it again reloads the table.
func (s *GormMappingStore) Init(ctx context.Context) error {
	var rows []models.OrderMappingModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return fmt.Errorf("%w: loading order mappings: %v", shared.ErrPersistenceFailed, err)
	}

	mappings := make(map[string]*syncdomain.OrderMapping, len(rows))
	for i := range rows {
		mappings[rows[i].OrderID] = rows[i].ToDomain()
	}

	s.mu.Lock()
	s.mappings = mappings
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("order mapping table loaded", zap.Int("count", len(mappings)))
	return nil
}

// Get looks up the mapping for an order identifier
func (s *GormMappingStore) Get(orderID string) (*syncdomain.OrderMapping, bool) {
	s.mu.RLock()
	mapping, ok := s.mappings[orderID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	copied := *mapping
	return &copied, true
}

// CreateIfAbsent returns the existing mapping, or runs build inside the
// order's critical section and persists the result. Exactly one concurrent
// caller per order runs build; losers observe the winner's mapping.
func (s *GormMappingStore) CreateIfAbsent(ctx context.Context, orderID string, build syncdomain.MappingBuilder) (*syncdomain.OrderMapping, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		return nil, syncdomain.ErrMappingStoreNotLoaded
	}

	if mapping, ok := s.Get(orderID); ok {
		return mapping, nil
	}

	lock := s.lockFor(orderID)
	lock.Lock()
	defer lock.Unlock()

	// Losers of the lock race find the winner's mapping here
	if mapping, ok := s.Get(orderID); ok {
		return mapping, nil
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

	var model models.OrderMappingModel
	model.FromDomain(mapping)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		// The remote document exists but its record does not; the next
		// delivery of this order would create a duplicate. Operators must
		// reconcile by hand, so this is the loudest log line in the bridge.
		s.logger.Error("MAPPING FLUSH FAILED AFTER REMOTE CREATE, manual reconciliation required",
			zap.String("order_id", orderID),
			zap.Stringp("document_id", mapping.DocumentID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: storing mapping for order %s: %v", shared.ErrPersistenceFailed, orderID, err)
	}

	s.mu.Lock()
	s.mappings[orderID] = mapping
	s.mu.Unlock()

	copied := *mapping
	return &copied, nil
}

// Count returns the number of stored mappings
func (s *GormMappingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}

// lockFor returns the mutex guarding one order's critical section. Locks
// are never discarded; the set grows with distinct in-flight orders only.
func (s *GormMappingStore) lockFor(orderID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[orderID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[orderID] = lock
	}
	return lock
}
