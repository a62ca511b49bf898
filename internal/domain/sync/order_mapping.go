package sync

import (
	"context"
	"errors"
	"time"
)

// Mapping store errors
var (
	// ErrMappingStoreNotLoaded is returned when the store is used before Init
	ErrMappingStoreNotLoaded = errors.New("sync: mapping store not loaded")
	// ErrNilMapping is returned when a builder yields no mapping and no error
	ErrNilMapping = errors.New("sync: document builder returned nil mapping")
)

// OrderMapping records that an order has produced an accounting document.
// A record is created exactly once per order identifier, never mutated and
// never deleted; its presence is the sole idempotency signal for document
// creation.
type OrderMapping struct {
	// OrderID is the commerce platform's order identifier
	OrderID string
	// CompanyCode identifies the accounting entity the document was filed under
	CompanyCode int
	// VoucherType identifies the document template/series
	VoucherType string
	// DocumentID is the ERP's identifier for the created document.
	// Nil records a creation whose response carried no usable reference;
	// it is stored as explicit null so the partial failure stays visible.
	DocumentID *string
	// CreatedAt is when the mapping was committed
	CreatedAt time.Time
}

// HasDocument returns true when the mapping carries a usable document reference.
func (m *OrderMapping) HasDocument() bool {
	return m.DocumentID != nil && *m.DocumentID != ""
}

// MappingBuilder performs the remote document creation for an order and
// returns the mapping descriptor to persist. It runs at most once per order
// identifier, inside the store's critical section for that key.
type MappingBuilder func(ctx context.Context) (*OrderMapping, error)

// MappingStore is the durable order→document table. Implementations load the
// persisted table once at startup and flush every mutation before reporting
// it committed.
type MappingStore interface {
	// Get looks up the mapping for an order identifier. Pure read, no side
	// effect; the second result is false when no mapping exists.
	Get(orderID string) (*OrderMapping, bool)

	// CreateIfAbsent returns the existing mapping without invoking build,
	// or runs build, persists its result and returns it. The check-then-act
	// sequence is a critical section per order identifier: of N concurrent
	// calls for the same key exactly one runs build, the rest observe the
	// winner's stored mapping.
	CreateIfAbsent(ctx context.Context, orderID string, build MappingBuilder) (*OrderMapping, error)

	// Count returns the number of stored mappings (monitoring)
	Count() int
}
