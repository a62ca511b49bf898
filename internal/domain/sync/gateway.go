package sync

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Errors
// ---------------------------------------------------------------------------

var (
	// Remote system errors
	ErrAuthFailed         = errors.New("sync: remote authentication failed")
	ErrRemoteUnavailable  = errors.New("sync: remote system temporarily unavailable")
	ErrRemoteCallFailed   = errors.New("sync: remote call failed")
	ErrInvalidResponse    = errors.New("sync: invalid remote response")
	ErrDocumentRefMissing = errors.New("sync: document creation returned no reference")

	// Commerce lookup errors
	ErrVariantNotFound = errors.New("sync: no variant matches the SKU")
)

// ---------------------------------------------------------------------------
// Credential
// ---------------------------------------------------------------------------

// Credential is a bearer token for the ERP API together with its computed
// expiry. The credential cache is its sole owner; no other component caches it.
type Credential struct {
	// Token is the opaque bearer string
	Token string
	// ExpiresAt is the instant the token stops being usable, safety margin
	// already applied
	ExpiresAt time.Time
}

// Valid reports whether the credential can still be used at the given instant.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt)
}

// CredentialSource provides a valid ERP credential, refreshing it when
// needed. Concurrent callers during a refresh share the single in-flight
// attempt and its result.
type CredentialSource interface {
	Acquire(ctx context.Context) (Credential, error)
}

// ---------------------------------------------------------------------------
// Accounting Documents
// ---------------------------------------------------------------------------

// DocumentLine is one ledger line of an accounting document. Exactly one of
// Debit/Credit is non-zero on a well-formed line.
type DocumentLine struct {
	// Account is the ledger account code
	Account string
	// Detail is the free-text line description
	Detail string
	// Reference is an optional external reference (order number)
	Reference string
	// Debit amount, zero on credit lines
	Debit decimal.Decimal
	// Credit amount, zero on debit lines
	Credit decimal.Decimal
	// Party identifies the counterparty on receivable lines (customer e-mail)
	Party string
}

// AccountingDocument is the ERP document submitted for a paid order.
type AccountingDocument struct {
	// CompanyCode is the accounting entity to file under
	CompanyCode int
	// VoucherType selects the document template/series
	VoucherType string
	// Date is the document date (the platform order date)
	Date time.Time
	// Notes carries the platform order number for reconciliation
	Notes string
	// Lines are the ledger lines; they must balance
	Lines []DocumentLine
}

// DocumentRef is the ERP's handle for a created document.
type DocumentRef struct {
	DocumentID string
}

// VoidRequest marks a previously created document as cancelled without
// deleting it.
type VoidRequest struct {
	CompanyCode int
	VoucherType string
	DocumentID  string
	Notes       string
}

// ---------------------------------------------------------------------------
// Catalog Items
// ---------------------------------------------------------------------------

// CatalogItem is a product variant translated into the ERP item model.
type CatalogItem struct {
	// Code is the SKU, the shared key between the two systems
	Code string
	// Description is the display name
	Description string
	// Price is the selling price
	Price decimal.Decimal
	// Active is false for removed products
	Active bool
	// Ecommerce flags the item as managed by the bridge
	Ecommerce bool
}

// ChangedItem is an ERP item reported by the polling sync.
type ChangedItem struct {
	// Code is the SKU
	Code string
	// Price is the current ERP selling price
	Price decimal.Decimal
	// Stock is the absolute available quantity
	Stock decimal.Decimal
	// UpdatedAt is when the item last changed in the ERP
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// AccountingGateway is the port to the ERP / accounting system. Every call
// is a bounded remote operation; implementations carry their own timeout.
type AccountingGateway interface {
	// CreateDocuments submits accounting documents and returns the created
	// references in submission order
	CreateDocuments(ctx context.Context, token string, docs []AccountingDocument) ([]DocumentRef, error)

	// VoidDocuments marks documents as cancelled, preserving the audit trail
	VoidDocuments(ctx context.Context, token string, reqs []VoidRequest) error

	// UpsertItems creates or updates catalog items keyed by Code
	UpsertItems(ctx context.Context, token string, items []CatalogItem) error

	// ListChangedItems returns items changed in the ERP since the given instant
	ListChangedItems(ctx context.Context, token string, since time.Time) ([]ChangedItem, error)
}

// CommerceVariant is the commerce platform's variant record as needed by the
// polling sync.
type CommerceVariant struct {
	// ID is the platform variant identifier
	ID string
	// InventoryItemID is the platform stock record identifier
	InventoryItemID string
	// Price is the current platform price
	Price decimal.Decimal
}

// CommerceGateway is the port to the commerce platform's admin API.
type CommerceGateway interface {
	// FindVariantBySKU looks up a variant by SKU; ErrVariantNotFound when absent
	FindVariantBySKU(ctx context.Context, sku string) (*CommerceVariant, error)

	// UpdateVariantPrice sets the variant's selling price
	UpdateVariantPrice(ctx context.Context, variantID string, price decimal.Decimal) error

	// SetInventoryLevel sets the absolute available quantity for a stock record
	SetInventoryLevel(ctx context.Context, inventoryItemID string, quantity decimal.Decimal) error
}
