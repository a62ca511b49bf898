package sync

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Webhook Topics
// ---------------------------------------------------------------------------

// Topic identifies the kind of webhook event delivered by the commerce
// platform. The values mirror the platform's topic header verbatim.
type Topic string

const (
	// TopicOrderCreated is delivered when an order is first placed
	TopicOrderCreated Topic = "orders/create"
	// TopicOrderUpdated is delivered on any order change, including payment
	TopicOrderUpdated Topic = "orders/updated"
	// TopicOrderPaid is delivered when payment is captured
	TopicOrderPaid Topic = "orders/paid"
	// TopicOrderCancelled is delivered when an order is cancelled
	TopicOrderCancelled Topic = "orders/cancelled"
	// TopicProductUpdated is delivered when a product is created or edited
	TopicProductUpdated Topic = "products/update"
	// TopicProductDeleted is delivered when a product is removed
	TopicProductDeleted Topic = "products/delete"
)

// IsValid returns true if the topic is one the bridge understands
func (t Topic) IsValid() bool {
	switch t {
	case TopicOrderCreated, TopicOrderUpdated, TopicOrderPaid,
		TopicOrderCancelled, TopicProductUpdated, TopicProductDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of Topic
func (t Topic) String() string {
	return string(t)
}

// IsOrderTopic returns true for order lifecycle topics
func (t Topic) IsOrderTopic() bool {
	switch t {
	case TopicOrderCreated, TopicOrderUpdated, TopicOrderPaid, TopicOrderCancelled:
		return true
	default:
		return false
	}
}

// IsProductTopic returns true for product lifecycle topics
func (t Topic) IsProductTopic() bool {
	return t == TopicProductUpdated || t == TopicProductDeleted
}

// FinancialStatusPaid is the order financial_status value that triggers
// accounting document creation.
const FinancialStatusPaid = "paid"

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

// Payload parsing errors
var (
	ErrInvalidPayload = errors.New("sync: invalid webhook payload")
	ErrMissingOrderID = errors.New("sync: order payload has no id")
)

// Customer is the buyer section of an order payload.
type Customer struct {
	// Email is the buyer's e-mail address, used as the receivable party
	// reference on the accounting document
	Email string `json:"email"`
}

// Order is the order resource as delivered by the commerce platform.
// The platform serializes ids as JSON numbers and amounts as strings;
// json.Number and decimal.Decimal absorb both representations.
type Order struct {
	// ID is the platform-assigned order identifier, immutable
	ID json.Number `json:"id"`
	// Name is the human-readable order number (e.g. "#1001")
	Name string `json:"name"`
	// FinancialStatus is the payment state ("pending", "paid", ...)
	FinancialStatus string `json:"financial_status"`
	// TotalPrice is the amount the buyer paid
	TotalPrice decimal.Decimal `json:"total_price"`
	// Currency is the payment currency code
	Currency string `json:"currency"`
	// Customer is the buyer
	Customer Customer `json:"customer"`
	// CreatedAt is when the order was placed on the platform
	CreatedAt time.Time `json:"created_at"`
	// CancelReason is set on cancellation events
	CancelReason string `json:"cancel_reason"`
	// CancelledAt is set on cancellation events
	CancelledAt *time.Time `json:"cancelled_at"`
}

// OrderID returns the order identifier as the string mapping key.
func (o *Order) OrderID() string {
	return o.ID.String()
}

// Validate checks the fields the bridge depends on.
func (o *Order) Validate() error {
	if o.ID.String() == "" {
		return ErrMissingOrderID
	}
	return nil
}

// IsPaid returns true if the order has reached the paid state.
func (o *Order) IsPaid() bool {
	return o.FinancialStatus == FinancialStatusPaid
}

// Variant is a purchasable variation of a product. SKU is a pointer because
// the platform serializes variants without a SKU as explicit null.
type Variant struct {
	// ID is the platform variant identifier
	ID json.Number `json:"id"`
	// SKU is the merchant-assigned stock keeping unit, nil when unset
	SKU *string `json:"sku"`
	// Title is the variant display name
	Title string `json:"title"`
	// Price is the variant selling price
	Price decimal.Decimal `json:"price"`
	// InventoryItemID links the variant to its stock record
	InventoryItemID json.Number `json:"inventory_item_id"`
}

// HasSKU returns true when the variant carries a non-empty SKU.
func (v *Variant) HasSKU() bool {
	return v.SKU != nil && *v.SKU != ""
}

// Product is the product resource as delivered by the commerce platform.
type Product struct {
	// ID is the platform product identifier
	ID json.Number `json:"id"`
	// Title is the product display name
	Title string `json:"title"`
	// Variants are the purchasable variations
	Variants []Variant `json:"variants"`
}
