package erp

import (
	"time"

	"github.com/shopspring/decimal"
)

// documentDateFormat is the date-only format the ERP expects on documents
const documentDateFormat = "2006-01-02"

// ---------------------------------------------------------------------------
// Error Envelope
// ---------------------------------------------------------------------------

// apiError is the structured error the ERP returns on failed calls
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorEnvelope wraps the error returned on non-2xx responses
type errorEnvelope struct {
	Error *apiError `json:"error"`
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

// authRequest is the credential exchange payload
type authRequest struct {
	Company int    `json:"company"`
	User    string `json:"user"`
	Secret  string `json:"secret"`
}

// authResponse carries the bearer token and an optional validity hint
// in seconds. ERP versions without session expiry omit the hint.
type authResponse struct {
	Token     string `json:"token"`
	ExpiresIn *int64 `json:"expires_in,omitempty"`
}

// AuthResult is the outcome of a successful credential exchange. ExpiresIn
// is nil when the ERP did not hint a validity window.
type AuthResult struct {
	Token     string
	ExpiresIn *time.Duration
}

// ---------------------------------------------------------------------------
// Accounting Documents
// ---------------------------------------------------------------------------

// documentLinePayload is one ledger line on the wire
type documentLinePayload struct {
	Account   string          `json:"account"`
	Detail    string          `json:"detail"`
	Reference string          `json:"reference,omitempty"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Party     string          `json:"party,omitempty"`
}

// documentPayload is one accounting document on the wire
type documentPayload struct {
	Company     int                   `json:"company"`
	VoucherType string                `json:"voucher_type"`
	Date        string                `json:"date"`
	Notes       string                `json:"notes,omitempty"`
	Lines       []documentLinePayload `json:"lines"`
}

// documentRefPayload is the ERP's handle for a created document. The ID is
// a pointer because some ERP versions return null for documents queued
// behind a posting batch.
type documentRefPayload struct {
	DocumentID *string `json:"document_id"`
}

// voidPayload marks a document as cancelled
type voidPayload struct {
	Company     int    `json:"company"`
	VoucherType string `json:"voucher_type"`
	DocumentID  string `json:"document_id"`
	State       string `json:"state"`
	Notes       string `json:"notes,omitempty"`
}

// voidStateCancelled is the document state the ERP uses for voided documents
const voidStateCancelled = "VOID"

// ---------------------------------------------------------------------------
// Catalog Items
// ---------------------------------------------------------------------------

// itemPayload is one catalog item on the wire
type itemPayload struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	Ecommerce   bool            `json:"ecommerce"`
}

// changedItemPayload is one changed item reported by the polling endpoint
type changedItemPayload struct {
	Code      string          `json:"code"`
	Price     decimal.Decimal `json:"price"`
	Stock     decimal.Decimal `json:"stock"`
	UpdatedAt time.Time       `json:"updated_at"`
}
