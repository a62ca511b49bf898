package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrAuthFailed         = NewDomainError("AUTH_FAILED", "Remote credential acquisition failed")
	ErrInvalidSignature   = NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
	ErrRemoteCallFailed   = NewDomainError("REMOTE_CALL_FAILED", "Remote system call failed")
	ErrPersistenceFailed  = NewDomainError("PERSISTENCE_FAILED", "Durable state could not be written")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)
