package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidLimit      = "INVALID_LIMIT"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeMalformedToken    = "MALFORMED_TOKEN"
	ErrCodeInvalidSignature  = "INVALID_SIGNATURE"
	ErrCodeASINNotInCatalog  = "ASIN_NOT_IN_CATALOG"
	ErrCodePriceExceedsLimit = "PRICE_EXCEEDS_LIMIT"
	ErrCodeInvalidQuantity   = "INVALID_QUANTITY"
	ErrCodeOrderCreateFailed = "ORDER_CREATE_FAILED"
	ErrCodeOrderRespInvalid  = "ORDER_RESPONSE_INVALID"
	ErrCodePaymentRequired   = "PAYMENT_REQUIRED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business failure with a machine-readable code.
type DomainError struct {
	Code    string
	Message string
}

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
	ErrMalformedToken   = NewDomainError(ErrCodeMalformedToken, "Offer token is malformed or structurally invalid")
	ErrInvalidSignature = NewDomainError(ErrCodeInvalidSignature, "Offer signature does not verify against the current secret")
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
)
