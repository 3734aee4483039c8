package model

import "time"

// Stages identify which step of the purchase pipeline produced a rejection.
const (
	StageAuth                = "auth"
	StageValidation          = "validation"
	StageCatalogValidate     = "catalog.validate"
	StageSKUValidate         = "sku.validate"
	StageCrossmintCreate     = "crossmint.createOrder"
	StageCrossmintValidation = "crossmint.validation"
)

// PurchaseRequest is the client's redemption of a quoted offer.
type PurchaseRequest struct {
	Token          string   `json:"token"`
	Signature      string   `json:"signature"`
	Quantity       int      `json:"quantity"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
	MaxPrice       *float64 `json:"maxPrice,omitempty"`

	// Payment carries the decoded x402 payment payload attached by the
	// handler; it is forwarded downstream, never interpreted here.
	Payment any `json:"-"`

	// CorrelationID is assigned by the correlation middleware.
	CorrelationID string `json:"-"`
}

// PurchaseConfirmation reports a successfully placed downstream order.
type PurchaseConfirmation struct {
	OrderID    string  `json:"orderId"`
	ASIN       string  `json:"asin"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	Tracking   string  `json:"tracking,omitempty"`
}

// PurchaseRejection reports which validation step failed and why.
type PurchaseRejection struct {
	Stage   string         `json:"stage"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// PurchaseResult is the terminal outcome of a purchase attempt. Exactly one
// of Confirmed or Rejected is set. Results are stored in the idempotency
// ledger and replayed verbatim for repeat submissions of the same key.
type PurchaseResult struct {
	Confirmed     *PurchaseConfirmation `json:"confirmed,omitempty"`
	Rejected      *PurchaseRejection    `json:"rejected,omitempty"`
	CorrelationID string                `json:"correlationId,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}
