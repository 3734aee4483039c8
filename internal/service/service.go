package service

import (
	"context"

	"shopgate/internal/model"
)

// QuoteService produces signed, redeemable offers from upstream search
// results.
type QuoteService interface {
	// Search queries the upstream collaborator and returns each offer with
	// its encoded token and integrity tag.
	Search(ctx context.Context, query string, limit int) ([]model.QuotedOffer, error)
}

// PurchaseService redeems signed offers against the downstream fulfillment
// collaborator.
type PurchaseService interface {
	// Purchase runs the purchase pipeline for a request. It always returns
	// a terminal result; per-request failures are reported as rejections,
	// never raised past this boundary.
	Purchase(ctx context.Context, req *model.PurchaseRequest) *model.PurchaseResult
}
