package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"shopgate/internal/catalog"
	"shopgate/internal/fulfillment"
	"shopgate/internal/ledger"
	"shopgate/internal/model"
	"shopgate/internal/offer"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commitTimeout bounds the commit phase once it no longer follows the
// request context. It covers the downstream order call plus the ledger
// write.
const commitTimeout = 2 * time.Minute

// purchaseService implements PurchaseService. It ties the signer, catalog
// validator, idempotency ledger and fulfillment collaborator into the
// purchase pipeline: dedup, authenticate, decode, validate, price-check,
// submit.
type purchaseService struct {
	signer    *offer.Signer
	catalog   catalog.Validator
	ledger    ledger.Ledger
	orders    fulfillment.Client
	recipient string
	logger    zerolog.Logger
}

// NewPurchaseService creates a purchase service. recipient is the
// fulfillment delivery recipient from startup configuration.
func NewPurchaseService(
	signer *offer.Signer,
	validator catalog.Validator,
	ledger ledger.Ledger,
	orders fulfillment.Client,
	recipient string,
	logger zerolog.Logger,
) PurchaseService {
	return &purchaseService{
		signer:    signer,
		catalog:   validator,
		ledger:    ledger,
		orders:    orders,
		recipient: recipient,
		logger:    logger.With().Str("service", "purchase").Logger(),
	}
}

// Purchase runs the purchase pipeline under the ledger's per-key lock, so
// concurrent submissions sharing an idempotency key reach the downstream
// collaborator at most once. Every terminal result, confirmation or
// rejection, is stored under the key and replayed verbatim for repeats
// within the retention window.
func (s *purchaseService) Purchase(ctx context.Context, req *model.PurchaseRequest) *model.PurchaseResult {
	key := req.IdempotencyKey

	unlock, err := s.ledger.Lock(ctx, key)
	if err != nil {
		// Degrade to unlocked processing: the upsert below still keeps the
		// ledger itself consistent.
		s.logger.Warn().Err(err).Msg("per-key lock unavailable, proceeding unlocked")
		unlock = func() {}
	}
	defer unlock()

	if cached, err := s.ledger.Check(ctx, key); err != nil {
		s.logger.Error().Err(err).Msg("ledger check failed")
	} else if cached != nil {
		s.logger.Info().
			Str("correlation_id", req.CorrelationID).
			Msg("replaying stored purchase result")
		return cached
	}

	// Once the downstream order call may have been sent, a client
	// disconnect must not abort the pipeline: the outcome still has to be
	// stored so a retry under the same key replays it instead of
	// re-submitting the order.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	result := s.process(commitCtx, req)

	if err := s.ledger.Store(commitCtx, key, result); err != nil {
		s.logger.Error().Err(err).Msg("failed to store purchase result")
	}

	return result
}

// process executes the validation pipeline in order, short-circuiting on the
// first failure.
func (s *purchaseService) process(ctx context.Context, req *model.PurchaseRequest) *model.PurchaseResult {
	token := []byte(req.Token)

	if !s.signer.Verify(token, req.Signature) {
		return s.reject(req, model.StageAuth, model.ErrCodeInvalidSignature,
			"offer signature does not verify", nil)
	}

	product, err := offer.Decode(token)
	if err != nil {
		return s.reject(req, model.StageValidation, model.ErrCodeMalformedToken,
			"offer token is malformed", nil)
	}

	if req.Quantity <= 0 {
		return s.reject(req, model.StageValidation, model.ErrCodeInvalidQuantity,
			"quantity must be greater than zero", map[string]any{
				"quantity": req.Quantity,
			})
	}

	outcome := s.catalog.Validate(product.ASIN)
	if !outcome.OK() {
		return s.reject(req, model.StageCatalogValidate, model.ErrCodeASINNotInCatalog,
			fmt.Sprintf("asin %s is not purchasable", product.ASIN), map[string]any{
				"asin":        product.ASIN,
				"suggestions": outcome.Suggestions,
			})
	}

	if req.MaxPrice != nil && product.Price.Amount > *req.MaxPrice {
		return s.reject(req, model.StageSKUValidate, model.ErrCodePriceExceedsLimit,
			"offer price exceeds the requested ceiling", map[string]any{
				"offerPrice": product.Price.Amount,
				"maxPrice":   *req.MaxPrice,
			})
	}

	// Unit price comes from the signed offer snapshot; the catalog entry
	// contributes membership and the resolved identifier only.
	resolvedASIN := outcome.Entry.ASIN
	total := math.Round(product.Price.Amount*float64(req.Quantity)*100) / 100

	orderReq := &fulfillment.OrderRequest{
		ProductLocator: "amazon:" + resolvedASIN,
		Quantity:       req.Quantity,
		TotalPrice:     total,
		Currency:       product.Price.Currency,
		Recipient:      s.recipient,
		Payment:        req.Payment,
		Reference:      uuid.NewString(),
	}

	order, err := s.orders.CreateOrder(ctx, orderReq)
	if err != nil {
		var vErr *fulfillment.ValidationError
		if errors.As(err, &vErr) {
			return s.reject(req, model.StageCrossmintValidation, model.ErrCodeOrderRespInvalid,
				"fulfillment response has no order identifier", nil)
		}
		return s.reject(req, model.StageCrossmintCreate, model.ErrCodeOrderCreateFailed,
			"fulfillment order creation failed", map[string]any{
				"cause": err.Error(),
			})
	}

	s.logger.Info().
		Str("order_id", order.OrderID).
		Str("asin", resolvedASIN).
		Int("quantity", req.Quantity).
		Float64("total_price", total).
		Str("correlation_id", req.CorrelationID).
		Msg("purchase confirmed")

	return &model.PurchaseResult{
		Confirmed: &model.PurchaseConfirmation{
			OrderID:    order.OrderID,
			ASIN:       resolvedASIN,
			Quantity:   req.Quantity,
			UnitPrice:  product.Price.Amount,
			TotalPrice: total,
			Tracking:   order.Tracking,
		},
		CorrelationID: req.CorrelationID,
		Timestamp:     time.Now().UTC(),
	}
}

func (s *purchaseService) reject(req *model.PurchaseRequest, stage, code, message string, details map[string]any) *model.PurchaseResult {
	s.logger.Warn().
		Str("stage", stage).
		Str("code", code).
		Str("correlation_id", req.CorrelationID).
		Msg(message)

	return &model.PurchaseResult{
		Rejected: &model.PurchaseRejection{
			Stage:   stage,
			Code:    code,
			Message: message,
			Details: details,
		},
		CorrelationID: req.CorrelationID,
		Timestamp:     time.Now().UTC(),
	}
}
