package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"shopgate/internal/middleware"
	"shopgate/internal/model"
	"shopgate/internal/offer"
	"shopgate/internal/service"

	x402types "github.com/x402-foundation/x402/go/pkg/types"
	"github.com/rs/zerolog"
)

// x402Version is the payment-challenge protocol version served by the
// purchase route.
const x402Version = 1

// PaymentConfig is the x402 routing configuration for the purchase route:
// who gets paid, in what asset, on which network. All three are required at
// startup.
type PaymentConfig struct {
	PayTo   string
	Asset   string
	Network string
}

// PurchaseHandler handles offer redemption requests. Requests without a
// decodable X-PAYMENT header receive a 402 challenge carrying the x402
// payment requirements for the submitted quote.
type PurchaseHandler struct {
	purchases service.PurchaseService
	payment   PaymentConfig
	logger    zerolog.Logger
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchases service.PurchaseService, payment PaymentConfig, logger zerolog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchases: purchases,
		payment:   payment,
		logger:    logger.With().Str("handler", "purchase").Logger(),
	}
}

// Create handles POST /api/purchase requests.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	var req model.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.Token == "" || req.Signature == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "token and signature are required", h.logger)
		return
	}

	req.CorrelationID = middleware.CorrelationIDFromContext(r.Context())

	header := r.Header.Get("X-PAYMENT")
	if header == "" {
		h.writePaymentRequired(w, r, &req, "X-PAYMENT header is required")
		return
	}

	payload, err := x402types.DecodePaymentPayloadFromBase64(header)
	if err != nil {
		h.writePaymentRequired(w, r, &req, "X-PAYMENT header is not a valid payment payload")
		return
	}
	req.Payment = payload

	result := h.purchases.Purchase(r.Context(), &req)

	writeJSON(w, statusFor(result), result)
}

// writePaymentRequired emits the x402 challenge envelope. The advertised
// amount is quoted from the submitted token; the token is only trusted after
// signature verification, which happens when the client retries with
// payment attached.
func (h *PurchaseHandler) writePaymentRequired(w http.ResponseWriter, r *http.Request, req *model.PurchaseRequest, message string) {
	requirements := &x402types.PaymentRequirements{
		Scheme:            "exact",
		Network:           h.payment.Network,
		MaxAmountRequired: h.quoteAmount(req),
		Resource:          "/api/purchase",
		Description:       "Signed product offer redemption",
		MimeType:          "application/json",
		PayTo:             h.payment.PayTo,
		MaxTimeoutSeconds: 60,
		Asset:             h.payment.Asset,
	}

	h.logger.Debug().
		Str("correlation_id", req.CorrelationID).
		Str("amount", requirements.MaxAmountRequired).
		Msg("payment required")

	writeJSON(w, http.StatusPaymentRequired, map[string]any{
		"x402Version": x402Version,
		"error":       message,
		"accepts":     []*x402types.PaymentRequirements{requirements},
	})
}

// quoteAmount derives the challenge amount, in base units of the configured
// asset, from the submitted quantity and offer quote. An undecodable token
// quotes zero; the real price check happens in the purchase pipeline.
func (h *PurchaseHandler) quoteAmount(req *model.PurchaseRequest) string {
	product, err := offer.Decode([]byte(req.Token))
	if err != nil {
		return "0"
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	baseUnits := int64(math.Round(product.Price.Amount * float64(quantity) * 1e6))
	return strconv.FormatInt(baseUnits, 10)
}

// statusFor maps a purchase result onto an HTTP status. The mapping is a
// pure function of the result, so replayed results reproduce the original
// response exactly.
func statusFor(result *model.PurchaseResult) int {
	if result.Confirmed != nil {
		return http.StatusOK
	}

	switch result.Rejected.Stage {
	case model.StageAuth:
		return http.StatusUnauthorized
	case model.StageCrossmintCreate, model.StageCrossmintValidation:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
