package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// orderIDFields are the accepted order-identifier field names in a create
// response, probed in order.
var orderIDFields = []string{"orderId", "id", "order_id"}

// OrderRequest is the downstream order submission. ProductLocator is always
// built from the validated catalog ASIN, never from a raw client token.
type OrderRequest struct {
	ProductLocator string  `json:"productLocator"`
	Quantity       int     `json:"quantity"`
	TotalPrice     float64 `json:"totalPrice"`
	Currency       string  `json:"currency"`
	Recipient      string  `json:"recipient,omitempty"`
	Payment        any     `json:"payment,omitempty"`
	Reference      string  `json:"reference,omitempty"`
}

// OrderResponse is the parsed downstream order confirmation.
type OrderResponse struct {
	OrderID  string
	Tracking string
}

// ValidationError marks a downstream response that arrived over a healthy
// transport but lacks a recognisable order identifier.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// Client is the downstream order-fulfillment collaborator, invoked only
// after every validation has passed.
type Client interface {
	// CreateOrder submits an order. A *ValidationError means the response
	// had no order identifier under any accepted field name; any other
	// error is a transport failure.
	CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
}

// httpClient implements Client over the fulfillment HTTP API.
type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient creates a fulfillment client for the given endpoint.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "fulfillment-client").Logger(),
	}
}

// CreateOrder submits the order and extracts the order identifier from the
// response. Once the request has been sent it is not cancellable; callers
// must record the outcome rather than retry blindly.
func (c *httpClient) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("locator", req.ProductLocator).Msg("order request failed")
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("locator", req.ProductLocator).
			Msg("fulfillment returned non-2xx")
		return nil, fmt.Errorf("fulfillment returned status %d", resp.StatusCode)
	}

	order, err := parseOrderResponse(body)
	if err != nil {
		c.logger.Error().Err(err).Str("locator", req.ProductLocator).Msg("order response missing order identifier")
		return nil, err
	}

	c.logger.Info().
		Str("order_id", order.OrderID).
		Str("locator", req.ProductLocator).
		Msg("order created")

	return order, nil
}

// parseOrderResponse extracts the order identifier by probing the accepted
// field names in order. Absence of all of them is a validation failure, not
// a crash.
func parseOrderResponse(body []byte) (*OrderResponse, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ValidationError{msg: "order response is not a JSON object"}
	}

	var orderID string
	for _, field := range orderIDFields {
		if raw, ok := doc[field]; ok {
			if s, ok := raw.(string); ok && s != "" {
				orderID = s
				break
			}
		}
	}
	if orderID == "" {
		return nil, &ValidationError{msg: "order response has no order identifier"}
	}

	tracking, _ := doc["tracking"].(string)

	return &OrderResponse{OrderID: orderID, Tracking: tracking}, nil
}
