package offer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"shopgate/internal/model"
)

// Encode serialises an offer into an opaque, URL-safe token. The encoding is
// deterministic: the same offer value always yields the same token bytes.
// Tokens use the unpadded URL-safe base64 alphabet so they never need URL
// escaping.
func Encode(offer *model.ProductOffer) ([]byte, error) {
	if offer == nil {
		return nil, fmt.Errorf("offer is nil")
	}
	if err := validateOffer(offer); err != nil {
		return nil, fmt.Errorf("offer is not encodable: %w", err)
	}

	payload, err := json.Marshal(offer)
	if err != nil {
		return nil, fmt.Errorf("failed to serialise offer: %w", err)
	}

	token := make([]byte, base64.RawURLEncoding.EncodedLen(len(payload)))
	base64.RawURLEncoding.Encode(token, payload)

	return token, nil
}

// Decode is the inverse of Encode. It returns model.ErrMalformedToken when
// the bytes are not valid unpadded URL-safe base64, do not decode to a
// structurally valid offer, or are missing a required field. Invalid data is
// never silently coerced.
func Decode(token []byte) (*model.ProductOffer, error) {
	payload := make([]byte, base64.RawURLEncoding.DecodedLen(len(token)))
	n, err := base64.RawURLEncoding.Decode(payload, token)
	if err != nil {
		return nil, model.ErrMalformedToken
	}

	dec := json.NewDecoder(bytes.NewReader(payload[:n]))
	dec.DisallowUnknownFields()

	var offer model.ProductOffer
	if err := dec.Decode(&offer); err != nil {
		return nil, model.ErrMalformedToken
	}
	// A second document after the offer means the token is not a single
	// canonical serialisation.
	if dec.More() {
		return nil, model.ErrMalformedToken
	}

	if err := validateOffer(&offer); err != nil {
		return nil, model.ErrMalformedToken
	}

	return &offer, nil
}

// validateOffer checks the required fields of an offer. The ASIN may be
// absent: purchase validation then falls back to the configured default
// catalog entry.
func validateOffer(offer *model.ProductOffer) error {
	if offer.Title == "" {
		return fmt.Errorf("title is required")
	}
	if offer.Price.Currency == "" {
		return fmt.Errorf("price currency is required")
	}
	if offer.Price.Amount <= 0 {
		return fmt.Errorf("price amount must be positive")
	}
	return nil
}
