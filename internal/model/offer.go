package model

import "time"

// Price is a decimal amount in a named currency.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// OfferMeta records where and when an offer snapshot was taken.
type OfferMeta struct {
	Source    string    `json:"source,omitempty"`
	FetchedAt time.Time `json:"fetchedAt,omitzero"`
}

// ProductOffer is a priced, sourced product snapshot taken at quote time.
// It is immutable once created and only ever travels inside an encoded,
// signed token; the server never persists it.
type ProductOffer struct {
	ASIN    string    `json:"asin"`
	Title   string    `json:"title"`
	URL     string    `json:"url,omitempty"`
	Image   string    `json:"image,omitempty"`
	Price   Price     `json:"price"`
	OfferID string    `json:"offerId,omitempty"`
	Meta    OfferMeta `json:"meta,omitzero"`
}

// QuotedOffer is a ProductOffer together with its encoded token and the
// integrity tag the client must submit back verbatim at purchase time.
type QuotedOffer struct {
	Product   ProductOffer `json:"product"`
	Token     string       `json:"token"`
	Signature string       `json:"signature"`
}

// CatalogEntry is a server-trusted purchasable product: the allow-list
// source of truth for "is this ASIN purchasable".
type CatalogEntry struct {
	ASIN  string  `json:"asin"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
