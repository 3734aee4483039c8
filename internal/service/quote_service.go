package service

import (
	"context"
	"fmt"

	"shopgate/internal/model"
	"shopgate/internal/offer"
	"shopgate/internal/search"

	"github.com/rs/zerolog"
)

// quoteService implements QuoteService.
type quoteService struct {
	search search.Client
	signer *offer.Signer
	logger zerolog.Logger
}

// NewQuoteService creates a quote service over the given search collaborator
// and signer.
func NewQuoteService(searchClient search.Client, signer *offer.Signer, logger zerolog.Logger) QuoteService {
	return &quoteService{
		search: searchClient,
		signer: signer,
		logger: logger.With().Str("service", "quote").Logger(),
	}
}

// Search queries the upstream collaborator and turns each raw offer into a
// (token, signature) pair the client can later redeem.
func (s *quoteService) Search(ctx context.Context, query string, limit int) ([]model.QuotedOffer, error) {
	products, err := s.search.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("upstream search failed")
		return nil, fmt.Errorf("upstream search failed: %w", err)
	}

	quotes := make([]model.QuotedOffer, 0, len(products))
	for _, product := range products {
		token, err := offer.Encode(&product)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("asin", product.ASIN).
				Msg("skipping offer that failed to encode")
			continue
		}

		quotes = append(quotes, model.QuotedOffer{
			Product:   product,
			Token:     string(token),
			Signature: s.signer.Sign(token),
		})
	}

	s.logger.Info().
		Str("query", query).
		Int("quotes", len(quotes)).
		Msg("offers quoted")

	return quotes, nil
}
