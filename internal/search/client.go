package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"shopgate/internal/model"

	"github.com/rs/zerolog"
)

// Client is the upstream product-search collaborator. Failures are transport
// errors, never validated business rejections.
type Client interface {
	// Search returns raw product offers for a query. The result may be
	// empty.
	Search(ctx context.Context, query string, limit int) ([]model.ProductOffer, error)
}

// searchResponse is the upstream response envelope.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ASIN    string      `json:"asin"`
	Title   string      `json:"title"`
	URL     string      `json:"url"`
	Image   string      `json:"image"`
	Price   model.Price `json:"price"`
	OfferID string      `json:"offerId"`
}

// httpClient implements Client over the upstream search HTTP API.
type httpClient struct {
	baseURL string
	apiKey  string
	source  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPClient creates a search client for the given upstream.
func NewHTTPClient(baseURL, apiKey, source string, timeout time.Duration, logger zerolog.Logger) Client {
	return &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		source:  source,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "search-client").Logger(),
	}
}

// Search queries the upstream and stamps each offer with its source metadata
// and fetch timestamp.
func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]model.ProductOffer, error) {
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("query", query).Msg("search request failed")
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error().Int("status", resp.StatusCode).Str("query", query).Msg("search upstream returned non-200")
		return nil, fmt.Errorf("search upstream returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	fetchedAt := time.Now().UTC()
	offers := make([]model.ProductOffer, 0, len(body.Results))
	for _, r := range body.Results {
		offers = append(offers, model.ProductOffer{
			ASIN:    r.ASIN,
			Title:   r.Title,
			URL:     r.URL,
			Image:   r.Image,
			Price:   r.Price,
			OfferID: r.OfferID,
			Meta: model.OfferMeta{
				Source:    c.source,
				FetchedAt: fetchedAt,
			},
		})
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(offers)).
		Msg("search completed")

	return offers, nil
}
