package handler

import (
	"net/http"
	"strconv"

	"shopgate/internal/model"
	"shopgate/internal/service"

	"github.com/rs/zerolog"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// SearchHandler handles product search requests.
type SearchHandler struct {
	quotes service.QuoteService
	logger zerolog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(quotes service.QuoteService, logger zerolog.Logger) *SearchHandler {
	return &SearchHandler{
		quotes: quotes,
		logger: logger.With().Str("handler", "search").Logger(),
	}
}

// searchResponse is the search endpoint envelope.
type searchResponse struct {
	Query   string              `json:"query"`
	Results []model.QuotedOffer `json:"results"`
}

// Search handles GET /api/search requests.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "query parameter q is required", h.logger)
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidLimit, "limit must be a positive integer", h.logger)
			return
		}
		limit = min(parsed, maxSearchLimit)
	}

	quotes, err := h.quotes.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, r, http.StatusBadGateway, model.ErrCodeInternalError, "search upstream unavailable", h.logger)
		return
	}

	if quotes == nil {
		quotes = []model.QuotedOffer{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: quotes})
}
