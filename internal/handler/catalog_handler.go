package handler

import (
	"net/http"

	"shopgate/internal/catalog"
	"shopgate/internal/model"

	"github.com/rs/zerolog"
)

// CatalogHandler serves the purchasable allow-list.
type CatalogHandler struct {
	catalog catalog.Validator
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(validator catalog.Validator, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: validator,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// catalogResponse is the catalog endpoint envelope.
type catalogResponse struct {
	Products []model.CatalogEntry `json:"products"`
}

// List handles GET /api/catalog requests.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, model.ErrCodeMethodNotAllowed, "method not allowed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, catalogResponse{Products: h.catalog.Entries()})
}
