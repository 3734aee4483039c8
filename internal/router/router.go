package router

import (
	"net/http"

	"shopgate/internal/handler"
	"shopgate/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	searchHandler *handler.SearchHandler,
	catalogHandler *handler.CatalogHandler,
	purchaseHandler *handler.PurchaseHandler,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.HandleFunc("/api/search", searchHandler.Search)
	mux.HandleFunc("/api/catalog", catalogHandler.List)
	mux.HandleFunc("/api/purchase", purchaseHandler.Create)

	// Apply middleware in order: Recovery -> Logging -> CORS -> CorrelationID
	var h http.Handler = mux
	h = middleware.CorrelationID(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
