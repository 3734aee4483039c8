package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"shopgate/internal/model"

	"github.com/rs/zerolog"
)

// catalogFile is the on-disk catalog document.
type catalogFile struct {
	DefaultASIN string               `json:"defaultAsin"`
	Products    []model.CatalogEntry `json:"products"`
}

// fileLoader implements Loader for reading a JSON catalog file.
type fileLoader struct {
	path   string
	logger zerolog.Logger
}

// NewFileLoader creates a file-based catalog loader.
func NewFileLoader(path string, logger zerolog.Logger) Loader {
	return &fileLoader{
		path:   path,
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads and parses the catalog file. The file must name a default ASIN
// that is present among its products.
func (l *fileLoader) Load(ctx context.Context) (string, []model.CatalogEntry, error) {
	l.logger.Info().Str("file", l.path).Msg("loading catalog file")

	data, err := os.ReadFile(l.path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read catalog file %s: %w", l.path, err)
	}

	defaultASIN, entries, err := parseCatalog(data, l.path)
	if err != nil {
		return "", nil, err
	}

	l.logger.Info().
		Str("file", l.path).
		Int("products", len(entries)).
		Str("default_asin", defaultASIN).
		Msg("catalog file loaded")

	return defaultASIN, entries, nil
}

// parseCatalog parses a catalog document. The document must name a default
// ASIN that is present among its products; source identifies the document in
// error messages.
func parseCatalog(data []byte, source string) (string, []model.CatalogEntry, error) {
	var doc catalogFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("failed to parse catalog %s: %w", source, err)
	}

	if len(doc.Products) == 0 {
		return "", nil, fmt.Errorf("catalog %s contains no products", source)
	}

	for i, entry := range doc.Products {
		if entry.ASIN == "" {
			return "", nil, fmt.Errorf("catalog %s: product %d has no asin", source, i)
		}
	}

	if doc.DefaultASIN == "" {
		doc.DefaultASIN = doc.Products[0].ASIN
	}

	found := false
	for _, entry := range doc.Products {
		if entry.ASIN == doc.DefaultASIN {
			found = true
			break
		}
	}
	if !found {
		return "", nil, fmt.Errorf("catalog %s: default asin %s not among products", source, doc.DefaultASIN)
	}

	return doc.DefaultASIN, doc.Products, nil
}

// Builtin returns the built-in fallback catalog. It is used when the catalog
// file cannot be loaded so the process can still start; callers are expected
// to log the fallback rather than adopt it silently.
func Builtin() (string, []model.CatalogEntry) {
	entries := []model.CatalogEntry{
		{ASIN: "B08C7KG5LP", Name: "Sony WH-1000XM4 Wireless Headphones", Price: 169.99},
		{ASIN: "B09B8V1LZ3", Name: "Echo Dot (5th Gen) Smart Speaker", Price: 49.99},
		{ASIN: "B0BDHWDR12", Name: "Apple AirPods Pro (2nd Generation)", Price: 249.00},
	}
	return entries[0].ASIN, entries
}
