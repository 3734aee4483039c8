package catalog

import (
	"fmt"

	"shopgate/internal/model"

	"github.com/rs/zerolog"
)

// maxSuggestions bounds the diagnostics returned for an unknown ASIN.
const maxSuggestions = 3

// validator implements Validator over an immutable catalog snapshot.
type validator struct {
	entries     []model.CatalogEntry
	byASIN      map[string]int
	defaultASIN string
	logger      zerolog.Logger
	// No mutex needed - the snapshot is read-only after construction
}

// NewValidator creates a validator for the given catalog snapshot. The
// default ASIN must be present among the entries.
func NewValidator(defaultASIN string, entries []model.CatalogEntry, logger zerolog.Logger) (Validator, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	byASIN := make(map[string]int, len(entries))
	for i, entry := range entries {
		byASIN[entry.ASIN] = i
	}

	if _, ok := byASIN[defaultASIN]; !ok {
		return nil, fmt.Errorf("default asin %s not in catalog", defaultASIN)
	}

	logger = logger.With().Str("component", "catalog-validator").Logger()
	logger.Info().
		Int("entries", len(entries)).
		Str("default_asin", defaultASIN).
		Msg("catalog validator initialised")

	return &validator{
		entries:     entries,
		byASIN:      byASIN,
		defaultASIN: defaultASIN,
		logger:      logger,
	}, nil
}

// Validate checks an ASIN against the catalog snapshot. An empty ASIN falls
// back to the configured default entry. An unknown ASIN fails with up to
// three suggested alternatives in catalog order.
func (v *validator) Validate(asin string) Outcome {
	if asin == "" {
		entry := v.entries[v.byASIN[v.defaultASIN]]
		v.logger.Debug().Str("asin", entry.ASIN).Msg("no asin supplied, using default")
		return Outcome{Status: StatusUsedDefault, Entry: &entry}
	}

	if i, ok := v.byASIN[asin]; ok {
		entry := v.entries[i]
		return Outcome{Status: StatusFoundInCatalog, Entry: &entry}
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, entry := range v.entries {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, entry.ASIN)
	}

	v.logger.Debug().
		Str("asin", asin).
		Strs("suggestions", suggestions).
		Msg("asin not in catalog")

	return Outcome{Status: StatusNotInCatalog, Suggestions: suggestions}
}

// Entries returns the catalog snapshot in catalog order.
func (v *validator) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(v.entries))
	copy(out, v.entries)
	return out
}
