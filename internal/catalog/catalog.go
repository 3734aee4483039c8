package catalog

import (
	"context"

	"shopgate/internal/model"
)

// Status tags the outcome of validating an ASIN against the catalog.
type Status int

const (
	// StatusUsedDefault means no ASIN was supplied and the configured
	// default entry was used instead.
	StatusUsedDefault Status = iota
	// StatusFoundInCatalog means the supplied ASIN is purchasable.
	StatusFoundInCatalog
	// StatusNotInCatalog means the supplied ASIN is not on the allow-list.
	StatusNotInCatalog
)

// Outcome is the result of a catalog validation.
type Outcome struct {
	Status Status

	// Entry is the matching catalog entry; set unless Status is
	// StatusNotInCatalog.
	Entry *model.CatalogEntry

	// Suggestions holds up to three alternative ASINs, in catalog order,
	// returned as diagnostics when the ASIN is not in the catalog.
	Suggestions []string
}

// OK reports whether the validation succeeded.
func (o Outcome) OK() bool {
	return o.Status != StatusNotInCatalog
}

// Validator checks product identifiers against the server-held allow-list.
type Validator interface {
	// Validate checks an ASIN against the catalog. An empty ASIN succeeds
	// using the configured default entry.
	Validate(asin string) Outcome

	// Entries returns the catalog snapshot in catalog order.
	Entries() []model.CatalogEntry
}

// Loader defines the interface for loading the catalog at startup.
type Loader interface {
	// Load reads the catalog source and returns the default ASIN together
	// with the purchasable entries.
	Load(ctx context.Context) (defaultASIN string, entries []model.CatalogEntry, err error)
}
