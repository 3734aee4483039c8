package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileLoader_Load(t *testing.T) {
	path := writeCatalogFile(t, `{
		"defaultAsin": "B09B8V1LZ3",
		"products": [
			{"asin": "B08C7KG5LP", "name": "Sony WH-1000XM4", "price": 169.99},
			{"asin": "B09B8V1LZ3", "name": "Echo Dot", "price": 49.99}
		]
	}`)

	loader := NewFileLoader(path, zerolog.Nop())
	defaultASIN, entries, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "B09B8V1LZ3", defaultASIN)
	require.Len(t, entries, 2)
	assert.Equal(t, "B08C7KG5LP", entries[0].ASIN)
	assert.Equal(t, 169.99, entries[0].Price)
}

func TestFileLoader_DefaultFallsBackToFirstProduct(t *testing.T) {
	path := writeCatalogFile(t, `{
		"products": [
			{"asin": "B08C7KG5LP", "name": "Sony WH-1000XM4", "price": 169.99}
		]
	}`)

	loader := NewFileLoader(path, zerolog.Nop())
	defaultASIN, _, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "B08C7KG5LP", defaultASIN)
}

func TestFileLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "not JSON",
			content: `not a catalog`,
		},
		{
			name:    "no products",
			content: `{"defaultAsin": "B08C7KG5LP", "products": []}`,
		},
		{
			name:    "product without asin",
			content: `{"products": [{"name": "Mystery item", "price": 1.00}]}`,
		},
		{
			name:    "default not among products",
			content: `{"defaultAsin": "ZZZ", "products": [{"asin": "B08C7KG5LP", "name": "Sony", "price": 169.99}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewFileLoader(writeCatalogFile(t, tt.content), zerolog.Nop())
			_, _, err := loader.Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestFileLoader_MissingFile(t *testing.T) {
	loader := NewFileLoader("/nonexistent/catalog.json", zerolog.Nop())
	_, _, err := loader.Load(context.Background())
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	defaultASIN, entries := Builtin()

	require.NotEmpty(t, entries)
	assert.NotEmpty(t, defaultASIN)

	// The built-in fallback must itself pass validator construction.
	v, err := NewValidator(defaultASIN, entries, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, v.Validate("").OK())
}
