package catalog

import (
	"context"
	"errors"
	"testing"

	"shopgate/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLoader returns canned results for fallback ordering tests.
type stubLoader struct {
	defaultASIN string
	entries     []model.CatalogEntry
	err         error
	calls       int
}

func (l *stubLoader) Load(ctx context.Context) (string, []model.CatalogEntry, error) {
	l.calls++
	return l.defaultASIN, l.entries, l.err
}

func TestFallbackLoader_PrefersRemote(t *testing.T) {
	remote := &stubLoader{
		defaultASIN: "B08C7KG5LP",
		entries:     []model.CatalogEntry{{ASIN: "B08C7KG5LP", Name: "Sony WH-1000XM4", Price: 169.99}},
	}
	local := &stubLoader{defaultASIN: "B09B8V1LZ3"}

	loader := NewFallbackLoader(remote, local, zerolog.Nop())
	defaultASIN, entries, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "B08C7KG5LP", defaultASIN)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, local.calls, "local loader must not be touched when remote succeeds")
}

func TestFallbackLoader_FallsBackOnRemoteFailure(t *testing.T) {
	remote := &stubLoader{err: errors.New("access denied")}
	local := &stubLoader{
		defaultASIN: "B09B8V1LZ3",
		entries:     []model.CatalogEntry{{ASIN: "B09B8V1LZ3", Name: "Echo Dot", Price: 49.99}},
	}

	loader := NewFallbackLoader(remote, local, zerolog.Nop())
	defaultASIN, entries, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "B09B8V1LZ3", defaultASIN)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, remote.calls)
}

func TestFallbackLoader_BothFail(t *testing.T) {
	remote := &stubLoader{err: errors.New("access denied")}
	local := &stubLoader{err: errors.New("no such file")}

	loader := NewFallbackLoader(remote, local, zerolog.Nop())
	_, _, err := loader.Load(context.Background())

	assert.ErrorContains(t, err, "no such file")
}

func TestParseCatalog(t *testing.T) {
	defaultASIN, entries, err := parseCatalog([]byte(`{
		"defaultAsin": "B09B8V1LZ3",
		"products": [
			{"asin": "B08C7KG5LP", "name": "Sony WH-1000XM4", "price": 169.99},
			{"asin": "B09B8V1LZ3", "name": "Echo Dot", "price": 49.99}
		]
	}`), "s3://catalogs/catalog.json")

	require.NoError(t, err)
	assert.Equal(t, "B09B8V1LZ3", defaultASIN)
	assert.Len(t, entries, 2)
}
