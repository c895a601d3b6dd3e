package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6}, c.IDs())
	uri, err := c.TokenURI(5)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://bafkreidf3ahogkojhoe57e6wlwb3prmetqeoqmfty2lymkchc2mwsuftsu", uri)
}

func TestUnknownTicket(t *testing.T) {
	_, err := Default().TokenURI(99)

	assert.ErrorIs(t, err, ErrUnknownTicket)
}

func TestParseKeepsSchemes(t *testing.T) {
	c, err := Parse([]byte("tickets:\n  7: https://meta.example/7.json\n  8: ' bafy8 '\n"))
	require.NoError(t, err)

	uri, err := c.TokenURI(7)
	require.NoError(t, err)
	assert.Equal(t, "https://meta.example/7.json", uri)

	uri, err = c.TokenURI(8)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://bafy8", uri)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte("tickets:\n  1: ''\n"))
	assert.ErrorContains(t, err, "ticket 1 has no uri")

	_, err = Parse([]byte("tickets: [oops"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickets:\n  3: bafy3\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, c.IDs())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
