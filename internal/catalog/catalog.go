// Package catalog maps the ticket ids on sale to the metadata URI each one
// is minted with. A ticket that is for sale has not been minted yet, so the
// ledger has no tokenURI for it; the catalog is where it comes from.
//
// The file is YAML:
//
//	tickets:
//	  0: bafkreifkrvwbi3hlxcii7uwsaunx73mdcy34jjx7nitrhfgag2vudg5ujm
//	  1: ipfs://bafkreifpncyhhgrna7iletoaquzn2dgnesz5xvim6ygqizldimw2bud6pm
//
// A bare CID is read as ipfs://<cid>; any value with a scheme is kept as is.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTicket is returned for an id the catalog does not list.
var ErrUnknownTicket = errors.New("ticket is not in the catalog")

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is an immutable id -> token URI table.
type Catalog struct {
	uris map[uint64]string
}

type file struct {
	Tickets map[uint64]string `yaml:"tickets"`
}

// New builds a catalog from id -> CID or URI entries.
func New(entries map[uint64]string) (*Catalog, error) {
	uris := make(map[uint64]string, len(entries))
	for id, value := range entries {
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("catalog: ticket %d has no uri", id)
		}
		if !strings.Contains(value, "://") {
			value = "ipfs://" + value
		}
		uris[id] = value
	}
	return &Catalog{uris: uris}, nil
}

// Parse reads the YAML form.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog.Parse: %w", err)
	}
	return New(f.Tickets)
}

// Load reads the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: %w", err)
	}
	return Parse(data)
}

// Default is the catalog of the BlockFest ticket drop.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// TokenURI returns the URI ticket id is minted with.
func (c *Catalog) TokenURI(id uint64) (string, error) {
	uri, ok := c.uris[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownTicket, id)
	}
	return uri, nil
}

// IDs lists the catalog ids in ascending order.
func (c *Catalog) IDs() []uint64 {
	ids := make([]uint64, 0, len(c.uris))
	for id := range c.uris {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
