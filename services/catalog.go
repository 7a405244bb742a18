package services

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// CatalogEntry is a sellable laboratory test with its default pricing and
// the codes of its reference standard (norma) and method (método).
type CatalogEntry struct {
	ID         string  `json:"pk"`
	Name       string  `json:"nombre"`
	UnitPrice  float64 `json:"precio_base"`
	Unit       string  `json:"unidad_base"`
	NormaCode  string  `json:"norma_codigo"`
	MetodoCode string  `json:"metodo_codigo"`
	NormaID    string  `json:"norma_pk"`
	MetodoID   string  `json:"metodo_pk"`
}

// ReferenceLabel joins the norma and método codes the way they are printed
// on a quotation line ("ASTM D2216 / A").
func (e CatalogEntry) ReferenceLabel() string {
	var parts []string
	if e.NormaCode != "" {
		parts = append(parts, e.NormaCode)
	}
	if e.MetodoCode != "" {
		parts = append(parts, e.MetodoCode)
	}
	return strings.Join(parts, " / ")
}

// Catalog is a read-only index of catalog entries by id. It is never mutated
// after construction, so render passes may read it freely.
type Catalog struct {
	byID    map[string]CatalogEntry
	ordered []CatalogEntry
}

// NewCatalog indexes entries by id. Entries without an id are skipped and the
// first occurrence of a duplicated id wins.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{byID: make(map[string]CatalogEntry, len(entries))}
	for _, entry := range entries {
		entry.ID = strings.TrimSpace(entry.ID)
		if entry.ID == "" {
			continue
		}
		if _, dup := c.byID[entry.ID]; dup {
			continue
		}
		c.byID[entry.ID] = entry
		c.ordered = append(c.ordered, entry)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		return c.ordered[i].Name < c.ordered[j].Name
	})
	return c
}

// LoadCatalogJSON builds a catalog from the JSON array embedded in the
// editor page.
func LoadCatalogJSON(data []byte) (*Catalog, error) {
	var entries []CatalogEntry
	if len(strings.TrimSpace(string(data))) == 0 {
		return NewCatalog(nil), nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(entries), nil
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	entry, ok := c.byID[strings.TrimSpace(id)]
	return entry, ok
}

// Entries returns all entries sorted by name.
func (c *Catalog) Entries() []CatalogEntry {
	if c == nil {
		return nil
	}
	out := make([]CatalogEntry, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ordered)
}

// JSON serializes the catalog for embedding in the editor page.
func (c *Catalog) JSON() (string, error) {
	entries := c.Entries()
	if entries == nil {
		entries = []CatalogEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}
	return string(data), nil
}
