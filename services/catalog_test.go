package services

import "testing"

func TestNewCatalog(t *testing.T) {
	c := NewCatalog([]CatalogEntry{
		{ID: "b", Name: "Zeta"},
		{ID: " a ", Name: "Alfa"},
		{ID: "b", Name: "Duplicado"},
		{ID: "", Name: "Sin id"},
	})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	entries := c.Entries()
	if entries[0].Name != "Alfa" || entries[1].Name != "Zeta" {
		t.Errorf("entries not sorted by name: %+v", entries)
	}
	if e, ok := c.Lookup("b"); !ok || e.Name != "Zeta" {
		t.Errorf("Lookup(b) = %+v, %v; first occurrence should win", e, ok)
	}
	if _, ok := c.Lookup("a"); !ok {
		t.Error("Lookup(a) should trim ids")
	}
}

func TestCatalog_NilSafe(t *testing.T) {
	var c *Catalog
	if _, ok := c.Lookup("x"); ok {
		t.Error("nil catalog lookup should miss")
	}
	if c.Len() != 0 || c.Entries() != nil {
		t.Error("nil catalog should be empty")
	}
}

func TestLoadCatalogJSON(t *testing.T) {
	c, err := LoadCatalogJSON([]byte(`[{"pk":"s1","nombre":"Humedad","precio_base":12.5,"unidad_base":"Ensayo","norma_codigo":"ASTM D2216","metodo_codigo":""}]`))
	if err != nil {
		t.Fatalf("LoadCatalogJSON() error = %v", err)
	}
	e, ok := c.Lookup("s1")
	if !ok || e.UnitPrice != 12.5 || e.ReferenceLabel() != "ASTM D2216" {
		t.Errorf("unexpected entry %+v", e)
	}

	if _, err := LoadCatalogJSON([]byte(`{`)); err == nil {
		t.Error("expected error for malformed JSON")
	}

	out, err := c.JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	again, err := LoadCatalogJSON([]byte(out))
	if err != nil || again.Len() != 1 {
		t.Errorf("catalog JSON round trip failed: %v", err)
	}
}
