package collections_test

import (
	"testing"

	"labquote/collections"
	"labquote/services"
	"labquote/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	counts := map[string]int{
		"normas":                 6,
		"metodos":                3,
		"categorias_servicio":    2,
		"subcategorias_servicio": 3,
		"servicios":              5,
		"clientes":               1,
		"cotizaciones":           1,
		"cotizacion_items":       4,
	}
	for name, want := range counts {
		col, _ := app.FindCollectionByNameOrId(name)
		records, err := app.FindAllRecords(col)
		if err != nil {
			t.Fatalf("query %s error: %v", name, err)
		}
		if len(records) != want {
			t.Errorf("%s: expected %d records, got %d", name, want, len(records))
		}
	}

	quotes, _ := app.FindRecordsByFilter("cotizaciones", "id != ''", "", 1, 0, nil)
	if len(quotes) != 1 {
		t.Fatal("seeded quotation not found")
	}
	q := quotes[0]
	// 3 x 10 + 2 x 45 = 120, IGV 21.60
	if q.GetFloat("subtotal") != 120 || q.GetFloat("impuesto_igv") != 21.6 || q.GetFloat("monto_total") != 141.6 {
		t.Errorf("seeded totals = %v / %v / %v, want 120 / 21.6 / 141.6",
			q.GetFloat("subtotal"), q.GetFloat("impuesto_igv"), q.GetFloat("monto_total"))
	}
	if q.GetFloat("tasa_igv") != services.DefaultTaxRate {
		t.Errorf("tasa_igv = %v, want %v", q.GetFloat("tasa_igv"), services.DefaultTaxRate)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	col, _ := app.FindCollectionByNameOrId("servicios")
	servicios, _ := app.FindAllRecords(col)
	if len(servicios) != 5 {
		t.Errorf("expected 5 servicios after idempotent seed, got %d", len(servicios))
	}

	quotesCol, _ := app.FindCollectionByNameOrId("cotizaciones")
	quotes, _ := app.FindAllRecords(quotesCol)
	if len(quotes) != 1 {
		t.Errorf("expected 1 cotizacion after idempotent seed, got %d", len(quotes))
	}
}
