package collections_test

import (
	"testing"

	"labquote/collections"
	"labquote/testhelpers"
)

func TestMigrateLegacyTaxRates_NormalizesPercentages(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "20100070970", "Cliente Legacy")
	quote := testhelpers.CreateTestQuote(t, app, client.Id, "VFC-OTE-2024-0001")
	quote.Set("tasa_igv", 18)
	quote.Set("subtotal", 100)
	quote.Set("impuesto_igv", 1800)
	quote.Set("monto_total", 1900)
	if err := app.Save(quote); err != nil {
		t.Fatalf("save legacy quote: %v", err)
	}

	if err := collections.MigrateLegacyTaxRates(app); err != nil {
		t.Fatalf("MigrateLegacyTaxRates() error: %v", err)
	}

	got, err := app.FindRecordById("cotizaciones", quote.Id)
	if err != nil {
		t.Fatalf("reload quote: %v", err)
	}
	if got.GetFloat("tasa_igv") != 0.18 {
		t.Errorf("tasa_igv = %v, want 0.18", got.GetFloat("tasa_igv"))
	}
	if got.GetFloat("impuesto_igv") != 18 || got.GetFloat("monto_total") != 118 {
		t.Errorf("totals = %v / %v, want 18 / 118", got.GetFloat("impuesto_igv"), got.GetFloat("monto_total"))
	}
}

func TestMigrateLegacyTaxRates_LeavesFractionsAlone(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "20100070970", "Cliente")
	quote := testhelpers.CreateTestQuote(t, app, client.Id, "VFC-OTE-2025-0001")

	if err := collections.MigrateLegacyTaxRates(app); err != nil {
		t.Fatalf("MigrateLegacyTaxRates() error: %v", err)
	}
	// Second run is a no-op.
	if err := collections.MigrateLegacyTaxRates(app); err != nil {
		t.Fatalf("second run error: %v", err)
	}

	got, _ := app.FindRecordById("cotizaciones", quote.Id)
	if got.GetFloat("tasa_igv") != 0.18 {
		t.Errorf("tasa_igv = %v, want 0.18", got.GetFloat("tasa_igv"))
	}
}

func TestMigrateQuoteTotals_RecomputesFromItems(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "20100070970", "Cliente")
	service := testhelpers.CreateTestService(t, app, "Contenido de humedad", 10, "Ensayo", "", "")
	quote := testhelpers.CreateTestQuote(t, app, client.Id, "VFC-OTE-2025-0002")

	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 0, "categoria", "SUELOS", "", 0, 0)
	item := testhelpers.CreateTestQuoteItem(t, app, quote.Id, 1, "servicio", "Contenido de humedad", service.Id, 3, 10)
	item.Set("total_detalle", 0)
	if err := app.Save(item); err != nil {
		t.Fatalf("clear line total: %v", err)
	}

	if err := collections.MigrateQuoteTotals(app); err != nil {
		t.Fatalf("MigrateQuoteTotals() error: %v", err)
	}

	got, _ := app.FindRecordById("cotizaciones", quote.Id)
	if got.GetFloat("subtotal") != 30 || got.GetFloat("impuesto_igv") != 5.4 || got.GetFloat("monto_total") != 35.4 {
		t.Errorf("totals = %v / %v / %v, want 30 / 5.4 / 35.4",
			got.GetFloat("subtotal"), got.GetFloat("impuesto_igv"), got.GetFloat("monto_total"))
	}

	gotItem, _ := app.FindRecordById("cotizacion_items", item.Id)
	if gotItem.GetFloat("total_detalle") != 30 {
		t.Errorf("total_detalle = %v, want 30", gotItem.GetFloat("total_detalle"))
	}
}

func TestMigrateQuoteTotals_NoQuotes(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.MigrateQuoteTotals(app); err != nil {
		t.Fatalf("MigrateQuoteTotals() error: %v", err)
	}
}
