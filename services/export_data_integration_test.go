package services_test

import (
	"errors"
	"strings"
	"testing"

	"labquote/services"
	"labquote/testhelpers"
)

func TestBuildQuoteExportData(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "20100070970", "Constructora Andina SAC")
	norma := testhelpers.CreateTestNorma(t, app, "ASTM D2216")
	svc := testhelpers.CreateTestService(t, app, "Contenido de humedad", 10, "Ensayo", norma.Id, "")
	quote := testhelpers.CreateTestQuote(t, app, client.Id, "VFC-OTE-2025-0003")
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 0, "categoria", "SUELOS", "", 0, 0)
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 1, "servicio", "Contenido de humedad", svc.Id, 2.5, 10)
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 2, "servicio", "Granulometría", "", 1, 10.4)

	company := services.ExportCompany{Name: "Laboratorio Central"}
	data, err := services.BuildQuoteExportData(app, quote.Id, company, "")
	if err != nil {
		t.Fatalf("BuildQuoteExportData() error = %v", err)
	}

	if data.OfferNumber != "VFC-OTE-2025-0003" {
		t.Errorf("OfferNumber = %q", data.OfferNumber)
	}
	if data.ClientName != "Constructora Andina SAC" || data.ClientRUC != "20100070970" {
		t.Errorf("client = %q / %q", data.ClientName, data.ClientRUC)
	}
	if data.Contact != "Ing. Test" {
		t.Errorf("Contact fallback = %q, want client contact", data.Contact)
	}
	if data.CurrencySymbol != services.DefaultCurrencySymbol {
		t.Errorf("CurrencySymbol = %q", data.CurrencySymbol)
	}
	if data.PaymentTerm != "Al Contado" {
		t.Errorf("PaymentTerm = %q", data.PaymentTerm)
	}
	if len(data.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(data.Rows))
	}
	if data.Rows[0].Position != "A" || data.Rows[1].Position != "1" || data.Rows[2].Position != "2" {
		t.Errorf("positions = %q %q %q", data.Rows[0].Position, data.Rows[1].Position, data.Rows[2].Position)
	}
	if data.Rows[1].Reference != "ASTM D2216" {
		t.Errorf("reference filled from catalog = %q", data.Rows[1].Reference)
	}
	if services.Round2(data.Subtotal) != 35.4 || services.Round2(data.Total) != 41.77 {
		t.Errorf("totals = %v / %v", data.Subtotal, data.Total)
	}
	if !strings.HasPrefix(data.AmountInWords, "SON: CUARENTA Y UNO CON 77/100") {
		t.Errorf("AmountInWords = %q", data.AmountInWords)
	}
}

func TestBuildQuoteExportData_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	_, err := services.BuildQuoteExportData(app, "missing", services.ExportCompany{}, "S/")
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
