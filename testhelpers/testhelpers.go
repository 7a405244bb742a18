// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"labquote/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestClient creates a client record and returns it.
func CreateTestClient(t *testing.T, app *pocketbase.PocketBase, ruc, razonSocial string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("clientes")
	if err != nil {
		t.Fatalf("failed to find clientes collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("ruc", ruc)
	record.Set("razon_social", razonSocial)
	record.Set("persona_contacto", "Ing. Test")
	record.Set("correo_contacto", "test@example.pe")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test client: %v", err)
	}

	return record
}

// CreateTestNorma creates a norma (reference standard) record.
func CreateTestNorma(t *testing.T, app *pocketbase.PocketBase, codigo string) *core.Record {
	t.Helper()
	return createCodeRecord(t, app, "normas", codigo)
}

// CreateTestMetodo creates a método record.
func CreateTestMetodo(t *testing.T, app *pocketbase.PocketBase, codigo string) *core.Record {
	t.Helper()
	return createCodeRecord(t, app, "metodos", codigo)
}

func createCodeRecord(t *testing.T, app *pocketbase.PocketBase, collection, codigo string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		t.Fatalf("failed to find %s collection: %v", collection, err)
	}
	record := core.NewRecord(col)
	record.Set("codigo", codigo)
	record.Set("nombre", codigo+" test")
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test %s: %v", collection, err)
	}
	return record
}

// CreateTestCategory creates a service category record.
func CreateTestCategory(t *testing.T, app *pocketbase.PocketBase, nombre string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("categorias_servicio")
	if err != nil {
		t.Fatalf("failed to find categorias_servicio collection: %v", err)
	}
	record := core.NewRecord(col)
	record.Set("nombre", nombre)
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test category: %v", err)
	}
	return record
}

// CreateTestService creates a catalog service. normaID and metodoID may be
// empty.
func CreateTestService(t *testing.T, app *pocketbase.PocketBase, nombre string, precio float64, unidad, normaID, metodoID string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("servicios")
	if err != nil {
		t.Fatalf("failed to find servicios collection: %v", err)
	}
	record := core.NewRecord(col)
	record.Set("nombre", nombre)
	record.Set("precio_base", precio)
	record.Set("unidad_base", unidad)
	if normaID != "" {
		record.Set("normas", []string{normaID})
	}
	if metodoID != "" {
		record.Set("metodos", []string{metodoID})
	}
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test service: %v", err)
	}
	return record
}

// CreateTestQuote creates a pending quotation with no items.
func CreateTestQuote(t *testing.T, app *pocketbase.PocketBase, clientID, numeroOferta string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("cotizaciones")
	if err != nil {
		t.Fatalf("failed to find cotizaciones collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("numero_oferta", numeroOferta)
	record.Set("cliente", clientID)
	record.Set("asunto_servicio", "Ensayos de laboratorio")
	record.Set("fecha_generacion", "2025-03-03")
	record.Set("estado", "Pendiente")
	record.Set("forma_pago", "Contado")
	record.Set("tasa_igv", 0.18)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote: %v", err)
	}

	return record
}

// CreateTestQuoteItem appends a row to a quotation. Header rows ignore
// servicioID, qty and price.
func CreateTestQuoteItem(t *testing.T, app *pocketbase.PocketBase, quoteID string, sortOrder int, tipoFila, descripcion, servicioID string, qty, price float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("cotizacion_items")
	if err != nil {
		t.Fatalf("failed to find cotizacion_items collection: %v", err)
	}
	record := core.NewRecord(col)
	record.Set("cotizacion", quoteID)
	record.Set("sort_order", sortOrder)
	record.Set("tipo_fila", tipoFila)
	record.Set("descripcion_especifica", descripcion)
	if tipoFila == "servicio" {
		record.Set("servicio", servicioID)
		record.Set("cantidad", qty)
		record.Set("precio_unitario", price)
		record.Set("unidad_medida", "UND")
		record.Set("total_detalle", qty*price)
	}
	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test quote item: %v", err)
	}
	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHTMLNotContains checks that body contains none of the fragments.
func AssertHTMLNotContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if strings.Contains(body, frag) {
			t.Errorf("expected HTML not to contain %q", frag)
		}
	}
}

// AssertHXRedirect checks that the response has an HX-Redirect header with the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
