package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"

	"labquote/services"
	"labquote/testhelpers"
)

func runCommand(t *testing.T, app *pocketbase.PocketBase, command string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := newFormRequest(http.MethodPost, "/quotes/editor/"+command, form)
	req.SetPathValue("command", command)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := HandleEditorCommand(app, testConfig())(e); err != nil {
		t.Fatalf("%s returned error: %v", command, err)
	}
	return rec
}

func snapshotRows(t *testing.T, body string) []services.LineItem {
	t.Helper()
	rows, err := services.ParseSnapshot(fieldValue(t, body, "detalles_json"))
	if err != nil {
		t.Fatalf("rendered snapshot does not parse: %v", err)
	}
	return rows
}

func TestHandleEditorCommand_BuildQuotation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	fx := newCatalogFixture(t, app)

	// Category header from the search widget.
	rec := runCommand(t, app, "select-header", url.Values{
		"kind":            {"categoria"},
		"categoria_label": {" ensayos de suelo "},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("select-header: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		`<td colspan="6">ENSAYOS DE SUELO</td>`,
		`data-state="idle"`,
	)
	if got := fieldValue(t, body, "categoria_label"); got != "" {
		t.Errorf("expected category input to be cleared, got %q", got)
	}
	snapshot := fieldValue(t, body, "detalles_json")

	// Picking a service previews it without adding a row.
	rec = runCommand(t, app, "select-service", url.Values{
		"detalles_json": {snapshot},
		"servicio_id":   {fx.serviceID},
	})
	body = rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		"Norma: ASTM D2216",
		"Método: A",
		`name="precio_unitario" value="35.4"`,
		`name="cantidad" value="1"`,
	)
	if got := fieldValue(t, body, "detalles_json"); got != snapshot {
		t.Errorf("select-service must not change rows: %s", got)
	}

	// Add the service with a decimal-comma price.
	rec = runCommand(t, app, "add-service", url.Values{
		"detalles_json":   {snapshot},
		"servicio_id":     {fx.serviceID},
		"cantidad":        {"2"},
		"precio_unitario": {"35,4"},
		"nota":            {"incluye muestreo"},
	})
	body = rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		"<td>A</td>",
		"<td>1</td>",
		`<td class="num">70.80</td>`,
		`id="totals-total">S/ 83.54</td>`,
		"incluye muestreo",
	)
	if got := fieldValue(t, body, "monto_total"); got != "83.54" {
		t.Errorf("expected monto_total 83.54, got %q", got)
	}
	rows := snapshotRows(t, body)
	if len(rows) != 2 || rows[1].Kind != services.KindService || rows[1].Quantity != 2 {
		t.Fatalf("unexpected rows after add-service: %+v", rows)
	}
	snapshot = fieldValue(t, body, "detalles_json")

	// Edit the service line.
	rec = runCommand(t, app, "begin-edit", url.Values{
		"detalles_json": {snapshot},
		"index":         {"1"},
	})
	body = rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		`data-state="editing"`,
		">Actualizar</button>",
		">Cancelar</button>",
		`name="cantidad" value="2"`,
		`name="precio_unitario" value="35.4"`,
	)
	if got := fieldValue(t, body, "edit_index"); got != "1" {
		t.Errorf("expected edit_index 1, got %q", got)
	}

	rec = runCommand(t, app, "add-service", url.Values{
		"detalles_json":   {snapshot},
		"edit_index":      {"1"},
		"servicio_id":     {fx.serviceID},
		"cantidad":        {"3"},
		"precio_unitario": {"35.4"},
	})
	body = rec.Body.String()
	testhelpers.AssertHTMLContains(t, body, `data-state="idle"`, `<td class="num">106.20</td>`)
	if got := fieldValue(t, body, "edit_index"); got != "" {
		t.Errorf("expected edit_index cleared, got %q", got)
	}
	rows = snapshotRows(t, body)
	if len(rows) != 2 || rows[1].Quantity != 3 {
		t.Fatalf("expected the edited row to be replaced, got %+v", rows)
	}
	snapshot = fieldValue(t, body, "detalles_json")

	// Remove the header; the service keeps its number.
	rec = runCommand(t, app, "remove", url.Values{
		"detalles_json": {snapshot},
		"index":         {"0"},
	})
	body = rec.Body.String()
	testhelpers.AssertHTMLNotContains(t, body, "ENSAYOS DE SUELO")
	if rows := snapshotRows(t, body); len(rows) != 1 || rows[0].Kind != services.KindService {
		t.Fatalf("unexpected rows after remove: %+v", rows)
	}
}

func TestHandleEditorCommand_EditRoundTrip(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	fx := newCatalogFixture(t, app)

	snapshot, err := services.EncodeSnapshot([]services.LineItem{
		{Kind: services.KindCategory, Label: "SUELOS"},
		{Kind: services.KindService, Label: "Contenido de humedad", CatalogID: fx.serviceID, Quantity: 2.5, UnitPrice: 35.125, Unit: "Ensayo", NormaLabel: "ASTM D2216 / A", NormaID: fx.normaID, MetodoID: fx.metodoID},
	})
	if err != nil {
		t.Fatal(err)
	}

	rec := runCommand(t, app, "begin-edit", url.Values{"detalles_json": {snapshot}, "index": {"1"}})
	body := rec.Body.String()
	qty := fieldValue(t, body, "cantidad")
	price := fieldValue(t, body, "precio_unitario")

	rec = runCommand(t, app, "add-service", url.Values{
		"detalles_json":   {snapshot},
		"edit_index":      {"1"},
		"servicio_id":     {fx.serviceID},
		"cantidad":        {qty},
		"precio_unitario": {price},
	})
	body = rec.Body.String()
	if got := fieldValue(t, body, "detalles_json"); got != snapshot {
		t.Errorf("unchanged edit altered rows:\nbefore %s\nafter  %s", snapshot, got)
	}
	testhelpers.AssertHTMLContains(t, body, `data-state="idle"`)
}

func TestHandleEditorCommand_HeaderEdit(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	newCatalogFixture(t, app)

	snapshot, _ := services.EncodeSnapshot([]services.LineItem{
		{Kind: services.KindCategory, Label: "SUELOS"},
	})

	rec := runCommand(t, app, "begin-edit", url.Values{"detalles_json": {snapshot}, "index": {"0"}})
	if got := fieldValue(t, rec.Body.String(), "categoria_label"); got != "SUELOS" {
		t.Fatalf("expected category input populated, got %q", got)
	}

	// A subcategory pick does not replace a category under edit.
	rec = runCommand(t, app, "select-header", url.Values{
		"detalles_json":      {snapshot},
		"edit_index":         {"0"},
		"kind":               {"subcategoria"},
		"subcategoria_label": {"granulometría"},
	})
	if rows := snapshotRows(t, rec.Body.String()); len(rows) != 1 {
		t.Fatalf("expected no new row, got %+v", rows)
	}

	rec = runCommand(t, app, "select-header", url.Values{
		"detalles_json":   {snapshot},
		"edit_index":      {"0"},
		"kind":            {"categoria"},
		"categoria_label": {"concreto"},
	})
	rows := snapshotRows(t, rec.Body.String())
	if len(rows) != 1 || rows[0].Label != "CONCRETO" {
		t.Fatalf("expected header replaced, got %+v", rows)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), `data-state="idle"`)
}

func TestHandleEditorCommand_SilentAndReportedMisses(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	newCatalogFixture(t, app)

	snapshot, _ := services.EncodeSnapshot([]services.LineItem{
		{Kind: services.KindCategory, Label: "SUELOS"},
	})

	tests := []struct {
		name      string
		command   string
		form      url.Values
		wantToast string
	}{
		{
			name:    "empty header label",
			command: "add-header",
			form:    url.Values{"kind": {"categoria"}, "categoria_label": {"   "}},
		},
		{
			name:    "no service selected",
			command: "add-service",
			form:    url.Values{"cantidad": {"2"}},
		},
		{
			name:      "unknown catalog id",
			command:   "add-service",
			form:      url.Values{"servicio_id": {"retired123"}, "cantidad": {"1"}},
			wantToast: "El servicio seleccionado no existe en el catálogo.",
		},
		{
			name:      "unknown catalog id on select",
			command:   "select-service",
			form:      url.Values{"servicio_id": {"retired123"}},
			wantToast: "El servicio seleccionado no existe en el catálogo.",
		},
		{
			name:      "stale remove index",
			command:   "remove",
			form:      url.Values{"index": {"4"}},
			wantToast: "La fila ya no existe. La tabla se actualizó.",
		},
		{
			name:    "cancel while idle",
			command: "cancel-edit",
			form:    url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.form.Set("detalles_json", snapshot)
			rec := runCommand(t, app, tt.command, tt.form)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got := fieldValue(t, rec.Body.String(), "detalles_json"); got != snapshot {
				t.Errorf("rows changed: %s", got)
			}
			if got := toastMessage(rec); got != tt.wantToast {
				t.Errorf("expected toast %q, got %q", tt.wantToast, got)
			}
		})
	}
}

func TestHandleEditorCommand_BadRequests(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name    string
		command string
		form    url.Values
		status  int
	}{
		{"bad tax rate", "refresh", url.Values{"tasa_igv": {"abc"}}, http.StatusBadRequest},
		{"bad snapshot", "refresh", url.Values{"detalles_json": {"{not json"}}, http.StatusBadRequest},
		{"bad header kind", "add-header", url.Values{"kind": {"servicio"}, "categoria_label": {"X"}}, http.StatusBadRequest},
		{"bad index", "remove", url.Values{"index": {"x"}}, http.StatusBadRequest},
		{"unknown command", "explode", url.Values{}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runCommand(t, app, tt.command, tt.form)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("expected HX-Reswap: none")
			}
		})
	}
}

func TestHandleEditorCommand_TaxRateAsPercentage(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	fx := newCatalogFixture(t, app)

	snapshot, _ := services.EncodeSnapshot([]services.LineItem{
		{Kind: services.KindService, CatalogID: fx.serviceID, Label: "Contenido de humedad", Quantity: 1, UnitPrice: 100},
	})

	fraction := runCommand(t, app, "refresh", url.Values{"detalles_json": {snapshot}, "tasa_igv": {"0.18"}})
	percent := runCommand(t, app, "refresh", url.Values{"detalles_json": {snapshot}, "tasa_igv": {"18"}})

	a := fieldValue(t, fraction.Body.String(), "monto_total")
	b := fieldValue(t, percent.Body.String(), "monto_total")
	if a != "118.00" || a != b {
		t.Errorf("expected identical totals of 118.00, got %q and %q", a, b)
	}
	testhelpers.AssertHTMLContains(t, percent.Body.String(), "IGV (18%)")
}

func TestHandleQuoteNew(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	newCatalogFixture(t, app)

	req := httptest.NewRequest(http.MethodGet, "/quotes/new", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := HandleQuoteNew(app, testConfig())(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	body := rec.Body.String()
	testhelpers.AssertHTMLContains(t, body,
		"<!DOCTYPE html>",
		"Nueva cotización",
		`hx-post="/quotes"`,
		"Contenido de humedad (ASTM D2216 / A)",
		"Constructora Andina SAC (20123456789)",
		`name="tasa_igv"`,
		`value="0.18"`,
		`name="monto_total" value="0.00"`,
		"Sin ítems",
	)
}

func TestHandleQuoteEditAndClone(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	fx := newCatalogFixture(t, app)
	quote := testhelpers.CreateTestQuote(t, app, fx.clientID, "VFC-OTE-2025-0007")
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 0, "categoria", "SUELOS", "", 0, 0)
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 1, "servicio", "Contenido de humedad", fx.serviceID, 2, 35.4)

	t.Run("edit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/edit", nil)
		req.SetPathValue("id", quote.Id)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		e := newTestRequestEvent(app, req, rec)

		if err := HandleQuoteEdit(app, testConfig())(e); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		body := rec.Body.String()
		testhelpers.AssertHTMLContains(t, body,
			"Cotización VFC-OTE-2025-0007",
			`hx-post="/quotes/`+quote.Id+`"`,
			`<td colspan="6">SUELOS</td>`,
			`<td class="num">70.80</td>`,
		)
		testhelpers.AssertHTMLNotContains(t, body, "<!DOCTYPE html>")
		if got := fieldValue(t, body, "monto_total"); got != "83.54" {
			t.Errorf("expected monto_total 83.54, got %q", got)
		}
	})

	t.Run("clone", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/clone", nil)
		req.SetPathValue("id", quote.Id)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		e := newTestRequestEvent(app, req, rec)

		if err := HandleQuoteClone(app, testConfig())(e); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		body := rec.Body.String()
		testhelpers.AssertHTMLContains(t, body,
			"Nueva cotización",
			"Copia de VFC-OTE-2025-0007",
			`hx-post="/quotes"`,
			`<td colspan="6">SUELOS</td>`,
		)
		if strings.Contains(body, `hx-post="/quotes/`+quote.Id+`"`) {
			t.Error("clone must post to the create route")
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/quotes/missing/edit", nil)
		req.SetPathValue("id", "missing")
		rec := httptest.NewRecorder()
		e := newTestRequestEvent(app, req, rec)

		HandleQuoteEdit(app, testConfig())(e)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
