package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"labquote/testhelpers"
)

func TestHandleQuoteList(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	andina := testhelpers.CreateTestClient(t, app, "20123456789", "Constructora Andina SAC")
	pacifico := testhelpers.CreateTestClient(t, app, "20987654321", "Minera Pacífico SA")
	testhelpers.CreateTestQuote(t, app, andina.Id, "VFC-OTE-2025-0001")
	accepted := testhelpers.CreateTestQuote(t, app, pacifico.Id, "VFC-OTE-2025-0002")
	accepted.Set("estado", "Aceptada")
	if err := app.Save(accepted); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		target      string
		htmx        bool
		contains    []string
		notContains []string
	}{
		{
			name:     "full page lists all",
			target:   "/quotes",
			contains: []string{"<!DOCTYPE html>", "VFC-OTE-2025-0001", "VFC-OTE-2025-0002", "2 cotizaciones", "Constructora Andina SAC"},
		},
		{
			name:        "htmx search by client name",
			target:      "/quotes?q=Pac%C3%ADfico",
			htmx:        true,
			contains:    []string{`<div id="quote-list">`, "VFC-OTE-2025-0002", "1 cotización"},
			notContains: []string{"<!DOCTYPE html>", "VFC-OTE-2025-0001"},
		},
		{
			name:        "search by offer number",
			target:      "/quotes?q=0001",
			htmx:        true,
			contains:    []string{"VFC-OTE-2025-0001", `hx-delete="/quotes/`},
			notContains: []string{"VFC-OTE-2025-0002"},
		},
		{
			name:     "no match",
			target:   "/quotes?q=inexistente",
			htmx:     true,
			contains: []string{"No se encontraron cotizaciones."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, req, rec)

			if err := HandleQuoteList(app, testConfig())(e); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			body := rec.Body.String()
			testhelpers.AssertHTMLContains(t, body, tt.contains...)
			testhelpers.AssertHTMLNotContains(t, body, tt.notContains...)
		})
	}
}

func TestHandleQuoteList_AcceptedHasNoDelete(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	client := testhelpers.CreateTestClient(t, app, "20123456789", "Constructora Andina SAC")
	quote := testhelpers.CreateTestQuote(t, app, client.Id, "VFC-OTE-2025-0003")
	quote.Set("estado", "Aceptada")
	if err := app.Save(quote); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	if err := HandleQuoteList(app, testConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatal(err)
	}
	testhelpers.AssertHTMLNotContains(t, rec.Body.String(), `hx-delete="/quotes/`+quote.Id+`"`)
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "/quotes/"+quote.Id+"/export/pdf")
}
