package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"labquote/testhelpers"
)

func TestHandleQuoteExport(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	fx := newCatalogFixture(t, app)
	quote := testhelpers.CreateTestQuote(t, app, fx.clientID, "VFC-OTE-2025-0001")
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 0, "categoria", "SUELOS", "", 0, 0)
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 1, "servicio", "Contenido de humedad", fx.serviceID, 2, 35.4)

	cfg := testConfig()
	tests := []struct {
		name        string
		handler     func(*httptest.ResponseRecorder, *http.Request) error
		contentType string
		filename    string
		magic       []byte
	}{
		{
			name: "pdf",
			handler: func(rec *httptest.ResponseRecorder, req *http.Request) error {
				return HandleQuoteExportPDF(app, cfg)(newTestRequestEvent(app, req, rec))
			},
			contentType: "application/pdf",
			filename:    "VFC-OTE-2025-0001.pdf",
			magic:       []byte("%PDF"),
		},
		{
			name: "excel",
			handler: func(rec *httptest.ResponseRecorder, req *http.Request) error {
				return HandleQuoteExportExcel(app, cfg)(newTestRequestEvent(app, req, rec))
			},
			contentType: xlsxContentType,
			filename:    "VFC-OTE-2025-0001.xlsx",
			magic:       []byte("PK"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/export/"+tt.name, nil)
			req.SetPathValue("id", quote.Id)
			rec := httptest.NewRecorder()

			if err := tt.handler(rec, req); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("expected content type %q, got %q", tt.contentType, got)
			}
			if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, tt.filename) {
				t.Errorf("expected filename %q in %q", tt.filename, got)
			}
			if !bytes.HasPrefix(rec.Body.Bytes(), tt.magic) {
				t.Errorf("body does not start with %q", tt.magic)
			}
		})
	}

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/quotes/nonexistent/export/pdf", nil)
		req.SetPathValue("id", "nonexistent")
		rec := httptest.NewRecorder()
		if err := HandleQuoteExportPDF(app, cfg)(newTestRequestEvent(app, req, rec)); err != nil {
			t.Fatal(err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleQuoteExportExcel_Totals(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	fx := newCatalogFixture(t, app)
	quote := testhelpers.CreateTestQuote(t, app, fx.clientID, "VFC-OTE-2025-0001")
	testhelpers.CreateTestQuoteItem(t, app, quote.Id, 0, "servicio", "Contenido de humedad", fx.serviceID, 2, 35.4)

	req := httptest.NewRequest(http.MethodGet, "/quotes/"+quote.Id+"/export/excel", nil)
	req.SetPathValue("id", quote.Id)
	rec := httptest.NewRecorder()
	if err := HandleQuoteExportExcel(app, testConfig())(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()

	found := false
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		for _, cell := range row {
			if strings.Contains(cell, "Contenido de humedad") {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected the service description in the workbook")
	}
}
