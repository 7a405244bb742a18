package handlers

import (
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"labquote/config"
	"labquote/services"
	"labquote/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(app *pocketbase.PocketBase, req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.App = app
	e.Request = req
	e.Response = rec
	return e
}

func testConfig() config.Config {
	return config.Config{
		TaxRate:        0.18,
		OfferPrefix:    "VFC-OTE",
		CurrencySymbol: "S/",
		CompanyName:    "Laboratorio de Prueba",
		CompanyAddress: "Lima",
		CompanyEmail:   "lab@example.pe",
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
	}
}

// issueCSRF loads a page through CSRFMiddleware and returns the cookie and
// masked token a browser would hold afterwards.
func issueCSRF(t *testing.T, app *pocketbase.PocketBase) services.CSRFCredentials {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/quotes/new", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := CSRFMiddleware(testConfig())(e); err != nil {
		t.Fatalf("CSRF middleware returned error: %v", err)
	}

	var creds services.CSRFCredentials
	for _, c := range rec.Result().Cookies() {
		if c.Name == services.CSRFCookieName {
			creds.Cookie = c.Value
		}
	}
	creds.Token = GetCSRFToken(e.Request)
	if creds.Cookie == "" || creds.Token == "" {
		t.Fatalf("expected cookie and token, got %+v", creds)
	}
	return creds
}

// newFormRequest builds a form-encoded request flagged as an HTMX call.
func newFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

// fieldValue extracts the unescaped value of the input named name from
// rendered HTML.
func fieldValue(t *testing.T, body, name string) string {
	t.Helper()
	marker := `name="` + name + `" value="`
	start := strings.Index(body, marker)
	if start < 0 {
		t.Fatalf("input %q not found in body", name)
	}
	rest := body[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatalf("unterminated value for %q", name)
	}
	return html.UnescapeString(rest[:end])
}

// toastMessage returns the message of the showToast trigger, or "".
func toastMessage(rec *httptest.ResponseRecorder) string {
	header := rec.Header().Get("HX-Trigger")
	if header == "" {
		return ""
	}
	start := strings.Index(header, `"message":"`)
	if start < 0 {
		return ""
	}
	rest := header[start+len(`"message":"`):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// catalogFixture is a catalog with one norma-coded service.
type catalogFixture struct {
	serviceID string
	normaID   string
	metodoID  string
	clientID  string
}

func newCatalogFixture(t *testing.T, app *pocketbase.PocketBase) catalogFixture {
	t.Helper()
	norma := testhelpers.CreateTestNorma(t, app, "ASTM D2216")
	metodo := testhelpers.CreateTestMetodo(t, app, "A")
	svc := testhelpers.CreateTestService(t, app, "Contenido de humedad", 35.4, "Ensayo", norma.Id, metodo.Id)
	client := testhelpers.CreateTestClient(t, app, "20123456789", "Constructora Andina SAC")
	return catalogFixture{
		serviceID: svc.Id,
		normaID:   norma.Id,
		metodoID:  metodo.Id,
		clientID:  client.Id,
	}
}
