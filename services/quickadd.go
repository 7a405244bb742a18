package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Quick-add endpoint paths, relative to the application root.
const (
	QuickAddClientPath      = "/quick-add/client"
	QuickAddCategoryPath    = "/quick-add/category"
	QuickAddSubcategoryPath = "/quick-add/subcategory"
)

// CSRF names shared by the quick-add endpoints and their callers.
const (
	CSRFCookieName = "csrf_token"
	CSRFFieldName  = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// QuickAddResult is a record created through a quick-add endpoint.
type QuickAddResult struct {
	ID     string
	Name   string
	Fields map[string]string
}

// CSRFCredentials are what a page load hands out: the csrf_token cookie
// value and the masked token rendered into the page.
type CSRFCredentials struct {
	Cookie string
	Token  string
}

// QuickAddClient posts form-encoded quick-add requests. The masked token is
// sent as a form field next to the cookie it belongs to.
type QuickAddClient struct {
	baseURL    string
	csrf       CSRFCredentials
	httpClient *http.Client
}

// NewQuickAddClient returns a client for the application at baseURL. A nil
// httpClient gets a default with a 10 second timeout.
func NewQuickAddClient(baseURL string, creds CSRFCredentials, httpClient *http.Client) *QuickAddClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &QuickAddClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		csrf:       creds,
		httpClient: httpClient,
	}
}

func (c *QuickAddClient) CreateClient(ctx context.Context, ruc, razonSocial string) (QuickAddResult, error) {
	return c.post(ctx, QuickAddClientPath, url.Values{
		"ruc":          {ruc},
		"razon_social": {razonSocial},
	})
}

func (c *QuickAddClient) CreateCategory(ctx context.Context, nombre string) (QuickAddResult, error) {
	return c.post(ctx, QuickAddCategoryPath, url.Values{"nombre": {nombre}})
}

func (c *QuickAddClient) CreateSubcategory(ctx context.Context, categoriaID, nombre string) (QuickAddResult, error) {
	return c.post(ctx, QuickAddSubcategoryPath, url.Values{
		"categoria_id": {categoriaID},
		"nombre":       {nombre},
	})
}

// post sends the form and classifies the outcome: transport failures,
// non-2xx statuses and unreadable bodies are NetworkErrors, a
// {"status":"error"} body is a ServerRejection.
func (c *QuickAddClient) post(ctx context.Context, path string, form url.Values) (QuickAddResult, error) {
	endpoint := c.baseURL + path
	form.Set(CSRFFieldName, c.csrf.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return QuickAddResult{}, &NetworkError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.csrf.Cookie != "" {
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: c.csrf.Cookie})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return QuickAddResult{}, &NetworkError{Endpoint: endpoint, Err: err}
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return QuickAddResult{}, &NetworkError{Endpoint: endpoint, Status: resp.StatusCode, Err: readErr}
	}

	var payload map[string]any
	decodeErr := json.Unmarshal(body, &payload)

	// Rejections may come with a 4xx status; the message still belongs to
	// the user.
	if decodeErr == nil && payloadString(payload, "status") == "error" {
		return QuickAddResult{}, &ServerRejection{Message: payloadString(payload, "message")}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return QuickAddResult{}, &NetworkError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", truncateValue(string(body), 80))}
	}
	if decodeErr != nil {
		return QuickAddResult{}, &NetworkError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if payloadString(payload, "status") != "success" {
		return QuickAddResult{}, &NetworkError{Endpoint: endpoint, Status: resp.StatusCode, Err: fmt.Errorf("unknown status %q", payloadString(payload, "status"))}
	}

	result := QuickAddResult{
		ID:     payloadString(payload, "id"),
		Fields: make(map[string]string, len(payload)),
	}
	for k := range payload {
		if k == "status" || k == "id" {
			continue
		}
		result.Fields[k] = payloadString(payload, k)
	}
	result.Name = result.Fields["nombre"]
	if result.Name == "" {
		result.Name = result.Fields["razon_social"]
	}
	return result, nil
}

func payloadString(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return FormatQty(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
