package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/pocketbase/pocketbase/core"
)

func parseToast(t *testing.T, header string) map[string]string {
	t.Helper()
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	raw, ok := parsed["showToast"]
	if !ok {
		t.Fatal("expected showToast key in HX-Trigger JSON")
	}
	var toast map[string]string
	if err := json.Unmarshal(raw, &toast); err != nil {
		t.Fatalf("showToast value is not valid JSON: %v", err)
	}
	return toast
}

func TestSetToast_Types(t *testing.T) {
	tests := []struct {
		toastType string
		message   string
	}{
		{"success", "Cotización guardada"},
		{"error", "Seleccione un cliente."},
		{"info", "2 servicios creados"},
		{"warning", "Servicio retirado del catálogo"},
	}

	for _, tt := range tests {
		t.Run(tt.toastType, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := &core.RequestEvent{}
			e.Response = rec

			SetToast(e, tt.toastType, tt.message)

			toast := parseToast(t, rec.Header().Get("HX-Trigger"))
			if toast["type"] != tt.toastType {
				t.Errorf("expected type %q, got %q", tt.toastType, toast["type"])
			}
			if toast["message"] != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, toast["message"])
			}
		})
	}
}

func TestSetToast_MergesWithExisting(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", `{"quoteSaved":{"id":"abc"}}`)

	SetToast(e, "success", "Cotización guardada")

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if _, ok := parsed["quoteSaved"]; !ok {
		t.Error("expected quoteSaved key to be preserved after merge")
	}
	if toast := parseToast(t, rec.Header().Get("HX-Trigger")); toast["message"] != "Cotización guardada" {
		t.Errorf("unexpected toast message %q", toast["message"])
	}
}

func TestSetToast_OverwritesInvalidExisting(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec
	rec.Header().Set("HX-Trigger", "notValidJSON")

	SetToast(e, "error", "Overwritten")

	if toast := parseToast(t, rec.Header().Get("HX-Trigger")); toast["message"] != "Overwritten" {
		t.Errorf("unexpected toast message %q", toast["message"])
	}
}

func TestSetToast_SpecialCharacters(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"quotes", `Servicio "Humedad" agregado`},
		{"angle brackets", `<script>alert("xss")</script>`},
		{"accents", "Categoría añadida"},
		{"newline", "línea1\nlínea2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := &core.RequestEvent{}
			e.Response = rec

			SetToast(e, "info", tt.message)

			if toast := parseToast(t, rec.Header().Get("HX-Trigger")); toast["message"] != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, toast["message"])
			}
		})
	}
}

func TestSetToast_FlashCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec

	SetToast(e, "success", "Cotización eliminada")

	var flash *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "flash_toast" {
			flash = c
		}
	}
	if flash == nil {
		t.Fatal("expected flash_toast cookie")
	}
	raw, err := url.QueryUnescape(flash.Value)
	if err != nil {
		t.Fatalf("cookie value not query-escaped: %v", err)
	}
	var toast map[string]string
	if err := json.Unmarshal([]byte(raw), &toast); err != nil {
		t.Fatalf("cookie value is not JSON: %v", err)
	}
	if toast["message"] != "Cotización eliminada" || toast["type"] != "success" {
		t.Errorf("unexpected flash toast %v", toast)
	}
}

func TestErrorToast_SetsHeaderAndReswap(t *testing.T) {
	tests := []struct {
		name string
		code int
		msg  string
	}{
		{"bad request", http.StatusBadRequest, "Valor no válido en el campo Tasa IGV"},
		{"not found", http.StatusNotFound, "Cotización no encontrada"},
		{"conflict", http.StatusConflict, "Una cotización aceptada no se puede eliminar"},
		{"server error", http.StatusInternalServerError, "Ocurrió un error. Intente nuevamente."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := &core.RequestEvent{}
			e.Response = rec

			if err := ErrorToast(e, tt.code, tt.msg); err != nil {
				t.Fatalf("ErrorToast returned error: %v", err)
			}
			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
			if rec.Header().Get("HX-Reswap") != "none" {
				t.Error("expected HX-Reswap: none")
			}
			if rec.Body.String() != tt.msg {
				t.Errorf("expected body %q, got %q", tt.msg, rec.Body.String())
			}
			toast := parseToast(t, rec.Header().Get("HX-Trigger"))
			if toast["type"] != "error" || toast["message"] != tt.msg {
				t.Errorf("unexpected toast %v", toast)
			}
		})
	}
}

func TestAddTrigger_KeepsEarlierEvents(t *testing.T) {
	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Response = rec

	addTrigger(e, "quoteSaved", map[string]string{"id": "q1"})
	SetToast(e, toastSuccess, "Cotización guardada")

	var parsed map[string]map[string]string
	if err := json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &parsed); err != nil {
		t.Fatalf("HX-Trigger is not valid JSON: %v", err)
	}
	if parsed["quoteSaved"]["id"] != "q1" {
		t.Errorf("expected quoteSaved id q1, got %v", parsed["quoteSaved"])
	}
	if parsed["showToast"]["type"] != toastSuccess {
		t.Errorf("expected success toast, got %v", parsed["showToast"])
	}
}
