package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// Toast kinds understood by static/js/app.js.
const (
	toastSuccess = "success"
	toastError   = "error"
)

const flashCookieName = "flash_toast"

// addTrigger adds one HTMX client event to the HX-Trigger header, keeping
// any events already set by the handler. An unparsable existing value is
// replaced.
func addTrigger(e *core.RequestEvent, event string, payload any) {
	events := map[string]any{}
	if existing := e.Response.Header().Get("HX-Trigger"); existing != "" {
		if err := json.Unmarshal([]byte(existing), &events); err != nil {
			zap.L().Warn("toast: replacing non-JSON HX-Trigger", zap.String("hx_trigger", existing), zap.Error(err))
			events = map[string]any{}
		}
	}
	events[event] = payload

	data, err := json.Marshal(events)
	if err != nil {
		zap.L().Warn("toast: marshal HX-Trigger", zap.String("event", event), zap.Error(err))
		return
	}
	e.Response.Header().Set("HX-Trigger", string(data))
}

// SetToast fires the showToast client event and also leaves a short-lived
// flash cookie, so the message survives an HX-Redirect or a plain 302.
func SetToast(e *core.RequestEvent, toastType string, message string) {
	toast := map[string]string{"message": message, "type": toastType}
	addTrigger(e, "showToast", toast)
	setFlashCookie(e, toast)
}

func setFlashCookie(e *core.RequestEvent, toast map[string]string) {
	raw, err := json.Marshal(toast)
	if err != nil {
		return
	}
	http.SetCookie(e.Response, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(string(raw)),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: false, // read by app.js
		SameSite: http.SameSiteLaxMode,
	})
}

// ErrorToast shows an error toast and answers with HX-Reswap none, so the
// plain-text body never replaces page content.
func ErrorToast(e *core.RequestEvent, statusCode int, message string) error {
	SetToast(e, toastError, message)
	e.Response.Header().Set("HX-Reswap", "none")
	return e.String(statusCode, message)
}
