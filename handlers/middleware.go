package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/config"
	"labquote/services"
	"labquote/templates"
)

// CSRFMiddleware protects every state-changing route with gorilla/csrf. The
// secret lives in the csrf_token cookie; the masked token handed to the
// templates must come back in the X-CSRF-Token header or the csrf_token form
// field. Quick-add callers get a JSON rejection; everything else gets an
// error toast.
func CSRFMiddleware(cfg config.Config) func(e *core.RequestEvent) error {
	protect := csrf.Protect(cfg.CSRFKey,
		csrf.CookieName(services.CSRFCookieName),
		csrf.FieldName(services.CSRFFieldName),
		csrf.RequestHeader(services.CSRFHeaderName),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.Secure(cfg.CSRFSecureCookie),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(cfg.CSRFTrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(rejectCSRF)),
	)

	return func(e *core.RequestEvent) error {
		// PocketBase's own API and dashboard authenticate with bearer tokens.
		if path := e.Request.URL.Path; strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, "/_/") {
			return e.Next()
		}

		req := e.Request
		if req.TLS == nil {
			// No Referer requirement without TLS; the Origin check still applies.
			req = csrf.PlaintextHTTPRequest(req)
		}

		var nextErr error
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := templates.WithCSRFToken(r.Context(), csrf.Token(r))
			e.Request = r.WithContext(ctx)
			nextErr = e.Next()
		})).ServeHTTP(e.Response, req)

		return nextErr
	}
}

// rejectCSRF answers a request that failed the token or origin check.
func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	zap.L().Warn("middleware: CSRF check failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(csrf.FailureReason(r)))

	e := &core.RequestEvent{}
	e.Request = r
	e.Response = w
	if strings.HasPrefix(r.URL.Path, "/quick-add/") {
		_ = quickAddError(e, http.StatusForbidden, "Token de seguridad inválido. Recargue la página.")
		return
	}
	_ = ErrorToast(e, http.StatusForbidden, "La sesión expiró. Recargue la página.")
}

// GetCSRFToken returns the masked token CSRFMiddleware stored for this
// request.
func GetCSRFToken(r *http.Request) string {
	return templates.CSRFToken(r.Context())
}
