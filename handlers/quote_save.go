package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/config"
	"labquote/services"
)

// HandleQuoteCreate saves a new quotation from the editor form.
// POST /quotes
func HandleQuoteCreate(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return saveQuote(e, app, cfg, "")
	}
}

// HandleQuoteUpdate replaces the header and rows of a stored quotation.
// POST /quotes/{id}
func HandleQuoteUpdate(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		if quoteID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Falta el identificador de la cotización")
		}
		return saveQuote(e, app, cfg, quoteID)
	}
}

// saveQuote validates the form before anything is written. Totals are
// recomputed from the rows; a posted monto_total is ignored.
func saveQuote(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config, quoteID string) error {
	if err := e.Request.ParseForm(); err != nil {
		return ErrorToast(e, http.StatusBadRequest, "Datos de formulario no válidos")
	}

	in, err := parseQuoteInput(e.Request, cfg)
	if err != nil {
		msg, ok := userMessage(err)
		if !ok {
			msg = "Datos de formulario no válidos"
		}
		return ErrorToast(e, http.StatusBadRequest, msg)
	}
	in.ID = quoteID

	record, err := services.SaveQuote(app, in, cfg.OfferPrefix)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return ErrorToast(e, http.StatusBadRequest, msg)
		}
		if errors.Is(err, services.ErrNotFound) {
			return ErrorToast(e, http.StatusNotFound, "Cotización no encontrada")
		}
		zap.L().Error("quote_save: saveQuote: save failed", zap.String("quote", quoteID), zap.Error(err))
		return ErrorToast(e, http.StatusInternalServerError, "No se pudo guardar la cotización. Intente nuevamente.")
	}

	zap.L().Info("quote_save: saved",
		zap.String("quote", record.Id),
		zap.String("numero_oferta", record.GetString("numero_oferta")),
		zap.Float64("monto_total", record.GetFloat("monto_total")))

	addTrigger(e, "quoteSaved", map[string]string{"id": record.Id, "numero_oferta": record.GetString("numero_oferta")})
	SetToast(e, toastSuccess, "Cotización "+record.GetString("numero_oferta")+" guardada")
	redirectURL := "/quotes/" + record.Id + "/edit"
	if e.Request.Header.Get("HX-Request") == "true" {
		e.Response.Header().Set("HX-Redirect", redirectURL)
		return e.String(http.StatusOK, "")
	}
	return e.Redirect(http.StatusFound, redirectURL)
}
