package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/services"
)

// HandleQuoteDelete removes a quotation and its rows. Accepted quotations
// are refused with 409.
// DELETE /quotes/{id}
func HandleQuoteDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		quoteID := e.Request.PathValue("id")
		if quoteID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Falta el identificador de la cotización")
		}

		err := services.DeleteQuote(app, quoteID)
		switch {
		case errors.Is(err, services.ErrNotFound):
			return ErrorToast(e, http.StatusNotFound, "Cotización no encontrada")
		case errors.Is(err, services.ErrLocked):
			return ErrorToast(e, http.StatusConflict, "Una cotización aceptada no se puede eliminar")
		case err != nil:
			zap.L().Error("quote_delete: HandleQuoteDelete: delete failed", zap.String("quote", quoteID), zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "No se pudo eliminar la cotización.")
		}

		zap.L().Info("quote_delete: deleted", zap.String("quote", quoteID))
		SetToast(e, toastSuccess, "Cotización eliminada")

		if e.Request.Header.Get("HX-Request") == "true" {
			e.Response.Header().Set("HX-Redirect", "/quotes")
			return e.String(http.StatusOK, "")
		}
		return e.Redirect(http.StatusFound, "/quotes")
	}
}
