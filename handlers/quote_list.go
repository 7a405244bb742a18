package handlers

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/config"
	"labquote/services"
	"labquote/templates"
)

const quoteListLimit = 200

// HandleQuoteList lists quotations, newest first. The q parameter matches
// the offer number, the subject or the client's name.
// GET /quotes
func HandleQuoteList(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		search := strings.TrimSpace(e.Request.URL.Query().Get("q"))

		filter := "id != ''"
		params := map[string]any{}
		if search != "" {
			filter = "numero_oferta ~ {:q} || asunto_servicio ~ {:q} || cliente.razon_social ~ {:q}"
			params["q"] = search
		}

		records, err := app.FindRecordsByFilter("cotizaciones", filter, "-created", quoteListLimit, 0, params)
		if err != nil {
			zap.L().Error("quote_list: HandleQuoteList: query failed", zap.String("q", search), zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "No se pudo cargar el listado.")
		}

		clientNames := make(map[string]string)
		if clients, err := app.FindAllRecords("clientes"); err == nil {
			for _, c := range clients {
				clientNames[c.Id] = c.GetString("razon_social")
			}
		} else {
			zap.L().Warn("quote_list: HandleQuoteList: load clients", zap.Error(err))
		}

		data := templates.QuoteListData{Search: search, TotalCount: len(records)}
		for _, rec := range records {
			status := rec.GetString("estado")
			data.Items = append(data.Items, templates.QuoteListItem{
				ID:          rec.Id,
				OfferNumber: rec.GetString("numero_oferta"),
				ClientName:  clientNames[rec.GetString("cliente")],
				Subject:     rec.GetString("asunto_servicio"),
				Date:        rec.GetString("fecha_generacion"),
				Status:      status,
				Total:       services.FormatCurrency(cfg.CurrencySymbol, rec.GetFloat("monto_total")),
				Locked:      services.IsLockedStatus(status),
			})
		}

		var component templ.Component
		if e.Request.Header.Get("HX-Request") == "true" {
			component = templates.QuoteListContent(data)
		} else {
			component = templates.QuoteListPage(data)
		}
		return component.Render(e.Request.Context(), e.Response)
	}
}
