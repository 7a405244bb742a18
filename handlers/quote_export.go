package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/config"
	"labquote/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleQuoteExportPDF downloads a quotation as PDF.
// GET /quotes/{id}/export/pdf
func HandleQuoteExportPDF(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := quoteExportData(e, app, cfg)
		if err != nil {
			return err
		}
		if data == nil {
			return nil
		}

		pdfBytes, err := services.GenerateQuotePDF(data)
		if err != nil {
			zap.L().Error("quote_export: HandleQuoteExportPDF: generate", zap.String("numero_oferta", data.OfferNumber), zap.Error(err))
			return e.String(http.StatusInternalServerError, "No se pudo generar el PDF")
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename(data.OfferNumber, "pdf")))
		e.Response.Write(pdfBytes)
		return nil
	}
}

// HandleQuoteExportExcel downloads a quotation as an .xlsx workbook.
// GET /quotes/{id}/export/excel
func HandleQuoteExportExcel(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := quoteExportData(e, app, cfg)
		if err != nil {
			return err
		}
		if data == nil {
			return nil
		}

		xlsxBytes, err := services.GenerateQuoteExcel(data)
		if err != nil {
			zap.L().Error("quote_export: HandleQuoteExportExcel: generate", zap.String("numero_oferta", data.OfferNumber), zap.Error(err))
			return e.String(http.StatusInternalServerError, "No se pudo generar el archivo Excel")
		}

		e.Response.Header().Set("Content-Type", xlsxContentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, services.ExportFilename(data.OfferNumber, "xlsx")))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// quoteExportData returns nil data after writing an error response.
func quoteExportData(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config) (*services.QuoteExportData, error) {
	quoteID := e.Request.PathValue("id")
	if quoteID == "" {
		return nil, e.String(http.StatusBadRequest, "Falta el identificador de la cotización")
	}

	company := services.ExportCompany{
		Name:    cfg.CompanyName,
		Address: cfg.CompanyAddress,
		Email:   cfg.CompanyEmail,
	}
	data, err := services.BuildQuoteExportData(app, quoteID, company, cfg.CurrencySymbol)
	if errors.Is(err, services.ErrNotFound) {
		return nil, e.String(http.StatusNotFound, "Cotización no encontrada")
	}
	if err != nil {
		zap.L().Error("quote_export: quoteExportData: build", zap.String("quote", quoteID), zap.Error(err))
		return nil, e.String(http.StatusInternalServerError, "No se pudo preparar la cotización")
	}
	return data, nil
}
