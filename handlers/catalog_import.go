package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/services"
	"labquote/templates"
)

// HandleCatalogImportPage renders the price-list upload form.
// GET /catalog/import
func HandleCatalogImportPage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		count, err := app.CountRecords("servicios")
		if err != nil {
			zap.L().Warn("catalog_import: HandleCatalogImportPage: count", zap.Error(err))
		}
		data := templates.CatalogImportData{ServiceCount: int(count)}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.CatalogImportContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.CatalogImportPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleCatalogTemplateDownload serves the .xlsx price-list template.
// GET /catalog/template
func HandleCatalogTemplateDownload(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateCatalogTemplate(app)
		if err != nil {
			zap.L().Error("catalog_import: HandleCatalogTemplateDownload: generate", zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "No se pudo generar la plantilla.")
		}

		e.Response.Header().Set("Content-Type", xlsxContentType)
		e.Response.Header().Set("Content-Disposition", `attachment; filename="Plantilla_Lista_Precios.xlsx"`)
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleCatalogValidate validates an uploaded price list and returns the
// results partial.
// POST /catalog/import
func HandleCatalogValidate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Archivo demasiado grande o formulario no válido")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Seleccione un archivo")
		}
		defer file.Close()

		result, err := services.ValidateCatalogFile(app, file, header.Filename)
		if err != nil {
			zap.L().Warn("catalog_import: HandleCatalogValidate: invalid file", zap.String("file", header.Filename), zap.Error(err))
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		var parsedRowsJSON, errorsJSON string
		if result.ErrorRows == 0 {
			b, err := json.Marshal(result.ParsedRows)
			if err != nil {
				zap.L().Error("catalog_import: HandleCatalogValidate: marshal rows", zap.Error(err))
			} else {
				parsedRowsJSON = string(b)
			}
		} else {
			b, err := json.Marshal(result.Errors)
			if err != nil {
				zap.L().Error("catalog_import: HandleCatalogValidate: marshal errors", zap.Error(err))
			} else {
				errorsJSON = string(b)
			}
		}

		return templates.CatalogValidationResults(result, parsedRowsJSON, errorsJSON).Render(e.Request.Context(), e.Response)
	}
}

// HandleCatalogImportCommit re-validates and stores the parsed rows.
// POST /catalog/import/commit
func HandleCatalogImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Datos de formulario no válidos")
		}

		parsedJSON := e.Request.FormValue("parsed_rows_json")
		if parsedJSON == "" {
			return ErrorToast(e, http.StatusBadRequest, "Faltan los datos del archivo. Vuelva a subirlo.")
		}
		var parsedRows []map[string]string
		if err := json.Unmarshal([]byte(parsedJSON), &parsedRows); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Datos del archivo no válidos")
		}

		// batch ties the log lines of one commit together.
		logger := zap.L().With(zap.String("batch", uuid.NewString()))
		logger.Info("catalog_import: committing", zap.Int("rows", len(parsedRows)))

		result, err := services.CommitCatalogImport(app, parsedRows)
		if err != nil {
			logger.Error("catalog_import: HandleCatalogImportCommit: commit", zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "Ocurrió un error. Intente nuevamente.")
		}

		logger.Info("catalog_import: committed",
			zap.Int("rows", result.TotalRows),
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated),
			zap.Int("failed", result.Failed))

		if result.Failed == 0 {
			SetToast(e, toastSuccess, fmt.Sprintf("%d servicios importados", result.Imported()))
		}
		return templates.CatalogImportResult(result).Render(e.Request.Context(), e.Response)
	}
}

// HandleCatalogErrorReport downloads the validation errors as a workbook.
// POST /catalog/import/errors
func HandleCatalogErrorReport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var validationErrors []services.ValidationError
		if err := json.Unmarshal([]byte(e.Request.FormValue("errors_json")), &validationErrors); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Datos de errores no válidos")
		}

		xlsxBytes, err := services.GenerateErrorReport(validationErrors)
		if err != nil {
			zap.L().Error("catalog_import: HandleCatalogErrorReport: generate", zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "Ocurrió un error. Intente nuevamente.")
		}

		filename := fmt.Sprintf("Lista_Precios_Errores_%s.xlsx", time.Now().Format(dateLayout))
		e.Response.Header().Set("Content-Type", xlsxContentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}
