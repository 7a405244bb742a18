package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/config"
	"labquote/services"
	"labquote/templates"
)

// Editor commands posted to /quotes/editor/{command}.
const (
	cmdAddHeader     = "add-header"
	cmdSelectHeader  = "select-header"
	cmdSelectService = "select-service"
	cmdAddService    = "add-service"
	cmdRemove        = "remove"
	cmdBeginEdit     = "begin-edit"
	cmdCancelEdit    = "cancel-edit"
	cmdRefresh       = "refresh"
)

// HandleQuoteNew renders an empty quotation.
// GET /quotes/new
func HandleQuoteNew(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		catalog, err := services.LoadCatalog(app)
		if err != nil {
			zap.L().Error("quote_editor: HandleQuoteNew: load catalog", zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "No se pudo cargar el catálogo.")
		}

		data := templates.QuoteEditorData{
			Fecha:     time.Now().Format(dateLayout),
			Estado:    "Pendiente",
			FormaPago: "Contado",
			TaxRate:   inputNumber(cfg.TaxRate),
		}
		editor := services.NewEditor(catalog, nil, cfg.TaxRate)
		return renderQuoteEditor(e, app, cfg, catalog, editor, data)
	}
}

// HandleQuoteEdit renders a stored quotation with its rows.
// GET /quotes/{id}/edit
func HandleQuoteEdit(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return renderStoredQuote(e, app, cfg, false)
	}
}

// HandleQuoteClone renders a copy of a stored quotation as a new, pending
// quotation dated today. Nothing is saved until the form is submitted.
// GET /quotes/{id}/clone
func HandleQuoteClone(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return renderStoredQuote(e, app, cfg, true)
	}
}

func renderStoredQuote(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config, clone bool) error {
	quoteID := e.Request.PathValue("id")
	quote, err := app.FindRecordById("cotizaciones", quoteID)
	if err != nil {
		return ErrorToast(e, http.StatusNotFound, "Cotización no encontrada")
	}

	catalog, err := services.LoadCatalog(app)
	if err != nil {
		zap.L().Error("quote_editor: renderStoredQuote: load catalog", zap.Error(err))
		return ErrorToast(e, http.StatusInternalServerError, "No se pudo cargar el catálogo.")
	}
	items, err := services.LoadQuoteItems(app, quoteID)
	if err != nil {
		zap.L().Error("quote_editor: renderStoredQuote: load items", zap.String("quote", quoteID), zap.Error(err))
		return ErrorToast(e, http.StatusInternalServerError, "No se pudo cargar el detalle de la cotización.")
	}

	taxRate := quote.GetFloat("tasa_igv")
	data := templates.QuoteEditorData{
		ID:              quote.Id,
		OfferNumber:     quote.GetString("numero_oferta"),
		ClienteID:       quote.GetString("cliente"),
		Asunto:          quote.GetString("asunto_servicio"),
		Proyecto:        quote.GetString("proyecto_asociado"),
		Persona:         quote.GetString("persona_contacto"),
		Correo:          quote.GetString("correo_contacto"),
		Telefono:        quote.GetString("telefono_contacto"),
		Fecha:           quote.GetString("fecha_generacion"),
		Estado:          quote.GetString("estado"),
		FormaPago:       quote.GetString("forma_pago"),
		FormaPagoCustom: quote.GetString("forma_pago_personalizada"),
		PlazoDias:       dayCount(quote.GetInt("plazo_entrega_dias")),
		ValidezDias:     dayCount(quote.GetInt("validez_oferta_dias")),
		Observaciones:   quote.GetString("observaciones_condiciones"),
		TaxRate:         inputNumber(services.NormalizeTaxRate(taxRate)),
	}
	if clone {
		data.ClonedFrom = data.OfferNumber
		data.ID = ""
		data.OfferNumber = ""
		data.Estado = "Pendiente"
		data.Fecha = time.Now().Format(dateLayout)
	}

	editor := services.NewEditor(catalog, items, taxRate)
	return renderQuoteEditor(e, app, cfg, catalog, editor, data)
}

func dayCount(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func renderQuoteEditor(e *core.RequestEvent, app *pocketbase.PocketBase, cfg config.Config, catalog *services.Catalog, editor *services.Editor, data templates.QuoteEditorData) error {
	items, err := buildItemsData(app, cfg, catalog, editor, templates.ItemInputs{}, services.ServicePreview{})
	if err != nil {
		zap.L().Error("quote_editor: renderQuoteEditor: view", zap.Error(err))
		return ErrorToast(e, http.StatusInternalServerError, "Ocurrió un error. Intente nuevamente.")
	}
	data.Items = items
	data.Clients = clientOptions(app)
	data.Categories = categoryOptions(app)

	var component templ.Component
	if e.Request.Header.Get("HX-Request") == "true" {
		component = templates.QuoteEditorContent(data)
	} else {
		component = templates.QuoteEditorPage(data)
	}
	return component.Render(e.Request.Context(), e.Response)
}

// HandleEditorCommand applies one editor command to the posted rows and
// re-renders the whole items section. Missing selections leave the rows
// unchanged; unknown catalog ids and stale row indices also raise a toast.
// POST /quotes/editor/{command}
func HandleEditorCommand(app *pocketbase.PocketBase, cfg config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		command := e.Request.PathValue("command")

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Datos de formulario no válidos")
		}

		catalog, err := services.LoadCatalog(app)
		if err != nil {
			zap.L().Error("quote_editor: HandleEditorCommand: load catalog", zap.Error(err))
			return ErrorToast(e, http.StatusInternalServerError, "No se pudo cargar el catálogo.")
		}

		taxRate, err := services.ParseFieldNumber("tasa_igv", e.Request.FormValue("tasa_igv"), cfg.TaxRate)
		if err != nil {
			msg, _ := userMessage(err)
			return ErrorToast(e, http.StatusBadRequest, msg)
		}

		editor, err := services.RestoreEditor(catalog, e.Request.FormValue("detalles_json"), e.Request.FormValue("edit_index"), taxRate)
		if err != nil {
			zap.L().Warn("quote_editor: HandleEditorCommand: restore", zap.String("command", command), zap.Error(err))
			return ErrorToast(e, http.StatusBadRequest, "El detalle de la cotización no es válido. Recargue la página.")
		}

		inputs := inputsFromForm(e.Request)
		var preview services.ServicePreview

		switch command {
		case cmdAddHeader, cmdSelectHeader:
			kind, err := services.ParseRowKind(e.Request.FormValue("kind"))
			if err != nil || !kind.IsHeader() {
				return ErrorToast(e, http.StatusBadRequest, "Tipo de encabezado no válido")
			}
			label := inputs.CategoryLabel
			if kind == services.KindSubcategory {
				label = inputs.SubcategoryLabel
			}

			var added bool
			if command == cmdAddHeader {
				err = editor.AddHeader(kind, label)
				added = err == nil
			} else {
				added, err = editor.SelectHeader(kind, label, services.SelectionUser)
			}
			if err != nil && !errors.Is(err, services.ErrValidation) {
				return editorFailure(e, command, err)
			}
			if added {
				inputs.CategoryLabel, inputs.SubcategoryLabel = "", ""
			}

		case cmdSelectService:
			preview, err = editor.SelectService(inputs.ServiceID, services.SelectionUser)
			if err != nil {
				if !errors.Is(err, services.ErrNotFound) {
					return editorFailure(e, command, err)
				}
				SetToast(e, toastError, "El servicio seleccionado no existe en el catálogo.")
				inputs.ServiceID = ""
			} else if preview.Found {
				inputs.UnitPrice = inputNumber(preview.UnitPrice)
				if strings.TrimSpace(inputs.Quantity) == "" {
					inputs.Quantity = "1"
				}
			}

		case cmdAddService:
			err = editor.AddOrUpdateService(inputs.ServiceID, inputs.Quantity, inputs.UnitPrice, inputs.Note)
			switch {
			case err == nil:
				inputs = templates.ItemInputs{}
			case errors.Is(err, services.ErrNotFound):
				SetToast(e, toastError, "El servicio seleccionado no existe en el catálogo.")
			case errors.Is(err, services.ErrValidation):
				// nothing selected
			default:
				return editorFailure(e, command, err)
			}

		case cmdRemove, cmdBeginEdit:
			index, convErr := strconv.Atoi(strings.TrimSpace(e.Request.FormValue("index")))
			if convErr != nil {
				return ErrorToast(e, http.StatusBadRequest, "Fila no válida")
			}
			if command == cmdRemove {
				err = editor.Remove(index)
			} else {
				var snap services.EditSnapshot
				snap, err = editor.BeginEdit(index)
				if err == nil {
					inputs = inputsFromSnapshot(snap)
				}
			}
			if errors.Is(err, services.ErrIndexOutOfRange) {
				SetToast(e, toastError, "La fila ya no existe. La tabla se actualizó.")
			} else if err != nil {
				return editorFailure(e, command, err)
			}
			if command == cmdRemove && editor.State() == services.StateIdle {
				inputs = templates.ItemInputs{}
			}

		case cmdCancelEdit:
			editor.CancelEdit()
			inputs = templates.ItemInputs{}

		case cmdRefresh:

		default:
			return ErrorToast(e, http.StatusNotFound, "Comando desconocido")
		}

		data, err := buildItemsData(app, cfg, catalog, editor, inputs, preview)
		if err != nil {
			return editorFailure(e, command, err)
		}
		return templates.QuoteItemsSection(data).Render(e.Request.Context(), e.Response)
	}
}

func editorFailure(e *core.RequestEvent, command string, err error) error {
	zap.L().Error("quote_editor: command failed", zap.String("command", command), zap.Error(err))
	return ErrorToast(e, http.StatusInternalServerError, "Ocurrió un error. Intente nuevamente.")
}
