package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/config"
	"labquote/services"
	"labquote/templates"
)

const dateLayout = "2006-01-02"

// fieldLabels names quotation form fields the way the form shows them.
var fieldLabels = map[string]string{
	"cliente":                  "Cliente",
	"fecha_generacion":         "Fecha",
	"estado":                   "Estado",
	"forma_pago_personalizada": "Forma de pago personalizada",
	"plazo_entrega_dias":       "Plazo de entrega",
	"validez_oferta_dias":      "Validez de la oferta",
	"tasa_igv":                 "Tasa IGV",
	"detalles_json":            "Detalle de la cotización",
	"detalle_fila":             "Detalle de la cotización",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// fieldErrorMessages are the toast texts for header validation failures.
var fieldErrorMessages = map[string]string{
	"cliente":                  "Seleccione un cliente.",
	"detalles_json":            "Agregue al menos un servicio a la cotización.",
	"estado":                   "El estado seleccionado no es válido.",
	"forma_pago_personalizada": "Describa la forma de pago personalizada.",
	"plazo_entrega_dias":       "Los días de plazo y validez no pueden ser negativos.",
	"detalle_fila":             "El detalle contiene filas no válidas. Revise cantidades, precios y encabezados.",
}

// userMessage turns a form or save error into the text shown in a toast.
// ok is false for errors the user cannot fix.
func userMessage(err error) (msg string, ok bool) {
	var formatErr *services.FormatError
	if errors.As(err, &formatErr) {
		return "Valor no válido en el campo " + fieldLabel(formatErr.Field), true
	}
	var fieldErr *services.FieldError
	if errors.As(err, &fieldErr) {
		if msg, found := fieldErrorMessages[fieldErr.Field]; found {
			return msg, true
		}
		return fieldLabel(fieldErr.Field) + ": " + fieldErr.Message, true
	}
	return "", false
}

// parseQuoteInput reads the quotation header and the detalles_json snapshot.
// Unparseable dates and numbers are FormatErrors naming the field.
func parseQuoteInput(r *http.Request, cfg config.Config) (services.QuoteInput, error) {
	in := services.QuoteInput{
		ClienteID:       strings.TrimSpace(r.FormValue("cliente")),
		Asunto:          r.FormValue("asunto_servicio"),
		Proyecto:        r.FormValue("proyecto_asociado"),
		Persona:         r.FormValue("persona_contacto"),
		Correo:          r.FormValue("correo_contacto"),
		Telefono:        r.FormValue("telefono_contacto"),
		Estado:          strings.TrimSpace(r.FormValue("estado")),
		FormaPago:       strings.TrimSpace(r.FormValue("forma_pago")),
		FormaPagoCustom: r.FormValue("forma_pago_personalizada"),
		Observaciones:   r.FormValue("observaciones_condiciones"),
	}

	if s := strings.TrimSpace(r.FormValue("fecha_generacion")); s != "" {
		fecha, err := time.Parse(dateLayout, s)
		if err != nil {
			return in, &services.FormatError{Field: "fecha_generacion", Value: s}
		}
		in.Fecha = fecha
	}

	var err error
	if in.PlazoDias, err = services.ParseFieldDays("plazo_entrega_dias", r.FormValue("plazo_entrega_dias")); err != nil {
		return in, err
	}
	if in.ValidezDias, err = services.ParseFieldDays("validez_oferta_dias", r.FormValue("validez_oferta_dias")); err != nil {
		return in, err
	}

	in.TaxRate, err = services.ParseFieldNumber("tasa_igv", r.FormValue("tasa_igv"), cfg.TaxRate)
	if err != nil {
		return in, err
	}

	in.Rows, err = services.ParseSnapshot(r.FormValue("detalles_json"))
	if err != nil {
		return in, err
	}
	return in, nil
}

// inputsFromForm echoes the row widgets of a posted editor form.
func inputsFromForm(r *http.Request) templates.ItemInputs {
	return templates.ItemInputs{
		CategoryLabel:    r.FormValue("categoria_label"),
		SubcategoryLabel: r.FormValue("subcategoria_label"),
		ServiceID:        strings.TrimSpace(r.FormValue("servicio_id")),
		Quantity:         r.FormValue("cantidad"),
		UnitPrice:        r.FormValue("precio_unitario"),
		Note:             r.FormValue("nota"),
	}
}

// inputsFromSnapshot fills the widgets with the row under edit.
func inputsFromSnapshot(snap services.EditSnapshot) templates.ItemInputs {
	switch snap.Kind {
	case services.KindCategory:
		return templates.ItemInputs{CategoryLabel: snap.Label}
	case services.KindSubcategory:
		return templates.ItemInputs{SubcategoryLabel: snap.Label}
	}
	return templates.ItemInputs{
		ServiceID: snap.CatalogID,
		Quantity:  inputNumber(snap.Quantity),
		UnitPrice: inputNumber(snap.UnitPrice),
		Note:      snap.Note,
	}
}

// inputNumber prints v without rounding so an unchanged edit round-trips.
func inputNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func serviceOptions(catalog *services.Catalog) []templates.Option {
	entries := catalog.Entries()
	opts := make([]templates.Option, 0, len(entries))
	for _, entry := range entries {
		label := entry.Name
		if ref := entry.ReferenceLabel(); ref != "" {
			label += " (" + ref + ")"
		}
		opts = append(opts, templates.Option{Value: entry.ID, Label: label})
	}
	return opts
}

// recordNames lists a name field of every record in collection, sorted.
func recordNames(app core.App, collection, field string) []string {
	records, err := app.FindAllRecords(collection)
	if err != nil {
		zap.L().Warn("quote_form: recordNames: load failed", zap.String("collection", collection), zap.Error(err))
		return nil
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		if name := rec.GetString(field); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func clientOptions(app core.App) []templates.Option {
	records, err := app.FindRecordsByFilter("clientes", "id != ''", "razon_social", 0, 0)
	if err != nil {
		zap.L().Warn("quote_form: clientOptions: load failed", zap.Error(err))
		return nil
	}
	opts := make([]templates.Option, 0, len(records))
	for _, rec := range records {
		opts = append(opts, templates.Option{
			Value: rec.Id,
			Label: rec.GetString("razon_social") + " (" + rec.GetString("ruc") + ")",
		})
	}
	return opts
}

func categoryOptions(app core.App) []templates.Option {
	records, err := app.FindRecordsByFilter("categorias_servicio", "id != ''", "nombre", 0, 0)
	if err != nil {
		zap.L().Warn("quote_form: categoryOptions: load failed", zap.Error(err))
		return nil
	}
	opts := make([]templates.Option, 0, len(records))
	for _, rec := range records {
		opts = append(opts, templates.Option{Value: rec.Id, Label: rec.GetString("nombre")})
	}
	return opts
}

// buildItemsData renders the editor and gathers the widget options. When a
// service is chosen but no preview was computed, the preview is filled in
// without committing anything.
func buildItemsData(app core.App, cfg config.Config, catalog *services.Catalog, editor *services.Editor, inputs templates.ItemInputs, preview services.ServicePreview) (templates.QuoteItemsData, error) {
	view, err := editor.View()
	if err != nil {
		return templates.QuoteItemsData{}, err
	}
	if !preview.Found && inputs.ServiceID != "" {
		preview, _ = editor.SelectService(inputs.ServiceID, services.SelectionProgrammatic)
	}
	return templates.QuoteItemsData{
		View:           view,
		Preview:        preview,
		Inputs:         inputs,
		Services:       serviceOptions(catalog),
		Categories:     recordNames(app, "categorias_servicio", "nombre"),
		Subcategories:  recordNames(app, "subcategorias_servicio", "nombre"),
		CurrencySymbol: cfg.CurrencySymbol,
	}, nil
}
