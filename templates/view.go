// Package templates renders the quotation screens. Markup lives in the
// .templ sources; the *_templ.go files are produced by `templ generate`.
package templates

//go:generate templ generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"labquote/services"
)

// Option is a value/label pair for select inputs.
type Option struct {
	Value string
	Label string
}

type csrfKey struct{}

// WithCSRFToken stores the request's CSRF token for forms rendered later in
// the request.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfKey{}, token)
}

// CSRFToken returns the token stored by WithCSRFToken, or "".
func CSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(csrfKey{}).(string); ok {
		return token
	}
	return ""
}

// csrfHeaders is the hx-headers value that makes every HTMX request carry
// the token.
func csrfHeaders(ctx context.Context) string {
	raw, _ := json.Marshal(map[string]string{services.CSRFHeaderName: CSRFToken(ctx)})
	return string(raw)
}

// QuoteListItem is one row of the quotation list.
type QuoteListItem struct {
	ID          string
	OfferNumber string
	ClientName  string
	Subject     string
	Date        string
	Status      string
	Total       string
	Locked      bool
}

// QuoteListData holds the list and the active search.
type QuoteListData struct {
	Search     string
	Items      []QuoteListItem
	TotalCount int
}

func quoteCount(n int) string {
	if n == 1 {
		return "1 cotización"
	}
	return strconv.Itoa(n) + " cotizaciones"
}

// CatalogImportData is the upload screen for the service price list.
type CatalogImportData struct {
	ServiceCount int
}

func importFailureTitle(result *services.ImportResult) string {
	if result.Imported() == 0 {
		return "No se importó ningún servicio"
	}
	return fmt.Sprintf("Importación incompleta: %d servicios importados, %d filas rechazadas", result.Imported(), result.Failed)
}

// QuoteEditorData is the quotation header form plus its items section.
// Header values are kept as submitted text.
type QuoteEditorData struct {
	ID          string
	OfferNumber string
	ClonedFrom  string

	Clients    []Option
	Categories []Option

	ClienteID       string
	Asunto          string
	Proyecto        string
	Persona         string
	Correo          string
	Telefono        string
	Fecha           string
	Estado          string
	FormaPago       string
	FormaPagoCustom string
	PlazoDias       string
	ValidezDias     string
	Observaciones   string
	TaxRate         string

	Items QuoteItemsData
}

func (d QuoteEditorData) title() string {
	if d.ID == "" {
		return "Nueva cotización"
	}
	return "Cotización " + d.OfferNumber
}

func (d QuoteEditorData) action() string {
	if d.ID == "" {
		return "/quotes"
	}
	return "/quotes/" + d.ID
}

// ItemInputs are the current values of the row input widgets.
type ItemInputs struct {
	CategoryLabel    string
	SubcategoryLabel string
	ServiceID        string
	Quantity         string
	UnitPrice        string
	Note             string
}

// QuoteItemsData drives the items section of the quotation editor.
type QuoteItemsData struct {
	View           services.EditorView
	Preview        services.ServicePreview
	Inputs         ItemInputs
	Services       []Option
	Categories     []string
	Subcategories  []string
	CurrencySymbol string
}

func stateName(view services.EditorView) string {
	if view.EditIndex >= 0 {
		return services.StateEditing.String()
	}
	return services.StateIdle.String()
}

func editIndexValue(view services.EditorView) string {
	if view.EditIndex < 0 {
		return ""
	}
	return strconv.Itoa(view.EditIndex)
}

func addLabel(view services.EditorView) string {
	if view.Intent == services.IntentUpdate {
		return "Actualizar"
	}
	return "Agregar servicio"
}

func rowClass(row services.RenderedRow) string {
	class := "row-" + string(row.Kind)
	if row.Editing {
		class += " editing"
	}
	return class
}

func indexVals(i int) string {
	return `{"index":"` + strconv.Itoa(i) + `"}`
}

func kindVals(kind services.RowKind) string {
	return `{"kind":"` + string(kind) + `"}`
}
