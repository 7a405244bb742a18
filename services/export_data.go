package services

import (
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// ExportCompany is the issuing laboratory printed in the document header.
type ExportCompany struct {
	Name    string
	Address string
	Email   string
}

// QuoteExportRow is one printed line: a lettered header or a numbered
// service line with its amounts.
type QuoteExportRow struct {
	Kind        RowKind
	Position    string
	Description string
	Reference   string
	Note        string
	Unit        string
	Qty         float64
	UnitPrice   float64
	Subtotal    float64
}

// IsHeader reports whether the row prints as a grouping band.
func (r QuoteExportRow) IsHeader() bool { return r.Kind.IsHeader() }

// QuoteExportData holds everything the PDF and Excel exports print.
type QuoteExportData struct {
	Company        ExportCompany
	CurrencySymbol string

	OfferNumber string
	Date        string
	Status      string

	ClientName    string
	ClientRUC     string
	ClientAddress string
	Contact       string
	Email         string
	Phone         string

	Subject      string
	Project      string
	PaymentTerm  string
	DeliveryDays int
	ValidityDays int
	Observations string

	Rows          []QuoteExportRow
	Subtotal      float64
	TaxRate       float64
	Tax           float64
	Total         float64
	AmountInWords string
}

// NewQuoteExportRows projects stored rows through the same numbering the
// editor shows.
func NewQuoteExportRows(rows []LineItem, catalog *Catalog) []QuoteExportRow {
	rendered := RenderRows(rows, catalog, -1)
	out := make([]QuoteExportRow, 0, len(rendered))
	for _, r := range rendered {
		out = append(out, QuoteExportRow{
			Kind:        r.Kind,
			Position:    r.Position,
			Description: r.Label,
			Reference:   r.NormaLabel,
			Note:        r.Note,
			Unit:        r.Unit,
			Qty:         r.Quantity,
			UnitPrice:   r.UnitPrice,
			Subtotal:    r.Subtotal,
		})
	}
	return out
}

// BuildQuoteExportData assembles a quotation, its client and its rows.
// Totals are recomputed from the rows rather than read from the header.
func BuildQuoteExportData(app core.App, quoteID string, company ExportCompany, currencySymbol string) (*QuoteExportData, error) {
	quote, err := app.FindRecordById("cotizaciones", quoteID)
	if err != nil {
		return nil, fmt.Errorf("%w: quotation %q", ErrNotFound, quoteID)
	}

	data := &QuoteExportData{
		Company:        company,
		CurrencySymbol: currencySymbol,
		OfferNumber:    quote.GetString("numero_oferta"),
		Date:           quote.GetString("fecha_generacion"),
		Status:         quote.GetString("estado"),
		Contact:        quote.GetString("persona_contacto"),
		Email:          quote.GetString("correo_contacto"),
		Phone:          quote.GetString("telefono_contacto"),
		Subject:        quote.GetString("asunto_servicio"),
		Project:        quote.GetString("proyecto_asociado"),
		PaymentTerm:    PaymentTermLabel(quote.GetString("forma_pago"), quote.GetString("forma_pago_personalizada")),
		DeliveryDays:   quote.GetInt("plazo_entrega_dias"),
		ValidityDays:   quote.GetInt("validez_oferta_dias"),
		Observations:   quote.GetString("observaciones_condiciones"),
	}
	if data.CurrencySymbol == "" {
		data.CurrencySymbol = DefaultCurrencySymbol
	}

	if clientID := quote.GetString("cliente"); clientID != "" {
		client, err := app.FindRecordById("clientes", clientID)
		if err != nil {
			zap.L().Warn("export: client not found", zap.String("quote", quoteID), zap.String("client", clientID), zap.Error(err))
		} else {
			data.ClientName = client.GetString("razon_social")
			data.ClientRUC = client.GetString("ruc")
			data.ClientAddress = client.GetString("direccion")
			if data.Contact == "" {
				data.Contact = client.GetString("persona_contacto")
			}
			if data.Email == "" {
				data.Email = client.GetString("correo_contacto")
			}
			if data.Phone == "" {
				data.Phone = client.GetString("telefono_contacto")
			}
		}
	}

	items, err := LoadQuoteItems(app, quoteID)
	if err != nil {
		return nil, err
	}
	catalog, err := LoadCatalog(app)
	if err != nil {
		zap.L().Warn("export: catalog unavailable, printing stored text only", zap.Error(err))
	}
	data.Rows = NewQuoteExportRows(items, catalog)

	totals := ComputeTotals(items, quote.GetFloat("tasa_igv"))
	data.Subtotal = totals.Subtotal
	data.TaxRate = totals.TaxRate
	data.Tax = totals.Tax
	data.Total = totals.Total
	data.AmountInWords = AmountToWords(Round2(totals.Total))

	return data, nil
}

// ExportFilename is the download name for a quotation export.
func ExportFilename(offerNumber, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '/':
			return '_'
		}
		return -1
	}, offerNumber)
	if name == "" {
		name = "cotizacion"
	}
	return name + "." + ext
}

// joinNonEmpty joins non-empty strings with the given separator.
func joinNonEmpty(parts []string, sep string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// fmtField returns "label: value" if value is non-empty, otherwise empty string.
func fmtField(label, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s", label, value)
}
