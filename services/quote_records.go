package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// LoadCatalog reads every service with its first norma and método resolved
// to their codes.
func LoadCatalog(app core.App) (*Catalog, error) {
	servicios, err := app.FindAllRecords("servicios")
	if err != nil {
		return nil, fmt.Errorf("load servicios: %w", err)
	}
	normaCodes, err := codesByID(app, "normas")
	if err != nil {
		return nil, err
	}
	metodoCodes, err := codesByID(app, "metodos")
	if err != nil {
		return nil, err
	}

	entries := make([]CatalogEntry, 0, len(servicios))
	for _, rec := range servicios {
		entry := CatalogEntry{
			ID:        rec.Id,
			Name:      rec.GetString("nombre"),
			UnitPrice: rec.GetFloat("precio_base"),
			Unit:      rec.GetString("unidad_base"),
		}
		if ids := rec.GetStringSlice("normas"); len(ids) > 0 {
			entry.NormaID = ids[0]
			entry.NormaCode = normaCodes[ids[0]]
		}
		if ids := rec.GetStringSlice("metodos"); len(ids) > 0 {
			entry.MetodoID = ids[0]
			entry.MetodoCode = metodoCodes[ids[0]]
		}
		entries = append(entries, entry)
	}
	return NewCatalog(entries), nil
}

func codesByID(app core.App, collection string) (map[string]string, error) {
	records, err := app.FindAllRecords(collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	codes := make(map[string]string, len(records))
	for _, rec := range records {
		codes[rec.Id] = rec.GetString("codigo")
	}
	return codes, nil
}

// LoadQuoteItems returns the stored rows of a quotation in sort order.
func LoadQuoteItems(app core.App, quoteID string) ([]LineItem, error) {
	records, err := app.FindRecordsByFilter(
		"cotizacion_items",
		"cotizacion = {:quoteId}",
		"sort_order",
		0,
		0,
		map[string]any{"quoteId": quoteID},
	)
	if err != nil {
		return nil, fmt.Errorf("load items of %s: %w", quoteID, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].GetInt("sort_order") < records[j].GetInt("sort_order")
	})

	rows := make([]LineItem, 0, len(records))
	for _, rec := range records {
		kind, err := ParseRowKind(rec.GetString("tipo_fila"))
		if err != nil {
			kind = KindService
		}
		row := LineItem{
			Kind:  kind,
			Label: rec.GetString("descripcion_especifica"),
			Note:  rec.GetString("nota"),
		}
		if kind == KindService {
			row.CatalogID = rec.GetString("servicio")
			row.Quantity = rec.GetFloat("cantidad")
			row.UnitPrice = rec.GetFloat("precio_unitario")
			row.Unit = rec.GetString("unidad_medida")
			row.NormaLabel = rec.GetString("norma_nombre")
			row.NormaID = rec.GetString("norma")
			row.MetodoID = rec.GetString("metodo")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// QuoteInput is a validated-on-save quotation header plus its rows. An empty
// ID creates a new quotation.
type QuoteInput struct {
	ID              string
	ClienteID       string
	Asunto          string
	Proyecto        string
	Persona         string
	Correo          string
	Telefono        string
	Fecha           time.Time
	Estado          string
	FormaPago       string
	FormaPagoCustom string
	PlazoDias       int
	ValidezDias     int
	Observaciones   string
	TaxRate         float64
	Rows            []LineItem
}

// Validate checks the fields a quotation cannot be stored without.
func (in QuoteInput) Validate() error {
	if strings.TrimSpace(in.ClienteID) == "" {
		return &FieldError{Field: "cliente", Message: "a client is required"}
	}
	services := 0
	for i, row := range in.Rows {
		switch {
		case row.Kind.IsHeader():
			if strings.TrimSpace(row.Label) == "" {
				return &FieldError{Field: "detalle_fila", Message: fmt.Sprintf("row %d: header label is required", i+1)}
			}
		case row.Kind == KindService:
			if !(row.Quantity > 0) || math.IsInf(row.Quantity, 0) {
				return &FieldError{Field: "detalle_fila", Message: fmt.Sprintf("row %d: quantity must be positive", i+1)}
			}
			if !(row.UnitPrice >= 0) || math.IsInf(row.UnitPrice, 0) {
				return &FieldError{Field: "detalle_fila", Message: fmt.Sprintf("row %d: unit price cannot be negative", i+1)}
			}
			services++
		}
	}
	if services == 0 {
		return &FieldError{Field: "detalles_json", Message: "at least one service line is required"}
	}
	if in.Estado != "" && !containsString(QuoteStatusOptions, in.Estado) {
		return &FieldError{Field: "estado", Message: fmt.Sprintf("unknown status %q", in.Estado)}
	}
	if in.FormaPago == "Personalizado" && strings.TrimSpace(in.FormaPagoCustom) == "" {
		return &FieldError{Field: "forma_pago_personalizada", Message: "describe the custom payment term"}
	}
	if in.PlazoDias < 0 || in.ValidezDias < 0 {
		return &FieldError{Field: "plazo_entrega_dias", Message: "day counts cannot be negative"}
	}
	return nil
}

// SaveQuote stores the header, replaces all item rows and recomputes the
// totals in one transaction. Offer numbers are only assigned on create.
func SaveQuote(app core.App, in QuoteInput, offerPrefix string) (*core.Record, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Fecha.IsZero() {
		in.Fecha = time.Now()
	}
	if in.Estado == "" {
		in.Estado = "Pendiente"
	}
	totals := ComputeTotals(in.Rows, in.TaxRate)

	var saved *core.Record
	err := app.RunInTransaction(func(txApp core.App) error {
		if _, err := txApp.FindRecordById("clientes", in.ClienteID); err != nil {
			return &FieldError{Field: "cliente", Message: "client not found"}
		}

		var quote *core.Record
		if in.ID != "" {
			rec, err := txApp.FindRecordById("cotizaciones", in.ID)
			if err != nil {
				return fmt.Errorf("%w: quotation %q", ErrNotFound, in.ID)
			}
			quote = rec
		} else {
			col, err := txApp.FindCollectionByNameOrId("cotizaciones")
			if err != nil {
				return fmt.Errorf("find cotizaciones collection: %w", err)
			}
			number, err := GenerateOfferNumber(txApp, offerPrefix, in.Fecha)
			if err != nil {
				return err
			}
			quote = core.NewRecord(col)
			quote.Set("numero_oferta", number)
		}

		quote.Set("cliente", in.ClienteID)
		quote.Set("asunto_servicio", strings.TrimSpace(in.Asunto))
		quote.Set("proyecto_asociado", strings.TrimSpace(in.Proyecto))
		quote.Set("persona_contacto", strings.TrimSpace(in.Persona))
		quote.Set("correo_contacto", strings.TrimSpace(in.Correo))
		quote.Set("telefono_contacto", strings.TrimSpace(in.Telefono))
		quote.Set("fecha_generacion", in.Fecha.Format("2006-01-02"))
		quote.Set("estado", in.Estado)
		quote.Set("forma_pago", in.FormaPago)
		quote.Set("forma_pago_personalizada", strings.TrimSpace(in.FormaPagoCustom))
		quote.Set("plazo_entrega_dias", in.PlazoDias)
		quote.Set("validez_oferta_dias", in.ValidezDias)
		quote.Set("observaciones_condiciones", strings.TrimSpace(in.Observaciones))
		quote.Set("tasa_igv", totals.TaxRate)
		quote.Set("subtotal", Round2(totals.Subtotal))
		quote.Set("impuesto_igv", Round2(totals.Tax))
		quote.Set("monto_total", Round2(totals.Total))
		if err := txApp.Save(quote); err != nil {
			return fmt.Errorf("save quotation: %w", err)
		}

		if err := replaceQuoteItems(txApp, quote.Id, in.Rows); err != nil {
			return err
		}
		saved = quote
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func replaceQuoteItems(app core.App, quoteID string, rows []LineItem) error {
	old, err := app.FindRecordsByFilter(
		"cotizacion_items",
		"cotizacion = {:quoteId}",
		"",
		0,
		0,
		map[string]any{"quoteId": quoteID},
	)
	if err != nil {
		return fmt.Errorf("load old items: %w", err)
	}
	for _, rec := range old {
		if err := app.Delete(rec); err != nil {
			return fmt.Errorf("delete item %s: %w", rec.Id, err)
		}
	}

	col, err := app.FindCollectionByNameOrId("cotizacion_items")
	if err != nil {
		return fmt.Errorf("find cotizacion_items collection: %w", err)
	}
	for i, row := range rows {
		item := core.NewRecord(col)
		item.Set("cotizacion", quoteID)
		item.Set("sort_order", i)
		item.Set("tipo_fila", string(row.Kind))
		item.Set("descripcion_especifica", strings.TrimSpace(row.Label))
		item.Set("nota", row.Note)
		if row.Kind == KindService {
			setIfExists(app, item, "servicio", "servicios", row.CatalogID)
			setIfExists(app, item, "norma", "normas", row.NormaID)
			setIfExists(app, item, "metodo", "metodos", row.MetodoID)
			item.Set("norma_nombre", row.NormaLabel)
			unit := row.Unit
			if unit == "" {
				unit = DefaultUnit
			}
			item.Set("unidad_medida", unit)
			item.Set("cantidad", row.Quantity)
			item.Set("precio_unitario", row.UnitPrice)
			item.Set("total_detalle", Round2(LineSubtotal(row)))
		}
		if err := app.Save(item); err != nil {
			return fmt.Errorf("save item %d: %w", i, err)
		}
	}
	return nil
}

// setIfExists sets a relation only when the referenced record is still
// there; a retired catalog entry keeps its printed text but loses the link.
func setIfExists(app core.App, rec *core.Record, field, collection, id string) {
	if id == "" {
		return
	}
	if _, err := app.FindRecordById(collection, id); err != nil {
		return
	}
	rec.Set(field, id)
}

// DeleteQuote removes a quotation and, by cascade, its items. Accepted
// quotations are locked.
func DeleteQuote(app core.App, quoteID string) error {
	rec, err := app.FindRecordById("cotizaciones", quoteID)
	if err != nil {
		return fmt.Errorf("%w: quotation %q", ErrNotFound, quoteID)
	}
	if IsLockedStatus(rec.GetString("estado")) {
		return ErrLocked
	}
	if err := app.Delete(rec); err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
