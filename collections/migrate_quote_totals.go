package collections

import (
	"fmt"
	"math"

	"github.com/pocketbase/pocketbase"
	"go.uber.org/zap"

	"labquote/services"
)

// MigrateQuoteTotals recomputes the stored subtotal, tax and total of every
// quotation whose subtotal disagrees with the sum of its service lines, and
// backfills missing line totals. Safe to call on every startup.
func MigrateQuoteTotals(app *pocketbase.PocketBase) error {
	quotesCol, err := app.FindCollectionByNameOrId("cotizaciones")
	if err != nil {
		return fmt.Errorf("migrate_totals: could not find cotizaciones collection: %w", err)
	}

	itemsCol, err := app.FindCollectionByNameOrId("cotizacion_items")
	if err != nil {
		return fmt.Errorf("migrate_totals: could not find cotizacion_items collection: %w", err)
	}

	quotes, err := app.FindAllRecords(quotesCol)
	if err != nil {
		return fmt.Errorf("migrate_totals: could not query cotizaciones: %w", err)
	}

	for _, quote := range quotes {
		items, err := app.FindRecordsByFilter(
			itemsCol,
			"cotizacion = {:quoteId} && tipo_fila = 'servicio'",
			"",
			0, 0,
			map[string]any{"quoteId": quote.Id},
		)
		if err != nil {
			zap.L().Warn("migrate_totals: could not query items", zap.String("quote", quote.Id), zap.Error(err))
			continue
		}

		var subtotal float64
		for _, item := range items {
			line := services.Round2(item.GetFloat("cantidad") * item.GetFloat("precio_unitario"))
			subtotal += line
			if item.GetFloat("total_detalle") == line {
				continue
			}
			item.Set("total_detalle", line)
			if err := app.Save(item); err != nil {
				zap.L().Warn("migrate_totals: failed to backfill line total",
					zap.String("item", item.Id), zap.Error(err))
			}
		}

		if math.Abs(subtotal-quote.GetFloat("subtotal")) < 0.005 {
			continue
		}

		rate := services.NormalizeTaxRate(quote.GetFloat("tasa_igv"))
		tax := services.Round2(subtotal * rate)
		quote.Set("subtotal", services.Round2(subtotal))
		quote.Set("impuesto_igv", tax)
		quote.Set("monto_total", services.Round2(subtotal+tax))
		if err := app.Save(quote); err != nil {
			zap.L().Warn("migrate_totals: failed to update totals",
				zap.String("quote", quote.Id), zap.Error(err))
			continue
		}
		zap.L().Info("migrate_totals: recomputed totals",
			zap.String("numero_oferta", quote.GetString("numero_oferta")),
			zap.Float64("subtotal", services.Round2(subtotal)),
		)
	}

	return nil
}
