package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"go.uber.org/zap"

	"labquote/services"
)

// MigrateLegacyTaxRates finds quotations whose tasa_igv was stored as a
// percentage (18 instead of 0.18), stores the fraction and recomputes the
// tax and total from the stored subtotal. Safe to call on every startup --
// returns early if nothing to migrate.
func MigrateLegacyTaxRates(app *pocketbase.PocketBase) error {
	quotesCol, err := app.FindCollectionByNameOrId("cotizaciones")
	if err != nil {
		return fmt.Errorf("migrate: could not find cotizaciones collection: %w", err)
	}

	legacy, err := app.FindRecordsByFilter(
		quotesCol,
		"tasa_igv > 1",
		"",
		0,
		0,
		nil,
	)
	if err != nil {
		return fmt.Errorf("migrate: could not query legacy tax rates: %w", err)
	}

	if len(legacy) == 0 {
		return nil
	}

	zap.L().Info("migrate: normalizing percentage tax rates", zap.Int("quotes", len(legacy)))

	for _, quote := range legacy {
		rate := services.NormalizeTaxRate(quote.GetFloat("tasa_igv"))
		subtotal := quote.GetFloat("subtotal")
		tax := services.Round2(subtotal * rate)

		quote.Set("tasa_igv", rate)
		quote.Set("impuesto_igv", tax)
		quote.Set("monto_total", services.Round2(subtotal+tax))

		if err := app.Save(quote); err != nil {
			zap.L().Warn("migrate: failed to normalize tax rate",
				zap.String("quote", quote.Id),
				zap.String("numero_oferta", quote.GetString("numero_oferta")),
				zap.Error(err),
			)
			continue
		}
	}

	zap.L().Info("migrate: tax rate migration complete")
	return nil
}
