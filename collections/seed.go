package collections

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/services"
)

// ── Definition structs ───────────────────────────────────────────────────

type refDef struct {
	codigo string
	nombre string
}

type servicioDef struct {
	nombre      string
	descripcion string
	codigo      string
	precio      float64
	unidad      string
	categoria   string
	normas      []string // codigos
	metodos     []string // codigos
}

type categoriaDef struct {
	nombre        string
	subcategorias []string
}

var seedNormas = []refDef{
	{"ASTM D2216", "Determinación en laboratorio del contenido de agua (humedad) de suelo y roca"},
	{"ASTM D6913", "Distribución granulométrica de suelos por tamizado"},
	{"ASTM D4318", "Límite líquido, límite plástico e índice de plasticidad de suelos"},
	{"ASTM D1557", "Compactación de suelos con energía modificada (Proctor modificado)"},
	{"ASTM C39", "Resistencia a la compresión de especímenes cilíndricos de concreto"},
	{"NTP 339.034", "Método de ensayo normalizado para la determinación de la resistencia a la compresión del concreto"},
}

var seedMetodos = []refDef{
	{"A", "Método A"},
	{"B", "Método B"},
	{"C", "Método C"},
}

var seedCategorias = []categoriaDef{
	{"ENSAYOS DE SUELOS", []string{"ENSAYOS ESTÁNDAR", "ENSAYOS ESPECIALES"}},
	{"ENSAYOS DE CONCRETO", []string{"ROTURA DE PROBETAS"}},
}

var seedServicios = []servicioDef{
	{"Contenido de humedad", "Humedad natural de muestra de suelo", "LAB-001", 10, "Ensayo", "ENSAYOS DE SUELOS", []string{"ASTM D2216"}, nil},
	{"Análisis granulométrico por tamizado", "Granulometría de agregados y suelos", "LAB-002", 45, "Muestra", "ENSAYOS DE SUELOS", []string{"ASTM D6913"}, nil},
	{"Límites de Atterberg", "Límite líquido y límite plástico", "LAB-003", 60, "Muestra", "ENSAYOS DE SUELOS", []string{"ASTM D4318"}, []string{"A"}},
	{"Proctor modificado", "Relación humedad-densidad", "LAB-004", 150, "Ensayo", "ENSAYOS DE SUELOS", []string{"ASTM D1557"}, []string{"A", "B", "C"}},
	{"Resistencia a la compresión de probetas", "Rotura de probetas cilíndricas de concreto", "LAB-010", 12.5, "UND", "ENSAYOS DE CONCRETO", []string{"ASTM C39", "NTP 339.034"}, nil},
}

// Seed populates the catalog (normas, métodos, categories and services), a
// sample client and a sample quotation. It is safe to call on every startup
// because it returns early if any service records already exist.
func Seed(app *pocketbase.PocketBase) error {
	// ── idempotency: skip if services already exist ─────────────────
	serviciosCol, err := app.FindCollectionByNameOrId("servicios")
	if err != nil {
		return fmt.Errorf("seed: could not find servicios collection: %w", err)
	}
	existing, err := app.FindAllRecords(serviciosCol)
	if err != nil {
		return fmt.Errorf("seed: could not query servicios: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	zap.L().Info("seed: servicios collection is empty, inserting seed data")

	return app.RunInTransaction(func(txApp core.App) error {
		normaIDs, err := seedRefs(txApp, "normas", seedNormas)
		if err != nil {
			return err
		}
		metodoIDs, err := seedRefs(txApp, "metodos", seedMetodos)
		if err != nil {
			return err
		}
		categoriaIDs, err := seedCategories(txApp)
		if err != nil {
			return err
		}

		servicioIDs := make(map[string]string, len(seedServicios))
		for _, d := range seedServicios {
			r := core.NewRecord(serviciosCol)
			r.Set("nombre", d.nombre)
			r.Set("descripcion", d.descripcion)
			r.Set("codigo_facturacion", d.codigo)
			r.Set("precio_base", d.precio)
			r.Set("unidad_base", d.unidad)
			r.Set("categoria", categoriaIDs[d.categoria])
			r.Set("normas", lookupIDs(normaIDs, d.normas))
			r.Set("metodos", lookupIDs(metodoIDs, d.metodos))
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("seed: failed to save servicio %q: %w", d.nombre, err)
			}
			servicioIDs[d.nombre] = r.Id
		}

		clienteID, err := seedClient(txApp)
		if err != nil {
			return err
		}

		if err := seedQuote(txApp, clienteID, servicioIDs, normaIDs); err != nil {
			return err
		}

		zap.L().Info("seed: done",
			zap.Int("normas", len(normaIDs)),
			zap.Int("metodos", len(metodoIDs)),
			zap.Int("servicios", len(servicioIDs)),
		)
		return nil
	})
}

func seedRefs(app core.App, collection string, defs []refDef) (map[string]string, error) {
	col, err := app.FindCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("seed: could not find %s collection: %w", collection, err)
	}
	ids := make(map[string]string, len(defs))
	for _, d := range defs {
		r := core.NewRecord(col)
		r.Set("codigo", d.codigo)
		r.Set("nombre", d.nombre)
		if err := app.Save(r); err != nil {
			return nil, fmt.Errorf("seed: failed to save %s %q: %w", collection, d.codigo, err)
		}
		ids[d.codigo] = r.Id
	}
	return ids, nil
}

func seedCategories(app core.App) (map[string]string, error) {
	catCol, err := app.FindCollectionByNameOrId("categorias_servicio")
	if err != nil {
		return nil, fmt.Errorf("seed: could not find categorias_servicio collection: %w", err)
	}
	subCol, err := app.FindCollectionByNameOrId("subcategorias_servicio")
	if err != nil {
		return nil, fmt.Errorf("seed: could not find subcategorias_servicio collection: %w", err)
	}

	ids := make(map[string]string, len(seedCategorias))
	for _, d := range seedCategorias {
		cat := core.NewRecord(catCol)
		cat.Set("nombre", d.nombre)
		if err := app.Save(cat); err != nil {
			return nil, fmt.Errorf("seed: failed to save categoria %q: %w", d.nombre, err)
		}
		ids[d.nombre] = cat.Id

		for _, name := range d.subcategorias {
			sub := core.NewRecord(subCol)
			sub.Set("categoria", cat.Id)
			sub.Set("nombre", name)
			if err := app.Save(sub); err != nil {
				return nil, fmt.Errorf("seed: failed to save subcategoria %q: %w", name, err)
			}
		}
	}
	return ids, nil
}

func seedClient(app core.App) (string, error) {
	col, err := app.FindCollectionByNameOrId("clientes")
	if err != nil {
		return "", fmt.Errorf("seed: could not find clientes collection: %w", err)
	}
	r := core.NewRecord(col)
	r.Set("ruc", "20601234567")
	r.Set("razon_social", "CONSTRUCTORA ANDINA S.A.C.")
	r.Set("direccion", "Av. Javier Prado Este 1234, San Isidro, Lima")
	r.Set("persona_contacto", "Ing. Rosa Quispe")
	r.Set("correo_contacto", "rquispe@constructoraandina.pe")
	r.Set("telefono_contacto", "987654321")
	if err := app.Save(r); err != nil {
		return "", fmt.Errorf("seed: failed to save cliente: %w", err)
	}
	return r.Id, nil
}

// seedQuote stores one quotation with a category, a subcategory and two
// service lines, totals computed the same way the editor does.
func seedQuote(app core.App, clienteID string, servicioIDs, normaIDs map[string]string) error {
	quotesCol, err := app.FindCollectionByNameOrId("cotizaciones")
	if err != nil {
		return fmt.Errorf("seed: could not find cotizaciones collection: %w", err)
	}
	itemsCol, err := app.FindCollectionByNameOrId("cotizacion_items")
	if err != nil {
		return fmt.Errorf("seed: could not find cotizacion_items collection: %w", err)
	}

	rows := []services.LineItem{
		{Kind: services.KindCategory, Label: "ENSAYOS DE SUELOS"},
		{Kind: services.KindSubcategory, Label: "ENSAYOS ESTÁNDAR"},
		{Kind: services.KindService, Label: "Contenido de humedad", CatalogID: servicioIDs["Contenido de humedad"],
			Quantity: 3, UnitPrice: 10, Unit: "Ensayo", NormaLabel: "ASTM D2216", NormaID: normaIDs["ASTM D2216"]},
		{Kind: services.KindService, Label: "Análisis granulométrico por tamizado", CatalogID: servicioIDs["Análisis granulométrico por tamizado"],
			Quantity: 2, UnitPrice: 45, Unit: "Muestra", NormaLabel: "ASTM D6913", NormaID: normaIDs["ASTM D6913"]},
	}
	totals := services.ComputeTotals(rows, services.DefaultTaxRate)
	now := time.Now()

	quote := core.NewRecord(quotesCol)
	quote.Set("numero_oferta", services.NextOfferNumber(services.DefaultOfferPrefix, now.Year(), nil))
	quote.Set("cliente", clienteID)
	quote.Set("asunto_servicio", "Ensayos de mecánica de suelos para cimentación")
	quote.Set("proyecto_asociado", "Edificio multifamiliar Los Olivos")
	quote.Set("persona_contacto", "Ing. Rosa Quispe")
	quote.Set("correo_contacto", "rquispe@constructoraandina.pe")
	quote.Set("fecha_generacion", now.Format("2006-01-02"))
	quote.Set("estado", "Pendiente")
	quote.Set("forma_pago", "Contado")
	quote.Set("plazo_entrega_dias", 7)
	quote.Set("validez_oferta_dias", 30)
	quote.Set("tasa_igv", totals.TaxRate)
	quote.Set("subtotal", services.Round2(totals.Subtotal))
	quote.Set("impuesto_igv", services.Round2(totals.Tax))
	quote.Set("monto_total", services.Round2(totals.Total))
	if err := app.Save(quote); err != nil {
		return fmt.Errorf("seed: failed to save cotizacion: %w", err)
	}

	for i, row := range rows {
		item := core.NewRecord(itemsCol)
		item.Set("cotizacion", quote.Id)
		item.Set("sort_order", i)
		item.Set("tipo_fila", string(row.Kind))
		item.Set("descripcion_especifica", row.Label)
		if row.Kind == services.KindService {
			item.Set("servicio", row.CatalogID)
			item.Set("norma", row.NormaID)
			item.Set("norma_nombre", row.NormaLabel)
			item.Set("unidad_medida", row.Unit)
			item.Set("cantidad", row.Quantity)
			item.Set("precio_unitario", row.UnitPrice)
			item.Set("total_detalle", services.Round2(services.LineSubtotal(row)))
		}
		if err := app.Save(item); err != nil {
			return fmt.Errorf("seed: failed to save cotizacion item %d: %w", i, err)
		}
	}
	return nil
}

func lookupIDs(ids map[string]string, codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if id, ok := ids[code]; ok {
			out = append(out, id)
		}
	}
	return out
}
