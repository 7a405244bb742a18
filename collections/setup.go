package collections

import (
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/services"
)

// Setup programmatically creates/ensures the client, catalog and quotation
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	clientes := ensureCollection(app, "clientes", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "ruc", Required: true, Max: 11})
		c.Fields.Add(&core.TextField{Name: "razon_social", Required: true})
		c.Fields.Add(&core.TextField{Name: "direccion"})
		c.Fields.Add(&core.TextField{Name: "persona_contacto"})
		c.Fields.Add(&core.TextField{Name: "correo_contacto"})
		c.Fields.Add(&core.TextField{Name: "telefono_contacto"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	normas := ensureCollection(app, "normas", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "codigo", Required: true})
		c.Fields.Add(&core.TextField{Name: "nombre"})
	})

	metodos := ensureCollection(app, "metodos", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "codigo", Required: true})
		c.Fields.Add(&core.TextField{Name: "nombre"})
	})

	categorias := ensureCollection(app, "categorias_servicio", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "nombre", Required: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "subcategorias_servicio", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "categoria",
			Required:      true,
			CollectionId:  categorias.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "nombre", Required: true})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	servicios := ensureCollection(app, "servicios", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "nombre", Required: true})
		c.Fields.Add(&core.TextField{Name: "descripcion"})
		c.Fields.Add(&core.TextField{Name: "codigo_facturacion"})
		c.Fields.Add(&core.NumberField{Name: "precio_base", Min: floatPtr(0)})
		c.Fields.Add(&core.TextField{Name: "unidad_base"})
		c.Fields.Add(&core.RelationField{
			Name:         "categoria",
			CollectionId: categorias.Id,
			MaxSelect:    1,
		})
		// Multi-select; the first norma and método are the catalog defaults.
		c.Fields.Add(&core.RelationField{
			Name:         "normas",
			CollectionId: normas.Id,
			MaxSelect:    99,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "metodos",
			CollectionId: metodos.Id,
			MaxSelect:    99,
		})
	})

	cotizaciones := ensureCollection(app, "cotizaciones", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "numero_oferta", Required: true})
		c.Fields.Add(&core.RelationField{
			Name:         "cliente",
			Required:     true,
			CollectionId: clientes.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "asunto_servicio"})
		c.Fields.Add(&core.TextField{Name: "proyecto_asociado"})
		c.Fields.Add(&core.TextField{Name: "persona_contacto"})
		c.Fields.Add(&core.TextField{Name: "correo_contacto"})
		c.Fields.Add(&core.TextField{Name: "telefono_contacto"})
		c.Fields.Add(&core.TextField{Name: "fecha_generacion"})
		c.Fields.Add(&core.SelectField{
			Name:      "estado",
			Required:  true,
			Values:    services.QuoteStatusOptions,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "forma_pago",
			Values:    paymentTermValues(),
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "forma_pago_personalizada"})
		c.Fields.Add(&core.NumberField{Name: "plazo_entrega_dias", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "validez_oferta_dias", OnlyInt: true})
		c.Fields.Add(&core.TextField{Name: "observaciones_condiciones"})
		c.Fields.Add(&core.NumberField{Name: "tasa_igv", Min: floatPtr(0)})
		c.Fields.Add(&core.NumberField{Name: "subtotal"})
		c.Fields.Add(&core.NumberField{Name: "impuesto_igv"})
		c.Fields.Add(&core.NumberField{Name: "monto_total"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "cotizacion_items", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "cotizacion",
			Required:      true,
			CollectionId:  cotizaciones.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.Fields.Add(&core.SelectField{
			Name:     "tipo_fila",
			Required: true,
			Values: []string{
				string(services.KindCategory),
				string(services.KindSubcategory),
				string(services.KindService),
			},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "descripcion_especifica"})
		c.Fields.Add(&core.RelationField{
			Name:         "servicio",
			CollectionId: servicios.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "norma",
			CollectionId: normas.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.RelationField{
			Name:         "metodo",
			CollectionId: metodos.Id,
			MaxSelect:    1,
		})
		c.Fields.Add(&core.TextField{Name: "norma_nombre"})
		c.Fields.Add(&core.TextField{Name: "unidad_medida"})
		c.Fields.Add(&core.NumberField{Name: "cantidad"})
		c.Fields.Add(&core.NumberField{Name: "precio_unitario"})
		c.Fields.Add(&core.NumberField{Name: "total_detalle"})
		c.Fields.Add(&core.TextField{Name: "nota"})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		zap.L().Debug("setup: collection already exists, skipping creation", zap.String("collection", name))
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		zap.L().Fatal("setup: failed to create collection", zap.String("collection", name), zap.Error(err))
	}

	zap.L().Info("setup: created collection", zap.String("collection", name), zap.String("id", collection.Id))
	return collection
}

func paymentTermValues() []string {
	values := make([]string, 0, len(services.PaymentTermOptions))
	for _, opt := range services.PaymentTermOptions {
		values = append(values, opt.Value)
	}
	return values
}

func floatPtr(v float64) *float64 { return &v }
