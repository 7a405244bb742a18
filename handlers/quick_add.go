package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"
)

// quickAddError is the JSON body of a refused quick-add.
func quickAddError(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, map[string]any{
		"status":  "error",
		"message": message,
	})
}

// HandleQuickAddClient creates a client from the editor's dialog.
// POST /quick-add/client (ruc, razon_social)
func HandleQuickAddClient(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		ruc := strings.TrimSpace(e.Request.FormValue("ruc"))
		razonSocial := strings.TrimSpace(e.Request.FormValue("razon_social"))

		if razonSocial == "" {
			return quickAddError(e, http.StatusBadRequest, "La razón social es obligatoria")
		}
		if !validRUC(ruc) {
			return quickAddError(e, http.StatusBadRequest, "El RUC debe tener 11 dígitos")
		}

		existing, _ := app.FindRecordsByFilter("clientes", "ruc = {:ruc}", "", 1, 0, map[string]any{"ruc": ruc})
		if len(existing) > 0 {
			return quickAddError(e, http.StatusConflict, "Ya existe un cliente con el RUC "+ruc)
		}

		col, err := app.FindCollectionByNameOrId("clientes")
		if err != nil {
			zap.L().Error("quick_add: HandleQuickAddClient: collection", zap.Error(err))
			return quickAddError(e, http.StatusInternalServerError, "No se pudo crear el cliente")
		}
		record := core.NewRecord(col)
		record.Set("ruc", ruc)
		record.Set("razon_social", razonSocial)
		if err := app.Save(record); err != nil {
			zap.L().Error("quick_add: HandleQuickAddClient: save", zap.String("ruc", ruc), zap.Error(err))
			return quickAddError(e, http.StatusInternalServerError, "No se pudo crear el cliente")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"status":       "success",
			"id":           record.Id,
			"ruc":          ruc,
			"razon_social": razonSocial,
		})
	}
}

// HandleQuickAddCategory creates a service category.
// POST /quick-add/category (nombre)
func HandleQuickAddCategory(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		nombre := strings.TrimSpace(e.Request.FormValue("nombre"))
		if nombre == "" {
			return quickAddError(e, http.StatusBadRequest, "El nombre es obligatorio")
		}

		existing, _ := app.FindRecordsByFilter("categorias_servicio", "nombre = {:nombre}", "", 1, 0, map[string]any{"nombre": nombre})
		if len(existing) > 0 {
			return quickAddError(e, http.StatusConflict, "La categoría "+nombre+" ya existe")
		}

		col, err := app.FindCollectionByNameOrId("categorias_servicio")
		if err != nil {
			zap.L().Error("quick_add: HandleQuickAddCategory: collection", zap.Error(err))
			return quickAddError(e, http.StatusInternalServerError, "No se pudo crear la categoría")
		}
		record := core.NewRecord(col)
		record.Set("nombre", nombre)
		if err := app.Save(record); err != nil {
			zap.L().Error("quick_add: HandleQuickAddCategory: save", zap.String("nombre", nombre), zap.Error(err))
			return quickAddError(e, http.StatusInternalServerError, "No se pudo crear la categoría")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"status": "success",
			"id":     record.Id,
			"nombre": nombre,
		})
	}
}

// HandleQuickAddSubcategory creates a subcategory under an existing
// category.
// POST /quick-add/subcategory (categoria_id, nombre)
func HandleQuickAddSubcategory(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		categoriaID := strings.TrimSpace(e.Request.FormValue("categoria_id"))
		nombre := strings.TrimSpace(e.Request.FormValue("nombre"))
		if nombre == "" {
			return quickAddError(e, http.StatusBadRequest, "El nombre es obligatorio")
		}
		if categoriaID == "" {
			return quickAddError(e, http.StatusBadRequest, "Seleccione una categoría")
		}
		if _, err := app.FindRecordById("categorias_servicio", categoriaID); err != nil {
			return quickAddError(e, http.StatusBadRequest, "La categoría seleccionada no existe")
		}

		existing, _ := app.FindRecordsByFilter("subcategorias_servicio",
			"categoria = {:cat} && nombre = {:nombre}", "", 1, 0,
			map[string]any{"cat": categoriaID, "nombre": nombre})
		if len(existing) > 0 {
			return quickAddError(e, http.StatusConflict, "La subcategoría "+nombre+" ya existe en esa categoría")
		}

		col, err := app.FindCollectionByNameOrId("subcategorias_servicio")
		if err != nil {
			zap.L().Error("quick_add: HandleQuickAddSubcategory: collection", zap.Error(err))
			return quickAddError(e, http.StatusInternalServerError, "No se pudo crear la subcategoría")
		}
		record := core.NewRecord(col)
		record.Set("categoria", categoriaID)
		record.Set("nombre", nombre)
		if err := app.Save(record); err != nil {
			zap.L().Error("quick_add: HandleQuickAddSubcategory: save", zap.String("nombre", nombre), zap.Error(err))
			return quickAddError(e, http.StatusInternalServerError, "No se pudo crear la subcategoría")
		}

		return e.JSON(http.StatusOK, map[string]any{
			"status":       "success",
			"id":           record.Id,
			"nombre":       nombre,
			"categoria_id": categoriaID,
		})
	}
}

// validRUC accepts the 11-digit Peruvian taxpayer number.
func validRUC(ruc string) bool {
	if len(ruc) != 11 {
		return false
	}
	for _, r := range ruc {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
