package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"labquote/collections"
	"labquote/config"
	"labquote/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	app := pocketbase.New()

	// Create collections, seed and migrate on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if cfg.SeedData {
			if err := collections.Seed(app); err != nil {
				zap.L().Warn("main: seed data failed", zap.Error(err))
			}
		}
		if err := collections.MigrateLegacyTaxRates(app); err != nil {
			zap.L().Warn("main: tax rate migration failed", zap.Error(err))
		}
		if err := collections.MigrateQuoteTotals(app); err != nil {
			zap.L().Warn("main: quote totals migration failed", zap.Error(err))
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		se.Router.BindFunc(handlers.CSRFMiddleware(cfg))

		// ── Quotations ──────────────────────────────────────────
		se.Router.GET("/quotes", handlers.HandleQuoteList(app, cfg))
		se.Router.GET("/quotes/new", handlers.HandleQuoteNew(app, cfg))
		se.Router.POST("/quotes", handlers.HandleQuoteCreate(app, cfg))

		// Editor commands re-render the items section
		se.Router.POST("/quotes/editor/{command}", handlers.HandleEditorCommand(app, cfg))

		se.Router.GET("/quotes/{id}/edit", handlers.HandleQuoteEdit(app, cfg))
		se.Router.GET("/quotes/{id}/clone", handlers.HandleQuoteClone(app, cfg))
		se.Router.GET("/quotes/{id}/export/pdf", handlers.HandleQuoteExportPDF(app, cfg))
		se.Router.GET("/quotes/{id}/export/excel", handlers.HandleQuoteExportExcel(app, cfg))
		se.Router.POST("/quotes/{id}", handlers.HandleQuoteUpdate(app, cfg))
		se.Router.DELETE("/quotes/{id}", handlers.HandleQuoteDelete(app))

		// ── Quick-add dialogs (JSON) ────────────────────────────
		se.Router.POST("/quick-add/client", handlers.HandleQuickAddClient(app))
		se.Router.POST("/quick-add/category", handlers.HandleQuickAddCategory(app))
		se.Router.POST("/quick-add/subcategory", handlers.HandleQuickAddSubcategory(app))

		// ── Price-list import ───────────────────────────────────
		se.Router.GET("/catalog/import", handlers.HandleCatalogImportPage(app))
		se.Router.GET("/catalog/template", handlers.HandleCatalogTemplateDownload(app))
		se.Router.POST("/catalog/import", handlers.HandleCatalogValidate(app))
		se.Router.POST("/catalog/import/commit", handlers.HandleCatalogImportCommit(app))
		se.Router.POST("/catalog/import/errors", handlers.HandleCatalogErrorReport(app))

		// Redirect home to the quotation list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/quotes")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		zap.L().Fatal("main: server stopped", zap.Error(err))
	}
}
