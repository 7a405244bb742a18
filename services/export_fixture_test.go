package services

func sampleQuoteExport() *QuoteExportData {
	rows := []LineItem{
		{Kind: KindCategory, Label: "ENSAYOS DE SUELOS"},
		{Kind: KindSubcategory, Label: "ESTÁNDAR"},
		{Kind: KindService, Label: "Contenido de humedad", CatalogID: "srv-humedad", Quantity: 2.5, UnitPrice: 10},
		{Kind: KindService, Label: "=HYPERLINK(\"x\")", CatalogID: "srv-proctor", Quantity: 1, UnitPrice: 10.4, Note: "incluye muestreo"},
	}
	totals := ComputeTotals(rows, 0.18)
	return &QuoteExportData{
		Company:        ExportCompany{Name: "Laboratorio Central", Address: "Lima", Email: "lab@example.pe"},
		CurrencySymbol: DefaultCurrencySymbol,
		OfferNumber:    "VFC-OTE-2025-0001",
		Date:           "2025-03-03",
		Status:         "Pendiente",
		ClientName:     "Constructora Andina SAC",
		ClientRUC:      "20100070970",
		Subject:        "Ensayos de suelos",
		PaymentTerm:    "Al Contado",
		DeliveryDays:   7,
		ValidityDays:   30,
		Observations:   "Muestras entregadas por el cliente.",
		Rows:           NewQuoteExportRows(rows, testCatalog()),
		Subtotal:       totals.Subtotal,
		TaxRate:        totals.TaxRate,
		Tax:            totals.Tax,
		Total:          totals.Total,
		AmountInWords:  AmountToWords(Round2(totals.Total)),
	}
}
