package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	pdfDark  = &props.Color{Red: 33, Green: 37, Blue: 41}
	pdfGrey  = &props.Color{Red: 100, Green: 100, Blue: 100}
	pdfWhite = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// GenerateQuotePDF renders a quotation as an A4 PDF using maroto/v2.
func GenerateQuotePDF(data *QuoteExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addQuoteHeader(m, data)
	addQuoteClientBlock(m, data)
	addQuoteItemsTable(m, data)
	addQuoteTotals(m, data)
	addQuoteAmountInWords(m, data)
	addQuoteConditions(m, data)
	addQuoteSignature(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quotation PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addQuoteHeader adds the laboratory name, the document title and the
// offer number.
func addQuoteHeader(m core.Maroto, data *QuoteExportData) {
	m.AddRows(
		row.New(10).Add(
			col.New(7).Add(
				text.New(data.Company.Name, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
			col.New(5).Add(
				text.New("COTIZACIÓN", props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Right,
					Color: pdfDark,
				}),
			),
		),
	)

	m.AddRows(
		row.New(8).Add(
			col.New(7).Add(
				text.New(joinNonEmpty([]string{data.Company.Address, data.Company.Email}, " | "), props.Text{
					Size:  8,
					Align: align.Left,
					Color: pdfGrey,
				}),
			),
			col.New(5).Add(
				text.New(fmt.Sprintf("N° %s", data.OfferNumber), props.Text{
					Size:  10,
					Style: fontstyle.Bold,
					Align: align.Right,
				}),
			),
		),
	)

	m.AddRows(row.New(3))
}

// addQuoteClientBlock adds client details on the left and offer metadata on
// the right.
func addQuoteClientBlock(m core.Maroto, data *QuoteExportData) {
	labelStyle := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: pdfGrey,
	}
	valueStyle := props.Text{
		Size:  8,
		Align: align.Left,
	}
	rightLabelStyle := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Right,
		Color: pdfGrey,
	}
	rightValueStyle := props.Text{
		Size:  8,
		Align: align.Right,
	}

	m.AddRows(
		row.New(6).Add(
			col.New(7).Add(text.New("CLIENTE", labelStyle)),
			col.New(5).Add(text.New("DATOS DE LA OFERTA", rightLabelStyle)),
		),
	)

	m.AddRows(
		row.New(7).Add(
			col.New(7).Add(text.New(data.ClientName, props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(2).Add(text.New("Fecha:", rightLabelStyle)),
			col.New(3).Add(text.New(data.Date, rightValueStyle)),
		),
	)

	m.AddRows(
		row.New(7).Add(
			col.New(7).Add(text.New(fmtField("RUC", data.ClientRUC), valueStyle)),
			col.New(2).Add(text.New("Estado:", rightLabelStyle)),
			col.New(3).Add(text.New(data.Status, rightValueStyle)),
		),
	)

	if data.ClientAddress != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New(data.ClientAddress, valueStyle)),
			),
		)
	}

	contact := joinNonEmpty([]string{data.Contact, data.Phone, data.Email}, " | ")
	if contact != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New(fmtField("Atención", contact), valueStyle)),
			),
		)
	}

	if data.Subject != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New(fmtField("Asunto", data.Subject), valueStyle)),
			),
		)
	}
	if data.Project != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(text.New(fmtField("Proyecto", data.Project), valueStyle)),
			),
		)
	}

	m.AddRows(row.New(3))
}

// addQuoteItemsTable adds the line table. Headers print as shaded bands
// spanning the description columns; service lines carry their amounts.
func addQuoteItemsTable(m core.Maroto, data *QuoteExportData) {
	headerCell := &props.Cell{BackgroundColor: pdfDark}
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: pdfWhite,
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left

	m.AddRows(
		row.New(8).Add(
			col.New(1).Add(text.New("Ítem", headerText)).WithStyle(headerCell),
			col.New(4).Add(text.New("Descripción", headerTextLeft)).WithStyle(headerCell),
			col.New(2).Add(text.New("Norma / Método", headerText)).WithStyle(headerCell),
			col.New(1).Add(text.New("Und", headerText)).WithStyle(headerCell),
			col.New(1).Add(text.New("Cant.", headerText)).WithStyle(headerCell),
			col.New(1).Add(text.New("P. Unit.", headerText)).WithStyle(headerCell),
			col.New(2).Add(text.New("Subtotal", headerText)).WithStyle(headerCell),
		),
	)

	categoryCell := &props.Cell{BackgroundColor: &props.Color{Red: 222, Green: 226, Blue: 230}}
	subcategoryCell := &props.Cell{BackgroundColor: &props.Color{Red: 241, Green: 243, Blue: 245}}

	for _, r := range data.Rows {
		if r.IsHeader() {
			cell := subcategoryCell
			style := fontstyle.BoldItalic
			if r.Kind == KindCategory {
				cell = categoryCell
				style = fontstyle.Bold
			}
			bandText := props.Text{Size: 7, Style: style, Align: align.Left}
			m.AddRows(
				row.New(7).Add(
					col.New(1).Add(text.New(r.Position, props.Text{Size: 7, Style: style, Align: align.Center})).WithStyle(cell),
					col.New(11).Add(text.New(r.Description, bandText)).WithStyle(cell),
				),
			)
			continue
		}

		bodyText := props.Text{Size: 7, Align: align.Center}
		bodyTextLeft := props.Text{Size: 7, Align: align.Left}
		bodyTextRight := props.Text{Size: 7, Align: align.Right}

		height := 7.0
		if r.Note != "" {
			height = 10
		}
		desc := col.New(4).Add(text.New(r.Description, bodyTextLeft))
		if r.Note != "" {
			desc.Add(text.New(r.Note, props.Text{Size: 6, Style: fontstyle.Italic, Align: align.Left, Top: 4, Color: pdfGrey}))
		}

		m.AddRows(
			row.New(height).Add(
				col.New(1).Add(text.New(r.Position, bodyText)),
				desc,
				col.New(2).Add(text.New(r.Reference, bodyText)),
				col.New(1).Add(text.New(r.Unit, bodyText)),
				col.New(1).Add(text.New(FormatQty(r.Qty), bodyTextRight)),
				col.New(1).Add(text.New(FormatAmount(r.UnitPrice), bodyTextRight)),
				col.New(2).Add(text.New(FormatAmount(r.Subtotal), bodyTextRight)),
			),
		)
	}

	m.AddRows(row.New(2))
}

// addQuoteTotals adds the right-aligned subtotal, IGV and total rows.
func addQuoteTotals(m core.Maroto, data *QuoteExportData) {
	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	labelStyle := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Right,
	}
	valueStyle := props.Text{
		Size:  8,
		Align: align.Right,
	}

	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New("Subtotal", labelStyle)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatCurrency(data.CurrencySymbol, data.Subtotal), valueStyle)).WithStyle(summaryCell),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(9).Add(text.New(fmt.Sprintf("IGV (%s)", FormatPercent(data.TaxRate)), labelStyle)).WithStyle(summaryCell),
			col.New(3).Add(text.New(FormatCurrency(data.CurrencySymbol, data.Tax), valueStyle)).WithStyle(summaryCell),
		),
	)

	grandCell := &props.Cell{BackgroundColor: pdfDark}
	grandStyle := props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Align: align.Right,
		Color: pdfWhite,
	}
	m.AddRows(
		row.New(8).Add(
			col.New(9).Add(text.New("Total", grandStyle)).WithStyle(grandCell),
			col.New(3).Add(text.New(FormatCurrency(data.CurrencySymbol, data.Total), grandStyle)).WithStyle(grandCell),
		),
	)

	m.AddRows(row.New(3))
}

func addQuoteAmountInWords(m core.Maroto, data *QuoteExportData) {
	if data.AmountInWords == "" {
		return
	}
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(data.AmountInWords, props.Text{
					Size:  8,
					Style: fontstyle.BoldItalic,
					Align: align.Left,
				}),
			),
		),
	)
	m.AddRows(row.New(3))
}

// addQuoteConditions adds payment, delivery and validity terms followed by
// free-text observations.
func addQuoteConditions(m core.Maroto, data *QuoteExportData) {
	terms := []struct{ label, value string }{
		{"Forma de pago", data.PaymentTerm},
		{"Plazo de entrega", daysLabel(data.DeliveryDays)},
		{"Validez de la oferta", daysLabel(data.ValidityDays)},
	}
	hasTerms := data.Observations != ""
	for _, t := range terms {
		if t.value != "" {
			hasTerms = true
		}
	}
	if !hasTerms {
		return
	}

	sectionLabel := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: pdfDark,
	}
	fieldLabel := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: pdfGrey,
	}
	fieldValue := props.Text{
		Size:  8,
		Align: align.Left,
	}

	m.AddRows(
		row.New(7).Add(
			col.New(12).Add(text.New("CONDICIONES COMERCIALES", sectionLabel)),
		),
	)
	for _, t := range terms {
		if t.value == "" {
			continue
		}
		m.AddRows(
			row.New(7).Add(
				col.New(3).Add(text.New(t.label, fieldLabel)),
				col.New(9).Add(text.New(t.value, fieldValue)),
			),
		)
	}
	if data.Observations != "" {
		m.AddRows(
			row.New(6).Add(col.New(12).Add(text.New("Observaciones", fieldLabel))),
		)
		m.AddRows(
			row.New(12).Add(col.New(12).Add(text.New(data.Observations, fieldValue))),
		)
	}

	m.AddRows(row.New(3))
}

func addQuoteSignature(m core.Maroto, data *QuoteExportData) {
	m.AddRows(row.New(10))

	lineStyle := props.Text{
		Size:  8,
		Align: align.Center,
		Color: pdfGrey,
	}
	labelStyle := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: pdfGrey,
	}

	m.AddRows(
		row.New(6).Add(
			col.New(6),
			col.New(6).Add(text.New("____________________________", lineStyle)),
		),
	)
	m.AddRows(
		row.New(7).Add(
			col.New(6),
			col.New(6).Add(text.New(joinNonEmpty([]string{"Área Comercial", data.Company.Name}, " - "), labelStyle)),
		),
	)
}

// daysLabel prints a day count, or nothing when unset.
func daysLabel(days int) string {
	switch {
	case days <= 0:
		return ""
	case days == 1:
		return "1 día"
	}
	return fmt.Sprintf("%d días", days)
}
