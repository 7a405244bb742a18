package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// GenerateQuoteExcel writes a quotation to a single-sheet workbook and returns
// the file contents.
func GenerateQuoteExcel(data *QuoteExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Sheet names are capped at 31 characters and exclude :\/?*[].
	sheetName := sheetNameReplacer.Replace(data.OfferNumber)
	if len(sheetName) > 31 {
		sheetName = sheetName[:31]
	}
	if sheetName == "" {
		sheetName = "Cotizacion"
	}

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G"}
	lastCol := columns[len(columns)-1]

	widths := []float64{7, 48, 22, 10, 10, 14, 16}
	for i, col := range columns {
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// ── Styles ──────────────────────────────────────────────────────────

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create subtitle style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	categoryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#DEE2E6"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create category style: %w", err)
	}

	subcategoryStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Italic: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#F1F3F5"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create subcategory style: %w", err)
	}

	serviceStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create service style: %w", err)
	}

	// Amounts stay numeric so the sheet can be re-summed.
	amountStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: strPtr("#,##0.00"),
	})
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}

	summaryLabelStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return nil, fmt.Errorf("create summary label style: %w", err)
	}

	summaryValueStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: strPtr("#,##0.00"),
	})
	if err != nil {
		return nil, fmt.Errorf("create summary value style: %w", err)
	}

	// ── Header Rows (1-4) ───────────────────────────────────────────────

	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheetName, "A1", sanitizeExcelCell("COTIZACIÓN "+data.OfferNumber))
	f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle)

	subtitles := []string{
		joinNonEmpty([]string{data.ClientName, fmtField("RUC", data.ClientRUC)}, " - "),
		joinNonEmpty([]string{fmtField("Fecha", data.Date), fmtField("Estado", data.Status)}, " | "),
		fmtField("Asunto", data.Subject),
	}
	for i, s := range subtitles {
		r := fmt.Sprintf("%d", i+2)
		if err := f.MergeCell(sheetName, "A"+r, lastCol+r); err != nil {
			return nil, fmt.Errorf("merge subtitle %d: %w", i, err)
		}
		f.SetCellValue(sheetName, "A"+r, sanitizeExcelCell(s))
		f.SetCellStyle(sheetName, "A"+r, lastCol+r, subtitleStyle)
	}

	// ── Row 6: Column Headers ───────────────────────────────────────────

	headers := []string{"Ítem", "Descripción", "Norma / Método", "Und", "Cant.", "P. Unit.", "Subtotal"}
	for i, h := range headers {
		f.SetCellValue(sheetName, fmt.Sprintf("%s6", columns[i]), h)
	}
	f.SetCellStyle(sheetName, "A6", lastCol+"6", headerStyle)

	// ── Data Rows (starting row 7) ──────────────────────────────────────

	row := 7
	for _, r := range data.Rows {
		rowStr := fmt.Sprintf("%d", row)

		f.SetCellValue(sheetName, "A"+rowStr, r.Position)

		if r.IsHeader() {
			if err := f.MergeCell(sheetName, "B"+rowStr, lastCol+rowStr); err != nil {
				return nil, fmt.Errorf("merge header row %d: %w", row, err)
			}
			f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(r.Description))
			style := subcategoryStyle
			if r.Kind == KindCategory {
				style = categoryStyle
			}
			f.SetCellStyle(sheetName, "A"+rowStr, lastCol+rowStr, style)
			row++
			continue
		}

		desc := r.Description
		if r.Note != "" {
			desc += " (" + r.Note + ")"
		}
		f.SetCellValue(sheetName, "B"+rowStr, sanitizeExcelCell(desc))
		f.SetCellValue(sheetName, "C"+rowStr, sanitizeExcelCell(r.Reference))
		f.SetCellValue(sheetName, "D"+rowStr, sanitizeExcelCell(r.Unit))
		f.SetCellValue(sheetName, "E"+rowStr, r.Qty)
		f.SetCellValue(sheetName, "F"+rowStr, Round2(r.UnitPrice))
		f.SetCellValue(sheetName, "G"+rowStr, Round2(r.Subtotal))

		f.SetCellStyle(sheetName, "A"+rowStr, "E"+rowStr, serviceStyle)
		f.SetCellStyle(sheetName, "F"+rowStr, "G"+rowStr, amountStyle)

		row++
	}

	// ── Summary Rows ────────────────────────────────────────────────────

	row++
	summaries := []struct {
		label string
		value float64
	}{
		{fmt.Sprintf("Subtotal (%s):", data.CurrencySymbol), data.Subtotal},
		{fmt.Sprintf("IGV %s:", FormatPercent(data.TaxRate)), data.Tax},
		{fmt.Sprintf("Total (%s):", data.CurrencySymbol), data.Total},
	}
	for _, s := range summaries {
		summaryRow := fmt.Sprintf("%d", row)
		f.SetCellValue(sheetName, "F"+summaryRow, s.label)
		f.SetCellStyle(sheetName, "F"+summaryRow, "F"+summaryRow, summaryLabelStyle)
		f.SetCellValue(sheetName, "G"+summaryRow, Round2(s.value))
		f.SetCellStyle(sheetName, "G"+summaryRow, "G"+summaryRow, summaryValueStyle)
		row++
	}

	if data.AmountInWords != "" {
		wordsRow := fmt.Sprintf("%d", row)
		if err := f.MergeCell(sheetName, "A"+wordsRow, lastCol+wordsRow); err != nil {
			return nil, fmt.Errorf("merge amount in words: %w", err)
		}
		f.SetCellValue(sheetName, "A"+wordsRow, data.AmountInWords)
	}

	// ── Write to buffer ─────────────────────────────────────────────────

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}

var sheetNameReplacer = strings.NewReplacer(":", "", "\\", "", "/", "-", "?", "", "*", "", "[", "", "]", "")

func strPtr(s string) *string { return &s }
