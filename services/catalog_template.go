package services

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
)

// GenerateCatalogTemplate creates a downloadable .xlsx price-list template.
// The unit column carries a dropdown; category names and norma codes known
// to the app are listed on the hidden Instructions sheet.
func GenerateCatalogTemplate(app core.App) ([]byte, error) {
	fields := CatalogTemplateFields()

	refs, err := loadCatalogRefs(app)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Servicios"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create required header style: %w", err)
	}
	optionalHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create optional header style: %w", err)
	}

	columns := excelColumns(len(fields))
	for i, field := range fields {
		cell := columns[i] + "1"
		headerText := field.Label
		style := optionalHeaderStyle
		if field.Required {
			headerText += " *"
			style = requiredHeaderStyle
		}
		f.SetCellValue(sheetName, cell, headerText)
		f.SetCellStyle(sheetName, cell, cell, style)

		width := float64(len(field.ExampleValue)) * 1.2
		if width < 15 {
			width = 15
		}
		f.SetColWidth(sheetName, columns[i], columns[i], width)

		if field.Key == "unidad_base" {
			dv := excelize.NewDataValidation(true)
			dv.Sqref = fmt.Sprintf("%s2:%s1048576", columns[i], columns[i])
			if err := dv.SetDropList(UnitOptions); err != nil {
				return nil, fmt.Errorf("unit drop list: %w", err)
			}
			if err := f.AddDataValidation(sheetName, dv); err != nil {
				return nil, fmt.Errorf("add unit validation: %w", err)
			}
		}
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	addCatalogInstructionsSheet(f, fields, refs)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

// addCatalogInstructionsSheet creates a hidden sheet with field descriptions
// and the category names and codes an upload may reference.
func addCatalogInstructionsSheet(f *excelize.File, fields []TemplateField, refs *catalogRefs) {
	instSheet := "Instrucciones"
	f.NewSheet(instSheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(instSheet, "A1", "Importación de lista de precios - Instrucciones")
	f.SetCellStyle(instSheet, "A1", "A1", titleStyle)

	cols := excelColumns(5)
	for i, h := range []string{"Campo", "¿Obligatorio?", "Formato", "Descripción", "Ejemplo"} {
		cell := cols[i] + "3"
		f.SetCellValue(instSheet, cell, h)
		f.SetCellStyle(instSheet, cell, cell, headerStyle)
	}

	for i, field := range fields {
		row := fmt.Sprintf("%d", i+4)
		reqLabel := "Opcional"
		if field.Required {
			reqLabel = "Obligatorio"
		}
		f.SetCellValue(instSheet, cols[0]+row, field.Label)
		f.SetCellValue(instSheet, cols[1]+row, reqLabel)
		f.SetCellValue(instSheet, cols[2]+row, field.FormatRule)
		f.SetCellValue(instSheet, cols[3]+row, field.Description)
		f.SetCellValue(instSheet, cols[4]+row, field.ExampleValue)
	}

	// Reference lists below the field table.
	next := len(fields) + 6
	for _, list := range []struct {
		title  string
		values map[string]string
	}{
		{"Categorías", refs.categorias},
		{"Normas", refs.normas},
		{"Métodos", refs.metodos},
	} {
		f.SetCellValue(instSheet, fmt.Sprintf("A%d", next), list.title)
		f.SetCellStyle(instSheet, fmt.Sprintf("A%d", next), fmt.Sprintf("A%d", next), headerStyle)
		next++
		for _, name := range sortedKeys(list.values) {
			f.SetCellValue(instSheet, fmt.Sprintf("A%d", next), name)
			next++
		}
		next++
	}

	widths := []float64{24, 14, 30, 50, 25}
	for i, w := range widths {
		f.SetColWidth(instSheet, cols[i], cols[i], w)
	}

	f.SetSheetVisible(instSheet, false)
}

// excelColumns returns Excel column names for n columns: A, B, ... Z, AA, AB ...
func excelColumns(n int) []string {
	cols := make([]string, n)
	for i := 0; i < n; i++ {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cols[i] = name
	}
	return cols
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
