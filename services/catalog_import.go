package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const importBatchSize = 100

// TemplateField describes one column of the price-list import template.
type TemplateField struct {
	Key          string // PocketBase field name on servicios
	Label        string // header shown in Excel
	Description  string // shown on the Instructions sheet
	FormatRule   string
	ExampleValue string
	Required     bool
}

// CatalogTemplateFields returns the ordered columns of the price-list
// template. Normas and métodos are codes separated by ";".
func CatalogTemplateFields() []TemplateField {
	return []TemplateField{
		{Key: "nombre", Label: "Nombre", Description: "Nombre del ensayo o servicio", ExampleValue: "Contenido de humedad", Required: true},
		{Key: "codigo_facturacion", Label: "Código", Description: "Código de facturación; si ya existe, el servicio se actualiza", ExampleValue: "LAB-001"},
		{Key: "descripcion", Label: "Descripción", Description: "Descripción corta", ExampleValue: "Humedad natural de muestra de suelo"},
		{Key: "precio_base", Label: "Precio", Description: "Precio unitario sin IGV", FormatRule: "Número ≥ 0, punto o coma decimal", ExampleValue: "10.50", Required: true},
		{Key: "unidad_base", Label: "Unidad", Description: "Unidad de medida (lista desplegable)", ExampleValue: "Ensayo"},
		{Key: "categoria", Label: "Categoría", Description: "Nombre de una categoría existente", FormatRule: "Coincidencia exacta", ExampleValue: "ENSAYOS DE SUELOS"},
		{Key: "normas", Label: "Normas", Description: "Códigos de norma existentes", FormatRule: "Separados por ;", ExampleValue: "ASTM D2216"},
		{Key: "metodos", Label: "Métodos", Description: "Códigos de método existentes", FormatRule: "Separados por ;", ExampleValue: "A;B"},
	}
}

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned after parsing and validating an uploaded file.
type ValidationResult struct {
	TotalRows  int                 `json:"total_rows"`
	ValidRows  int                 `json:"valid_rows"`
	ErrorRows  int                 `json:"error_rows"`
	Errors     []ValidationError   `json:"errors"`
	ParsedRows []map[string]string `json:"-"`
	FileName   string              `json:"-"`
}

// ImportResult holds the outcome of a batch import.
type ImportResult struct {
	TotalRows  int              `json:"total_rows"`
	Created    int              `json:"created"`
	Updated    int              `json:"updated"`
	Failed     int              `json:"failed"`
	Errors     []ImportRowError `json:"errors,omitempty"`
	RolledBack bool             `json:"rolled_back"`
}

// Imported is the number of rows that reached the catalog.
func (r *ImportResult) Imported() int { return r.Created + r.Updated }

// ImportRowError represents a failure to store a specific row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// catalogRefs resolves the names and codes a price list may reference.
type catalogRefs struct {
	categorias map[string]string // nombre -> id
	normas     map[string]string // codigo -> id
	metodos    map[string]string // codigo -> id
	byCode     map[string]string // codigo_facturacion -> servicio id
}

func loadCatalogRefs(app core.App) (*catalogRefs, error) {
	refs := &catalogRefs{}
	var err error
	if refs.categorias, err = idsByField(app, "categorias_servicio", "nombre"); err != nil {
		return nil, err
	}
	if refs.normas, err = idsByField(app, "normas", "codigo"); err != nil {
		return nil, err
	}
	if refs.metodos, err = idsByField(app, "metodos", "codigo"); err != nil {
		return nil, err
	}
	if refs.byCode, err = idsByField(app, "servicios", "codigo_facturacion"); err != nil {
		return nil, err
	}
	return refs, nil
}

func idsByField(app core.App, collection, field string) (map[string]string, error) {
	records, err := app.FindAllRecords(collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	ids := make(map[string]string, len(records))
	for _, rec := range records {
		if key := strings.TrimSpace(rec.GetString(field)); key != "" {
			ids[key] = rec.Id
		}
	}
	return ids, nil
}

// parseCSV reads a CSV file and returns headers + data rows. Semicolon
// separated files, as written by spreadsheets in Spanish locales, are
// detected from the header line.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	firstLine, _, _ := bytes.Cut(raw, []byte("\n"))
	if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// parseXLS reads a legacy .xls workbook. Only single-sheet files are
// accepted so the rows cannot come from the wrong sheet.
func parseXLS(file io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read XLS: %w", err)
	}
	workbook, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLS file: %w", err)
	}
	switch workbook.NumSheets() {
	case 0:
		return nil, nil, fmt.Errorf("no worksheet found")
	case 1:
	default:
		return nil, nil, fmt.Errorf("multiple worksheets found; upload a file with a single sheet")
	}
	rows := workbook.ReadAllCells(100000)
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapHeadersToFields maps uploaded column headers to TemplateField keys.
// Returns ordered list of field keys (one per column) and any unrecognized columns.
func mapHeadersToFields(headers []string, fields []TemplateField) ([]string, []string) {
	labelToKey := make(map[string]string, len(fields)*2)
	for _, f := range fields {
		labelToKey[strings.ToLower(f.Label)] = f.Key
		labelToKey[f.Key] = f.Key
	}

	mapped := make([]string, len(headers))
	var unrecognized []string
	for i, h := range headers {
		// Strip the trailing " *" the template adds to required columns.
		norm := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), " *"))
		if key, ok := labelToKey[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// ValidateCatalogFile parses an uploaded .csv, .xlsx or .xls price list and checks
// every row against the catalog's references.
func ValidateCatalogFile(app core.App, file io.Reader, fileName string) (*ValidationResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	case strings.HasSuffix(lowerName, ".xls"):
		headers, dataRows, err = parseXLS(file)
	default:
		return nil, fmt.Errorf("unsupported file format: must be .csv, .xlsx or .xls")
	}
	if err != nil {
		return nil, err
	}

	fields := CatalogTemplateFields()
	columnKeys, unrecognized := mapHeadersToFields(headers, fields)
	if len(unrecognized) > 0 {
		zap.L().Debug("catalog import: ignoring columns", zap.Strings("columns", unrecognized))
	}
	for _, f := range fields {
		if f.Required && !containsString(columnKeys, f.Key) {
			return nil, fmt.Errorf("missing required column %q", f.Label)
		}
	}

	refs, err := loadCatalogRefs(app)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		TotalRows:  len(dataRows),
		FileName:   fileName,
		ParsedRows: make([]map[string]string, 0, len(dataRows)),
	}
	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2 // 1-indexed, +1 for header row
		rowData := make(map[string]string, len(columnKeys))
		for colIdx, key := range columnKeys {
			if key == "" {
				continue
			}
			if colIdx < len(row) {
				rowData[key] = strings.TrimSpace(row[colIdx])
			}
		}
		result.Errors = append(result.Errors, validateCatalogRow(rowNum, rowData, refs)...)
		result.ParsedRows = append(result.ParsedRows, rowData)
	}

	errorRowSet := make(map[int]bool)
	for _, e := range result.Errors {
		errorRowSet[e.Row] = true
	}
	result.ErrorRows = len(errorRowSet)
	result.ValidRows = result.TotalRows - result.ErrorRows

	return result, nil
}

func validateCatalogRow(rowNum int, data map[string]string, refs *catalogRefs) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Row: rowNum, Field: field, Message: msg})
	}

	if data["nombre"] == "" {
		add("Nombre", "Nombre is required")
	}
	price, err := ParseFieldNumber("precio_base", data["precio_base"], -1)
	switch {
	case err != nil:
		add("Precio", fmt.Sprintf("%q is not a number", data["precio_base"]))
	case price < 0:
		add("Precio", "Precio is required and cannot be negative")
	}
	if u := data["unidad_base"]; u != "" && !containsString(UnitOptions, u) {
		add("Unidad", fmt.Sprintf("unknown unit %q", u))
	}
	if c := data["categoria"]; c != "" {
		if _, ok := refs.categorias[c]; !ok {
			add("Categoría", fmt.Sprintf("category %q not found", c))
		}
	}
	for _, code := range splitCodes(data["normas"]) {
		if _, ok := refs.normas[code]; !ok {
			add("Normas", fmt.Sprintf("norma %q not found", code))
		}
	}
	for _, code := range splitCodes(data["metodos"]) {
		if _, ok := refs.metodos[code]; !ok {
			add("Métodos", fmt.Sprintf("método %q not found", code))
		}
	}
	return errs
}

func splitCodes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CommitCatalogImport re-validates the parsed rows and stores them in chunks
// of importBatchSize. A row whose código matches an existing service updates
// it; other rows create new services. A failing chunk is rolled back as a
// whole and the next chunk still runs.
func CommitCatalogImport(app core.App, parsedRows []map[string]string) (*ImportResult, error) {
	refs, err := loadCatalogRefs(app)
	if err != nil {
		return nil, err
	}

	var revalidation []ValidationError
	for i, row := range parsedRows {
		revalidation = append(revalidation, validateCatalogRow(i+2, row, refs)...)
	}
	if len(revalidation) > 0 {
		errorRowSet := make(map[int]bool)
		rowErrors := make([]ImportRowError, 0, len(revalidation))
		for _, e := range revalidation {
			errorRowSet[e.Row] = true
			rowErrors = append(rowErrors, ImportRowError(e))
		}
		return &ImportResult{
			TotalRows:  len(parsedRows),
			Failed:     len(errorRowSet),
			Errors:     rowErrors,
			RolledBack: true,
		}, nil
	}

	col, err := app.FindCollectionByNameOrId("servicios")
	if err != nil {
		return nil, fmt.Errorf("servicios collection not found: %w", err)
	}

	result := &ImportResult{TotalRows: len(parsedRows)}
	for chunkStart := 0; chunkStart < len(parsedRows); chunkStart += importBatchSize {
		chunkEnd := min(chunkStart+importBatchSize, len(parsedRows))
		chunk := parsedRows[chunkStart:chunkEnd]

		created, updated, chunkErrors := storeCatalogChunk(app, col, refs, chunk, chunkStart)
		if len(chunkErrors) > 0 {
			result.Errors = append(result.Errors, chunkErrors...)
			result.Failed += len(chunk)
			result.RolledBack = true
			continue
		}
		result.Created += created
		result.Updated += updated
	}
	return result, nil
}

func storeCatalogChunk(app core.App, col *core.Collection, refs *catalogRefs, rows []map[string]string, startOffset int) (int, int, []ImportRowError) {
	var chunkErrors []ImportRowError
	var created, updated int

	err := app.RunInTransaction(func(txApp core.App) error {
		for i, rowData := range rows {
			rowNum := startOffset + i + 2

			var record *core.Record
			if id, ok := refs.byCode[rowData["codigo_facturacion"]]; ok && rowData["codigo_facturacion"] != "" {
				existing, err := txApp.FindRecordById("servicios", id)
				if err != nil {
					chunkErrors = append(chunkErrors, ImportRowError{Row: rowNum, Field: "Código", Message: "service vanished during import"})
					return fmt.Errorf("row %d: %w", rowNum, err)
				}
				record = existing
				updated++
			} else {
				record = core.NewRecord(col)
				created++
			}

			record.Set("nombre", rowData["nombre"])
			record.Set("precio_base", ParseNumber(rowData["precio_base"]))
			for _, key := range []string{"codigo_facturacion", "descripcion", "unidad_base"} {
				if v := rowData[key]; v != "" {
					record.Set(key, v)
				}
			}
			if c := rowData["categoria"]; c != "" {
				record.Set("categoria", refs.categorias[c])
			}
			if codes := splitCodes(rowData["normas"]); len(codes) > 0 {
				record.Set("normas", lookupRefIDs(refs.normas, codes))
			}
			if codes := splitCodes(rowData["metodos"]); len(codes) > 0 {
				record.Set("metodos", lookupRefIDs(refs.metodos, codes))
			}

			if err := txApp.Save(record); err != nil {
				chunkErrors = append(chunkErrors, ImportRowError{
					Row:     rowNum,
					Message: fmt.Sprintf("Failed to save: %s", err.Error()),
				})
				return fmt.Errorf("save failed at row %d: %w", rowNum, err)
			}
		}
		return nil
	})

	if err != nil {
		zap.L().Warn("catalog import: chunk rolled back", zap.Int("start_row", startOffset+2), zap.Error(err))
		if len(chunkErrors) == 0 {
			chunkErrors = append(chunkErrors, ImportRowError{
				Row:     startOffset + 2,
				Message: fmt.Sprintf("Transaction failed: %s", err.Error()),
			})
		}
		return 0, 0, chunkErrors
	}
	return created, updated, nil
}

func lookupRefIDs(ids map[string]string, codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if id, ok := ids[code]; ok {
			out = append(out, id)
		}
	}
	return out
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errores"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Fila")
	f.SetCellValue(sheet, "B1", "Campo")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprintf("%d", i+2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
