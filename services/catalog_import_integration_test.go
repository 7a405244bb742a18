package services_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"labquote/services"
	"labquote/testhelpers"
)

const priceListCSV = `Nombre *,Código,Precio *,Unidad,Categoría,Normas,Métodos
Contenido de humedad,LAB-001,12.5,Ensayo,SUELOS,ASTM D2216,A
Corte directo,LAB-020,"250,00",Ensayo,,ASTM D2216,
`

func TestValidateCatalogFile_CSV(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestCategory(t, app, "SUELOS")
	testhelpers.CreateTestNorma(t, app, "ASTM D2216")
	testhelpers.CreateTestMetodo(t, app, "A")

	result, err := services.ValidateCatalogFile(app, strings.NewReader(priceListCSV), "precios.csv")
	if err != nil {
		t.Fatalf("ValidateCatalogFile() error = %v", err)
	}
	if result.TotalRows != 2 || result.ValidRows != 2 || result.ErrorRows != 0 {
		t.Errorf("result = %+v", result)
	}
	if got := result.ParsedRows[1]["precio_base"]; got != "250,00" {
		t.Errorf("parsed price = %q", got)
	}
}

func TestValidateCatalogFile_Errors(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	csv := "Nombre,Precio,Normas\nHumedad,abc,ASTM X\n,5,\n"
	result, err := services.ValidateCatalogFile(app, strings.NewReader(csv), "precios.CSV")
	if err != nil {
		t.Fatalf("ValidateCatalogFile() error = %v", err)
	}
	if result.ErrorRows != 2 || result.ValidRows != 0 {
		t.Errorf("ErrorRows = %d, ValidRows = %d", result.ErrorRows, result.ValidRows)
	}
	if len(result.Errors) != 3 {
		t.Errorf("got %d errors, want 3: %+v", len(result.Errors), result.Errors)
	}
}

func TestValidateCatalogFile_Rejects(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name     string
		content  string
		fileName string
	}{
		{"unsupported extension", "Nombre,Precio\nX,1\n", "precios.txt"},
		{"missing price column", "Nombre,Unidad\nX,UND\n", "precios.csv"},
		{"no data rows", "Nombre,Precio\n", "precios.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := services.ValidateCatalogFile(app, strings.NewReader(tt.content), tt.fileName); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestValidateCatalogFile_Excel(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]any{"Nombre *", "Precio *", "Unidad"})
	f.SetSheetRow(sheet, "A2", &[]any{"Proctor modificado", 150, "Ensayo"})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f.Close()

	result, err := services.ValidateCatalogFile(app, &buf, "precios.xlsx")
	if err != nil {
		t.Fatalf("ValidateCatalogFile() error = %v", err)
	}
	if result.ValidRows != 1 {
		t.Errorf("ValidRows = %d, errors %+v", result.ValidRows, result.Errors)
	}
	if got := result.ParsedRows[0]["precio_base"]; got != "150" {
		t.Errorf("parsed price = %q", got)
	}
}

func TestCommitCatalogImport_CreatesAndUpdates(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	cat := testhelpers.CreateTestCategory(t, app, "SUELOS")
	norma := testhelpers.CreateTestNorma(t, app, "ASTM D2216")
	existing := testhelpers.CreateTestService(t, app, "Humedad antigua", 10, "Ensayo", "", "")
	existing.Set("codigo_facturacion", "LAB-001")
	if err := app.Save(existing); err != nil {
		t.Fatal(err)
	}

	rows := []map[string]string{
		{"nombre": "Contenido de humedad", "codigo_facturacion": "LAB-001", "precio_base": "12,5", "categoria": "SUELOS", "normas": "ASTM D2216"},
		{"nombre": "Corte directo", "codigo_facturacion": "LAB-020", "precio_base": "250", "unidad_base": "Ensayo"},
	}
	result, err := services.CommitCatalogImport(app, rows)
	if err != nil {
		t.Fatalf("CommitCatalogImport() error = %v", err)
	}
	if result.Created != 1 || result.Updated != 1 || result.Failed != 0 || result.Imported() != 2 {
		t.Errorf("result = %+v", result)
	}

	updated, err := app.FindRecordById("servicios", existing.Id)
	if err != nil {
		t.Fatal(err)
	}
	if updated.GetString("nombre") != "Contenido de humedad" || updated.GetFloat("precio_base") != 12.5 {
		t.Errorf("updated service = %q %v", updated.GetString("nombre"), updated.GetFloat("precio_base"))
	}
	if updated.GetString("categoria") != cat.Id {
		t.Errorf("categoria = %q, want %q", updated.GetString("categoria"), cat.Id)
	}
	if ids := updated.GetStringSlice("normas"); len(ids) != 1 || ids[0] != norma.Id {
		t.Errorf("normas = %v", ids)
	}

	all, err := app.FindAllRecords("servicios")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("catalog has %d services, want 2", len(all))
	}
}

func TestCommitCatalogImport_RevalidationBlocksAll(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	rows := []map[string]string{
		{"nombre": "Bueno", "precio_base": "1"},
		{"nombre": "Malo", "precio_base": "1", "categoria": "NO EXISTE"},
	}
	result, err := services.CommitCatalogImport(app, rows)
	if err != nil {
		t.Fatalf("CommitCatalogImport() error = %v", err)
	}
	if !result.RolledBack || result.Failed != 1 || result.Imported() != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Errorf("errors = %+v", result.Errors)
	}

	all, _ := app.FindAllRecords("servicios")
	if len(all) != 0 {
		t.Errorf("revalidation failure stored %d services", len(all))
	}
}

func TestGenerateCatalogTemplate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestNorma(t, app, "ASTM C39")

	result, err := services.GenerateCatalogTemplate(app)
	if err != nil {
		t.Fatalf("GenerateCatalogTemplate() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Servicios" || sheets[1] != "Instrucciones" {
		t.Fatalf("sheets = %v", sheets)
	}
	if got, _ := f.GetCellValue("Servicios", "A1"); got != "Nombre *" {
		t.Errorf("A1 = %q, want required marker", got)
	}
	if got, _ := f.GetCellValue("Servicios", "B1"); got != "Código" {
		t.Errorf("B1 = %q", got)
	}
	visible, err := f.GetSheetVisible("Instrucciones")
	if err != nil {
		t.Fatal(err)
	}
	if visible {
		t.Error("instructions sheet should be hidden")
	}

	// The uploaded template header must map back onto the import fields.
	rows, err := f.GetRows("Servicios")
	if err != nil {
		t.Fatal(err)
	}
	csv := strings.Join(rows[0], ",") + "\nX,,,1,,,,\n"
	vr, err := services.ValidateCatalogFile(app, strings.NewReader(csv), "roundtrip.csv")
	if err != nil {
		t.Fatalf("template header not accepted: %v", err)
	}
	if vr.ValidRows != 1 {
		t.Errorf("round-trip row invalid: %+v", vr.Errors)
	}
}
