package services

import "bytes"

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func testCatalog() *Catalog {
	return NewCatalog([]CatalogEntry{
		{ID: "srv-humedad", Name: "Contenido de humedad", UnitPrice: 10, Unit: "Ensayo", NormaCode: "ASTM D2216", MetodoCode: "A", NormaID: "n1", MetodoID: "m1"},
		{ID: "srv-granulo", Name: "Análisis granulométrico", UnitPrice: 45.5, Unit: "Muestra", NormaCode: "ASTM D6913", NormaID: "n2"},
		{ID: "srv-proctor", Name: "Proctor modificado", UnitPrice: 120},
	})
}
