package services

import "strconv"

// DefaultUnit is printed for service lines without a unit.
const DefaultUnit = "UND"

// RenderedRow is the display projection of one LineItem. Position is derived
// from the row's place in the list and is never stored.
type RenderedRow struct {
	Index      int
	Kind       RowKind
	Position   string
	Label      string
	Note       string
	NormaLabel string
	Quantity   float64
	Unit       string
	UnitPrice  float64
	Subtotal   float64
	Editing    bool
}

// RenderRows walks rows once, lettering categories A, B, C…, subcategories
// a, b, c… and numbering services 1, 2, 3… within the innermost header.
// A new category resets the subcategory and service counters; a new
// subcategory resets the service counter. Reference text and unit missing
// on a row are filled from the catalog. editIndex < 0 means no row is under
// edit.
func RenderRows(rows []LineItem, catalog *Catalog, editIndex int) []RenderedRow {
	out := make([]RenderedRow, 0, len(rows))
	var categories, subcategories, services int

	for i, row := range rows {
		r := RenderedRow{
			Index:   i,
			Kind:    row.Kind,
			Label:   row.Label,
			Note:    row.Note,
			Editing: i == editIndex,
		}

		switch row.Kind {
		case KindCategory:
			categories++
			subcategories, services = 0, 0
			r.Position = columnLetters(categories, true)
		case KindSubcategory:
			subcategories++
			services = 0
			r.Position = columnLetters(subcategories, false)
		default:
			services++
			r.Position = strconv.Itoa(services)
			r.Quantity = row.Quantity
			r.UnitPrice = row.UnitPrice
			r.Subtotal = LineSubtotal(row)
			r.NormaLabel = row.NormaLabel
			r.Unit = row.Unit
			if entry, ok := catalog.Lookup(row.CatalogID); ok {
				if r.NormaLabel == "" {
					r.NormaLabel = entry.ReferenceLabel()
				}
				if r.Unit == "" {
					r.Unit = entry.Unit
				}
				if r.Label == "" {
					r.Label = entry.Name
				}
			}
			if r.Unit == "" {
				r.Unit = DefaultUnit
			}
		}

		out = append(out, r)
	}
	return out
}

// columnLetters returns spreadsheet-style letters for n ≥ 1: A…Z, AA, AB…
func columnLetters(n int, upper bool) string {
	base := byte('a')
	if upper {
		base = 'A'
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append([]byte{base + byte(n%26)}, buf...)
		n /= 26
	}
	return string(buf)
}
