package services

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestStore_AddHeader(t *testing.T) {
	s := NewStore(nil)

	if err := s.AddHeader(KindCategory, "  ensayos en suelos "); err != nil {
		t.Fatalf("AddHeader() error = %v", err)
	}
	if err := s.AddHeader(KindCategory, "ensayos en suelos"); err != nil {
		t.Fatalf("duplicate AddHeader() error = %v", err)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Label != "ENSAYOS EN SUELOS" || rows[0].Kind != KindCategory {
		t.Errorf("unexpected header row %+v", rows[0])
	}
}

func TestStore_AddHeader_Validation(t *testing.T) {
	tests := []struct {
		name  string
		kind  RowKind
		label string
	}{
		{"blank label", KindCategory, "   "},
		{"service is not a header", KindService, "X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			err := s.AddHeader(tt.kind, tt.label)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if s.Len() != 0 {
				t.Errorf("store mutated on validation error: %d rows", s.Len())
			}
		})
	}
}

func TestStore_AddOrUpdateService(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)

	if err := s.AddOrUpdateService(cat, "srv-humedad", 3, 12.5, "muestra alterada"); err != nil {
		t.Fatalf("AddOrUpdateService() error = %v", err)
	}

	row, err := s.At(0)
	if err != nil {
		t.Fatalf("At(0) error = %v", err)
	}
	want := LineItem{
		Kind:       KindService,
		Label:      "Contenido de humedad",
		CatalogID:  "srv-humedad",
		Quantity:   3,
		UnitPrice:  12.5,
		Unit:       "Ensayo",
		NormaLabel: "ASTM D2216 / A",
		NormaID:    "n1",
		MetodoID:   "m1",
		Note:       "muestra alterada",
	}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("row = %+v\nwant %+v", row, want)
	}
}

func TestStore_AddOrUpdateService_Coercion(t *testing.T) {
	tests := []struct {
		name        string
		qty, price  float64
		expectQty   float64
		expectPrice float64
	}{
		{"zero qty defaults to one", 0, 10, 1, 10},
		{"negative qty defaults to one", -2, 10, 1, 10},
		{"negative price becomes zero", 2, -5, 2, 0},
		{"fractional qty kept", 2.5, 4, 2.5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			if err := s.AddOrUpdateService(testCatalog(), "srv-proctor", tt.qty, tt.price, ""); err != nil {
				t.Fatalf("AddOrUpdateService() error = %v", err)
			}
			row, _ := s.At(0)
			if row.Quantity != tt.expectQty || row.UnitPrice != tt.expectPrice {
				t.Errorf("got qty=%v price=%v, want qty=%v price=%v",
					row.Quantity, row.UnitPrice, tt.expectQty, tt.expectPrice)
			}
			if row.Unit != DefaultUnit {
				t.Errorf("Unit = %q, want %q", row.Unit, DefaultUnit)
			}
		})
	}
}

func TestStore_AddOrUpdateService_Errors(t *testing.T) {
	s := NewStore([]LineItem{{Kind: KindCategory, Label: "A"}})

	err := s.AddOrUpdateService(testCatalog(), "missing", 1, 1, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	err = s.AddOrUpdateService(testCatalog(), "", 1, 1, "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("store mutated on error: %d rows", s.Len())
	}
}

func TestStore_EditReplacesRow(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)
	_ = s.AddOrUpdateService(cat, "srv-humedad", 1, 10, "")
	_ = s.AddOrUpdateService(cat, "srv-granulo", 1, 45.5, "")

	if _, err := s.BeginEdit(0); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	if err := s.AddOrUpdateService(cat, "srv-proctor", 2, 100, ""); err != nil {
		t.Fatalf("AddOrUpdateService() error = %v", err)
	}

	if s.Len() != 2 {
		t.Fatalf("expected 2 rows after replace, got %d", s.Len())
	}
	row, _ := s.At(0)
	if row.CatalogID != "srv-proctor" {
		t.Errorf("row 0 = %q, want srv-proctor", row.CatalogID)
	}
	if _, editing := s.EditIndex(); editing {
		t.Error("expected edit mode to end after update")
	}
}

func TestStore_EditRoundTripLeavesRowsUnchanged(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)
	_ = s.AddHeader(KindCategory, "suelos")
	_ = s.AddOrUpdateService(cat, "srv-humedad", 3, 11, "nota")
	before := s.Rows()

	snap, err := s.BeginEdit(1)
	if err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	if err := s.AddOrUpdateService(cat, snap.CatalogID, snap.Quantity, snap.UnitPrice, snap.Note); err != nil {
		t.Fatalf("AddOrUpdateService() error = %v", err)
	}

	if !reflect.DeepEqual(before, s.Rows()) {
		t.Errorf("rows changed:\nbefore %+v\nafter  %+v", before, s.Rows())
	}
	if _, editing := s.EditIndex(); editing {
		t.Error("expected idle after update")
	}
}

func TestStore_HeaderEdit(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)
	_ = s.AddHeader(KindCategory, "suelos")
	_ = s.AddOrUpdateService(cat, "srv-humedad", 1, 10, "")

	if _, err := s.BeginEdit(0); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	if err := s.AddHeader(KindCategory, "concreto"); err != nil {
		t.Fatalf("AddHeader() error = %v", err)
	}
	row, _ := s.At(0)
	if row.Label != "CONCRETO" || s.Len() != 2 {
		t.Errorf("expected header replaced in place, got %+v (rows=%d)", row, s.Len())
	}

	// A header also replaces a service line under edit.
	if _, err := s.BeginEdit(1); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	if err := s.AddHeader(KindSubcategory, "campo"); err != nil {
		t.Fatalf("AddHeader() error = %v", err)
	}
	row, _ = s.At(1)
	if row.Kind != KindSubcategory || row.Label != "CAMPO" || s.Len() != 2 {
		t.Errorf("expected service replaced by CAMPO, got %+v (rows=%d)", row, s.Len())
	}
	if _, editing := s.EditIndex(); editing {
		t.Error("expected idle after header replaced the edited row")
	}
	if got := ComputeTotals(s.Rows(), DefaultTaxRate).Subtotal; got != 0 {
		t.Errorf("subtotal = %v, want 0 with no service rows", got)
	}
}

func TestNewStore_NormalizesSeedRows(t *testing.T) {
	s := NewStore([]LineItem{
		{Kind: KindCategory, Label: "  suelos "},
		{Kind: KindService, CatalogID: "srv-humedad", Quantity: -3, UnitPrice: 10},
		{Kind: KindSubcategory, Label: "   "},
		{Kind: KindService, CatalogID: "srv-proctor", Quantity: 0, UnitPrice: -5},
		{Kind: KindService, CatalogID: "srv-granulo", Quantity: math.NaN(), UnitPrice: math.Inf(1)},
	})

	rows := s.Rows()
	if len(rows) != 4 {
		t.Fatalf("expected blank header dropped, got %d rows: %+v", len(rows), rows)
	}
	if rows[0].Label != "SUELOS" {
		t.Errorf("header label = %q, want SUELOS", rows[0].Label)
	}
	for i, row := range rows[1:] {
		if row.Quantity <= 0 || row.UnitPrice < 0 || math.IsInf(row.UnitPrice, 0) {
			t.Errorf("row %d not coerced: qty=%v price=%v", i+1, row.Quantity, row.UnitPrice)
		}
	}
	totals := ComputeTotals(rows, DefaultTaxRate)
	if totals.Subtotal != 10 {
		t.Errorf("subtotal = %v, want 10", totals.Subtotal)
	}
}

func TestStore_RemoveEditedRowClearsEdit(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)
	_ = s.AddOrUpdateService(cat, "srv-humedad", 1, 10, "")
	_ = s.AddOrUpdateService(cat, "srv-granulo", 1, 20, "")

	if _, err := s.BeginEdit(1); err != nil {
		t.Fatalf("BeginEdit() error = %v", err)
	}
	if err := s.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt() error = %v", err)
	}
	if _, editing := s.EditIndex(); editing {
		t.Fatal("expected edit cleared after removing edited row")
	}

	// The next add appends instead of replacing.
	if err := s.AddOrUpdateService(cat, "srv-proctor", 1, 5, ""); err != nil {
		t.Fatalf("AddOrUpdateService() error = %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", s.Len())
	}
	last, _ := s.At(1)
	if last.CatalogID != "srv-proctor" {
		t.Errorf("expected appended row srv-proctor, got %q", last.CatalogID)
	}
}

func TestStore_RemoveAboveEditedRowShiftsEdit(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)
	_ = s.AddHeader(KindCategory, "a")
	_ = s.AddOrUpdateService(cat, "srv-humedad", 1, 10, "")
	_ = s.AddOrUpdateService(cat, "srv-granulo", 1, 20, "")

	_, _ = s.BeginEdit(2)
	if err := s.RemoveAt(0); err != nil {
		t.Fatalf("RemoveAt() error = %v", err)
	}
	idx, editing := s.EditIndex()
	if !editing || idx != 1 {
		t.Fatalf("EditIndex() = (%d, %v), want (1, true)", idx, editing)
	}
	row, _ := s.At(idx)
	if row.CatalogID != "srv-granulo" {
		t.Errorf("edit now points at %q, want srv-granulo", row.CatalogID)
	}
}

func TestStore_IndexErrors(t *testing.T) {
	s := NewStore([]LineItem{{Kind: KindCategory, Label: "A"}})

	for _, idx := range []int{-1, 1, 5} {
		if err := s.RemoveAt(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveAt(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
		if _, err := s.BeginEdit(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("BeginEdit(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
	if s.Len() != 1 {
		t.Errorf("store mutated: %d rows", s.Len())
	}
}

func TestStore_CancelEditIdempotent(t *testing.T) {
	s := NewStore([]LineItem{{Kind: KindCategory, Label: "A"}})
	_, _ = s.BeginEdit(0)

	s.CancelEdit()
	onceRows, onceIdx := s.Rows(), s.editIndex
	s.CancelEdit()

	if !reflect.DeepEqual(onceRows, s.Rows()) || onceIdx != s.editIndex {
		t.Error("second CancelEdit changed state")
	}
	if _, editing := s.EditIndex(); editing {
		t.Error("expected idle")
	}
}

func TestStore_SubtotalMatchesServiceRows(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)

	type op func() error
	ops := []op{
		func() error { return s.AddHeader(KindCategory, "suelos") },
		func() error { return s.AddOrUpdateService(cat, "srv-humedad", 3, 10, "") },
		func() error { return s.AddOrUpdateService(cat, "srv-granulo", 2, 45.5, "") },
		func() error { return s.AddHeader(KindSubcategory, "campo") },
		func() error { return s.AddOrUpdateService(cat, "srv-proctor", 1, 120, "") },
		func() error { return s.RemoveAt(1) },
		func() error { return s.AddOrUpdateService(cat, "srv-humedad", 4, 9.75, "") },
		func() error { return s.RemoveAt(0) },
	}

	for i, apply := range ops {
		if err := apply(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		var want float64
		for _, row := range s.Rows() {
			if row.Kind == KindService {
				want += row.Quantity * row.UnitPrice
			}
		}
		if got := ComputeTotals(s.Rows(), DefaultTaxRate).Subtotal; got != want {
			t.Errorf("after op %d: subtotal = %v, want %v", i, got, want)
		}
	}
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	cat := testCatalog()
	s := NewStore(nil)
	_ = s.AddHeader(KindCategory, "suelos")
	_ = s.AddOrUpdateService(cat, "srv-humedad", 3, 10, "nota")
	_ = s.AddHeader(KindSubcategory, "campo")
	_ = s.AddOrUpdateService(cat, "srv-proctor", 1, 0, "")

	snapshot, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	parsed, err := ParseSnapshot(snapshot)
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}
	if !reflect.DeepEqual(parsed, s.Rows()) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", parsed, s.Rows())
	}
}
