package services

import (
	"fmt"
	"strings"
)

// Store is the ordered list of quotation rows plus the single optional edit
// position. It is the only source of truth for what the editor renders and
// submits; callers never touch the rows directly.
type Store struct {
	rows      []LineItem
	editIndex int
}

// EditSnapshot is the content of the row under edit, used to populate the
// input widgets.
type EditSnapshot struct {
	Index     int
	Kind      RowKind
	Label     string
	CatalogID string
	Quantity  float64
	UnitPrice float64
	Note      string
}

// NewStore seeds a store from an initial snapshot, which may be empty. The
// seed rows get the same coercion as rows added through the store, and
// headers with a blank label are dropped.
func NewStore(initial []LineItem) *Store {
	rows := make([]LineItem, 0, len(initial))
	for _, row := range initial {
		normalized, err := normalizeRow(row)
		if err != nil {
			continue
		}
		rows = append(rows, normalized)
	}
	return &Store{rows: rows, editIndex: -1}
}

// Rows returns a copy of the rows in order.
func (s *Store) Rows() []LineItem {
	out := make([]LineItem, len(s.rows))
	copy(out, s.rows)
	return out
}

func (s *Store) Len() int { return len(s.rows) }

// At returns the row at index i.
func (s *Store) At(i int) (LineItem, error) {
	if err := s.checkIndex(i); err != nil {
		return LineItem{}, err
	}
	return s.rows[i], nil
}

// EditIndex returns the row under edit, if any.
func (s *Store) EditIndex() (int, bool) {
	if s.editIndex < 0 {
		return -1, false
	}
	return s.editIndex, true
}

// AddHeader appends a category or subcategory row with an uppercased label.
// While a row is under edit, the header replaces it instead and edit mode
// ends, whatever the kind of the edited row.
func (s *Store) AddHeader(kind RowKind, label string) error {
	if !kind.IsHeader() {
		return fmt.Errorf("%w: %q is not a header kind", ErrValidation, kind)
	}
	label = strings.ToUpper(strings.TrimSpace(label))
	if label == "" {
		return fmt.Errorf("%w: header label is required", ErrValidation)
	}

	row := LineItem{Kind: kind, Label: label}
	if idx, editing := s.EditIndex(); editing {
		s.rows[idx] = row
		s.editIndex = -1
		return nil
	}

	s.rows = append(s.rows, row)
	return nil
}

// AddOrUpdateService builds a service line from the catalog entry and either
// replaces the row under edit or appends. A non-positive quantity becomes 1
// and a negative or non-numeric price becomes 0.
func (s *Store) AddOrUpdateService(catalog *Catalog, catalogID string, quantity, unitPrice float64, note string) error {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return fmt.Errorf("%w: no catalog item selected", ErrValidation)
	}
	entry, ok := catalog.Lookup(catalogID)
	if !ok {
		return fmt.Errorf("%w: catalog entry %q", ErrNotFound, catalogID)
	}

	row := newServiceRow(entry, coerceQuantity(quantity), coercePrice(unitPrice), note)
	if idx, editing := s.EditIndex(); editing {
		s.rows[idx] = row
		s.editIndex = -1
		return nil
	}

	s.rows = append(s.rows, row)
	return nil
}

// RemoveAt deletes the row at index i. Removing the row under edit ends edit
// mode; removing a row above it keeps the edit pointed at the same row.
func (s *Store) RemoveAt(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)

	switch {
	case s.editIndex == i:
		s.editIndex = -1
	case s.editIndex > i:
		s.editIndex--
	}
	return nil
}

// BeginEdit marks row i as under edit and returns its fields.
func (s *Store) BeginEdit(i int) (EditSnapshot, error) {
	if err := s.checkIndex(i); err != nil {
		return EditSnapshot{}, err
	}
	s.editIndex = i
	row := s.rows[i]
	return EditSnapshot{
		Index:     i,
		Kind:      row.Kind,
		Label:     row.Label,
		CatalogID: row.CatalogID,
		Quantity:  row.Quantity,
		UnitPrice: row.UnitPrice,
		Note:      row.Note,
	}, nil
}

// CancelEdit leaves edit mode. It is idempotent.
func (s *Store) CancelEdit() {
	s.editIndex = -1
}

// Snapshot returns the JSON payload submitted with the quotation form.
func (s *Store) Snapshot() (string, error) {
	return EncodeSnapshot(s.rows)
}

func (s *Store) checkIndex(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%w: %d (rows: %d)", ErrIndexOutOfRange, i, len(s.rows))
	}
	return nil
}
