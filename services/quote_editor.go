package services

import (
	"fmt"
	"strconv"
	"strings"
)

// EditorState is Idle or Editing.
type EditorState int

const (
	StateIdle EditorState = iota
	StateEditing
)

func (s EditorState) String() string {
	if s == StateEditing {
		return "editing"
	}
	return "idle"
}

// SelectionOrigin tells a search widget's change handler whether the new
// value was picked by the user or set while populating an edit.
type SelectionOrigin int

const (
	SelectionUser SelectionOrigin = iota
	SelectionProgrammatic
)

// Primary button intents.
const (
	IntentAdd    = "add"
	IntentUpdate = "update"
)

// ServicePreview is what the service widget shows next to the inputs after
// a selection: reference codes and the default unit price.
type ServicePreview struct {
	CatalogID  string
	Name       string
	NormaText  string
	MetodoText string
	UnitPrice  float64
	Unit       string
	Found      bool
}

// EditorView is everything a template needs to draw the items section.
type EditorView struct {
	Rows         []RenderedRow
	Totals       QuoteTotals
	SnapshotJSON string
	EditIndex    int
	Intent       string
	Editing      *EditSnapshot
}

// Editor routes the editor's commands to the store. It owns the store and
// reads the catalog; the tax rate is normalized once at construction.
type Editor struct {
	store   *Store
	catalog *Catalog
	taxRate float64
	editing *EditSnapshot
}

// NewEditor creates an idle editor over the initial rows.
func NewEditor(catalog *Catalog, initial []LineItem, taxRate float64) *Editor {
	return &Editor{
		store:   NewStore(initial),
		catalog: catalog,
		taxRate: NormalizeTaxRate(taxRate),
	}
}

// RestoreEditor rebuilds an editor from the hidden form fields of a previous
// render. An edit index that is blank, unparseable or out of range leaves
// the editor idle.
func RestoreEditor(catalog *Catalog, snapshot, editIndex string, taxRate float64) (*Editor, error) {
	rows, err := ParseSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	e := NewEditor(catalog, rows, taxRate)
	if idx, err := strconv.Atoi(strings.TrimSpace(editIndex)); err == nil && idx >= 0 && idx < e.store.Len() {
		if _, err := e.BeginEdit(idx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Editor) State() EditorState {
	if _, ok := e.store.EditIndex(); ok {
		return StateEditing
	}
	return StateIdle
}

func (e *Editor) EditIndex() (int, bool) { return e.store.EditIndex() }

func (e *Editor) Rows() []LineItem { return e.store.Rows() }

func (e *Editor) TaxRate() float64 { return e.taxRate }

// ButtonIntent is "update" while a row is under edit, "add" otherwise.
func (e *Editor) ButtonIntent() string {
	if e.State() == StateEditing {
		return IntentUpdate
	}
	return IntentAdd
}

// AddHeader appends a header, or replaces the header under edit.
func (e *Editor) AddHeader(kind RowKind, label string) error {
	if err := e.store.AddHeader(kind, label); err != nil {
		return err
	}
	e.syncEditing()
	return nil
}

// AddOrUpdateService takes the raw text of the quantity and price inputs and
// coerces them before handing them to the store.
func (e *Editor) AddOrUpdateService(catalogID, quantity, unitPrice, note string) error {
	if err := e.store.AddOrUpdateService(e.catalog, catalogID, ParseNumber(quantity), ParseNumber(unitPrice), note); err != nil {
		return err
	}
	e.syncEditing()
	return nil
}

// Remove deletes row i; removing the edited row returns the editor to Idle.
func (e *Editor) Remove(i int) error {
	if err := e.store.RemoveAt(i); err != nil {
		return err
	}
	e.syncEditing()
	return nil
}

// BeginEdit enters Editing(i). For service rows the service widget is
// populated programmatically, so it never appends a row.
func (e *Editor) BeginEdit(i int) (EditSnapshot, error) {
	snap, err := e.store.BeginEdit(i)
	if err != nil {
		return EditSnapshot{}, err
	}
	if snap.Kind == KindService {
		if _, err := e.SelectService(snap.CatalogID, SelectionProgrammatic); err != nil {
			return EditSnapshot{}, err
		}
	}
	e.editing = &snap
	return snap, nil
}

// CancelEdit discards the edit without committing.
func (e *Editor) CancelEdit() {
	e.store.CancelEdit()
	e.editing = nil
}

// SelectHeader is the change handler of the category and subcategory search
// widgets. A user pick appends a header when idle, or commits the label when
// the header under edit is of the same kind. Programmatic picks made while
// populating an edit are ignored.
func (e *Editor) SelectHeader(kind RowKind, label string, origin SelectionOrigin) (bool, error) {
	if origin == SelectionProgrammatic || strings.TrimSpace(label) == "" {
		return false, nil
	}
	if idx, editing := e.store.EditIndex(); editing {
		row, err := e.store.At(idx)
		if err != nil {
			return false, err
		}
		if row.Kind != kind {
			return false, nil
		}
	}
	if err := e.AddHeader(kind, label); err != nil {
		return false, err
	}
	return true, nil
}

// SelectService is the change handler of the service search widget. It never
// mutates the store; it returns the preview shown beside the inputs.
func (e *Editor) SelectService(catalogID string, origin SelectionOrigin) (ServicePreview, error) {
	catalogID = strings.TrimSpace(catalogID)
	if catalogID == "" {
		return ServicePreview{}, nil
	}
	entry, ok := e.catalog.Lookup(catalogID)
	if !ok {
		if origin == SelectionProgrammatic {
			// Rows of a retired catalog entry can still be edited.
			return ServicePreview{CatalogID: catalogID}, nil
		}
		return ServicePreview{}, fmt.Errorf("%w: catalog entry %q", ErrNotFound, catalogID)
	}
	return ServicePreview{
		CatalogID:  entry.ID,
		Name:       entry.Name,
		NormaText:  valueOrNA(entry.NormaCode),
		MetodoText: valueOrNA(entry.MetodoCode),
		UnitPrice:  entry.UnitPrice,
		Unit:       entry.Unit,
		Found:      true,
	}, nil
}

// View renders the rows and totals and serializes the store.
func (e *Editor) View() (EditorView, error) {
	rows := e.store.Rows()
	snapshot, err := EncodeSnapshot(rows)
	if err != nil {
		return EditorView{}, err
	}
	idx, _ := e.store.EditIndex()
	return EditorView{
		Rows:         RenderRows(rows, e.catalog, idx),
		Totals:       ComputeTotals(rows, e.taxRate),
		SnapshotJSON: snapshot,
		EditIndex:    idx,
		Intent:       e.ButtonIntent(),
		Editing:      e.editing,
	}, nil
}

func (e *Editor) syncEditing() {
	if _, ok := e.store.EditIndex(); !ok {
		e.editing = nil
		return
	}
	if e.editing != nil {
		idx, _ := e.store.EditIndex()
		e.editing.Index = idx
	}
}

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
