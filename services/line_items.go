package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RowKind discriminates the rows of a quotation.
type RowKind string

const (
	KindCategory    RowKind = "categoria"
	KindSubcategory RowKind = "subcategoria"
	KindService     RowKind = "servicio"
)

// IsHeader reports whether rows of this kind are non-priced grouping rows.
func (k RowKind) IsHeader() bool {
	return k == KindCategory || k == KindSubcategory
}

// ParseRowKind validates a row kind coming from a form or a snapshot.
func ParseRowKind(s string) (RowKind, error) {
	switch k := RowKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCategory, KindSubcategory, KindService:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown row kind %q", ErrValidation, s)
}

// LineItem is one row of the quotation: a category or subcategory header, or
// a priced service line. Header rows only use Kind and Label. The line
// subtotal is never stored; see LineSubtotal.
type LineItem struct {
	Kind       RowKind `json:"tipo_fila"`
	Label      string  `json:"descripcion_especifica"`
	CatalogID  string  `json:"servicio_id,omitempty"`
	Quantity   float64 `json:"cantidad,omitempty"`
	UnitPrice  float64 `json:"precio_unitario,omitempty"`
	Unit       string  `json:"unidad_medida,omitempty"`
	NormaLabel string  `json:"norma_nombre,omitempty"`
	NormaID    string  `json:"norma_id,omitempty"`
	MetodoID   string  `json:"metodo_id,omitempty"`
	Note       string  `json:"nota,omitempty"`
}

func newServiceRow(entry CatalogEntry, quantity, unitPrice float64, note string) LineItem {
	unit := entry.Unit
	if unit == "" {
		unit = DefaultUnit
	}
	return LineItem{
		Kind:       KindService,
		Label:      entry.Name,
		CatalogID:  entry.ID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Unit:       unit,
		NormaLabel: entry.ReferenceLabel(),
		NormaID:    entry.NormaID,
		MetodoID:   entry.MetodoID,
		Note:       strings.TrimSpace(note),
	}
}

// UnmarshalJSON accepts both the editor's own snapshots and the looser shape
// stored by older quotations: numbers and ids may arrive as strings, and a
// missing tipo_fila means a service line.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind       string     `json:"tipo_fila"`
		Label      string     `json:"descripcion_especifica"`
		CatalogID  flexString `json:"servicio_id"`
		Quantity   flexNumber `json:"cantidad"`
		UnitPrice  flexNumber `json:"precio_unitario"`
		Unit       string     `json:"unidad_medida"`
		NormaLabel string     `json:"norma_nombre"`
		NormaID    flexString `json:"norma_id"`
		MetodoID   flexString `json:"metodo_id"`
		Note       string     `json:"nota"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind := KindService
	if strings.TrimSpace(raw.Kind) != "" {
		k, err := ParseRowKind(raw.Kind)
		if err != nil {
			return err
		}
		kind = k
	}

	*li = LineItem{
		Kind:       kind,
		Label:      raw.Label,
		CatalogID:  string(raw.CatalogID),
		Quantity:   float64(raw.Quantity),
		UnitPrice:  float64(raw.UnitPrice),
		Unit:       raw.Unit,
		NormaLabel: raw.NormaLabel,
		NormaID:    string(raw.NormaID),
		MetodoID:   string(raw.MetodoID),
		Note:       raw.Note,
	}
	return nil
}

// ParseSnapshot decodes the hidden detalles_json field. A blank value is an
// empty quotation.
func ParseSnapshot(snapshot string) ([]LineItem, error) {
	trimmed := strings.TrimSpace(snapshot)
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	var rows []LineItem
	if err := json.Unmarshal([]byte(trimmed), &rows); err != nil {
		return nil, &FormatError{Field: "detalles_json", Value: truncateValue(trimmed, 40)}
	}
	for i, row := range rows {
		normalized, err := normalizeRow(row)
		if err != nil {
			return nil, &FormatError{Field: "detalles_json", Value: fmt.Sprintf("fila %d: %s", i+1, truncateValue(row.Label, 40))}
		}
		rows[i] = normalized
	}
	return rows, nil
}

// normalizeRow applies the row rules to a row that did not come through the
// store's mutators. Header labels are trimmed and uppercased and must not be
// blank; service lines get the quantity and price coercion of the editor.
func normalizeRow(row LineItem) (LineItem, error) {
	if row.Kind.IsHeader() {
		label := strings.ToUpper(strings.TrimSpace(row.Label))
		if label == "" {
			return LineItem{}, fmt.Errorf("%w: header label is required", ErrValidation)
		}
		return LineItem{Kind: row.Kind, Label: label}, nil
	}
	row.Quantity = coerceQuantity(row.Quantity)
	row.UnitPrice = coercePrice(row.UnitPrice)
	return row, nil
}

// coerceQuantity maps a missing, non-finite or non-positive quantity to 1.
func coerceQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return 1
	}
	return q
}

// coercePrice maps a non-finite or negative unit price to 0.
func coercePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// EncodeSnapshot serializes rows for the hidden detalles_json field. An empty
// list encodes as "[]", never "null".
func EncodeSnapshot(rows []LineItem) (string, error) {
	if rows == nil {
		rows = []LineItem{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode line items: %w", err)
	}
	return string(data), nil
}

type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if s, err := strconv.Unquote(string(data)); err == nil {
		*n = flexNumber(ParseNumber(s))
		return nil
	}
	*n = flexNumber(ParseNumber(string(data)))
	return nil
}

type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if unq, err := strconv.Unquote(string(data)); err == nil {
		*s = flexString(strings.TrimSpace(unq))
		return nil
	}
	*s = flexString(strings.TrimSpace(string(data)))
	return nil
}

func truncateValue(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
