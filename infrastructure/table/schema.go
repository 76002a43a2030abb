package table

import (
	"fmt"
	"strings"
)

// ColumnKind tags how a cell is edited, rendered and serialized.
type ColumnKind int

const (
	KindToggle ColumnKind = iota + 1
	KindText
	KindNumeric
	KindTotal
	KindUpload
)

func (k ColumnKind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindTotal:
		return "total"
	case KindUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// Editable reports whether the cell is typed into by the user.
func (k ColumnKind) Editable() bool {
	return k == KindText || k == KindNumeric
}

// Column describes one position of the row schema.
type Column struct {
	Key   string
	Label string
	Kind  ColumnKind
	Class string
}

// Constant is a fixed field appended to every submitted item.
type Constant struct {
	Key   string
	Value any
}

// EmptyPolicy decides whether toggles take part in the effectively-empty check
// applied to the trailing row before submission.
type EmptyPolicy int

const (
	// EmptyIgnoresToggles looks at typed cells and the picture only.
	EmptyIgnoresToggles EmptyPolicy = iota
	// EmptyIncludesToggles additionally requires every toggle to be unchecked.
	EmptyIncludesToggles
)

func (p EmptyPolicy) String() string {
	if p == EmptyIncludesToggles {
		return "includes-toggles"
	}
	return "ignores-toggles"
}

// NumericPolicy decides whether an empty numeric cell passes the input guard.
type NumericPolicy int

const (
	EmptyNumericAllowed NumericPolicy = iota
	EmptyNumericRejected
)

const DefaultInvoiceLabel = "INVOICE #"

// Schema is the ordered column layout shared by the row builder, the guard,
// the aggregator and the assembler.
type Schema struct {
	Name         string
	Columns      []Column
	Constants    []Constant
	Empty        EmptyPolicy
	Numeric      NumericPolicy
	InvoiceLabel string
}

// Validate checks the structural rules every variant must satisfy.
func (s *Schema) Validate() error {
	const op = "table.Schema.Validate"

	if s == nil || len(s.Columns) == 0 {
		return fmt.Errorf("%s: %w: no columns", op, ErrInvalidSchema)
	}

	seen := make(map[string]struct{}, len(s.Columns)+len(s.Constants))
	totals, uploads, numerics := 0, 0, 0
	for i, col := range s.Columns {
		key := strings.TrimSpace(col.Key)
		if key == "" {
			return fmt.Errorf("%s: %w: column %d has no key", op, ErrInvalidSchema, i)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s: %w: duplicate key %q", op, ErrInvalidSchema, key)
		}
		seen[key] = struct{}{}

		switch col.Kind {
		case KindTotal:
			totals++
		case KindUpload:
			uploads++
		case KindNumeric:
			numerics++
		case KindToggle, KindText:
		default:
			return fmt.Errorf("%s: %w: column %q has unknown kind", op, ErrInvalidSchema, key)
		}
	}
	for _, c := range s.Constants {
		if _, dup := seen[c.Key]; dup {
			return fmt.Errorf("%s: %w: constant %q shadows a column", op, ErrInvalidSchema, c.Key)
		}
		seen[c.Key] = struct{}{}
	}

	if totals > 1 {
		return fmt.Errorf("%s: %w: more than one total column", op, ErrInvalidSchema)
	}
	if uploads > 1 {
		return fmt.Errorf("%s: %w: more than one picture column", op, ErrInvalidSchema)
	}
	if totals == 1 && numerics == 0 {
		return fmt.Errorf("%s: %w: total column without numeric columns", op, ErrInvalidSchema)
	}
	return nil
}

// NewRow builds a blank row whose cells match the schema in count, order and kind.
func (s *Schema) NewRow() Row {
	cells := make([]Cell, len(s.Columns))
	for i, col := range s.Columns {
		cells[i] = Cell{Kind: col.Kind}
	}
	return Row{Cells: cells}
}

func (s *Schema) NumericColumns() []int {
	return s.indexesOf(KindNumeric)
}

func (s *Schema) ToggleColumns() []int {
	return s.indexesOf(KindToggle)
}

// TotalColumn returns the index of the derived total column or -1.
func (s *Schema) TotalColumn() int {
	return s.firstOf(KindTotal)
}

// UploadColumn returns the index of the picture column or -1.
func (s *Schema) UploadColumn() int {
	return s.firstOf(KindUpload)
}

// ColumnByKey returns the index of the column with the given key or -1.
func (s *Schema) ColumnByKey(key string) int {
	for i, col := range s.Columns {
		if col.Key == key {
			return i
		}
	}
	return -1
}

// Label is the header prefix that precedes the invoice number.
func (s *Schema) Label() string {
	if strings.TrimSpace(s.InvoiceLabel) == "" {
		return DefaultInvoiceLabel
	}
	return s.InvoiceLabel
}

func (s *Schema) indexesOf(kind ColumnKind) []int {
	out := make([]int, 0, len(s.Columns))
	for i, col := range s.Columns {
		if col.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

func (s *Schema) firstOf(kind ColumnKind) int {
	for i, col := range s.Columns {
		if col.Kind == kind {
			return i
		}
	}
	return -1
}
