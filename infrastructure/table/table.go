package table

import (
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Table is the server-side row model of one invoice draft. All methods are
// safe for concurrent use.
type Table struct {
	mu     sync.Mutex
	schema *Schema
	rows   []Row
}

// EditResult reports what an edit did to the table. Appended is the blank row
// added by auto-grow and is nil when none was added.
type EditResult struct {
	Row           int
	Text          string
	Rejected      bool
	Appended      *Row
	AppendedIndex int
}

// New returns a table holding one blank row. The schema must be valid.
func New(schema *Schema) (*Table, error) {
	const op = "table.New"

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Table{
		schema: schema,
		rows:   []Row{schema.NewRow()},
	}, nil
}

func (t *Table) Schema() *Schema {
	return t.schema
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}

// Rows returns a deep copy of the current rows.
func (t *Table) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.Map(t.rows, func(r Row, _ int) Row { return r.clone() })
}

// Approved reports whether any row is marked approved.
func (t *Table) Approved() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return lo.SomeBy(t.rows, func(r Row) bool { return r.approved(t.schema) })
}

// Edit stores text typed into a text or numeric cell. Numeric text passes the
// input guard first and the guarded text is what gets stored and returned.
func (t *Table) Edit(row, col int, text string) (EditResult, error) {
	const op = "table.Table.Edit"

	t.mu.Lock()
	defer t.mu.Unlock()

	cell, err := t.cell(row, col)
	if err != nil {
		return EditResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := EditResult{Row: row, Text: text}
	switch cell.Kind {
	case KindNumeric:
		guarded, ok := Guard(text, t.schema.Numeric)
		res.Text, res.Rejected = guarded, !ok
	case KindText:
	default:
		return EditResult{}, fmt.Errorf("%s: %w: %s column", op, ErrColumnKind, cell.Kind)
	}

	cell.Text = res.Text
	t.grow(row, &res)
	return res, nil
}

// Toggle sets a checkbox cell.
func (t *Table) Toggle(row, col int, checked bool) (EditResult, error) {
	const op = "table.Table.Toggle"

	t.mu.Lock()
	defer t.mu.Unlock()

	cell, err := t.cell(row, col)
	if err != nil {
		return EditResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if cell.Kind != KindToggle {
		return EditResult{}, fmt.Errorf("%s: %w: %s column", op, ErrColumnKind, cell.Kind)
	}

	cell.Checked = checked
	res := EditResult{Row: row}
	t.grow(row, &res)
	return res, nil
}

// BindPicture stores an uploaded picture URL on the row. The latest call wins.
func (t *Table) BindPicture(row int, url string) (EditResult, error) {
	const op = "table.Table.BindPicture"

	col := t.schema.UploadColumn()
	if col < 0 {
		return EditResult{}, fmt.Errorf("%s: %w", op, ErrNoUploadColumn)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cell, err := t.cell(row, col)
	if err != nil {
		return EditResult{}, fmt.Errorf("%s: %w", op, err)
	}

	cell.URL = url
	res := EditResult{Row: row, Text: url}
	t.grow(row, &res)
	return res, nil
}

// RecomputeTotals sums the numeric cells of every row into the row's total cell
// and returns the totals in row order. Unparsable cells count as zero.
func (t *Table) RecomputeTotals() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	totalCol := t.schema.TotalColumn()
	numerics := t.schema.NumericColumns()

	out := make([]float64, len(t.rows))
	for i := range t.rows {
		sum := sumRow(t.rows[i], numerics)
		if totalCol >= 0 {
			t.rows[i].Cells[totalCol].Total = sum
		}
		out[i] = sum
	}
	return out
}

// Totals returns the cached totals without recomputing them.
func (t *Table) Totals() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	totalCol := t.schema.TotalColumn()
	return lo.Map(t.rows, func(r Row, _ int) float64 {
		if totalCol < 0 {
			return 0
		}
		return r.Cells[totalCol].Total
	})
}

func sumRow(r Row, numerics []int) float64 {
	sum := lo.Reduce(numerics, func(acc decimal.Decimal, col int, _ int) decimal.Decimal {
		v, ok := parseFinite(r.Cells[col].Text)
		if !ok {
			return acc
		}
		return acc.Add(decimal.NewFromFloat(v))
	}, decimal.Zero)
	return sum.InexactFloat64()
}

// cell must be called with t.mu held.
func (t *Table) cell(row, col int) (*Cell, error) {
	if row < 0 || row >= len(t.rows) {
		return nil, fmt.Errorf("%w: %d", ErrRowOutOfRange, row)
	}
	if col < 0 || col >= len(t.schema.Columns) {
		return nil, fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	return &t.rows[row].Cells[col], nil
}

// grow appends one blank row when the edited row is the last one.
// Must be called with t.mu held.
func (t *Table) grow(row int, res *EditResult) {
	if row != len(t.rows)-1 {
		return
	}
	blank := t.schema.NewRow()
	t.rows = append(t.rows, blank)

	appended := blank.clone()
	res.Appended = &appended
	res.AppendedIndex = len(t.rows) - 1
}
