package table

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Header is the invoice-level input typed above the table.
type Header struct {
	Text string
	Name string
	Date string
}

// Field is one key/value pair of a submitted item.
type Field struct {
	Key   string
	Value any
}

// Item is a submitted row. Fields keep schema order when encoded.
type Item []Field

func (it Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range it {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value stored under key.
func (it Item) Get(key string) (any, bool) {
	f, ok := lo.Find(it, func(f Field) bool { return f.Key == key })
	return f.Value, ok
}

// Invoice is the record posted to the backend.
type Invoice struct {
	InvoiceNumber *float64 `json:"invoiceNumber"`
	Name          string   `json:"name"`
	Date          string   `json:"date"`
	Items         []Item   `json:"invoiceItems"`
}

// GrandTotal sums the TOTAL field of every item.
func (inv Invoice) GrandTotal() float64 {
	sum := lo.Reduce(inv.Items, func(acc decimal.Decimal, it Item, _ int) decimal.Decimal {
		v, ok := it.Get(KeyTotal)
		if !ok {
			return acc
		}
		f, ok := v.(float64)
		if !ok {
			return acc
		}
		return acc.Add(decimal.NewFromFloat(f))
	}, decimal.Zero)
	return sum.InexactFloat64()
}

var emptySentinels = []string{"", "0", "0.0"}

// IsEffectivelyEmpty reports whether a row carries no meaningful input under
// the schema's empty policy. The total cell is never considered.
func (s *Schema) IsEffectivelyEmpty(r Row) bool {
	for i, col := range s.Columns {
		if i >= len(r.Cells) {
			break
		}
		c := r.Cells[i]
		switch col.Kind {
		case KindText, KindNumeric:
			if !lo.Contains(emptySentinels, strings.TrimSpace(c.Text)) {
				return false
			}
		case KindUpload:
			if strings.TrimSpace(c.URL) != "" {
				return false
			}
		case KindToggle:
			if s.Empty == EmptyIncludesToggles && c.Checked {
				return false
			}
		}
	}
	return true
}

// Assemble builds the submission from the current rows. A trailing row that is
// effectively empty is left out. Totals are recomputed from the numeric cells
// rather than read from the cache.
func (t *Table) Assemble(h Header) Invoice {
	rows := t.Rows()
	if n := len(rows); n > 0 && t.schema.IsEffectivelyEmpty(rows[n-1]) {
		rows = rows[:n-1]
	}

	numerics := t.schema.NumericColumns()
	items := lo.Map(rows, func(r Row, _ int) Item {
		return t.schema.item(r, numerics)
	})

	return Invoice{
		InvoiceNumber: ParseInvoiceNumber(h.Text, t.schema.Label()),
		Name:          strings.TrimSpace(h.Name),
		Date:          strings.TrimSpace(h.Date),
		Items:         items,
	}
}

func (s *Schema) item(r Row, numerics []int) Item {
	it := make(Item, 0, len(s.Columns)+len(s.Constants))
	for i, col := range s.Columns {
		c := r.Cells[i]
		var v any
		switch col.Kind {
		case KindToggle:
			v = c.Checked
		case KindText, KindNumeric:
			v = strings.TrimSpace(c.Text)
		case KindUpload:
			v = strings.TrimSpace(c.URL)
		case KindTotal:
			v = sumRow(r, numerics)
		}
		it = append(it, Field{Key: col.Key, Value: v})
	}
	for _, c := range s.Constants {
		it = append(it, Field{Key: c.Key, Value: c.Value})
	}
	return it
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseInvoiceNumber extracts the number following label in the header text.
// Only the leading number of the remainder counts, so "INVOICE # 42 draft"
// yields 42. It returns nil when the label is missing or no number follows it.
func ParseInvoiceNumber(text, label string) *float64 {
	if strings.TrimSpace(label) == "" {
		label = DefaultInvoiceLabel
	}
	idx := strings.Index(text, label)
	if idx < 0 {
		return nil
	}
	rest := strings.TrimSpace(text[idx+len(label):])
	v, ok := parseFinite(leadingNumber.FindString(rest))
	if !ok {
		return nil
	}
	return &v
}
