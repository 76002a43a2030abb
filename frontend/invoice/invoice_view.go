package invoice

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/samber/lo"

	"invoicer/infrastructure/table"
)

// EditorPage renders the header block, the invoice table and the submit bar.
func EditorPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		invoiceStyle := ` style="display:none"`
		if data.ShowInvoiceNo {
			invoiceStyle = ""
		}
		b.WriteString(`<header class="invoice-header" data-schema="` + templ.EscapeString(data.Schema.Name) + `"` +
			` data-recompute-ms="` + strconv.FormatInt(data.RecomputeMS, 10) + `">`)
		b.WriteString(`<h1 id="invoice-number" contenteditable="true"` + invoiceStyle + `>` + templ.EscapeString(data.HeaderText) + `</h1>`)
		b.WriteString(`<label>Name <input type="text" id="name" name="name" autocomplete="off"></label>`)
		b.WriteString(`<label>Date <input type="date" id="date" name="date" value="` + templ.EscapeString(data.Date) + `"></label>`)
		b.WriteString(`</header>`)

		b.WriteString(`<table class="invoice-table"><thead><tr>`)
		for _, col := range data.Schema.Columns {
			b.WriteString(`<th class="` + templ.EscapeString(col.Class) + `">` + templ.EscapeString(col.Label) + `</th>`)
		}
		b.WriteString(`</tr></thead><tbody id="invoice-items">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}

		for i, row := range data.Rows {
			total := 0.0
			if i < len(data.Totals) {
				total = data.Totals[i]
			}
			if err := RowMarkup(data.Schema, i, row, total).Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</tbody></table>`+
			`<div class="actions">`+
			`<button type="button" id="submit-invoice">Submit</button>`+
			`<form method="post" action="/api/reset" class="inline"><button type="submit">New invoice</button></form>`+
			`</div>`+
			`<div id="link-container" style="display:none">`+
			`<input type="text" id="invoice-link" readonly>`+
			`<input type="button" id="invoice-copy" value="Copy">`+
			`<img id="invoice-qr" alt="QR code of the invoice link">`+
			`</div>`+
			`<script src="/assets/app.js" defer></script>`)
		return err
	})
}

// RowMarkup renders one table row. Cells follow the schema order and carry
// data-col so edits can be routed back to the row model.
func RowMarkup(schema *table.Schema, index int, row table.Row, total float64) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<tr data-row="` + strconv.Itoa(index) + `">`)
		for c, col := range schema.Columns {
			var cell table.Cell
			if c < len(row.Cells) {
				cell = row.Cells[c]
			}
			writeCell(&b, c, col, cell, total)
		}
		b.WriteString(`</tr>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeCell(b *strings.Builder, c int, col table.Column, cell table.Cell, total float64) {
	class := templ.EscapeString(col.Class)
	dataCol := ` data-col="` + strconv.Itoa(c) + `" data-key="` + templ.EscapeString(col.Key) + `"`

	switch col.Kind {
	case table.KindToggle:
		checked := ""
		if cell.Checked {
			checked = " checked"
		}
		b.WriteString(`<td><input type="checkbox" class="` + class + `"` + dataCol + checked + `></td>`)
	case table.KindText:
		b.WriteString(`<td contenteditable="true" class="` + class + `"` + dataCol + `>` + templ.EscapeString(cell.Text) + `</td>`)
	case table.KindNumeric:
		b.WriteString(`<td contenteditable="true" inputmode="decimal" data-numeric class="` + class + `"` + dataCol + `>` + templ.EscapeString(cell.Text) + `</td>`)
	case table.KindTotal:
		b.WriteString(`<td class="` + class + `" data-total` + dataCol + `>` + FormatTotal(total) + `</td>`)
	case table.KindUpload:
		url := templ.EscapeString(cell.URL)
		preview := ` style="display:none"`
		if cell.URL != "" {
			preview = ""
		}
		b.WriteString(`<td class="` + class + `"` + dataCol + `>` +
			`<input type="file" accept="image/*,.heic" class="picture-input" hidden>` +
			`<button type="button" class="picture-upload-btn">Upload</button>` +
			`<img class="picture-preview" src="` + url + `" alt=""` + preview + `>` +
			`<input type="hidden" class="picture-url" value="` + url + `">` +
			`</td>`)
	default:
		b.WriteString(`<td></td>`)
	}
}

// FormatTotal prints a total the shortest way that round-trips.
func FormatTotal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func FormatTotals(totals []float64) []string {
	return lo.Map(totals, func(v float64, _ int) string { return FormatTotal(v) })
}

func renderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
