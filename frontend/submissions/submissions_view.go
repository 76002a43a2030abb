package submissions

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

func SubmissionsPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="submissions"><h1>Submitted invoices</h1>`)
		b.WriteString(`<form method="get" action="/submissions" class="filters">` +
			`<input type="search" name="q" placeholder="Name, id or number" value="` + templ.EscapeString(data.Query) + `">` +
			`<input type="hidden" name="limit" value="` + strconv.Itoa(data.Limit) + `">` +
			`<button type="submit">Search</button>` +
			`<a class="button" href="/submissions.csv?q=` + url.QueryEscape(data.Query) + `">Download CSV</a>` +
			`</form>`)

		if len(data.Rows) == 0 {
			b.WriteString(`<p class="empty">No invoices submitted yet.</p></section>`)
			_, err := io.WriteString(w, b.String())
			return err
		}

		b.WriteString(`<table class="submissions-table"><thead><tr>` +
			`<th>#</th><th>Name</th><th>Date</th><th>Items</th><th>Total</th><th>Schema</th><th>Submitted</th><th>Link</th>` +
			`</tr></thead><tbody>`)
		for _, r := range data.Rows {
			b.WriteString(`<tr data-id="` + strconv.FormatInt(r.ID, 10) + `">` +
				`<td>` + templ.EscapeString(r.InvoiceNumber) + `</td>` +
				`<td>` + templ.EscapeString(r.Name) + `</td>` +
				`<td>` + templ.EscapeString(r.InvoiceDate) + `</td>` +
				`<td>` + strconv.Itoa(r.ItemCount) + `</td>` +
				`<td>` + templ.EscapeString(r.GrandTotal) + `</td>` +
				`<td>` + templ.EscapeString(r.SchemaName) + `</td>` +
				`<td>` + templ.EscapeString(r.CreatedAt) + `</td>` +
				`<td><a href="` + templ.EscapeString(r.ShareLink) + `" target="_blank" rel="noopener">` + templ.EscapeString(r.BackendID) + `</a></td>` +
				`</tr>`)
		}
		b.WriteString(`</tbody></table></section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
