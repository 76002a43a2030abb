package help

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/samber/lo"

	"invoicer/frontend/shared/html"
	"invoicer/frontend/shared/nav"
	"invoicer/infrastructure/logger"
	"invoicer/infrastructure/table"
)

type ColumnHelp struct {
	Label string
	Key   string
	Hint  string
}

type PageData struct {
	Schema      string
	Columns     []ColumnHelp
	Constants   []string
	ToggleEmpty bool
}

// HelpPageQueryHandler explains the columns of the active invoice layout.
func HelpPageQueryHandler(schema *table.Schema) http.HandlerFunc {
	data := PageData{
		Schema: schema.Name,
		Columns: lo.Map(schema.Columns, func(c table.Column, _ int) ColumnHelp {
			return ColumnHelp{Label: c.Label, Key: c.Key, Hint: hintFor(c.Kind)}
		}),
		Constants:   lo.Map(schema.Constants, func(c table.Constant, _ int) string { return c.Key }),
		ToggleEmpty: schema.Empty == table.EmptyIncludesToggles,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := html.Layout("Help", nav.BuildTopNavData(nav.PageHelp, schema.Name), HelpPage(data))
		if err := page.Render(r.Context(), w); err != nil {
			logger.Error(r.Context(), "render help failed", logger.ErrorF(err))
			http.Error(w, "failed to render help page", http.StatusInternalServerError)
			return
		}
	}
}

func hintFor(kind table.ColumnKind) string {
	switch kind {
	case table.KindToggle:
		return "Checkbox, submitted as true or false."
	case table.KindText:
		return "Free text."
	case table.KindNumeric:
		return "Number. Characters that would make it invalid are removed as you type."
	case table.KindTotal:
		return "Sum of the numeric cells of the row, refreshed shortly after you stop typing."
	case table.KindUpload:
		return "Picture. Large photos are shrunk before upload."
	default:
		return ""
	}
}

func HelpPage(data PageData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="help"><h1>How the invoice works</h1>`)
		b.WriteString(`<p>Typing in the last row adds a new blank row below it. ` +
			`A trailing row left blank is not submitted.</p>`)
		if data.ToggleEmpty {
			b.WriteString(`<p>In this layout a checked box alone keeps the last row in the invoice.</p>`)
		}
		b.WriteString(`<table class="submissions-table"><thead><tr><th>Column</th><th>Key</th><th>Input</th></tr></thead><tbody>`)
		for _, c := range data.Columns {
			b.WriteString(`<tr><td>` + templ.EscapeString(c.Label) + `</td><td><code>` + templ.EscapeString(c.Key) +
				`</code></td><td>` + templ.EscapeString(c.Hint) + `</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
		if len(data.Constants) > 0 {
			b.WriteString(`<p>Always submitted with a fixed value: ` + templ.EscapeString(strings.Join(data.Constants, ", ")) + `.</p>`)
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
