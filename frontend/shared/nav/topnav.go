package nav

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const (
	PageEditor      = "editor"
	PageSubmissions = "submissions"
	PageHelp        = "help"
)

// TopNavData is shared with page renderers.
type TopNavData struct {
	Active string
	Schema string
}

func BuildTopNavData(active, schema string) TopNavData {
	return TopNavData{Active: active, Schema: schema}
}

func TopNav(d TopNavData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<nav class="topnav"><a href="/" class="`+activeClass(d.Active == PageEditor)+`">Invoice</a>`+
			`<a href="/submissions" class="`+activeClass(d.Active == PageSubmissions)+`">Submissions</a>`+
			`<a href="/help" class="`+activeClass(d.Active == PageHelp)+`">Help</a>`+
			`<span class="schema-badge">`+templ.EscapeString(d.Schema)+`</span></nav>`)
		return err
	})
}

func activeClass(active bool) string {
	if active {
		return "active"
	}
	return ""
}
