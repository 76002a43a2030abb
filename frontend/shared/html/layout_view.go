package html

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"invoicer/frontend/shared/nav"
)

// Layout wraps a page body with the document shell, stylesheet and top nav.
func Layout(title string, top nav.TopNavData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(title)+`</title>`+
			`<link rel="stylesheet" href="/assets/app.css"></head><body>`); err != nil {
			return err
		}
		if err := nav.TopNav(top).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<main class="container">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main>`+CSRFScript()+`</body></html>`)
		return err
	})
}
