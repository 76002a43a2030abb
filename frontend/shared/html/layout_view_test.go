package html

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/frontend/shared/nav"
)

func TestLayoutEscapesTitleAndRendersBody(t *testing.T) {
	body := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p id="body">hello</p>`)
		return err
	})

	var buf bytes.Buffer
	err := Layout(`<Quotes & "Co">`, nav.BuildTopNavData(nav.PageSubmissions, "standard"), body).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `<title>&lt;Quotes &amp; &#34;Co&#34;&gt;</title>`)
	assert.Contains(t, out, `<p id="body">hello</p>`)
	assert.Contains(t, out, `<a href="/submissions" class="active">`)
	assert.Contains(t, out, `window.csrfToken`)
}
