package invoice

import (
	stdcontext "context"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	sessioncontext "invoicer/frontend/shared/context"
	"invoicer/infrastructure/cache"
	"invoicer/infrastructure/sqlite"
	"invoicer/infrastructure/table"
)

func openTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "invoice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.ApplyMigrations(stdcontext.Background(), db))
	return db
}

func newTestDraft(t *testing.T, schema *table.Schema) *cache.Draft {
	t.Helper()
	d, err := cache.NewDraft(schema, time.Hour)
	require.NoError(t, err)
	t.Cleanup(d.Aggregator.Stop)
	return d
}

// newCellRequest builds a form POST carrying the draft and chi URL params.
func newCellRequest(draft *cache.Draft, params map[string]string, form url.Values) *http.Request {
	req, _ := http.NewRequest(http.MethodPost, "/api/cell", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withDraftAndParams(req, draft, params)
}

func withDraftAndParams(req *http.Request, draft *cache.Draft, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := stdcontext.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if draft != nil {
		ctx = sessioncontext.NewContextWithDraft(ctx, draft)
	}
	return req.WithContext(ctx)
}

type fakeBackend struct {
	mu        sync.Mutex
	uploadURL string
	uploadErr error
	submitID  string
	submitErr error
	uploads   int
	submits   []any
	lastName  string
	lastType  string
}

func (f *fakeBackend) UploadPicture(_ stdcontext.Context, name, contentType string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.lastName, f.lastType = name, contentType
	return f.uploadURL, f.uploadErr
}

func (f *fakeBackend) SubmitInvoice(_ stdcontext.Context, inv any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, inv)
	return f.submitID, f.submitErr
}
