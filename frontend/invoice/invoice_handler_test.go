package invoice

import (
	"bytes"
	stdcontext "context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/infrastructure/audit"
	"invoicer/infrastructure/backend"
	"invoicer/infrastructure/table"
	"invoicer/models"
)

func col(t *testing.T, s *table.Schema, key string) string {
	t.Helper()
	idx := s.ColumnByKey(key)
	require.GreaterOrEqual(t, idx, 0, key)
	return strconv.Itoa(idx)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestEditCellCommandHandler_AppendsRowOnLastRow(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	handler := EditCellCommandHandler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, newCellRequest(draft, map[string]string{"row": "0", "col": col(t, schema, table.KeyStock)},
		url.Values{"text": {"A1"}}))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[CellResponse](t, rr)
	assert.Equal(t, "A1", resp.Text)
	assert.False(t, resp.Rejected)
	assert.Equal(t, 1, resp.AppendedIndex)
	assert.Contains(t, resp.AppendedRow, `<tr data-row="1">`)
	assert.Equal(t, 2, draft.Table.Len())
	assert.True(t, draft.Aggregator.Pending())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, newCellRequest(draft, map[string]string{"row": "0", "col": col(t, schema, table.KeyStock)},
		url.Values{"text": {"A12"}}))
	resp = decode[CellResponse](t, rr)
	assert.Empty(t, resp.AppendedRow)
	assert.Equal(t, 2, draft.Table.Len())
}

func TestEditCellCommandHandler_GuardsNumericText(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)

	rr := httptest.NewRecorder()
	EditCellCommandHandler().ServeHTTP(rr, newCellRequest(draft,
		map[string]string{"row": "0", "col": col(t, schema, table.KeyParts)},
		url.Values{"text": {"12.5x"}}))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[CellResponse](t, rr)
	assert.True(t, resp.Rejected)
	assert.Equal(t, "12.5", resp.Text)
}

func TestEditCellCommandHandler_Errors(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)

	cases := []struct {
		name   string
		params map[string]string
		status int
	}{
		{name: "bad row", params: map[string]string{"row": "x", "col": "1"}, status: http.StatusBadRequest},
		{name: "row out of range", params: map[string]string{"row": "4", "col": "1"}, status: http.StatusNotFound},
		{name: "col out of range", params: map[string]string{"row": "0", "col": "40"}, status: http.StatusNotFound},
		{name: "total column", params: map[string]string{"row": "0", "col": col(t, schema, table.KeyTotal)}, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			EditCellCommandHandler().ServeHTTP(rr, newCellRequest(draft, tc.params, url.Values{"text": {"1"}}))
			assert.Equal(t, tc.status, rr.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rr).Error)
		})
	}
	assert.Equal(t, 1, draft.Table.Len())
}

func TestEditCellCommandHandler_MissingDraft(t *testing.T) {
	rr := httptest.NewRecorder()
	EditCellCommandHandler().ServeHTTP(rr, newCellRequest(nil, map[string]string{"row": "0", "col": "1"}, url.Values{}))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestToggleCellCommandHandler_ReportsApproved(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)

	rr := httptest.NewRecorder()
	ToggleCellCommandHandler().ServeHTTP(rr, newCellRequest(draft,
		map[string]string{"row": "0", "col": col(t, schema, table.KeyApproved)},
		url.Values{"checked": {"on"}}))

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[ToggleResponse](t, rr)
	assert.True(t, resp.Approved)
	assert.Equal(t, 1, resp.AppendedIndex)
	assert.True(t, draft.Table.Approved())
}

func TestTotalsQueryHandler_FlushesPendingRecompute(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)

	for key, text := range map[string]string{table.KeyParts: "12.5", table.KeyLabor: "7"} {
		rr := httptest.NewRecorder()
		EditCellCommandHandler().ServeHTTP(rr, newCellRequest(draft,
			map[string]string{"row": "0", "col": col(t, schema, key)}, url.Values{"text": {text}}))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	req := withDraftAndParams(httptest.NewRequest(http.MethodGet, "/api/totals", nil), draft, nil)
	rr := httptest.NewRecorder()
	TotalsQueryHandler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[TotalsResponse](t, rr)
	assert.Equal(t, []float64{19.5, 0}, resp.Totals)
	assert.Equal(t, []string{"19.5", "0"}, resp.Formatted)
	assert.False(t, draft.Aggregator.Pending())
}

func newPictureRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/picture", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadPictureCommandHandler_BindsURL(t *testing.T) {
	db := openTestDB(t)
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	fb := &fakeBackend{uploadURL: "https://cdn.example.com/p/1.jpg"}

	req := newPictureRequest(t, "door.png", "image/png", []byte("\x89PNG\r\n\x1a\nsmall"))
	req = withDraftAndParams(req, draft, map[string]string{"row": "0"})
	rr := httptest.NewRecorder()
	UploadPictureCommandHandler(db, audit.NewService(), fb, 1<<20).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[PictureResponse](t, rr)
	assert.Equal(t, "https://cdn.example.com/p/1.jpg", resp.URL)
	assert.Equal(t, 1, resp.AppendedIndex)
	assert.Equal(t, "https://cdn.example.com/p/1.jpg", draft.Table.Rows()[0].Picture())
	assert.Equal(t, "door.png", fb.lastName)
	assert.Equal(t, "image/png", fb.lastType)
}

func TestUploadPictureCommandHandler_AcceptsHEIC(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	fb := &fakeBackend{uploadURL: "https://cdn.example.com/p/2.heic"}

	req := newPictureRequest(t, "IMG_1.HEIC", "", []byte("....ftypheic"))
	req = withDraftAndParams(req, draft, map[string]string{"row": "0"})
	rr := httptest.NewRecorder()
	UploadPictureCommandHandler(openTestDB(t), nil, fb, 1<<20).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "IMG_1.HEIC", fb.lastName)
}

func TestUploadPictureCommandHandler_BackendFailureLeavesRow(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	fb := &fakeBackend{uploadErr: backend.ErrUpstream}

	req := newPictureRequest(t, "door.png", "image/png", []byte("\x89PNG\r\n\x1a\nsmall"))
	req = withDraftAndParams(req, draft, map[string]string{"row": "0"})
	rr := httptest.NewRecorder()
	UploadPictureCommandHandler(openTestDB(t), nil, fb, 1<<20).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "Failed to upload image", decode[ErrorResponse](t, rr).Error)
	assert.Empty(t, draft.Table.Rows()[0].Picture())
	assert.Equal(t, 1, draft.Table.Len())
}

func TestUploadPictureCommandHandler_RejectsBadInput(t *testing.T) {
	db := openTestDB(t)

	t.Run("not an image", func(t *testing.T) {
		draft := newTestDraft(t, table.StandardSchema())
		req := newPictureRequest(t, "notes.txt", "text/plain", []byte("hello"))
		req = withDraftAndParams(req, draft, map[string]string{"row": "0"})
		rr := httptest.NewRecorder()
		UploadPictureCommandHandler(db, nil, &fakeBackend{}, 1<<20).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		draft := newTestDraft(t, table.StandardSchema())
		req := newPictureRequest(t, "big.png", "image/png", bytes.Repeat([]byte("x"), 2048))
		req = withDraftAndParams(req, draft, map[string]string{"row": "0"})
		rr := httptest.NewRecorder()
		UploadPictureCommandHandler(db, nil, &fakeBackend{}, 1024).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("no picture column", func(t *testing.T) {
		draft := newTestDraft(t, table.DamageSumSchema())
		req := newPictureRequest(t, "a.png", "image/png", []byte("x"))
		req = withDraftAndParams(req, draft, map[string]string{"row": "0"})
		rr := httptest.NewRecorder()
		UploadPictureCommandHandler(db, nil, &fakeBackend{}, 1<<20).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("row out of range", func(t *testing.T) {
		draft := newTestDraft(t, table.StandardSchema())
		req := newPictureRequest(t, "a.png", "image/png", []byte("x"))
		req = withDraftAndParams(req, draft, map[string]string{"row": "3"})
		rr := httptest.NewRecorder()
		UploadPictureCommandHandler(db, nil, &fakeBackend{}, 1<<20).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func newSubmitRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "http://invoices.local/api/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubmitInvoiceCommandHandler_PostsAssembledInvoice(t *testing.T) {
	db := openTestDB(t)
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	stock := gofakeit.Word()
	_, err := draft.Table.Edit(0, schema.ColumnByKey(table.KeyStock), stock)
	require.NoError(t, err)
	_, err = draft.Table.Edit(0, schema.ColumnByKey(table.KeyParts), "3")
	require.NoError(t, err)
	_, err = draft.Table.Edit(0, schema.ColumnByKey(table.KeyLabor), "4")
	require.NoError(t, err)

	fb := &fakeBackend{submitID: "42"}
	req := withDraftAndParams(newSubmitRequest(url.Values{
		"invoiceHeader": {"INVOICE # 42"},
		"name":          {"Lot 7"},
		"date":          {"2026-10-18"},
	}), draft, nil)
	rr := httptest.NewRecorder()
	SubmitInvoiceCommandHandler(db, audit.NewService(), fb, "").ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[SubmitResponse](t, rr)
	assert.Equal(t, "42", resp.ID)
	assert.Equal(t, "http://invoices.local/invoice/42", resp.Link)
	assert.True(t, strings.HasPrefix(resp.QR, "data:image/png;base64,"))
	assert.Equal(t, 1, resp.ItemCount)

	require.Len(t, fb.submits, 1)
	inv, ok := fb.submits[0].(table.Invoice)
	require.True(t, ok)
	require.NotNil(t, inv.InvoiceNumber)
	assert.Equal(t, 42.0, *inv.InvoiceNumber)
	total, _ := inv.Items[0].Get(table.KeyTotal)
	assert.Equal(t, 7.0, total)

	var subs []models.Submission
	require.NoError(t, db.R.NewSelect().Model(&subs).Scan(stdcontext.Background()))
	require.Len(t, subs, 1)
	assert.Equal(t, "42", subs[0].BackendID)
	assert.Equal(t, 7.0, subs[0].GrandTotal)
	assert.Equal(t, draft.ID, subs[0].DraftID)

	assert.Equal(t, 2, draft.Table.Len())
}

func TestSubmitInvoiceCommandHandler_UsesPublicOrigin(t *testing.T) {
	draft := newTestDraft(t, table.StandardSchema())
	fb := &fakeBackend{submitID: "abc"}
	req := withDraftAndParams(newSubmitRequest(url.Values{}), draft, nil)
	rr := httptest.NewRecorder()
	SubmitInvoiceCommandHandler(openTestDB(t), nil, fb, "https://inv.example.com").ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://inv.example.com/invoice/abc", decode[SubmitResponse](t, rr).Link)
	inv := fb.submits[0].(table.Invoice)
	assert.Empty(t, inv.Items)
	assert.Nil(t, inv.InvoiceNumber)
}

func TestSubmitInvoiceCommandHandler_BackendFailure(t *testing.T) {
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	_, _ = draft.Table.Edit(0, schema.ColumnByKey(table.KeyStock), "A1")

	fb := &fakeBackend{submitErr: errors.New("connection refused")}
	req := withDraftAndParams(newSubmitRequest(url.Values{"name": {"x"}}), draft, nil)
	rr := httptest.NewRecorder()
	SubmitInvoiceCommandHandler(openTestDB(t), nil, fb, "").ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "Failed to submit invoice", decode[ErrorResponse](t, rr).Error)
	assert.Len(t, fb.submits, 1)
	assert.Equal(t, 2, draft.Table.Len())
	assert.Equal(t, "A1", draft.Table.Rows()[0].Cells[schema.ColumnByKey(table.KeyStock)].Text)
}

func TestSubmitInvoiceCommandHandler_RejectsBadDate(t *testing.T) {
	draft := newTestDraft(t, table.StandardSchema())
	fb := &fakeBackend{submitID: "1"}
	req := withDraftAndParams(newSubmitRequest(url.Values{"date": {"18/10/2026"}}), draft, nil)
	rr := httptest.NewRecorder()
	SubmitInvoiceCommandHandler(openTestDB(t), nil, fb, "").ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, fb.submits)
}

func TestEditorPageQueryHandler_RendersDraft(t *testing.T) {
	db := openTestDB(t)
	schema := table.StandardSchema()
	draft := newTestDraft(t, schema)
	_, _ = draft.Table.Edit(0, schema.ColumnByKey(table.KeyComments), `<b>"dent"</b>`)

	req := withDraftAndParams(httptest.NewRequest(http.MethodGet, "/", nil), draft, nil)
	rr := httptest.NewRecorder()
	EditorPageQueryHandler(db, table.DefaultSettleDelay).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `INVOICE # 1</h1>`)
	assert.Contains(t, body, `&lt;b&gt;&#34;dent&#34;&lt;/b&gt;`)
	assert.Contains(t, body, `data-recompute-ms="700"`)
	assert.Contains(t, body, `<tr data-row="1">`)
	assert.Contains(t, body, `id="invoice-number" contenteditable="true" style="display:none"`)
}
