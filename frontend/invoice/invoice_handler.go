package invoice

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"invoicer/frontend/shared/context"
	"invoicer/frontend/shared/html"
	"invoicer/frontend/shared/nav"
	"invoicer/infrastructure/audit"
	"invoicer/infrastructure/backend"
	"invoicer/infrastructure/cache"
	"invoicer/infrastructure/imaging"
	"invoicer/infrastructure/logger"
	"invoicer/infrastructure/sqlite"
	"invoicer/infrastructure/table"
)

const dateLayout = "2006-01-02"

// EditorPageQueryHandler renders the invoice editor for the current draft.
func EditorPageQueryHandler(db *sqlite.DB, settleDelay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := context.GetDraftFromContext(r.Context())
		if !ok {
			http.Error(w, "draft not found", http.StatusInternalServerError)
			return
		}

		next, err := NextInvoiceNumber(r.Context(), db)
		if err != nil {
			logger.Warn(r.Context(), "next invoice number unavailable", logger.ErrorF(err))
			next = 1
		}

		schema := draft.Table.Schema()
		data := PageData{
			Schema:        schema,
			Rows:          draft.Table.Rows(),
			Totals:        draft.Aggregator.Flush(),
			HeaderText:    schema.Label() + " " + strconv.FormatInt(next, 10),
			Date:          time.Now().Format(dateLayout),
			ShowInvoiceNo: draft.Table.Approved(),
			RecomputeMS:   settleDelay.Milliseconds(),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := html.Layout("Invoice", nav.BuildTopNavData(nav.PageEditor, schema.Name), EditorPage(data))
		if err := page.Render(r.Context(), w); err != nil {
			logger.Error(r.Context(), "render editor failed", logger.ErrorF(err))
			http.Error(w, "failed to render invoice page", http.StatusInternalServerError)
			return
		}
	}
}

// EditCellCommandHandler stores text typed into a cell and reports the guarded text.
func EditCellCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := context.GetDraftFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "draft not found")
			return
		}
		row, col, err := parseCellRef(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid cell reference")
			return
		}

		res, err := draft.Table.Edit(row, col, r.FormValue("text"))
		if err != nil {
			writeTableError(w, err)
			return
		}
		draft.Aggregator.Trigger()

		resp := CellResponse{
			Text:     res.Text,
			Rejected: res.Rejected,
			Totals:   draft.Table.Totals(),
		}
		if res.Appended != nil {
			markup, err := renderString(r.Context(), RowMarkup(draft.Table.Schema(), res.AppendedIndex, *res.Appended, 0))
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to render row")
				return
			}
			resp.AppendedRow, resp.AppendedIndex = markup, res.AppendedIndex
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ToggleCellCommandHandler sets a checkbox cell.
func ToggleCellCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := context.GetDraftFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "draft not found")
			return
		}
		row, col, err := parseCellRef(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid cell reference")
			return
		}

		res, err := draft.Table.Toggle(row, col, parseChecked(r.FormValue("checked")))
		if err != nil {
			writeTableError(w, err)
			return
		}

		resp := ToggleResponse{
			Totals:   draft.Table.Totals(),
			Approved: draft.Table.Approved(),
		}
		if res.Appended != nil {
			markup, err := renderString(r.Context(), RowMarkup(draft.Table.Schema(), res.AppendedIndex, *res.Appended, 0))
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to render row")
				return
			}
			resp.AppendedRow, resp.AppendedIndex = markup, res.AppendedIndex
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// TotalsQueryHandler runs any pending recompute and returns the totals.
func TotalsQueryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := context.GetDraftFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "draft not found")
			return
		}
		totals := draft.Aggregator.Flush()
		writeJSON(w, http.StatusOK, TotalsResponse{
			Totals:    totals,
			Formatted: FormatTotals(totals),
			Approved:  draft.Table.Approved(),
		})
	}
}

// UploadPictureCommandHandler compresses the posted picture, relays it to the
// backend and binds the returned URL to the row.
func UploadPictureCommandHandler(db *sqlite.DB, auditSvc *audit.Service, uploader PictureUploader, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := context.GetDraftFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "draft not found")
			return
		}
		row, err := strconv.Atoi(chi.URLParam(r, "row"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid row")
			return
		}
		schema := draft.Table.Schema()
		if schema.UploadColumn() < 0 {
			writeTableError(w, table.ErrNoUploadColumn)
			return
		}
		rows := draft.Table.Rows()
		if row < 0 || row >= len(rows) {
			writeTableError(w, table.ErrRowOutOfRange)
			return
		}

		name, contentType, data, err := readPicture(w, r, maxBytes)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		file := imaging.Compress(name, data)
		if file.ContentType == "application/octet-stream" && contentType != "" {
			file.ContentType = contentType
		}

		url, err := uploader.UploadPicture(r.Context(), file.Name, file.ContentType, file.Data)
		if err != nil {
			logger.Error(r.Context(), "picture upload failed",
				logger.String("draft_id", draft.ID),
				logger.Int("row", row),
				logger.ErrorF(err),
			)
			writeJSONError(w, http.StatusBadGateway, "Failed to upload image")
			return
		}

		res, err := draft.Table.BindPicture(row, url)
		if err != nil {
			writeTableError(w, err)
			return
		}
		logger.Info(r.Context(), "picture bound",
			logger.String("draft_id", draft.ID),
			logger.Int("row", row),
			logger.Int("bytes", len(file.Data)),
			logger.Bool("compressed", file.Compressed),
		)
		if err := RecordPictureUpload(r.Context(), db, auditSvc, draft.ID, row, rows[row].Picture(), url); err != nil {
			logger.Error(r.Context(), "audit picture upload failed", logger.ErrorF(err))
		}

		resp := PictureResponse{URL: url}
		if res.Appended != nil {
			markup, err := renderString(r.Context(), RowMarkup(schema, res.AppendedIndex, *res.Appended, 0))
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to render row")
				return
			}
			resp.AppendedRow, resp.AppendedIndex = markup, res.AppendedIndex
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SubmitInvoiceCommandHandler assembles the draft, posts it once to the backend
// and answers the share link. The draft is left untouched either way.
func SubmitInvoiceCommandHandler(db *sqlite.DB, auditSvc *audit.Service, submitter InvoiceSubmitter, publicOrigin string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draft, ok := context.GetDraftFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, "draft not found")
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid form")
			return
		}

		header := table.Header{
			Text: r.FormValue("invoiceHeader"),
			Name: r.FormValue("name"),
			Date: strings.TrimSpace(r.FormValue("date")),
		}
		if header.Date != "" {
			if _, err := time.Parse(dateLayout, header.Date); err != nil {
				writeJSONError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
		}

		inv := draft.Table.Assemble(header)
		id, err := submitter.SubmitInvoice(r.Context(), inv)
		if err != nil {
			logger.Error(r.Context(), "invoice submit failed",
				logger.String("draft_id", draft.ID),
				logger.Int("items", len(inv.Items)),
				logger.Bool("upstream", errors.Is(err, backend.ErrUpstream)),
				logger.ErrorF(err),
			)
			writeJSONError(w, http.StatusBadGateway, "Failed to submit invoice")
			return
		}

		origin := publicOrigin
		if origin == "" {
			origin = backend.RequestOrigin(r)
		}
		link := backend.ShareLink(origin, id)

		resp := SubmitResponse{ID: id, Link: link, ItemCount: len(inv.Items)}
		if qr, err := ShareQRDataURI(link); err != nil {
			logger.Warn(r.Context(), "share qr failed", logger.ErrorF(err))
		} else {
			resp.QR = qr
		}

		if _, err := RecordSubmission(r.Context(), db, auditSvc, SubmissionInput{
			DraftID:   draft.ID,
			BackendID: id,
			ShareLink: link,
			Schema:    draft.Table.Schema().Name,
			Invoice:   inv,
		}); err != nil {
			logger.Error(r.Context(), "record submission failed", logger.String("backend_id", id), logger.ErrorF(err))
		}

		logger.Info(r.Context(), "invoice submitted",
			logger.String("draft_id", draft.ID),
			logger.String("backend_id", id),
			logger.Int("items", len(inv.Items)),
		)
		writeJSON(w, http.StatusOK, resp)
	}
}

// ResetDraftCommandHandler swaps the current draft for a fresh one.
func ResetDraftCommandHandler(drafts *cache.DraftCache, newDraft func() (*cache.Draft, error), setCookie func(http.ResponseWriter, *cache.Draft)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if old, ok := context.GetDraftFromContext(r.Context()); ok {
			drafts.DeleteDraftByToken(old.ID)
		}
		draft, err := newDraft()
		if err != nil {
			logger.Error(r.Context(), "create draft failed", logger.ErrorF(err))
			http.Error(w, "failed to start a new invoice", http.StatusInternalServerError)
			return
		}
		drafts.AddDraft(draft)
		setCookie(w, draft)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func parseCellRef(r *http.Request) (row, col int, err error) {
	if row, err = strconv.Atoi(chi.URLParam(r, "row")); err != nil {
		return 0, 0, err
	}
	if col, err = strconv.Atoi(chi.URLParam(r, "col")); err != nil {
		return 0, 0, err
	}
	return row, col, nil
}

func parseChecked(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func readPicture(w http.ResponseWriter, r *http.Request, maxBytes int64) (name, contentType string, data []byte, err error) {
	if maxBytes <= 0 {
		maxBytes = 25 << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", "", nil, errors.New("picture too large or form invalid")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", nil, errors.New("file is required")
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return "", "", nil, errors.New("failed to read picture")
	}
	if len(data) == 0 {
		return "", "", nil, errors.New("file is empty")
	}
	if int64(len(data)) > maxBytes {
		return "", "", nil, errors.New("picture too large")
	}

	contentType = strings.TrimSpace(header.Header.Get("Content-Type"))
	name = filepath.Base(strings.TrimSpace(header.Filename))
	if name == "." || name == "/" || name == "" {
		name = "picture"
	}
	if !isPicture(name, contentType, data) {
		return "", "", nil, errors.New("file must be an image")
	}
	return name, contentType, data, nil
}

func isPicture(name, contentType string, data []byte) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	if strings.HasPrefix(http.DetectContentType(data), "image/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".heic", ".heif":
		return true
	}
	return false
}

func writeTableError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, table.ErrRowOutOfRange), errors.Is(err, table.ErrColumnOutOfRange):
		writeJSONError(w, http.StatusNotFound, "cell not found")
	case errors.Is(err, table.ErrColumnKind):
		writeJSONError(w, http.StatusBadRequest, "cell cannot be edited this way")
	case errors.Is(err, table.ErrNoUploadColumn):
		writeJSONError(w, http.StatusBadRequest, "this invoice has no picture column")
	default:
		writeJSONError(w, http.StatusInternalServerError, "failed to update cell")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
