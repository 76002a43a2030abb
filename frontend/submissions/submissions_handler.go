package submissions

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"invoicer/frontend/shared/html"
	"invoicer/frontend/shared/nav"
	"invoicer/infrastructure/logger"
	"invoicer/infrastructure/sqlite"
	"invoicer/models"
)

// SubmissionsPageQueryHandler lists invoices accepted by the backend.
func SubmissionsPageQueryHandler(db *sqlite.DB, schemaName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		limit := requestedLimit(r)

		subs, err := ListSubmissions(r.Context(), db, query, limit)
		if err != nil {
			logger.Error(r.Context(), "list submissions failed", logger.ErrorF(err))
			http.Error(w, "failed to load submissions", http.StatusInternalServerError)
			return
		}

		data := PageData{
			Top:   nav.BuildTopNavData(nav.PageSubmissions, schemaName),
			Rows:  lo.Map(subs, func(s models.Submission, _ int) SubmissionRow { return toRow(s) }),
			Query: query,
			Limit: limit,
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := html.Layout("Submissions", data.Top, SubmissionsPage(data)).Render(r.Context(), w); err != nil {
			logger.Error(r.Context(), "render submissions failed", logger.ErrorF(err))
			http.Error(w, "failed to render submissions page", http.StatusInternalServerError)
			return
		}
	}
}

// SubmissionsCSVHandler streams the submission history as CSV.
func SubmissionsCSVHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=submissions.csv")
		if err := writeSubmissionsCSV(r.Context(), db, w, r.URL.Query().Get("q")); err != nil {
			logger.Error(r.Context(), "export submissions failed", logger.ErrorF(err))
			http.Error(w, "failed to export csv", http.StatusInternalServerError)
			return
		}
	}
}

func requestedLimit(r *http.Request) int {
	limit, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

func toRow(s models.Submission) SubmissionRow {
	return SubmissionRow{
		ID:            s.ID,
		BackendID:     s.BackendID,
		ShareLink:     s.ShareLink,
		InvoiceNumber: formatNumber(s.InvoiceNumber),
		Name:          s.Name,
		InvoiceDate:   s.InvoiceDate,
		ItemCount:     s.ItemCount,
		GrandTotal:    strconv.FormatFloat(s.GrandTotal, 'f', 2, 64),
		SchemaName:    s.SchemaName,
		CreatedAt:     s.CreatedAt.Local().Format("02/01/2006 15:04"),
	}
}
