package submissions

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uptrace/bun"

	"invoicer/infrastructure/sqlite"
	"invoicer/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ListSubmissions returns the newest submissions first. A non-empty query
// matches the name, the backend id or the invoice number.
func ListSubmissions(ctx context.Context, db *sqlite.DB, query string, limit int) ([]models.Submission, error) {
	const op = "submissions.ListSubmissions"

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	query = strings.TrimSpace(query)

	rows := make([]models.Submission, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&rows)
		if query != "" {
			like := "%" + strings.ToLower(query) + "%"
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("LOWER(sub.name) LIKE ?", like).
					WhereOr("LOWER(sub.backend_id) LIKE ?", like).
					WhereOr("CAST(sub.invoice_number AS TEXT) LIKE ?", like)
			})
		}
		return q.OrderExpr("sub.created_at DESC, sub.id DESC").Limit(limit).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}

func writeSubmissionsCSV(ctx context.Context, db *sqlite.DB, w io.Writer, query string) error {
	rows, err := ListSubmissions(ctx, db, query, maxLimit)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	header := []string{"id", "backend_id", "invoice_number", "name", "invoice_date", "item_count", "grand_total", "schema", "share_link", "created_at"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.BackendID,
			formatNumber(r.InvoiceNumber),
			r.Name,
			r.InvoiceDate,
			strconv.Itoa(r.ItemCount),
			strconv.FormatFloat(r.GrandTotal, 'f', 2, 64),
			r.SchemaName,
			r.ShareLink,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
