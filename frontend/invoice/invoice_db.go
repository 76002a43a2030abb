package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/uptrace/bun"

	"invoicer/infrastructure/audit"
	"invoicer/infrastructure/sqlite"
	"invoicer/models"
)

// RecordSubmission stores the accepted invoice and its audit entry in one transaction.
func RecordSubmission(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, in SubmissionInput) (int64, error) {
	const op = "invoice.RecordSubmission"

	payload, err := json.Marshal(in.Invoice)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sub := &models.Submission{
		BackendID:     in.BackendID,
		ShareLink:     in.ShareLink,
		InvoiceNumber: in.Invoice.InvoiceNumber,
		Name:          in.Invoice.Name,
		InvoiceDate:   in.Invoice.Date,
		ItemCount:     len(in.Invoice.Items),
		GrandTotal:    in.Invoice.GrandTotal(),
		SchemaName:    in.Schema,
		DraftID:       in.DraftID,
		PayloadJSON:   string(payload),
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(sub).Exec(ctx); err != nil {
			return err
		}
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, in.DraftID, audit.ActionInvoiceSubmit, "submission",
			strconv.FormatInt(sub.ID, 10), nil, map[string]any{
				"backendId": in.BackendID,
				"link":      in.ShareLink,
				"items":     sub.ItemCount,
				"total":     sub.GrandTotal,
			})
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return sub.ID, nil
}

// RecordPictureUpload audits a picture bound to a draft row.
func RecordPictureUpload(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, draftID string, row int, before, after string) error {
	const op = "invoice.RecordPictureUpload"

	if auditSvc == nil {
		return nil
	}
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var prev any
		if before != "" {
			prev = map[string]string{"url": before}
		}
		return auditSvc.Write(ctx, tx, draftID, audit.ActionPictureUpload, "row",
			strconv.Itoa(row), prev, map[string]string{"url": after})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NextInvoiceNumber suggests the number following the highest one submitted so far.
func NextInvoiceNumber(ctx context.Context, db *sqlite.DB) (int64, error) {
	const op = "invoice.NextInvoiceNumber"

	var highest sql.NullFloat64
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model((*models.Submission)(nil)).
			ColumnExpr("MAX(invoice_number)").
			Scan(ctx, &highest)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !highest.Valid || highest.Float64 < 0 {
		return 1, nil
	}
	return int64(math.Floor(highest.Float64)) + 1, nil
}
