package invoice

import (
	stdcontext "context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/infrastructure/audit"
	"invoicer/infrastructure/table"
	"invoicer/models"
)

func testInvoice(number *float64, totals ...float64) table.Invoice {
	inv := table.Invoice{InvoiceNumber: number, Name: gofakeit.Name(), Date: "2026-10-18"}
	for _, total := range totals {
		inv.Items = append(inv.Items, table.Item{
			{Key: table.KeyStock, Value: gofakeit.Word()},
			{Key: table.KeyTotal, Value: total},
		})
	}
	return inv
}

func ptr(v float64) *float64 { return &v }

func TestNextInvoiceNumber(t *testing.T) {
	ctx := stdcontext.Background()
	db := openTestDB(t)

	next, err := NextInvoiceNumber(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	for _, n := range []*float64{ptr(41), nil, ptr(12.5)} {
		_, err := RecordSubmission(ctx, db, nil, SubmissionInput{
			DraftID:   gofakeit.UUID(),
			BackendID: gofakeit.Word(),
			ShareLink: gofakeit.URL(),
			Schema:    table.VariantStandard,
			Invoice:   testInvoice(n, 1),
		})
		require.NoError(t, err)
	}

	next, err = NextInvoiceNumber(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(42), next)
}

func TestRecordSubmission_WritesRowAndAudit(t *testing.T) {
	ctx := stdcontext.Background()
	db := openTestDB(t)
	draftID := gofakeit.UUID()

	id, err := RecordSubmission(ctx, db, audit.NewService(), SubmissionInput{
		DraftID:   draftID,
		BackendID: "abc",
		ShareLink: "https://inv.example.com/invoice/abc",
		Schema:    table.VariantRemediation,
		Invoice:   testInvoice(ptr(7), 10.25, 4.75),
	})
	require.NoError(t, err)
	require.Positive(t, id)

	var sub models.Submission
	require.NoError(t, db.R.NewSelect().Model(&sub).Where("id = ?", id).Scan(ctx))
	assert.Equal(t, "abc", sub.BackendID)
	assert.Equal(t, 2, sub.ItemCount)
	assert.Equal(t, 15.0, sub.GrandTotal)
	assert.Equal(t, table.VariantRemediation, sub.SchemaName)
	require.NotNil(t, sub.InvoiceNumber)
	assert.Equal(t, 7.0, *sub.InvoiceNumber)
	assert.Contains(t, sub.PayloadJSON, `"invoiceItems"`)

	var logs []models.AuditLog
	require.NoError(t, db.R.NewSelect().Model(&logs).Where("draft_id = ?", draftID).Scan(ctx))
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionInvoiceSubmit, logs[0].Action)
	assert.Equal(t, "submission", logs[0].EntityType)
	assert.Contains(t, logs[0].AfterJSON, `"backendId":"abc"`)
}

func TestRecordPictureUpload(t *testing.T) {
	ctx := stdcontext.Background()
	db := openTestDB(t)
	draftID := gofakeit.UUID()

	require.NoError(t, RecordPictureUpload(ctx, db, nil, draftID, 0, "", "https://cdn/x.jpg"))
	require.NoError(t, RecordPictureUpload(ctx, db, audit.NewService(), draftID, 3, "https://cdn/a.jpg", "https://cdn/b.jpg"))

	var logs []models.AuditLog
	require.NoError(t, db.R.NewSelect().Model(&logs).Where("draft_id = ?", draftID).Scan(ctx))
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionPictureUpload, logs[0].Action)
	assert.Equal(t, "3", logs[0].EntityID)
	assert.Contains(t, logs[0].BeforeJSON, "a.jpg")
	assert.Contains(t, logs[0].AfterJSON, "b.jpg")
}
