package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Submission is the local record of an invoice accepted by the backend.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:sub"`

	ID            int64     `bun:"id,pk,autoincrement"`
	BackendID     string    `bun:"backend_id,notnull"`
	ShareLink     string    `bun:"share_link,notnull"`
	InvoiceNumber *float64  `bun:"invoice_number"`
	Name          string    `bun:"name,notnull"`
	InvoiceDate   string    `bun:"invoice_date,notnull"`
	ItemCount     int       `bun:"item_count,notnull"`
	GrandTotal    float64   `bun:"grand_total,notnull"`
	SchemaName    string    `bun:"schema_name,notnull"`
	DraftID       string    `bun:"draft_id,notnull"`
	PayloadJSON   string    `bun:"payload_json,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable history of uploads and submissions.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	DraftID    string    `bun:"draft_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
