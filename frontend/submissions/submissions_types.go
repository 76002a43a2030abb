package submissions

import "invoicer/frontend/shared/nav"

type SubmissionRow struct {
	ID            int64
	BackendID     string
	ShareLink     string
	InvoiceNumber string
	Name          string
	InvoiceDate   string
	ItemCount     int
	GrandTotal    string
	SchemaName    string
	CreatedAt     string
}

type PageData struct {
	Top   nav.TopNavData
	Rows  []SubmissionRow
	Query string
	Limit int
}
