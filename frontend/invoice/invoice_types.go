package invoice

import (
	"context"

	"invoicer/infrastructure/table"
)

// PictureUploader stores a picture and returns its public URL.
type PictureUploader interface {
	UploadPicture(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// InvoiceSubmitter posts an assembled invoice and returns its backend id.
type InvoiceSubmitter interface {
	SubmitInvoice(ctx context.Context, invoice any) (string, error)
}

type PageData struct {
	Schema        *table.Schema
	Rows          []table.Row
	Totals        []float64
	HeaderText    string
	Date          string
	ShowInvoiceNo bool
	RecomputeMS   int64
}

type CellResponse struct {
	Text          string    `json:"text"`
	Rejected      bool      `json:"rejected"`
	AppendedRow   string    `json:"appendedRow,omitempty"`
	AppendedIndex int       `json:"appendedIndex,omitempty"`
	Totals        []float64 `json:"totals"`
}

type ToggleResponse struct {
	AppendedRow   string    `json:"appendedRow,omitempty"`
	AppendedIndex int       `json:"appendedIndex,omitempty"`
	Totals        []float64 `json:"totals"`
	Approved      bool      `json:"approved"`
}

type TotalsResponse struct {
	Totals    []float64 `json:"totals"`
	Formatted []string  `json:"formatted"`
	Approved  bool      `json:"approved"`
}

type PictureResponse struct {
	URL           string `json:"url"`
	AppendedRow   string `json:"appendedRow,omitempty"`
	AppendedIndex int    `json:"appendedIndex,omitempty"`
}

type SubmitResponse struct {
	ID        string `json:"id"`
	Link      string `json:"link"`
	QR        string `json:"qr,omitempty"`
	ItemCount int    `json:"itemCount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// SubmissionInput is what gets stored locally once the backend accepted an invoice.
type SubmissionInput struct {
	DraftID   string
	BackendID string
	ShareLink string
	Schema    string
	Invoice   table.Invoice
}
