package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var (
	ErrUpstream    = errors.New("backend reported a failure")
	ErrBadResponse = errors.New("backend response malformed")
)

const maxResponseBytes = 1 << 20

// Client talks to the invoice backend that stores pictures and invoices.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// UploadPicture posts one file as multipart field "file" and returns the URL
// the backend stored it under.
func (c *Client) UploadPicture(ctx context.Context, name, contentType string, data []byte) (string, error) {
	const op = "backend.Client.UploadPicture"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	raw, err := c.post(ctx, "/upload-picture", writer.FormDataContentType(), &body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var resp uploadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrBadResponse, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%s: %w: %s", op, ErrUpstream, resp.Error)
	}
	if strings.TrimSpace(resp.URL) == "" {
		return "", fmt.Errorf("%s: %w: missing url", op, ErrBadResponse)
	}
	return resp.URL, nil
}

type submitResponse struct {
	ID    json.RawMessage `json:"id"`
	Error string          `json:"error"`
}

// SubmitInvoice posts the invoice as JSON and returns the identifier assigned
// by the backend. The identifier is opaque: strings are unquoted, any other
// JSON value is returned verbatim.
func (c *Client) SubmitInvoice(ctx context.Context, invoice any) (string, error) {
	const op = "backend.Client.SubmitInvoice"

	payload, err := json.Marshal(invoice)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	raw, err := c.post(ctx, "/submit-invoice", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var resp submitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrBadResponse, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%s: %w: %s", op, ErrUpstream, resp.Error)
	}

	id := opaqueID(resp.ID)
	if id == "" {
		return "", fmt.Errorf("%s: %w: missing id", op, ErrBadResponse)
	}
	return id, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, msg)
	}
	return raw, nil
}

func opaqueID(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(trimmed)
}

// ShareLink builds the public link of a submitted invoice.
func ShareLink(origin, id string) string {
	return strings.TrimRight(origin, "/") + "/invoice/" + id
}

// RequestOrigin derives scheme and host from the incoming request, honouring
// X-Forwarded-Proto when a proxy terminates TLS.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); fwd != "" {
		scheme = fwd
	}
	host := r.Host
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-Host")); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
