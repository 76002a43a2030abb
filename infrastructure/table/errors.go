package table

import "errors"

var (
	ErrInvalidSchema    = errors.New("invalid schema")
	ErrUnknownSchema    = errors.New("unknown schema variant")
	ErrRowOutOfRange    = errors.New("row out of range")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnKind       = errors.New("column kind does not accept this edit")
	ErrNoUploadColumn   = errors.New("schema has no picture column")
)
