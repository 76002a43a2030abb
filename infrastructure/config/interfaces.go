package config

import "time"

type Server interface {
	Address() string
	ShutdownTimeout() time.Duration
	PublicOrigin() string
	UploadMaxBytes() int64
}

type Database interface {
	Path() string
}

type Backend interface {
	URL() string
	Timeout() time.Duration
}

type Table interface {
	Variant() string
	AllowEmptyNumeric() bool
	RecomputeDelay() time.Duration
	DraftTTL() time.Duration
}

type Logger interface {
	Level() string
	AsJSON() bool
}
