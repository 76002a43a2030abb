package envconfig

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type httpServerEnv struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	PublicOrigin    string        `env:"PUBLIC_ORIGIN"`
	UploadMaxBytes  int64         `env:"UPLOAD_MAX_BYTES" envDefault:"26214400"`
}

type httpServer struct {
	raw httpServerEnv
}

func NewHTTPServerConfig() (*httpServer, error) {
	var raw httpServerEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &httpServer{raw: raw}, nil
}

func (cfg *httpServer) Address() string { return cfg.raw.Addr }

func (cfg *httpServer) ShutdownTimeout() time.Duration {
	return cfg.raw.ShutdownTimeout
}

// PublicOrigin is the scheme and host used in share links, without a trailing slash.
// Empty means the origin is taken from the request.
func (cfg *httpServer) PublicOrigin() string {
	return strings.TrimRight(strings.TrimSpace(cfg.raw.PublicOrigin), "/")
}

func (cfg *httpServer) UploadMaxBytes() int64 { return cfg.raw.UploadMaxBytes }
