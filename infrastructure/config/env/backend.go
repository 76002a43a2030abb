package envconfig

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type backendEnv struct {
	URL     string        `env:"BACKEND_URL" envDefault:"http://localhost:5000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
}

type backend struct {
	raw backendEnv
}

func NewBackendConfig() (*backend, error) {
	var raw backendEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &backend{raw: raw}, nil
}

func (cfg *backend) URL() string {
	return strings.TrimRight(strings.TrimSpace(cfg.raw.URL), "/")
}

func (cfg *backend) Timeout() time.Duration { return cfg.raw.Timeout }
