package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type tableEnv struct {
	Variant           string        `env:"SCHEMA_VARIANT" envDefault:"standard"`
	AllowEmptyNumeric bool          `env:"ALLOW_EMPTY_NUMERIC" envDefault:"true"`
	RecomputeDelay    time.Duration `env:"RECOMPUTE_DELAY" envDefault:"700ms"`
	DraftTTL          time.Duration `env:"DRAFT_TTL" envDefault:"12h"`
}

type table struct {
	raw tableEnv
}

func NewTableConfig() (*table, error) {
	var raw tableEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &table{raw: raw}, nil
}

func (cfg *table) Variant() string               { return cfg.raw.Variant }
func (cfg *table) AllowEmptyNumeric() bool       { return cfg.raw.AllowEmptyNumeric }
func (cfg *table) RecomputeDelay() time.Duration { return cfg.raw.RecomputeDelay }
func (cfg *table) DraftTTL() time.Duration       { return cfg.raw.DraftTTL }
