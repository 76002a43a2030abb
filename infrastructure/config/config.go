package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	envconfig "invoicer/infrastructure/config/env"
)

var cfg *config

type config struct {
	Server   Server
	Database Database
	Backend  Backend
	Table    Table
	Logger   Logger
}

func Load(path ...string) error {
	const op = "config.Load"

	if shouldLoadDotenv() {
		if err := godotenv.Load(path...); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: load .env: %w", op, err)
		}
	}

	serverCfg, err := envconfig.NewHTTPServerConfig()
	if err != nil {
		return fmt.Errorf("%s Server: %w", op, err)
	}

	databaseCfg, err := envconfig.NewSQLiteConfig()
	if err != nil {
		return fmt.Errorf("%s Database: %w", op, err)
	}

	backendCfg, err := envconfig.NewBackendConfig()
	if err != nil {
		return fmt.Errorf("%s Backend: %w", op, err)
	}

	tableCfg, err := envconfig.NewTableConfig()
	if err != nil {
		return fmt.Errorf("%s Table: %w", op, err)
	}

	loggerCfg, err := envconfig.NewLoggerConfig()
	if err != nil {
		return fmt.Errorf("%s Logger: %w", op, err)
	}

	cfg = &config{
		Server:   serverCfg,
		Database: databaseCfg,
		Backend:  backendCfg,
		Table:    tableCfg,
		Logger:   loggerCfg,
	}

	return nil
}

func C() *config { return cfg }

func shouldLoadDotenv() bool {
	return os.Getenv("APP_ENV") == "local"
}
