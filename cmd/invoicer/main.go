package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"invoicer/infrastructure/audit"
	"invoicer/infrastructure/backend"
	"invoicer/infrastructure/cache"
	"invoicer/infrastructure/config"
	httpserver "invoicer/infrastructure/http"
	"invoicer/infrastructure/logger"
	"invoicer/infrastructure/sqlite"
	"invoicer/infrastructure/table"
)

const sweepInterval = time.Minute

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.C()

	if err := logger.Init(cfg.Logger.Level(), cfg.Logger.AsJSON()); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(); err != nil {
		logger.L().Error("invoicer stopped", logger.ErrorF(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg := config.C()

	schema, err := table.Lookup(cfg.Table.Variant())
	if err != nil {
		return err
	}
	if !cfg.Table.AllowEmptyNumeric() {
		schema.Numeric = table.EmptyNumericRejected
	}
	if err := schema.Validate(); err != nil {
		return err
	}

	db, err := sqlite.OpenDB(cfg.Database.Path())
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sqlite.ApplyMigrations(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	drafts := cache.NewDraftCache()
	httpserver.ShutdownTimeout = cfg.Server.ShutdownTimeout()
	server := httpserver.NewServer(cfg.Server.Address(), db, drafts, audit.NewService(),
		backend.New(cfg.Backend.URL(), cfg.Backend.Timeout()), schema, httpserver.Options{
			PublicOrigin:   cfg.Server.PublicOrigin(),
			UploadMaxBytes: cfg.Server.UploadMaxBytes(),
			SettleDelay:    cfg.Table.RecomputeDelay(),
			DraftTTL:       cfg.Table.DraftTTL(),
		})
	if err := server.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	logger.L().Info("invoicer listening",
		logger.String("addr", server.ListenAddr()),
		logger.String("schema", schema.Name),
		logger.String("backend", cfg.Backend.URL()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return drafts.RunSweeper(gctx, sweepInterval, cfg.Table.DraftTTL())
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("shutting down")
		return server.Stop()
	})
	return g.Wait()
}
