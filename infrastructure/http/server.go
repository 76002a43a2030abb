package http

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"invoicer/frontend/invoice"
	sessioncontext "invoicer/frontend/shared/context"
	"invoicer/infrastructure/audit"
	"invoicer/infrastructure/cache"
	"invoicer/infrastructure/logger"
	sessioncookie "invoicer/infrastructure/session"
	"invoicer/infrastructure/sqlite"
	"invoicer/infrastructure/table"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 10 * time.Second

// Backend is the remote service that stores pictures and invoices.
type Backend interface {
	invoice.PictureUploader
	invoice.InvoiceSubmitter
}

// Options carries the tunables the handlers need from configuration.
type Options struct {
	PublicOrigin   string
	UploadMaxBytes int64
	SettleDelay    time.Duration
	DraftTTL       time.Duration
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB      *sqlite.DB
	Drafts  *cache.DraftCache
	Audit   *audit.Service
	Backend Backend
	Schema  *table.Schema
	Options Options
}

// NewServer creates a new http server.
func NewServer(addr string, db *sqlite.DB, drafts *cache.DraftCache, auditSvc *audit.Service, be Backend, schema *table.Schema, opts Options) *Server {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = table.DefaultSettleDelay
	}
	s := &Server{
		Addr:    addr,
		router:  chi.NewRouter(),
		DB:      db,
		Drafts:  drafts,
		Audit:   auditSvc,
		Backend: be,
		Schema:  schema,
		Options: opts,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RequestID)
	s.router.Use(accessLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		logger.L().Error("assets subfs init failed; serving fallback fs", logger.ErrorF(err))
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.router.Group(func(r chi.Router) {
		r.Use(s.DraftMiddleware)
		s.RegisterInvoiceRoutes(r)
	})
	s.RegisterSubmissionRoutes(s.router)

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// DraftMiddleware resolves the browser's draft from its cookie, starting a
// new one when the cookie is missing or the draft was evicted.
func (s *Server) DraftMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var draft *cache.Draft
		if c, err := r.Cookie(sessioncookie.CookieName); err == nil && c.Value != "" {
			draft, _ = s.Drafts.FindDraftByToken(c.Value)
		}

		if draft == nil {
			var err error
			if draft, err = s.newDraft(); err != nil {
				logger.Error(r.Context(), "create draft failed", logger.ErrorF(err))
				http.Error(w, "failed to start an invoice", http.StatusInternalServerError)
				return
			}
			s.Drafts.AddDraft(draft)
			s.setDraftCookie(w, draft)
			logger.Debug(r.Context(), "draft started", logger.String("draft_id", draft.ID))
		}

		ctx := sessioncontext.NewContextWithDraft(r.Context(), draft)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) newDraft() (*cache.Draft, error) {
	return cache.NewDraft(s.Schema, s.Options.SettleDelay)
}

func (s *Server) setDraftCookie(w http.ResponseWriter, d *cache.Draft) {
	http.SetCookie(w, sessioncookie.DraftCookie(d.ID, sessioncookie.MaxAge(s.Options.DraftTTL)))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && err != http.ErrServerClosed {
			logger.L().Error("http serve failed", logger.ErrorF(err))
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}

// ListenAddr reports the bound address once started.
func (s *Server) ListenAddr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
