package http

import (
	"github.com/go-chi/chi/v5"

	"invoicer/frontend/help"
	"invoicer/frontend/invoice"
	"invoicer/frontend/submissions"
)

// RegisterInvoiceRoutes registers the editor page and its draft-bound API.
func (s *Server) RegisterInvoiceRoutes(r chi.Router) chi.Router {
	r.Get("/", invoice.EditorPageQueryHandler(s.DB, s.Options.SettleDelay))

	r.Route("/api", func(r chi.Router) {
		r.Post("/rows/{row}/cells/{col}", invoice.EditCellCommandHandler())
		r.Post("/rows/{row}/toggles/{col}", invoice.ToggleCellCommandHandler())
		r.Post("/rows/{row}/picture", invoice.UploadPictureCommandHandler(s.DB, s.Audit, s.Backend, s.Options.UploadMaxBytes))
		r.Get("/totals", invoice.TotalsQueryHandler())
		r.Post("/submit", invoice.SubmitInvoiceCommandHandler(s.DB, s.Audit, s.Backend, s.Options.PublicOrigin))
		r.Post("/reset", invoice.ResetDraftCommandHandler(s.Drafts, s.newDraft, s.setDraftCookie))
	})
	return r
}

// RegisterSubmissionRoutes registers the draft-independent pages.
func (s *Server) RegisterSubmissionRoutes(r chi.Router) chi.Router {
	r.Get("/submissions", submissions.SubmissionsPageQueryHandler(s.DB, s.Schema.Name))
	r.Get("/submissions.csv", submissions.SubmissionsCSVHandler(s.DB))
	r.Get("/help", help.HelpPageQueryHandler(s.Schema))
	return r
}
