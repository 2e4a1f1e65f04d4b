package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amatoti/outreach/internal/campaign"
	"github.com/amatoti/outreach/internal/config"
)

// RouterConfig carries the dependencies the HTTP shell needs.
type RouterConfig struct {
	Session *campaign.Session
	Runner  *campaign.Runner
	Cfg     *config.Config
	Log     zerolog.Logger
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(rc RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(rc.Log))
	r.Use(RecoverMiddleware(rc.Log))

	r.Get("/healthz", HealthzHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/contacts", UploadContactsHandler(rc.Session, rc.Cfg.Outreach.MaxUploadBytes))
		r.Get("/contacts", ListContactsHandler(rc.Session))

		r.Post("/attachment", UploadAttachmentHandler(rc.Session, rc.Cfg.Outreach.MaxUploadBytes))
		r.Delete("/attachment", ClearAttachmentHandler(rc.Session))

		r.Get("/template", GetTemplateHandler(rc.Session))
		r.Put("/template", PutTemplateHandler(rc.Session))
		r.Post("/template/preview", PreviewTemplateHandler(rc.Session))

		r.Post("/send", SendHandler(rc.Session, rc.Runner, rc.Cfg))
		r.Get("/send/progress", ProgressHandler(rc.Session))

		r.Get("/stats", StatsHandler(rc.Session))

		r.Get("/logs", ListLogsHandler(rc.Session))
		r.Get("/logs/export", ExportLogsHandler(rc.Session))
		r.Delete("/logs", ClearLogsHandler(rc.Session))
	})

	return r
}
