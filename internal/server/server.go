package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/errors"
	"campaign-dashboard/internal/filter"
	"campaign-dashboard/internal/handlers"
	"campaign-dashboard/internal/middleware"
	"campaign-dashboard/internal/observability"
	"campaign-dashboard/internal/services"
)

type Server struct {
	dashboard      *services.Dashboard
	router         chi.Router
	logger         *slog.Logger
	apiHandlers    *handlers.APIHandlers
	sseHandlers    *handlers.SSEHandlers
	exportHandlers *handlers.ExportHandlers
	uploadHandlers *handlers.UploadHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(dashboard *services.Dashboard, cfg config.DashboardConfig, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	filters := filter.Options{StrictZeroMin: cfg.StrictZeroMin}
	s := &Server{
		dashboard:      dashboard,
		router:         chi.NewRouter(),
		logger:         logger,
		apiHandlers:    handlers.NewAPIHandlers(dashboard, filters, logger),
		sseHandlers:    handlers.NewSSEHandlers(dashboard, filters, logger),
		exportHandlers: handlers.NewExportHandlers(dashboard, filters, logger),
		uploadHandlers: handlers.NewUploadHandlers(cfg.UploadMaxBytes, cfg.QualitySampleRows, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	r := s.router
	r.Use(middleware.Metrics())
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, s.logger, errors.NotFound("Route not found"), observability.GetRequestID(req.Context()))
	})

	// Dashboard routes
	r.Get("/", templateHandlers.Dashboard)
	r.Get("/health", s.apiHandlers.HandleHealth)
	r.Get("/admin/stats", s.apiHandlers.HandleStats)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.apiHandlers.HandleDashboard)
		r.Get("/kpis", s.apiHandlers.HandleKPIs)
		r.Get("/groups/{field}", s.apiHandlers.HandleGroups)
		r.Get("/records", s.apiHandlers.HandleRecords)
	})

	// Datastar SSE endpoints
	r.Route("/sse", func(r chi.Router) {
		r.Get("/dashboard", s.sseHandlers.HandleDashboard)
		r.Get("/table", s.sseHandlers.HandleTable)
	})

	r.Route("/export", func(r chi.Router) {
		r.Get("/csv", s.exportHandlers.HandleCSV)
		r.Get("/xlsx", s.exportHandlers.HandleXLSX)
	})

	r.Post("/upload", s.uploadHandlers.HandleUpload)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
