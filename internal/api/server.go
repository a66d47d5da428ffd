// Package api assembles the HTTP surface: global middleware, the health probe, the
// revalidation websocket and every feature router under /api/v1.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JustinTDCT/OralVault/internal/auth"
	"github.com/JustinTDCT/OralVault/internal/cache"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/httputil"
	"github.com/JustinTDCT/OralVault/internal/institutions"
	"github.com/JustinTDCT/OralVault/internal/interviewees"
	"github.com/JustinTDCT/OralVault/internal/interviews"
	"github.com/JustinTDCT/OralVault/internal/logging"
	"github.com/JustinTDCT/OralVault/internal/matrix"
	"github.com/JustinTDCT/OralVault/internal/researchers"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
	"github.com/JustinTDCT/OralVault/internal/settings"
	"github.com/JustinTDCT/OralVault/internal/transcription"
	"github.com/JustinTDCT/OralVault/internal/translation"
	"github.com/JustinTDCT/OralVault/internal/version"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Options struct {
	Gateway    gateway.Gateway
	Database   Pinger
	Cache      cache.Store
	CacheTTL   time.Duration
	Hub        *revalidate.Hub
	Notifier   revalidate.Notifier
	Issuer     *auth.Issuer
	AdminUser  string
	AdminHash  string
	Translator translation.Translator
	Translate  translation.Options
	MaxUpload  int64
	Origins    []string
	Logger     *zap.Logger
	Version    version.Info
}

type Server struct {
	opts   Options
	router chi.Router
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Hub == nil {
		opts.Hub = revalidate.NewHub(opts.Cache, opts.Origins, opts.Logger.Named("revalidate"))
	}
	if opts.Notifier == nil {
		opts.Notifier = opts.Hub
	}
	s := &Server{opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	o := s.opts
	gw := o.Gateway
	hub := o.Hub
	notifier := o.Notifier

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.AccessLog(o.Logger.Named("http")))
	r.Use(recoverer(o.Logger))
	r.Use(securityHeaders)
	r.Use(cors(o.Origins))

	r.Get("/health", s.health)

	interviewHandler := interviews.NewHandler(interviews.NewRepository(gw), notifier, o.Cache, o.CacheTTL)
	segmentRepo := transcription.NewRepository(gw)
	importer := transcription.NewImporter(gw, notifier, o.Logger.Named("import"))
	transcriptionHandler := transcription.NewHandler(importer, segmentRepo, notifier, o.MaxUpload, o.Logger.Named("transcription"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", auth.NewHandler(o.Issuer, o.AdminUser, o.AdminHash).Router())

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken(o.Issuer))

			r.Get("/version", s.version)
			r.Handle("/ws", hub)
			r.Mount("/institutions", institutions.NewHandler(institutions.NewRepository(gw), notifier).Router())
			r.Mount("/interviewees", interviewees.NewHandler(interviewees.NewRepository(gw), notifier).Router())
			r.Mount("/researchers", researchers.NewHandler(researchers.NewRepository(gw), notifier).Router())
			r.Mount("/matrix", matrix.NewHandler(matrix.NewRepository(gw), notifier).Router())
			r.Route("/interviews", func(r chi.Router) {
				interviewHandler.Routes(r)
				transcriptionHandler.Routes(r)
			})
			r.Mount("/settings", settings.NewHandler(settings.NewRepository(gw)).Router())
			r.Mount("/translate", translation.NewHandler(
				translation.NewService(o.Translator, o.Translate, o.Logger.Named("translate")),
			).Router())
		})
	})
	return r
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Clients  int    `json:"websocket_clients"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	st := healthStatus{Status: "ok", Database: "ok", Clients: s.opts.Hub.ClientCount()}
	if s.opts.Database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Database.PingContext(ctx); err != nil {
			s.opts.Logger.Warn("health: database unreachable", zap.Error(err))
			st.Status, st.Database = "degraded", "unreachable"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, st)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.opts.Version)
}
