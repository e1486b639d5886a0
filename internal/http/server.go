package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"freelance/internal/cache"
	"freelance/internal/config"
	"freelance/internal/core"
	"freelance/internal/log"
	"freelance/internal/metrics"
	"freelance/internal/middleware/security"
	"freelance/internal/middleware/trace"
	"freelance/internal/report"
	"freelance/internal/services"
	"freelance/internal/theme"
	appweb "freelance/web"
)

const cacheCleanupInterval = 10 * time.Minute

// Pinger reports whether the backing store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators requests are routed to.
type Deps struct {
	WorkDays *services.WorkDayService
	Clients  *services.ClientService
	Revenue  *services.RevenueService
	Auth     *services.AuthService
	Store    Pinger
	Metrics  *metrics.Metrics
	Caches   *cache.Manager
	Logger   *log.Logger
}

// Server is the HTMX front end of the tracker.
type Server struct {
	http.Server
	cfg       *config.Config
	templates *template.Template

	workDays *services.WorkDayService
	clients  *services.ClientService
	revenue  *services.RevenueService
	auth     *services.AuthService
	store    Pinger

	metrics *metrics.Metrics
	caches  *cache.Manager
	logger  *log.Logger
	events  *log.StructuredLogger

	now          func() time.Time
	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and registers every route.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		cfg:       cfg,
		workDays:  deps.WorkDays,
		clients:   deps.Clients,
		revenue:   deps.Revenue,
		auth:      deps.Auth,
		store:     deps.Store,
		metrics:   deps.Metrics,
		caches:    deps.Caches,
		logger:    httpLogger,
		events:    log.NewStructuredLogger(httpLogger),
		now:       time.Now,
		startedAt: time.Now(),
	}

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	ips := security.NewIPResolver()
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, ips.ClientIP)

	var handler http.Handler = s.observe(mux)
	handler = headers.Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = tracer.Middleware(handler)
	handler = log.Middleware(httpLogger)(handler)

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if s.caches != nil {
		s.caches.StartCleanup(cacheCleanupInterval)
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /auth", s.handleAuthPage)
	mux.HandleFunc("POST /auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /auth/signout", s.handleSignOut)
	mux.HandleFunc("POST /auth/reset", s.handleResetRequest)
	mux.HandleFunc("POST /auth/confirm", s.handleConfirm)
	mux.HandleFunc("POST /auth/password", s.handleUpdatePassword)
	mux.HandleFunc("GET /auth/reset-password", s.handleResetPasswordPage)

	mux.HandleFunc("POST /theme/toggle", s.handleThemeToggle)

	mux.Handle("GET /{$}", s.requireAccount(s.handleCalendarPage))
	mux.Handle("GET /ui/calendar", s.requireAccount(s.handleCalendarPartial))
	mux.Handle("GET /ui/workdays/{date}", s.requireAccount(s.handleDayDialog))
	mux.Handle("POST /workdays/{date}", s.requireAccount(s.handleApplyWorkDay))

	mux.Handle("GET /clients", s.requireAccount(s.handleClientsPage))
	mux.Handle("GET /ui/clients", s.requireAccount(s.handleClientsPartial))
	mux.Handle("GET /ui/clients/form", s.requireAccount(s.handleClientForm))
	mux.Handle("POST /clients", s.requireAccount(s.handleCreateClient))
	mux.Handle("POST /clients/{id}", s.requireAccount(s.handleUpdateClient))
	mux.Handle("POST /clients/{id}/delete", s.requireAccount(s.handleDeleteClient))

	mux.Handle("GET /revenue", s.requireAccount(s.handleRevenuePage))
	mux.Handle("GET /ui/revenue", s.requireAccount(s.handleRevenuePartial))
	mux.Handle("GET /revenue/export.pdf", s.requireAccount(s.handleExportPDF))
	return nil
}

// observe records request metrics by matched route pattern. It wraps the mux
// directly so r.Pattern is set once the mux returns.
func (s *Server) observe(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(r.Method, route, rw.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Shutdown stops the cache sweeper and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.caches != nil {
			s.caches.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// page is the data every full page template receives.
type page struct {
	Title  string
	Active string
	Theme  theme.Theme
	Email  string
	Data   any
}

func (s *Server) newPage(r *http.Request, title, active string, data any) page {
	p := page{
		Title:  title,
		Active: active,
		Theme:  s.currentTheme(r),
		Data:   data,
	}
	if acct, ok := accountFrom(r.Context()); ok {
		p.Email = acct.Email
	}
	return p
}

func (s *Server) currentTheme(r *http.Request) theme.Theme {
	stored := ""
	if c, err := r.Cookie(theme.CookieName); err == nil {
		stored = c.Value
	}
	return theme.Resolve(stored, s.now())
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"euro":      report.FormatEuro,
		"monthName": core.MonthName,
		"itDate":    formatItalianDate,
		"weekdays":  func() [7]string { return core.WeekdayHeaders },
	}
}

// render executes a template into b and writes the response. A failing
// template never leaves a half-written body behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.NewFields().WithRequestID(trace.GetRequestID(r.Context())))
		InternalServerError("Errore interno, riprova più tardi.").Write(w)
		return
	}
	b.Header("Content-Type", "text/html; charset=utf-8").Body(buf.Bytes()).Write(w)
}

// errorResponse maps service errors to the status codes and Italian messages
// shown inline by htmx. fallback is used for storage failures.
func (s *Server) errorResponse(r *http.Request, err error, component, op, fallback string) *HTMXResponseBuilder {
	switch {
	case services.IsValidation(err):
		return UnprocessableEntityError(validationMessage(err))
	case errors.Is(err, report.ErrNoData):
		return UnprocessableEntityError(report.NoDataMessage)
	case errors.Is(err, services.ErrMutationInFlight):
		return ConflictError("Un'altra modifica è ancora in corso, attendi un momento.")
	case services.IsNotFound(err):
		return NotFoundError("Elemento non trovato.")
	case errors.Is(err, core.ErrMissingAccount):
		return ErrorResponse(http.StatusUnauthorized, "Sessione scaduta, accedi di nuovo.")
	}
	s.events.LogError(r.Context(), "Request failed", err, component, op, nil)
	return InternalServerError(fallback)
}
