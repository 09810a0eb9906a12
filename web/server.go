// Package web serves the playground over HTTP: a server-rendered page whose
// URL is the shareable state, and a JSON endpoint the page calls as the user
// types.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	dp "github.com/wippyai/digest-playground"
	"github.com/wippyai/digest-playground/engine"
	"github.com/wippyai/digest-playground/gate"
	"github.com/wippyai/digest-playground/orchestrator"
	"github.com/wippyai/digest-playground/render"
	"github.com/wippyai/digest-playground/urlstate"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// PageData is passed to the index template.
type PageData struct {
	Form           dp.FormState
	Versions       []dp.Version
	DefaultVersion dp.Version
	Regions        render.Regions
	ShareLink      string
	DebounceMillis int64
	// Ready is false while the page shows the engine state instead of a
	// result; the page script waits on /healthz before computing.
	Ready bool
}

// DigestResponse is the JSON body of /api/digest. Exactly one of Error or
// the Text/Hash pair is set.
type DigestResponse struct {
	Text  string `json:"text,omitempty"`
	Hash  string `json:"hash,omitempty"`
	Error string `json:"error,omitempty"`
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the request and handler logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDebounce sets the typing pause the page waits before calling the API.
func WithDebounce(d time.Duration) ServerOption {
	return func(s *Server) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// Server holds the chi router and the engine gate.
type Server struct {
	router   chi.Router
	gate     *gate.Gate
	logger   *zap.Logger
	debounce time.Duration

	mu     sync.Mutex
	future *gate.Future
}

// NewServer creates a Server with all routes configured. The engine is not
// loaded until Start.
func NewServer(g *gate.Gate, opts ...ServerOption) *Server {
	s := &Server{
		gate:     g,
		logger:   zap.NewNop(),
		debounce: orchestrator.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/digest", s.handleDigest)
	r.Get("/healthz", s.handleHealth)

	s.router = r
	return s
}

// Start begins loading the engine. Requests made before it is ready see the
// loading state.
func (s *Server) Start(ctx context.Context) *gate.Future {
	f := s.gate.Load(ctx)
	s.mu.Lock()
	s.future = f
	s.mu.Unlock()
	return f
}

// ServeHTTP implements the http.Handler interface, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// display is what a request sees: the engine state until it is ready, the
// evaluated form afterwards.
func (s *Server) display(ctx context.Context, form dp.FormState) render.Display {
	switch s.gate.Readiness() {
	case gate.Ready:
		return orchestrator.Evaluate(ctx, s.gate, form)
	case gate.Failed:
		s.mu.Lock()
		f := s.future
		s.mu.Unlock()
		if f != nil {
			return render.LoadFailed(f.Err())
		}
		return render.LoadFailed(nil)
	default:
		return render.Loading()
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	form := urlstate.Decode(r.URL.RawQuery, dp.NewFormState())

	regions := render.Map(s.display(r.Context(), form))
	data := PageData{
		Form:           form,
		Versions:       dp.Versions,
		DefaultVersion: dp.DefaultVersion,
		Regions:        regions,
		ShareLink:      shareLink(r, form),
		DebounceMillis: s.debounce.Milliseconds(),
		Ready:          !regions.Loading && !regions.LoadError,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	form := urlstate.Decode(r.URL.RawQuery, dp.NewFormState())

	if !s.gate.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, DigestResponse{Error: engine.MessageNotReady})
		return
	}
	if form.Blank() {
		writeJSON(w, http.StatusBadRequest, DigestResponse{Error: "query is empty"})
		return
	}

	d := orchestrator.Evaluate(r.Context(), s.gate, form)
	if d.Kind == render.KindError {
		writeJSON(w, http.StatusOK, DigestResponse{Error: d.Message})
		return
	}
	writeJSON(w, http.StatusOK, DigestResponse{Text: d.Text, Hash: d.Hash})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.gate.Readiness()
	status := http.StatusOK
	if state != gate.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"engine": state.String()})
}

// shareLink is the absolute URL that reproduces form on this host.
func shareLink(r *http.Request, form dp.FormState) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	loc, err := urlstate.ParseLocation("?" + urlstate.Encode(form))
	if err != nil {
		return ""
	}
	return loc.WithBase(&url.URL{Scheme: scheme, Host: r.Host, Path: "/"}).String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
