// Package server serves the guarded estimate form, the estimation API and the
// guard script over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/renderers/vanilla"
	"github.com/goliatone/go-formguard/pkg/store"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// Estimator values a raw domain.
type Estimator interface {
	Estimate(ctx context.Context, raw string) (*estimate.Result, error)
}

// History records and lists estimations.
type History interface {
	Save(ctx context.Context, res *estimate.Result) (store.Record, error)
	History(ctx context.Context, q store.Query) ([]store.Record, error)
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address used by Run.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithRenderer replaces the HTML page renderer.
func WithRenderer(r render.Renderer) Option {
	return func(s *Server) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithGuard sets the guard configuration the script and pages are built
// from.
func WithGuard(gc guard.Config) Option {
	return func(s *Server) {
		s.guard = gc
	}
}

// WithTranslator sets the catalog server-side messages are read from.
func WithTranslator(t render.Translator) Option {
	return func(s *Server) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry registers the server metrics on reg and serves reg on
// /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithClock sets the clock used for request timing.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithShutdownTimeout bounds how long Run waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithVersion stamps the API description and the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// Server is the HTTP front end.
type Server struct {
	estimator Estimator
	history   History

	addr            string
	renderer        render.Renderer
	guard           guard.Config
	translator      render.Translator
	logger          log.FieldLogger
	registry        *prometheus.Registry
	clock           clockwork.Clock
	shutdownTimeout time.Duration
	version         string

	metrics  *metrics
	validate *validator.Validate
	script   []byte
	openapi  []byte
	handler  http.Handler
}

// New wires the routes. estimator and history are required.
func New(ctx context.Context, estimator Estimator, history History, opts ...Option) (*Server, error) {
	if estimator == nil {
		return nil, errors.New("server: estimator is required")
	}
	if history == nil {
		return nil, errors.New("server: history is required")
	}

	s := &Server{
		estimator:       estimator,
		history:         history,
		addr:            DefaultAddr,
		translator:      guard.Messages,
		logger:          log.StandardLogger(),
		clock:           clockwork.NewRealClock(),
		shutdownTimeout: DefaultShutdownTimeout,
		version:         guard.ScriptVersion,
		validate:        validator.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.guard.Translator == nil {
		s.guard.Translator = s.translator
	}
	s.guard = s.guard.WithDefaults()

	if s.renderer == nil {
		r, err := vanilla.New(vanilla.WithGuard(s.guard), vanilla.WithTranslator(s.translator))
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.renderer = r
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	var err error
	if s.metrics, err = newMetrics(s.registry); err != nil {
		return nil, fmt.Errorf("server: register metrics: %w", err)
	}
	if s.script, err = guard.Script(s.guard); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if s.openapi, err = openapiJSON(ctx, s.version); err != nil {
		return nil, err
	}

	s.handler = logRequests(s.logger, s.clock, s.routes())
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST "+s.guard.FormAction, s.handleEstimateForm)
	mux.HandleFunc("GET /history", s.handleHistoryPage)
	mux.HandleFunc("POST /api/estimate", s.handleEstimateAPI)
	mux.HandleFunc("GET /api/history", s.handleHistoryAPI)
	mux.HandleFunc("GET /api/openapi.json", s.handleOpenAPI)
	mux.HandleFunc("GET "+vanilla.DefaultScriptURL, s.handleScript)
	mux.Handle("GET /static/css/", http.StripPrefix("/static/css/", http.FileServerFS(vanilla.AssetsFS())))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", ln.Addr().String()).Info("Listening.")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down.")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
