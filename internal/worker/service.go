// Package worker provides the tabtriage HTTP service.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/tabtriage/internal/config"
	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/internal/maintenance"
	"github.com/thebtf/tabtriage/internal/triage"
	"github.com/thebtf/tabtriage/internal/worker/sse"
)

// Service configuration constants
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ReadyPollInterval is how often WaitReady checks initialization status.
	ReadyPollInterval = 50 * time.Millisecond

	// DefaultRateLimit and DefaultRateBurst bound requests per client.
	DefaultRateLimit = 50.0
	DefaultRateBurst = 100
)

// Service is the worker HTTP service.
type Service struct {
	version string
	config  *config.Config

	// Domain
	store       kv.Store
	triage      *triage.Service
	events      *sse.Broadcaster
	maintenance *maintenance.Service

	// HTTP server
	router    *chi.Mux
	server    *http.Server
	auth      *TokenAuth
	limiter   *RateLimiter
	startTime time.Time

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Initialization state
	ready     atomic.Bool
	initError error
	initMu    sync.RWMutex
}

// NewService creates a worker over store. Persisted weights and rules are
// loaded in the background; routes other than health return 503 until then.
func NewService(version string, cfg *config.Config, store kv.Store) (*Service, error) {
	if cfg == nil {
		cfg = config.Get()
	}

	tri, err := triage.NewService(triage.Config{
		Store:     store,
		Localizer: i18n.New(cfg.Locale),
	}, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("init triage: %w", err)
	}

	auth, err := NewTokenAuth(cfg.AuthEnabled)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &Service{
		version:     version,
		config:      cfg,
		store:       store,
		triage:      tri,
		events:      sse.NewBroadcaster(),
		maintenance: maintenance.NewService(tri, cfg, log.Logger),
		router:      chi.NewRouter(),
		auth:        auth,
		limiter:     NewRateLimiter(DefaultRateLimit, DefaultRateBurst),
		startTime:   time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}

	svc.setupMiddleware()
	svc.setupRoutes()

	svc.wg.Add(1)
	go svc.initializeAsync()

	return svc, nil
}

// initializeAsync loads persisted state. Load failures leave defaults active
// and do not block readiness.
func (s *Service) initializeAsync() {
	defer s.wg.Done()
	log.Info().Msg("Loading persisted weights and rules...")

	if err := s.triage.Load(s.ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			s.setInitError(err)
			return
		}
		log.Warn().Err(err).Msg("Persisted state unavailable, serving defaults")
	}

	s.ready.Store(true)
	log.Info().
		Bool("custom_weights", s.triage.Weights().IsCustom()).
		Int("custom_rules", len(s.triage.Rules().CustomRules())).
		Msg("Worker ready")
}

// setInitError records an initialization error.
func (s *Service) setInitError(err error) {
	s.initMu.Lock()
	s.initError = err
	s.initMu.Unlock()
	log.Error().Err(err).Msg("Initialization failed")
}

// GetInitError returns any initialization error.
func (s *Service) GetInitError() error {
	s.initMu.RLock()
	defer s.initMu.RUnlock()
	return s.initError
}

// WaitReady blocks until initialization finishes or ctx is done.
func (s *Service) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(ReadyPollInterval)
	defer ticker.Stop()
	for {
		if s.ready.Load() {
			return nil
		}
		if err := s.GetInitError(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Handler returns the HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// AuthToken returns the API token, or "" when authentication is disabled.
func (s *Service) AuthToken() string {
	return s.auth.Token()
}

// ApplyConfig reacts to a settings reload. Log level changes apply
// immediately; storage and port changes need a restart.
func (s *Service) ApplyConfig(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}
	restart := cfg.WorkerPort != s.config.WorkerPort || cfg.StoreOptions() != s.config.StoreOptions()
	s.events.Broadcast(sse.Event{Type: sse.EventConfigChanged, Data: map[string]any{
		"logLevel":        cfg.LogLevel,
		"restartRequired": restart,
	}})
	if restart {
		log.Warn().Msg("Port or storage settings changed, restart the worker to apply them")
	}
}

// setupMiddleware configures HTTP middleware.
func (s *Service) setupMiddleware() {
	s.router.Use(middleware.RealIP)
	s.router.Use(RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(SecurityHeaders)
	s.router.Use(RateLimitMiddleware(s.limiter))
	s.router.Use(s.auth.Middleware)
}

// setupRoutes configures HTTP routes.
func (s *Service) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)

	// SSE stream has no deadline
	s.router.With(s.requireReady).Get("/api/events", s.events.HandleSSE)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)
		r.Use(middleware.Timeout(DefaultHTTPTimeout))
		r.Use(MaxBodySize(s.config.MaxBodyBytes))
		r.Use(RequireJSONContentType)

		r.Post("/api/tabs/enrich", s.handleEnrich)
		r.Post("/api/tabs/suggestions", s.handleSuggestions)
		r.Post("/api/tabs/groups", s.handleGroups)
		r.Put("/api/tabs/{id}/title", s.handleSetTitle)
		r.Delete("/api/tabs/{id}/title", s.handleClearTitle)

		r.Get("/api/weights", s.handleGetWeights)
		r.Put("/api/weights", s.handleSaveWeights)
		r.Delete("/api/weights", s.handleResetWeights)
		r.Post("/api/weights/presets/{name}", s.handleApplyPreset)

		r.Get("/api/rules", s.handleGetRules)
		r.Post("/api/rules", s.handleAddRule)
		r.Put("/api/rules/{id}", s.handleUpdateRule)
		r.Delete("/api/rules/{id}", s.handleDeleteRule)

		r.Get("/api/sessions", s.handleGetSessions)
		r.Post("/api/sessions", s.handleSaveSession)
		r.Put("/api/sessions/{id}", s.handleRenameSession)
		r.Delete("/api/sessions/{id}", s.handleDeleteSession)
	})
}

// requireReady is middleware that returns 503 until initialization finishes.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			if err := s.GetInitError(); err != nil {
				http.Error(w, "service initialization failed: "+err.Error(), http.StatusInternalServerError)
				return
			}
			http.Error(w, "service initializing", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server on the configured port.
func (s *Service) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.config.WorkerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.maintenance.Start(s.ctx)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	log.Info().
		Int("port", s.config.WorkerPort).
		Bool("auth", s.auth.IsEnabled()).
		Str("backend", string(s.config.Backend)).
		Msg("Worker HTTP server started")
	return nil
}

// Shutdown gracefully shuts down the service and closes the store.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if err := s.store.Close(); err != nil {
		log.Error().Err(err).Msg("Store close error")
	}

	log.Info().Msg("Worker service shutdown complete")
	return nil
}
