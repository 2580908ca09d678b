// Package triage ties scoring, classification and suggestions together over a
// tab snapshot, and owns the session archive and custom tab titles.
package triage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/tabtriage/internal/classify"
	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/internal/rules"
	"github.com/thebtf/tabtriage/internal/scoring"
	"github.com/thebtf/tabtriage/internal/suggest"
	"github.com/thebtf/tabtriage/internal/weights"
)

// MeterName is the instrumentation scope for triage metrics.
const MeterName = "tabtriage/triage"

// Config wires a Service. Store is required; nil stores are created over it.
type Config struct {
	Store     kv.Store
	Weights   *weights.Store
	Rules     *rules.Store
	Localizer i18n.Localizer
	// Groups supplies browser tab-group metadata. Optional.
	Groups GroupProvider
	// Meter defaults to the global meter provider.
	Meter metric.Meter
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Service runs triage passes over tab snapshots.
type Service struct {
	kv         kv.Store
	weights    *weights.Store
	rules      *rules.Store
	scorer     *scoring.Calculator
	classifier *classify.Classifier
	engine     *suggest.Engine
	localizer  i18n.Localizer
	groups     GroupProvider
	log        zerolog.Logger
	now        func() time.Time
	metrics    *serviceMetrics

	sessionsMu sync.Mutex
	titlesMu   sync.Mutex
}

// NewService creates a triage service. Call Load to pick up persisted weights and rules.
func NewService(cfg Config, log zerolog.Logger) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("triage: kv store is required")
	}
	if cfg.Weights == nil {
		cfg.Weights = weights.NewStore(cfg.Store, log)
	}
	if cfg.Rules == nil {
		cfg.Rules = rules.NewStore(cfg.Store, log)
	}
	if cfg.Meter == nil {
		cfg.Meter = otel.Meter(MeterName)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	m, err := newServiceMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("triage metrics: %w", err)
	}

	return &Service{
		kv:         cfg.Store,
		weights:    cfg.Weights,
		rules:      cfg.Rules,
		scorer:     scoring.NewCalculator(cfg.Weights).WithClock(cfg.Clock),
		classifier: classify.New(cfg.Rules),
		engine:     suggest.New(),
		localizer:  cfg.Localizer,
		groups:     cfg.Groups,
		log:        log.With().Str("component", "triage").Logger(),
		now:        cfg.Clock,
		metrics:    m,
	}, nil
}

// Weights returns the weight store.
func (s *Service) Weights() *weights.Store { return s.weights }

// Rules returns the rule store.
func (s *Service) Rules() *rules.Store { return s.rules }

// Scorer returns the calculator bound to the weight store.
func (s *Service) Scorer() *scoring.Calculator { return s.scorer }

// Localizer returns the label localizer, which may be nil.
func (s *Service) Localizer() i18n.Localizer { return s.localizer }

// Classifier returns the classifier bound to the rule store.
func (s *Service) Classifier() *classify.Classifier { return s.classifier }

// Load reloads persisted weights and custom rules concurrently. On failure the
// affected store keeps its current state and the first error is returned.
func (s *Service) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.weights.Load(gctx)
		return err
	})
	g.Go(func() error {
		return s.rules.Load(gctx)
	})
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Msg("Load finished with errors, defaults remain active where loading failed")
		return err
	}
	s.log.Debug().
		Bool("custom_weights", s.weights.IsCustom()).
		Int("custom_rules", len(s.rules.CustomRules())).
		Msg("Loaded triage state")
	return nil
}
