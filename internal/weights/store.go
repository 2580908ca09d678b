// Package weights holds the anxiety-scoring factor weights: defaults, presets
// and the persisted user override.
package weights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/pkg/models"
)

// StorageKey is the kv key holding the custom weight override.
const StorageKey = "customAnxietyWeights"

// Preset names.
const (
	PresetDefault      = "default"
	PresetAggressive   = "aggressive"
	PresetConservative = "conservative"
)

// ErrUnknownPreset is returned by ApplyPreset for names not in Presets().
var ErrUnknownPreset = errors.New("unknown weight preset")

var presets = map[string]models.WeightSet{
	PresetDefault: models.DefaultWeightSet(),
	// Skews toward stale and duplicated tabs, ignores reading progress.
	PresetAggressive: {
		OpenDuration:    0.40,
		DuplicateDomain: 0.30,
		InactiveTime:    0.20,
		IsSearchPage:    0.10,
		UnreadArticle:   0.00,
	},
	// Flatter weights, favors unread articles.
	PresetConservative: {
		OpenDuration:    0.20,
		DuplicateDomain: 0.20,
		InactiveTime:    0.15,
		IsSearchPage:    0.20,
		UnreadArticle:   0.25,
	},
}

// Defaults returns the built-in weight set.
func Defaults() models.WeightSet {
	return models.DefaultWeightSet()
}

// Preset returns the weight set for a preset name.
func Preset(name string) (models.WeightSet, error) {
	w, ok := presets[name]
	if !ok {
		return models.WeightSet{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return w, nil
}

// Presets returns the available preset names in sorted order.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store holds the active weight set and persists overrides through a kv.Store.
// Weights outside [0,1] are clamped on save and on load.
type Store struct {
	kv     kv.Store
	log    zerolog.Logger
	group  singleflight.Group
	active models.WeightSet
	mu     sync.RWMutex
	custom bool
}

// NewStore creates a store holding the defaults. Call Load to apply the persisted override.
func NewStore(store kv.Store, log zerolog.Logger) *Store {
	return &Store{
		kv:     store,
		log:    log.With().Str("component", "weights").Logger(),
		active: Defaults(),
	}
}

// Weights returns a copy of the active weight set.
func (s *Store) Weights() models.WeightSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// IsCustom reports whether a persisted override is active.
func (s *Store) IsCustom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom
}

// Load merges the persisted override over the defaults. A missing override is
// not an error. On a persistence failure the defaults become active and the
// error is returned. Concurrent calls share one read.
func (s *Store) Load(ctx context.Context) (models.WeightSet, error) {
	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		var partial models.PartialWeights
		found, err := kv.GetJSON(ctx, s.kv, StorageKey, &partial)
		if err != nil {
			s.setActive(Defaults(), false)
			s.log.Warn().Err(err).Msg("Failed to load custom weights, using defaults")
			return Defaults(), fmt.Errorf("load weights: %w", err)
		}
		if !found {
			s.setActive(Defaults(), false)
			return Defaults(), nil
		}

		merged := Defaults().Merge(partial).Clamp()
		s.setActive(merged, true)
		s.log.Debug().Interface("weights", merged).Msg("Loaded custom weights")
		return merged, nil
	})
	return v.(models.WeightSet), err
}

// Save merges partial over the defaults, persists the complete result and makes it active.
// The active set is unchanged when persistence fails.
func (s *Store) Save(ctx context.Context, partial models.PartialWeights) (models.WeightSet, error) {
	merged := Defaults().Merge(partial).Clamp()
	if err := kv.SetJSON(ctx, s.kv, StorageKey, models.Full(merged)); err != nil {
		return s.Weights(), fmt.Errorf("save weights: %w", err)
	}
	s.setActive(merged, true)
	s.log.Info().Interface("weights", merged).Msg("Saved custom weights")
	return merged, nil
}

// ApplyPreset saves the named preset as the custom override.
func (s *Store) ApplyPreset(ctx context.Context, name string) (models.WeightSet, error) {
	w, err := Preset(name)
	if err != nil {
		return s.Weights(), err
	}
	return s.Save(ctx, models.Full(w))
}

// Reset removes the persisted override and reverts to the defaults.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Remove(ctx, StorageKey); err != nil {
		return fmt.Errorf("reset weights: %w", err)
	}
	s.setActive(Defaults(), false)
	s.log.Info().Msg("Reset weights to defaults")
	return nil
}

func (s *Store) setActive(w models.WeightSet, custom bool) {
	s.mu.Lock()
	s.active = w
	s.custom = custom
	s.mu.Unlock()
}
