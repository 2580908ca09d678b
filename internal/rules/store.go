// Package rules holds the category rules used to classify tabs: the built-in
// categories plus user-defined custom rules.
package rules

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/thebtf/tabtriage/internal/kv"
	"github.com/thebtf/tabtriage/pkg/models"
)

// StorageKey is the kv key holding the custom rule list.
const StorageKey = "customCategoryRules"

// snapshot is an immutable view of the active rule set.
type snapshot struct {
	byID    map[string]*Rule
	rules   []*Rule // insertion order, "other" included
	ordered []*Rule // evaluation order, "other" excluded
	custom  []models.CategoryRule
}

// build assembles a snapshot from the defaults followed by custom.
// custom must already be validated.
func build(custom []models.CategoryRule) (*snapshot, error) {
	snap := &snapshot{byID: make(map[string]*Rule, len(defaultRules)+len(custom))}

	add := func(r models.CategoryRule) error {
		compiled, err := compile(r)
		if err != nil {
			return err
		}
		snap.rules = append(snap.rules, compiled)
		snap.byID[r.ID] = compiled
		return nil
	}

	for _, r := range defaultRules {
		if err := add(r.Clone()); err != nil {
			return nil, err
		}
	}
	for _, r := range custom {
		if err := add(r.Clone()); err != nil {
			return nil, err
		}
		snap.custom = append(snap.custom, r.Clone())
	}

	snap.ordered = make([]*Rule, 0, len(snap.rules))
	for _, r := range snap.rules {
		if r.ID != models.OtherCategory {
			snap.ordered = append(snap.ordered, r)
		}
	}
	// Stable: equal priorities keep insertion order.
	sort.SliceStable(snap.ordered, func(i, j int) bool {
		return snap.ordered[i].Priority > snap.ordered[j].Priority
	})
	return snap, nil
}

// Store holds the active rule set. Reads are lock-free against an immutable
// snapshot; mutations are serialized, persisted, then swapped in.
type Store struct {
	kv    kv.Store
	log   zerolog.Logger
	snap  atomic.Pointer[snapshot]
	group singleflight.Group
	mu    sync.Mutex // serializes writers
}

// NewStore creates a store holding only the built-in rules. Call Load to merge persisted custom rules.
func NewStore(store kv.Store, log zerolog.Logger) *Store {
	s := &Store{
		kv:  store,
		log: log.With().Str("component", "rules").Logger(),
	}
	snap, err := build(nil)
	if err != nil {
		panic(fmt.Sprintf("rules: built-in rules invalid: %v", err))
	}
	s.snap.Store(snap)
	return s
}

// Ordered returns the rules in evaluation order: priority descending, then
// insertion order. The catch-all rule is excluded.
func (s *Store) Ordered() []*Rule {
	return s.snap.Load().ordered
}

// All returns every active rule in insertion order, including the catch-all.
func (s *Store) All() []models.CategoryRule {
	snap := s.snap.Load()
	out := make([]models.CategoryRule, len(snap.rules))
	for i, r := range snap.rules {
		out[i] = r.CategoryRule.Clone()
	}
	return out
}

// CustomRules returns the user-defined rules in insertion order.
func (s *Store) CustomRules() []models.CategoryRule {
	snap := s.snap.Load()
	out := make([]models.CategoryRule, len(snap.custom))
	for i, r := range snap.custom {
		out[i] = r.Clone()
	}
	return out
}

// Rule returns the active rule with id.
func (s *Store) Rule(id string) (models.CategoryRule, bool) {
	r, ok := s.snap.Load().byID[id]
	if !ok {
		return models.CategoryRule{}, false
	}
	return r.CategoryRule.Clone(), true
}

// Has reports whether id is an active rule id.
func (s *Store) Has(id string) bool {
	_, ok := s.snap.Load().byID[id]
	return ok
}

// Load merges persisted custom rules into the active set. A persisted rule is
// added only when no active rule already owns its id, so repeated loads are
// idempotent. Persisted rules that fail validation are skipped with a warning.
func (s *Store) Load(ctx context.Context) error {
	_, err, _ := s.group.Do("load", func() (interface{}, error) {
		var persisted []models.CategoryRule
		found, err := kv.GetJSON(ctx, s.kv, StorageKey, &persisted)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to load custom rules, keeping current rules")
			return nil, fmt.Errorf("load rules: %w", err)
		}
		if !found {
			return nil, nil
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		cur := s.snap.Load()
		custom := append([]models.CategoryRule(nil), cur.custom...)
		taken := make(map[string]bool, len(cur.byID))
		for id := range cur.byID {
			taken[id] = true
		}

		added := 0
		for _, r := range persisted {
			r = normalize(r)
			if r.ID == "" || taken[r.ID] {
				continue
			}
			r.IsCustom = true
			if err := validate(r); err != nil {
				s.log.Warn().Err(err).Str("rule_id", r.ID).Msg("Skipping invalid persisted rule")
				continue
			}
			taken[r.ID] = true
			custom = append(custom, r)
			added++
		}
		if added == 0 {
			return nil, nil
		}

		next, err := build(custom)
		if err != nil {
			return nil, err
		}
		s.snap.Store(next)
		s.log.Debug().Int("added", added).Msg("Loaded custom rules")
		return nil, nil
	})
	return err
}

// AddCustomRule validates and appends a custom rule, generating an id when
// none is given. The rule is persisted before it becomes active.
func (s *Store) AddCustomRule(ctx context.Context, rule models.CategoryRule) (models.CategoryRule, error) {
	rule = normalize(rule)
	rule.IsCustom = true
	if rule.ID == "" {
		rule.ID = "custom-" + uuid.NewString()
	}
	if err := validate(rule); err != nil {
		return models.CategoryRule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	if _, exists := cur.byID[rule.ID]; exists {
		return models.CategoryRule{}, &ValidationError{Err: ErrDuplicateID, Field: "id", Value: rule.ID}
	}

	custom := append(append([]models.CategoryRule(nil), cur.custom...), rule)
	if err := s.commit(ctx, custom); err != nil {
		return models.CategoryRule{}, err
	}
	s.log.Info().Str("rule_id", rule.ID).Int("priority", rule.Priority).Msg("Added custom rule")
	return rule.Clone(), nil
}

// UpdateCustomRule merges patch onto the custom rule with id. The rule keeps
// its insertion position; its pattern is recompiled when patched.
func (s *Store) UpdateCustomRule(ctx context.Context, id string, patch models.RulePatch) (models.CategoryRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	pos, err := customIndex(cur, id)
	if err != nil {
		return models.CategoryRule{}, err
	}

	updated := normalize(patch.Apply(cur.custom[pos]))
	updated.ID = id
	updated.IsCustom = true
	if err := validate(updated); err != nil {
		return models.CategoryRule{}, err
	}

	custom := append([]models.CategoryRule(nil), cur.custom...)
	custom[pos] = updated
	if err := s.commit(ctx, custom); err != nil {
		return models.CategoryRule{}, err
	}
	s.log.Info().Str("rule_id", id).Msg("Updated custom rule")
	return updated.Clone(), nil
}

// DeleteCustomRule removes the custom rule with id from the custom list and the active set.
func (s *Store) DeleteCustomRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	pos, err := customIndex(cur, id)
	if err != nil {
		return err
	}

	custom := make([]models.CategoryRule, 0, len(cur.custom)-1)
	custom = append(custom, cur.custom[:pos]...)
	custom = append(custom, cur.custom[pos+1:]...)
	if err := s.commit(ctx, custom); err != nil {
		return err
	}
	s.log.Info().Str("rule_id", id).Msg("Deleted custom rule")
	return nil
}

// SaveCustomRules replaces the whole custom list. Every rule is validated
// first; nothing changes if any rule is rejected.
func (s *Store) SaveCustomRules(ctx context.Context, rules []models.CategoryRule) ([]models.CategoryRule, error) {
	custom := make([]models.CategoryRule, 0, len(rules))
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		r = normalize(r)
		r.IsCustom = true
		if r.ID == "" {
			r.ID = "custom-" + uuid.NewString()
		}
		if err := validate(r); err != nil {
			return nil, err
		}
		if seen[r.ID] || IsDefaultID(r.ID) {
			return nil, &ValidationError{Err: ErrDuplicateID, Field: "id", Value: r.ID}
		}
		seen[r.ID] = true
		custom = append(custom, r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, custom); err != nil {
		return nil, err
	}
	s.log.Info().Int("count", len(custom)).Msg("Saved custom rules")
	return s.CustomRules(), nil
}

// commit persists custom as one kv write, then swaps in the new snapshot.
// Callers hold s.mu.
func (s *Store) commit(ctx context.Context, custom []models.CategoryRule) error {
	next, err := build(custom)
	if err != nil {
		return err
	}
	if custom == nil {
		custom = []models.CategoryRule{}
	}
	if err := kv.SetJSON(ctx, s.kv, StorageKey, custom); err != nil {
		return fmt.Errorf("persist rules: %w", err)
	}
	s.snap.Store(next)
	return nil
}

func customIndex(snap *snapshot, id string) (int, error) {
	for i, r := range snap.custom {
		if r.ID == id {
			return i, nil
		}
	}
	if IsDefaultID(id) {
		return -1, fmt.Errorf("%w: %s", ErrNotCustom, id)
	}
	return -1, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// validate checks a normalized custom rule.
func validate(r models.CategoryRule) error {
	if r.ID == models.OtherCategory {
		return &ValidationError{Err: ErrReservedID, Field: "id", Value: r.ID}
	}
	if r.Name == "" {
		return &ValidationError{Err: ErrInvalidRule, Field: "name", Value: r.Name}
	}
	_, err := compile(r)
	return err
}
