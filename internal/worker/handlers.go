package worker

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/tabtriage/internal/rules"
	"github.com/thebtf/tabtriage/internal/triage"
	"github.com/thebtf/tabtriage/internal/weights"
	"github.com/thebtf/tabtriage/internal/worker/sse"
	"github.com/thebtf/tabtriage/pkg/models"
)

// writeJSON writes a JSON response with proper error handling.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// decodeJSON decodes the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rules.ErrInvalidPattern),
		errors.Is(err, rules.ErrInvalidRule),
		errors.Is(err, rules.ErrReservedID),
		errors.Is(err, triage.ErrInvalidSessionName),
		errors.Is(err, triage.ErrInvalidTabID),
		errors.Is(err, triage.ErrInvalidTab):
		status = http.StatusBadRequest
	case errors.Is(err, rules.ErrDuplicateID):
		status = http.StatusConflict
	case errors.Is(err, rules.ErrNotCustom):
		status = http.StatusForbidden
	case errors.Is(err, rules.ErrRuleNotFound),
		errors.Is(err, triage.ErrSessionNotFound),
		errors.Is(err, weights.ErrUnknownPreset):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("Request failed")
	}
	http.Error(w, err.Error(), status)
}

// handleHealth reports liveness. It answers before initialization completes.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "starting"
	if s.ready.Load() {
		status = "ready"
	} else if err := s.GetInitError(); err != nil {
		status = "error"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      status,
		"version":     s.version,
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"backend":     s.config.Backend,
		"clients":     s.events.ClientCount(),
		"maintenance": s.maintenance.Stats(),
	})
}

// TabsRequest is the request body for the tab triage endpoints.
// Groups carries the browser's tab-group metadata when the caller has it.
type TabsRequest struct {
	States models.TabStates      `json:"states,omitempty"`
	Tabs   []models.TabRecord    `json:"tabs"`
	Groups []models.TabGroupInfo `json:"groups,omitempty"`
}

// EnrichResponse is the response body for tab enrichment.
type EnrichResponse struct {
	Tabs  []models.ScoredTab `json:"tabs"`
	Stats triage.Stats       `json:"stats"`
}

func (s *Service) enrichRequest(w http.ResponseWriter, r *http.Request) ([]models.ScoredTab, bool) {
	var req TabsRequest
	if !decodeJSON(w, r, &req) {
		return nil, false
	}
	return s.triage.EnrichWithGroups(r.Context(), req.Tabs, req.States, req.Groups), true
}

func (s *Service) handleEnrich(w http.ResponseWriter, r *http.Request) {
	tabs, ok := s.enrichRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, EnrichResponse{Tabs: tabs, Stats: triage.ComputeStats(tabs)})
}

func (s *Service) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	tabs, ok := s.enrichRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.triage.Suggestions(r.Context(), tabs))
}

// handleGroups groups enriched tabs by category, or by browser tab group
// with ?by=group.
func (s *Service) handleGroups(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by != "" && by != "category" && by != "group" {
		http.Error(w, "by must be category or group", http.StatusBadRequest)
		return
	}
	tabs, ok := s.enrichRequest(w, r)
	if !ok {
		return
	}
	if by == "group" {
		writeJSON(w, http.StatusOK, triage.GroupByTabGroup(tabs, s.triage.Localizer()))
		return
	}
	writeJSON(w, http.StatusOK, triage.GroupByCategory(tabs))
}

func tabIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid tab id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Service) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := tabIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.triage.SetCustomTitle(r.Context(), id, req.Title); err != nil {
		writeError(w, r, err)
		return
	}
	s.events.Broadcast(sse.Event{Type: sse.EventTitlesChanged, Data: map[string]any{"tabId": id}})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleClearTitle(w http.ResponseWriter, r *http.Request) {
	id, ok := tabIDParam(w, r)
	if !ok {
		return
	}
	if err := s.triage.ClearCustomTitle(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.events.Broadcast(sse.Event{Type: sse.EventTitlesChanged, Data: map[string]any{"tabId": id}})
	w.WriteHeader(http.StatusNoContent)
}

// WeightsResponse describes the active weight set.
type WeightsResponse struct {
	Presets []string         `json:"presets"`
	Weights models.WeightSet `json:"weights"`
	Custom  bool             `json:"custom"`
}

func (s *Service) weightsResponse() WeightsResponse {
	store := s.triage.Weights()
	return WeightsResponse{
		Weights: store.Weights(),
		Custom:  store.IsCustom(),
		Presets: weights.Presets(),
	}
}

func (s *Service) weightsChanged() {
	s.events.Broadcast(sse.Event{Type: sse.EventWeightsChanged, Data: s.triage.Weights().Weights()})
}

func (s *Service) handleGetWeights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.weightsResponse())
}

func (s *Service) handleSaveWeights(w http.ResponseWriter, r *http.Request) {
	var partial models.PartialWeights
	if !decodeJSON(w, r, &partial) {
		return
	}
	if _, err := s.triage.Weights().Save(r.Context(), partial); err != nil {
		writeError(w, r, err)
		return
	}
	s.weightsChanged()
	writeJSON(w, http.StatusOK, s.weightsResponse())
}

func (s *Service) handleResetWeights(w http.ResponseWriter, r *http.Request) {
	if err := s.triage.Weights().Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.weightsChanged()
	writeJSON(w, http.StatusOK, s.weightsResponse())
}

func (s *Service) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.triage.Weights().ApplyPreset(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeError(w, r, err)
		return
	}
	s.weightsChanged()
	writeJSON(w, http.StatusOK, s.weightsResponse())
}

// RulesResponse lists the active rules.
type RulesResponse struct {
	Rules  []models.CategoryRule `json:"rules"`
	Custom []models.CategoryRule `json:"custom"`
}

func (s *Service) rulesChanged() {
	s.events.Broadcast(sse.Event{Type: sse.EventRulesChanged, Data: map[string]int{
		"custom": len(s.triage.Rules().CustomRules()),
	}})
}

func (s *Service) handleGetRules(w http.ResponseWriter, r *http.Request) {
	store := s.triage.Rules()
	writeJSON(w, http.StatusOK, RulesResponse{Rules: store.All(), Custom: store.CustomRules()})
}

func (s *Service) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule models.CategoryRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	added, err := s.triage.Rules().AddCustomRule(r.Context(), rule)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.rulesChanged()
	writeJSON(w, http.StatusCreated, added)
}

func (s *Service) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var patch models.RulePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	updated, err := s.triage.Rules().UpdateCustomRule(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.rulesChanged()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Service) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.triage.Rules().DeleteCustomRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.rulesChanged()
	w.WriteHeader(http.StatusNoContent)
}

// SaveSessionRequest is the request body for archiving tabs.
type SaveSessionRequest struct {
	Name string             `json:"name"`
	Tabs []models.TabRecord `json:"tabs"`
}

func (s *Service) sessionsChanged() {
	s.events.Broadcast(sse.Event{Type: sse.EventSessionsChanged})
}

func (s *Service) handleGetSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.triage.Sessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Service) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	var req SaveSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.triage.SaveSession(r.Context(), req.Name, req.Tabs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.sessionsChanged()
	writeJSON(w, http.StatusCreated, session)
}

func (s *Service) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.triage.RenameSession(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.sessionsChanged()
	writeJSON(w, http.StatusOK, session)
}

func (s *Service) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.triage.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.sessionsChanged()
	w.WriteHeader(http.StatusNoContent)
}
