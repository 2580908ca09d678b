package models

// Factor names one of the five scoring contributions.
type Factor string

const (
	FactorOpenDuration    Factor = "openDuration"
	FactorDuplicateDomain Factor = "duplicateDomain"
	FactorInactiveTime    Factor = "inactiveTime"
	FactorIsSearchPage    Factor = "isSearchPage"
	FactorUnreadArticle   Factor = "unreadArticle"
)

// Factors lists every factor in scoring order.
var Factors = []Factor{
	FactorOpenDuration,
	FactorDuplicateDomain,
	FactorInactiveTime,
	FactorIsSearchPage,
	FactorUnreadArticle,
}

// WeightSet holds one multiplier per factor. Weights are not required to sum to 1.
type WeightSet struct {
	OpenDuration    float64 `json:"openDuration" yaml:"openDuration"`
	DuplicateDomain float64 `json:"duplicateDomain" yaml:"duplicateDomain"`
	InactiveTime    float64 `json:"inactiveTime" yaml:"inactiveTime"`
	IsSearchPage    float64 `json:"isSearchPage" yaml:"isSearchPage"`
	UnreadArticle   float64 `json:"unreadArticle" yaml:"unreadArticle"`
}

// DefaultWeightSet returns the built-in weights.
func DefaultWeightSet() WeightSet {
	return WeightSet{
		OpenDuration:    0.30,
		DuplicateDomain: 0.25,
		InactiveTime:    0.20,
		IsSearchPage:    0.15,
		UnreadArticle:   0.10,
	}
}

// Get returns the weight for a factor, 0 for unknown factors.
func (w WeightSet) Get(f Factor) float64 {
	switch f {
	case FactorOpenDuration:
		return w.OpenDuration
	case FactorDuplicateDomain:
		return w.DuplicateDomain
	case FactorInactiveTime:
		return w.InactiveTime
	case FactorIsSearchPage:
		return w.IsSearchPage
	case FactorUnreadArticle:
		return w.UnreadArticle
	}
	return 0
}

// Clamp returns a copy with every weight limited to [0,1].
func (w WeightSet) Clamp() WeightSet {
	return WeightSet{
		OpenDuration:    clampUnit(w.OpenDuration),
		DuplicateDomain: clampUnit(w.DuplicateDomain),
		InactiveTime:    clampUnit(w.InactiveTime),
		IsSearchPage:    clampUnit(w.IsSearchPage),
		UnreadArticle:   clampUnit(w.UnreadArticle),
	}
}

// Total returns the sum of all weights.
func (w WeightSet) Total() float64 {
	return w.OpenDuration + w.DuplicateDomain + w.InactiveTime + w.IsSearchPage + w.UnreadArticle
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PartialWeights is a user override. Nil fields keep the base value.
type PartialWeights struct {
	OpenDuration    *float64 `json:"openDuration,omitempty" yaml:"openDuration,omitempty"`
	DuplicateDomain *float64 `json:"duplicateDomain,omitempty" yaml:"duplicateDomain,omitempty"`
	InactiveTime    *float64 `json:"inactiveTime,omitempty" yaml:"inactiveTime,omitempty"`
	IsSearchPage    *float64 `json:"isSearchPage,omitempty" yaml:"isSearchPage,omitempty"`
	UnreadArticle   *float64 `json:"unreadArticle,omitempty" yaml:"unreadArticle,omitempty"`
}

// Full converts a complete WeightSet into a PartialWeights with every field set.
func Full(w WeightSet) PartialWeights {
	return PartialWeights{
		OpenDuration:    &w.OpenDuration,
		DuplicateDomain: &w.DuplicateDomain,
		InactiveTime:    &w.InactiveTime,
		IsSearchPage:    &w.IsSearchPage,
		UnreadArticle:   &w.UnreadArticle,
	}
}

// Set assigns one factor. Unknown factors are ignored.
func (p *PartialWeights) Set(f Factor, v float64) {
	switch f {
	case FactorOpenDuration:
		p.OpenDuration = &v
	case FactorDuplicateDomain:
		p.DuplicateDomain = &v
	case FactorInactiveTime:
		p.InactiveTime = &v
	case FactorIsSearchPage:
		p.IsSearchPage = &v
	case FactorUnreadArticle:
		p.UnreadArticle = &v
	}
}

// Merge overlays the set fields of p onto base.
func (w WeightSet) Merge(p PartialWeights) WeightSet {
	out := w
	if p.OpenDuration != nil {
		out.OpenDuration = *p.OpenDuration
	}
	if p.DuplicateDomain != nil {
		out.DuplicateDomain = *p.DuplicateDomain
	}
	if p.InactiveTime != nil {
		out.InactiveTime = *p.InactiveTime
	}
	if p.IsSearchPage != nil {
		out.IsSearchPage = *p.IsSearchPage
	}
	if p.UnreadArticle != nil {
		out.UnreadArticle = *p.UnreadArticle
	}
	return out
}
