package models

// OtherCategory is the reserved catch-all category id.
const OtherCategory = "other"

// CategoryRule describes how tabs are matched into a category.
// The "other" rule has no match criteria and is never evaluated.
type CategoryRule struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Domains    []string `json:"domains" yaml:"domains"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	URLPattern string   `json:"urlPattern,omitempty" yaml:"urlPattern,omitempty"`
	Priority   int      `json:"priority" yaml:"priority"`
	IsCustom   bool     `json:"isCustom" yaml:"isCustom"`
}

// Clone returns a deep copy of the rule.
func (r CategoryRule) Clone() CategoryRule {
	out := r
	out.Domains = cloneStrings(r.Domains)
	out.Keywords = cloneStrings(r.Keywords)
	return out
}

// cloneStrings copies in, keeping nil and empty distinct.
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

// RulePatch is a partial update for a custom rule. Nil fields are left unchanged.
type RulePatch struct {
	Name       *string   `json:"name,omitempty" yaml:"name,omitempty"`
	Domains    *[]string `json:"domains,omitempty" yaml:"domains,omitempty"`
	Keywords   *[]string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	URLPattern *string   `json:"urlPattern,omitempty" yaml:"urlPattern,omitempty"`
	Priority   *int      `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Apply returns a copy of r with the patch applied.
func (p RulePatch) Apply(r CategoryRule) CategoryRule {
	out := r.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Domains != nil {
		out.Domains = cloneStrings(*p.Domains)
	}
	if p.Keywords != nil {
		out.Keywords = cloneStrings(*p.Keywords)
	}
	if p.URLPattern != nil {
		out.URLPattern = *p.URLPattern
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	return out
}

// CategoryGroup aggregates scored tabs sharing a category.
type CategoryGroup struct {
	Name         string      `json:"name"`
	Tabs         []ScoredTab `json:"tabs"`
	TotalAnxiety int         `json:"totalAnxiety"`
	AvgAnxiety   int         `json:"avgAnxiety"`
}
