package rules

import (
	"regexp"
	"strings"

	"github.com/thebtf/tabtriage/pkg/models"
)

// Rule is a CategoryRule with its compiled pattern and lowercased criteria.
// Rules are immutable once built.
type Rule struct {
	models.CategoryRule
	pattern  *regexp.Regexp
	domains  []string
	keywords []string
}

// compile validates r and builds its matcher.
func compile(r models.CategoryRule) (*Rule, error) {
	out := &Rule{CategoryRule: r}
	if r.URLPattern != "" {
		re, err := regexp.Compile(r.URLPattern)
		if err != nil {
			return nil, &ValidationError{Err: ErrInvalidPattern, Cause: err, Field: "urlPattern", Value: r.URLPattern}
		}
		out.pattern = re
	}
	out.domains = lowerAll(r.Domains)
	out.keywords = lowerAll(r.Keywords)
	return out, nil
}

// Target is the normalized view of a tab URL that rules match against.
type Target struct {
	Hostname string // lowercased
	Title    string // lowercased
	URL      string // full URL as given
	URLLower string
}

// Matches reports whether the hostname contains any domain, the title or URL
// contains any keyword, or the pattern matches the full URL.
func (r *Rule) Matches(t Target) bool {
	for _, d := range r.domains {
		if strings.Contains(t.Hostname, d) {
			return true
		}
	}
	for _, k := range r.keywords {
		if strings.Contains(t.Title, k) || strings.Contains(t.URLLower, k) {
			return true
		}
	}
	return r.pattern != nil && r.pattern.MatchString(t.URL)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}

// normalize trims the rule's strings and drops empty criteria, which would
// otherwise match every tab.
func normalize(r models.CategoryRule) models.CategoryRule {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.URLPattern = strings.TrimSpace(r.URLPattern)
	r.Domains = trimAll(r.Domains)
	r.Keywords = trimAll(r.Keywords)
	return r
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
