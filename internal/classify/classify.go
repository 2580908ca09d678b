// Package classify assigns browser tabs to categories using the active rule set.
package classify

import (
	"net/url"
	"strings"

	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/internal/rules"
	"github.com/thebtf/tabtriage/pkg/models"
)

// RuleSource supplies rules in evaluation order and resolves rule ids.
type RuleSource interface {
	Ordered() []*rules.Rule
	Rule(id string) (models.CategoryRule, bool)
}

// Classifier maps tabs to category ids.
type Classifier struct {
	rules RuleSource
}

// New creates a classifier over source. A *rules.Store satisfies RuleSource.
func New(source RuleSource) *Classifier {
	return &Classifier{rules: source}
}

// Classify returns the id of the first rule matching tab, or "other" when no
// rule matches or the URL is internal or unparsable. URLs without a host, such
// as file: or about: pages, are still matched by keyword and pattern.
func (c *Classifier) Classify(tab models.TabRecord) string {
	target, ok := newTarget(tab)
	if !ok {
		return models.OtherCategory
	}
	for _, r := range c.rules.Ordered() {
		if r.Matches(target) {
			return r.ID
		}
	}
	return models.OtherCategory
}

// newTarget parses the tab URL into the normalized form rules match against.
// Keywords and patterns see the re-serialized URL with a lowercased scheme and host.
func newTarget(tab models.TabRecord) (rules.Target, bool) {
	if tab.URL == "" || models.IsInternal(tab.URL) {
		return rules.Target{}, false
	}
	u, err := url.Parse(tab.URL)
	if err != nil || u.Scheme == "" {
		return rules.Target{}, false
	}
	u.Host = strings.ToLower(u.Host)
	href := u.String()
	return rules.Target{
		Hostname: strings.ToLower(u.Hostname()),
		Title:    strings.ToLower(tab.Title),
		URL:      href,
		URLLower: strings.ToLower(href),
	}, true
}

// CategoryName returns the display name for a category id. Built-in categories
// are translated by l; custom rules use their own name. Unknown ids resolve to
// the catch-all name.
func (c *Classifier) CategoryName(id string, l i18n.Localizer) string {
	rule, ok := c.rules.Rule(id)
	if !ok {
		return i18n.Translate(l, i18n.CategoryKey(models.OtherCategory), "Other")
	}
	if rule.IsCustom {
		return rule.Name
	}
	return i18n.Translate(l, i18n.CategoryKey(rule.ID), rule.Name)
}
