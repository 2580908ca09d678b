package scoring

import (
	"net/url"
	"strings"

	"github.com/thebtf/tabtriage/pkg/models"
)

// searchParams are the query parameters whose presence marks a search results page.
var searchParams = []string{"q", "query", "search"}

// ExtractDomain returns the lowercased hostname of rawURL.
// Returns "" for empty, internal-scheme, unparsable or host-less URLs.
func ExtractDomain(rawURL string) string {
	if rawURL == "" || models.IsInternal(rawURL) {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsSearchPage reports whether rawURL carries any of the q, query or search
// parameters. Only presence is checked, not value. Unparsable URLs return false.
func IsSearchPage(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return false
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil && len(q) == 0 {
		return false
	}
	for _, p := range searchParams {
		if _, ok := q[p]; ok {
			return true
		}
	}
	return false
}
