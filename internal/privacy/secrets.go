// Package privacy strips credentials from URLs before they are archived.
package privacy

import (
	"net/url"
	"regexp"
	"strings"
)

// Redacted replaces a removed secret.
const Redacted = "REDACTED"

// sensitiveParams are query parameter names whose values are always redacted.
// Matching is case-insensitive and ignores "-" and "_".
var sensitiveParams = map[string]bool{
	"token":        true,
	"accesstoken":  true,
	"refreshtoken": true,
	"idtoken":      true,
	"authtoken":    true,
	"apikey":       true,
	"key":          true,
	"secret":       true,
	"clientsecret": true,
	"password":     true,
	"passwd":       true,
	"pwd":          true,
	"sig":          true,
	"signature":    true,
	"code":         true,
	"sessionid":    true,
	"sid":          true,
	"auth":         true,
}

// secretPatterns catch well-known credential formats anywhere in a value.
var secretPatterns = []*regexp.Regexp{
	// OpenAI and Anthropic API keys
	regexp.MustCompile(`sk-(ant-)?[a-zA-Z0-9-]{20,}`),

	// GitHub tokens
	regexp.MustCompile(`gh[pous]_[a-zA-Z0-9]{36,}`),
	regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{22,}`),

	// AWS access key ids
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// JWTs
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
}

// ContainsSecrets reports whether text contains a well-known credential format.
func ContainsSecrets(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range secretPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// RedactSecrets replaces credential-looking substrings of text.
func RedactSecrets(text string) string {
	if text == "" {
		return text
	}
	for _, pattern := range secretPatterns {
		text = pattern.ReplaceAllString(text, Redacted)
	}
	return text
}

func normalizeParam(name string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(name))
}

// RedactURL removes credentials from raw: the userinfo password, the values of
// sensitive query parameters, and credential formats in the remaining query
// and fragment. The host and path are kept so the URL still identifies the
// page. Unparseable input is returned with only RedactSecrets applied.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return RedactSecrets(raw)
	}

	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), Redacted)
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name, values := range q {
			sensitive := sensitiveParams[normalizeParam(name)]
			for i, v := range values {
				if sensitive {
					values[i] = Redacted
				} else {
					values[i] = RedactSecrets(v)
				}
			}
		}
		u.RawQuery = q.Encode()
	}

	if u.Fragment != "" {
		u.Fragment = RedactSecrets(u.Fragment)
		u.RawFragment = ""
	}

	u.Path = RedactSecrets(u.Path)
	u.RawPath = ""
	return u.String()
}
