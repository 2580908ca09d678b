package triage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/thebtf/tabtriage/pkg/models"
)

// MaxSessionNameLength is the maximum session name length in characters.
const MaxSessionNameLength = 100

var (
	// ErrInvalidSessionName means a session name is empty, too long or unsafe.
	ErrInvalidSessionName = errors.New("invalid session name")
	// ErrSessionNotFound means no archived session has the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTabID means a tab id is not a positive integer.
	ErrInvalidTabID = errors.New("invalid tab id")
	// ErrInvalidTab means a tab record failed validation.
	ErrInvalidTab = errors.New("invalid tab")
)

// unsafeNameChars are rejected in session names since they are rendered as HTML.
const unsafeNameChars = `<>"'&`

// ValidateSessionName checks a session name and returns it trimmed.
func ValidateSessionName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return "", fmt.Errorf("%w: name is empty", ErrInvalidSessionName)
	case utf8.RuneCountInString(trimmed) > MaxSessionNameLength:
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidSessionName, MaxSessionNameLength)
	case strings.ContainsAny(trimmed, unsafeNameChars):
		return "", fmt.Errorf("%w: contains one of %s", ErrInvalidSessionName, unsafeNameChars)
	}
	return trimmed, nil
}

// ValidateTab checks that a tab has a positive id, an http(s) URL and a title.
func ValidateTab(tab models.TabRecord) error {
	if tab.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTabID, tab.ID)
	}
	if !IsWebURL(tab.URL) {
		return fmt.Errorf("%w: url %q is not http(s)", ErrInvalidTab, tab.URL)
	}
	if strings.TrimSpace(tab.Title) == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidTab)
	}
	return nil
}

// IsWebURL reports whether raw parses as an absolute http or https URL.
func IsWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
