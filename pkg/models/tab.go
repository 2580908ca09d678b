// Package models contains domain models for tabtriage.
package models

import "strings"

// Internal browser schemes never carry a domain.
const (
	ChromeScheme    = "chrome://"
	ExtensionScheme = "chrome-extension://"
)

// MutedInfo mirrors the browser's mute state for a tab.
type MutedInfo struct {
	Muted bool `json:"muted"`
}

// TabRecord is a tab as reported by the browser. It is read-only to the core.
type TabRecord struct {
	MutedInfo         *MutedInfo `json:"mutedInfo,omitempty"`
	URL               string     `json:"url,omitempty"`
	Title             string     `json:"title,omitempty"`
	FavIconURL        string     `json:"favIconUrl,omitempty"`
	ID                int64      `json:"id"`
	LastAccessedEpoch int64      `json:"lastAccessed,omitempty"` // Unix millis, 0 when unknown
	GroupID           int64      `json:"groupId,omitempty"`      // NoGroupID or 0 when ungrouped
	Active            bool       `json:"active"`
	Pinned            bool       `json:"pinned"`
	Audible           bool       `json:"audible"`
}

// IsInternal reports whether the tab URL uses a browser-internal scheme.
func IsInternal(url string) bool {
	return strings.HasPrefix(url, ChromeScheme) || strings.HasPrefix(url, ExtensionScheme)
}

// TabState carries UI-side hints reported by the content script.
type TabState struct {
	// ScrollTop is nil when the content script never reported a scroll offset.
	ScrollTop *float64 `json:"scrollTop,omitempty"`
}

// TabStates maps tab id to its reported state.
type TabStates map[int64]TabState

// ScoredTab is a TabRecord enriched by one scoring pass.
type ScoredTab struct {
	TabRecord
	GroupInfo     *TabGroupInfo `json:"groupInfo,omitempty"`
	AnxietyLevel  AnxietyLevel  `json:"anxietyLevel"`
	Category      string        `json:"category"`
	CategoryName  string        `json:"categoryName"`
	Domain        string        `json:"domain,omitempty"`
	OriginalTitle string        `json:"originalTitle,omitempty"`
	CustomTitle   string        `json:"customTitle,omitempty"`
	AnxietyScore  int           `json:"anxietyScore"`
}
