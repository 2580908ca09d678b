package models

// SessionTab is the archived subset of a tab.
type SessionTab struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	FavIconURL string `json:"favIconUrl,omitempty"`
}

// Session is a named archive of tabs.
type Session struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Tabs      []SessionTab `json:"tabs"`
	Timestamp int64        `json:"timestamp"` // Unix millis
}
