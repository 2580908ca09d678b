package models

import "strconv"

// NoGroupID is the browser's group id for tabs outside any tab group.
const NoGroupID int64 = -1

// UngroupedKey keys the bucket of tabs outside any tab group.
const UngroupedKey = "ungrouped"

// DefaultGroupColor is used when a group reports no color.
const DefaultGroupColor = "grey"

// TabGroupInfo is the browser's metadata for one tab group.
type TabGroupInfo struct {
	Title     string `json:"title"`
	Color     string `json:"color"`
	ID        int64  `json:"id"`
	Collapsed bool   `json:"collapsed"`
}

// InGroup reports whether id names a real tab group. The browser uses -1 for
// ungrouped tabs; snapshots without the field decode as 0.
func InGroup(id int64) bool {
	return id > 0
}

// GroupKey returns the bucket key for a tab group id.
func GroupKey(id int64) string {
	if !InGroup(id) {
		return UngroupedKey
	}
	return strconv.FormatInt(id, 10)
}

// TabGroup aggregates scored tabs sharing a browser tab group.
type TabGroup struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Color        string      `json:"color"`
	Tabs         []ScoredTab `json:"tabs"`
	TotalAnxiety int         `json:"totalAnxiety"`
	AvgAnxiety   int         `json:"avgAnxiety"`
}
