package models

// LevelName is one of the three anxiety tiers.
type LevelName string

const (
	LevelHigh   LevelName = "high"
	LevelMedium LevelName = "medium"
	LevelLow    LevelName = "low"
)

// Fixed tier thresholds and colors.
const (
	HighThreshold   = 70
	MediumThreshold = 40

	HighColor   = "#ff4444"
	MediumColor = "#ffaa00"
	LowColor    = "#44aa44"
)

// AnxietyLevel is the display tier derived from a score.
type AnxietyLevel struct {
	Level LevelName `json:"level"`
	Label string    `json:"label"`
	Color string    `json:"color"`
}
