package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/thebtf/tabtriage/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bucketStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(models.HighColor))
)

// levelStyle colors text with the level's display color.
func levelStyle(level models.AnxietyLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(level.Color))
}

// truncate shortens s to at most n display cells.
func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
