package scoring

import (
	"github.com/thebtf/tabtriage/internal/i18n"
	"github.com/thebtf/tabtriage/pkg/models"
)

// Level maps a score to its fixed display tier. l may be nil, in which case
// English labels are used.
func Level(score int, l i18n.Localizer) models.AnxietyLevel {
	switch {
	case score >= models.HighThreshold:
		return models.AnxietyLevel{
			Level: models.LevelHigh,
			Label: i18n.Translate(l, i18n.KeyAnxietyHigh, "High anxiety"),
			Color: models.HighColor,
		}
	case score >= models.MediumThreshold:
		return models.AnxietyLevel{
			Level: models.LevelMedium,
			Label: i18n.Translate(l, i18n.KeyAnxietyMedium, "Medium anxiety"),
			Color: models.MediumColor,
		}
	default:
		return models.AnxietyLevel{
			Level: models.LevelLow,
			Label: i18n.Translate(l, i18n.KeyAnxietyLow, "Low anxiety"),
			Color: models.LowColor,
		}
	}
}
