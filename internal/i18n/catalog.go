// Package i18n provides display-label lookup for levels, categories and
// suggestion buckets. Labels never influence scoring or classification.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Localizer translates a message key, substituting {name} placeholders from params.
type Localizer interface {
	Translate(key string, params map[string]any) string
}

// Message keys.
const (
	KeyAnxietyHigh   = "anxietyHigh"
	KeyAnxietyMedium = "anxietyMedium"
	KeyAnxietyLow    = "anxietyLow"

	KeySuggestionClose   = "suggestionClose"
	KeySuggestionArchive = "suggestionArchive"
	KeySuggestionSuspend = "suggestionSuspend"
	KeySuggestionKeep    = "suggestionKeep"

	KeySessionDefaultName = "sessionDefaultName"
	KeyNoTitle            = "noTitle"
	KeyNoGroup            = "noGroup"
	KeyGroupName          = "groupName"
)

// CategoryKey returns the message key for a category id, e.g. "shopping" -> "categoryShopping".
func CategoryKey(id string) string {
	if id == "" {
		return "categoryOther"
	}
	return "category" + strings.ToUpper(id[:1]) + id[1:]
}

var (
	english = language.English
	chinese = language.MustParse("zh-CN")

	supported = []language.Tag{english, chinese}
	matcher   = language.NewMatcher(supported)
)

var messages = map[language.Tag]map[string]string{
	english: {
		KeyAnxietyHigh:        "High anxiety",
		KeyAnxietyMedium:      "Medium anxiety",
		KeyAnxietyLow:         "Low anxiety",
		"categoryShopping":    "Shopping",
		"categorySocial":      "Social / Messaging",
		"categoryWork":        "Work",
		"categoryLearning":    "Learning",
		"categoryVideo":       "Video",
		"categorySearch":      "Search",
		"categoryReading":     "Reading",
		"categoryOther":       "Other",
		KeySuggestionClose:    "Safe to close",
		KeySuggestionArchive:  "Archive for later",
		KeySuggestionSuspend:  "Suspend",
		KeySuggestionKeep:     "Keep open",
		KeySessionDefaultName: "Session {date}",
		KeyNoTitle:            "No Title",
		KeyNoGroup:            "Ungrouped",
		KeyGroupName:          "Group {id}",
	},
	chinese: {
		KeyAnxietyHigh:        "高焦虑",
		KeyAnxietyMedium:      "中焦虑",
		KeyAnxietyLow:         "低焦虑",
		"categoryShopping":    "购物",
		"categorySocial":      "社交/消息",
		"categoryWork":        "工作",
		"categoryLearning":    "学习",
		"categoryVideo":       "视频娱乐",
		"categorySearch":      "搜索",
		"categoryReading":     "文章阅读",
		"categoryOther":       "其他",
		KeySuggestionClose:    "明显可关闭",
		KeySuggestionArchive:  "可收藏归档",
		KeySuggestionSuspend:  "建议暂存",
		KeySuggestionKeep:     "保持打开",
		KeySessionDefaultName: "会话 {date}",
		KeyNoTitle:            "无标题",
		KeyNoGroup:            "未分组",
		KeyGroupName:          "分组 {id}",
	},
}

var builtin = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(english))
	for tag, entries := range messages {
		for key, msg := range entries {
			// Messages are plain text; escape % so the printer does not treat them as verbs.
			if err := b.SetString(tag, key, strings.ReplaceAll(msg, "%", "%%")); err != nil {
				panic(fmt.Sprintf("i18n: register %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// Catalog is a Localizer backed by the built-in message catalog.
type Catalog struct {
	printer *message.Printer
	tag     language.Tag
}

// New returns a Catalog for the best supported match of locale (e.g. "zh-CN", "en-US").
// Unknown locales fall back to English.
func New(locale string) *Catalog {
	tag := english
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			_, idx, _ := matcher.Match(parsed)
			tag = supported[idx]
		}
	}
	return &Catalog{
		printer: message.NewPrinter(tag, message.Catalog(builtin)),
		tag:     tag,
	}
}

// Locale returns the resolved language tag.
func (c *Catalog) Locale() string {
	return c.tag.String()
}

// Translate returns the message for key. Unknown keys are returned unchanged.
func (c *Catalog) Translate(key string, params map[string]any) string {
	msg := c.printer.Sprintf(key)
	for name, v := range params {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(v))
	}
	return msg
}

// Translate is a nil-safe helper: it uses l when present, otherwise fallback.
func Translate(l Localizer, key, fallback string) string {
	if l == nil {
		return fallback
	}
	return l.Translate(key, nil)
}
