package rules

import "github.com/thebtf/tabtriage/pkg/models"

// searchQueryPattern matches a q-style query parameter.
const searchQueryPattern = `[?&]q=`

// defaultRules are evaluated in this order among equal priorities.
var defaultRules = []models.CategoryRule{
	{
		ID:       "shopping",
		Name:     "Shopping",
		Domains:  []string{"taobao", "tmall", "amazon", "jd", "jd.com", "ebay", "alibaba"},
		Keywords: []string{"cart", "product", "购物车", "商品", "订单", "checkout", "buy"},
	},
	{
		ID:       "social",
		Name:     "Social / Messaging",
		Domains:  []string{"twitter.com", "x.com", "wechat", "whatsapp", "reddit.com", "facebook.com", "instagram.com", "linkedin.com"},
		Keywords: []string{"chat", "message", "聊天", "消息"},
	},
	{
		ID:       "work",
		Name:     "Work",
		Domains:  []string{"github.com", "gitlab.com", "jira", "confluence", "notion.so", "slack.com", "trello.com", "asana.com"},
		Keywords: []string{"issue", "task", "project", "work", "工作"},
	},
	{
		ID:       "learning",
		Name:     "Learning",
		Domains:  []string{"docs.", "stackoverflow.com", "developer.mozilla.org", "mdn", "w3schools", "leetcode", "coursera", "udemy"},
		Keywords: []string{"tutorial", "guide", "documentation", "教程", "文档"},
	},
	{
		ID:       "video",
		Name:     "Video",
		Domains:  []string{"youtube.com", "bilibili.com", "vimeo.com", "netflix.com", "twitch.tv"},
		Keywords: []string{"video", "watch", "play", "视频", "播放"},
	},
	{
		ID:         "search",
		Name:       "Search",
		Domains:    []string{"google.com", "bing.com", "baidu.com", "duckduckgo.com"},
		Keywords:   []string{},
		URLPattern: searchQueryPattern,
	},
	{
		ID:       "reading",
		Name:     "Reading",
		Domains:  []string{"medium.com", "zhihu.com", "blog", "substack.com", "dev.to"},
		Keywords: []string{"article", "post", "read", "文章", "博客"},
	},
	{
		ID:       models.OtherCategory,
		Name:     "Other",
		Domains:  []string{},
		Keywords: []string{},
	},
}

// DefaultRules returns a copy of the built-in categories in evaluation order.
func DefaultRules() []models.CategoryRule {
	out := make([]models.CategoryRule, len(defaultRules))
	for i, r := range defaultRules {
		out[i] = r.Clone()
	}
	return out
}

// IsDefaultID reports whether id belongs to a built-in category.
func IsDefaultID(id string) bool {
	for _, r := range defaultRules {
		if r.ID == id {
			return true
		}
	}
	return false
}
