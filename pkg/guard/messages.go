package guard

import (
	"github.com/goliatone/go-formguard/pkg/render"
)

// MessageKey is the catalog key for the rejection alert.
const MessageKey = "guard.invalid_domain"

// DefaultLocale is the locale the alert is written in when nothing else is
// configured.
const DefaultLocale = "zh-CN"

// DefaultMessage reads "Please enter a valid domain format, e.g.: example.com".
const DefaultMessage = "请输入有效的域名格式，例如：example.com"

// Messages is the built-in catalog for the guard and the pages around it.
// Callers can layer their own catalog on top with Catalog.Merge.
var Messages = render.Catalog{
	Fallback: DefaultLocale,
	Messages: map[string]map[string]string{
		"zh-CN": {
			MessageKey:           DefaultMessage,
			"page.title":         "域名估价系统",
			"form.label":         "域名",
			"form.placeholder":   "example.com",
			"form.submit":        "估价",
			"result.title":       "估价结果",
			"result.price":       "保守估价",
			"result.grade":       "品相等级",
			"result.base":        "基础属性",
			"result.other":       "其他属性",
			"history.title":      "查询历史",
			"history.filter":     "筛选",
			"history.empty":      "暂无记录",
			"error.title":        "出错了",
			"error.domain_blank": "请输入有效的域名",
			"error.estimate":     "估价失败",
			"error.history":      "获取历史记录失败",
			"nav.home":           "首页",
			"nav.history":        "历史",
		},
		"en": {
			MessageKey:           "Please enter a valid domain, for example: example.com",
			"page.title":         "Domain Estimator",
			"form.label":         "Domain",
			"form.placeholder":   "example.com",
			"form.submit":        "Estimate",
			"result.title":       "Estimation result",
			"result.price":       "Conservative price",
			"result.grade":       "Grade",
			"result.base":        "Base attributes",
			"result.other":       "Other attributes",
			"history.title":      "History",
			"history.filter":     "Filter",
			"history.empty":      "No records yet",
			"error.title":        "Something went wrong",
			"error.domain_blank": "Please enter a domain",
			"error.estimate":     "Estimation failed",
			"error.history":      "Could not load history",
			"nav.home":           "Home",
			"nav.history":        "History",
		},
	},
}

// Message resolves the alert text for locale through t, falling back to
// DefaultMessage.
func Message(locale string, t render.Translator) string {
	if t == nil {
		t = Messages
	}
	return render.Translate(locale, MessageKey, DefaultMessage, t, nil)
}
