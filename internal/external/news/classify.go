package news

import (
	"strings"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

// ⭐ SSOT: 뉴스 분류 키워드 (앞의 규칙이 우선)
var categoryRules = []struct {
	category string
	keywords []string
}{
	{contracts.CategoryMacroPolicy, []string{"降息", "降准", "加息", "通胀", "gdp", "经济", "政策", "央行", "财政部", "证监会", "货币"}},
	{contracts.CategoryInternational, []string{"美股", "港股", "美联储", "欧洲", "日本", "韩国", "关税", "贸易", "特朗普", "拜登"}},
	{contracts.CategoryCompany, []string{"涨停", "跌停", "并购", "重组", "上市", "ipo", "财报", "业绩", "分红", "a股", "股市", "大盘", "指数"}},
	{contracts.CategoryIndustry, []string{"新能源", "半导体", "医药", "银行", "地产", "汽车", "科技", "ai", "人工智能", "芯片", "光伏"}},
}

var highImportanceKeywords = []string{
	"央行", "降息", "降准", "加息", "关税", "重大", "涨停", "跌停",
	"突发", "重磅", "利好", "利空", "政策", "监管", "证监会", "美股",
	"崩盘", "暴涨", "大跌", "突破", "历史",
}

// marketKeywords marks a scraped headline as market related
var marketKeywords = []string{
	"股", "板块", "涨停", "跌停", "指数", "期货", "宏观", "政策", "财报", "业绩", "A股", "美股", "港股",
}

// Classify assigns one of the five news categories
func Classify(title, content string) string {
	text := strings.ToLower(title + content)
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			return rule.category
		}
	}
	return contracts.CategoryOther
}

// Importance returns 高 for headlines carrying a high-impact keyword, else 中
func Importance(title, content string) string {
	if containsAny(strings.ToLower(title+content), highImportanceKeywords) {
		return contracts.ImportanceHigh
	}
	return contracts.ImportanceMedium
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
