package contracts

// News categories
// ⭐ SSOT: 뉴스 분류 5종
const (
	CategoryMacroPolicy   = "宏观政策"
	CategoryIndustry      = "行业动态"
	CategoryInternational = "国际市场"
	CategoryCompany       = "公司重大事项"
	CategoryOther         = "其他"
)

// NewsCategories is the closed category set
var NewsCategories = []string{
	CategoryMacroPolicy,
	CategoryIndustry,
	CategoryInternational,
	CategoryCompany,
	CategoryOther,
}

// Importance levels
const (
	ImportanceHigh   = "高"
	ImportanceMedium = "中"
)

// IsNewsCategory reports whether c belongs to the closed category set
func IsNewsCategory(c string) bool {
	for _, cat := range NewsCategories {
		if cat == c {
			return true
		}
	}
	return false
}

// NewsItem is one headline
type NewsItem struct {
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Source     string `json:"source,omitempty"`
	Category   string `json:"category"`
	Importance string `json:"importance,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}
