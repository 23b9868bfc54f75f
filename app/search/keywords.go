package search

import "strings"

// defaultKeywords are the English search terms used when no region is
// configured or the region's language has no dedicated list.
var defaultKeywords = []string{
	"AI", "generative AI", "agentic AI", "digital transformation", "automation", "case study",
}

// keywordsByLanguage maps a region's language code to localized search
// keywords. Regions are "country-language" (e.g. "jp-jp", "us-en").
var keywordsByLanguage = map[string][]string{
	"jp": {"AI", "生成AI", "AIエージェント", "DX", "デジタル", "自動化", "事例"},
	"zh": {"AI", "生成式AI", "智能代理", "人工智能", "数字化转型", "自动化", "案例"},
	"ko": {"AI", "생성형 AI", "에이전틱 AI", "인공지능", "디지털 전환", "자동화", "사례"},
	"es": {"AI", "IA generativa", "IA agéntica", "inteligencia artificial", "transformación digital", "automatización", "caso de estudio"},
	"pt": {"AI", "IA generativa", "IA agêntica", "inteligência artificial", "transformação digital", "automação", "estudo de caso"},
	"fr": {"AI", "IA générative", "IA agentique", "intelligence artificielle", "transformation numérique", "automatisation", "étude de cas"},
	"de": {"AI", "generative KI", "agentische KI", "künstliche Intelligenz", "digitale Transformation", "Automatisierung", "Fallstudie"},
	"it": {"AI", "IA generativa", "IA agentica", "intelligenza artificiale", "trasformazione digitale", "automazione", "caso di studio"},
	"id": {"AI", "AI generatif", "AI agentik", "kecerdasan buatan", "transformasi digital", "otomasi", "studi kasus"},
	"th": {"AI", "AI สร้างสรรค์", "AI แบบเอเจนต์", "ปัญญาประดิษฐ์", "การเปลี่ยนแปลงดิจิทัล", "ระบบอัตโนมัติ", "กรณีศึกษา"},
	"vi": {"AI", "AI sinh tạo", "AI tác nhân", "trí tuệ nhân tạo", "chuyển đổi số", "tự động hóa", "nghiên cứu điển hình"},
}

// EnglishKeywords returns the English search terms, used for the secondary
// query against a company's English name regardless of its home region.
func EnglishKeywords() []string {
	return defaultKeywords
}

// RegionKeywords returns search keywords appropriate for a region code, or
// the English defaults when the region is empty or unknown.
func RegionKeywords(region string) []string {
	if region == "" {
		return defaultKeywords
	}

	lang := region
	if idx := strings.Index(region, "-"); idx >= 0 {
		lang = region[idx+1:]
	}

	if keywords, ok := keywordsByLanguage[lang]; ok {
		return keywords
	}
	return defaultKeywords
}
