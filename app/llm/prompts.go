package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Controlled vocabulary for classification. Values outside these lists are
// replaced with OtherSentinel before an article is persisted.
var (
	Categories = []string{
		"Customer Service",
		"Operations",
		"Product & Services",
		"Marketing & Sales",
		"Risk & Compliance",
		"Research & Development",
		"Internal Productivity",
		OtherSentinel,
	}

	BusinessAreas = []string{
		"Retail Banking",
		"Corporate Banking",
		"Markets & Trading",
		"Asset Management",
		"Insurance",
		"Payments",
		"Shared Services",
		OtherSentinel,
	}
)

// OtherSentinel is the catch-all value substituted for out-of-vocabulary
// categories and business areas.
const OtherSentinel = "Other"

const (
	relevanceSystem = "You judge whether text describes a company's use of AI, " +
		"generative AI, or automation. Respond with JSON only, no prose."

	relevanceTemperature = 0.1

	classifierSystem = "You classify news articles about corporate AI and automation " +
		"initiatives. Respond with JSON only, no prose."

	classifierTemperature = 0.2

	summarizerSystem = "You summarize news articles about corporate AI and automation " +
		"initiatives. Respond with JSON only, no prose."

	summarizerTemperature = 0.3

	dateSystem = "You extract published dates from article text."

	linkSelectSystem = "You extract press release list items. Return only JSON array, no prose."
)

func buildRelevanceTextPrompt(title, snippet string) string {
	return fmt.Sprintf(`Does the following search result describe a company's AI, generative AI, or automation initiative?
Return JSON only: {"ai_related": true} or {"ai_related": false}.

Title: %s
Snippet: %s`, title, snippet)
}

func buildRelevanceContentPrompt(title, contentPreview string) string {
	return fmt.Sprintf(`Does the following article describe a company's AI, generative AI, or automation initiative?
Judge strictly from the body text. Return JSON only: {"ai_related": true, "reason": "..."} or {"ai_related": false, "reason": "..."}.

Title: %s
Body:
%s`, title, contentPreview)
}

func buildClassifierPrompt(text, companyName string) string {
	return fmt.Sprintf(`Classify the following article about %s.
Return JSON only:
{"is_inappropriate": bool, "category": "...", "business_area": "...", "tags": ["..."]}

"is_inappropriate" is true when the article is unrelated to the company's business or its content cannot be determined.
"category" must be one of: %s.
"business_area" must be one of: %s.

Article:
%s`, companyName, strings.Join(Categories, ", "), strings.Join(BusinessAreas, ", "), text)
}

func buildSummarizerPrompt(title, content, companyName string) string {
	return fmt.Sprintf(`Summarize the following article about %s.
Return JSON only:
{"summary": "...", "key_points": ["..."], "outcomes": "...", "technology": "..."}

Title: %s
Body:
%s`, companyName, title, content)
}

func buildDatePrompt(payload map[string]string) string {
	encoded, _ := json.Marshal(payload)
	return fmt.Sprintf("Return JSON only: {\"date\": \"YYYY-MM-DD\"} or {\"date\": null}.\nArticle: %s", encoded)
}

// BuildLinkSelectPrompt asks the model to pick press release entries out of
// raw anchor candidates. Exported for the crawler's LLM fallback tier.
func BuildLinkSelectPrompt(baseURL string, candidates []LinkCandidate) string {
	encoded, _ := json.Marshal(candidates)
	return fmt.Sprintf(`From the candidates, select likely press release list entries.
Return a JSON array of objects with 'title' and 'url'.
Base URL: %s
Candidates:
%s`, baseURL, encoded)
}

// LinkCandidate is one anchor offered to the link-selection prompt.
type LinkCandidate struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// LinkSelectSystem is the system prompt paired with BuildLinkSelectPrompt.
const LinkSelectSystem = linkSelectSystem
