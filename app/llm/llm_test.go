package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeGateway scripts gateway behavior for extractor tests.
type fakeGateway struct {
	available bool
	response  string
	err       error
	calls     int
}

func (f *fakeGateway) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeGateway) Available(ctx context.Context) bool {
	return f.available
}

func TestRelevanceClassifier_Tristate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		gateway  *fakeGateway
		expected Verdict
	}{
		{"relevant", &fakeGateway{available: true, response: `{"ai_related": true}`}, VerdictRelevant},
		{"not relevant", &fakeGateway{available: true, response: `Answer: {"ai_related": false}`}, VerdictNotRelevant},
		{"service unavailable", &fakeGateway{available: false}, VerdictUnknown},
		{"generate error", &fakeGateway{available: true, err: errors.New("boom")}, VerdictUnknown},
		{"unparseable output", &fakeGateway{available: true, response: "I think it is related"}, VerdictUnknown},
		{"wrong type", &fakeGateway{available: true, response: `{"ai_related": "yes"}`}, VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewRelevanceClassifier(tt.gateway)
			if got := classifier.ClassifyText(ctx, "title", "snippet"); got != tt.expected {
				t.Errorf("ClassifyText = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRelevanceClassifier_UnavailableSkipsGenerate(t *testing.T) {
	gateway := &fakeGateway{available: false}
	classifier := NewRelevanceClassifier(gateway)

	classifier.ClassifyContent(context.Background(), "title", "content")

	if gateway.calls != 0 {
		t.Errorf("Generate should not be called when service is unavailable, got %d calls", gateway.calls)
	}
}

func TestClassifier_OutOfVocabularyReplacedWithOther(t *testing.T) {
	gateway := &fakeGateway{
		available: true,
		response:  `{"is_inappropriate": false, "category": "Quantum Blockchain", "business_area": "Space Mining", "tags": ["ai"]}`,
	}
	classifier := NewClassifier(gateway)

	got := classifier.Classify(context.Background(), "t", "c", "s", "Acme Bank")

	if got.Category != OtherSentinel {
		t.Errorf("Out-of-vocabulary category should become %q, got %q", OtherSentinel, got.Category)
	}
	if got.BusinessArea != OtherSentinel {
		t.Errorf("Out-of-vocabulary business area should become %q, got %q", OtherSentinel, got.BusinessArea)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "ai" {
		t.Errorf("Tags should survive, got %v", got.Tags)
	}
}

func TestClassifier_KeepsVocabularyValues(t *testing.T) {
	gateway := &fakeGateway{
		available: true,
		response:  `{"is_inappropriate": true, "category": "Customer Service", "business_area": "Retail Banking", "tags": []}`,
	}
	classifier := NewClassifier(gateway)

	got := classifier.Classify(context.Background(), "t", "c", "s", "Acme Bank")

	if got.Category != "Customer Service" {
		t.Errorf("In-vocabulary category should be kept, got %q", got.Category)
	}
	if !got.IsInappropriate {
		t.Error("is_inappropriate flag should be read")
	}
}

func TestClassifier_DefaultOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		gateway *fakeGateway
	}{
		{"generate error", &fakeGateway{available: true, err: errors.New("down")}},
		{"no json", &fakeGateway{available: true, response: "sorry, cannot classify"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifier(tt.gateway)
			got := classifier.Classify(context.Background(), "t", "c", "s", "Acme")

			if got.IsInappropriate {
				t.Error("Default classification should not be inappropriate")
			}
			if got.Category != OtherSentinel || got.BusinessArea != OtherSentinel {
				t.Errorf("Default classification should use sentinel, got %q/%q", got.Category, got.BusinessArea)
			}
			if len(got.Tags) != 0 {
				t.Errorf("Default classification should have empty tags, got %v", got.Tags)
			}
		})
	}
}

func TestSummarizer_RefusesShortContent(t *testing.T) {
	gateway := &fakeGateway{available: true, response: `{"summary": "x"}`}
	summarizer := NewSummarizer(gateway)

	if got := summarizer.Summarize(context.Background(), "t", "too short", "Acme"); got != nil {
		t.Errorf("Short content should yield nil, got %+v", got)
	}
	if gateway.calls != 0 {
		t.Error("Short content should not reach the gateway")
	}
}

func TestSummarizer_StructuredOutput(t *testing.T) {
	gateway := &fakeGateway{
		available: true,
		response:  `{"summary": "Bank deploys chatbot", "key_points": ["24/7 support"], "outcomes": "30% fewer calls", "technology": "LLM"}`,
	}
	summarizer := NewSummarizer(gateway)
	content := strings.Repeat("The bank announced a new AI assistant. ", 5)

	got := summarizer.Summarize(context.Background(), "t", content, "Acme")
	if got == nil {
		t.Fatal("Expected a summary")
	}
	if got.Summary != "Bank deploys chatbot" {
		t.Errorf("Unexpected summary %q", got.Summary)
	}
	if len(got.KeyPoints) != 1 || got.Outcomes != "30% fewer calls" || got.Technology != "LLM" {
		t.Errorf("Structured fields not populated: %+v", got)
	}
}

func TestSummarizer_DegradesToRawText(t *testing.T) {
	raw := "The article describes an AI deployment at the bank but I could not format JSON."
	gateway := &fakeGateway{available: true, response: raw}
	summarizer := NewSummarizer(gateway)
	content := strings.Repeat("body ", 20)

	got := summarizer.Summarize(context.Background(), "t", content, "Acme")
	if got == nil {
		t.Fatal("Unparseable output should degrade, not vanish")
	}
	if got.Summary != raw {
		t.Errorf("Degraded summary should carry raw text, got %q", got.Summary)
	}
	if len(got.KeyPoints) != 0 || got.Outcomes != "" || got.Technology != "" {
		t.Errorf("Degraded summary should have empty structured fields: %+v", got)
	}
}

func TestDateExtractor_RegexFirstSkipsGateway(t *testing.T) {
	gateway := &fakeGateway{available: true, response: `{"date": "2020-01-01"}`}
	extractor := NewDateExtractor(gateway)

	got := extractor.ExtractDate(context.Background(), "title", "published 2024-03-05", "https://x.com", "")

	expected := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("Expected regex date %v, got %v", expected, got)
	}
	if gateway.calls != 0 {
		t.Errorf("Gateway should not be called when regex succeeds, got %d calls", gateway.calls)
	}
}

func TestDateExtractor_URLPathConvention(t *testing.T) {
	gateway := &fakeGateway{available: false}
	extractor := NewDateExtractor(gateway)

	got := extractor.ExtractDate(context.Background(), "Press release", "", "https://example.com/news2024/html/news0315.pdf", "")

	expected := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("Expected URL path date %v, got %v", expected, got)
	}
	if gateway.calls != 0 {
		t.Errorf("Gateway should not be consulted for a dated URL, got %d calls", gateway.calls)
	}
}

func TestDateExtractor_GatewayFallback(t *testing.T) {
	gateway := &fakeGateway{available: true, response: `{"date": "2024-06-15"}`}
	extractor := NewDateExtractor(gateway)

	got := extractor.ExtractDate(context.Background(), "no date", "none", "https://example.com/about", "")

	expected := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("Expected gateway date %v, got %v", expected, got)
	}
}

func TestDateExtractor_UnavailableReturnsZero(t *testing.T) {
	gateway := &fakeGateway{available: false}
	extractor := NewDateExtractor(gateway)

	if got := extractor.ExtractDate(context.Background(), "no date", "", "https://example.com/x", ""); !got.IsZero() {
		t.Errorf("Expected zero time, got %v", got)
	}

	gateway.response = `{"date": null}`
	gateway.available = true
	if got := extractor.ExtractDate(context.Background(), "no date", "", "https://example.com/x", ""); !got.IsZero() {
		t.Errorf("Expected zero time for null date, got %v", got)
	}
}
