package llm

import (
	"context"
	"log/slog"

	"github.com/casescout/casescout/app/jsonext"
)

// Verdict is the tri-state outcome of a relevance check. Unknown means the
// service was unavailable or its output unparseable; callers must treat it
// as non-rejecting.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictRelevant
	VerdictNotRelevant
)

func (v Verdict) String() string {
	switch v {
	case VerdictRelevant:
		return "relevant"
	case VerdictNotRelevant:
		return "not_relevant"
	default:
		return "unknown"
	}
}

// RelevanceClassifier judges whether text concerns AI/automation initiatives.
type RelevanceClassifier struct {
	gateway Gateway
}

func NewRelevanceClassifier(gateway Gateway) *RelevanceClassifier {
	return &RelevanceClassifier{gateway: gateway}
}

// ClassifyText judges relevance from a title and search snippet. The cheap
// check used for search post-filtering and as the fallback when no body
// content could be fetched.
func (r *RelevanceClassifier) ClassifyText(ctx context.Context, title, snippet string) Verdict {
	if !r.gateway.Available(ctx) {
		return VerdictUnknown
	}

	response, err := r.gateway.Generate(ctx, GenerateRequest{
		Prompt:      buildRelevanceTextPrompt(title, snippet),
		System:      relevanceSystem,
		Temperature: relevanceTemperature,
		MaxTokens:   200,
	})
	if err != nil {
		slog.Debug("Relevance check failed", "title", truncate(title, 50), "error", err)
		return VerdictUnknown
	}

	return extractVerdict(response)
}

// ClassifyContent judges relevance from the article body, the strict primary
// check. Only the first 1000 characters of the body are sent.
func (r *RelevanceClassifier) ClassifyContent(ctx context.Context, title, content string) Verdict {
	if !r.gateway.Available(ctx) {
		return VerdictUnknown
	}

	response, err := r.gateway.Generate(ctx, GenerateRequest{
		Prompt:      buildRelevanceContentPrompt(title, truncate(content, 1000)),
		System:      relevanceSystem,
		Temperature: relevanceTemperature,
		MaxTokens:   200,
	})
	if err != nil {
		slog.Debug("Content relevance check failed", "title", truncate(title, 50), "error", err)
		return VerdictUnknown
	}

	return extractVerdict(response)
}

func extractVerdict(response string) Verdict {
	data := jsonext.ExtractObject(response)
	if data == nil {
		return VerdictUnknown
	}
	flag, ok := data["ai_related"].(bool)
	if !ok {
		return VerdictUnknown
	}
	if flag {
		return VerdictRelevant
	}
	return VerdictNotRelevant
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
