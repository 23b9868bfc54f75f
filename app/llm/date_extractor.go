package llm

import (
	"context"
	"time"

	"github.com/casescout/casescout/app/dates"
	"github.com/casescout/casescout/app/jsonext"
)

// DateExtractor resolves an article's published date, trying cheap regex
// extraction before involving the gateway.
type DateExtractor struct {
	gateway Gateway
}

func NewDateExtractor(gateway Gateway) *DateExtractor {
	return &DateExtractor{gateway: gateway}
}

// ExtractDate scans snippet, title, URL, and the content prefix with regex
// patterns first; only when all of those fail and the service is available
// does it ask the model. Returns the zero time when no date is found.
func (d *DateExtractor) ExtractDate(ctx context.Context, title, snippet, url, content string) time.Time {
	for _, text := range []string{snippet, title} {
		if extracted := dates.FromText(text); !extracted.IsZero() {
			return extracted
		}
	}
	// URLs carry path conventions plain text scanning misses.
	if extracted := dates.FromURL(url); !extracted.IsZero() {
		return extracted
	}
	if extracted := dates.FromText(truncate(content, 200)); !extracted.IsZero() {
		return extracted
	}

	if !d.gateway.Available(ctx) {
		return time.Time{}
	}

	payload := map[string]string{
		"title":   title,
		"snippet": snippet,
		"url":     url,
		"content": truncate(content, 500),
	}

	response, err := d.gateway.Generate(ctx, GenerateRequest{
		Prompt:      buildDatePrompt(payload),
		System:      dateSystem,
		Temperature: 0.0,
		MaxTokens:   120,
	})
	if err != nil {
		return time.Time{}
	}

	data := jsonext.ExtractObject(response)
	value := jsonext.String(data, "date", "")
	if value == "" {
		return time.Time{}
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
