package llm

import (
	"context"
	"log/slog"

	"github.com/casescout/casescout/app/jsonext"
)

// MinSummarizableLength is the minimum body length the summarizer accepts.
// Shorter bodies return nil rather than inviting the model to fabricate.
const MinSummarizableLength = 50

// Summary is the structured summarization output.
type Summary struct {
	Summary    string
	KeyPoints  []string
	Outcomes   string
	Technology string
}

// Summarizer produces a structured summary of an article body.
type Summarizer struct {
	gateway Gateway
}

func NewSummarizer(gateway Gateway) *Summarizer {
	return &Summarizer{gateway: gateway}
}

// Summarize returns a structured summary, or nil when the body is too short
// or the service fails outright. Unparseable model output degrades to a
// truncated raw-text summary with empty structured fields.
func (s *Summarizer) Summarize(ctx context.Context, title, content, companyName string) *Summary {
	if len(content) < MinSummarizableLength {
		return nil
	}

	response, err := s.gateway.Generate(ctx, GenerateRequest{
		Prompt:      buildSummarizerPrompt(title, content, companyName),
		System:      summarizerSystem,
		Temperature: summarizerTemperature,
	})
	if err != nil {
		slog.Debug("Summarization failed", "title", truncate(title, 50), "error", err)
		return nil
	}

	data := jsonext.ExtractObject(response)
	if data == nil {
		slog.Debug("Summarizer response had no valid JSON", "title", truncate(title, 50))
		return &Summary{
			Summary:    truncate(response, 500),
			KeyPoints:  nil,
			Outcomes:   "",
			Technology: "",
		}
	}

	return &Summary{
		Summary:    jsonext.String(data, "summary", ""),
		KeyPoints:  jsonext.Strings(data, "key_points"),
		Outcomes:   jsonext.String(data, "outcomes", ""),
		Technology: jsonext.String(data, "technology", ""),
	}
}
