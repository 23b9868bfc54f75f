package llm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/casescout/casescout/app/jsonext"
)

// Classification is the structured output of the categorizer.
type Classification struct {
	IsInappropriate bool
	Category        string
	BusinessArea    string
	Tags            []string
}

// Classifier assigns category, business area, and tags to an article.
type Classifier struct {
	gateway Gateway
}

func NewClassifier(gateway Gateway) *Classifier {
	return &Classifier{gateway: gateway}
}

// Classify returns a classification for the article. Out-of-vocabulary
// categories and business areas are replaced with the Other sentinel; any
// failure (service down, unparseable output) yields the default
// classification rather than an error.
func (c *Classifier) Classify(ctx context.Context, title, content, summary, companyName string) Classification {
	text := fmt.Sprintf("%s\n%s\n%s", title, summary, truncate(content, 1500))

	response, err := c.gateway.Generate(ctx, GenerateRequest{
		Prompt:      buildClassifierPrompt(text, companyName),
		System:      classifierSystem,
		Temperature: classifierTemperature,
	})
	if err != nil {
		slog.Debug("Classification failed", "title", truncate(title, 50), "error", err)
		return defaultClassification()
	}

	data := jsonext.ExtractObject(response)
	if data == nil {
		slog.Debug("Classification response had no valid JSON", "title", truncate(title, 50))
		return defaultClassification()
	}

	result := Classification{
		IsInappropriate: jsonext.Bool(data, "is_inappropriate", false),
		Category:        jsonext.String(data, "category", OtherSentinel),
		BusinessArea:    jsonext.String(data, "business_area", OtherSentinel),
		Tags:            jsonext.Strings(data, "tags"),
	}

	if !slices.Contains(Categories, result.Category) {
		result.Category = OtherSentinel
	}
	if !slices.Contains(BusinessAreas, result.BusinessArea) {
		result.BusinessArea = OtherSentinel
	}

	return result
}

func defaultClassification() Classification {
	return Classification{
		IsInappropriate: false,
		Category:        OtherSentinel,
		BusinessArea:    OtherSentinel,
		Tags:            nil,
	}
}
