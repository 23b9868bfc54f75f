// Package search queries a web search provider for candidate articles.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casescout/casescout/app/llm"
)

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Provider executes one provider query. timelimit is the provider's coarse
// time-window token ("d", "w", "m", "y") or empty for no filter.
type Provider interface {
	Search(ctx context.Context, query, region, timelimit string, maxResults int) ([]Result, error)
}

// Searcher wraps a Provider with query building, time-window resolution, and
// an optional LLM relevance post-filter.
type Searcher struct {
	provider      Provider
	classifier    *llm.RelevanceClassifier
	filterEnabled bool
	pause         time.Duration
}

func NewSearcher(provider Provider, classifier *llm.RelevanceClassifier, filterEnabled bool) *Searcher {
	return &Searcher{
		provider:      provider,
		classifier:    classifier,
		filterEnabled: filterEnabled,
		pause:         time.Second,
	}
}

// BuildCompanyQuery combines a company name with OR-joined keywords into one
// provider query.
func BuildCompanyQuery(companyName string, keywords []string) string {
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	return fmt.Sprintf(`"%s" (%s)`, companyName, strings.Join(keywords, " OR "))
}

// Search runs one provider query. When a time-window token was resolved and
// the provider errors, the query is retried once immediately without the
// token before giving up. A fixed pause follows every call.
func (s *Searcher) Search(ctx context.Context, query string, start, end time.Time, maxResults int, region, timelimitOverride string) ([]Result, error) {
	timelimit := timelimitOverride
	if timelimit == "" {
		timelimit = Timelimit(start, end)
	}
	if region == "" {
		region = "wt-wt"
	}

	defer s.sleep(ctx)

	results, err := s.provider.Search(ctx, query, region, timelimit, maxResults)
	if err != nil && timelimit != "" {
		slog.Debug("Search with time window failed, retrying without", "query", query, "error", err)
		results, err = s.provider.Search(ctx, query, region, "", maxResults)
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	valid := results[:0]
	for _, r := range results {
		if r.Title != "" && r.URL != "" {
			valid = append(valid, r)
		}
	}
	return valid, nil
}

// SearchRelevant runs Search and, when the post-filter is enabled and the
// LLM service is reachable, drops results the relevance check rejects.
// Service unavailability skips the filter entirely.
func (s *Searcher) SearchRelevant(ctx context.Context, query string, start, end time.Time, maxResults int, region, timelimitOverride string) ([]Result, error) {
	results, err := s.Search(ctx, query, start, end, maxResults, region, timelimitOverride)
	if err != nil || len(results) == 0 {
		return results, err
	}

	if !s.filterEnabled || s.classifier == nil {
		return results, nil
	}

	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Title == "" && r.Snippet == "" {
			continue
		}
		verdict := s.classifier.ClassifyText(ctx, r.Title, r.Snippet)
		if verdict == llm.VerdictUnknown {
			// Service went away mid-run; stop filtering rather than dropping.
			slog.Debug("Relevance filter indeterminate, passing results through")
			filtered = append(filtered, r)
			continue
		}
		if verdict == llm.VerdictRelevant {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Timelimit maps a date span onto the provider's coarse time-window token.
// Spans the provider cannot express (over a year, or inverted) yield no
// filter.
func Timelimit(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	if end.Before(start) {
		return ""
	}

	span := int(end.Sub(start).Hours() / 24)
	switch {
	case span <= 1:
		return "d"
	case span <= 7:
		return "w"
	case span <= 31:
		return "m"
	case span <= 366:
		return "y"
	default:
		return ""
	}
}

func (s *Searcher) sleep(ctx context.Context) {
	if s.pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.pause):
	}
}
