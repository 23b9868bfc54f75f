package research

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/casescout/casescout/app/crawler"
	"github.com/casescout/casescout/app/database"
	"github.com/casescout/casescout/app/dates"
	"github.com/casescout/casescout/app/fetcher"
	"github.com/casescout/casescout/app/llm"
	"github.com/casescout/casescout/app/search"
	"github.com/casescout/casescout/app/urlnorm"
)

// maxSearchResults caps provider hits per company query.
const maxSearchResults = 20

// maxEnglishResults caps the secondary English-name query.
const maxEnglishResults = 5

// reasonOutOfScope marks articles the classifier flagged as inappropriate.
const reasonOutOfScope = "reviewed: out of scope"

// Searcher is the discovery interface over the web search provider.
type Searcher interface {
	SearchRelevant(ctx context.Context, query string, start, end time.Time, maxResults int, region, timelimitOverride string) ([]search.Result, error)
}

// Scraper is the discovery interface over company press pages.
type Scraper interface {
	FetchPressList(ctx context.Context, pageURL string, start, end time.Time, opts crawler.Options) ([]crawler.PressItem, error)
}

// ContentFetcher retrieves one article body.
type ContentFetcher interface {
	FetchContent(ctx context.Context, articleURL string) (*fetcher.Content, error)
}

// Orchestrator runs one research job end to end. It is the single writer of
// the job record.
type Orchestrator struct {
	companies database.CompanyRepository
	articles  database.ArticleRepository
	jobs      database.JobRepository
	settings  database.SettingsRepository

	searcher Searcher
	scraper  Scraper
	fetcher  ContentFetcher

	relevance     *llm.RelevanceClassifier
	dateExtractor *llm.DateExtractor
	summarizer    *llm.Summarizer
	classifier    *llm.Classifier

	stageTimeout time.Duration
	itemPause    time.Duration
	companyPause time.Duration
}

func NewOrchestrator(
	companies database.CompanyRepository,
	articles database.ArticleRepository,
	jobs database.JobRepository,
	settings database.SettingsRepository,
	searcher Searcher,
	scraper Scraper,
	contentFetcher ContentFetcher,
	gateway llm.Gateway,
) *Orchestrator {
	return &Orchestrator{
		companies:     companies,
		articles:      articles,
		jobs:          jobs,
		settings:      settings,
		searcher:      searcher,
		scraper:       scraper,
		fetcher:       contentFetcher,
		relevance:     llm.NewRelevanceClassifier(gateway),
		dateExtractor: llm.NewDateExtractor(gateway),
		summarizer:    llm.NewSummarizer(gateway),
		classifier:    llm.NewClassifier(gateway),
		stageTimeout:  5 * time.Minute,
		itemPause:     time.Second,
		companyPause:  3 * time.Second,
	}
}

// Run executes the research job. Setup failures (no window, no companies)
// fail the job; per-company failures are contained and summarized.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	start, end, err := o.settings.GetSearchWindow()
	if err != nil {
		return o.failJob(jobID, fmt.Errorf("failed to load search window: %w", err))
	}
	if start.IsZero() || end.IsZero() {
		return o.failJob(jobID, fmt.Errorf("no search window configured"))
	}

	companies, err := o.companies.GetEnabledCompanies()
	if err != nil {
		return o.failJob(jobID, fmt.Errorf("failed to load companies: %w", err))
	}
	if len(companies) == 0 {
		return o.failJob(jobID, fmt.Errorf("no active companies"))
	}

	if err := o.jobs.MarkStarted(jobID, len(companies)); err != nil {
		return fmt.Errorf("failed to mark job started: %w", err)
	}

	slog.Info("Research job started",
		"job_id", jobID,
		"companies", len(companies),
		"window_start", start.Format("2006-01-02"),
		"window_end", end.Format("2006-01-02"))

	seen := make(map[string]bool)
	totalArticles := 0
	var companyErrors []string

	for i, company := range companies {
		count, err := o.processCompany(ctx, jobID, company, i, start, end, seen, &totalArticles)
		if err != nil {
			slog.Error("Company processing failed",
				"job_id", jobID, "company", company.Name, "error", err)
			companyErrors = append(companyErrors, fmt.Sprintf("%s: %v", company.Name, err))
		} else {
			slog.Info("Company processed",
				"job_id", jobID, "company", company.Name, "articles", count)
		}

		if err := o.jobs.UpdateProgress(jobID, i+1, totalArticles); err != nil {
			slog.Error("Failed to update job progress", "job_id", jobID, "error", err)
		}

		if i < len(companies)-1 {
			sleep(ctx, o.companyPause)
		}
		if ctx.Err() != nil {
			break
		}
	}

	summary := ""
	if len(companyErrors) > 0 {
		summary = fmt.Sprintf("%d of %d companies failed: %s",
			len(companyErrors), len(companies), strings.Join(companyErrors, "; "))
	}
	if err := o.jobs.MarkCompleted(jobID, summary); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	slog.Info("Research job completed",
		"job_id", jobID, "articles", totalArticles, "failed_companies", len(companyErrors))
	return nil
}

// RunURL processes one manually submitted article URL as its own job.
// Manual candidates bypass the date-range policy, so a missing search
// window is not a setup failure here.
func (o *Orchestrator) RunURL(ctx context.Context, jobID string, companyID int64, rawURL string) error {
	company, err := o.companies.GetCompany(companyID)
	if err != nil {
		return o.failJob(jobID, fmt.Errorf("failed to load company: %w", err))
	}
	if company == nil {
		return o.failJob(jobID, fmt.Errorf("company %d not found", companyID))
	}

	if err := o.jobs.MarkStarted(jobID, 1); err != nil {
		return fmt.Errorf("failed to mark job started: %w", err)
	}

	start, end, err := o.settings.GetSearchWindow()
	if err != nil {
		start, end = time.Time{}, time.Time{}
	}

	slog.Info("Article addition started",
		"job_id", jobID, "company", company.Name, "url", rawURL)

	seen := make(map[string]bool)
	candidate := Candidate{URL: rawURL, Source: database.SourceManual}
	outcome := o.processItem(ctx, jobID, *company, candidate, start, end, seen)

	if outcome.Kind == OutcomeErrored {
		return o.failJob(jobID, fmt.Errorf("article processing failed: %s", outcome.Reason))
	}

	found := 0
	summary := ""
	if outcome.Kind == OutcomePersisted {
		found = 1
	} else {
		summary = fmt.Sprintf("%s: %s", outcome.Kind.String(), outcome.Reason)
	}
	if err := o.jobs.UpdateProgress(jobID, 1, found); err != nil {
		slog.Error("Failed to update job progress", "job_id", jobID, "error", err)
	}
	if err := o.jobs.MarkCompleted(jobID, summary); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	slog.Info("Article addition completed",
		"job_id", jobID, "outcome", outcome.Kind.String())
	return nil
}

func (o *Orchestrator) failJob(jobID string, cause error) error {
	if err := o.jobs.MarkFailed(jobID, cause.Error()); err != nil {
		slog.Error("Failed to mark job failed", "job_id", jobID, "error", err)
	}
	return cause
}

// processCompany discovers and processes all candidates for one company.
// Search results come first so they win dedup ties against press items.
func (o *Orchestrator) processCompany(ctx context.Context, jobID string, company database.Company, processedSoFar int, start, end time.Time, seen map[string]bool, totalArticles *int) (int, error) {
	candidates, err := o.discover(ctx, company, start, end)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, candidate := range candidates {
		outcome := o.processItem(ctx, jobID, company, candidate, start, end, seen)

		switch outcome.Kind {
		case OutcomePersisted:
			count++
			*totalArticles++
			// Progress survives a crash mid-company.
			if err := o.jobs.UpdateProgress(jobID, processedSoFar, *totalArticles); err != nil {
				slog.Error("Failed to update job progress", "job_id", jobID, "error", err)
			}
		case OutcomeErrored:
			slog.Warn("Candidate lost",
				"company", company.Name,
				"url", candidate.URL,
				"title", truncate(candidate.Title, 80),
				"reason", outcome.Reason)
		default:
			slog.Debug("Candidate rejected",
				"company", company.Name,
				"url", candidate.URL,
				"outcome", outcome.Kind.String(),
				"reason", outcome.Reason)
		}

		sleep(ctx, o.itemPause)
		if ctx.Err() != nil {
			break
		}
	}

	return count, nil
}

func (o *Orchestrator) discover(ctx context.Context, company database.Company, start, end time.Time) ([]Candidate, error) {
	settings, err := o.companies.GetSearchSettings(company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load search settings: %w", err)
	}

	keywords := search.RegionKeywords(company.Region)
	if settings.ExtraKeywords != "" {
		for _, kw := range strings.Split(settings.ExtraKeywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}
	query := search.BuildCompanyQuery(company.Name, keywords)

	searchCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	results, err := o.searcher.SearchRelevant(searchCtx, query, start, end, maxSearchResults, company.Region, "")
	cancel()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	// Companies with an English name get a second, smaller query with the
	// English keyword set; duplicates fall out in the dedup pass.
	if company.NameEn != "" {
		queryEn := search.BuildCompanyQuery(company.NameEn, search.EnglishKeywords())
		searchCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
		resultsEn, err := o.searcher.SearchRelevant(searchCtx, queryEn, start, end, maxEnglishResults, company.Region, "")
		cancel()
		if err != nil {
			return nil, fmt.Errorf("english search failed: %w", err)
		}
		results = append(results, resultsEn...)
	}

	var candidates []Candidate
	for _, r := range results {
		candidates = append(candidates, Candidate{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Snippet,
			Source:  database.SourceSearch,
		})
	}

	sources, err := o.companies.GetSourceURLs(company.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source urls: %w", err)
	}

	opts := crawler.Options{
		UseLLMFallback:     settings.UseLLMLinkFallback,
		ExtractDateWithLLM: settings.ExtractDateWithLLM,
	}
	for _, source := range sources {
		pressCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
		items, err := o.scraper.FetchPressList(pressCtx, source.URL, start, end, opts)
		cancel()
		if err != nil {
			// A dead press page yields nothing; it does not fail the company.
			slog.Warn("Press list fetch failed",
				"company", company.Name, "url", source.URL, "error", err)
			continue
		}
		for _, item := range items {
			candidates = append(candidates, Candidate{
				URL:           item.URL,
				Title:         item.Title,
				Source:        database.SourcePressList,
				PublishedDate: item.PublishedDate,
				DateValidated: item.DateValidated,
			})
		}
	}

	return candidates, nil
}

// processItem drives one candidate through the pipeline:
// normalize, dedup, fetch, relevance, date, range policy, summarize,
// classify, persist. Stage failures degrade rather than abort.
func (o *Orchestrator) processItem(ctx context.Context, jobID string, company database.Company, candidate Candidate, start, end time.Time, seen map[string]bool) Outcome {
	normalized := urlnorm.Normalize(candidate.URL)
	if seen[normalized] {
		return dropped("duplicate within run")
	}
	seen[normalized] = true

	existing, err := o.articles.FindByNormalizedURL(normalized)
	if err != nil {
		return errored(fmt.Sprintf("dedup lookup failed: %v", err))
	}
	if existing == nil {
		// Rows persisted before normalization keyed on the raw URL.
		existing, err = o.articles.FindByURL(candidate.URL)
		if err != nil {
			return errored(fmt.Sprintf("dedup lookup failed: %v", err))
		}
	}
	if existing != nil {
		return dropped("already stored")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	content, err := o.fetcher.FetchContent(fetchCtx, candidate.URL)
	cancel()
	if err != nil {
		slog.Debug("Content fetch failed, falling back to snippet",
			"url", candidate.URL, "error", err)
		content = nil
	}

	title := candidate.Title
	body := ""
	if content != nil {
		body = content.Text
		if content.Title != "" && content.Title != candidate.URL {
			title = content.Title
		}
	}

	// Relevance: content is the strict primary signal; without a body the
	// title+snippet check decides, and a relevant item is persisted with an
	// empty body rather than discarded. Indeterminate always passes.
	// Each model stage runs under its own timeout so one slow call cannot
	// starve the stages after it.
	relevanceCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	if body != "" {
		verdict := o.relevance.ClassifyContent(relevanceCtx, title, body)
		cancel()
		if verdict == llm.VerdictNotRelevant {
			return filtered("content not relevant")
		}
	} else {
		verdict := o.relevance.ClassifyText(relevanceCtx, candidate.Title, candidate.Snippet)
		cancel()
		if verdict == llm.VerdictNotRelevant {
			return filtered("title/snippet not relevant")
		}
	}

	// Date resolution: date carried by the fetched page, then extraction,
	// then the discovery-time date, then today.
	var published time.Time
	if content != nil {
		published = content.PublishedDate
	}
	if published.IsZero() {
		dateCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
		published = o.dateExtractor.ExtractDate(dateCtx, title, candidate.Snippet, candidate.URL, body)
		cancel()
	}
	if published.IsZero() {
		published = candidate.PublishedDate
	}
	if published.IsZero() {
		published = time.Now().UTC().Truncate(24 * time.Hour)
		slog.Debug("No date resolved, defaulting to today", "url", candidate.URL)
	}

	if !o.bypassesRange(candidate) && !dates.InWindow(published, start, end) {
		return dropped(fmt.Sprintf("published %s outside window", published.Format("2006-01-02")))
	}

	var summary *llm.Summary
	if body != "" {
		sumCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
		summary = o.summarizer.Summarize(sumCtx, title, body, company.Name)
		cancel()
	}
	summaryText := ""
	var keyPoints []string
	outcomes, technology := "", ""
	if summary != nil {
		summaryText = summary.Summary
		keyPoints = summary.KeyPoints
		outcomes = summary.Outcomes
		technology = summary.Technology
	}

	classCtx, cancel := context.WithTimeout(ctx, o.stageTimeout)
	classification := o.classifier.Classify(classCtx, title, body, summaryText, company.Name)
	cancel()

	inappropriateReason := ""
	if classification.IsInappropriate {
		inappropriateReason = reasonOutOfScope
	}

	id, err := o.articles.StoreArticle(database.Article{
		CompanyID:           company.ID,
		JobID:               jobID,
		URL:                 candidate.URL,
		NormalizedURL:       normalized,
		Title:               title,
		Summary:             summaryText,
		Content:             body,
		Source:              candidate.Source,
		Category:            classification.Category,
		BusinessArea:        classification.BusinessArea,
		Tags:                classification.Tags,
		KeyPoints:           keyPoints,
		Outcomes:            outcomes,
		Technology:          technology,
		PublishedDate:       published,
		DateValidated:       candidate.DateValidated,
		IsInappropriate:     classification.IsInappropriate,
		InappropriateReason: inappropriateReason,
	})
	if err != nil {
		return errored(fmt.Sprintf("persist failed: %v", err))
	}

	return persisted(id)
}

// bypassesRange implements the date-range policy: manual and search items
// pass unconditionally; press items already validated at discovery pass too.
func (o *Orchestrator) bypassesRange(candidate Candidate) bool {
	switch candidate.Source {
	case database.SourceSearch, database.SourceManual:
		return true
	case database.SourcePressList:
		return candidate.DateValidated
	default:
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
