// Package crawler fetches company press-list pages and extracts candidate
// article links with publication dates.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/casescout/casescout/app/charset"
	"github.com/casescout/casescout/app/dates"
	"github.com/casescout/casescout/app/jsonext"
	"github.com/casescout/casescout/app/llm"
	"github.com/casescout/casescout/app/sites"
)

// maxLinks caps how many links one press page may yield.
const maxLinks = 500

// maxLLMCandidates caps how many raw anchors are offered to the LLM
// link-selection fallback.
const maxLLMCandidates = 200

// PressItem is one discovered press release link.
type PressItem struct {
	Title         string
	URL           string
	PublishedDate time.Time
	// DateValidated is set only when a search window was supplied to the
	// call and the resolved date passed it; the orchestrator then skips its
	// own range check for this item.
	DateValidated bool
}

// Options toggles the scraper's LLM-assisted tiers.
type Options struct {
	UseLLMFallback     bool
	ExtractDateWithLLM bool
}

// Scraper fetches press-list pages.
type Scraper struct {
	httpClient *http.Client
	table      *sites.Table
	gateway    llm.Gateway
	feedParser *gofeed.Parser
	userAgent  string
	pause      time.Duration
}

func NewScraper(table *sites.Table, gateway llm.Gateway, userAgent string) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		table:      table,
		gateway:    gateway,
		feedParser: gofeed.NewParser(),
		userAgent:  userAgent,
		pause:      time.Second,
	}
}

// FetchPressList retrieves one press-list page and returns candidate links.
// Zero start/end disable window validation. Network and parse errors return
// an empty list with the error; callers treat the page as yielding nothing.
func (s *Scraper) FetchPressList(ctx context.Context, pageURL string, start, end time.Time, opts Options) ([]PressItem, error) {
	defer s.sleep(ctx)

	body, contentType, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if isFeed(body, contentType) {
		return s.fromFeed(pageURL, body, start, end)
	}

	html := charset.Decode(body, contentType)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse press page: %w", err)
	}

	config := s.table.Lookup(pageURL)
	links := s.discoverLinks(ctx, doc, pageURL, config, opts)

	windowed := !start.IsZero() || !end.IsZero()
	var results []PressItem

	for _, link := range links {
		if len(results) >= maxLinks {
			break
		}

		fullURL := resolveURL(pageURL, link.href)
		if fullURL == "" {
			continue
		}

		title := link.title(fullURL)
		linkDate := s.resolveLinkDate(ctx, link, title, fullURL, opts)

		if windowed {
			if linkDate.IsZero() || !dates.InWindow(linkDate, start, end) {
				continue
			}
		}

		results = append(results, PressItem{
			Title:         title,
			URL:           fullURL,
			PublishedDate: linkDate,
			DateValidated: windowed,
		})
	}

	return results, nil
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create press list request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("press list fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("press list returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read press list body: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// fromFeed handles press URLs that serve RSS/Atom instead of HTML.
func (s *Scraper) fromFeed(pageURL string, body []byte, start, end time.Time) ([]PressItem, error) {
	feed, err := s.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed at %s: %w", pageURL, err)
	}

	windowed := !start.IsZero() || !end.IsZero()
	var results []PressItem

	for _, item := range feed.Items {
		if len(results) >= maxLinks {
			break
		}
		if item.Link == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = item.PublishedParsed.UTC().Truncate(24 * time.Hour)
		}

		if windowed {
			if published.IsZero() || !dates.InWindow(published, start, end) {
				continue
			}
		}

		title := item.Title
		if title == "" {
			title = item.Link
		}

		results = append(results, PressItem{
			Title:         title,
			URL:           item.Link,
			PublishedDate: published,
			DateValidated: windowed,
		})
	}

	slog.Debug("Press URL served a feed", "url", pageURL, "items", len(results))
	return results, nil
}

// linkInfo is one anchor regardless of which discovery tier produced it.
type linkInfo struct {
	href       string
	text       string
	titleAttr  string
	ariaLabel  string
	parentText string
}

func (l linkInfo) title(fullURL string) string {
	for _, candidate := range []string{l.text, l.titleAttr, l.ariaLabel} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return fullURL
}

// discoverLinks applies the tiered discovery strategy: configured selector,
// then a heuristic pass over all anchors, then the LLM fallback.
func (s *Scraper) discoverLinks(ctx context.Context, doc *goquery.Document, pageURL string, config sites.Config, opts Options) []linkInfo {
	links := collectLinks(doc.Find(config.ListSelector))
	if len(links) > 0 {
		return links
	}

	links = collectLinks(doc.Find("a[href]").FilterFunction(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		return looksLikePressLink(href)
	}))
	if len(links) > 0 {
		slog.Debug("Press list selector empty, heuristic anchors used", "url", pageURL, "links", len(links))
		return links
	}

	if !opts.UseLLMFallback {
		return nil
	}
	return s.selectLinksWithLLM(ctx, doc, pageURL)
}

func collectLinks(sel *goquery.Selection) []linkInfo {
	var links []linkInfo
	sel.Each(func(i int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if href == "" {
			return
		}
		titleAttr, _ := anchor.Attr("title")
		ariaLabel, _ := anchor.Attr("aria-label")

		parentText := ""
		if parent := anchor.Parent(); parent.Length() > 0 {
			parentText = strings.TrimSpace(parent.Text())
		}

		links = append(links, linkInfo{
			href:       href,
			text:       strings.TrimSpace(anchor.Text()),
			titleAttr:  titleAttr,
			ariaLabel:  ariaLabel,
			parentText: parentText,
		})
	})
	return links
}

func looksLikePressLink(href string) bool {
	if href == "" {
		return false
	}
	lower := strings.ToLower(href)
	if strings.Contains(lower, "/news/") || strings.Contains(lower, "/press/") || strings.Contains(lower, "/release") {
		return true
	}
	return strings.HasSuffix(lower, ".pdf")
}

// selectLinksWithLLM offers raw anchors to the model and parses its
// JSON-array response. Any failure yields no links; the page is then simply
// treated as empty.
func (s *Scraper) selectLinksWithLLM(ctx context.Context, doc *goquery.Document, pageURL string) []linkInfo {
	if s.gateway == nil || !s.gateway.Available(ctx) {
		return nil
	}

	var candidates []llm.LinkCandidate
	doc.Find("a[href]").EachWithBreak(func(i int, anchor *goquery.Selection) bool {
		if len(candidates) >= maxLLMCandidates {
			return false
		}

		href, _ := anchor.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}

		text := strings.TrimSpace(anchor.Text())
		if text == "" {
			text, _ = anchor.Attr("aria-label")
		}
		if text == "" {
			text, _ = anchor.Attr("title")
		}
		if len(text) > 120 {
			text = text[:120]
		}

		candidates = append(candidates, llm.LinkCandidate{Text: text, Href: href})
		return true
	})

	if len(candidates) == 0 {
		return nil
	}

	response, err := s.gateway.Generate(ctx, llm.GenerateRequest{
		Prompt:      llm.BuildLinkSelectPrompt(pageURL, candidates),
		System:      llm.LinkSelectSystem,
		Temperature: 0.1,
		MaxTokens:   1200,
	})
	if err != nil {
		slog.Debug("LLM link selection failed", "url", pageURL, "error", err)
		return nil
	}

	var links []linkInfo
	for _, entry := range jsonext.ExtractArray(response) {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		href := strings.TrimSpace(jsonext.String(item, "url", ""))
		if href == "" {
			continue
		}
		links = append(links, linkInfo{
			href: href,
			text: strings.TrimSpace(jsonext.String(item, "title", "")),
		})
	}
	return links
}

// resolveLinkDate applies the per-link date tiers: nearby text, URL
// patterns, then the optional LLM extraction.
func (s *Scraper) resolveLinkDate(ctx context.Context, link linkInfo, title, fullURL string, opts Options) time.Time {
	for _, text := range []string{link.parentText, link.text, title} {
		if d := dates.FromText(text); !d.IsZero() {
			return d
		}
	}

	if d := dates.FromURL(fullURL); !d.IsZero() {
		return d
	}

	if !opts.ExtractDateWithLLM || s.gateway == nil || !s.gateway.Available(ctx) {
		return time.Time{}
	}
	return s.extractDateWithLLM(ctx, link, title, fullURL)
}

func (s *Scraper) extractDateWithLLM(ctx context.Context, link linkInfo, title, fullURL string) time.Time {
	context800 := link.parentText
	if len(context800) > 800 {
		context800 = context800[:800]
	}

	payload := fmt.Sprintf(`{"title": %q, "url": %q, "context": %q}`, title, fullURL, context800)
	response, err := s.gateway.Generate(ctx, llm.GenerateRequest{
		Prompt:      "Return JSON only: {\"date\": \"YYYY-MM-DD\"} or {\"date\": null}.\nItem: " + payload,
		System:      "You extract published dates from press release list items.",
		Temperature: 0.0,
		MaxTokens:   120,
	})
	if err != nil {
		return time.Time{}
	}

	value := jsonext.String(jsonext.ExtractObject(response), "date", "")
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func isFeed(body []byte, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "rss") || strings.Contains(ct, "atom") {
		return true
	}
	head := bytes.TrimSpace(body)
	if len(head) > 256 {
		head = head[:256]
	}
	if bytes.HasPrefix(head, []byte("<?xml")) {
		return bytes.Contains(head, []byte("<rss")) || bytes.Contains(head, []byte("<feed")) ||
			bytes.Contains(body, []byte("<rss")) || bytes.Contains(body, []byte("<feed"))
	}
	return bytes.HasPrefix(head, []byte("<rss")) || bytes.HasPrefix(head, []byte("<feed"))
}

func (s *Scraper) sleep(ctx context.Context) {
	if s.pause <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.pause):
	}
}
