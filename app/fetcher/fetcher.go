// Package fetcher downloads article pages and PDFs and reduces them to
// plain-text content for classification.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/casescout/casescout/app/charset"
	"github.com/casescout/casescout/app/dates"
	"github.com/casescout/casescout/app/retry"
	"github.com/casescout/casescout/app/sites"
)

// maxHTMLContent caps extracted article text.
const maxHTMLContent = 5000

// maxBodyBytes caps the downloaded response body.
const maxBodyBytes = 20 << 20

// Content is the reduced form of one fetched article. PublishedDate is the
// zero time when the page carried no recognizable date.
type Content struct {
	Title         string
	Text          string
	PublishedDate time.Time
	PDF           bool
}

// statusError carries the HTTP status so the retry classifier can
// distinguish transient server failures from permanent client ones.
type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch of %s returned status %d", e.url, e.status)
}

// Fetcher downloads and extracts article content.
type Fetcher struct {
	httpClient *http.Client
	table      *sites.Table
	userAgent  string
	retryCfg   retry.Config
}

func NewFetcher(table *sites.Table, userAgent string) *Fetcher {
	cfg := retry.DefaultConfig()
	cfg.Classify = classifyFetch
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		table:      table,
		userAgent:  userAgent,
		retryCfg:   cfg,
	}
}

// classifyFetch retries transient network errors and 5xx responses, fails
// fast on 4xx.
func classifyFetch(err error) retry.Class {
	var se *statusError
	if errors.As(err, &se) {
		if se.status >= http.StatusInternalServerError {
			return retry.ClassRetry
		}
		return retry.ClassFailFast
	}
	return retry.ClassifyNetwork(err)
}

type fetchResult struct {
	body        []byte
	contentType string
}

// FetchContent downloads articleURL and reduces it to title plus plain text.
// PDFs are detected by URL extension or response content type; everything
// else goes through the HTML extraction path.
func (f *Fetcher) FetchContent(ctx context.Context, articleURL string) (*Content, error) {
	result, err := retry.Do(ctx, f.retryCfg, func(ctx context.Context) (fetchResult, error) {
		return f.download(ctx, articleURL)
	})
	if err != nil {
		return nil, err
	}

	if isPDF(articleURL, result.contentType, result.body) {
		content := extractPDF(result.body, articleURL)
		slog.Debug("Fetched PDF article", "url", articleURL, "content_length", len(content.Text))
		return content, nil
	}

	content := f.extractHTML(result.body, result.contentType, articleURL)
	slog.Debug("Fetched HTML article", "url", articleURL, "content_length", len(content.Text))
	return content, nil
}

func (f *Fetcher) download(ctx context.Context, articleURL string) (fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return fetchResult{}, fmt.Errorf("failed to create article request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fetchResult{}, fmt.Errorf("article fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fetchResult{}, &statusError{status: resp.StatusCode, url: articleURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fetchResult{}, fmt.Errorf("failed to read article body: %w", err)
	}

	return fetchResult{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

func isPDF(articleURL, contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	if u, err := url.Parse(articleURL); err == nil {
		if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
			return true
		}
	}
	return len(body) >= 5 && string(body[:5]) == "%PDF-"
}

// extractHTML pulls the title and main text from an article page using the
// site's configured selectors, falling back to readability extraction when
// the selectors yield too little.
func (f *Fetcher) extractHTML(body []byte, contentType, articleURL string) *Content {
	html := charset.Decode(body, contentType)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &Content{Title: articleURL, Text: ""}
	}

	config := f.table.Lookup(articleURL)

	doc.Find("script, style, nav, footer, header, aside").Remove()

	title := strings.TrimSpace(doc.Find(config.TitleSelector).First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = articleURL
	}

	text := collapseWhitespace(doc.Find(config.ContentSelector).Text())
	if len(text) < 100 {
		if extracted := f.extractReadable(html, articleURL); len(extracted) > len(text) {
			text = extracted
		}
	}
	if len(text) < 100 {
		if bodyText := collapseWhitespace(doc.Find("body").Text()); len(bodyText) > len(text) {
			text = bodyText
		}
	}

	var published time.Time
	if dateText := strings.TrimSpace(doc.Find(config.DateSelector).First().Text()); dateText != "" {
		published = dates.Parse(dateText)
	}

	return &Content{Title: title, Text: truncate(text, maxHTMLContent), PublishedDate: published}
}

func (f *Fetcher) extractReadable(html, articleURL string) string {
	parsed, err := url.Parse(articleURL)
	if err != nil {
		parsed = nil
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return ""
	}
	return collapseWhitespace(article.TextContent)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// filenameTitle derives a last-resort title from the URL path.
func filenameTitle(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return articleURL
	}
	name := path.Base(u.Path)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return articleURL
	}
	return name
}
