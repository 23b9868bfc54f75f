package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const duckduckgoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider queries DuckDuckGo's HTML endpoint, which needs no API
// key, and scrapes the result list.
type DuckDuckGoProvider struct {
	httpClient *http.Client
	userAgent  string
}

var _ Provider = (*DuckDuckGoProvider)(nil)

func NewDuckDuckGoProvider(userAgent string) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  userAgent,
	}
}

func (p *DuckDuckGoProvider) Search(ctx context.Context, query, region, timelimit string, maxResults int) ([]Result, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", region)
	if timelimit != "" {
		form.Set("df", timelimit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, duckduckgoEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	var results []Result
	doc.Find("div.result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}

		anchor := sel.Find("a.result__a").First()
		href, _ := anchor.Attr("href")
		title := strings.TrimSpace(anchor.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		target := resolveRedirect(href)
		if title == "" || target == "" {
			return true
		}

		results = append(results, Result{
			Title:   title,
			URL:     target,
			Snippet: snippet,
		})
		return true
	})

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<encoded> redirect links into
// the destination URL.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}

	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		if decoded, err := url.QueryUnescape(uddg); err == nil {
			return decoded
		}
	}

	if parsed.Scheme == "" {
		return "https:" + href
	}
	return href
}
