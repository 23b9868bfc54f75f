package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/casescout/casescout/app/sites"
)

func newTestFetcher() *Fetcher {
	f := NewFetcher(sites.NewTable(nil), "test-agent")
	f.retryCfg.InitialDelay = 1
	f.retryCfg.MaxDelay = 1
	return f
}

func TestFetchContent_HTMLSelectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Page title</title></head><body>
			<nav>Home About Contact</nav>
			<h1>Bank rolls out AI assistant</h1>
			<article>The bank announced a generative AI assistant for its
			contact centers, trained on internal policy documents.</article>
			<footer>Copyright</footer>
			<script>var x = 1;</script>
		</body></html>`))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL+"/news/ai.html")
	if err != nil {
		t.Fatalf("FetchContent failed: %v", err)
	}

	if content.PDF {
		t.Error("HTML page should not be flagged as PDF")
	}
	if content.Title != "Bank rolls out AI assistant" {
		t.Errorf("Expected h1 title, got %q", content.Title)
	}
	if !strings.Contains(content.Text, "generative AI assistant") {
		t.Errorf("Article text missing from content: %q", content.Text)
	}
	if strings.Contains(content.Text, "var x = 1") {
		t.Error("Script content should be stripped")
	}
	if strings.Contains(content.Text, "Home About Contact") {
		t.Error("Nav content should be stripped")
	}
}

func TestFetchContent_HTMLDateFromSelector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body>
			<h1>AI assistant launched</h1>
			<time>2024-03-12</time>
			<article>The bank announced a generative AI assistant for its
			contact centers, trained on internal policy documents.</article>
		</body></html>`))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL+"/news/ai.html")
	if err != nil {
		t.Fatal(err)
	}

	expected := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	if !content.PublishedDate.Equal(expected) {
		t.Errorf("Expected date %v from selector, got %v", expected, content.PublishedDate)
	}
}

func TestFetchContent_HTMLWithoutDateYieldsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><article>Undated announcement about a
			generative AI assistant, long enough to count as content.</article></body></html>`))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !content.PublishedDate.IsZero() {
		t.Errorf("Expected zero date for undated page, got %v", content.PublishedDate)
	}
}

func TestFetchContent_TitleFallsBackToDocumentTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Fallback title</title></head><body>
			<article>Body text long enough to keep the extractor away from
			the fallbacks, repeated for padding. Body text long enough.</article>
		</body></html>`))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if content.Title != "Fallback title" {
		t.Errorf("Expected document title fallback, got %q", content.Title)
	}
}

func TestFetchContent_BodyFallbackWhenSelectorsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div><p>Plain page with no article
			wrapper but enough prose that the body tier should pick it up
			as content for downstream classification.</p></div></body></html>`))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(content.Text, "downstream classification") {
		t.Errorf("Body text fallback should capture prose, got %q", content.Text)
	}
}

func TestFetchContent_CapsHTMLContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><article>" + strings.Repeat("word ", 3000) + "</article></body></html>"))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(content.Text) > maxHTMLContent {
		t.Errorf("Content length %d exceeds cap %d", len(content.Text), maxHTMLContent)
	}
}

func TestFetchContent_ClientErrorFailsFast(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := newTestFetcher().FetchContent(context.Background(), server.URL); err == nil {
		t.Fatal("Expected error for 404")
	}
	if calls != 1 {
		t.Errorf("404 should not be retried, got %d calls", calls)
	}
}

func TestFetchContent_ServerErrorRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<html><body><article>Recovered after transient errors, content served.</article></body></html>"))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected recovery after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if !strings.Contains(content.Text, "Recovered") {
		t.Errorf("Unexpected content %q", content.Text)
	}
}

func TestFetchContent_PDFByContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 not actually parseable"))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL+"/ir/results_2024.pdf")
	if err != nil {
		t.Fatal(err)
	}

	if !content.PDF {
		t.Error("application/pdf response should be flagged as PDF")
	}
	if content.Text != pdfPlaceholder {
		t.Errorf("Unparseable PDF should yield placeholder text, got %q", content.Text)
	}
	if content.Title != "results 2024" {
		t.Errorf("Expected filename-derived title, got %q", content.Title)
	}
}

func TestFetchContent_PDFDateFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 not actually parseable"))
	}))
	defer server.Close()

	content, err := newTestFetcher().FetchContent(context.Background(), server.URL+"/news2024/pdf/news0315.pdf")
	if err != nil {
		t.Fatal(err)
	}

	expected := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !content.PublishedDate.Equal(expected) {
		t.Errorf("Expected URL-derived date %v, got %v", expected, content.PublishedDate)
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		body        string
		expected    bool
	}{
		{"https://a.com/report.pdf", "text/html", "", true},
		{"https://a.com/report.PDF", "", "", true},
		{"https://a.com/page", "application/pdf", "", true},
		{"https://a.com/page", "application/pdf; charset=binary", "", true},
		{"https://a.com/page", "text/html", "%PDF-1.7", true},
		{"https://a.com/page.html", "text/html", "<html>", false},
	}

	for _, tt := range tests {
		if got := isPDF(tt.url, tt.contentType, []byte(tt.body)); got != tt.expected {
			t.Errorf("isPDF(%q, %q) = %v, expected %v", tt.url, tt.contentType, got, tt.expected)
		}
	}
}

func TestFilenameTitle(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://a.com/ir/2024-results_briefing.pdf", "2024 results briefing"},
		{"https://a.com/news/launch.html", "launch"},
		{"https://a.com/", "https://a.com/"},
	}

	for _, tt := range tests {
		if got := filenameTitle(tt.url); got != tt.expected {
			t.Errorf("filenameTitle(%q) = %q, expected %q", tt.url, got, tt.expected)
		}
	}
}

func TestExtractPDF_GarbageData(t *testing.T) {
	content := extractPDF([]byte("not a pdf at all"), "https://a.com/doc/scan_0042.pdf")
	if !content.PDF {
		t.Error("PDF flag should be set")
	}
	if content.Text != pdfPlaceholder {
		t.Errorf("Expected placeholder, got %q", content.Text)
	}
	if content.Title != "scan 0042" {
		t.Errorf("Expected filename title, got %q", content.Title)
	}
}
