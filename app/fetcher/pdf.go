package fetcher

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/casescout/casescout/app/dates"
)

// maxPDFContent caps text extracted from a PDF. PDFs run longer than press
// pages, so the cap is higher than the HTML one.
const maxPDFContent = 10000

// pdfPlaceholder stands in for PDFs that contain no extractable text,
// typically scanned or image-only documents.
const pdfPlaceholder = "PDF document with no extractable text (image-based or scanned)"

// extractPDF reduces a PDF to title plus plain text. Extraction is
// page-tolerant: a page that fails to decode is skipped rather than failing
// the whole document.
func extractPDF(data []byte, articleURL string) *Content {
	text, metaTitle := readPDF(data)

	title := metaTitle
	if title == "" {
		title = firstLine(text)
	}
	if title == "" {
		title = filenameTitle(articleURL)
	}

	if text == "" {
		text = pdfPlaceholder
	}

	// PDF bodies rarely carry machine-readable dates; the URL convention is
	// the only reliable source.
	return &Content{
		Title:         title,
		Text:          truncate(text, maxPDFContent),
		PublishedDate: dates.FromURL(articleURL),
		PDF:           true,
	}
}

func readPDF(data []byte) (text, title string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("PDF parsing panicked", "panic", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ""
	}

	if info := reader.Trailer().Key("Info"); info.Kind() == pdf.Dict {
		if v := info.Key("Title"); v.Kind() == pdf.String {
			title = strings.TrimSpace(v.Text())
		}
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if builder.Len() >= maxPDFContent {
			break
		}
		pageText := extractPage(reader, i)
		if pageText == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(pageText)
	}

	return strings.TrimSpace(builder.String()), title
}

// extractPage isolates per-page panics so one broken page cannot take down
// the rest of the document.
func extractPage(reader *pdf.Reader, number int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("PDF page extraction panicked", "page", number, "panic", r)
			text = ""
		}
	}()

	page := reader.Page(number)
	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		slog.Debug("PDF page extraction failed", "page", number, "error", err)
		return ""
	}
	return strings.TrimSpace(content)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 200 {
			line = line[:200]
		}
		return line
	}
	return ""
}
