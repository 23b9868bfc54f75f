// Package dates extracts publication dates from text and URL fragments.
package dates

import (
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// Press sites publish dates in a handful of shapes; ordered from most to
// least specific so "2024-03-05" is not swallowed by the bare-digits form.
var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`),
	regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`),
	regexp.MustCompile(`(\d{4})\.(\d{1,2})\.(\d{1,2})`),
	regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`),
}

// newsPathPattern matches the /news{yyyy}/.../news{mmdd} URL convention used
// by several corporate press archives.
var newsPathPattern = regexp.MustCompile(`/news(20\d{2})/.+?/news(\d{4})`)

// FromText scans text for a recognizable date, returning the zero time when
// none is found. Matches with impossible month/day values are skipped.
func FromText(text string) time.Time {
	if text == "" {
		return time.Time{}
	}

	for _, pattern := range textPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		if d, ok := makeDate(year, month, day); ok {
			return d
		}
	}
	return time.Time{}
}

// FromURL extracts a date from common URL conventions: the
// /news{yyyy}/.../news{mmdd} path form first, then any textual pattern
// appearing in the URL itself.
func FromURL(url string) time.Time {
	if url == "" {
		return time.Time{}
	}

	if match := newsPathPattern.FindStringSubmatch(url); match != nil {
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2][:2])
		day, _ := strconv.Atoi(match[2][2:])
		if d, ok := makeDate(year, month, day); ok {
			return d
		}
		return time.Time{}
	}

	return FromText(url)
}

// Parse handles free-form date strings scraped from page elements, trying
// the regex patterns first and falling back to lenient parsing.
func Parse(text string) time.Time {
	if d := FromText(text); !d.IsZero() {
		return d
	}
	parsed, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}
	}
	return day(parsed)
}

// InWindow reports whether d falls inside [start, end]. Zero bounds are open.
func InWindow(d, start, end time.Time) bool {
	if d.IsZero() {
		return false
	}
	if !start.IsZero() && d.Before(day(start)) {
		return false
	}
	if !end.IsZero() && d.After(day(end)) {
		return false
	}
	return true
}

func makeDate(year, month, day int) (time.Time, bool) {
	if year < 1900 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
