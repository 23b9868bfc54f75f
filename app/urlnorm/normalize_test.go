package urlnorm

import "testing"

func TestNormalize_StripsTrackingParams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "utm parameters removed",
			input:    "https://a.com/x/?utm_source=y&id=1",
			expected: "https://a.com/x?id=1",
		},
		{
			name:     "all tracking keys removed",
			input:    "https://example.com/news?gclid=abc&fbclid=def&msclkid=1&mc_cid=2&_ga=3",
			expected: "https://example.com/news",
		},
		{
			name:     "unknown utm prefix removed",
			input:    "https://example.com/page?utm_custom=zzz&q=ai",
			expected: "https://example.com/page?q=ai",
		},
		{
			name:     "remaining query order preserved",
			input:    "https://example.com/p?b=2&utm_medium=m&a=1",
			expected: "https://example.com/p?b=2&a=1",
		},
		{
			name:     "no query untouched",
			input:    "https://example.com/press/2024",
			expected: "https://example.com/press/2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize_LowercasesSchemeAndHost(t *testing.T) {
	got := Normalize("HTTPS://Example.COM/News")
	expected := "https://example.com/News"
	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestNormalize_RemovesFragment(t *testing.T) {
	got := Normalize("https://example.com/page#section-2")
	if got != "https://example.com/page" {
		t.Errorf("Fragment should be removed, got %q", got)
	}
}

func TestNormalize_TrailingSlash(t *testing.T) {
	if got := Normalize("https://example.com/news/"); got != "https://example.com/news" {
		t.Errorf("Trailing slash on non-root path should be trimmed, got %q", got)
	}
	if got := Normalize("https://example.com/"); got != "https://example.com/" {
		t.Errorf("Root path slash should be kept, got %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"https://a.com/x/?utm_source=y&id=1",
		"HTTP://B.COM/Path/#frag",
		"https://example.com/news/2024/item?a=1&b=2",
		"",
		"not a url at all",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}
