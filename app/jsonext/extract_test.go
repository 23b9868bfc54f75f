package jsonext

import "testing"

func TestExtractObject_SurroundingProse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		key   string
		want  float64
	}{
		{
			name:  "prose before and after",
			input: `Result: {"a":1} thanks`,
			key:   "a",
			want:  1,
		},
		{
			name:  "markdown fence",
			input: "```json\n{\"a\": 2}\n```",
			key:   "a",
			want:  2,
		},
		{
			name:  "bare object",
			input: `{"a":3}`,
			key:   "a",
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractObject(tt.input)
			if got == nil {
				t.Fatalf("ExtractObject(%q) returned nil", tt.input)
			}
			if got[tt.key] != tt.want {
				t.Errorf("Expected %v for key %q, got %v", tt.want, tt.key, got[tt.key])
			}
		})
	}
}

func TestExtractObject_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"no json here",
		"{broken",
		"} reversed {",
		`{"a": }`,
	}

	for _, input := range inputs {
		if got := ExtractObject(input); got != nil {
			t.Errorf("ExtractObject(%q) = %v, expected nil", input, got)
		}
	}
}

func TestExtractArray(t *testing.T) {
	got := ExtractArray(`Here you go: [{"title":"x","url":"y"}] done`)
	if len(got) != 1 {
		t.Fatalf("Expected 1 element, got %d", len(got))
	}

	if got := ExtractArray("nothing here"); got != nil {
		t.Errorf("Expected nil for input without array, got %v", got)
	}
}

func TestValueHelpers(t *testing.T) {
	data := ExtractObject(`{"name":"press", "ok":true, "tags":["ai","dx", 42]}`)

	if got := String(data, "name", ""); got != "press" {
		t.Errorf("String = %q, expected %q", got, "press")
	}
	if got := String(data, "missing", "fallback"); got != "fallback" {
		t.Errorf("String fallback = %q", got)
	}
	if !Bool(data, "ok", false) {
		t.Error("Bool should read true")
	}
	tags := Strings(data, "tags")
	if len(tags) != 2 || tags[0] != "ai" || tags[1] != "dx" {
		t.Errorf("Strings should skip non-string elements, got %v", tags)
	}

	if got := String(nil, "k", "d"); got != "d" {
		t.Errorf("String on nil map should return fallback, got %q", got)
	}
}
