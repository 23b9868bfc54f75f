package sites

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookup_FirstMatchWins_MostSpecificFirst(t *testing.T) {
	table := NewTable([]Rule{
		{Match: "example.com", Config: Config{ListSelector: ".generic a"}},
		{Match: "press.example.com", Config: Config{ListSelector: ".specific a"}},
	})

	got := table.Lookup("https://press.example.com/news")
	if got.ListSelector != ".specific a" {
		t.Errorf("Longer match should win, got %q", got.ListSelector)
	}

	got = table.Lookup("https://www.example.com/news")
	if got.ListSelector != ".generic a" {
		t.Errorf("Expected generic rule, got %q", got.ListSelector)
	}
}

func TestLookup_DefaultTerminal(t *testing.T) {
	table := NewTable(nil)

	got := table.Lookup("https://unknown.example.org/press")
	if got.ListSelector == "" || got.ContentSelector == "" {
		t.Error("Default config should have non-empty selectors")
	}
	if got != DefaultConfig() {
		t.Errorf("Unmatched URL should get the default config, got %+v", got)
	}
}

func TestLookup_PartialRuleInheritsDefaults(t *testing.T) {
	table := NewTable([]Rule{
		{Match: "acme.co", Config: Config{ListSelector: "ul.news a"}},
	})

	got := table.Lookup("https://acme.co/press")
	if got.ListSelector != "ul.news a" {
		t.Errorf("Rule selector should be kept, got %q", got.ListSelector)
	}
	if got.DateSelector != DefaultConfig().DateSelector {
		t.Errorf("Empty fields should inherit defaults, got %q", got.DateSelector)
	}
}

func TestLoad_MissingFileYieldsDefaultTable(t *testing.T) {
	table, err := Load("/nonexistent/sites.yaml")
	if err != nil {
		t.Fatalf("Missing file should not be an error, got %v", err)
	}
	if table.Lookup("https://anything.com") != DefaultConfig() {
		t.Error("Table from missing file should only hold the default")
	}
}

func TestLoad_ParsesRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.yaml")
	content := `sites:
  - match: acmebank.example
    config:
      list_selector: "div.news-list a"
      date_selector: ".news-date, time"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := table.Lookup("https://acmebank.example/press/")
	if got.ListSelector != "div.news-list a" {
		t.Errorf("Expected configured selector, got %q", got.ListSelector)
	}
	if got.DateSelector != ".news-date, time" {
		t.Errorf("Expected configured date selector, got %q", got.DateSelector)
	}
}

func TestLoad_RejectsRuleWithoutMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sites.yaml")
	if err := os.WriteFile(path, []byte("sites:\n  - config:\n      list_selector: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Rule without match pattern should be rejected")
	}
}
