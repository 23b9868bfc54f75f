// Package sites holds per-site scraping configuration: CSS selectors for
// press list pages and article pages, keyed by domain substring.
package sites

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the selector set for one site (or the default).
type Config struct {
	ListSelector    string `yaml:"list_selector"`
	TitleSelector   string `yaml:"title_selector"`
	ContentSelector string `yaml:"content_selector"`
	DateSelector    string `yaml:"date_selector"`
}

// Rule pairs a domain-substring predicate with its config.
type Rule struct {
	Match  string `yaml:"match"`
	Config Config `yaml:"config"`
}

// Table is an ordered rule list with a mandatory default terminal entry.
// Lookup walks the rules in order and returns the first match; rules are
// sorted most-specific (longest match string) first at construction.
type Table struct {
	rules      []Rule
	defaultCfg Config
}

// DefaultConfig is the terminal entry applied when no rule matches.
func DefaultConfig() Config {
	return Config{
		ListSelector:    "a[href*='news'], a[href*='press'], a[href*='release']",
		TitleSelector:   "h1, .title, .headline",
		ContentSelector: "article, .content, main, .body",
		DateSelector:    ".date, time, .published",
	}
}

// NewTable builds a table from rules plus the default terminal entry.
func NewTable(rules []Rule) *Table {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Match) > len(sorted[j].Match)
	})

	return &Table{
		rules:      sorted,
		defaultCfg: DefaultConfig(),
	}
}

// Load reads site rules from a YAML file. A missing file is not an error;
// the table then holds only the default entry.
func Load(path string) (*Table, error) {
	if path == "" {
		return NewTable(nil), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewTable(nil), nil
		}
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var file struct {
		Sites []Rule `yaml:"sites"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sites file: %w", err)
	}

	for i, rule := range file.Sites {
		if rule.Match == "" {
			return nil, fmt.Errorf("sites file entry %d has no match pattern", i)
		}
	}

	return NewTable(file.Sites), nil
}

// Lookup returns the config for the first rule whose match string appears in
// the URL, falling back to the default entry. Fields left empty by a rule
// inherit the default selectors.
func (t *Table) Lookup(url string) Config {
	for _, rule := range t.rules {
		if strings.Contains(url, rule.Match) {
			return fillDefaults(rule.Config, t.defaultCfg)
		}
	}
	return t.defaultCfg
}

func fillDefaults(cfg, def Config) Config {
	if cfg.ListSelector == "" {
		cfg.ListSelector = def.ListSelector
	}
	if cfg.TitleSelector == "" {
		cfg.TitleSelector = def.TitleSelector
	}
	if cfg.ContentSelector == "" {
		cfg.ContentSelector = def.ContentSelector
	}
	if cfg.DateSelector == "" {
		cfg.DateSelector = def.DateSelector
	}
	return cfg
}
