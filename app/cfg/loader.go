package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./casescout.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SitesFile         string `long:"sites-file" env:"SITES_FILE" default:"./sites.yaml" description:"Site scraping configuration file (optional)"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Schedule check interval in seconds"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of background task workers"`

	// Ollama configuration
	OllamaURL          string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Ollama base URL"`
	OllamaModel        string `long:"ollama-model" env:"OLLAMA_MODEL" default:"gemma3:4b" description:"Ollama model name"`
	OllamaProbeTTL     int    `long:"ollama-probe-ttl" env:"OLLAMA_PROBE_TTL" default:"0" description:"Availability probe cache TTL in seconds (0 = probe once and cache forever)"`
	SearchFilterEnable bool   `long:"search-filter" env:"SEARCH_FILTER" description:"Filter web search results through the LLM relevance check"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"CaseScout/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Tokyo)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		SitesFile:          raw.SitesFile,
		SchedulerInterval:  raw.SchedulerInterval,
		WorkerCount:        raw.WorkerCount,
		OllamaURL:          raw.OllamaURL,
		OllamaModel:        raw.OllamaModel,
		OllamaProbeTTL:     raw.OllamaProbeTTL,
		SearchFilterEnable: raw.SearchFilterEnable,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Used by
// tests that need cfg.Get to work without command-line state.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
