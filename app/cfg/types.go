package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port              string
	SitesFile         string
	SchedulerInterval int
	WorkerCount       int

	// Ollama configuration
	OllamaURL          string
	OllamaModel        string
	OllamaProbeTTL     int
	SearchFilterEnable bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
