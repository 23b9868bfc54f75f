package database

import (
	"time"
)

// Article sources.
const (
	SourceSearch    = "search"
	SourcePressList = "press_list"
	SourceManual    = "manual"
)

// Job types.
const (
	JobTypeManual      = "manual"
	JobTypeScheduled   = "scheduled"
	JobTypeURLAddition = "url_addition"
)

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Schedule types.
const (
	ScheduleDaily  = "daily"
	ScheduleWeekly = "weekly"
)

type Company struct {
	ID        int64
	Name      string
	NameEn    string // English display name; enables the secondary English-keyword search
	Country   string
	Region    string // DuckDuckGo region code, e.g. "us-en", "jp-jp"
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SourceURL is one press/news list page registered for a company.
type SourceURL struct {
	ID        int64
	CompanyID int64
	URL       string
	Enabled   bool
	CreatedAt time.Time
}

// SearchSettings holds per-company research toggles.
type SearchSettings struct {
	CompanyID          int64
	UseLLMLinkFallback bool
	ExtractDateWithLLM bool
	ExtraKeywords      string // comma-separated additions to the query keywords
}

type Article struct {
	ID                  int64
	CompanyID           int64
	JobID               string
	URL                 string
	NormalizedURL       string
	Title               string
	Summary             string
	Content             string
	Source              string // search, press_list, manual
	Category            string
	BusinessArea        string
	Tags                []string
	KeyPoints           []string
	Outcomes            string
	Technology          string
	PublishedDate       time.Time // always resolved before save
	DateValidated       bool
	IsInappropriate     bool
	InappropriateReason string
	IsReviewed          bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Job struct {
	ID                 string
	Type               string // manual, scheduled
	Status             string // pending, running, completed, failed
	TotalCompanies     int
	ProcessedCompanies int
	ArticlesFound      int
	Error              string
	CreatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
}

type ScheduleSettings struct {
	Enabled         bool
	ScheduleType    string // daily, weekly
	ScheduleDay     int    // 0 = Sunday; ignored for daily
	ScheduleHour    int
	SearchStartDate *time.Time
	SearchEndDate   *time.Time
	UpdatedAt       time.Time
}
