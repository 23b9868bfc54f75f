package api

import (
	"time"

	"github.com/casescout/casescout/app/database"
	"github.com/casescout/casescout/app/tasks"
)

type ReportGeneratorInterface interface {
	Generate(start, end time.Time) (string, error)
}

// ResearchRunner covers both background entry points: full research jobs
// and single-URL additions.
type ResearchRunner interface {
	tasks.JobRunner
	tasks.ManualArticleRunner
}

type Handler struct {
	companyRepo  database.CompanyRepository
	articleRepo  database.ArticleRepository
	jobRepo      database.JobRepository
	settingsRepo database.SettingsRepository
	reportGen    ReportGeneratorInterface
	scheduler    tasks.TaskSchedulerInterface
	runner       ResearchRunner
}

type createCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	NameEn  string `json:"name_en"`
	Country string `json:"country"`
	Region  string `json:"region"`
}

type updateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	NameEn  string `json:"name_en"`
	Country string `json:"country"`
	Region  string `json:"region"`
	Enabled bool   `json:"enabled"`
}

type fromURLRequest struct {
	CompanyID int64  `json:"company_id" binding:"required"`
	URL       string `json:"url" binding:"required,url"`
}

type sourceURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type searchSettingsRequest struct {
	UseLLMLinkFallback bool   `json:"use_llm_link_fallback"`
	ExtractDateWithLLM bool   `json:"extract_date_with_llm"`
	ExtraKeywords      string `json:"extra_keywords"`
}

type reviewRequest struct {
	Reviewed bool `json:"reviewed"`
}

type classificationRequest struct {
	Category     string   `json:"category" binding:"required"`
	BusinessArea string   `json:"business_area"`
	Tags         []string `json:"tags"`
}

type scheduleRequest struct {
	Enabled         bool    `json:"enabled"`
	ScheduleType    string  `json:"schedule_type" binding:"omitempty,oneof=daily weekly"`
	ScheduleDay     int     `json:"schedule_day" binding:"min=0,max=6"`
	ScheduleHour    int     `json:"schedule_hour" binding:"min=0,max=23"`
	SearchStartDate *string `json:"search_start_date"`
	SearchEndDate   *string `json:"search_end_date"`
}
