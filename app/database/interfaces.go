package database

import (
	"time"
)

type CompanyRepository interface {
	GetCompany(id int64) (*Company, error)
	GetEnabledCompanies() ([]Company, error)
	ListCompanies() ([]Company, error)
	CreateCompany(company Company) (int64, error)
	UpdateCompany(company Company) error
	DeleteCompany(id int64) error

	GetSourceURLs(companyID int64) ([]SourceURL, error)
	AddSourceURL(companyID int64, url string) (int64, error)
	DeleteSourceURL(id int64) error

	GetSearchSettings(companyID int64) (*SearchSettings, error)
	UpsertSearchSettings(settings SearchSettings) error
}

// ArticleFilter narrows ListArticles; zero values leave a dimension open.
type ArticleFilter struct {
	CompanyID            int64
	JobID                string
	Category             string
	IncludeInappropriate bool
	Limit                int
	Offset               int
}

type ArticleRepository interface {
	GetArticle(id int64) (*Article, error)
	FindByNormalizedURL(normalizedURL string) (*Article, error)
	FindByURL(url string) (*Article, error)
	StoreArticle(article Article) (int64, error)
	ListArticles(filter ArticleFilter) ([]Article, error)
	UpdateArticleReview(id int64, reviewed bool) error
	UpdateArticleClassification(id int64, category, businessArea string, tags []string) error
	ListForReport(start, end time.Time) ([]Article, error)
}

type JobRepository interface {
	CreateJob(job Job) error
	GetJob(id string) (*Job, error)
	GetLatestJob() (*Job, error)
	ListJobs(limit int) ([]Job, error)
	MarkStarted(id string, total int) error
	UpdateProgress(id string, processed, articlesFound int) error
	MarkCompleted(id string, errorMsg string) error
	MarkFailed(id string, errorMsg string) error
}

type SettingsRepository interface {
	GetScheduleSettings() (*ScheduleSettings, error)
	UpdateScheduleSettings(settings ScheduleSettings) error
	GetSearchWindow() (start, end time.Time, err error)
}
