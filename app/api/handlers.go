package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casescout/casescout/app/database"
	"github.com/casescout/casescout/app/tasks"
)

func NewHandler(companyRepo database.CompanyRepository, articleRepo database.ArticleRepository,
	jobRepo database.JobRepository, settingsRepo database.SettingsRepository,
	reportGen ReportGeneratorInterface, scheduler tasks.TaskSchedulerInterface,
	runner ResearchRunner) *Handler {
	return &Handler{
		companyRepo:  companyRepo,
		articleRepo:  articleRepo,
		jobRepo:      jobRepo,
		settingsRepo: settingsRepo,
		reportGen:    reportGen,
		scheduler:    scheduler,
		runner:       runner,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if companies, err := h.companyRepo.GetEnabledCompanies(); err == nil {
		health["enabled_companies"] = len(companies)
	}

	if job, err := h.jobRepo.GetLatestJob(); err == nil && job != nil {
		health["latest_job"] = map[string]interface{}{
			"id":     job.ID,
			"status": job.Status,
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) CreateJob(c *gin.Context) {
	job := database.Job{
		ID:   uuid.NewString(),
		Type: database.JobTypeManual,
	}

	if err := h.jobRepo.CreateJob(job); err != nil {
		slog.Error("Database error", "operation", "create_job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	task := tasks.NewResearchJobTask(job.ID, h.runner)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing research job", "job_id", job.ID, "error", err)
		if markErr := h.jobRepo.MarkFailed(job.ID, err.Error()); markErr != nil {
			slog.Error("Failed to mark job as failed", "job_id", job.ID, "error", markErr)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue research job",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": database.JobPending,
	})
}

func (h *Handler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	jobs, err := h.jobRepo.ListJobs(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobInfo(job))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"jobs":  out,
		"total": len(out),
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.jobRepo.GetJob(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, jobInfo(*job))
}

func (h *Handler) ListArticles(c *gin.Context) {
	companyID, _ := strconv.ParseInt(c.Query("company_id"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	filter := database.ArticleFilter{
		CompanyID:            companyID,
		JobID:                c.Query("job_id"),
		Category:             c.Query("category"),
		IncludeInappropriate: c.Query("include_inappropriate") == "true",
		Limit:                limit,
		Offset:               offset,
	}

	articles, err := h.articleRepo.ListArticles(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(articles))
	for _, article := range articles {
		out = append(out, articleInfo(article))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"articles": out,
		"total":    len(out),
	})
}

func (h *Handler) UpdateArticleReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	article, err := h.articleRepo.GetArticle(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	if err := h.articleRepo.UpdateArticleReview(id, req.Reviewed); err != nil {
		slog.Error("Database error", "operation", "update_review", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "is_reviewed": req.Reviewed})
}

func (h *Handler) UpdateArticleClassification(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return
	}

	var req classificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	article, err := h.articleRepo.GetArticle(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	if err := h.articleRepo.UpdateArticleClassification(id, req.Category, req.BusinessArea, req.Tags); err != nil {
		slog.Error("Database error", "operation", "update_classification", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            id,
		"category":      req.Category,
		"business_area": req.BusinessArea,
		"tags":          req.Tags,
	})
}

// AddArticleFromURL runs a single URL through the research pipeline for one
// company as a background job of its own.
func (h *Handler) AddArticleFromURL(c *gin.Context) {
	var req fromURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	company, err := h.companyRepo.GetCompany(req.CompanyID)
	if err != nil {
		slog.Error("Database error", "operation", "get_company", "company_id", req.CompanyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	existing, err := h.articleRepo.FindByURL(req.URL)
	if err != nil {
		slog.Error("Database error", "operation", "find_article", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Article already exists", "article_id": existing.ID})
		return
	}

	job := database.Job{
		ID:   uuid.NewString(),
		Type: database.JobTypeURLAddition,
	}
	if err := h.jobRepo.CreateJob(job); err != nil {
		slog.Error("Database error", "operation", "create_job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	task := tasks.NewManualArticleTask(job.ID, req.CompanyID, req.URL, h.runner)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing article addition", "job_id", job.ID, "error", err)
		if markErr := h.jobRepo.MarkFailed(job.ID, err.Error()); markErr != nil {
			slog.Error("Failed to mark job as failed", "job_id", job.ID, "error", markErr)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue article addition",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": database.JobPending,
	})
}

func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.companyRepo.ListCompanies()
	if err != nil {
		slog.Error("Database error", "operation", "list_companies", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(companies))
	for _, company := range companies {
		out = append(out, companyInfo(company))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"companies": out,
		"total":     len(out),
	})
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	id, err := h.companyRepo.CreateCompany(database.Company{
		Name:    req.Name,
		NameEn:  req.NameEn,
		Country: req.Country,
		Region:  req.Region,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_company", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}

	var req updateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	company, err := h.companyRepo.GetCompany(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_company", "company_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	region := req.Region
	if region == "" {
		region = company.Region
	}
	updated := database.Company{
		ID:      id,
		Name:    req.Name,
		NameEn:  req.NameEn,
		Country: req.Country,
		Region:  region,
		Enabled: req.Enabled,
	}
	if err := h.companyRepo.UpdateCompany(updated); err != nil {
		slog.Error("Database error", "operation", "update_company", "company_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, companyInfo(updated))
}

func (h *Handler) DeleteCompany(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}

	company, err := h.companyRepo.GetCompany(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_company", "company_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	if err := h.companyRepo.DeleteCompany(id); err != nil {
		slog.Error("Database error", "operation", "delete_company", "company_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *Handler) ListSourceURLs(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}

	sources, err := h.companyRepo.GetSourceURLs(companyID)
	if err != nil {
		slog.Error("Database error", "operation", "list_source_urls", "company_id", companyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(sources))
	for _, source := range sources {
		out = append(out, map[string]interface{}{
			"id":         source.ID,
			"company_id": source.CompanyID,
			"url":        source.URL,
			"enabled":    source.Enabled,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"urls":  out,
		"total": len(out),
	})
}

func (h *Handler) AddSourceURL(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}

	var req sourceURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	company, err := h.companyRepo.GetCompany(companyID)
	if err != nil {
		slog.Error("Database error", "operation", "get_company", "company_id", companyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	id, err := h.companyRepo.AddSourceURL(companyID, req.URL)
	if err != nil {
		slog.Error("Database error", "operation", "add_source_url", "company_id", companyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "company_id": companyID, "url": req.URL})
}

func (h *Handler) DeleteSourceURL(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("urlID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source url id"})
		return
	}

	if err := h.companyRepo.DeleteSourceURL(id); err != nil {
		slog.Error("Database error", "operation", "delete_source_url", "source_url_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *Handler) GetCompanySearchSettings(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}

	settings, err := h.companyRepo.GetSearchSettings(companyID)
	if err != nil {
		slog.Error("Database error", "operation", "get_search_settings", "company_id", companyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, searchSettingsInfo(*settings))
}

func (h *Handler) UpdateCompanySearchSettings(c *gin.Context) {
	companyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company id"})
		return
	}

	var req searchSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	company, err := h.companyRepo.GetCompany(companyID)
	if err != nil {
		slog.Error("Database error", "operation", "get_company", "company_id", companyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	settings := database.SearchSettings{
		CompanyID:          companyID,
		UseLLMLinkFallback: req.UseLLMLinkFallback,
		ExtractDateWithLLM: req.ExtractDateWithLLM,
		ExtraKeywords:      req.ExtraKeywords,
	}
	if err := h.companyRepo.UpsertSearchSettings(settings); err != nil {
		slog.Error("Database error", "operation", "upsert_search_settings", "company_id", companyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, searchSettingsInfo(settings))
}

func (h *Handler) GetScheduleSettings(c *gin.Context) {
	settings, err := h.settingsRepo.GetScheduleSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, scheduleInfo(*settings))
}

func (h *Handler) UpdateScheduleSettings(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	settings := database.ScheduleSettings{
		Enabled:      req.Enabled,
		ScheduleType: req.ScheduleType,
		ScheduleDay:  req.ScheduleDay,
		ScheduleHour: req.ScheduleHour,
	}
	if settings.ScheduleType == "" {
		settings.ScheduleType = database.ScheduleWeekly
	}

	if req.SearchStartDate != nil {
		start, err := time.Parse("2006-01-02", *req.SearchStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search_start_date, expected YYYY-MM-DD"})
			return
		}
		settings.SearchStartDate = &start
	}
	if req.SearchEndDate != nil {
		end, err := time.Parse("2006-01-02", *req.SearchEndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search_end_date, expected YYYY-MM-DD"})
			return
		}
		settings.SearchEndDate = &end
	}

	if err := h.settingsRepo.UpdateScheduleSettings(settings); err != nil {
		slog.Error("Database error", "operation", "update_schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	updated, err := h.settingsRepo.GetScheduleSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_schedule", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, scheduleInfo(*updated))
}

// GetReport renders the markdown digest. Range comes from start/end query
// parameters, falling back to the configured search window.
func (h *Handler) GetReport(c *gin.Context) {
	start, end, err := h.reportRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := h.reportGen.Generate(start, end)
	if err != nil {
		slog.Error("Report generation error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.String(http.StatusOK, out)
}

func (h *Handler) reportRange(c *gin.Context) (time.Time, time.Time, error) {
	startParam := c.Query("start")
	endParam := c.Query("end")

	if startParam != "" && endParam != "" {
		start, err := time.Parse("2006-01-02", startParam)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("start")
		}
		end, err := time.Parse("2006-01-02", endParam)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("end")
		}
		return start, end, nil
	}

	start, end, err := h.settingsRepo.GetSearchWindow()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, errNoRange
	}
	return start, end, nil
}

var errNoRange = errors.New("no date range: pass start/end or configure the search window")

func errInvalidDate(name string) error {
	return fmt.Errorf("invalid %s date, expected YYYY-MM-DD", name)
}

func jobInfo(job database.Job) map[string]interface{} {
	info := map[string]interface{}{
		"id":                  job.ID,
		"type":                job.Type,
		"status":              job.Status,
		"total_companies":     job.TotalCompanies,
		"processed_companies": job.ProcessedCompanies,
		"articles_found":      job.ArticlesFound,
		"created_at":          job.CreatedAt,
	}
	if job.Error != "" {
		info["error"] = job.Error
	}
	if job.StartedAt != nil {
		info["started_at"] = job.StartedAt
	}
	if job.CompletedAt != nil {
		info["completed_at"] = job.CompletedAt
	}
	return info
}

func articleInfo(article database.Article) map[string]interface{} {
	info := map[string]interface{}{
		"id":             article.ID,
		"company_id":     article.CompanyID,
		"job_id":         article.JobID,
		"url":            article.URL,
		"title":          article.Title,
		"summary":        article.Summary,
		"source":         article.Source,
		"category":       article.Category,
		"business_area":  article.BusinessArea,
		"tags":           article.Tags,
		"key_points":     article.KeyPoints,
		"outcomes":       article.Outcomes,
		"technology":     article.Technology,
		"published_date": article.PublishedDate.Format("2006-01-02"),
		"date_validated": article.DateValidated,
		"is_reviewed":    article.IsReviewed,
	}
	if article.IsInappropriate {
		info["is_inappropriate"] = true
		info["inappropriate_reason"] = article.InappropriateReason
	}
	return info
}

func companyInfo(company database.Company) map[string]interface{} {
	return map[string]interface{}{
		"id":      company.ID,
		"name":    company.Name,
		"name_en": company.NameEn,
		"country": company.Country,
		"region":  company.Region,
		"enabled": company.Enabled,
	}
}

func searchSettingsInfo(settings database.SearchSettings) map[string]interface{} {
	return map[string]interface{}{
		"company_id":            settings.CompanyID,
		"use_llm_link_fallback": settings.UseLLMLinkFallback,
		"extract_date_with_llm": settings.ExtractDateWithLLM,
		"extra_keywords":        settings.ExtraKeywords,
	}
}

func scheduleInfo(settings database.ScheduleSettings) map[string]interface{} {
	info := map[string]interface{}{
		"enabled":       settings.Enabled,
		"schedule_type": settings.ScheduleType,
		"schedule_day":  settings.ScheduleDay,
		"schedule_hour": settings.ScheduleHour,
	}
	if settings.SearchStartDate != nil {
		info["search_start_date"] = settings.SearchStartDate.Format("2006-01-02")
	}
	if settings.SearchEndDate != nil {
		info["search_end_date"] = settings.SearchEndDate.Format("2006-01-02")
	}
	return info
}
