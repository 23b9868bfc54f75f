package database

import (
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func TestRunMigrations(t *testing.T) {
	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	defer db.Close()

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	if dirty {
		t.Error("Migrations should not leave the database dirty")
	}
	if version == 0 {
		t.Error("Expected non-zero migration version")
	}
}

func TestCompanyRepository_CRUD(t *testing.T) {
	repo := NewCompanyRepository(newTestDB(t))

	id, err := repo.CreateCompany(Company{Name: "アクメ銀行", NameEn: "Acme Bank", Country: "Japan", Region: "jp-jp"})
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}

	company, err := repo.GetCompany(id)
	if err != nil {
		t.Fatalf("GetCompany failed: %v", err)
	}
	if company == nil {
		t.Fatal("Expected company, got nil")
	}
	if company.Name != "アクメ銀行" || company.Region != "jp-jp" {
		t.Errorf("Unexpected company %+v", company)
	}
	if company.NameEn != "Acme Bank" {
		t.Errorf("Expected name_en Acme Bank, got %q", company.NameEn)
	}
	if company.Country != "Japan" {
		t.Errorf("Expected country Japan, got %q", company.Country)
	}
	if !company.Enabled {
		t.Error("New companies should be enabled by default")
	}

	if err := repo.UpdateCompany(Company{ID: id, Name: "アクメ銀行", NameEn: "Acme Bank Ltd", Country: "Japan", Region: "jp-jp", Enabled: false}); err != nil {
		t.Fatalf("UpdateCompany failed: %v", err)
	}

	company, err = repo.GetCompany(id)
	if err != nil {
		t.Fatal(err)
	}
	if company.NameEn != "Acme Bank Ltd" {
		t.Errorf("Expected updated name_en Acme Bank Ltd, got %q", company.NameEn)
	}

	enabled, err := repo.GetEnabledCompanies()
	if err != nil {
		t.Fatal(err)
	}
	if len(enabled) != 0 {
		t.Errorf("Disabled company should not be listed, got %d", len(enabled))
	}

	all, err := repo.ListCompanies()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 company in full list, got %d", len(all))
	}

	if err := repo.DeleteCompany(id); err != nil {
		t.Fatal(err)
	}
	company, err = repo.GetCompany(id)
	if err != nil {
		t.Fatal(err)
	}
	if company != nil {
		t.Error("Deleted company should not be found")
	}
}

func TestCompanyRepository_DefaultRegion(t *testing.T) {
	repo := NewCompanyRepository(newTestDB(t))

	id, err := repo.CreateCompany(Company{Name: "Acme", Region: ""})
	if err != nil {
		t.Fatal(err)
	}
	company, err := repo.GetCompany(id)
	if err != nil {
		t.Fatal(err)
	}
	if company.Region != "us-en" {
		t.Errorf("Expected default region us-en, got %q", company.Region)
	}
}

func TestCompanyRepository_SourceURLs(t *testing.T) {
	repo := NewCompanyRepository(newTestDB(t))

	companyID, err := repo.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.AddSourceURL(companyID, "https://acme.example/press"); err != nil {
		t.Fatalf("AddSourceURL failed: %v", err)
	}
	if _, err := repo.AddSourceURL(companyID, "https://acme.example/news"); err != nil {
		t.Fatal(err)
	}

	sources, err := repo.GetSourceURLs(companyID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 source urls, got %d", len(sources))
	}

	if err := repo.DeleteSourceURL(sources[0].ID); err != nil {
		t.Fatal(err)
	}
	sources, err = repo.GetSourceURLs(companyID)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 1 {
		t.Errorf("Expected 1 source url after delete, got %d", len(sources))
	}
}

func TestCompanyRepository_SearchSettings(t *testing.T) {
	repo := NewCompanyRepository(newTestDB(t))

	companyID, err := repo.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	if err != nil {
		t.Fatal(err)
	}

	settings, err := repo.GetSearchSettings(companyID)
	if err != nil {
		t.Fatal(err)
	}
	if settings.UseLLMLinkFallback || settings.ExtractDateWithLLM {
		t.Errorf("Missing row should yield defaults, got %+v", settings)
	}

	if err := repo.UpsertSearchSettings(SearchSettings{
		CompanyID:          companyID,
		UseLLMLinkFallback: true,
		ExtraKeywords:      "machine learning",
	}); err != nil {
		t.Fatalf("UpsertSearchSettings failed: %v", err)
	}

	settings, err = repo.GetSearchSettings(companyID)
	if err != nil {
		t.Fatal(err)
	}
	if !settings.UseLLMLinkFallback {
		t.Error("Expected use_llm_link_fallback to persist")
	}
	if settings.ExtraKeywords != "machine learning" {
		t.Errorf("Expected extra keywords to persist, got %q", settings.ExtraKeywords)
	}

	// Second upsert updates in place.
	if err := repo.UpsertSearchSettings(SearchSettings{CompanyID: companyID, ExtractDateWithLLM: true}); err != nil {
		t.Fatal(err)
	}
	settings, err = repo.GetSearchSettings(companyID)
	if err != nil {
		t.Fatal(err)
	}
	if settings.UseLLMLinkFallback {
		t.Error("Upsert should overwrite previous toggles")
	}
	if !settings.ExtractDateWithLLM {
		t.Error("Expected extract_date_with_llm to persist")
	}
}

func TestArticleRepository_StoreAndLookup(t *testing.T) {
	db := newTestDB(t)
	companies := NewCompanyRepository(db)
	articles := NewArticleRepository(db)

	companyID, err := companies.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	if err != nil {
		t.Fatal(err)
	}

	published := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	id, err := articles.StoreArticle(Article{
		CompanyID:     companyID,
		JobID:         "job-1",
		URL:           "https://acme.example/news/ai?utm_source=x",
		NormalizedURL: "https://acme.example/news/ai",
		Title:         "Acme deploys AI assistant",
		Summary:       "Contact-center assistant went live.",
		Source:        SourcePressList,
		Category:      "Customer Service",
		BusinessArea:  "Retail Banking",
		Tags:          []string{"chatbot", "genai"},
		KeyPoints:     []string{"live in 12 branches"},
		PublishedDate: published,
		DateValidated: true,
	})
	if err != nil {
		t.Fatalf("StoreArticle failed: %v", err)
	}

	found, err := articles.FindByNormalizedURL("https://acme.example/news/ai")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil {
		t.Fatal("Expected article by normalized URL")
	}
	if found.ID != id {
		t.Errorf("Expected id %d, got %d", id, found.ID)
	}
	if len(found.Tags) != 2 || found.Tags[0] != "chatbot" {
		t.Errorf("Tags should round-trip, got %v", found.Tags)
	}
	if !found.PublishedDate.Equal(published) {
		t.Errorf("Published date should round-trip, got %v", found.PublishedDate)
	}
	if !found.DateValidated {
		t.Error("DateValidated should round-trip")
	}

	found, err = articles.FindByURL("https://acme.example/news/ai?utm_source=x")
	if err != nil {
		t.Fatal(err)
	}
	if found == nil {
		t.Error("Expected article by raw URL")
	}

	missing, err := articles.FindByNormalizedURL("https://acme.example/other")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("Unknown URL should return nil without error")
	}
}

func TestArticleRepository_DuplicateNormalizedURLRejected(t *testing.T) {
	db := newTestDB(t)
	companies := NewCompanyRepository(db)
	articles := NewArticleRepository(db)

	companyID, err := companies.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	if err != nil {
		t.Fatal(err)
	}

	base := Article{
		CompanyID:     companyID,
		URL:           "https://acme.example/news/ai",
		NormalizedURL: "https://acme.example/news/ai",
		Title:         "First",
		PublishedDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	if _, err := articles.StoreArticle(base); err != nil {
		t.Fatal(err)
	}
	base.Title = "Second"
	if _, err := articles.StoreArticle(base); err == nil {
		t.Error("Duplicate normalized URL should violate the unique index")
	}
}

func TestArticleRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	companies := NewCompanyRepository(db)
	articles := NewArticleRepository(db)

	acme, _ := companies.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	beta, _ := companies.CreateCompany(Company{Name: "Beta", Region: "us-en"})

	store := func(companyID int64, url, category string, inappropriate bool) {
		t.Helper()
		_, err := articles.StoreArticle(Article{
			CompanyID:       companyID,
			URL:             url,
			NormalizedURL:   url,
			Category:        category,
			IsInappropriate: inappropriate,
			PublishedDate:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	store(acme, "https://a.com/1", "Customer Service", false)
	store(acme, "https://a.com/2", "Operations", true)
	store(beta, "https://b.com/1", "Customer Service", false)

	byCompany, err := articles.ListArticles(ArticleFilter{CompanyID: acme, IncludeInappropriate: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCompany) != 2 {
		t.Errorf("Expected 2 articles for company, got %d", len(byCompany))
	}

	appropriate, err := articles.ListArticles(ArticleFilter{CompanyID: acme})
	if err != nil {
		t.Fatal(err)
	}
	if len(appropriate) != 1 {
		t.Errorf("Inappropriate articles should be excluded by default, got %d", len(appropriate))
	}

	byCategory, err := articles.ListArticles(ArticleFilter{Category: "Customer Service"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCategory) != 2 {
		t.Errorf("Expected 2 customer service articles, got %d", len(byCategory))
	}

	limited, err := articles.ListArticles(ArticleFilter{Limit: 1, IncludeInappropriate: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}

func TestArticleRepository_RejectsMissingPublishedDate(t *testing.T) {
	db := newTestDB(t)
	companies := NewCompanyRepository(db)
	articles := NewArticleRepository(db)

	companyID, _ := companies.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	_, err := articles.StoreArticle(Article{
		CompanyID:     companyID,
		URL:           "https://a.com/1",
		NormalizedURL: "https://a.com/1",
	})
	if err == nil {
		t.Error("Article without a published date should be rejected")
	}
}

func TestArticleRepository_UpdateReviewAndClassification(t *testing.T) {
	db := newTestDB(t)
	companies := NewCompanyRepository(db)
	articles := NewArticleRepository(db)

	companyID, _ := companies.CreateCompany(Company{Name: "Acme", Region: "us-en"})
	id, err := articles.StoreArticle(Article{
		CompanyID:     companyID,
		URL:           "https://a.com/1",
		NormalizedURL: "https://a.com/1",
		PublishedDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := articles.UpdateArticleReview(id, true); err != nil {
		t.Fatal(err)
	}
	article, err := articles.GetArticle(id)
	if err != nil {
		t.Fatal(err)
	}
	if !article.IsReviewed {
		t.Error("Expected article to be marked reviewed")
	}

	if err := articles.UpdateArticleClassification(id, "Operations", "Payments", []string{"ocr"}); err != nil {
		t.Fatal(err)
	}
	article, err = articles.GetArticle(id)
	if err != nil {
		t.Fatal(err)
	}
	if article.Category != "Operations" || article.BusinessArea != "Payments" {
		t.Errorf("Classification should persist, got %+v", article)
	}
	if len(article.Tags) != 1 || article.Tags[0] != "ocr" {
		t.Errorf("Tags should persist, got %v", article.Tags)
	}
}

func TestJobRepository_Lifecycle(t *testing.T) {
	repo := NewJobRepository(newTestDB(t))

	if err := repo.CreateJob(Job{ID: "job-1", Type: JobTypeScheduled}); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job, err := repo.GetJob("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != JobPending {
		t.Errorf("New job should be pending, got %q", job.Status)
	}
	if job.Type != JobTypeScheduled {
		t.Errorf("Job type should round-trip, got %q", job.Type)
	}

	if err := repo.MarkStarted("job-1", 5); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateProgress("job-1", 2, 7); err != nil {
		t.Fatal(err)
	}

	job, err = repo.GetJob("job-1")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != JobRunning {
		t.Errorf("Expected running status, got %q", job.Status)
	}
	if job.TotalCompanies != 5 || job.ProcessedCompanies != 2 || job.ArticlesFound != 7 {
		t.Errorf("Progress should persist, got %+v", job)
	}
	if job.StartedAt == nil {
		t.Error("StartedAt should be set")
	}

	if err := repo.MarkCompleted("job-1", ""); err != nil {
		t.Fatal(err)
	}
	job, _ = repo.GetJob("job-1")
	if job.Status != JobCompleted || job.CompletedAt == nil {
		t.Errorf("Expected completed job, got %+v", job)
	}
}

func TestJobRepository_MarkFailed(t *testing.T) {
	repo := NewJobRepository(newTestDB(t))

	if err := repo.CreateJob(Job{ID: "job-2"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkFailed("job-2", "no companies configured"); err != nil {
		t.Fatal(err)
	}

	job, err := repo.GetJob("job-2")
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != JobFailed {
		t.Errorf("Expected failed status, got %q", job.Status)
	}
	if job.Error != "no companies configured" {
		t.Errorf("Error message should persist, got %q", job.Error)
	}
}

func TestJobRepository_GetLatestJob(t *testing.T) {
	repo := NewJobRepository(newTestDB(t))

	latest, err := repo.GetLatestJob()
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Error("Empty table should yield nil job")
	}

	if err := repo.CreateJob(Job{ID: "job-a"}); err != nil {
		t.Fatal(err)
	}
	if err := repo.CreateJob(Job{ID: "job-b"}); err != nil {
		t.Fatal(err)
	}

	latest, err = repo.GetLatestJob()
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.ID != "job-b" {
		t.Errorf("Expected job-b as latest, got %+v", latest)
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))

	settings, err := repo.GetScheduleSettings()
	if err != nil {
		t.Fatalf("GetScheduleSettings failed: %v", err)
	}
	if settings.Enabled {
		t.Error("Schedule should default to disabled")
	}
	if settings.ScheduleType != ScheduleWeekly {
		t.Errorf("Expected default weekly schedule, got %q", settings.ScheduleType)
	}

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateScheduleSettings(ScheduleSettings{
		Enabled:         true,
		ScheduleType:    ScheduleDaily,
		ScheduleDay:     3,
		ScheduleHour:    7,
		SearchStartDate: &start,
		SearchEndDate:   &end,
	}); err != nil {
		t.Fatal(err)
	}

	settings, err = repo.GetScheduleSettings()
	if err != nil {
		t.Fatal(err)
	}
	if !settings.Enabled || settings.ScheduleType != ScheduleDaily || settings.ScheduleHour != 7 {
		t.Errorf("Settings should persist, got %+v", settings)
	}
	if settings.SearchStartDate == nil || !settings.SearchStartDate.Equal(start) {
		t.Errorf("Search window start should persist, got %v", settings.SearchStartDate)
	}
}

func TestSettingsRepository_GetSearchWindow(t *testing.T) {
	repo := NewSettingsRepository(newTestDB(t))

	start, end, err := repo.GetSearchWindow()
	if err != nil {
		t.Fatal(err)
	}
	if !start.IsZero() || !end.IsZero() {
		t.Error("Unconfigured window should be zero times")
	}

	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdateScheduleSettings(ScheduleSettings{
		ScheduleType:    ScheduleWeekly,
		SearchStartDate: &wantStart,
		SearchEndDate:   &wantEnd,
	}); err != nil {
		t.Fatal(err)
	}

	start, end, err = repo.GetSearchWindow()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Errorf("Expected configured window, got %v..%v", start, end)
	}
}
