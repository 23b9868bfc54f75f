package database

import (
	"database/sql"
	"fmt"
)

// CompanyRepo handles database operations for companies and their research
// sources.
type CompanyRepo struct {
	db *DB
}

func NewCompanyRepository(db *DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

const companyColumns = `id, name, name_en, country, region, enabled, created_at, updated_at`

func (r *CompanyRepo) GetCompany(id int64) (*Company, error) {
	var c Company
	err := r.db.QueryRow(`
		SELECT `+companyColumns+` FROM companies WHERE id = ?
	`, id).Scan(&c.ID, &c.Name, &c.NameEn, &c.Country, &c.Region, &c.Enabled, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

func (r *CompanyRepo) GetEnabledCompanies() ([]Company, error) {
	return r.queryCompanies(`
		SELECT ` + companyColumns + ` FROM companies WHERE enabled = 1 ORDER BY name
	`)
}

func (r *CompanyRepo) ListCompanies() ([]Company, error) {
	return r.queryCompanies(`
		SELECT ` + companyColumns + ` FROM companies ORDER BY name
	`)
}

func (r *CompanyRepo) queryCompanies(query string, args ...any) ([]Company, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.NameEn, &c.Country, &c.Region, &c.Enabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}
	return companies, nil
}

func (r *CompanyRepo) CreateCompany(company Company) (int64, error) {
	if company.Region == "" {
		company.Region = "us-en"
	}
	result, err := r.db.Exec(`
		INSERT INTO companies (name, name_en, country, region) VALUES (?, ?, ?, ?)
	`, company.Name, company.NameEn, company.Country, company.Region)
	if err != nil {
		return 0, fmt.Errorf("failed to create company: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get company id: %w", err)
	}
	return id, nil
}

func (r *CompanyRepo) UpdateCompany(company Company) error {
	_, err := r.db.Exec(`
		UPDATE companies
		SET name = ?, name_en = ?, country = ?, region = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, company.Name, company.NameEn, company.Country, company.Region, company.Enabled, company.ID)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) DeleteCompany(id int64) error {
	_, err := r.db.Exec(`DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) GetSourceURLs(companyID int64) ([]SourceURL, error) {
	rows, err := r.db.Query(`
		SELECT id, company_id, url, enabled, created_at
		FROM source_urls
		WHERE company_id = ? AND enabled = 1
		ORDER BY id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query source urls: %w", err)
	}
	defer rows.Close()

	var sources []SourceURL
	for rows.Next() {
		var s SourceURL
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.URL, &s.Enabled, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source url row: %w", err)
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source url rows: %w", err)
	}
	return sources, nil
}

func (r *CompanyRepo) AddSourceURL(companyID int64, url string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO source_urls (company_id, url) VALUES (?, ?)
	`, companyID, url)
	if err != nil {
		return 0, fmt.Errorf("failed to add source url: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get source url id: %w", err)
	}
	return id, nil
}

func (r *CompanyRepo) DeleteSourceURL(id int64) error {
	_, err := r.db.Exec(`DELETE FROM source_urls WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source url: %w", err)
	}
	return nil
}

// GetSearchSettings returns the company's research toggles, or defaults when
// none were stored.
func (r *CompanyRepo) GetSearchSettings(companyID int64) (*SearchSettings, error) {
	var s SearchSettings
	err := r.db.QueryRow(`
		SELECT company_id, use_llm_link_fallback, extract_date_with_llm, extra_keywords
		FROM company_search_settings
		WHERE company_id = ?
	`, companyID).Scan(&s.CompanyID, &s.UseLLMLinkFallback, &s.ExtractDateWithLLM, &s.ExtraKeywords)
	if err == sql.ErrNoRows {
		return &SearchSettings{CompanyID: companyID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search settings: %w", err)
	}
	return &s, nil
}

func (r *CompanyRepo) UpsertSearchSettings(settings SearchSettings) error {
	_, err := r.db.Exec(`
		INSERT INTO company_search_settings (
			company_id, use_llm_link_fallback, extract_date_with_llm, extra_keywords
		) VALUES (?, ?, ?, ?)
		ON CONFLICT (company_id) DO UPDATE SET
			use_llm_link_fallback = excluded.use_llm_link_fallback,
			extract_date_with_llm = excluded.extract_date_with_llm,
			extra_keywords = excluded.extra_keywords,
			updated_at = CURRENT_TIMESTAMP
	`, settings.CompanyID, settings.UseLLMLinkFallback, settings.ExtractDateWithLLM, settings.ExtraKeywords)
	if err != nil {
		return fmt.Errorf("failed to upsert search settings: %w", err)
	}
	return nil
}
