package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ArticleRepo handles database operations for persisted articles.
type ArticleRepo struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

const articleColumns = `id, company_id, job_id, url, normalized_url, title, summary,
	content, source, category, business_area, tags, key_points, outcomes,
	technology, published_date, date_validated, is_inappropriate,
	inappropriate_reason, is_reviewed, created_at, updated_at`

func (r *ArticleRepo) GetArticle(id int64) (*Article, error) {
	return r.queryOne(`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
}

// FindByNormalizedURL is the primary dedup lookup.
func (r *ArticleRepo) FindByNormalizedURL(normalizedURL string) (*Article, error) {
	return r.queryOne(`SELECT `+articleColumns+` FROM articles WHERE normalized_url = ?`, normalizedURL)
}

// FindByURL covers rows persisted before URL normalization was introduced.
func (r *ArticleRepo) FindByURL(url string) (*Article, error) {
	return r.queryOne(`SELECT `+articleColumns+` FROM articles WHERE url = ?`, url)
}

func (r *ArticleRepo) queryOne(query string, args ...any) (*Article, error) {
	row := r.db.QueryRow(query, args...)
	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query article: %w", err)
	}
	return article, nil
}

func (r *ArticleRepo) StoreArticle(article Article) (int64, error) {
	if article.PublishedDate.IsZero() {
		return 0, fmt.Errorf("article %s has no published date", article.URL)
	}

	tags, err := json.Marshal(emptyIfNil(article.Tags))
	if err != nil {
		return 0, fmt.Errorf("failed to encode tags: %w", err)
	}
	keyPoints, err := json.Marshal(emptyIfNil(article.KeyPoints))
	if err != nil {
		return 0, fmt.Errorf("failed to encode key points: %w", err)
	}

	result, err := r.db.Exec(`
		INSERT INTO articles (
			company_id, job_id, url, normalized_url, title, summary, content,
			source, category, business_area, tags, key_points, outcomes,
			technology, published_date, date_validated, is_inappropriate,
			inappropriate_reason, is_reviewed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.CompanyID, article.JobID, article.URL, article.NormalizedURL,
		article.Title, article.Summary, article.Content, article.Source,
		article.Category, article.BusinessArea, string(tags), string(keyPoints),
		article.Outcomes, article.Technology, article.PublishedDate,
		article.DateValidated, article.IsInappropriate,
		article.InappropriateReason, article.IsReviewed)
	if err != nil {
		return 0, fmt.Errorf("failed to store article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get article id: %w", err)
	}
	return id, nil
}

func (r *ArticleRepo) ListArticles(filter ArticleFilter) ([]Article, error) {
	var conditions []string
	var args []any

	if filter.CompanyID != 0 {
		conditions = append(conditions, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if filter.JobID != "" {
		conditions = append(conditions, "job_id = ?")
		args = append(args, filter.JobID)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if !filter.IncludeInappropriate {
		conditions = append(conditions, "is_inappropriate = 0")
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY published_date DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	return r.queryMany(query, args...)
}

// ListForReport returns appropriate articles published inside [start, end].
func (r *ArticleRepo) ListForReport(start, end time.Time) ([]Article, error) {
	return r.queryMany(`
		SELECT `+articleColumns+` FROM articles
		WHERE is_inappropriate = 0
		  AND published_date >= ?
		  AND published_date <= ?
		ORDER BY company_id, published_date DESC
	`, start, end)
}

func (r *ArticleRepo) queryMany(query string, args ...any) ([]Article, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}
	return articles, nil
}

func (r *ArticleRepo) UpdateArticleReview(id int64, reviewed bool) error {
	_, err := r.db.Exec(`
		UPDATE articles SET is_reviewed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, reviewed, id)
	if err != nil {
		return fmt.Errorf("failed to update article review flag: %w", err)
	}
	return nil
}

func (r *ArticleRepo) UpdateArticleClassification(id int64, category, businessArea string, tags []string) error {
	encoded, err := json.Marshal(emptyIfNil(tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	_, err = r.db.Exec(`
		UPDATE articles
		SET category = ?, business_area = ?, tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, category, businessArea, string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to update article classification: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*Article, error) {
	var a Article
	var tags, keyPoints string

	err := row.Scan(
		&a.ID, &a.CompanyID, &a.JobID, &a.URL, &a.NormalizedURL, &a.Title,
		&a.Summary, &a.Content, &a.Source, &a.Category, &a.BusinessArea,
		&tags, &keyPoints, &a.Outcomes, &a.Technology, &a.PublishedDate,
		&a.DateValidated, &a.IsInappropriate, &a.InappropriateReason,
		&a.IsReviewed, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		a.Tags = nil
	}
	if err := json.Unmarshal([]byte(keyPoints), &a.KeyPoints); err != nil {
		a.KeyPoints = nil
	}
	return &a, nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
