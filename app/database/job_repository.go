package database

import (
	"database/sql"
	"fmt"
	"time"
)

// JobRepo handles database operations for research jobs.
type JobRepo struct {
	db *DB
}

func NewJobRepository(db *DB) *JobRepo {
	return &JobRepo{db: db}
}

const jobColumns = `id, job_type, status, total_companies, processed_companies,
	articles_found, error, created_at, started_at, completed_at`

func (r *JobRepo) CreateJob(job Job) error {
	status := job.Status
	if status == "" {
		status = JobPending
	}
	jobType := job.Type
	if jobType == "" {
		jobType = JobTypeManual
	}
	_, err := r.db.Exec(`
		INSERT INTO jobs (id, job_type, status) VALUES (?, ?, ?)
	`, job.ID, jobType, status)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *JobRepo) GetJob(id string) (*Job, error) {
	return r.queryOne(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
}

func (r *JobRepo) GetLatestJob() (*Job, error) {
	return r.queryOne(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id DESC LIMIT 1`)
}

func (r *JobRepo) ListJobs(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

func (r *JobRepo) queryOne(query string, args ...any) (*Job, error) {
	job, err := scanJob(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func scanJob(row scanner) (*Job, error) {
	var j Job
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&j.ID, &j.Type, &j.Status, &j.TotalCompanies, &j.ProcessedCompanies,
		&j.ArticlesFound, &j.Error, &j.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	j.StartedAt = timePtr(startedAt)
	j.CompletedAt = timePtr(completedAt)
	return &j, nil
}

func (r *JobRepo) MarkStarted(id string, total int) error {
	_, err := r.db.Exec(`
		UPDATE jobs
		SET status = ?, total_companies = ?, started_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, JobRunning, total, id)
	if err != nil {
		return fmt.Errorf("failed to mark job started: %w", err)
	}
	return nil
}

func (r *JobRepo) UpdateProgress(id string, processed, articlesFound int) error {
	_, err := r.db.Exec(`
		UPDATE jobs SET processed_companies = ?, articles_found = ? WHERE id = ?
	`, processed, articlesFound, id)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// MarkCompleted finishes the job. errorMsg carries a non-fatal per-company
// failure summary and may be empty.
func (r *JobRepo) MarkCompleted(id string, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE jobs SET status = ?, error = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, JobCompleted, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

func (r *JobRepo) MarkFailed(id string, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE jobs SET status = ?, error = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, JobFailed, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
