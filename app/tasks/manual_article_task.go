package tasks

import (
	"context"
	"log/slog"
	"time"
)

// ManualArticleTask runs a single-URL addition job. Like research jobs,
// failures land on the job row, so the task never retries.
type ManualArticleTask struct {
	Task
	JobID     string
	CompanyID int64
	URL       string
	runner    ManualArticleRunner
}

func NewManualArticleTask(jobID string, companyID int64, url string, runner ManualArticleRunner) *ManualArticleTask {
	task := NewTask(TaskTypeManualArticle)
	task.MaxRetries = 0
	// One URL: fetch plus a handful of model calls.
	task.Timeout = 30 * time.Minute

	return &ManualArticleTask{
		Task:      task,
		JobID:     jobID,
		CompanyID: companyID,
		URL:       url,
		runner:    runner,
	}
}

func (t *ManualArticleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.runner.RunURL(ctx, t.JobID, t.CompanyID, t.URL); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"job_id", t.JobID,
		"duration", t.GetDuration())
	return nil
}
