package tasks

import (
	"context"
	"log/slog"
	"time"
)

// ResearchJobTask runs one research job through the orchestrator. A failed
// job is recorded on the job row itself, so the task never retries: a rerun
// would restart a job already marked failed.
type ResearchJobTask struct {
	Task
	JobID  string
	runner JobRunner
}

func NewResearchJobTask(jobID string, runner JobRunner) *ResearchJobTask {
	task := NewTask(TaskTypeResearchJob)
	task.MaxRetries = 0
	// Research jobs crawl every company sequentially; give them hours.
	task.Timeout = 6 * time.Hour

	return &ResearchJobTask{
		Task:   task,
		JobID:  jobID,
		runner: runner,
	}
}

func (t *ResearchJobTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.runner.Run(ctx, t.JobID); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"job_id", t.JobID,
		"duration", t.GetDuration())
	return nil
}
