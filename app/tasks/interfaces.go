package tasks

import (
	"context"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API layer to run background research
// jobs.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// JobRunner executes one research job end to end.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

// ManualArticleRunner processes one manually submitted article URL.
type ManualArticleRunner interface {
	RunURL(ctx context.Context, jobID string, companyID int64, rawURL string) error
}
