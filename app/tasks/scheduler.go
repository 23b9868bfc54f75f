package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/casescout/casescout/app/cfg"
	"github.com/casescout/casescout/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	jobRepo      database.JobRepository
	settingsRepo database.SettingsRepository
	runner       JobRunner
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(jobRepo database.JobRepository, settingsRepo database.SettingsRepository,
	runner JobRunner) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		jobRepo:      jobRepo,
		settingsRepo: settingsRepo,
		runner:       runner,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueScheduledJob()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueScheduledJob fires at most one research job per day, when the
// configured schedule matches the current wall clock. The latest job's
// creation time is the dedup record, so a restart mid-day does not
// re-trigger a run that already happened.
func (s *Scheduler) enqueueScheduledJob() {
	settings, err := s.settingsRepo.GetScheduleSettings()
	if err != nil {
		slog.Warn("Failed to load schedule settings", "error", err)
		return
	}
	if !settings.Enabled {
		return
	}

	now := time.Now()
	if !scheduleDue(settings, now) {
		return
	}

	latest, err := s.jobRepo.GetLatestJob()
	if err != nil {
		slog.Warn("Failed to check latest job", "error", err)
		return
	}
	if latest != nil && sameDay(latest.CreatedAt, now) {
		slog.Debug("Research job already ran today", "job_id", latest.ID)
		return
	}

	job := database.Job{
		ID:   uuid.NewString(),
		Type: database.JobTypeScheduled,
	}
	if err := s.jobRepo.CreateJob(job); err != nil {
		slog.Error("Failed to create scheduled job", "error", err)
		return
	}

	task := NewResearchJobTask(job.ID, s.runner)
	if err := s.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue scheduled research job", "job_id", job.ID, "error", err)
		if markErr := s.jobRepo.MarkFailed(job.ID, err.Error()); markErr != nil {
			slog.Error("Failed to mark job as failed", "job_id", job.ID, "error", markErr)
		}
		return
	}

	slog.Info("Scheduled research job enqueued", "job_id", job.ID, "schedule", settings.ScheduleType)
}

func scheduleDue(settings *database.ScheduleSettings, now time.Time) bool {
	if now.Hour() != settings.ScheduleHour {
		return false
	}
	if settings.ScheduleType == database.ScheduleWeekly {
		return int(now.Weekday()) == settings.ScheduleDay
	}
	return true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
