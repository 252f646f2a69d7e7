package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/progression"
)

// Maintenance task names.
const (
	TaskTokenCleanup  = "refresh_token_cleanup"
	TaskRankingWarmup = "ranking_warmup"
)

// TokenPurger deletes refresh tokens that expired before cutoff.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// RankingWarmer rebuilds the cached ranking.
type RankingWarmer interface {
	InvalidateRanking(ctx context.Context)
	Ranking(ctx context.Context, currentUserID string, limit int) ([]progression.RankingEntry, error)
}

// MaintenanceJob runs periodic housekeeping tasks.
type MaintenanceJob struct {
	config MaintenanceConfig
	logger zerolog.Logger
	now    func() time.Time

	// Optional, nil skips the task.
	tokens  TokenPurger
	ranking RankingWarmer

	metrics *MaintenanceMetrics
}

// MaintenanceMetrics tracks maintenance job statistics.
type MaintenanceMetrics struct {
	mu sync.RWMutex

	TotalRuns      int64
	TasksSucceeded int64
	TasksFailed    int64
	TokensDeleted  int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// MaintenanceJobConfig holds configuration for creating a MaintenanceJob.
type MaintenanceJobConfig struct {
	Config  MaintenanceConfig
	Logger  zerolog.Logger
	Tokens  TokenPurger
	Ranking RankingWarmer
}

// NewMaintenanceJob creates a maintenance job.
func NewMaintenanceJob(cfg MaintenanceJobConfig) *MaintenanceJob {
	return &MaintenanceJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		now:     time.Now,
		tokens:  cfg.Tokens,
		ranking: cfg.Ranking,
		metrics: &MaintenanceMetrics{},
	}
}

// MaintenanceResult contains the result of one run.
type MaintenanceResult struct {
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	Tasks         int
	Succeeded     int
	Failed        int
	TokensDeleted int64
	Errors        []TaskError
}

// TaskError records a failed task.
type TaskError struct {
	Task  string
	Error string
}

type task struct {
	name string
	run  func(ctx context.Context) (int64, error)
}

type taskResult struct {
	name    string
	deleted int64
	err     error
}

func (j *MaintenanceJob) tasks() []task {
	var tasks []task
	if j.tokens != nil {
		tasks = append(tasks, task{name: TaskTokenCleanup, run: j.cleanupTokens})
	}
	if j.ranking != nil {
		tasks = append(tasks, task{name: TaskRankingWarmup, run: j.warmRanking})
	}
	return tasks
}

// Run executes every configured task once.
func (j *MaintenanceJob) Run(ctx context.Context) *MaintenanceResult {
	startTime := time.Now()
	tasks := j.tasks()
	result := &MaintenanceResult{StartTime: startTime, Tasks: len(tasks)}

	j.logger.Info().
		Int("tasks", len(tasks)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting maintenance job")

	taskChan := make(chan task, len(tasks))
	resultsChan := make(chan taskResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.taskWorker(ctx, taskChan, resultsChan)
		}()
	}

	for _, t := range tasks {
		taskChan <- t
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		if tr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, TaskError{Task: tr.name, Error: tr.err.Error()})
			continue
		}
		result.Succeeded++
		result.TokensDeleted += tr.deleted
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int64("tokens_deleted", result.TokensDeleted).
		Msg("maintenance job completed")

	return result
}

// RunPeriodic runs the job every configured interval until ctx is done.
func (j *MaintenanceJob) RunPeriodic(ctx context.Context) {
	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

func (j *MaintenanceJob) taskWorker(ctx context.Context, tasks <-chan task, results chan<- taskResult) {
	for t := range tasks {
		if ctx.Err() != nil {
			results <- taskResult{name: t.name, err: ctx.Err()}
			continue
		}

		taskCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
		deleted, err := t.run(taskCtx)
		cancel()

		if err != nil {
			j.logger.Error().Err(err).Str("task", t.name).Msg("maintenance task failed")
		}
		results <- taskResult{name: t.name, deleted: deleted, err: err}
	}
}

func (j *MaintenanceJob) cleanupTokens(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.config.TokenRetention)
	return j.tokens.DeleteExpired(ctx, cutoff)
}

func (j *MaintenanceJob) warmRanking(ctx context.Context) (int64, error) {
	j.ranking.InvalidateRanking(ctx)
	_, err := j.ranking.Ranking(ctx, "", progression.MaxRankingLimit)
	return 0, err
}

func (j *MaintenanceJob) updateMetrics(result *MaintenanceResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.TasksSucceeded += int64(result.Succeeded)
	j.metrics.TasksFailed += int64(result.Failed)
	j.metrics.TokensDeleted += result.TokensDeleted
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *MaintenanceJob) GetMetrics() MaintenanceMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return MaintenanceMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		TasksSucceeded:  j.metrics.TasksSucceeded,
		TasksFailed:     j.metrics.TasksFailed,
		TokensDeleted:   j.metrics.TokensDeleted,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
	}
}
