// Package runner provides the worker loop that pulls pending collection jobs
// and drives them to a terminal status.
package runner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/data"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
	"github.com/trendit/collector-go/internal/observability/metrics"
	"github.com/trendit/collector-go/internal/observability/statsd"
	"github.com/trendit/collector-go/internal/service"
)

const defaultPollInterval = 5 * time.Second

// Options configures the job runner adapter.
type Options struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Fetcher core.PageFetcher
	Mirror  core.MirrorStore
	Metrics statsd.Sink

	// Workers is the number of concurrent job executors; defaults to 1.
	Workers int
	// PollInterval is the idle wait between pending-queue checks.
	PollInterval time.Duration

	// Collector tuning, passed through to the orchestrator.
	CombinationConcurrency int
	PageSize               int
	AnalyticsTopN          int

	// Optional dependency injections, useful for tests.
	JobsRepo core.JobRepository
}

// Runner polls the pending queue and executes jobs with a bounded worker pool.
// Claiming is arbitrated by the pending -> running compare-and-swap, so
// multiple runner processes can share one queue safely.
type Runner struct {
	jobs      core.JobRepository
	collector *service.Collector
	logger    *slog.Logger
	metrics   statsd.Sink

	workers      int
	pollInterval time.Duration
}

// NewRunner wires repositories and services and constructs a runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.DB == nil && opts.JobsRepo == nil {
		return nil, errors.New("either DB or JobsRepo must be provided")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("a page fetcher must be provided")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	jobsRepo := opts.JobsRepo
	if jobsRepo == nil {
		jobsRepo = data.NewJobRepo(opts.DB, data.RepoConfig{Logger: logger})
	}
	repoCfg := data.RepoConfig{Logger: logger}
	writer := service.NewWriter(service.WriterOptions{
		Posts:    data.NewPostRepo(opts.DB, repoCfg),
		Comments: data.NewCommentRepo(opts.DB, repoCfg),
		Users:    data.NewUserRepo(opts.DB, repoCfg),
		Mirror:   opts.Mirror,
		Logger:   logger,
		Metrics:  opts.Metrics,
	})
	progress := service.NewProgress(service.ProgressOptions{
		Jobs:   jobsRepo,
		Mirror: opts.Mirror,
		Logger: logger,
	})
	analyzer := service.NewAnalyzer(service.AnalyzerOptions{
		Posts:     data.NewPostRepo(opts.DB, repoCfg),
		Comments:  data.NewCommentRepo(opts.DB, repoCfg),
		Analytics: data.NewAnalyticsRepo(opts.DB, repoCfg),
		TopN:      opts.AnalyticsTopN,
		Logger:    logger,
	})
	collector := service.NewCollector(service.CollectorOptions{
		Jobs:                   jobsRepo,
		Fetcher:                opts.Fetcher,
		Writer:                 writer,
		Progress:               progress,
		Scorer:                 service.NewLexiconScorer(),
		Analyzer:               analyzer,
		Logger:                 logger,
		Metrics:                opts.Metrics,
		CombinationConcurrency: opts.CombinationConcurrency,
		PageSize:               opts.PageSize,
	})

	return &Runner{
		jobs:         jobsRepo,
		collector:    collector,
		logger:       logger,
		metrics:      opts.Metrics,
		workers:      workers,
		pollInterval: pollInterval,
	}, nil
}

// Run starts worker goroutines and processes jobs until the context is
// cancelled. The first fatal worker error cancels the rest.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting collection runner",
		slog.Int("workers", r.workers),
		slog.Duration("poll_interval", r.pollInterval))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx); err != nil {
				select {
				case errCh <- err:
					cancel()
				default:
				}
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

func (r *Runner) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		job, err := r.jobs.NextPending(ctx)
		switch {
		case err == nil:
			r.processJob(ctx, job)
		case errors.Is(err, data.ErrNoJobsPending):
			if !r.sleep(ctx) {
				return nil
			}
		default:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("next pending: %w", err)
		}
	}
	return ctx.Err()
}

func (r *Runner) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.pollInterval):
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.CollectionJob) {
	start := time.Now()
	err := r.collector.Execute(ctx, job)
	switch {
	case err == nil:
		metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
			Status:   string(r.terminalStatus(ctx, job.JobID)),
			Result:   metrics.ResultSuccess,
			Duration: time.Since(start),
		})
	case apperrors.IsConflict(err):
		// Another runner won the claim; not an error.
		r.logger.Debug("job claimed elsewhere", slog.String("job_id", job.JobID))
	default:
		r.logger.ErrorContext(ctx, "job execution error",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()))
		metrics.EmitJobLifecycle(r.metrics, metrics.JobMetric{
			Status:   string(model.JobStatusFailed),
			Result:   metrics.ResultError,
			Duration: time.Since(start),
		})
	}
}

// terminalStatus reads the status a finished job landed on, for metric tags.
func (r *Runner) terminalStatus(ctx context.Context, jobID string) model.JobStatus {
	job, err := r.jobs.GetByID(context.WithoutCancel(ctx), jobID)
	if err != nil {
		return model.JobStatusCompleted
	}
	return job.Status
}
