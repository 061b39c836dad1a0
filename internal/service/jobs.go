package service

import (
	"context"
	"log/slog"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// JobServiceOptions holds the JobService's collaborators.
type JobServiceOptions struct {
	Jobs   core.JobRepository
	Logger *slog.Logger
}

// JobService is the submission-side surface of the engine: create, inspect,
// and cancel jobs. Execution belongs to the Collector.
type JobService struct {
	jobs   core.JobRepository
	logger *slog.Logger
}

// NewJobService creates a new JobService.
func NewJobService(opts JobServiceOptions) *JobService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{jobs: opts.Jobs, logger: logger}
}

// Submit validates the request and stores a new pending job.
func (s *JobService) Submit(ctx context.Context, req *model.CreateJobRequest) (*model.CollectionJob, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job submitted",
		slog.String("job_id", job.JobID),
		slog.Int("combinations", len(job.Params.Combinations())))
	return job, nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, jobID string) (*model.CollectionJob, error) {
	if jobID == "" {
		return nil, apperrors.Validation("job id is required")
	}
	return s.jobs.GetByID(ctx, jobID)
}

// Cancel requests cooperative cancellation. A pending job is cancelled
// immediately; a running job is flagged and stops between pages. Cancelling a
// terminal job is a conflict.
func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	if jobID == "" {
		return apperrors.Validation("job id is required")
	}
	ok, err := s.jobs.RequestCancel(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Conflictf("job %s is already finished", jobID)
	}
	s.logger.Info("job cancellation requested", slog.String("job_id", jobID))
	return nil
}
