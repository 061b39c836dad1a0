package service

import (
	"context"
	"log/slog"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// ProgressOptions holds the Progress tracker's collaborators. Mirror may be
// nil, in which case live snapshots are not published.
type ProgressOptions struct {
	Jobs   core.JobRepository
	Mirror core.MirrorStore
	Logger *slog.Logger
}

// Progress tracks a job's counters and status through its lifecycle. All
// durable state changes go through the job repository; after each one the
// latest snapshot is published to live observers best-effort.
type Progress struct {
	jobs   core.JobRepository
	mirror core.MirrorStore
	logger *slog.Logger
}

// NewProgress creates a new Progress tracker.
func NewProgress(opts ProgressOptions) *Progress {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Progress{jobs: opts.Jobs, mirror: opts.Mirror, logger: logger}
}

// Advance atomically adds to the job's collected counters and publishes the
// resulting snapshot. The derived percentage is recomputed in the store so
// concurrent advances never regress it.
func (p *Progress) Advance(ctx context.Context, jobID string, deltaPosts, deltaComments int) (*model.JobProgress, error) {
	if deltaPosts < 0 || deltaComments < 0 {
		return nil, apperrors.Validation("progress deltas must be non-negative")
	}
	snapshot, err := p.jobs.AdvanceProgress(ctx, jobID, deltaPosts, deltaComments)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, snapshot)
	return snapshot, nil
}

// SetStatus performs a compare-and-swap status transition and publishes the
// post-transition snapshot. Illegal transitions are rejected before any store
// round-trip.
func (p *Progress) SetStatus(ctx context.Context, jobID string, from, to model.JobStatus, detail string) error {
	if !from.CanTransition(to) {
		return apperrors.Conflictf("illegal transition %s -> %s", from, to)
	}
	if err := p.jobs.TransitionStatus(ctx, jobID, from, to, detail); err != nil {
		return err
	}

	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		p.logger.Warn("progress snapshot read failed after transition",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		return nil
	}
	p.publish(ctx, &model.JobProgress{
		JobID:             job.JobID,
		Status:            job.Status,
		Progress:          job.Progress,
		CollectedPosts:    job.CollectedPosts,
		CollectedComments: job.CollectedComments,
	})
	return nil
}

func (p *Progress) publish(ctx context.Context, snapshot *model.JobProgress) {
	if p.mirror == nil || snapshot == nil {
		return
	}
	if err := p.mirror.PublishProgress(ctx, snapshot); err != nil {
		p.logger.Warn("progress publish failed",
			slog.String("job_id", snapshot.JobID),
			slog.String("error", err.Error()))
	}
}
