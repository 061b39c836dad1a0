package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/data/pgxutil"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// RepoConfig holds shared configuration for repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for collection job management.
type JobRepo struct {
	db           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRepo{db: db, timeProvider: tp, logger: logger}
}

const jobColumns = `
  job_id,
  user_id,
  params,
  status,
  progress,
  total_expected,
  collected_posts,
  collected_comments,
  error_message,
  cancel_requested,
  created_at,
  started_at,
  completed_at,
  updated_at
`

// Create stores a new job in pending status and notifies listening runners.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.CollectionJob, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid collection parameters")
	}

	params, err := json.Marshal(req.Params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	jobID := uuid.NewString()
	now := r.timeProvider.Now()

	var job *model.CollectionJob
	txErr := pgxutil.WithPgxTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, qErr := tx.Query(ctx, `
			INSERT INTO collection_jobs (job_id, user_id, params, status, created_at, updated_at)
			VALUES ($1, $2, $3, 'pending', $4, $4)
			RETURNING `+jobColumns,
			jobID, req.UserID, params, now)
		if qErr != nil {
			return fmt.Errorf("insert job: %w", qErr)
		}
		job, qErr = collectJob(rows)
		if qErr != nil {
			return fmt.Errorf("collect job: %w", qErr)
		}
		if _, nErr := tx.Exec(ctx, `SELECT pg_notify('collection_job_added', $1::text)`, job.JobID); nErr != nil {
			return fmt.Errorf("send job notification: %w", nErr)
		}
		return nil
	})
	if txErr != nil {
		return nil, apperrors.MapDBError(txErr)
	}
	return job, nil
}

// GetByID returns the current snapshot of a job: status, counters, error detail.
func (r *JobRepo) GetByID(ctx context.Context, jobID string) (*model.CollectionJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM collection_jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrap(ErrJobNotFound, apperrors.ErrCodeNotFound, "job "+jobID)
		}
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// NextPending returns the oldest pending, non-cancelled job, or ErrNoJobsPending.
// It does not claim the job; the TransitionStatus CAS arbitrates between runners.
func (r *JobRepo) NextPending(ctx context.Context) (*model.CollectionJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+`
		FROM collection_jobs
		WHERE status = 'pending' AND cancel_requested = FALSE
		ORDER BY created_at ASC
		LIMIT 1`)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoJobsPending
		}
		return nil, apperrors.MapDBError(err)
	}
	return job, nil
}

// TransitionStatus atomically moves a job between statuses with CAS semantics.
// The transition must appear in the model transition table; losing a CAS race
// or attempting to leave a terminal state yields a Conflict error.
func (r *JobRepo) TransitionStatus(
	ctx context.Context,
	jobID string,
	from, to model.JobStatus,
	detail string,
) error {
	if !from.Valid() || !to.Valid() {
		return apperrors.Validationf("invalid job status %q -> %q", from, to)
	}
	if !from.CanTransition(to) {
		return apperrors.Conflictf("illegal job status transition %q -> %q", from, to)
	}

	now := r.timeProvider.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE collection_jobs SET
			status = $3,
			started_at = CASE WHEN $3 = 'running' THEN COALESCE(started_at, $4) ELSE started_at END,
			completed_at = CASE WHEN $3 IN ('completed', 'failed', 'cancelled') THEN $4 ELSE completed_at END,
			error_message = CASE
				WHEN $5 = '' THEN error_message
				WHEN error_message IS NULL OR error_message = '' THEN $5
				ELSE error_message || '; ' || $5
			END,
			updated_at = $4
		WHERE job_id = $1 AND status = $2`,
		jobID, from, to, now, detail)
	if err != nil {
		return apperrors.MapDBError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, getErr := r.GetByID(ctx, jobID)
		if getErr != nil {
			return getErr
		}
		return apperrors.Conflictf("job %s is %q, expected %q", jobID, current.Status, from)
	}

	r.logger.DebugContext(ctx, "job status transition", "job_id", jobID, "from", from, "to", to)
	return nil
}

// AppendError appends a combination-level error detail without touching status.
func (r *JobRepo) AppendError(ctx context.Context, jobID, detail string) error {
	if detail == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE collection_jobs SET
			error_message = CASE
				WHEN error_message IS NULL OR error_message = '' THEN $2
				ELSE error_message || '; ' || $2
			END,
			updated_at = $3
		WHERE job_id = $1`,
		jobID, detail, r.timeProvider.Now())
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// AdvanceProgress atomically increments the collected counters and recomputes
// the derived percentage against the total-expected estimate.
func (r *JobRepo) AdvanceProgress(
	ctx context.Context,
	jobID string,
	deltaPosts, deltaComments int,
) (*model.JobProgress, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE collection_jobs SET
			collected_posts = collected_posts + $2,
			collected_comments = collected_comments + $3,
			progress = LEAST(100, (collected_posts + $2) * 100 / GREATEST(total_expected, 1)),
			updated_at = $4
		WHERE job_id = $1
		RETURNING job_id, status, progress, collected_posts, collected_comments`,
		jobID, deltaPosts, deltaComments, r.timeProvider.Now())

	var p model.JobProgress
	if err := row.Scan(&p.JobID, &p.Status, &p.Progress, &p.CollectedPosts, &p.CollectedComments); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrap(ErrJobNotFound, apperrors.ErrCodeNotFound, "job "+jobID)
		}
		return nil, apperrors.MapDBError(err)
	}
	return &p, nil
}

// SetTotalExpected records the progress-display denominator estimate.
func (r *JobRepo) SetTotalExpected(ctx context.Context, jobID string, total int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE collection_jobs SET total_expected = $2, updated_at = $3
		WHERE job_id = $1`,
		jobID, total, r.timeProvider.Now())
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// RequestCancel flags a job for cooperative cancellation. A still-pending job
// is cancelled immediately; a running job is cancelled by its orchestrator at
// the next page boundary. Returns false when the job is already terminal.
func (r *JobRepo) RequestCancel(ctx context.Context, jobID string) (bool, error) {
	now := r.timeProvider.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE collection_jobs SET
			cancel_requested = TRUE,
			status = CASE WHEN status = 'pending' THEN 'cancelled' ELSE status END,
			completed_at = CASE WHEN status = 'pending' THEN $2 ELSE completed_at END,
			updated_at = $2
		WHERE job_id = $1 AND status IN ('pending', 'running')`,
		jobID, now)
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-terminal.
		if _, getErr := r.GetByID(ctx, jobID); getErr != nil {
			return false, getErr
		}
		return false, nil
	}
	return true, nil
}

// CancelRequested reports whether cancellation has been requested for the job.
func (r *JobRepo) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	var requested bool
	err := r.db.QueryRowContext(ctx,
		`SELECT cancel_requested FROM collection_jobs WHERE job_id = $1`, jobID,
	).Scan(&requested)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.Wrap(ErrJobNotFound, apperrors.ErrCodeNotFound, "job "+jobID)
		}
		return false, apperrors.MapDBError(err)
	}
	return requested, nil
}

// rowScanner abstracts *sql.Row and pgx.Rows for the shared scan path.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.CollectionJob, error) {
	var (
		job    model.CollectionJob
		params []byte
	)
	if err := row.Scan(
		&job.JobID,
		&job.UserID,
		&params,
		&job.Status,
		&job.Progress,
		&job.TotalExpected,
		&job.CollectedPosts,
		&job.CollectedComments,
		&job.ErrorMessage,
		&job.CancelRequested,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return &job, nil
}

func collectJob(rows pgx.Rows) (*model.CollectionJob, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanJob(rows)
}

var _ core.JobRepository = (*JobRepo)(nil)
