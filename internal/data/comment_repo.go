package data

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// CommentRepo provides database operations for collected comments.
type CommentRepo struct {
	db           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewCommentRepo creates a new CommentRepo.
func NewCommentRepo(db *sql.DB, cfg RepoConfig) *CommentRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentRepo{db: db, timeProvider: tp, logger: logger}
}

const commentColumns = `
  reddit_id,
  collection_job_id,
  post_reddit_id,
  parent_reddit_id,
  body,
  author,
  author_id,
  depth,
  score,
  awards_received,
  is_submitter,
  is_stickied,
  created_utc,
  collected_at,
  sentiment_score
`

// Upsert inserts the comment or refreshes its metric fields when the external
// id already exists. Same first-write-wins provenance rules as posts.
func (r *CommentRepo) Upsert(ctx context.Context, comment *model.Comment) (core.WriteOutcome, error) {
	if comment == nil || comment.RedditID == "" {
		return core.OutcomeSkipped, apperrors.Validation("comment reddit_id is required")
	}
	if comment.Depth < 0 {
		return core.OutcomeSkipped, apperrors.Validation("comment depth must be >= 0")
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO reddit_comments (
			reddit_id, collection_job_id, post_reddit_id, parent_reddit_id, body,
			author, author_id, depth, score, awards_received, is_submitter,
			is_stickied, created_utc, collected_at, sentiment_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (reddit_id) DO UPDATE SET
			score = EXCLUDED.score,
			awards_received = EXCLUDED.awards_received,
			sentiment_score = COALESCE(EXCLUDED.sentiment_score, reddit_comments.sentiment_score)
		RETURNING (xmax = 0), collected_at`,
		comment.RedditID, comment.JobID, comment.PostRedditID, comment.ParentRedditID,
		comment.Body, comment.Author, comment.AuthorID, comment.Depth, comment.Score,
		comment.AwardsReceived, comment.IsSubmitter, comment.IsStickied,
		comment.CreatedUTC, r.timeProvider.Now(), comment.SentimentScore)

	var inserted bool
	if err := row.Scan(&inserted, &comment.CollectedAt); err != nil {
		return core.OutcomeSkipped, apperrors.MapDBError(err)
	}
	if inserted {
		return core.OutcomeInserted, nil
	}
	return core.OutcomeUpdated, nil
}

// ListByJob returns all comments whose provenance is the given job, oldest first.
func (r *CommentRepo) ListByJob(ctx context.Context, jobID string) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM reddit_comments
		WHERE collection_job_id = $1
		ORDER BY created_utc ASC`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(
			&c.RedditID, &c.JobID, &c.PostRedditID, &c.ParentRedditID, &c.Body,
			&c.Author, &c.AuthorID, &c.Depth, &c.Score, &c.AwardsReceived,
			&c.IsSubmitter, &c.IsStickied, &c.CreatedUTC, &c.CollectedAt,
			&c.SentimentScore,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return comments, nil
}

var _ core.CommentRepository = (*CommentRepo)(nil)
