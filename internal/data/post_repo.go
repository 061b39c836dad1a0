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

// PostRepo provides database operations for collected posts.
type PostRepo struct {
	db           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewPostRepo creates a new PostRepo.
func NewPostRepo(db *sql.DB, cfg RepoConfig) *PostRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostRepo{db: db, timeProvider: tp, logger: logger}
}

const postColumns = `
  reddit_id,
  collection_job_id,
  title,
  selftext,
  url,
  permalink,
  subreddit,
  author,
  author_id,
  score,
  upvote_ratio,
  num_comments,
  awards_received,
  is_nsfw,
  is_spoiler,
  is_stickied,
  post_hint,
  created_utc,
  collected_at,
  sentiment_score
`

// Upsert inserts the post or, when the external id already exists, refreshes
// its metric fields. Provenance fields (collection_job_id, collected_at) are
// first-write-wins: re-collection never resets them. The xmax = 0 check
// distinguishes a fresh insert from a conflict update.
func (r *PostRepo) Upsert(ctx context.Context, post *model.Post) (core.WriteOutcome, error) {
	if post == nil || post.RedditID == "" {
		return core.OutcomeSkipped, apperrors.Validation("post reddit_id is required")
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO reddit_posts (
			reddit_id, collection_job_id, title, selftext, url, permalink, subreddit,
			author, author_id, score, upvote_ratio, num_comments, awards_received,
			is_nsfw, is_spoiler, is_stickied, post_hint, created_utc, collected_at,
			sentiment_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (reddit_id) DO UPDATE SET
			score = EXCLUDED.score,
			upvote_ratio = EXCLUDED.upvote_ratio,
			num_comments = EXCLUDED.num_comments,
			awards_received = EXCLUDED.awards_received,
			sentiment_score = COALESCE(EXCLUDED.sentiment_score, reddit_posts.sentiment_score)
		RETURNING (xmax = 0), collected_at`,
		post.RedditID, post.JobID, post.Title, post.SelfText, post.URL, post.Permalink,
		post.Subreddit, post.Author, post.AuthorID, post.Score, post.UpvoteRatio,
		post.NumComments, post.AwardsReceived, post.IsNSFW, post.IsSpoiler,
		post.IsStickied, post.PostHint, post.CreatedUTC, r.timeProvider.Now(),
		post.SentimentScore)

	var inserted bool
	if err := row.Scan(&inserted, &post.CollectedAt); err != nil {
		return core.OutcomeSkipped, apperrors.MapDBError(err)
	}
	if inserted {
		return core.OutcomeInserted, nil
	}
	return core.OutcomeUpdated, nil
}

// ListByJob returns all posts whose provenance is the given job, oldest first.
func (r *PostRepo) ListByJob(ctx context.Context, jobID string) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM reddit_posts
		WHERE collection_job_id = $1
		ORDER BY created_utc ASC`, jobID)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.RedditID, &p.JobID, &p.Title, &p.SelfText, &p.URL, &p.Permalink,
			&p.Subreddit, &p.Author, &p.AuthorID, &p.Score, &p.UpvoteRatio,
			&p.NumComments, &p.AwardsReceived, &p.IsNSFW, &p.IsSpoiler,
			&p.IsStickied, &p.PostHint, &p.CreatedUTC, &p.CollectedAt,
			&p.SentimentScore,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return posts, nil
}

var _ core.PostRepository = (*PostRepo)(nil)
