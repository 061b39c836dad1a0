package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// AnalyticsRepo stores the derived summary per job. One row per job,
// overwritten on every recompute.
type AnalyticsRepo struct {
	db           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewAnalyticsRepo creates a new AnalyticsRepo.
func NewAnalyticsRepo(db *sql.DB, cfg RepoConfig) *AnalyticsRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsRepo{db: db, timeProvider: tp, logger: logger}
}

// Save upserts the summary for its job, replacing any prior snapshot.
func (r *AnalyticsRepo) Save(ctx context.Context, summary *model.AnalyticsSummary) error {
	if summary == nil || summary.JobID == "" {
		return apperrors.Validation("summary job id is required")
	}

	encoded, err := marshalSummaryJSON(summary)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO analytics (
			collection_job_id, total_posts, total_comments, total_users,
			avg_score, avg_comments_per_post, avg_upvote_ratio,
			top_posts, most_commented, active_authors, common_keywords,
			sentiment_distribution, post_hint_distribution,
			link_domain_distribution, posting_patterns, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (collection_job_id) DO UPDATE SET
			total_posts = EXCLUDED.total_posts,
			total_comments = EXCLUDED.total_comments,
			total_users = EXCLUDED.total_users,
			avg_score = EXCLUDED.avg_score,
			avg_comments_per_post = EXCLUDED.avg_comments_per_post,
			avg_upvote_ratio = EXCLUDED.avg_upvote_ratio,
			top_posts = EXCLUDED.top_posts,
			most_commented = EXCLUDED.most_commented,
			active_authors = EXCLUDED.active_authors,
			common_keywords = EXCLUDED.common_keywords,
			sentiment_distribution = EXCLUDED.sentiment_distribution,
			post_hint_distribution = EXCLUDED.post_hint_distribution,
			link_domain_distribution = EXCLUDED.link_domain_distribution,
			posting_patterns = EXCLUDED.posting_patterns,
			generated_at = EXCLUDED.generated_at`,
		summary.JobID, summary.TotalPosts, summary.TotalComments, summary.TotalUsers,
		summary.AvgScore, summary.AvgCommentsPerPost, summary.AvgUpvoteRatio,
		encoded.topPosts, encoded.mostCommented, encoded.activeAuthors,
		encoded.commonKeywords, encoded.sentiment, encoded.postHints,
		encoded.linkDomains, encoded.postingPatterns, summary.GeneratedAt)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// GetByJob returns the stored summary for a job, or NotFound.
func (r *AnalyticsRepo) GetByJob(ctx context.Context, jobID string) (*model.AnalyticsSummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT collection_job_id, total_posts, total_comments, total_users,
		       avg_score, avg_comments_per_post, avg_upvote_ratio,
		       top_posts, most_commented, active_authors, common_keywords,
		       sentiment_distribution, post_hint_distribution,
		       link_domain_distribution, posting_patterns, generated_at
		FROM analytics WHERE collection_job_id = $1`, jobID)

	var (
		s       model.AnalyticsSummary
		encoded summaryJSON
	)
	if err := row.Scan(
		&s.JobID, &s.TotalPosts, &s.TotalComments, &s.TotalUsers,
		&s.AvgScore, &s.AvgCommentsPerPost, &s.AvgUpvoteRatio,
		&encoded.topPosts, &encoded.mostCommented, &encoded.activeAuthors,
		&encoded.commonKeywords, &encoded.sentiment, &encoded.postHints,
		&encoded.linkDomains, &encoded.postingPatterns, &s.GeneratedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("no analytics summary for job %s", jobID)
		}
		return nil, apperrors.MapDBError(err)
	}
	if err := encoded.unmarshalInto(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// summaryJSON holds the JSONB-encoded columns of the analytics row.
type summaryJSON struct {
	topPosts        []byte
	mostCommented   []byte
	activeAuthors   []byte
	commonKeywords  []byte
	sentiment       []byte
	postHints       []byte
	linkDomains     []byte
	postingPatterns []byte
}

func marshalSummaryJSON(s *model.AnalyticsSummary) (*summaryJSON, error) {
	var (
		enc summaryJSON
		err error
	)
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&enc.topPosts, s.TopPosts},
		{&enc.mostCommented, s.MostCommented},
		{&enc.activeAuthors, s.ActiveAuthors},
		{&enc.commonKeywords, s.CommonKeywords},
		{&enc.sentiment, s.Sentiment},
		{&enc.postHints, s.PostHints},
		{&enc.linkDomains, s.LinkDomains},
		{&enc.postingPatterns, s.PostingPatterns},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return nil, fmt.Errorf("marshal summary field: %w", err)
		}
	}
	return &enc, nil
}

func (enc *summaryJSON) unmarshalInto(s *model.AnalyticsSummary) error {
	fields := []struct {
		src []byte
		dst any
	}{
		{enc.topPosts, &s.TopPosts},
		{enc.mostCommented, &s.MostCommented},
		{enc.activeAuthors, &s.ActiveAuthors},
		{enc.commonKeywords, &s.CommonKeywords},
		{enc.sentiment, &s.Sentiment},
		{enc.postHints, &s.PostHints},
		{enc.linkDomains, &s.LinkDomains},
		{enc.postingPatterns, &s.PostingPatterns},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return fmt.Errorf("unmarshal summary field: %w", err)
		}
	}
	return nil
}

var _ core.AnalyticsRepository = (*AnalyticsRepo)(nil)
