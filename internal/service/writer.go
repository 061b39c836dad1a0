package service

import (
	"context"
	"log/slog"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	"github.com/trendit/collector-go/internal/observability/metrics"
	"github.com/trendit/collector-go/internal/observability/statsd"
)

// WriterOptions holds the Writer's collaborators. Mirror may be nil, in which
// case records land in the primary store only.
type WriterOptions struct {
	Posts    core.PostRepository
	Comments core.CommentRepository
	Users    core.UserRepository
	Mirror   core.MirrorStore
	Logger   *slog.Logger
	Metrics  statsd.Sink
}

// Writer performs the dual-store write step of the ingestion pipeline. The
// primary store is authoritative; the mirror is strictly best-effort and its
// failures are logged but never propagated.
type Writer struct {
	posts    core.PostRepository
	comments core.CommentRepository
	users    core.UserRepository
	mirror   core.MirrorStore
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewWriter creates a new Writer.
func NewWriter(opts WriterOptions) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		posts:    opts.Posts,
		comments: opts.Comments,
		users:    opts.Users,
		mirror:   opts.Mirror,
		logger:   logger,
		metrics:  opts.Metrics,
	}
}

// WritePost upserts a post into the primary store and mirrors it. The primary
// write decides the outcome; a mirror failure downgrades nothing.
func (w *Writer) WritePost(ctx context.Context, post *model.Post) (core.WriteOutcome, error) {
	outcome, err := w.posts.Upsert(ctx, post)
	if err != nil {
		return core.OutcomeSkipped, err
	}
	metrics.EmitWriteOutcome(w.metrics, "post", outcome.String())
	if w.mirror != nil {
		if err := w.mirror.UpsertPost(ctx, post); err != nil {
			w.logger.Warn("mirror post write failed",
				slog.String("reddit_id", post.RedditID),
				slog.String("error", err.Error()))
		}
	}
	return outcome, nil
}

// WriteComment upserts a comment into the primary store and mirrors it.
func (w *Writer) WriteComment(ctx context.Context, comment *model.Comment) (core.WriteOutcome, error) {
	outcome, err := w.comments.Upsert(ctx, comment)
	if err != nil {
		return core.OutcomeSkipped, err
	}
	metrics.EmitWriteOutcome(w.metrics, "comment", outcome.String())
	if w.mirror != nil {
		if err := w.mirror.UpsertComment(ctx, comment); err != nil {
			w.logger.Warn("mirror comment write failed",
				slog.String("reddit_id", comment.RedditID),
				slog.String("error", err.Error()))
		}
	}
	return outcome, nil
}

// WriteUser upserts an author profile. Profiles are never written for
// anonymized jobs; callers enforce that upstream.
func (w *Writer) WriteUser(ctx context.Context, user *model.RedditUser) (core.WriteOutcome, error) {
	outcome, err := w.users.Upsert(ctx, user)
	if err != nil {
		return core.OutcomeSkipped, err
	}
	metrics.EmitWriteOutcome(w.metrics, "user", outcome.String())
	return outcome, nil
}
