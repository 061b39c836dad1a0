// Package core defines the port interfaces between the collection engine's
// services and its collaborators (stores, the upstream record source, the
// optional mirror). Services depend on these interfaces, never on concrete
// implementations.
package core

import (
	"context"

	"github.com/trendit/collector-go/internal/domain/model"
)

// WriteOutcome reports what an idempotent upsert did with a record.
type WriteOutcome int

const (
	// OutcomeSkipped means the record was not written (filtered or invalid).
	OutcomeSkipped WriteOutcome = iota
	// OutcomeInserted means the record was stored for the first time.
	OutcomeInserted
	// OutcomeUpdated means an existing record's metric fields were refreshed.
	OutcomeUpdated
)

// String renders the outcome for logs and metrics tags.
func (o WriteOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// JobRepository provides durable storage for collection jobs. Status
// transitions use compare-and-swap semantics keyed on the expected current
// status; counter increments are atomic.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.CollectionJob, error)
	GetByID(ctx context.Context, jobID string) (*model.CollectionJob, error)
	// NextPending returns the oldest pending job, or ErrNoJobsPending.
	// Claiming is arbitrated by the TransitionStatus CAS, not here.
	NextPending(ctx context.Context) (*model.CollectionJob, error)
	// TransitionStatus atomically moves a job from one status to another.
	// A non-empty detail is appended to (never overwrites) the error detail.
	TransitionStatus(ctx context.Context, jobID string, from, to model.JobStatus, detail string) error
	// AppendError appends a combination-level error detail without touching status.
	AppendError(ctx context.Context, jobID, detail string) error
	// AdvanceProgress atomically increments the collected counters, recomputes
	// the derived percentage, and returns the updated snapshot.
	AdvanceProgress(ctx context.Context, jobID string, deltaPosts, deltaComments int) (*model.JobProgress, error)
	SetTotalExpected(ctx context.Context, jobID string, total int) error
	// RequestCancel flags a job for cooperative cancellation. Returns false
	// when the job is already terminal.
	RequestCancel(ctx context.Context, jobID string) (bool, error)
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}

// PostRepository stores posts keyed by their external identity.
type PostRepository interface {
	Upsert(ctx context.Context, post *model.Post) (WriteOutcome, error)
	ListByJob(ctx context.Context, jobID string) ([]model.Post, error)
}

// CommentRepository stores comments keyed by their external identity.
type CommentRepository interface {
	Upsert(ctx context.Context, comment *model.Comment) (WriteOutcome, error)
	ListByJob(ctx context.Context, jobID string) ([]model.Comment, error)
}

// UserRepository stores author profiles keyed by username.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.RedditUser) (WriteOutcome, error)
}

// AnalyticsRepository stores the derived summary per job, overwriting any
// prior snapshot (cache semantics, not an append log).
type AnalyticsRepository interface {
	Save(ctx context.Context, summary *model.AnalyticsSummary) error
	GetByJob(ctx context.Context, jobID string) (*model.AnalyticsSummary, error)
}

// MirrorStore is the optional secondary persistence target for live-visibility
// purposes. Every method is best-effort: failures are logged by callers and
// never escalate, and a nil MirrorStore degrades silently.
type MirrorStore interface {
	UpsertPost(ctx context.Context, post *model.Post) error
	UpsertComment(ctx context.Context, comment *model.Comment) error
	PublishProgress(ctx context.Context, progress *model.JobProgress) error
}

// PostQuery identifies one page of a combination's listing.
type PostQuery struct {
	Subreddit string
	Sort      model.SortType
	Time      model.TimeFilter
	After     string
	Limit     int
}

// CommentQuery identifies one page of a post's comment listing. An empty
// ParentRedditID requests top-level comments.
type CommentQuery struct {
	Subreddit      string
	PostRedditID   string
	ParentRedditID string
	After          string
	Limit          int
}

// PostPage is one fetched page of post records.
type PostPage struct {
	Posts     []model.Post
	After     string
	Exhausted bool
}

// CommentPage is one fetched page of comment records.
type CommentPage struct {
	Comments  []model.Comment
	After     string
	Exhausted bool
}

// PageFetcher is the upstream record source collaborator. Implementations own
// transport, request signing, per-attempt timeouts, and bounded backoff/retry;
// errors surfaced here are already final and classified via the errors package
// (retryable budgets exhausted, or fatal).
type PageFetcher interface {
	FetchPosts(ctx context.Context, q PostQuery) (*PostPage, error)
	FetchComments(ctx context.Context, q CommentQuery) (*CommentPage, error)
}

// SentimentScorer is the pluggable scoring function contract: input text,
// output score in [-1, 1]. ok is false for empty/non-text input, which
// analytics counts as unscored.
type SentimentScorer interface {
	Score(text string) (score float64, ok bool)
}
