package service

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
	"github.com/trendit/collector-go/internal/observability/metrics"
	"github.com/trendit/collector-go/internal/observability/statsd"
)

const (
	defaultPageSize               = 100
	defaultCombinationConcurrency = 4
)

// CollectorOptions holds the Collector's collaborators and tuning knobs.
type CollectorOptions struct {
	Jobs     core.JobRepository
	Fetcher  core.PageFetcher
	Writer   *Writer
	Progress *Progress
	Scorer   core.SentimentScorer
	Analyzer *Analyzer
	Logger   *slog.Logger
	Metrics  statsd.Sink

	// CombinationConcurrency bounds in-flight combinations per job.
	CombinationConcurrency int
	// PageSize is the per-request listing page size, capped by the remaining
	// post budget of the combination.
	PageSize int
}

// Collector executes one collection job end to end: it claims the job,
// fans out over the parameter combinations, runs each record through the
// filter/anonymize/score/write pipeline, and decides the terminal status.
//
// Failures are combination-local. A combination that cannot make progress is
// recorded on the job and abandoned; the job itself fails only when a fatal
// error aborts execution or no combination produced a single successful page.
type Collector struct {
	jobs     core.JobRepository
	fetcher  core.PageFetcher
	writer   *Writer
	progress *Progress
	scorer   core.SentimentScorer
	analyzer *Analyzer
	logger   *slog.Logger
	metrics  statsd.Sink

	concurrency int
	pageSize    int
}

// NewCollector creates a new Collector.
func NewCollector(opts CollectorOptions) *Collector {
	concurrency := opts.CombinationConcurrency
	if concurrency <= 0 {
		concurrency = defaultCombinationConcurrency
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		jobs:        opts.Jobs,
		fetcher:     opts.Fetcher,
		writer:      opts.Writer,
		progress:    opts.Progress,
		scorer:      opts.Scorer,
		analyzer:    opts.Analyzer,
		logger:      logger,
		metrics:     opts.Metrics,
		concurrency: concurrency,
		pageSize:    pageSize,
	}
}

// Execute runs a pending job to a terminal status. The pending -> running
// compare-and-swap is the claim: when two runners race on the same job,
// exactly one proceeds and the loser gets a conflict error.
func (c *Collector) Execute(ctx context.Context, job *model.CollectionJob) error {
	logger := c.logger.With(slog.String("job_id", job.JobID))

	if err := c.progress.SetStatus(ctx, job.JobID, model.JobStatusPending, model.JobStatusRunning, ""); err != nil {
		return err
	}
	if err := c.jobs.SetTotalExpected(ctx, job.JobID, job.EstimateTotalExpected()); err != nil {
		logger.Warn("set total expected failed", slog.String("error", err.Error()))
	}

	combos := job.Params.Combinations()
	logger.Info("collection started",
		slog.Int("combinations", len(combos)),
		slog.Int("post_limit", job.Params.PostLimit))

	// A fatal error cancels all in-flight combinations; transient combination
	// failures never do.
	execCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	var successfulPages atomic.Int64
	group, groupCtx := errgroup.WithContext(execCtx)
	group.SetLimit(c.concurrency)
	for _, combo := range combos {
		group.Go(func() error {
			pages, err := c.collectCombination(groupCtx, job, combo)
			successfulPages.Add(int64(pages))
			if err == nil {
				return nil
			}
			// Fatal configuration errors (rejected credentials, invalid
			// source) doom every combination; anything else is local to
			// this one.
			if apperrors.IsFatal(err) {
				abort(err)
				return err
			}
			logger.Warn("combination abandoned",
				slog.String("combination", combo.String()),
				slog.String("error", err.Error()))
			c.recordCombinationError(ctx, job.JobID, combo, err)
			return nil
		})
	}
	groupErr := group.Wait()

	return c.finish(ctx, job, logger, finishState{
		fatal:           context.Cause(execCtx),
		groupErr:        groupErr,
		successfulPages: successfulPages.Load(),
		combinations:    len(combos),
	})
}

// recordCombinationError appends the combination's failure to the job's error
// detail. The write is detached from cancellation so late failures still land.
func (c *Collector) recordCombinationError(ctx context.Context, jobID string, combo model.Combination, cause error) {
	detail := combo.String() + ": " + cause.Error()
	if err := c.jobs.AppendError(context.WithoutCancel(ctx), jobID, detail); err != nil {
		c.logger.Warn("append job error failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}

type finishState struct {
	fatal           error
	groupErr        error
	successfulPages int64
	combinations    int
}

// finish decides and applies the terminal status. Terminal writes use a
// context detached from cancellation so an aborted run still records its fate.
func (c *Collector) finish(ctx context.Context, job *model.CollectionJob, logger *slog.Logger, state finishState) error {
	finishCtx := context.WithoutCancel(ctx)

	cancelled, err := c.jobs.CancelRequested(finishCtx, job.JobID)
	if err != nil {
		logger.Warn("cancel flag read failed", slog.String("error", err.Error()))
	}
	if cancelled || ctx.Err() != nil {
		// A runner shutdown lands on the same terminal status as a user
		// request, but records a distinct detail so the two are tellable
		// apart afterwards.
		detail := "cancellation requested"
		if !cancelled {
			detail = "interrupted by shutdown"
		}
		logger.Info("collection cancelled", slog.String("detail", detail))
		return c.progress.SetStatus(finishCtx, job.JobID, model.JobStatusRunning, model.JobStatusCancelled, detail)
	}

	if state.fatal != nil && state.fatal != context.Canceled {
		logger.Error("collection failed", slog.String("error", state.fatal.Error()))
		return c.progress.SetStatus(finishCtx, job.JobID, model.JobStatusRunning, model.JobStatusFailed, state.fatal.Error())
	}
	if state.groupErr != nil && apperrors.IsFatal(state.groupErr) {
		logger.Error("collection failed", slog.String("error", state.groupErr.Error()))
		return c.progress.SetStatus(finishCtx, job.JobID, model.JobStatusRunning, model.JobStatusFailed, state.groupErr.Error())
	}
	if state.combinations > 0 && state.successfulPages == 0 {
		detail := "no combination produced any results"
		logger.Error("collection failed", slog.String("error", detail))
		return c.progress.SetStatus(finishCtx, job.JobID, model.JobStatusRunning, model.JobStatusFailed, detail)
	}

	if err := c.progress.SetStatus(finishCtx, job.JobID, model.JobStatusRunning, model.JobStatusCompleted, ""); err != nil {
		return err
	}
	logger.Info("collection completed", slog.Int64("successful_pages", state.successfulPages))

	// Analytics is derived state. Failing to compute it never fails a job
	// that already collected its records.
	if c.analyzer != nil {
		if _, err := c.analyzer.Summarize(finishCtx, job.JobID); err != nil {
			logger.Warn("analytics summarize failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// collectCombination paginates one (subreddit, sort, time) unit until its post
// budget is spent or the listing is exhausted, returning how many pages were
// fetched and processed successfully.
func (c *Collector) collectCombination(ctx context.Context, job *model.CollectionJob, combo model.Combination) (int, error) {
	var (
		after     string
		pages     int
		remaining = job.Params.PostLimit
	)
	for remaining > 0 {
		stop, err := c.shouldStop(ctx, job.JobID)
		if err != nil || stop {
			return pages, err
		}

		limit := c.pageSize
		if remaining < limit {
			limit = remaining
		}
		page, err := c.fetcher.FetchPosts(ctx, core.PostQuery{
			Subreddit: combo.Subreddit,
			Sort:      combo.Sort,
			Time:      combo.Time,
			After:     after,
			Limit:     limit,
		})
		if err != nil {
			metrics.EmitPageFetch(c.metrics, metrics.ResultError)
			return pages, err
		}
		metrics.EmitPageFetch(c.metrics, metrics.ResultSuccess)

		postsWritten, commentsWritten := 0, 0
		for i := range page.Posts {
			wrotePosts, wroteComments, err := c.processPost(ctx, job, page.Posts[i])
			if err != nil {
				return pages, err
			}
			postsWritten += wrotePosts
			commentsWritten += wroteComments
		}
		if _, err := c.progress.Advance(ctx, job.JobID, postsWritten, commentsWritten); err != nil {
			c.logger.Warn("progress advance failed",
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()))
		}
		pages++

		remaining -= len(page.Posts)
		after = page.After
		if page.Exhausted || after == "" {
			break
		}
	}
	return pages, nil
}

// processPost runs one candidate post through the pipeline and, when the post
// is stored, collects its comment tree. Only fatal errors propagate.
func (c *Collector) processPost(ctx context.Context, job *model.CollectionJob, post model.Post) (int, int, error) {
	params := &job.Params
	if !MatchesPost(&post, params) {
		return 0, 0, nil
	}

	author := post.Author
	post.JobID = job.JobID
	post = AnonymizePost(post, params.AnonymizeUsers)
	c.scorePost(&post)

	outcome, err := c.writeWithRetry(ctx, func() (core.WriteOutcome, error) {
		return c.writer.WritePost(ctx, &post)
	})
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return 0, 0, err
		}
		c.logger.Warn("post write abandoned",
			slog.String("reddit_id", post.RedditID),
			slog.String("error", err.Error()))
		return 0, 0, nil
	}
	if outcome == core.OutcomeSkipped {
		return 0, 0, nil
	}

	c.writeAuthor(ctx, params, author, post.AuthorID)

	comments := 0
	if params.CommentLimit > 0 {
		comments, err = c.collectComments(ctx, job, &post)
		if err != nil {
			if apperrors.IsUnauthorized(err) {
				return 1, comments, err
			}
			c.logger.Warn("comment collection abandoned",
				slog.String("post", post.RedditID),
				slog.String("error", err.Error()))
		}
	}
	return 1, comments, nil
}

// collectComments walks a post's comment tree breadth-first, bounded by the
// job's comment budget and maximum depth.
func (c *Collector) collectComments(ctx context.Context, job *model.CollectionJob, post *model.Post) (int, error) {
	params := &job.Params

	type frame struct {
		parent string
		depth  int
	}
	queue := []frame{{parent: "", depth: 0}}
	written := 0
	budget := params.CommentLimit

	for len(queue) > 0 && budget > 0 {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		f := queue[0]
		queue = queue[1:]

		after := ""
		for budget > 0 {
			limit := c.pageSize
			if budget < limit {
				limit = budget
			}
			page, err := c.fetcher.FetchComments(ctx, core.CommentQuery{
				Subreddit:      post.Subreddit,
				PostRedditID:   post.RedditID,
				ParentRedditID: f.parent,
				After:          after,
				Limit:          limit,
			})
			if err != nil {
				return written, err
			}

			for i := range page.Comments {
				comment := page.Comments[i]
				comment.JobID = job.JobID
				comment.PostRedditID = post.RedditID
				comment.Depth = f.depth
				if f.parent != "" {
					parent := f.parent
					comment.ParentRedditID = &parent
				}
				budget--

				if !MatchesComment(&comment, params) {
					continue
				}
				author := comment.Author
				comment = AnonymizeComment(comment, params.AnonymizeUsers)
				c.scoreComment(&comment)

				outcome, err := c.writeWithRetry(ctx, func() (core.WriteOutcome, error) {
					return c.writer.WriteComment(ctx, &comment)
				})
				if err != nil {
					if apperrors.IsUnauthorized(err) {
						return written, err
					}
					c.logger.Warn("comment write abandoned",
						slog.String("reddit_id", comment.RedditID),
						slog.String("error", err.Error()))
					continue
				}
				if outcome == core.OutcomeSkipped {
					continue
				}
				written++
				c.writeAuthor(ctx, params, author, comment.AuthorID)

				if f.depth+1 <= params.MaxCommentDepth {
					queue = append(queue, frame{parent: comment.RedditID, depth: f.depth + 1})
				}
				if budget <= 0 {
					break
				}
			}

			after = page.After
			if page.Exhausted || after == "" || budget <= 0 {
				break
			}
		}
	}
	return written, nil
}

func (c *Collector) scorePost(post *model.Post) {
	if c.scorer == nil {
		return
	}
	if score, ok := c.scorer.Score(post.Title + " " + post.SelfText); ok {
		post.SentimentScore = &score
	}
}

func (c *Collector) scoreComment(comment *model.Comment) {
	if c.scorer == nil {
		return
	}
	if score, ok := c.scorer.Score(comment.Body); ok {
		comment.SentimentScore = &score
	}
}

// writeAuthor stores a minimal author profile. Profile writes are best-effort
// and never performed for anonymized jobs.
func (c *Collector) writeAuthor(ctx context.Context, params *model.CollectionParams, author, authorID *string) {
	if params.AnonymizeUsers || author == nil || *author == "" {
		return
	}
	user := &model.RedditUser{Username: *author, UserID: authorID}
	if _, err := c.writer.WriteUser(ctx, user); err != nil {
		c.logger.Warn("author profile write failed",
			slog.String("username", *author),
			slog.String("error", err.Error()))
	}
}

// writeWithRetry retries a write exactly once on a retryable error.
func (c *Collector) writeWithRetry(ctx context.Context, write func() (core.WriteOutcome, error)) (core.WriteOutcome, error) {
	outcome, err := write()
	if err == nil || !apperrors.IsRetryable(err) || ctx.Err() != nil {
		return outcome, err
	}
	return write()
}

// shouldStop checks for cooperative cancellation between pages.
func (c *Collector) shouldStop(ctx context.Context, jobID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return true, nil
	}
	cancelled, err := c.jobs.CancelRequested(ctx, jobID)
	if err != nil {
		// A flag read failure is not a reason to stop collecting.
		c.logger.Warn("cancel flag read failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		return false, nil
	}
	return cancelled, nil
}
