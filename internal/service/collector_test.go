package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

type collectorHarness struct {
	jobs      *fakeJobRepo
	posts     *fakePostRepo
	comments  *fakeCommentRepo
	users     *fakeUserRepo
	analytics *fakeAnalyticsRepo
	fetcher   *fakeFetcher
	collector *Collector
}

func newCollectorHarness() *collectorHarness {
	h := &collectorHarness{
		jobs:      newFakeJobRepo(),
		posts:     newFakePostRepo(),
		comments:  newFakeCommentRepo(),
		users:     newFakeUserRepo(),
		analytics: newFakeAnalyticsRepo(),
		fetcher:   newFakeFetcher(),
	}
	writer := NewWriter(WriterOptions{Posts: h.posts, Comments: h.comments, Users: h.users})
	progress := NewProgress(ProgressOptions{Jobs: h.jobs})
	analyzer := NewAnalyzer(AnalyzerOptions{Posts: h.posts, Comments: h.comments, Analytics: h.analytics})
	h.collector = NewCollector(CollectorOptions{
		Jobs:                   h.jobs,
		Fetcher:                h.fetcher,
		Writer:                 writer,
		Progress:               progress,
		Scorer:                 NewLexiconScorer(),
		Analyzer:               analyzer,
		CombinationConcurrency: 2,
	})
	return h
}

func (h *collectorHarness) addPendingJob(params model.CollectionParams) *model.CollectionJob {
	job := &model.CollectionJob{
		JobID:  "job-1",
		Params: params,
		Status: model.JobStatusPending,
	}
	h.jobs.addJob(job)
	return job
}

func singleComboParams() model.CollectionParams {
	return model.CollectionParams{
		Subreddits:      []string{"golang"},
		SortTypes:       []model.SortType{model.SortHot},
		PostLimit:       5,
		MaxCommentDepth: 3,
	}
}

func listingPost(id string, score int) model.Post {
	author := "author_" + id
	return model.Post{
		RedditID:   id,
		Title:      "post " + id,
		Subreddit:  "golang",
		Author:     &author,
		Score:      score,
		CreatedUTC: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestCollectorExecuteCompletesJob(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.MinScore = 10
	job := h.addPendingJob(params)

	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50), listingPost("p2", 3)},
		Exhausted: true,
	}}

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.CollectedPosts)
	assert.Equal(t, 5, stored.TotalExpected)

	// Only the post above the score floor was written, stamped with the job.
	require.Len(t, h.posts.posts, 1)
	assert.Equal(t, job.JobID, h.posts.posts["p1"].JobID)

	// Authors are profiled for non-anonymized jobs.
	assert.Contains(t, h.users.users, "author_p1")

	// Analytics ran after completion.
	summary, err := h.analytics.GetByJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalPosts)
}

func TestCollectorExecuteClaimConflict(t *testing.T) {
	h := newCollectorHarness()
	job := h.addPendingJob(singleComboParams())

	// Another runner got there first.
	require.NoError(t, h.jobs.TransitionStatus(context.Background(), job.JobID,
		model.JobStatusPending, model.JobStatusRunning, ""))

	err := h.collector.Execute(context.Background(), job)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Zero(t, h.fetcher.postCalls)
}

func TestCollectorCombinationFailureIsLocal(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.Subreddits = []string{"golang", "gone"}
	job := h.addPendingJob(params)

	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50)},
		Exhausted: true,
	}}
	h.fetcher.postErrs["gone/hot"] = apperrors.NotFoundf("subreddit gone not found")

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.CollectedPosts)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "gone/hot")
}

func TestCollectorAllCombinationsFailedMarksJobFailed(t *testing.T) {
	h := newCollectorHarness()
	job := h.addPendingJob(singleComboParams())

	h.fetcher.postErrs["golang/hot"] = apperrors.Unavailable("upstream down")

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "golang/hot")
	assert.Contains(t, *stored.ErrorMessage, "no combination produced any results")
}

func TestCollectorUnauthorizedAbortsJob(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.Subreddits = []string{"golang", "rust"}
	job := h.addPendingJob(params)

	h.fetcher.postErrs["golang/hot"] = apperrors.Unauthorized("credentials revoked")
	h.fetcher.postErrs["rust/hot"] = apperrors.Unauthorized("credentials revoked")

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "credentials revoked")
}

func TestCollectorInvalidSourceAbortsJob(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.Subreddits = []string{"golang", "badsource"}
	job := h.addPendingJob(params)

	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50)},
		Exhausted: true,
	}}
	// A nonexistent source is a configuration error, not a transient one.
	h.fetcher.postErrs["badsource/hot"] = apperrors.Validation("resource not found: /r/badsource/hot.json")

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "resource not found")
}

func TestCollectorCooperativeCancellation(t *testing.T) {
	h := newCollectorHarness()
	job := h.addPendingJob(singleComboParams())

	// The flag is already set when the combination checks it between pages.
	h.jobs.mu.Lock()
	h.jobs.jobs[job.JobID].CancelRequested = true
	h.jobs.mu.Unlock()

	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50)},
		Exhausted: true,
	}}

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusCancelled, stored.Status)
	assert.Empty(t, h.posts.posts)
}

func TestCollectorShutdownRecordsDistinctDetail(t *testing.T) {
	h := newCollectorHarness()
	job := h.addPendingJob(singleComboParams())

	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50)},
		Exhausted: true,
	}}

	// The runner context is cancelled before any page is fetched, as on a
	// process shutdown. No cancel flag is set on the job.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.collector.Execute(ctx, job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusCancelled, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "interrupted by shutdown")
	assert.NotContains(t, *stored.ErrorMessage, "cancellation requested")
}

func TestCollectorAnonymizesAndScoresRecords(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.AnonymizeUsers = true
	job := h.addPendingJob(params)

	post := listingPost("p1", 50)
	post.Title = "this library is great and helpful"
	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{post},
		Exhausted: true,
	}}

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored, ok := h.posts.posts["p1"]
	require.True(t, ok)
	require.NotNil(t, stored.Author)
	assert.Equal(t, model.AnonymizedAuthor, *stored.Author)
	assert.Nil(t, stored.AuthorID)
	require.NotNil(t, stored.SentimentScore)
	assert.Positive(t, *stored.SentimentScore)

	// No author profiles for anonymized jobs.
	assert.Empty(t, h.users.users)
}

func TestCollectorCommentTraversalRespectsBudgetAndDepth(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.PostLimit = 1
	params.CommentLimit = 3
	params.MaxCommentDepth = 1
	job := h.addPendingJob(params)

	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50)},
		Exhausted: true,
	}}
	mkComment := func(id string) model.Comment {
		author := "author_" + id
		return model.Comment{
			RedditID:   id,
			Body:       "comment " + id,
			Author:     &author,
			CreatedUTC: time.Date(2025, 6, 15, 13, 0, 0, 0, time.UTC),
		}
	}
	h.fetcher.commentPages["p1|"] = []core.CommentPage{{
		Comments:  []model.Comment{mkComment("c1"), mkComment("c2")},
		Exhausted: true,
	}}
	h.fetcher.commentPages["p1|c1"] = []core.CommentPage{{
		Comments:  []model.Comment{mkComment("c3"), mkComment("c4")},
		Exhausted: true,
	}}

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusCompleted, stored.Status)
	assert.Equal(t, 3, stored.CollectedComments)

	// Budget of 3 stops before c4; depth tracks the traversal.
	require.Len(t, h.comments.comments, 3)
	assert.Equal(t, 0, h.comments.comments["c1"].Depth)
	assert.Equal(t, 0, h.comments.comments["c2"].Depth)
	c3 := h.comments.comments["c3"]
	assert.Equal(t, 1, c3.Depth)
	require.NotNil(t, c3.ParentRedditID)
	assert.Equal(t, "c1", *c3.ParentRedditID)
	assert.Equal(t, "p1", c3.PostRedditID)
}

func TestCollectorRetriesTransientWriteOnce(t *testing.T) {
	h := newCollectorHarness()
	job := h.addPendingJob(singleComboParams())

	h.posts.failWith = []error{apperrors.Unavailable("connection reset")}
	h.fetcher.postPages["golang/hot"] = []core.PostPage{{
		Posts:     []model.Post{listingPost("p1", 50)},
		Exhausted: true,
	}}

	require.NoError(t, h.collector.Execute(context.Background(), job))

	stored := h.jobs.job(job.JobID)
	assert.Equal(t, model.JobStatusCompleted, stored.Status)
	assert.Equal(t, 2, h.posts.upserts)
	assert.Len(t, h.posts.posts, 1)
}

func TestCollectorPaginatesUntilBudgetSpent(t *testing.T) {
	h := newCollectorHarness()
	params := singleComboParams()
	params.PostLimit = 4
	job := h.addPendingJob(params)

	h.fetcher.postPages["golang/hot"] = []core.PostPage{
		{Posts: []model.Post{listingPost("p1", 10), listingPost("p2", 10)}, After: "t3_p2"},
		{Posts: []model.Post{listingPost("p3", 10), listingPost("p4", 10)}, After: "t3_p4"},
		{Posts: []model.Post{listingPost("p5", 10)}, Exhausted: true},
	}

	require.NoError(t, h.collector.Execute(context.Background(), job))

	// Two pages cover the budget of 4; the third page is never requested.
	assert.Equal(t, 2, h.fetcher.postCalls)
	assert.Len(t, h.posts.posts, 4)
	assert.Equal(t, 4, h.jobs.job(job.JobID).CollectedPosts)
}
