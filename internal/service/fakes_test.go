package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// In-memory fakes for the core ports. They reproduce the store semantics the
// services rely on: CAS status transitions, first-write-wins provenance, and
// idempotent upserts keyed on external identity.

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.CollectionJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*model.CollectionJob{}}
}

func (f *fakeJobRepo) addJob(job *model.CollectionJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.JobID] = &cp
}

func (f *fakeJobRepo) job(id string) model.CollectionJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.jobs[id]
}

func (f *fakeJobRepo) Create(_ context.Context, req *model.CreateJobRequest) (*model.CollectionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job := &model.CollectionJob{
		JobID:  uuid.NewString(),
		UserID: req.UserID,
		Params: req.Params,
		Status: model.JobStatusPending,
	}
	f.jobs[job.JobID] = job
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, jobID string) (*model.CollectionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", jobID)
	}
	cp := *job
	return &cp, nil
}

func (f *fakeJobRepo) NextPending(_ context.Context) (*model.CollectionJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.Status == model.JobStatusPending {
			cp := *job
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("no pending jobs")
}

func (f *fakeJobRepo) TransitionStatus(_ context.Context, jobID string, from, to model.JobStatus, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return apperrors.NotFoundf("job %s not found", jobID)
	}
	if job.Status != from || !from.CanTransition(to) {
		return apperrors.Conflictf("job %s is %s, cannot move %s -> %s", jobID, job.Status, from, to)
	}
	job.Status = to
	if detail != "" {
		appendDetail(job, detail)
	}
	return nil
}

func (f *fakeJobRepo) AppendError(_ context.Context, jobID, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return apperrors.NotFoundf("job %s not found", jobID)
	}
	appendDetail(job, detail)
	return nil
}

func appendDetail(job *model.CollectionJob, detail string) {
	if job.ErrorMessage == nil {
		job.ErrorMessage = &detail
		return
	}
	combined := *job.ErrorMessage + "; " + detail
	job.ErrorMessage = &combined
}

func (f *fakeJobRepo) AdvanceProgress(_ context.Context, jobID string, deltaPosts, deltaComments int) (*model.JobProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFoundf("job %s not found", jobID)
	}
	job.CollectedPosts += deltaPosts
	job.CollectedComments += deltaComments
	total := job.TotalExpected
	if total < 1 {
		total = 1
	}
	job.Progress = job.CollectedPosts * 100 / total
	if job.Progress > 100 {
		job.Progress = 100
	}
	return &model.JobProgress{
		JobID:             job.JobID,
		Status:            job.Status,
		Progress:          job.Progress,
		CollectedPosts:    job.CollectedPosts,
		CollectedComments: job.CollectedComments,
	}, nil
}

func (f *fakeJobRepo) SetTotalExpected(_ context.Context, jobID string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return apperrors.NotFoundf("job %s not found", jobID)
	}
	job.TotalExpected = total
	return nil
}

func (f *fakeJobRepo) RequestCancel(_ context.Context, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return false, apperrors.NotFoundf("job %s not found", jobID)
	}
	if job.Status.Terminal() {
		return false, nil
	}
	if job.Status == model.JobStatusPending {
		job.Status = model.JobStatusCancelled
	}
	job.CancelRequested = true
	return true, nil
}

func (f *fakeJobRepo) CancelRequested(_ context.Context, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return false, apperrors.NotFoundf("job %s not found", jobID)
	}
	return job.CancelRequested, nil
}

var _ core.JobRepository = (*fakeJobRepo)(nil)

type fakePostRepo struct {
	mu       sync.Mutex
	posts    map[string]model.Post
	failWith []error
	upserts  int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]model.Post{}}
}

func (f *fakePostRepo) Upsert(_ context.Context, post *model.Post) (core.WriteOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if len(f.failWith) > 0 {
		err := f.failWith[0]
		f.failWith = f.failWith[1:]
		if err != nil {
			return core.OutcomeSkipped, err
		}
	}
	if existing, ok := f.posts[post.RedditID]; ok {
		// Provenance is first-write-wins, metrics last-write-wins.
		post.JobID = existing.JobID
		post.CollectedAt = existing.CollectedAt
		updated := existing
		updated.Score = post.Score
		updated.UpvoteRatio = post.UpvoteRatio
		updated.NumComments = post.NumComments
		updated.AwardsReceived = post.AwardsReceived
		updated.SentimentScore = post.SentimentScore
		f.posts[post.RedditID] = updated
		return core.OutcomeUpdated, nil
	}
	f.posts[post.RedditID] = *post
	return core.OutcomeInserted, nil
}

func (f *fakePostRepo) ListByJob(_ context.Context, jobID string) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Post
	for _, p := range f.posts {
		if p.JobID == jobID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedUTC.Before(out[j].CreatedUTC) })
	return out, nil
}

var _ core.PostRepository = (*fakePostRepo)(nil)

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string]model.Comment
	failWith []error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[string]model.Comment{}}
}

func (f *fakeCommentRepo) Upsert(_ context.Context, comment *model.Comment) (core.WriteOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failWith) > 0 {
		err := f.failWith[0]
		f.failWith = f.failWith[1:]
		if err != nil {
			return core.OutcomeSkipped, err
		}
	}
	if existing, ok := f.comments[comment.RedditID]; ok {
		comment.JobID = existing.JobID
		updated := existing
		updated.Score = comment.Score
		updated.AwardsReceived = comment.AwardsReceived
		updated.SentimentScore = comment.SentimentScore
		f.comments[comment.RedditID] = updated
		return core.OutcomeUpdated, nil
	}
	f.comments[comment.RedditID] = *comment
	return core.OutcomeInserted, nil
}

func (f *fakeCommentRepo) ListByJob(_ context.Context, jobID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Comment
	for _, c := range f.comments {
		if c.JobID == jobID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedUTC.Before(out[j].CreatedUTC) })
	return out, nil
}

var _ core.CommentRepository = (*fakeCommentRepo)(nil)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.RedditUser
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]model.RedditUser{}}
}

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.RedditUser) (core.WriteOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.Username]; ok {
		f.users[user.Username] = *user
		return core.OutcomeUpdated, nil
	}
	f.users[user.Username] = *user
	return core.OutcomeInserted, nil
}

var _ core.UserRepository = (*fakeUserRepo)(nil)

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	byJob   map[string]*model.AnalyticsSummary
	saveErr error
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{byJob: map[string]*model.AnalyticsSummary{}}
}

func (f *fakeAnalyticsRepo) Save(_ context.Context, summary *model.AnalyticsSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *summary
	f.byJob[summary.JobID] = &cp
	return nil
}

func (f *fakeAnalyticsRepo) GetByJob(_ context.Context, jobID string) (*model.AnalyticsSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary, ok := f.byJob[jobID]
	if !ok {
		return nil, apperrors.NotFoundf("no analytics summary for job %s", jobID)
	}
	cp := *summary
	return &cp, nil
}

var _ core.AnalyticsRepository = (*fakeAnalyticsRepo)(nil)

// fakeFetcher serves scripted pages keyed by combination (posts) and by
// post/parent pair (comments).
type fakeFetcher struct {
	mu           sync.Mutex
	postPages    map[string][]core.PostPage
	postErrs     map[string]error
	commentPages map[string][]core.CommentPage
	commentErr   error
	postCalls    int
	commentCalls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		postPages:    map[string][]core.PostPage{},
		postErrs:     map[string]error{},
		commentPages: map[string][]core.CommentPage{},
	}
}

func comboKey(q core.PostQuery) string {
	return model.Combination{Subreddit: q.Subreddit, Sort: q.Sort, Time: q.Time}.String()
}

func commentKey(q core.CommentQuery) string {
	return q.PostRedditID + "|" + q.ParentRedditID
}

func (f *fakeFetcher) FetchPosts(_ context.Context, q core.PostQuery) (*core.PostPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postCalls++
	key := comboKey(q)
	if err, ok := f.postErrs[key]; ok {
		return nil, err
	}
	pages := f.postPages[key]
	if len(pages) == 0 {
		return &core.PostPage{Exhausted: true}, nil
	}
	page := pages[0]
	f.postPages[key] = pages[1:]
	return &page, nil
}

func (f *fakeFetcher) FetchComments(_ context.Context, q core.CommentQuery) (*core.CommentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentCalls++
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	pages := f.commentPages[commentKey(q)]
	if len(pages) == 0 {
		return &core.CommentPage{Exhausted: true}, nil
	}
	page := pages[0]
	f.commentPages[commentKey(q)] = pages[1:]
	return &page, nil
}

var _ core.PageFetcher = (*fakeFetcher)(nil)
