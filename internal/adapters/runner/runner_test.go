package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trendit/collector-go/internal/data"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
	"github.com/trendit/collector-go/internal/mocks"
)

// stubJobRepo hands out one pending job and then reports an empty queue. Only
// the methods the runner path exercises carry real behavior.
type stubJobRepo struct {
	mu     sync.Mutex
	job    *model.CollectionJob
	served bool
}

func (s *stubJobRepo) Create(context.Context, *model.CreateJobRequest) (*model.CollectionJob, error) {
	return nil, errors.New("not implemented")
}

func (s *stubJobRepo) GetByID(_ context.Context, jobID string) (*model.CollectionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.JobID != jobID {
		return nil, data.ErrJobNotFound
	}
	cp := *s.job
	return &cp, nil
}

func (s *stubJobRepo) NextPending(context.Context) (*model.CollectionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.served || s.job == nil || s.job.Status != model.JobStatusPending {
		return nil, data.ErrNoJobsPending
	}
	s.served = true
	cp := *s.job
	return &cp, nil
}

func (s *stubJobRepo) TransitionStatus(_ context.Context, jobID string, from, to model.JobStatus, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil || s.job.JobID != jobID || s.job.Status != from {
		return apperrors.Conflictf("job %s cannot move %s -> %s", jobID, from, to)
	}
	s.job.Status = to
	if detail != "" {
		s.job.ErrorMessage = &detail
	}
	return nil
}

func (s *stubJobRepo) AppendError(context.Context, string, string) error { return nil }

func (s *stubJobRepo) AdvanceProgress(context.Context, string, int, int) (*model.JobProgress, error) {
	return &model.JobProgress{}, nil
}

func (s *stubJobRepo) SetTotalExpected(context.Context, string, int) error { return nil }

func (s *stubJobRepo) RequestCancel(context.Context, string) (bool, error) { return false, nil }

func (s *stubJobRepo) CancelRequested(context.Context, string) (bool, error) { return false, nil }

func (s *stubJobRepo) status() model.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job.Status
}

func TestNewRunnerValidatesOptions(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)

	_, err := NewRunner(Options{Fetcher: fetcher})
	require.Error(t, err)

	_, err = NewRunner(Options{JobsRepo: &stubJobRepo{}})
	require.Error(t, err)

	r, err := NewRunner(Options{JobsRepo: &stubJobRepo{}, Fetcher: fetcher})
	require.NoError(t, err)
	assert.Equal(t, 1, r.workers)
	assert.Equal(t, defaultPollInterval, r.pollInterval)
}

func TestRunnerDrivesJobToTerminalStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockPageFetcher(ctrl)
	fetcher.EXPECT().
		FetchPosts(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Unauthorized("credentials revoked")).
		AnyTimes()

	jobs := &stubJobRepo{job: &model.CollectionJob{
		JobID:  "job-1",
		Status: model.JobStatusPending,
		Params: model.CollectionParams{
			Subreddits: []string{"golang"},
			SortTypes:  []model.SortType{model.SortHot},
			PostLimit:  5,
		},
	}}

	r, err := NewRunner(Options{
		JobsRepo:     jobs,
		Fetcher:      fetcher,
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return jobs.status().Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}

	assert.Equal(t, model.JobStatusFailed, jobs.status())
}
