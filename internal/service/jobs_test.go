package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

func TestJobServiceSubmit(t *testing.T) {
	jobs := newFakeJobRepo()
	svc := NewJobService(JobServiceOptions{Jobs: jobs})

	job, err := svc.Submit(context.Background(), &model.CreateJobRequest{
		Params: singleComboParams(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, model.JobStatusPending, job.Status)
}

func TestJobServiceSubmitValidation(t *testing.T) {
	svc := NewJobService(JobServiceOptions{Jobs: newFakeJobRepo()})

	_, err := svc.Submit(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// No subreddits.
	_, err = svc.Submit(context.Background(), &model.CreateJobRequest{
		Params: model.CollectionParams{SortTypes: []model.SortType{model.SortHot}, PostLimit: 10},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestJobServiceGet(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.addJob(&model.CollectionJob{JobID: "job-1", Status: model.JobStatusPending})
	svc := NewJobService(JobServiceOptions{Jobs: jobs})

	job, err := svc.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.JobID)

	_, err = svc.Get(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Get(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobServiceCancel(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.addJob(&model.CollectionJob{JobID: "pending-job", Status: model.JobStatusPending})
	jobs.addJob(&model.CollectionJob{JobID: "done-job", Status: model.JobStatusCompleted})
	svc := NewJobService(JobServiceOptions{Jobs: jobs})

	require.NoError(t, svc.Cancel(context.Background(), "pending-job"))
	assert.Equal(t, model.JobStatusCancelled, jobs.job("pending-job").Status)

	err := svc.Cancel(context.Background(), "done-job")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	err = svc.Cancel(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}
