package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTransitions(t *testing.T) {
	all := []JobStatus{JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled}

	allowed := map[JobStatus]map[JobStatus]bool{
		JobStatusPending: {JobStatusRunning: true, JobStatusCancelled: true},
		JobStatusRunning: {JobStatusCompleted: true, JobStatusFailed: true, JobStatusCancelled: true},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestSortTypeWindowed(t *testing.T) {
	assert.True(t, SortTop.Windowed())
	assert.True(t, SortControversial.Windowed())
	assert.False(t, SortHot.Windowed())
	assert.False(t, SortNew.Windowed())
	assert.False(t, SortRising.Windowed())
}

func TestCombinationsCollapsesTimeAxisForUnwindowedSorts(t *testing.T) {
	params := CollectionParams{
		Subreddits:  []string{"golang", "programming"},
		SortTypes:   []SortType{SortHot, SortTop},
		TimeFilters: []TimeFilter{TimeDay, TimeWeek},
		PostLimit:   10,
	}

	combos := params.Combinations()

	// hot contributes one combination per subreddit, top contributes one per
	// subreddit per time filter.
	require.Len(t, combos, 2*(1+2))

	var hotCount, topCount int
	for _, c := range combos {
		switch c.Sort {
		case SortHot:
			hotCount++
			assert.Empty(t, c.Time)
		case SortTop:
			topCount++
			assert.NotEmpty(t, c.Time)
		}
	}
	assert.Equal(t, 2, hotCount)
	assert.Equal(t, 4, topCount)
}

func TestCombinationsDefaultsTimeFilter(t *testing.T) {
	params := CollectionParams{
		Subreddits: []string{"golang"},
		SortTypes:  []SortType{SortTop},
		PostLimit:  10,
	}

	combos := params.Combinations()
	require.Len(t, combos, 1)
	assert.Equal(t, TimeAll, combos[0].Time)
}

func TestEstimateTotalExpected(t *testing.T) {
	job := CollectionJob{
		Params: CollectionParams{
			Subreddits: []string{"golang", "rust"},
			SortTypes:  []SortType{SortHot, SortNew},
			PostLimit:  25,
		},
	}
	assert.Equal(t, 4*25, job.EstimateTotalExpected())
}

func TestCollectionParamsValidate(t *testing.T) {
	valid := CollectionParams{
		Subreddits: []string{"golang"},
		SortTypes:  []SortType{SortHot},
		PostLimit:  10,
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*CollectionParams)
	}{
		{"no subreddits", func(p *CollectionParams) { p.Subreddits = nil }},
		{"blank subreddit", func(p *CollectionParams) { p.Subreddits = []string{"  "} }},
		{"no sort types", func(p *CollectionParams) { p.SortTypes = nil }},
		{"invalid sort type", func(p *CollectionParams) { p.SortTypes = []SortType{"best"} }},
		{"invalid time filter", func(p *CollectionParams) { p.TimeFilters = []TimeFilter{"decade"} }},
		{"zero post limit", func(p *CollectionParams) { p.PostLimit = 0 }},
		{"negative comment limit", func(p *CollectionParams) { p.CommentLimit = -1 }},
		{"negative depth", func(p *CollectionParams) { p.MaxCommentDepth = -1 }},
		{"ratio above one", func(p *CollectionParams) { p.MinUpvoteRatio = 1.5 }},
		{"unordered date range", func(p *CollectionParams) {
			from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			to := from.Add(-time.Hour)
			p.DateFrom = &from
			p.DateTo = &to
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestCombinationString(t *testing.T) {
	assert.Equal(t, "golang/hot", Combination{Subreddit: "golang", Sort: SortHot}.String())
	assert.Equal(t, "golang/top/week", Combination{Subreddit: "golang", Sort: SortTop, Time: TimeWeek}.String())
}
