// Package model defines the core data types used throughout the collection engine.
package model

import (
	"errors"
	"strings"
	"time"
)

// JobStatus represents the current status of a collection job.
type JobStatus string

// SortType represents a listing sort facet on the upstream API.
type SortType string

// TimeFilter represents a temporal window facet for windowed sorts.
type TimeFilter string

const (
	// JobStatusPending indicates a job is waiting to be claimed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a job is currently collecting.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates a job finished normally.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job failed to yield any results.
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates a job was cancelled on request.
	JobStatusCancelled JobStatus = "cancelled"

	SortHot           SortType = "hot"
	SortNew           SortType = "new"
	SortTop           SortType = "top"
	SortRising        SortType = "rising"
	SortControversial SortType = "controversial"

	TimeHour  TimeFilter = "hour"
	TimeDay   TimeFilter = "day"
	TimeWeek  TimeFilter = "week"
	TimeMonth TimeFilter = "month"
	TimeYear  TimeFilter = "year"
	TimeAll   TimeFilter = "all"
)

// jobTransitions is the closed transition table for job statuses. Any pair not
// listed here is an illegal transition; terminal statuses have no entries.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending: {JobStatusRunning, JobStatusCancelled},
	JobStatusRunning: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the transition s → to appears in the transition table.
func (s JobStatus) CanTransition(to JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Valid returns true if the SortType is valid.
func (t SortType) Valid() bool {
	switch t {
	case SortHot, SortNew, SortTop, SortRising, SortControversial:
		return true
	}
	return false
}

// Windowed reports whether the sort requires a temporal window facet.
func (t SortType) Windowed() bool {
	return t == SortTop || t == SortControversial
}

// Valid returns true if the TimeFilter is valid.
func (f TimeFilter) Valid() bool {
	switch f {
	case TimeHour, TimeDay, TimeWeek, TimeMonth, TimeYear, TimeAll:
		return true
	}
	return false
}

// CollectionParams are the immutable collection parameters of a job. They
// arrive fully range-checked from the submission layer; Validate is a guard
// for programmatic construction.
type CollectionParams struct {
	Subreddits      []string     `json:"subreddits"`
	SortTypes       []SortType   `json:"sort_types"`
	TimeFilters     []TimeFilter `json:"time_filters"`
	PostLimit       int          `json:"post_limit"`
	CommentLimit    int          `json:"comment_limit"`
	MaxCommentDepth int          `json:"max_comment_depth"`

	Keywords        []string   `json:"keywords,omitempty"`
	ExcludeKeywords []string   `json:"exclude_keywords,omitempty"`
	MinScore        int        `json:"min_score"`
	MinUpvoteRatio  float64    `json:"min_upvote_ratio"`
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
	ExcludeNSFW     bool       `json:"exclude_nsfw"`
	AnonymizeUsers  bool       `json:"anonymize_users"`
}

// Validate validates the collection parameters.
func (p *CollectionParams) Validate() error {
	if len(p.Subreddits) == 0 {
		return errors.New("at least one subreddit is required")
	}
	for _, s := range p.Subreddits {
		if strings.TrimSpace(s) == "" {
			return errors.New("subreddit name cannot be empty")
		}
	}
	if len(p.SortTypes) == 0 {
		return errors.New("at least one sort type is required")
	}
	for _, t := range p.SortTypes {
		if !t.Valid() {
			return errors.New("invalid sort type: " + string(t))
		}
	}
	for _, f := range p.TimeFilters {
		if !f.Valid() {
			return errors.New("invalid time filter: " + string(f))
		}
	}
	if p.PostLimit <= 0 {
		return errors.New("post limit must be positive")
	}
	if p.CommentLimit < 0 {
		return errors.New("comment limit must be >= 0")
	}
	if p.MaxCommentDepth < 0 {
		return errors.New("max comment depth must be >= 0")
	}
	if p.MinUpvoteRatio < 0 || p.MinUpvoteRatio > 1 {
		return errors.New("min upvote ratio must be within [0,1]")
	}
	if p.DateFrom != nil && p.DateTo != nil && p.DateTo.Before(*p.DateFrom) {
		return errors.New("date range is not ordered")
	}
	return nil
}

// Combination is one (subreddit, sort, time) unit of pagination work.
type Combination struct {
	Subreddit string
	Sort      SortType
	Time      TimeFilter
}

// String renders the combination for error details and logs.
func (c Combination) String() string {
	s := c.Subreddit + "/" + string(c.Sort)
	if c.Time != "" {
		s += "/" + string(c.Time)
	}
	return s
}

// Combinations expands the parameter lists into ordered pagination units. The
// time-filter axis applies only to windowed sorts; other sorts collapse it to
// a single slot so the same subreddit×sort pair is not paginated repeatedly.
func (p *CollectionParams) Combinations() []Combination {
	timeFilters := p.TimeFilters
	if len(timeFilters) == 0 {
		timeFilters = []TimeFilter{TimeAll}
	}

	var combos []Combination
	for _, sub := range p.Subreddits {
		for _, sort := range p.SortTypes {
			if sort.Windowed() {
				for _, tf := range timeFilters {
					combos = append(combos, Combination{Subreddit: sub, Sort: sort, Time: tf})
				}
				continue
			}
			combos = append(combos, Combination{Subreddit: sub, Sort: sort})
		}
	}
	return combos
}

// CollectionJob represents a user-submitted request to collect matching
// records under the given parameters, together with its execution state.
type CollectionJob struct {
	JobID  string  `json:"job_id"  db:"job_id"`
	UserID *string `json:"user_id,omitempty" db:"user_id"`

	Params CollectionParams `json:"params"`

	Status            JobStatus `json:"status"             db:"status"`
	Progress          int       `json:"progress"           db:"progress"`
	TotalExpected     int       `json:"total_expected"     db:"total_expected"`
	CollectedPosts    int       `json:"collected_posts"    db:"collected_posts"`
	CollectedComments int       `json:"collected_comments" db:"collected_comments"`
	ErrorMessage      *string   `json:"error_message,omitempty" db:"error_message"`
	CancelRequested   bool      `json:"cancel_requested"   db:"cancel_requested"`

	CreatedAt   time.Time  `json:"created_at"             db:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"   db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at"             db:"updated_at"`
}

// EstimateTotalExpected returns the progress-display denominator: the number
// of posts the combinations could yield at most. It is an estimate, never a cap.
func (j *CollectionJob) EstimateTotalExpected() int {
	return len(j.Params.Combinations()) * j.Params.PostLimit
}

// CreateJobRequest represents a request to create a new collection job.
type CreateJobRequest struct {
	UserID *string          `json:"user_id,omitempty"`
	Params CollectionParams `json:"params"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	return r.Params.Validate()
}

// JobProgress is a read-only snapshot of a job's counters published to live
// status observers after each progress update.
type JobProgress struct {
	JobID             string    `json:"job_id"`
	Status            JobStatus `json:"status"`
	Progress          int       `json:"progress"`
	CollectedPosts    int       `json:"collected_posts"`
	CollectedComments int       `json:"collected_comments"`
}
