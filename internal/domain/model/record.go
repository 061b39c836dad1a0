package model

import "time"

// AnonymizedAuthor is the redaction marker stored in author fields when a job
// requests anonymization. Analytics excludes it from author rankings.
const AnonymizedAuthor = "[anonymized]"

// Post is an externally-sourced submission, uniquely identified by RedditID.
// A post is never duplicated: re-collection updates metric fields only.
type Post struct {
	RedditID  string `json:"reddit_id" db:"reddit_id"`
	JobID     string `json:"collection_job_id" db:"collection_job_id"`
	Title     string `json:"title"     db:"title"`
	SelfText  string `json:"selftext,omitempty"  db:"selftext"`
	URL       string `json:"url,omitempty"       db:"url"`
	Permalink string `json:"permalink" db:"permalink"`
	Subreddit string `json:"subreddit" db:"subreddit"`

	Author   *string `json:"author,omitempty"    db:"author"`
	AuthorID *string `json:"author_id,omitempty" db:"author_id"`

	Score          int     `json:"score"           db:"score"`
	UpvoteRatio    float64 `json:"upvote_ratio"    db:"upvote_ratio"`
	NumComments    int     `json:"num_comments"    db:"num_comments"`
	AwardsReceived int     `json:"awards_received" db:"awards_received"`

	IsNSFW     bool   `json:"is_nsfw"     db:"is_nsfw"`
	IsSpoiler  bool   `json:"is_spoiler"  db:"is_spoiler"`
	IsStickied bool   `json:"is_stickied" db:"is_stickied"`
	PostHint   string `json:"post_hint,omitempty" db:"post_hint"`

	CreatedUTC  time.Time `json:"created_utc"  db:"created_utc"`
	CollectedAt time.Time `json:"collected_at" db:"collected_at"`

	SentimentScore *float64 `json:"sentiment_score,omitempty" db:"sentiment_score"`
}

// Comment is an externally-sourced comment belonging to a post, with its
// position in the thread recorded as a non-negative depth.
type Comment struct {
	RedditID       string  `json:"reddit_id" db:"reddit_id"`
	JobID          string  `json:"collection_job_id" db:"collection_job_id"`
	PostRedditID   string  `json:"post_reddit_id"    db:"post_reddit_id"`
	ParentRedditID *string `json:"parent_reddit_id,omitempty" db:"parent_reddit_id"`
	Body           string  `json:"body" db:"body"`

	Author   *string `json:"author,omitempty"    db:"author"`
	AuthorID *string `json:"author_id,omitempty" db:"author_id"`
	Depth    int     `json:"depth" db:"depth"`

	Score          int  `json:"score"           db:"score"`
	AwardsReceived int  `json:"awards_received" db:"awards_received"`
	IsSubmitter    bool `json:"is_submitter"    db:"is_submitter"`
	IsStickied     bool `json:"is_stickied"     db:"is_stickied"`

	CreatedUTC  time.Time `json:"created_utc"  db:"created_utc"`
	CollectedAt time.Time `json:"collected_at" db:"collected_at"`

	SentimentScore *float64 `json:"sentiment_score,omitempty" db:"sentiment_score"`
}

// RedditUser is a collected author profile, uniquely identified by username.
type RedditUser struct {
	Username string  `json:"username" db:"username"`
	UserID   *string `json:"user_id,omitempty" db:"user_id"`

	CommentKarma   int        `json:"comment_karma" db:"comment_karma"`
	LinkKarma      int        `json:"link_karma"    db:"link_karma"`
	TotalKarma     int        `json:"total_karma"   db:"total_karma"`
	AccountCreated *time.Time `json:"account_created,omitempty" db:"account_created"`

	IsEmployee       bool `json:"is_employee"        db:"is_employee"`
	IsMod            bool `json:"is_mod"             db:"is_mod"`
	IsGold           bool `json:"is_gold"            db:"is_gold"`
	HasVerifiedEmail bool `json:"has_verified_email" db:"has_verified_email"`

	CollectedAt time.Time `json:"collected_at" db:"collected_at"`
	UpdatedAt   time.Time `json:"updated_at"   db:"updated_at"`
}
