package model

import "time"

// PostRank is one entry in a ranked post list (top by score, most commented).
type PostRank struct {
	RedditID    string    `json:"reddit_id"`
	Title       string    `json:"title"`
	Subreddit   string    `json:"subreddit"`
	Permalink   string    `json:"permalink"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedUTC  time.Time `json:"created_utc"`
}

// AuthorRank is one entry in the most-active-authors ranking.
type AuthorRank struct {
	Author   string `json:"author"`
	Posts    int    `json:"posts"`
	Comments int    `json:"comments"`
	Total    int    `json:"total"`
}

// KeywordCount is one entry in the keyword frequency list.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SentimentDistribution buckets per-record sentiment scores. Unscored records
// are counted separately and excluded from distribution denominators.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Unscored int `json:"unscored"`
}

// PostingPatterns is the posting histogram bucketed by hour-of-day (UTC) and
// day-of-week (Sunday = 0).
type PostingPatterns struct {
	ByHour    [24]int `json:"by_hour"`
	ByWeekday [7]int  `json:"by_weekday"`
}

// AnalyticsSummary is the derived, recomputable aggregate view over one job's
// stored records. It is a cache of a pure function over the record set: safe
// to delete and recompute at any time, never hand-edited.
type AnalyticsSummary struct {
	JobID string `json:"job_id" db:"collection_job_id"`

	TotalPosts    int `json:"total_posts"    db:"total_posts"`
	TotalComments int `json:"total_comments" db:"total_comments"`
	TotalUsers    int `json:"total_users"    db:"total_users"`

	AvgScore           float64 `json:"avg_score"             db:"avg_score"`
	AvgCommentsPerPost float64 `json:"avg_comments_per_post" db:"avg_comments_per_post"`
	AvgUpvoteRatio     float64 `json:"avg_upvote_ratio"      db:"avg_upvote_ratio"`

	TopPosts      []PostRank     `json:"top_posts"`
	MostCommented []PostRank     `json:"most_commented"`
	ActiveAuthors []AuthorRank   `json:"active_authors"`
	CommonKeywords []KeywordCount `json:"common_keywords"`

	Sentiment   SentimentDistribution `json:"sentiment_distribution"`
	PostHints   map[string]int        `json:"post_hint_distribution"`
	LinkDomains map[string]int        `json:"link_domain_distribution"`

	PostingPatterns PostingPatterns `json:"posting_patterns"`

	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
}
