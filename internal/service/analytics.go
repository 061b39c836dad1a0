package service

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/publicsuffix"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

const defaultTopN = 10

// Sentiment bucket thresholds. Scores within (-0.1, 0.1) count as neutral.
const (
	sentimentPositiveMin = 0.1
	sentimentNegativeMax = -0.1
)

// AnalyzerOptions holds the Analyzer's collaborators. TopN bounds every ranked
// list in the summary; zero means the default.
type AnalyzerOptions struct {
	Posts     core.PostRepository
	Comments  core.CommentRepository
	Analytics core.AnalyticsRepository
	TopN      int
	Logger    *slog.Logger
}

// Analyzer derives the per-job summary from stored records. The summary is a
// pure function of the record set: recomputing overwrites the prior snapshot
// and yields the same result for the same records.
type Analyzer struct {
	posts     core.PostRepository
	comments  core.CommentRepository
	analytics core.AnalyticsRepository
	topN      int
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	topN := opts.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		posts:     opts.Posts,
		comments:  opts.Comments,
		analytics: opts.Analytics,
		topN:      topN,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Summarize recomputes and stores the summary for a job. A job with no stored
// records yields a zeroed summary, not an error.
func (a *Analyzer) Summarize(ctx context.Context, jobID string) (*model.AnalyticsSummary, error) {
	if jobID == "" {
		return nil, apperrors.Validation("job id is required")
	}
	posts, err := a.posts.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	comments, err := a.comments.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	summary := a.compute(jobID, posts, comments)
	if err := a.analytics.Save(ctx, summary); err != nil {
		return nil, err
	}
	a.logger.Info("analytics summary saved",
		slog.String("job_id", jobID),
		slog.Int("total_posts", summary.TotalPosts),
		slog.Int("total_comments", summary.TotalComments))
	return summary, nil
}

func (a *Analyzer) compute(jobID string, posts []model.Post, comments []model.Comment) *model.AnalyticsSummary {
	s := &model.AnalyticsSummary{
		JobID:         jobID,
		TotalPosts:    len(posts),
		TotalComments: len(comments),
		PostHints:     map[string]int{},
		LinkDomains:   map[string]int{},
		GeneratedAt:   a.now(),
	}

	var scoreSum, commentSum, ratioSum float64
	for _, p := range posts {
		scoreSum += float64(p.Score)
		commentSum += float64(p.NumComments)
		ratioSum += p.UpvoteRatio

		bucketSentiment(&s.Sentiment, p.SentimentScore)
		hint := p.PostHint
		if hint == "" {
			hint = "none"
		}
		s.PostHints[hint]++
		if domain := linkDomain(p.URL); domain != "" {
			s.LinkDomains[domain]++
		}
		created := p.CreatedUTC.UTC()
		s.PostingPatterns.ByHour[created.Hour()]++
		s.PostingPatterns.ByWeekday[int(created.Weekday())]++
	}
	if len(posts) > 0 {
		n := float64(len(posts))
		s.AvgScore = scoreSum / n
		s.AvgCommentsPerPost = commentSum / n
		s.AvgUpvoteRatio = ratioSum / n
	}
	for _, c := range comments {
		bucketSentiment(&s.Sentiment, c.SentimentScore)
	}

	s.TopPosts = rankPosts(posts, a.topN, func(p *model.Post) int { return p.Score })
	s.MostCommented = rankPosts(posts, a.topN, func(p *model.Post) int { return p.NumComments })
	s.ActiveAuthors = rankAuthors(posts, comments, a.topN)
	s.CommonKeywords = rankKeywords(posts, a.topN)
	s.TotalUsers = countDistinctAuthors(posts, comments)
	return s
}

func bucketSentiment(dist *model.SentimentDistribution, score *float64) {
	switch {
	case score == nil:
		dist.Unscored++
	case *score >= sentimentPositiveMin:
		dist.Positive++
	case *score <= sentimentNegativeMax:
		dist.Negative++
	default:
		dist.Neutral++
	}
}

// rankPosts returns the topN posts by the given metric, descending. Ties break
// toward the earlier post so rankings are stable across recomputes.
func rankPosts(posts []model.Post, topN int, metric func(*model.Post) int) []model.PostRank {
	ranked := make([]model.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		mi, mj := metric(&ranked[i]), metric(&ranked[j])
		if mi != mj {
			return mi > mj
		}
		return ranked[i].CreatedUTC.Before(ranked[j].CreatedUTC)
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	out := make([]model.PostRank, 0, len(ranked))
	for _, p := range ranked {
		out = append(out, model.PostRank{
			RedditID:    p.RedditID,
			Title:       p.Title,
			Subreddit:   p.Subreddit,
			Permalink:   p.Permalink,
			Score:       p.Score,
			NumComments: p.NumComments,
			CreatedUTC:  p.CreatedUTC,
		})
	}
	return out
}

// rankAuthors counts contributions per author. Redacted and missing authors
// never appear in the ranking.
func rankAuthors(posts []model.Post, comments []model.Comment, topN int) []model.AuthorRank {
	counts := map[string]*model.AuthorRank{}
	tally := func(author *string, isPost bool) {
		if author == nil || *author == "" || *author == model.AnonymizedAuthor {
			return
		}
		rank, ok := counts[*author]
		if !ok {
			rank = &model.AuthorRank{Author: *author}
			counts[*author] = rank
		}
		if isPost {
			rank.Posts++
		} else {
			rank.Comments++
		}
		rank.Total++
	}
	for i := range posts {
		tally(posts[i].Author, true)
	}
	for i := range comments {
		tally(comments[i].Author, false)
	}

	ranked := make([]model.AuthorRank, 0, len(counts))
	for _, rank := range counts {
		ranked = append(ranked, *rank)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].Author < ranked[j].Author
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

var keywordStopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "you": true, "your": true, "are": true, "was": true,
	"have": true, "has": true, "had": true, "but": true, "not": true,
	"all": true, "can": true, "out": true, "get": true, "got": true,
	"just": true, "like": true, "what": true, "when": true, "how": true,
	"why": true, "who": true, "from": true, "about": true, "they": true,
	"them": true, "there": true, "their": true, "will": true, "would": true,
	"should": true, "could": true, "been": true, "being": true, "into": true,
	"over": true, "after": true, "before": true, "more": true, "most": true,
	"some": true, "any": true, "than": true, "then": true, "its": true,
	"it's": true, "i'm": true, "don't": true, "doesn't": true, "now": true,
	"new": true, "one": true, "two": true, "also": true, "very": true,
	"much": true, "only": true, "even": true, "here": true, "where": true,
	"does": true, "did": true, "because": true, "while": true, "still": true,
}

// rankKeywords computes word frequency over post titles and bodies. Short
// tokens and stop words are excluded; ties break alphabetically.
func rankKeywords(posts []model.Post, topN int) []model.KeywordCount {
	counts := map[string]int{}
	for i := range posts {
		text := strings.ToLower(posts[i].Title + " " + posts[i].SelfText)
		words := strings.FieldsFunc(text, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		})
		for _, w := range words {
			w = strings.Trim(w, "'")
			if len(w) < 3 || keywordStopWords[w] {
				continue
			}
			counts[w]++
		}
	}

	ranked := make([]model.KeywordCount, 0, len(counts))
	for kw, count := range counts {
		ranked = append(ranked, model.KeywordCount{Keyword: kw, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Keyword < ranked[j].Keyword
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func countDistinctAuthors(posts []model.Post, comments []model.Comment) int {
	seen := map[string]bool{}
	note := func(author *string) {
		if author == nil || *author == "" || *author == model.AnonymizedAuthor {
			return
		}
		seen[*author] = true
	}
	for i := range posts {
		note(posts[i].Author)
	}
	for i := range comments {
		note(comments[i].Author)
	}
	return len(seen)
}

// linkDomain reduces an outbound link to its registrable domain. Self posts,
// relative permalinks, and unparseable URLs yield no domain.
func linkDomain(raw string) string {
	if raw == "" || strings.HasPrefix(raw, "/") {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
