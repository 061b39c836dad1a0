// Package reddit implements the upstream page fetcher against the Reddit
// OAuth API. The client owns authentication, per-attempt timeouts, and
// bounded retry with backoff; callers receive classified errors only.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

const (
	defaultBaseURL   = "https://oauth.reddit.com"
	defaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	defaultUserAgent = "trendit-collector/1.0"

	defaultMaxRetries     = 3
	defaultBackoffBase    = 500 * time.Millisecond
	defaultAttemptTimeout = 15 * time.Second

	maxErrorBodyBytes = 2 * 1024
)

// Listing extraction expressions. Reddit wraps everything in kind-tagged
// envelopes; these pull the raw record objects out.
const (
	exprListingPosts   = "data.children[?kind == 't3'].data"
	exprListingAfter   = "data.after"
	exprThreadComments = "[1].data.children[?kind == 't1'].data"
	exprCommentReplies = "[1].data.children[?kind == 't1'].data[?id == '%s'] | [0].replies.data.children[?kind == 't1'].data"
)

// ClientOptions configures the Reddit API client.
type ClientOptions struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	UserAgent    string
	Logger       *slog.Logger

	// MaxRetries bounds retry attempts after the first try; retried statuses
	// are 429 and 5xx.
	MaxRetries int
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
	// AttemptTimeout bounds each individual HTTP attempt.
	AttemptTimeout time.Duration

	// HTTPClient overrides the OAuth transport entirely. Intended for tests.
	HTTPClient *http.Client
}

// Client fetches listing pages from the Reddit API.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger

	maxRetries     int
	backoffBase    time.Duration
	attemptTimeout time.Duration
}

// NewClient creates a Reddit API client using the application-only OAuth
// grant. Token refresh is handled by the underlying transport.
func NewClient(opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoffBase := opts.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		cc := &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		httpClient = cc.Client(context.Background())
	}

	return &Client{
		http:           httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		logger:         logger,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		attemptTimeout: attemptTimeout,
	}
}

// FetchPosts implements core.PageFetcher for subreddit listings.
func (c *Client) FetchPosts(ctx context.Context, q core.PostQuery) (*core.PostPage, error) {
	if q.Subreddit == "" {
		return nil, apperrors.Validation("subreddit is required")
	}
	params := url.Values{}
	params.Set("raw_json", "1")
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.After != "" {
		params.Set("after", q.After)
	}
	if q.Time != "" {
		params.Set("t", string(q.Time))
	}
	endpoint := fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, url.PathEscape(q.Subreddit), q.Sort, params.Encode())

	doc, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	records, err := searchSlice(doc, exprListingPosts)
	if err != nil {
		return nil, apperrors.Internalf("extract posts: %v", err)
	}
	page := &core.PostPage{}
	for _, rec := range records {
		post, ok := decodePost(rec)
		if !ok {
			continue
		}
		post.Subreddit = q.Subreddit
		page.Posts = append(page.Posts, post)
	}
	if after, _ := jmespath.Search(exprListingAfter, doc); after != nil {
		page.After, _ = after.(string)
	}
	page.Exhausted = page.After == "" || len(page.Posts) == 0
	return page, nil
}

// FetchComments implements core.PageFetcher for comment threads. Thread
// responses are not cursor-paginated, so every page is final: top-level
// requests return the thread's direct comments and parent-scoped requests
// return one comment's replies.
func (c *Client) FetchComments(ctx context.Context, q core.CommentQuery) (*core.CommentPage, error) {
	if q.Subreddit == "" || q.PostRedditID == "" {
		return nil, apperrors.Validation("subreddit and post id are required")
	}
	params := url.Values{}
	params.Set("raw_json", "1")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("depth", "1")
	if q.ParentRedditID != "" {
		params.Set("comment", q.ParentRedditID)
	}
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s.json?%s",
		c.baseURL, url.PathEscape(q.Subreddit), url.PathEscape(q.PostRedditID), params.Encode())

	doc, err := c.getJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	expr := exprThreadComments
	if q.ParentRedditID != "" {
		expr = fmt.Sprintf(exprCommentReplies, q.ParentRedditID)
	}
	records, err := searchSlice(doc, expr)
	if err != nil {
		return nil, apperrors.Internalf("extract comments: %v", err)
	}

	page := &core.CommentPage{Exhausted: true}
	for _, rec := range records {
		comment, ok := decodeComment(rec)
		if !ok {
			continue
		}
		if q.ParentRedditID != "" && comment.RedditID == q.ParentRedditID {
			continue
		}
		page.Comments = append(page.Comments, comment)
	}
	return page, nil
}

// getJSON performs a GET with bounded retry and decodes the response body.
func (c *Client) getJSON(ctx context.Context, endpoint string) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, apperrors.Unavailablef("fetch aborted: %v", context.Cause(ctx))
			case <-time.After(delay):
			}
		}

		doc, err := c.attempt(ctx, endpoint)
		if err == nil {
			return doc, nil
		}
		if apperrors.IsFatal(err) {
			return nil, err
		}
		lastErr = err
		c.logger.Warn("fetch attempt failed",
			slog.String("url", endpoint),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, endpoint string) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Internalf("build request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Unavailablef("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, apperrors.Unavailablef("decode response: %v", err)
	}
	return doc, nil
}

func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.Unauthorized("api credentials rejected: " + readErrorBody(resp))
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.Validation("resource not found: " + resp.Request.URL.Path)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.RateLimited("rate limited by upstream")
	case resp.StatusCode >= 500:
		return apperrors.Unavailablef("upstream error: status %d", resp.StatusCode)
	default:
		return apperrors.Internalf("unexpected status %d: %s", resp.StatusCode, readErrorBody(resp))
	}
}

func readErrorBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return string(body)
}

// searchSlice evaluates a jmespath expression expected to yield a list.
func searchSlice(doc any, expr string) ([]any, error) {
	result, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	items, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("expression %q did not yield a list", expr)
	}
	return items, nil
}

// decodePost maps one raw listing record. Records missing identity fields are
// dropped rather than failing the page.
func decodePost(rec any) (model.Post, bool) {
	m, ok := rec.(map[string]any)
	if !ok {
		return model.Post{}, false
	}
	id := str(m, "id")
	title := str(m, "title")
	if id == "" || title == "" {
		return model.Post{}, false
	}
	post := model.Post{
		RedditID:       id,
		Title:          title,
		SelfText:       str(m, "selftext"),
		URL:            str(m, "url"),
		Permalink:      str(m, "permalink"),
		Subreddit:      str(m, "subreddit"),
		Score:          integer(m, "score"),
		UpvoteRatio:    floating(m, "upvote_ratio"),
		NumComments:    integer(m, "num_comments"),
		AwardsReceived: integer(m, "total_awards_received"),
		IsNSFW:         boolean(m, "over_18"),
		IsSpoiler:      boolean(m, "spoiler"),
		IsStickied:     boolean(m, "stickied"),
		PostHint:       str(m, "post_hint"),
		CreatedUTC:     epoch(m, "created_utc"),
	}
	if author := str(m, "author"); author != "" && author != "[deleted]" {
		post.Author = &author
	}
	if authorID := str(m, "author_fullname"); authorID != "" {
		post.AuthorID = &authorID
	}
	return post, true
}

func decodeComment(rec any) (model.Comment, bool) {
	m, ok := rec.(map[string]any)
	if !ok {
		return model.Comment{}, false
	}
	id := str(m, "id")
	body := str(m, "body")
	if id == "" || body == "" {
		return model.Comment{}, false
	}
	comment := model.Comment{
		RedditID:       id,
		Body:           body,
		Score:          integer(m, "score"),
		AwardsReceived: integer(m, "total_awards_received"),
		IsSubmitter:    boolean(m, "is_submitter"),
		IsStickied:     boolean(m, "stickied"),
		CreatedUTC:     epoch(m, "created_utc"),
	}
	if author := str(m, "author"); author != "" && author != "[deleted]" {
		comment.Author = &author
	}
	if authorID := str(m, "author_fullname"); authorID != "" {
		comment.AuthorID = &authorID
	}
	return comment, true
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func integer(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}

func floating(m map[string]any, key string) float64 {
	f, _ := m[key].(float64)
	return f
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func epoch(m map[string]any, key string) time.Time {
	f, _ := m[key].(float64)
	return time.Unix(int64(f), 0).UTC()
}

var _ core.PageFetcher = (*Client)(nil)
