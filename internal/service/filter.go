// Package service provides the business logic of the collection engine:
// filtering, anonymization, ingestion writing, progress tracking, the
// collection orchestrator, and analytics aggregation.
package service

import (
	"strings"
	"time"

	"github.com/trendit/collector-go/internal/domain/model"
)

// MatchesPost reports whether a candidate post passes a job's filter
// configuration. All rules are AND-combined; keyword alternatives within a
// rule are OR-combined. The function is deterministic and side-effect-free so
// collection stays idempotent and filters are testable in isolation.
func MatchesPost(post *model.Post, params *model.CollectionParams) bool {
	if post.Score < params.MinScore {
		return false
	}
	if post.UpvoteRatio < params.MinUpvoteRatio {
		return false
	}
	if params.ExcludeNSFW && post.IsNSFW {
		return false
	}
	if !withinDateRange(post.CreatedUTC, params.DateFrom, params.DateTo) {
		return false
	}
	return matchesKeywordRules(post.Title+" "+post.SelfText, params)
}

// MatchesComment reports whether a candidate comment passes a job's filter
// configuration. Upvote-ratio and NSFW rules apply to posts only.
func MatchesComment(comment *model.Comment, params *model.CollectionParams) bool {
	if comment.Score < params.MinScore {
		return false
	}
	if !withinDateRange(comment.CreatedUTC, params.DateFrom, params.DateTo) {
		return false
	}
	return matchesKeywordRules(comment.Body, params)
}

func withinDateRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func matchesKeywordRules(text string, params *model.CollectionParams) bool {
	lowered := strings.ToLower(text)
	if containsAny(lowered, params.ExcludeKeywords) {
		return false
	}
	if len(params.Keywords) == 0 {
		return true
	}
	return containsAny(lowered, params.Keywords)
}

// containsAny does a case-insensitive substring check against each candidate.
func containsAny(loweredText string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(loweredText, kw) {
			return true
		}
	}
	return false
}
