package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
)

const (
	mirrorPostKeyPrefix    = "trendit:post:"
	mirrorCommentKeyPrefix = "trendit:comment:"
	mirrorJobKeyPrefix     = "trendit:job:"

	// ProgressChannel is the pub/sub channel live dashboards subscribe to.
	ProgressChannel = "trendit:progress"
)

// RedisMirrorRepo implements the MirrorStore interface on Redis. It exists for
// live-visibility only: the primary store stays authoritative, and every error
// returned here is handled best-effort by callers.
type RedisMirrorRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisMirrorRepo creates a new RedisMirrorRepo. A zero ttl keeps mirrored
// records until evicted by Redis itself.
func NewRedisMirrorRepo(client redis.UniversalClient, ttl time.Duration) *RedisMirrorRepo {
	return &RedisMirrorRepo{client: client, ttl: ttl}
}

// UpsertPost mirrors a post keyed by its external id.
func (r *RedisMirrorRepo) UpsertPost(ctx context.Context, post *model.Post) error {
	if post == nil || post.RedditID == "" {
		return errors.New("post reddit_id is required")
	}
	return r.setJSON(ctx, mirrorPostKeyPrefix+post.RedditID, post)
}

// UpsertComment mirrors a comment keyed by its external id.
func (r *RedisMirrorRepo) UpsertComment(ctx context.Context, comment *model.Comment) error {
	if comment == nil || comment.RedditID == "" {
		return errors.New("comment reddit_id is required")
	}
	return r.setJSON(ctx, mirrorCommentKeyPrefix+comment.RedditID, comment)
}

// PublishProgress pushes the latest job snapshot for live status observers:
// a keyed copy for polling readers plus a pub/sub fan-out.
func (r *RedisMirrorRepo) PublishProgress(ctx context.Context, progress *model.JobProgress) error {
	if progress == nil || progress.JobID == "" {
		return errors.New("progress job id is required")
	}
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := r.client.Set(ctx, mirrorJobKeyPrefix+progress.JobID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set progress: %w", err)
	}
	if err := r.client.Publish(ctx, ProgressChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish progress: %w", err)
	}
	return nil
}

// Health checks the Redis connection.
func (r *RedisMirrorRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisMirrorRepo) setJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal mirror record: %w", err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

var _ core.MirrorStore = (*RedisMirrorRepo)(nil)
