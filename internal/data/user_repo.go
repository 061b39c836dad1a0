package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/trendit/collector-go/internal/core"
	"github.com/trendit/collector-go/internal/domain/model"
	apperrors "github.com/trendit/collector-go/internal/errors"
)

// UserRepo provides database operations for collected author profiles.
type UserRepo struct {
	db           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB, cfg RepoConfig) *UserRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserRepo{db: db, timeProvider: tp, logger: logger}
}

// Upsert inserts the profile or refreshes its karma fields and flags when the
// username already exists. collected_at is first-write-wins.
func (r *UserRepo) Upsert(ctx context.Context, user *model.RedditUser) (core.WriteOutcome, error) {
	if user == nil || user.Username == "" {
		return core.OutcomeSkipped, apperrors.Validation("username is required")
	}

	now := r.timeProvider.Now()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO reddit_users (
			username, user_id, comment_karma, link_karma, total_karma,
			account_created, is_employee, is_mod, is_gold, has_verified_email,
			collected_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (username) DO UPDATE SET
			user_id = COALESCE(EXCLUDED.user_id, reddit_users.user_id),
			comment_karma = EXCLUDED.comment_karma,
			link_karma = EXCLUDED.link_karma,
			total_karma = EXCLUDED.total_karma,
			is_employee = EXCLUDED.is_employee,
			is_mod = EXCLUDED.is_mod,
			is_gold = EXCLUDED.is_gold,
			has_verified_email = EXCLUDED.has_verified_email,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0), collected_at`,
		user.Username, user.UserID, user.CommentKarma, user.LinkKarma, user.TotalKarma,
		user.AccountCreated, user.IsEmployee, user.IsMod, user.IsGold,
		user.HasVerifiedEmail, now)

	var inserted bool
	if err := row.Scan(&inserted, &user.CollectedAt); err != nil {
		return core.OutcomeSkipped, apperrors.MapDBError(err)
	}
	if inserted {
		return core.OutcomeInserted, nil
	}
	return core.OutcomeUpdated, nil
}

var _ core.UserRepository = (*UserRepo)(nil)
