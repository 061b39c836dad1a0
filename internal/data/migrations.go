package data

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order and tracked in schema_migrations; each entry
// runs at most once. Statements must stay append-only: never edit an applied
// version, add a new one.
var migrations = []struct {
	version string
	stmts   []string
}{
	{
		version: "0001_collection_jobs",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS collection_jobs (
				job_id             TEXT PRIMARY KEY,
				user_id            TEXT,
				params             JSONB NOT NULL,
				status             TEXT NOT NULL DEFAULT 'pending',
				progress           INTEGER NOT NULL DEFAULT 0,
				total_expected     INTEGER NOT NULL DEFAULT 0,
				collected_posts    INTEGER NOT NULL DEFAULT 0,
				collected_comments INTEGER NOT NULL DEFAULT 0,
				error_message      TEXT,
				cancel_requested   BOOLEAN NOT NULL DEFAULT FALSE,
				created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
				started_at         TIMESTAMPTZ,
				completed_at       TIMESTAMPTZ,
				updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_collection_jobs_status_created
				ON collection_jobs (status, created_at)`,
		},
	},
	{
		version: "0002_reddit_posts",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS reddit_posts (
				reddit_id         TEXT PRIMARY KEY,
				collection_job_id TEXT NOT NULL REFERENCES collection_jobs(job_id),
				title             TEXT NOT NULL,
				selftext          TEXT,
				url               TEXT,
				permalink         TEXT NOT NULL,
				subreddit         TEXT NOT NULL,
				author            TEXT,
				author_id         TEXT,
				score             INTEGER NOT NULL DEFAULT 0,
				upvote_ratio      DOUBLE PRECISION NOT NULL DEFAULT 0,
				num_comments      INTEGER NOT NULL DEFAULT 0,
				awards_received   INTEGER NOT NULL DEFAULT 0,
				is_nsfw           BOOLEAN NOT NULL DEFAULT FALSE,
				is_spoiler        BOOLEAN NOT NULL DEFAULT FALSE,
				is_stickied       BOOLEAN NOT NULL DEFAULT FALSE,
				post_hint         TEXT,
				created_utc       TIMESTAMPTZ NOT NULL,
				collected_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
				sentiment_score   DOUBLE PRECISION
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reddit_posts_job ON reddit_posts (collection_job_id)`,
			`CREATE INDEX IF NOT EXISTS idx_reddit_posts_subreddit_score ON reddit_posts (subreddit, score)`,
			`CREATE INDEX IF NOT EXISTS idx_reddit_posts_created_utc ON reddit_posts (created_utc)`,
		},
	},
	{
		version: "0003_reddit_comments",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS reddit_comments (
				reddit_id         TEXT PRIMARY KEY,
				collection_job_id TEXT NOT NULL REFERENCES collection_jobs(job_id),
				post_reddit_id    TEXT NOT NULL,
				parent_reddit_id  TEXT,
				body              TEXT NOT NULL,
				author            TEXT,
				author_id         TEXT,
				depth             INTEGER NOT NULL DEFAULT 0 CHECK (depth >= 0),
				score             INTEGER NOT NULL DEFAULT 0,
				awards_received   INTEGER NOT NULL DEFAULT 0,
				is_submitter      BOOLEAN NOT NULL DEFAULT FALSE,
				is_stickied       BOOLEAN NOT NULL DEFAULT FALSE,
				created_utc       TIMESTAMPTZ NOT NULL,
				collected_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
				sentiment_score   DOUBLE PRECISION
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reddit_comments_job ON reddit_comments (collection_job_id)`,
			`CREATE INDEX IF NOT EXISTS idx_reddit_comments_post ON reddit_comments (post_reddit_id)`,
			`CREATE INDEX IF NOT EXISTS idx_reddit_comments_created_utc ON reddit_comments (created_utc)`,
		},
	},
	{
		version: "0004_reddit_users",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS reddit_users (
				username           TEXT PRIMARY KEY,
				user_id            TEXT,
				comment_karma      INTEGER NOT NULL DEFAULT 0,
				link_karma         INTEGER NOT NULL DEFAULT 0,
				total_karma        INTEGER NOT NULL DEFAULT 0,
				account_created    TIMESTAMPTZ,
				is_employee        BOOLEAN NOT NULL DEFAULT FALSE,
				is_mod             BOOLEAN NOT NULL DEFAULT FALSE,
				is_gold            BOOLEAN NOT NULL DEFAULT FALSE,
				has_verified_email BOOLEAN NOT NULL DEFAULT FALSE,
				collected_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
	{
		version: "0005_analytics",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS analytics (
				collection_job_id     TEXT PRIMARY KEY REFERENCES collection_jobs(job_id),
				total_posts           INTEGER NOT NULL DEFAULT 0,
				total_comments        INTEGER NOT NULL DEFAULT 0,
				total_users           INTEGER NOT NULL DEFAULT 0,
				avg_score             DOUBLE PRECISION NOT NULL DEFAULT 0,
				avg_comments_per_post DOUBLE PRECISION NOT NULL DEFAULT 0,
				avg_upvote_ratio      DOUBLE PRECISION NOT NULL DEFAULT 0,
				top_posts             JSONB NOT NULL DEFAULT '[]',
				most_commented        JSONB NOT NULL DEFAULT '[]',
				active_authors        JSONB NOT NULL DEFAULT '[]',
				common_keywords       JSONB NOT NULL DEFAULT '[]',
				sentiment_distribution JSONB NOT NULL DEFAULT '{}',
				post_hint_distribution JSONB NOT NULL DEFAULT '{}',
				link_domain_distribution JSONB NOT NULL DEFAULT '{}',
				posting_patterns      JSONB NOT NULL DEFAULT '{}',
				generated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
			)`,
		},
	},
}

// RunMigrations applies all pending migrations. It is safe to call multiple times.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if exists {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.version, err)
		}
		if err := applyMigration(ctx, tx, m.version, m.stmts); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.version, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, tx *sql.Tx, version string, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}
