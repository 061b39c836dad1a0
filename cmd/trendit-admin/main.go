// Command trendit-admin is the operational CLI for the collection engine:
// submit jobs, inspect status, request cancellation, recompute analytics,
// and run migrations.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/trendit/collector-go/config"
	"github.com/trendit/collector-go/internal/bootstrap"
	"github.com/trendit/collector-go/internal/data"
	"github.com/trendit/collector-go/internal/domain/model"
	"github.com/trendit/collector-go/internal/service"
)

var version = "1.0.0"

func main() {
	logger := bootstrap.InitLogger()
	if err := newRootCmd(logger).Execute(); err != nil {
		os.Exit(1) //nolint:forbidigo // CLI must propagate command failure to callers.
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "trendit-admin",
		Short:         "Administer trendit collection jobs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newSubmitCmd(logger))
	rootCmd.AddCommand(newStatusCmd(logger))
	rootCmd.AddCommand(newCancelCmd(logger))
	rootCmd.AddCommand(newSummarizeCmd(logger))
	rootCmd.AddCommand(newMigrateCmd(logger))
	return rootCmd
}

// connect loads config and opens the primary store for one command run.
func connect(logger *slog.Logger) (config.AppConfig, *sql.DB, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	db, err := bootstrap.ConnectDB(cfg.Postgres, logger)
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("close database failed", "error", err)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSubmitCmd(logger *slog.Logger) *cobra.Command {
	var (
		subreddits      []string
		sorts           []string
		timeFilters     []string
		postLimit       int
		commentLimit    int
		maxCommentDepth int
		keywords        []string
		excludeKeywords []string
		minScore        int
		minUpvoteRatio  float64
		dateFrom        string
		dateTo          string
		excludeNSFW     bool
		anonymize       bool
		userID          string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new collection job",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(logger)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)

			params := model.CollectionParams{
				Subreddits:      subreddits,
				PostLimit:       postLimit,
				CommentLimit:    commentLimit,
				MaxCommentDepth: maxCommentDepth,
				Keywords:        keywords,
				ExcludeKeywords: excludeKeywords,
				MinScore:        minScore,
				MinUpvoteRatio:  minUpvoteRatio,
				ExcludeNSFW:     excludeNSFW,
				AnonymizeUsers:  anonymize,
			}
			for _, s := range sorts {
				params.SortTypes = append(params.SortTypes, model.SortType(s))
			}
			for _, t := range timeFilters {
				params.TimeFilters = append(params.TimeFilters, model.TimeFilter(t))
			}
			if dateFrom != "" {
				from, err := time.Parse(time.RFC3339, dateFrom)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				params.DateFrom = &from
			}
			if dateTo != "" {
				to, err := time.Parse(time.RFC3339, dateTo)
				if err != nil {
					return fmt.Errorf("parse --to: %w", err)
				}
				params.DateTo = &to
			}

			req := &model.CreateJobRequest{Params: params}
			if userID != "" {
				req.UserID = &userID
			}

			jobs := service.NewJobService(service.JobServiceOptions{
				Jobs:   data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
				Logger: logger,
			})
			job, err := jobs.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, job)
		},
	}

	cmd.Flags().StringSliceVarP(&subreddits, "subreddit", "r", nil, "Subreddit to collect (repeatable)")
	cmd.Flags().StringSliceVarP(&sorts, "sort", "s", []string{"hot"}, "Sort type: hot, new, top, rising, controversial")
	cmd.Flags().StringSliceVarP(&timeFilters, "time", "t", nil, "Time filter for windowed sorts: hour, day, week, month, year, all")
	cmd.Flags().IntVar(&postLimit, "post-limit", 100, "Maximum posts per combination")
	cmd.Flags().IntVar(&commentLimit, "comment-limit", 0, "Maximum comments per post (0 disables comments)")
	cmd.Flags().IntVar(&maxCommentDepth, "max-depth", 3, "Maximum comment tree depth")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Keep only records containing one of these keywords")
	cmd.Flags().StringSliceVar(&excludeKeywords, "exclude-keyword", nil, "Drop records containing one of these keywords")
	cmd.Flags().IntVar(&minScore, "min-score", 0, "Minimum record score")
	cmd.Flags().Float64Var(&minUpvoteRatio, "min-upvote-ratio", 0, "Minimum post upvote ratio [0,1]")
	cmd.Flags().StringVar(&dateFrom, "from", "", "Earliest record creation time (RFC3339)")
	cmd.Flags().StringVar(&dateTo, "to", "", "Latest record creation time (RFC3339)")
	cmd.Flags().BoolVar(&excludeNSFW, "exclude-nsfw", false, "Drop NSFW posts")
	cmd.Flags().BoolVar(&anonymize, "anonymize", false, "Redact author identity on stored records")
	cmd.Flags().StringVar(&userID, "user", "", "Submitting user id")
	_ = cmd.MarkFlagRequired("subreddit")

	return cmd
}

func newStatusCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show a job's status and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(logger)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)

			jobs := service.NewJobService(service.JobServiceOptions{
				Jobs:   data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
				Logger: logger,
			})
			job, err := jobs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, job)
		},
	}
}

func newCancelCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cooperative cancellation of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(logger)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)

			jobs := service.NewJobService(service.JobServiceOptions{
				Jobs:   data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
				Logger: logger,
			})
			if err := jobs.Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancellation requested for job %s\n", args[0])
			return nil
		},
	}
}

func newSummarizeCmd(logger *slog.Logger) *cobra.Command {
	var recompute bool

	cmd := &cobra.Command{
		Use:   "summarize <job-id>",
		Short: "Show (or recompute) a job's analytics summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect(logger)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)

			repoCfg := data.RepoConfig{Logger: logger}
			analyticsRepo := data.NewAnalyticsRepo(db, repoCfg)
			if !recompute {
				summary, err := analyticsRepo.GetByJob(cmd.Context(), args[0])
				if err == nil {
					return printJSON(cmd, summary)
				}
			}

			analyzer := service.NewAnalyzer(service.AnalyzerOptions{
				Posts:     data.NewPostRepo(db, repoCfg),
				Comments:  data.NewCommentRepo(db, repoCfg),
				Analytics: analyticsRepo,
				TopN:      cfg.Collector.AnalyticsTopN,
				Logger:    logger,
			})
			summary, err := analyzer.Summarize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().BoolVar(&recompute, "recompute", false, "Recompute the summary from stored records")
	return cmd
}

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect(logger)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			return bootstrap.RunMigrations(ctx, db, logger)
		},
	}
}
