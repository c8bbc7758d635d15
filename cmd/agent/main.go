package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reddit-insight-agent/agent"
	"reddit-insight-agent/analyzer"
	"reddit-insight-agent/config"
	"reddit-insight-agent/memory"
	"reddit-insight-agent/reddit"
	"reddit-insight-agent/scheduler"
	"reddit-insight-agent/scrape"
	"reddit-insight-agent/storage"
	"reddit-insight-agent/utility"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "reddit-insight-agent",
		Short:         "Utility-based learning agent for Reddit submissions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "./config.yaml", "path to YAML config file")

	root.AddCommand(newRunCmd(&cfgPath))
	root.AddCommand(newProcessCmd(&cfgPath))
	root.AddCommand(newRecommendCmd(&cfgPath))

	return root
}

// setup loads config, configures logging, and wires the agent with all
// collaborators. The returned store must be closed by the caller.
func setup(cfgPath string) (*agent.Agent, *storage.Store, config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	setupLogging(cfg.LogLevel)
	slog.Info("config loaded", "subreddits", cfg.Subreddits, "process_time", cfg.ProcessTime, "timezone", cfg.Timezone)

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("initializing storage: %w", err)
	}
	slog.Info("storage initialized", "db_path", cfg.DBPath)

	timeout := time.Duration(cfg.FetchTimeoutSec) * time.Second
	httpClient := &http.Client{Timeout: timeout}

	a, err := agent.New(agent.Deps{
		Source:   &sourceAdapter{client: reddit.NewClient(httpClient, cfg.RedditUserAgent)},
		Scraper:  scrape.New(timeout, cfg.RedditUserAgent, cfg.ScrapeMaxChars),
		Analyzer: &analyzerAdapter{analyzer: analyzer.New(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, httpClient)},
		Store:    &storeAdapter{store: store},
	}, agent.Config{
		Weights: utility.Weights{
			Engagement: cfg.WeightEngagement,
			Sentiment:  cfg.WeightSentiment,
			Relevance:  cfg.WeightRelevance,
			Novelty:    cfg.WeightNovelty,
		},
		LearningRate: cfg.LearningRate,
		Buckets: memory.Buckets{
			HourBucketSize:   cfg.HourBucketSize,
			LengthThresholds: cfg.LengthThresholds,
		},
	})
	if err != nil {
		store.Close()
		return nil, nil, config.Config{}, err
	}

	return a, store, cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

// processAll runs one batch per configured subreddit.
func processAll(ctx context.Context, a *agent.Agent, cfg config.Config) {
	for _, subreddit := range cfg.Subreddits {
		results, err := a.Process(ctx, subreddit, cfg.SubmissionLimit)
		if err != nil {
			slog.Error("batch aborted", "subreddit", subreddit, "error", err)
			return
		}
		for _, r := range results {
			slog.Info("submission processed",
				"id", r.ID, "subreddit", r.Subreddit,
				"utility", r.Utility, "predicted", r.Predicted,
				"engagement", r.Engagement, "degraded", r.Degraded)
		}
	}
}

func newRunCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent daemon with scheduled daily processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, cfg, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer store.Close()

			sched, err := scheduler.New(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("creating scheduler: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			task := func() {
				processAll(ctx, a, cfg)
				if err := a.Checkpoint(); err != nil {
					slog.Error("checkpoint failed", "error", err)
				}
			}
			if err := sched.Schedule(cfg.ProcessTime, task); err != nil {
				return fmt.Errorf("scheduling processing run: %w", err)
			}
			sched.Start()
			slog.Info("scheduler started", "process_time", cfg.ProcessTime)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
			sched.Stop()

			// Best-effort checkpoint on shutdown.
			if err := a.Checkpoint(); err != nil {
				slog.Error("shutdown checkpoint failed", "error", err)
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}

func newProcessCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process one batch for every configured subreddit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, cfg, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer store.Close()

			processAll(cmd.Context(), a, cfg)

			if err := a.Checkpoint(); err != nil {
				slog.Error("checkpoint failed", "error", err)
			}
			slog.Info("processing finished", "patterns", a.PatternCount(), "weights", a.Weights())
			return nil
		},
	}
}

func newRecommendCmd(cfgPath *string) *cobra.Command {
	var target string
	var top int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print ranked recommendations from learned patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, store, _, err := setup(*cfgPath)
			if err != nil {
				return err
			}
			defer store.Close()

			recs := a.Recommend(target, top)
			if len(recs) == 0 {
				fmt.Println("no recommendations yet: not enough learned data")
				return nil
			}

			for i, r := range recs {
				fmt.Printf("%d. %s\n   predicted utility %.3f (%d observations)\n",
					i+1, r.Rationale, r.PredictedUtility, r.Support)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "topic to recommend for (empty ranks all topics)")
	cmd.Flags().IntVar(&top, "top", 5, "number of recommendations")
	return cmd
}
