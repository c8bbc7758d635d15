package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reddit-insight-agent/learner"
	"reddit-insight-agent/memory"
	"reddit-insight-agent/recommend"
	"reddit-insight-agent/signal"
	"reddit-insight-agent/utility"
)

// Submission is one raw submission record from the source collaborator.
type Submission struct {
	ID          string
	Title       string
	Body        string
	Author      string
	Subreddit   string
	URL         string
	Score       int
	NumComments int
	UpvoteRatio float64
	CreatedUTC  int64
}

// SubmissionSource lists submissions from a subreddit.
type SubmissionSource interface {
	ListSubmissions(ctx context.Context, subreddit string, limit int) ([]Submission, error)
}

// ContentScraper extracts readable content from link targets.
type ContentScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Analysis is the content-analysis result consumed by the agent.
type Analysis struct {
	Sentiment   float64
	Relevance   float64
	Novelty     float64
	Topics      []string
	Suggestions []string
	Degraded    bool
}

// ContentAnalyzer scores submission text. Implementations degrade to neutral
// defaults internally and never fail.
type ContentAnalyzer interface {
	Analyze(ctx context.Context, subreddit, title, body string) Analysis
}

// StoredSubmission is the processed-submission row handed to storage.
type StoredSubmission struct {
	ID              string
	Title           string
	Content         string
	Author          string
	Subreddit       string
	CreatedUTC      int64
	ProcessedAt     int64
	Sentiment       float64
	Topics          string
	EngagementScore float64
	UtilityScore    float64
}

// Store persists processed submissions and the learning snapshot.
type Store interface {
	IsSubmissionProcessed(id string) (bool, error)
	SaveSubmission(sub *StoredSubmission) error
	LoadState() (utility.Weights, map[string]memory.Record, bool, error)
	SaveState(w utility.Weights, records map[string]memory.Record) error
}

// Config holds the learning configuration of the agent.
type Config struct {
	Weights      utility.Weights
	LearningRate float64
	Buckets      memory.Buckets
}

// Deps are the injected collaborators.
type Deps struct {
	Source   SubmissionSource
	Scraper  ContentScraper
	Analyzer ContentAnalyzer
	Store    Store
}

// Result summarizes one processed submission.
type Result struct {
	ID         string
	Title      string
	Subreddit  string
	Utility    float64
	Predicted  float64
	Engagement float64
	Degraded   bool
}

// Agent orchestrates extraction, analysis, utility computation, learning,
// and ranking for batches of submissions. The utility model and pattern
// memory are process-wide state owned here; a mutex serializes Process and
// Recommend because the scheduler and CLI may call concurrently.
type Agent struct {
	mu sync.Mutex

	source   SubmissionSource
	scraper  ContentScraper
	analyzer ContentAnalyzer
	store    Store

	model       *utility.Model // learned weights
	outcome     *utility.Model // fixed reference weights defining realized utility
	mem         *memory.Memory
	updater     *learner.Updater
	recommender *recommend.Recommender
	buckets     memory.Buckets

	now func() time.Time
}

// New constructs an Agent, loading any persisted learning snapshot. A
// storage failure here is fatal: the agent cannot run without a consistent
// weight vector.
func New(deps Deps, cfg Config) (*Agent, error) {
	weights, records, ok, err := deps.Store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("agent: load state: %w", err)
	}
	if !ok {
		weights = cfg.Weights
	}

	model, err := utility.NewModel(weights)
	if err != nil {
		return nil, fmt.Errorf("agent: invalid weights: %w", err)
	}
	outcome, err := utility.NewModel(cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("agent: invalid reference weights: %w", err)
	}

	mem := memory.New()
	if ok {
		mem.Restore(records)
		slog.Info("learning state restored", "patterns", mem.Len(), "weights", weights)
	}

	updater, err := learner.New(model, mem, cfg.LearningRate, cfg.Buckets)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	return &Agent{
		source:      deps.Source,
		scraper:     deps.Scraper,
		analyzer:    deps.Analyzer,
		store:       deps.Store,
		model:       model,
		outcome:     outcome,
		mem:         mem,
		updater:     updater,
		recommender: recommend.New(mem, cfg.Buckets),
		buckets:     cfg.Buckets,
		now:         time.Now,
	}, nil
}

// Process runs one batch over a subreddit: list, analyze, score, learn. One
// submission's failure never aborts the batch; analyzer outages degrade that
// submission to neutral defaults. A listing failure (missing or private
// subreddit) is logged and yields an empty batch.
func (a *Agent) Process(ctx context.Context, subreddit string, limit int) ([]Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	slog.Info("batch starting", "subreddit", subreddit, "limit", limit)

	submissions, err := a.source.ListSubmissions(ctx, subreddit, limit)
	if err != nil {
		slog.Error("failed to list submissions", "subreddit", subreddit, "error", err)
		return nil, nil
	}

	var results []Result
	for _, sub := range submissions {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		processed, err := a.store.IsSubmissionProcessed(sub.ID)
		if err != nil {
			slog.Error("failed to check processed state", "id", sub.ID, "error", err)
			continue
		}
		if processed {
			continue
		}

		res, ok := a.processOne(ctx, sub)
		if ok {
			results = append(results, res)
		}
	}

	slog.Info("batch complete", "subreddit", subreddit, "processed", len(results))
	return results, nil
}

func (a *Agent) processOne(ctx context.Context, sub Submission) (Result, bool) {
	content := sub.Body
	if content == "" && sub.URL != "" {
		scraped, err := a.scraper.Scrape(ctx, sub.URL)
		if err != nil {
			slog.Warn("scrape failed, using title", "id", sub.ID, "url", sub.URL, "error", err)
		} else if scraped != "" {
			content = scraped
		}
	}
	if content == "" {
		content = sub.Title
	}

	analysis := a.analyzer.Analyze(ctx, sub.Subreddit, sub.Title, content)

	createdAt := time.Unix(sub.CreatedUTC, 0).UTC()
	engagement, err := signal.Engagement(sub.Score, sub.NumComments, sub.UpvoteRatio, createdAt, a.now())
	if err != nil {
		slog.Error("invalid submission counters, skipping", "id", sub.ID, "error", err)
		return Result{}, false
	}

	features := utility.Features{
		ID:          sub.ID,
		Subreddit:   sub.Subreddit,
		Engagement:  engagement,
		Sentiment:   analysis.Sentiment,
		Relevance:   analysis.Relevance,
		Novelty:     analysis.Novelty,
		Topics:      analysis.Topics,
		Suggestions: analysis.Suggestions,
		PostedAt:    createdAt,
		TextLength:  len(sub.Title) + len(content),
	}

	// Realized utility is the reference blend of the observed post-hoc
	// signals; the learned model's score is the prediction being corrected.
	realized := a.outcome.Score(features)
	predicted := a.model.Score(features)

	topicsJSON, _ := json.Marshal(features.Topics)
	if err := a.store.SaveSubmission(&StoredSubmission{
		ID:              sub.ID,
		Title:           sub.Title,
		Content:         content,
		Author:          sub.Author,
		Subreddit:       sub.Subreddit,
		CreatedUTC:      sub.CreatedUTC,
		ProcessedAt:     a.now().Unix(),
		Sentiment:       analysis.Sentiment,
		Topics:          string(topicsJSON),
		EngagementScore: engagement,
		UtilityScore:    realized,
	}); err != nil {
		slog.Error("failed to save submission", "id", sub.ID, "error", err)
	}

	a.updater.Update(features, realized)

	return Result{
		ID:         sub.ID,
		Title:      sub.Title,
		Subreddit:  sub.Subreddit,
		Utility:    realized,
		Predicted:  predicted,
		Engagement: engagement,
		Degraded:   analysis.Degraded,
	}, true
}

// Recommend returns up to k ranked recommendations for the target topic. An
// empty memory yields an empty slice, which is a normal outcome.
func (a *Agent) Recommend(target string, k int) []recommend.Recommendation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recommender.Recommend(target, k)
}

// Weights returns the current learned weight vector.
func (a *Agent) Weights() utility.Weights {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model.Weights()
}

// PatternCount returns the number of distinct learned patterns.
func (a *Agent) PatternCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mem.Len()
}

// Checkpoint persists the learning snapshot. Callers at shutdown treat a
// failure as best-effort: log and continue.
func (a *Agent) Checkpoint() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.SaveState(a.model.Weights(), a.mem.Snapshot()); err != nil {
		return fmt.Errorf("agent: checkpoint: %w", err)
	}
	return nil
}
