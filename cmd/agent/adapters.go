package main

import (
	"context"

	"reddit-insight-agent/agent"
	"reddit-insight-agent/analyzer"
	"reddit-insight-agent/memory"
	"reddit-insight-agent/reddit"
	"reddit-insight-agent/storage"
	"reddit-insight-agent/utility"
)

// sourceAdapter bridges reddit.Client to agent.SubmissionSource.
type sourceAdapter struct {
	client reddit.Client
}

func (a *sourceAdapter) ListSubmissions(ctx context.Context, subreddit string, limit int) ([]agent.Submission, error) {
	submissions, err := a.client.ListSubmissions(ctx, subreddit, limit)
	if err != nil {
		return nil, err
	}
	out := make([]agent.Submission, len(submissions))
	for i, s := range submissions {
		out[i] = agent.Submission{
			ID:          s.ID,
			Title:       s.Title,
			Body:        s.Body,
			Author:      s.Author,
			Subreddit:   s.Subreddit,
			URL:         s.URL,
			Score:       s.Score,
			NumComments: s.NumComments,
			UpvoteRatio: s.UpvoteRatio,
			CreatedUTC:  s.CreatedUTC,
		}
	}
	return out, nil
}

// analyzerAdapter bridges analyzer.Analyzer to agent.ContentAnalyzer.
type analyzerAdapter struct {
	analyzer *analyzer.Analyzer
}

func (a *analyzerAdapter) Analyze(ctx context.Context, subreddit, title, body string) agent.Analysis {
	result := a.analyzer.Analyze(ctx, subreddit, title, body)
	return agent.Analysis{
		Sentiment:   result.Sentiment,
		Relevance:   result.Relevance,
		Novelty:     result.Novelty,
		Topics:      result.Topics,
		Suggestions: result.Suggestions,
		Degraded:    result.Degraded,
	}
}

// storeAdapter bridges storage.Store to agent.Store.
type storeAdapter struct {
	store *storage.Store
}

func (a *storeAdapter) IsSubmissionProcessed(id string) (bool, error) {
	return a.store.IsSubmissionProcessed(id)
}

func (a *storeAdapter) SaveSubmission(sub *agent.StoredSubmission) error {
	return a.store.SaveSubmission(&storage.Submission{
		ID:              sub.ID,
		Title:           sub.Title,
		Content:         sub.Content,
		Author:          sub.Author,
		Subreddit:       sub.Subreddit,
		CreatedUTC:      sub.CreatedUTC,
		ProcessedAt:     sub.ProcessedAt,
		Sentiment:       sub.Sentiment,
		Topics:          sub.Topics,
		EngagementScore: sub.EngagementScore,
		UtilityScore:    sub.UtilityScore,
	})
}

func (a *storeAdapter) LoadState() (utility.Weights, map[string]memory.Record, bool, error) {
	return a.store.LoadState()
}

func (a *storeAdapter) SaveState(w utility.Weights, records map[string]memory.Record) error {
	return a.store.SaveState(w, records)
}
