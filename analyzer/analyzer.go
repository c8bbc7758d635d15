package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrAnalysisUnavailable indicates the external analyzer errored, timed out,
// or returned a payload that could not be coerced into an Analysis. It is
// recovered inside the adapter: callers of Analyze only ever see the neutral
// default.
var ErrAnalysisUnavailable = errors.New("analyzer: analysis unavailable")

// Analysis is the fixed-shape result of content analysis. Numeric fields are
// always within their documented ranges.
type Analysis struct {
	Sentiment   float64  `json:"sentiment"`   // [-1,1]
	Relevance   float64  `json:"relevance"`   // [0,1]
	Novelty     float64  `json:"novelty"`     // [0,1]
	Topics      []string `json:"topics"`
	Suggestions []string `json:"suggestions"`
	// Degraded marks results substituted after an analyzer failure.
	Degraded bool `json:"-"`
}

// Neutral returns the documented fallback analysis used when the external
// service is unavailable.
func Neutral() Analysis {
	return Analysis{Sentiment: 0, Relevance: 0.5, Novelty: 0.5, Degraded: true}
}

// ChatClient is the slice of the OpenAI-compatible client the analyzer needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyzer normalizes an external LLM call into a fixed-shape Analysis.
type Analyzer struct {
	client ChatClient
	model  string
}

const systemPrompt = `You are a content analyst. Respond with a single JSON object and nothing else.`

// New creates an Analyzer against an OpenAI-compatible chat-completions
// endpoint. baseURL may point at any compatible provider (Groq, OpenAI);
// empty keeps the client default.
func New(apiKey, baseURL, model string, httpClient *http.Client) *Analyzer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &Analyzer{client: openai.NewClientWithConfig(cfg), model: model}
}

// NewWithClient creates an Analyzer with a custom chat client (for testing).
func NewWithClient(client ChatClient, model string) *Analyzer {
	return &Analyzer{client: client, model: model}
}

// Analyze scores submission text for a subreddit. It never fails: any
// analyzer error degrades to the neutral default so one submission cannot
// block a batch.
func (a *Analyzer) Analyze(ctx context.Context, subreddit, title, body string) Analysis {
	result, err := a.analyze(ctx, subreddit, title, body)
	if err != nil {
		slog.Warn("content analysis degraded to neutral defaults",
			"subreddit", subreddit, "error", fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err))
		return Neutral()
	}
	return result
}

func (a *Analyzer) analyze(ctx context.Context, subreddit, title, body string) (Analysis, error) {
	prompt := fmt.Sprintf(`Analyze this r/%s submission. Return a JSON object with exactly these fields:
"sentiment" (float, -1 extremely negative to 1 extremely positive),
"relevance" (float, 0 to 1, how relevant the content is to r/%s),
"novelty" (float, 0 to 1, how novel the content is for r/%s),
"topics" (array of lowercase topic strings, most dominant first),
"suggestions" (array of short actionable posting suggestions).

Title: %s

Body: %s`, subreddit, subreddit, subreddit, title, body)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("calling chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Analysis{}, fmt.Errorf("empty completion response")
	}

	payload := extractJSON(resp.Choices[0].Message.Content)
	if payload == "" {
		return Analysis{}, fmt.Errorf("no JSON object in completion response")
	}

	var result Analysis
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return Analysis{}, fmt.Errorf("parsing analysis JSON: %w", err)
	}

	return normalize(result), nil
}

// normalize clamps numeric outputs to their documented ranges and cleans the
// topic list, regardless of what the external service returned.
func normalize(a Analysis) Analysis {
	a.Sentiment = clamp(a.Sentiment, -1, 1)
	a.Relevance = clamp(a.Relevance, 0, 1)
	a.Novelty = clamp(a.Novelty, 0, 1)

	seen := make(map[string]bool, len(a.Topics))
	topics := a.Topics[:0]
	for _, t := range a.Topics {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		topics = append(topics, t)
	}
	a.Topics = topics

	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// extractJSON pulls a JSON object out of model output that may be wrapped in
// markdown fences or surrounded by prose. Returns "" when no object is found.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (possibly with language tag)
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		// Remove closing fence
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
