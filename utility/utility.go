package utility

import (
	"fmt"
	"math"
	"time"
)

// Features is the immutable per-submission record the learning engine
// operates on: the normalized engagement metric plus the content-analysis
// outputs, with enough context to derive a pattern signature.
type Features struct {
	ID          string
	Subreddit   string
	Engagement  float64 // [0,1], from the signal extractor
	Sentiment   float64 // [-1,1]
	Relevance   float64 // [0,1]
	Novelty     float64 // [0,1]
	Topics      []string
	Suggestions []string
	PostedAt    time.Time
	TextLength  int
}

// Weights is the utility weight vector. All components must be non-negative;
// the sum need not equal 1.
type Weights struct {
	Engagement float64
	Sentiment  float64
	Relevance  float64
	Novelty    float64
}

// DefaultWeights returns the stock weight vector.
func DefaultWeights() Weights {
	return Weights{Engagement: 0.4, Sentiment: 0.2, Relevance: 0.2, Novelty: 0.2}
}

// Validate checks that every weight is finite and non-negative.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Engagement, w.Sentiment, w.Relevance, w.Novelty} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("utility: weight must be finite, got %v", v)
		}
		if v < 0 {
			return fmt.Errorf("utility: weight must be non-negative, got %v", v)
		}
	}
	return nil
}

// Model computes scalar utility as a weighted sum of a submission's features.
// The weight vector is owned here and mutated only through SetWeights.
type Model struct {
	weights Weights
}

// NewModel creates a Model with the given initial weights.
func NewModel(w Weights) (*Model, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Model{weights: w}, nil
}

// Score computes the utility of a submission. Sentiment is remapped from
// [-1,1] to [0,1] so that under default weights summing to 1 the result
// stays in [0,1]. Pure: no state is touched beyond reading the weights.
func (m *Model) Score(f Features) float64 {
	return m.weights.Engagement*f.Engagement +
		m.weights.Sentiment*SentimentValue(f.Sentiment) +
		m.weights.Relevance*f.Relevance +
		m.weights.Novelty*f.Novelty
}

// Weights returns the current weight vector.
func (m *Model) Weights() Weights {
	return m.weights
}

// SetWeights replaces the weight vector. Invalid vectors are rejected so the
// model never holds negative or non-finite weights.
func (m *Model) SetWeights(w Weights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	m.weights = w
	return nil
}

// SentimentValue remaps a sentiment score from [-1,1] into [0,1].
func SentimentValue(sentiment float64) float64 {
	return (sentiment + 1) / 2
}
