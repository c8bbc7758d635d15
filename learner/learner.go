package learner

import (
	"fmt"

	"reddit-insight-agent/memory"
	"reddit-insight-agent/utility"
)

// weightFloor keeps the model alive if every weight gets clamped to zero in
// the same step; a dead vector could never move again.
const weightFloor = 1e-3

// Updater is the single state-mutating entry point for learning. It adjusts
// the utility model's weights toward realized outcomes with a stochastic
// gradient step and folds each outcome into pattern memory.
type Updater struct {
	model   *utility.Model
	mem     *memory.Memory
	rate    float64
	buckets memory.Buckets
}

// New creates an Updater. The learning rate must lie in (0,1) for the
// prediction to converge toward the realized mean.
func New(model *utility.Model, mem *memory.Memory, rate float64, buckets memory.Buckets) (*Updater, error) {
	if rate <= 0 || rate >= 1 {
		return nil, fmt.Errorf("learner: learning rate must be in (0,1), got %v", rate)
	}
	return &Updater{model: model, mem: mem, rate: rate, buckets: buckets}, nil
}

// Update applies one learning step for a realized outcome and returns the
// prediction error (realized - predicted).
//
// Each weight moves by rate * error * featureValue, the gradient step for a
// linear utility model under squared-error loss. Sentiment uses the same
// remapped [0,1] value the model scores with, so the gradient matches the
// forward pass. Weights are clamped to >= 0 afterwards.
func (u *Updater) Update(f utility.Features, realized float64) float64 {
	predicted := u.model.Score(f)
	err := realized - predicted

	w := u.model.Weights()
	w.Engagement += u.rate * err * f.Engagement
	w.Sentiment += u.rate * err * utility.SentimentValue(f.Sentiment)
	w.Relevance += u.rate * err * f.Relevance
	w.Novelty += u.rate * err * f.Novelty

	w.Engagement = clampNonNegative(w.Engagement)
	w.Sentiment = clampNonNegative(w.Sentiment)
	w.Relevance = clampNonNegative(w.Relevance)
	w.Novelty = clampNonNegative(w.Novelty)

	if w.Engagement == 0 && w.Sentiment == 0 && w.Relevance == 0 && w.Novelty == 0 {
		w = utility.Weights{
			Engagement: weightFloor,
			Sentiment:  weightFloor,
			Relevance:  weightFloor,
			Novelty:    weightFloor,
		}
	}

	// The vector was clamped above, so SetWeights cannot fail.
	_ = u.model.SetWeights(w)

	u.mem.Observe(memory.SignatureFor(f, u.buckets), realized)

	return err
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
