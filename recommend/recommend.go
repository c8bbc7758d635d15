package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"reddit-insight-agent/memory"
)

// Recommendation is an actionable, human-readable suggestion derived from a
// learned pattern. It is ephemeral: the pattern record in memory stays
// authoritative.
type Recommendation struct {
	Signature        string
	PredictedUtility float64
	Support          int
	Rationale        string
}

// Recommender turns the best patterns in memory into ranked recommendations.
type Recommender struct {
	mem     *memory.Memory
	buckets memory.Buckets
}

// New creates a Recommender. Buckets are needed to render signature
// components back into human-readable form.
func New(mem *memory.Memory, buckets memory.Buckets) *Recommender {
	return &Recommender{mem: mem, buckets: buckets}
}

// Recommend returns up to k recommendations for the target topic, ordered by
// predicted utility descending. An empty target ranks across all topics.
// Fewer than k eligible patterns yields all of them; an empty memory yields
// an empty slice. Neither is an error.
func (r *Recommender) Recommend(target string, k int) []Recommendation {
	patterns := r.mem.PatternsFor(target, k)

	out := make([]Recommendation, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, Recommendation{
			Signature:        p.Signature,
			PredictedUtility: p.Mean,
			Support:          p.Count,
			Rationale:        r.rationale(p),
		})
	}
	return out
}

// rationale renders a pattern into an actionable sentence, e.g.
// "posts about python around 14:00 UTC with medium text averaged utility
// 0.82 over 17 observations".
func (r *Recommender) rationale(p memory.Pattern) string {
	topic, hour, lenBucket := parseSignature(p.Signature)

	observations := "observation"
	if p.Count != 1 {
		observations = "observations"
	}

	return fmt.Sprintf("posts about %s around %02d:00 UTC with %s text averaged utility %.2f over %d %s",
		topic, hour, r.lengthLabel(lenBucket), p.Mean, p.Count, observations)
}

func (r *Recommender) lengthLabel(bucket int) string {
	switch n := len(r.buckets.LengthThresholds); {
	case n == 2 && bucket == 0:
		return "short"
	case n == 2 && bucket == 1:
		return "medium"
	case n == 2:
		return "long"
	default:
		return fmt.Sprintf("length-bucket-%d", bucket)
	}
}

// parseSignature splits a "topic:<t>|hour:<h>|len:<b>" key back into its
// components. Unparseable parts fall back to neutral values rather than
// failing: the signature format is internal and stable.
func parseSignature(sig string) (topic string, hour, lenBucket int) {
	topic = "general"
	for _, part := range strings.Split(sig, "|") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch key {
		case "topic":
			topic = value
		case "hour":
			if v, err := strconv.Atoi(value); err == nil {
				hour = v
			}
		case "len":
			if v, err := strconv.Atoi(value); err == nil {
				lenBucket = v
			}
		}
	}
	return topic, hour, lenBucket
}
