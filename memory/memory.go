package memory

import (
	"fmt"
	"sort"
	"strings"

	"reddit-insight-agent/utility"
)

// Buckets controls how continuous features are discretized into pattern
// signatures. Boundaries are tunable configuration rather than fixed
// constants.
type Buckets struct {
	// HourBucketSize is the width in hours of each posting-hour bucket.
	HourBucketSize int
	// LengthThresholds are the upper bounds (exclusive) of the text-length
	// buckets. Two thresholds yield three buckets: short, medium, long.
	LengthThresholds []int
}

// DefaultBuckets returns hour-granular time buckets and short/medium/long
// text buckets at 120 and 600 characters.
func DefaultBuckets() Buckets {
	return Buckets{HourBucketSize: 1, LengthThresholds: []int{120, 600}}
}

// SignatureFor derives the pattern signature for a submission. It is a pure
// function: identical features and buckets always produce the same key.
func SignatureFor(f utility.Features, b Buckets) string {
	topic := "general"
	if len(f.Topics) > 0 && f.Topics[0] != "" {
		topic = strings.ToLower(f.Topics[0])
	}

	size := b.HourBucketSize
	if size < 1 {
		size = 1
	}
	hourBucket := f.PostedAt.UTC().Hour() / size * size

	lenBucket := len(b.LengthThresholds)
	for i, limit := range b.LengthThresholds {
		if f.TextLength < limit {
			lenBucket = i
			break
		}
	}

	return fmt.Sprintf("topic:%s|hour:%d|len:%d", topic, hourBucket, lenBucket)
}

// Record holds the aggregated statistics for one pattern signature.
type Record struct {
	Count int
	Mean  float64
}

// Pattern is a record paired with its signature, as returned by queries.
type Pattern struct {
	Signature string
	Count     int
	Mean      float64
}

// Memory accumulates (signature -> utility) observations for the process
// lifetime. Records are created lazily and never deleted. Not safe for
// concurrent use; the owner serializes all calls.
type Memory struct {
	records map[string]*Record
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{records: make(map[string]*Record)}
}

// Observe folds a realized utility into the record for the signature,
// creating it on first sight. The mean is updated incrementally:
// mean += (utility - mean) / (count+1).
func (m *Memory) Observe(signature string, utilityValue float64) {
	r, ok := m.records[signature]
	if !ok {
		m.records[signature] = &Record{Count: 1, Mean: utilityValue}
		return
	}
	r.Mean += (utilityValue - r.Mean) / float64(r.Count+1)
	r.Count++
}

// Len returns the number of distinct signatures observed.
func (m *Memory) Len() int {
	return len(m.records)
}

// BestPatterns returns the top-k patterns by mean utility. Ties break toward
// higher count (more evidence), then lexical signature order, so repeated
// calls on the same state return identical orderings.
func (m *Memory) BestPatterns(k int) []Pattern {
	return m.topK(k, func(string) bool { return true })
}

// PatternsFor returns the top-k patterns whose topic component matches the
// given topic (case-insensitive). An empty topic matches everything.
func (m *Memory) PatternsFor(topic string, k int) []Pattern {
	if topic == "" {
		return m.BestPatterns(k)
	}
	prefix := "topic:" + strings.ToLower(topic) + "|"
	return m.topK(k, func(sig string) bool {
		return strings.HasPrefix(sig, prefix)
	})
}

func (m *Memory) topK(k int, match func(string) bool) []Pattern {
	if k <= 0 {
		return nil
	}

	var out []Pattern
	for sig, r := range m.records {
		if match(sig) {
			out = append(out, Pattern{Signature: sig, Count: r.Count, Mean: r.Mean})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Signature < out[j].Signature
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Snapshot copies the record map for persistence.
func (m *Memory) Snapshot() map[string]Record {
	out := make(map[string]Record, len(m.records))
	for sig, r := range m.records {
		out[sig] = *r
	}
	return out
}

// Restore replaces the record map from a persisted snapshot. Records with a
// non-positive count are dropped: a zero-count record has no defined mean.
func (m *Memory) Restore(records map[string]Record) {
	m.records = make(map[string]*Record, len(records))
	for sig, r := range records {
		if r.Count <= 0 {
			continue
		}
		rec := r
		m.records[sig] = &rec
	}
}
