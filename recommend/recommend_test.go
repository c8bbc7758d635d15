package recommend

import (
	"strings"
	"testing"

	"reddit-insight-agent/memory"
)

func newTestRecommender() (*Recommender, *memory.Memory) {
	mem := memory.New()
	return New(mem, memory.DefaultBuckets()), mem
}

func TestRecommend_EmptyMemory(t *testing.T) {
	r, _ := newTestRecommender()

	recs := r.Recommend("python", 5)
	if len(recs) != 0 {
		t.Errorf("fresh memory returned %d recommendations, want 0", len(recs))
	}
}

func TestRecommend_RankedByPredictedUtility(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:python|hour:9|len:0", 0.4)
	mem.Observe("topic:python|hour:14|len:1", 0.9)
	mem.Observe("topic:python|hour:20|len:2", 0.6)

	recs := r.Recommend("python", 3)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].PredictedUtility > recs[i-1].PredictedUtility {
			t.Errorf("recommendations out of order at %d: %v > %v",
				i, recs[i].PredictedUtility, recs[i-1].PredictedUtility)
		}
	}
	if recs[0].Signature != "topic:python|hour:14|len:1" {
		t.Errorf("best recommendation = %q", recs[0].Signature)
	}
}

func TestRecommend_FiltersByTarget(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:python|hour:14|len:1", 0.9)
	mem.Observe("topic:go|hour:14|len:1", 0.95)

	recs := r.Recommend("python", 5)
	if len(recs) != 1 {
		t.Fatalf("expected 1 python recommendation, got %d", len(recs))
	}
	if !strings.Contains(recs[0].Signature, "topic:python") {
		t.Errorf("got non-python signature %q", recs[0].Signature)
	}
}

func TestRecommend_EmptyTargetRanksAll(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:python|hour:14|len:1", 0.9)
	mem.Observe("topic:go|hour:14|len:1", 0.95)

	recs := r.Recommend("", 5)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Signature != "topic:go|hour:14|len:1" {
		t.Errorf("best overall = %q, want the go pattern", recs[0].Signature)
	}
}

func TestRecommend_FewerThanK(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:python|hour:14|len:1", 0.9)

	recs := r.Recommend("python", 10)
	if len(recs) != 1 {
		t.Errorf("expected all eligible entries (1), got %d", len(recs))
	}
}

func TestRecommend_SupportAndRationale(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:python|hour:14|len:1", 0.8)
	mem.Observe("topic:python|hour:14|len:1", 0.8)
	mem.Observe("topic:python|hour:14|len:1", 0.8)

	recs := r.Recommend("python", 1)
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Support != 3 {
		t.Errorf("support = %d, want 3", rec.Support)
	}

	for _, want := range []string{"python", "14:00", "medium", "0.80", "3 observations"} {
		if !strings.Contains(rec.Rationale, want) {
			t.Errorf("rationale %q missing %q", rec.Rationale, want)
		}
	}
}

func TestRecommend_SingularObservation(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:go|hour:9|len:0", 0.5)

	rec := r.Recommend("go", 1)[0]
	if !strings.Contains(rec.Rationale, "1 observation") || strings.Contains(rec.Rationale, "observations") {
		t.Errorf("rationale %q should use singular form", rec.Rationale)
	}
}

func TestRecommend_LengthLabels(t *testing.T) {
	r, mem := newTestRecommender()
	mem.Observe("topic:a|hour:9|len:0", 0.9)
	mem.Observe("topic:b|hour:9|len:1", 0.8)
	mem.Observe("topic:c|hour:9|len:2", 0.7)

	recs := r.Recommend("", 3)
	labels := []string{"short", "medium", "long"}
	for i, rec := range recs {
		if !strings.Contains(rec.Rationale, labels[i]) {
			t.Errorf("rationale %q missing label %q", rec.Rationale, labels[i])
		}
	}
}
