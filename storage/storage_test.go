package storage

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"reddit-insight-agent/memory"
	"reddit-insight-agent/utility"
)

// newTestStore creates a Store backed by a temporary SQLite database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New(%q): %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	t.Run("creates database and tables", func(t *testing.T) {
		s := newTestStore(t)
		// Verify tables exist by running queries against them.
		if _, err := s.db.Exec("SELECT COUNT(*) FROM submissions"); err != nil {
			t.Errorf("submissions table missing: %v", err)
		}
		if _, err := s.db.Exec("SELECT COUNT(*) FROM utility_weights"); err != nil {
			t.Errorf("utility_weights table missing: %v", err)
		}
		if _, err := s.db.Exec("SELECT COUNT(*) FROM pattern_records"); err != nil {
			t.Errorf("pattern_records table missing: %v", err)
		}
	})

	t.Run("invalid path returns error", func(t *testing.T) {
		_, err := New("/nonexistent/dir/db.sqlite")
		if err == nil {
			t.Fatal("expected error for invalid path, got nil")
		}
	})
}

func TestSaveSubmission(t *testing.T) {
	s := newTestStore(t)

	sub := &Submission{
		ID:              "abc123",
		Title:           "Test Submission",
		Content:         "some selftext",
		Author:          "gopher",
		Subreddit:       "golang",
		CreatedUTC:      1756200000,
		ProcessedAt:     time.Now().Unix(),
		Sentiment:       0.4,
		Topics:          `["go","testing"]`,
		EngagementScore: 0.35,
		UtilityScore:    0.52,
	}

	if err := s.SaveSubmission(sub); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}

	// Verify by querying directly.
	var title string
	var utilityScore float64
	err := s.db.QueryRow(
		"SELECT title, utility_score FROM submissions WHERE submission_id = ?", "abc123",
	).Scan(&title, &utilityScore)
	if err != nil {
		t.Fatalf("query saved submission: %v", err)
	}
	if title != "Test Submission" {
		t.Errorf("title = %q, want %q", title, "Test Submission")
	}
	if utilityScore != 0.52 {
		t.Errorf("utility_score = %v, want 0.52", utilityScore)
	}

	// Test INSERT OR REPLACE behavior: update the same submission.
	sub.UtilityScore = 0.7
	if err := s.SaveSubmission(sub); err != nil {
		t.Fatalf("SaveSubmission (replace): %v", err)
	}
	err = s.db.QueryRow(
		"SELECT utility_score FROM submissions WHERE submission_id = ?", "abc123",
	).Scan(&utilityScore)
	if err != nil {
		t.Fatalf("query replaced submission: %v", err)
	}
	if utilityScore != 0.7 {
		t.Errorf("utility_score after replace = %v, want 0.7", utilityScore)
	}
}

func TestIsSubmissionProcessed(t *testing.T) {
	s := newTestStore(t)

	processed, err := s.IsSubmissionProcessed("unknown")
	if err != nil {
		t.Fatalf("IsSubmissionProcessed: %v", err)
	}
	if processed {
		t.Error("unknown submission reported as processed")
	}

	if err := s.SaveSubmission(&Submission{ID: "known", Subreddit: "golang"}); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}

	processed, err = s.IsSubmissionProcessed("known")
	if err != nil {
		t.Fatalf("IsSubmissionProcessed: %v", err)
	}
	if !processed {
		t.Error("saved submission not reported as processed")
	}
}

func TestRecentSubmissions(t *testing.T) {
	s := newTestStore(t)

	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveSubmission(&Submission{
			ID:          id,
			Subreddit:   "golang",
			ProcessedAt: int64(1000 + i),
		}); err != nil {
			t.Fatalf("SaveSubmission(%q): %v", id, err)
		}
	}
	if err := s.SaveSubmission(&Submission{ID: "other", Subreddit: "rust", ProcessedAt: 5000}); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}

	subs, err := s.RecentSubmissions("golang", 2)
	if err != nil {
		t.Fatalf("RecentSubmissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d submissions, want 2", len(subs))
	}
	if subs[0].ID != "c" || subs[1].ID != "b" {
		t.Errorf("order = %q, %q; want c, b", subs[0].ID, subs[1].ID)
	}
}

func TestLoadState_FreshDatabase(t *testing.T) {
	s := newTestStore(t)

	_, _, ok, err := s.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if ok {
		t.Error("fresh database reported a snapshot")
	}
}

func TestSaveLoadState_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	w := utility.Weights{Engagement: 0.5, Sentiment: 0.1, Relevance: 0.25, Novelty: 0.15}
	records := map[string]memory.Record{
		"topic:go|hour:9|len:1":      {Count: 4, Mean: 0.62},
		"topic:python|hour:14|len:2": {Count: 1, Mean: 0.9},
	}

	if err := s.SaveState(w, records); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	gotW, gotRecords, ok, err := s.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot after SaveState")
	}
	if gotW != w {
		t.Errorf("weights = %+v, want %+v", gotW, w)
	}
	if len(gotRecords) != len(records) {
		t.Fatalf("got %d records, want %d", len(gotRecords), len(records))
	}
	for sig, want := range records {
		got, found := gotRecords[sig]
		if !found {
			t.Errorf("record %q missing after round trip", sig)
			continue
		}
		if got.Count != want.Count || math.Abs(got.Mean-want.Mean) > 1e-9 {
			t.Errorf("record %q = %+v, want %+v", sig, got, want)
		}
	}
}

func TestSaveState_Overwrites(t *testing.T) {
	s := newTestStore(t)

	first := utility.Weights{Engagement: 0.4, Sentiment: 0.2, Relevance: 0.2, Novelty: 0.2}
	if err := s.SaveState(first, map[string]memory.Record{"sig": {Count: 1, Mean: 0.5}}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	second := utility.Weights{Engagement: 0.7, Sentiment: 0.1, Relevance: 0.1, Novelty: 0.1}
	if err := s.SaveState(second, map[string]memory.Record{"sig": {Count: 2, Mean: 0.6}}); err != nil {
		t.Fatalf("SaveState (second): %v", err)
	}

	gotW, gotRecords, ok, err := s.LoadState()
	if err != nil || !ok {
		t.Fatalf("LoadState: ok=%v err=%v", ok, err)
	}
	if gotW != second {
		t.Errorf("weights = %+v, want %+v", gotW, second)
	}
	if r := gotRecords["sig"]; r.Count != 2 {
		t.Errorf("record count = %d, want 2", r.Count)
	}
}

func TestLoadState_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := utility.Weights{Engagement: 0.3, Sentiment: 0.3, Relevance: 0.2, Novelty: 0.2}
	if err := s.SaveState(w, map[string]memory.Record{"sig": {Count: 7, Mean: 0.44}}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	s.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	defer reopened.Close()

	gotW, gotRecords, ok, err := reopened.LoadState()
	if err != nil || !ok {
		t.Fatalf("LoadState after reopen: ok=%v err=%v", ok, err)
	}
	if gotW != w {
		t.Errorf("weights = %+v, want %+v", gotW, w)
	}
	if r := gotRecords["sig"]; r.Count != 7 || math.Abs(r.Mean-0.44) > 1e-9 {
		t.Errorf("record = %+v", r)
	}
}
