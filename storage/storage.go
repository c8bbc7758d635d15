package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"reddit-insight-agent/memory"
	"reddit-insight-agent/utility"
)

// Submission is the persisted row for a processed submission.
type Submission struct {
	ID              string
	Title           string
	Content         string
	Author          string
	Subreddit       string
	CreatedUTC      int64
	ProcessedAt     int64
	Sentiment       float64
	Topics          string // JSON array stored as text
	EngagementScore float64
	UtilityScore    float64
}

// Store provides SQLite-backed persistence for processed submissions and the
// learning snapshot (utility weights plus pattern records).
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS submissions (
	submission_id TEXT PRIMARY KEY,
	title TEXT,
	content TEXT,
	author TEXT,
	subreddit TEXT,
	created_utc INTEGER,
	processed_at INTEGER,
	sentiment REAL,
	topics TEXT,
	engagement_score REAL,
	utility_score REAL
);

CREATE TABLE IF NOT EXISTS utility_weights (
	name TEXT PRIMARY KEY,
	weight REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS pattern_records (
	signature TEXT PRIMARY KEY,
	observation_count INTEGER NOT NULL,
	mean_utility REAL NOT NULL,
	updated_at INTEGER
);
`

// New opens the SQLite database at dbPath, creates tables if they don't
// exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsSubmissionProcessed reports whether a submission row already exists.
func (s *Store) IsSubmissionProcessed(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM submissions WHERE submission_id = ?`, id,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: is submission processed %q: %w", id, err)
	}
	return true, nil
}

// SaveSubmission inserts or replaces a processed submission row.
func (s *Store) SaveSubmission(sub *Submission) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO submissions (
			submission_id, title, content, author, subreddit,
			created_utc, processed_at, sentiment, topics,
			engagement_score, utility_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Title, sub.Content, sub.Author, sub.Subreddit,
		sub.CreatedUTC, sub.ProcessedAt, sub.Sentiment, sub.Topics,
		sub.EngagementScore, sub.UtilityScore,
	)
	if err != nil {
		return fmt.Errorf("storage: save submission %q: %w", sub.ID, err)
	}
	return nil
}

// RecentSubmissions returns the most recently processed submissions for a
// subreddit, newest first.
func (s *Store) RecentSubmissions(subreddit string, limit int) ([]Submission, error) {
	rows, err := s.db.Query(
		`SELECT submission_id, title, content, author, subreddit,
		        created_utc, processed_at, sentiment, topics,
		        engagement_score, utility_score
		 FROM submissions WHERE subreddit = ?
		 ORDER BY processed_at DESC LIMIT ?`, subreddit, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent submissions for %q: %w", subreddit, err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		if err := rows.Scan(
			&sub.ID, &sub.Title, &sub.Content, &sub.Author, &sub.Subreddit,
			&sub.CreatedUTC, &sub.ProcessedAt, &sub.Sentiment, &sub.Topics,
			&sub.EngagementScore, &sub.UtilityScore,
		); err != nil {
			return nil, fmt.Errorf("storage: scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate submissions: %w", err)
	}
	return out, nil
}

// LoadState reads the persisted learning snapshot. ok is false when no
// weights have been saved yet (fresh database), in which case the caller
// starts from defaults.
func (s *Store) LoadState() (w utility.Weights, records map[string]memory.Record, ok bool, err error) {
	rows, err := s.db.Query(`SELECT name, weight FROM utility_weights`)
	if err != nil {
		return w, nil, false, fmt.Errorf("storage: load weights: %w", err)
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		var name string
		var weight float64
		if err := rows.Scan(&name, &weight); err != nil {
			return w, nil, false, fmt.Errorf("storage: scan weight: %w", err)
		}
		switch name {
		case "engagement":
			w.Engagement = weight
		case "sentiment":
			w.Sentiment = weight
		case "relevance":
			w.Relevance = weight
		case "novelty":
			w.Novelty = weight
		default:
			continue
		}
		found++
	}
	if err := rows.Err(); err != nil {
		return w, nil, false, fmt.Errorf("storage: iterate weights: %w", err)
	}
	if found == 0 {
		return w, nil, false, nil
	}

	records, err = s.loadPatternRecords()
	if err != nil {
		return w, nil, false, err
	}
	return w, records, true, nil
}

func (s *Store) loadPatternRecords() (map[string]memory.Record, error) {
	rows, err := s.db.Query(
		`SELECT signature, observation_count, mean_utility FROM pattern_records`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load pattern records: %w", err)
	}
	defer rows.Close()

	records := make(map[string]memory.Record)
	for rows.Next() {
		var sig string
		var r memory.Record
		if err := rows.Scan(&sig, &r.Count, &r.Mean); err != nil {
			return nil, fmt.Errorf("storage: scan pattern record: %w", err)
		}
		records[sig] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate pattern records: %w", err)
	}
	return records, nil
}

// SaveState writes the weight vector and all pattern records inside a single
// transaction, so a partial checkpoint can never be loaded.
func (s *Store) SaveState(w utility.Weights, records map[string]memory.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin save state: %w", err)
	}
	defer tx.Rollback()

	weights := map[string]float64{
		"engagement": w.Engagement,
		"sentiment":  w.Sentiment,
		"relevance":  w.Relevance,
		"novelty":    w.Novelty,
	}
	for name, weight := range weights {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO utility_weights (name, weight) VALUES (?, ?)`,
			name, weight,
		); err != nil {
			return fmt.Errorf("storage: save weight %q: %w", name, err)
		}
	}

	now := time.Now().Unix()
	for sig, r := range records {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO pattern_records (signature, observation_count, mean_utility, updated_at)
			 VALUES (?, ?, ?, ?)`,
			sig, r.Count, r.Mean, now,
		); err != nil {
			return fmt.Errorf("storage: save pattern record %q: %w", sig, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit save state: %w", err)
	}
	return nil
}
