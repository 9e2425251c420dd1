// Package audit keeps a SQLite log of every decision with the report that
// produced it, so a verdict can be traced back to its inputs.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/policygate/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS decision_log (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id      TEXT NOT NULL UNIQUE,
    question        TEXT NOT NULL,
    status          TEXT NOT NULL,
    reasons_json    TEXT NOT NULL,
    assessment_json TEXT NOT NULL,
    report_json     TEXT NOT NULL,
    created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decision_log_status ON decision_log(status);
`

// Entry is one logged decision
type Entry struct {
	RequestID  string
	Question   string
	Status     model.DecisionStatus
	Reasons    []string
	Assessment model.Assessment
	Report     json.RawMessage
	CreatedAt  time.Time
}

// Store manages the decision_log table
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	// One connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	store, err := NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore creates the table on db and returns a Store
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends the report's decision; a request id can only be logged once
func (s *Store) Record(report *model.Report) error {
	reasons, err := json.Marshal(nonNil(report.Decision.Reasons))
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}
	assessment, err := json.Marshal(report.Decision.Assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	full, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	createdAt := report.AskedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.Exec(
		`INSERT INTO decision_log (request_id, question, status, reasons_json, assessment_json, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RequestID, report.Question, string(report.Decision.Status),
		string(reasons), string(assessment), string(full),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record decision %s: %w", report.RequestID, err)
	}
	return nil
}

// Recent returns up to n entries, newest first
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT request_id, question, status, reasons_json, assessment_json, report_json, created_at
		 FROM decision_log
		 ORDER BY id DESC
		 LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, reasons, assessment, report, createdAt string
		if err := rows.Scan(&e.RequestID, &e.Question, &status, &reasons, &assessment, &report, &createdAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		e.Status = model.DecisionStatus(status)
		if err := json.Unmarshal([]byte(reasons), &e.Reasons); err != nil {
			return nil, fmt.Errorf("decode reasons for %s: %w", e.RequestID, err)
		}
		if err := json.Unmarshal([]byte(assessment), &e.Assessment); err != nil {
			return nil, fmt.Errorf("decode assessment for %s: %w", e.RequestID, err)
		}
		e.Report = json.RawMessage(report)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of logged decisions per status
func (s *Store) Counts() (map[model.DecisionStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM decision_log GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.DecisionStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[model.DecisionStatus(status)] = n
	}
	return counts, rows.Err()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
