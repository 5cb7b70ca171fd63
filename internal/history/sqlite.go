package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/mattn/go-sqlite3"

	"github.com/daqi-oss/intentd/internal/model"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS command_history (
	signature TEXT PRIMARY KEY,
	input TEXT NOT NULL,
	intents_summary TEXT NOT NULL,
	overall_status TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	plan_size INTEGER NOT NULL,
	explain_used INTEGER NOT NULL
);`

// SQLiteStore is a durable Store backed by a single-file SQLite database,
// upserting by signature so replaying an identical plan overwrites its
// prior record instead of accumulating duplicates.
type SQLiteStore struct {
	mu          sync.Mutex
	db          *sql.DB
	retentionMs int64
	now         func() time.Time
}

// NewSQLiteStore opens (creating if absent) the database at path and
// ensures its schema exists.
func NewSQLiteStore(path string, retentionDays int) (*SQLiteStore, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}

	// A fresh WAL-mode file can briefly fail its first ping under
	// concurrent open attempts (e.g. two processes racing to create it);
	// retry with backoff rather than failing startup outright.
	if _, err := backoff.Retry(context.Background(), func() (struct{}, error) {
		return struct{}{}, db.Ping()
	}, backoff.WithMaxTries(5), backoff.WithBackOff(backoff.NewExponentialBackOff())); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}
	return &SQLiteStore{
		db:          db,
		retentionMs: int64(retentionDays) * 24 * 60 * 60 * 1000,
		now:         time.Now,
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) purge(cutoffMs int64) (int, error) {
	res, err := s.db.Exec(`DELETE FROM command_history WHERE created_at < ?`, cutoffMs)
	if err != nil {
		return 0, fmt.Errorf("history: purge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: purge rows affected: %w", err)
	}
	return int(affected), nil
}

// Save purges expired rows relative to record's timestamp, then inserts
// or replaces the row keyed by signature.
func (s *SQLiteStore) Save(record model.CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.CreatedAt == 0 {
		record.CreatedAt = s.now().UnixMilli()
	}
	if _, err := s.purge(record.CreatedAt - s.retentionMs); err != nil {
		return err
	}

	summaryJSON, err := json.Marshal(record.IntentsSummary)
	if err != nil {
		return fmt.Errorf("history: marshal intents summary: %w", err)
	}

	explainUsed := 0
	if record.ExplainUsed {
		explainUsed = 1
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO command_history
			(signature, input, intents_summary, overall_status, created_at, plan_size, explain_used)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Signature, record.Input, string(summaryJSON), string(record.OverallStatus),
		record.CreatedAt, record.PlanSize, explainUsed,
	)
	if err != nil {
		return fmt.Errorf("history: save: %w", err)
	}
	return nil
}

// List returns up to limit records in reverse-chronological order,
// optionally constrained to created_at strictly after the cursor.
func (s *SQLiteStore) List(limit int, after int64, hasAfter bool) ([]model.CommandHistoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	const baseQuery = `SELECT signature, input, intents_summary, overall_status, created_at, plan_size, explain_used
		FROM command_history`

	var rows *sql.Rows
	var err error
	if hasAfter {
		rows, err = s.db.Query(baseQuery+` WHERE created_at > ? ORDER BY created_at DESC LIMIT ?`, after, limit)
	} else {
		rows, err = s.db.Query(baseQuery+` ORDER BY created_at DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []model.CommandHistoryRecord
	for rows.Next() {
		var rec model.CommandHistoryRecord
		var summaryJSON string
		var overallStatus string
		var explainUsed int
		if err := rows.Scan(&rec.Signature, &rec.Input, &summaryJSON, &overallStatus,
			&rec.CreatedAt, &rec.PlanSize, &explainUsed); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		_ = json.Unmarshal([]byte(summaryJSON), &rec.IntentsSummary)
		rec.OverallStatus = model.OverallStatus(overallStatus)
		rec.ExplainUsed = explainUsed == 1
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PurgeOlderThan removes every row with created_at strictly before
// cutoffMs.
func (s *SQLiteStore) PurgeOlderThan(cutoffMs int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(cutoffMs)
}
