// internal/history/db.go

// Package history persists phrase parse outcomes to SQLite so that
// operators can audit which rule phrases compiled cleanly and which
// were rejected, long after the log lines have rotated away.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome values recorded for a phrase.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
)

// Kind values recorded for a phrase.
const (
	KindTrigger   = "trigger"
	KindCondition = "condition"
)

// ParseRecord is one phrase parse outcome.
type ParseRecord struct {
	ID          int64
	RuleName    string
	Phrase      string
	PhraseKind  string // trigger or condition
	Outcome     string // ok or invalid
	ErrorKind   string // failure classification, empty on success
	Detail      string // human-readable failure detail, empty on success
	Descriptors int    // number of descriptors the phrase produced
	RecordedAt  time.Time
}

// DB wraps the SQLite connection for parse history.
type DB struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS parse_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    rule_name TEXT NOT NULL,
    phrase TEXT NOT NULL,
    phrase_kind TEXT NOT NULL,
    outcome TEXT NOT NULL,
    error_kind TEXT,
    detail TEXT,
    descriptors INTEGER NOT NULL DEFAULT 0,
    recorded_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parse_history_rule ON parse_history(rule_name);
CREATE INDEX IF NOT EXISTS idx_parse_history_outcome ON parse_history(outcome);
CREATE INDEX IF NOT EXISTS idx_parse_history_recorded ON parse_history(recorded_at);
`

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to history database: %w", err)
	}

	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	// Insert schema version if this is a fresh database
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("checking schema version: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
			db.Close()
			return nil, fmt.Errorf("writing schema version: %w", err)
		}
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Record inserts a parse outcome and returns its row ID. A zero
// RecordedAt is filled with the current time.
func (d *DB) Record(rec ParseRecord) (int64, error) {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	result, err := d.db.Exec(`
		INSERT INTO parse_history
			(rule_name, phrase, phrase_kind, outcome, error_kind, detail, descriptors, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RuleName, rec.Phrase, rec.PhraseKind, rec.Outcome,
		nullable(rec.ErrorKind), nullable(rec.Detail), rec.Descriptors, rec.RecordedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording parse outcome: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting record id: %w", err)
	}
	return id, nil
}

// GetHistory returns parse records, newest first, optionally filtered
// by rule name and outcome. A limit <= 0 defaults to 100.
func (d *DB) GetHistory(ruleName, outcome string, limit int) ([]ParseRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, rule_name, phrase, phrase_kind, outcome, error_kind, detail, descriptors, recorded_at
		FROM parse_history WHERE 1=1`
	var args []interface{}

	if ruleName != "" {
		query += " AND rule_name = ?"
		args = append(args, ruleName)
	}
	if outcome != "" {
		query += " AND outcome = ?"
		args = append(args, outcome)
	}
	query += " ORDER BY recorded_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying parse history: %w", err)
	}
	defer rows.Close()

	var records []ParseRecord
	for rows.Next() {
		var rec ParseRecord
		var errorKind, detail sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.RuleName, &rec.Phrase, &rec.PhraseKind, &rec.Outcome,
			&errorKind, &detail, &rec.Descriptors, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning parse record: %w", err)
		}
		rec.ErrorKind = errorKind.String
		rec.Detail = detail.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LastOutcome returns the most recent outcome recorded for a rule, or
// an empty string if the rule has no history.
func (d *DB) LastOutcome(ruleName string) (string, error) {
	var outcome string
	err := d.db.QueryRow(`
		SELECT outcome FROM parse_history
		WHERE rule_name = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		ruleName,
	).Scan(&outcome)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying last outcome: %w", err)
	}
	return outcome, nil
}

// Cleanup deletes records older than retentionDays and returns how
// many rows were removed.
func (d *DB) Cleanup(retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	result, err := d.db.Exec("DELETE FROM parse_history WHERE recorded_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up parse history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted records: %w", err)
	}
	return deleted, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
