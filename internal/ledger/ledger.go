// Package ledger implements the kernel's durable, append-semantic
// record of task lifecycle events, with Phoenix fallback to an
// in-memory store when the configured storage path is unusable.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mplewis/agentkernel/internal/observability"
	"github.com/mplewis/agentkernel/pkg/models"
)

// Status values recorded for a task lifecycle event. Ordering is
// total: Started precedes Completed/Failed, and an upsert on task id
// means the latest terminal status always wins.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS task_history (
	task_id TEXT PRIMARY KEY,
	agent_id TEXT NOT NULL,
	input_payload TEXT NOT NULL,
	output_result TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	timestamp TEXT NOT NULL
)`

// Record is one row of the task_history table, deserialized.
type Record struct {
	TaskID        string `json:"task_id"`
	AgentID       string `json:"agent_id"`
	InputPayload  any    `json:"input_payload"`
	OutputResult  any    `json:"output_result"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	Timestamp     string `json:"timestamp"`
}

// Statistics is the aggregate view returned by GetStatistics.
type Statistics struct {
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"by_status"`
	AgentIDs    []string       `json:"agent_ids"`
}

// Ledger is the durable lifecycle store. It is constructed with a file
// path; if the underlying storage cannot be opened, it transparently
// degrades to an in-memory SQLite database (Phoenix mode) and the
// contract continues to hold, minus cross-process durability.
type Ledger struct {
	db     *sql.DB
	path   string
	phoenix bool
	log    *observability.Logger
}

// Open constructs a Ledger against path, falling back to an in-memory
// store on any failure to open or sanity-check the configured path.
func Open(path string, log *observability.Logger) (*Ledger, error) {
	if log == nil {
		log = observability.NewNop()
	}
	l := &Ledger{path: path, log: log}

	db, err := sql.Open("sqlite", path)
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		log.LogPhoenixFallback(path, err)
		if db != nil {
			db.Close()
		}
		db, err = sql.Open("sqlite", ":memory:")
		if err != nil {
			return nil, fmt.Errorf("phoenix fallback: open in-memory store: %w", err)
		}
		l.path = ":memory:"
		l.phoenix = true
	}

	db.SetMaxOpenConns(1) // single-writer semantics
	if _, err := db.Exec(schemaDDL); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
		return nil, fmt.Errorf("set schema version: %w", err)
	}
	l.db = db
	return l, nil
}

// Path reports the database path actually in effect — ":memory:" after
// a Phoenix fallback, regardless of what was originally requested.
func (l *Ledger) Path() string {
	return l.path
}

// Phoenix reports whether this ledger degraded to the in-memory
// fallback store at construction time.
func (l *Ledger) Phoenix() bool {
	return l.phoenix
}

// Close releases the underlying storage handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// nowISO formats the current UTC time as RFC 3339 with a fixed-width
// nanosecond fraction, so the stored text sorts in time order.
func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}

// RecordStart writes a "started" row for task, upserting on task id.
// Safe to call more than once. Never returns an error to the caller
// that would cause a double-fault during other error handling; write
// failures are logged and swallowed.
func (l *Ledger) RecordStart(task *models.Task) {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		payload, _ = json.Marshal(fmt.Sprintf("%v", task.Payload))
	}
	_, err = l.db.Exec(
		`INSERT OR REPLACE INTO task_history (task_id, agent_id, input_payload, output_result, status, error_message, timestamp)
		 VALUES (?, ?, ?, NULL, ?, NULL, ?)`,
		task.ID, task.AgentID, string(payload), StatusStarted, nowISO(),
	)
	if err != nil {
		l.log.Base().Warn("ledger record_start failed", "task_id", task.ID, "error", err)
	}
}

// RecordCompletion writes a "completed" row for task with the
// serialized result. If result cannot be serialized through the
// canonical JSON format, the string form is recorded as a fallback; it
// never raises.
func (l *Ledger) RecordCompletion(task *models.Task, result any) {
	serialized, err := json.Marshal(result)
	if err != nil {
		serialized, _ = json.Marshal(fmt.Sprintf("%v", result))
	}
	inputPayload, err := json.Marshal(task.Payload)
	if err != nil {
		inputPayload, _ = json.Marshal(fmt.Sprintf("%v", task.Payload))
	}
	_, err = l.db.Exec(
		`INSERT OR REPLACE INTO task_history (task_id, agent_id, input_payload, output_result, status, error_message, timestamp)
		 VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		task.ID, task.AgentID, string(inputPayload), string(serialized), StatusCompleted, nowISO(),
	)
	if err != nil {
		l.log.Base().Warn("ledger record_completion failed", "task_id", task.ID, "error", err)
	}
}

// RecordFailure writes a "failed" row for task with errorText.
func (l *Ledger) RecordFailure(task *models.Task, errorText string) {
	inputPayload, err := json.Marshal(task.Payload)
	if err != nil {
		inputPayload, _ = json.Marshal(fmt.Sprintf("%v", task.Payload))
	}
	_, err = l.db.Exec(
		`INSERT OR REPLACE INTO task_history (task_id, agent_id, input_payload, output_result, status, error_message, timestamp)
		 VALUES (?, ?, ?, NULL, ?, ?, ?)`,
		task.ID, task.AgentID, string(inputPayload), StatusFailed, errorText, nowISO(),
	)
	if err != nil {
		l.log.Base().Warn("ledger record_failure failed", "task_id", task.ID, "error", err)
	}
}

func scanRecord(row interface {
	Scan(dest ...any) error
}) (*Record, error) {
	var (
		rec          Record
		inputRaw     string
		outputRaw    sql.NullString
		errorMessage sql.NullString
	)
	if err := row.Scan(&rec.TaskID, &rec.AgentID, &inputRaw, &outputRaw, &rec.Status, &errorMessage, &rec.Timestamp); err != nil {
		return nil, err
	}
	rec.ErrorMessage = errorMessage.String

	if err := json.Unmarshal([]byte(inputRaw), &rec.InputPayload); err != nil {
		rec.InputPayload = inputRaw
	}
	if outputRaw.Valid {
		if err := json.Unmarshal([]byte(outputRaw.String), &rec.OutputResult); err != nil {
			rec.OutputResult = outputRaw.String
		}
	}
	return &rec, nil
}

// GetTask returns the latest record for taskID, or (nil, false) if no
// record exists — never an error for a missing id.
func (l *Ledger) GetTask(taskID string) (*Record, bool) {
	row := l.db.QueryRow(
		`SELECT task_id, agent_id, input_payload, output_result, status, error_message, timestamp
		 FROM task_history WHERE task_id = ?`, taskID)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, false
	}
	return rec, true
}

// HistoryFilter narrows GetHistory's result set.
type HistoryFilter struct {
	Limit   int
	Status  string
	AgentID string
}

// GetHistory returns the most-recent-first, bounded view of
// task_history matching the optional status/agent_id filters.
func (l *Ledger) GetHistory(filter HistoryFilter) []*Record {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT task_id, agent_id, input_payload, output_result, status, error_message, timestamp FROM task_history WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.AgentID != "" {
		query += " AND agent_id = ?"
		args = append(args, filter.AgentID)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		l.log.Base().Warn("ledger get_history failed", "error", err)
		return nil
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// GetStatistics returns aggregate counts by status and the set of
// distinct agent ids observed in the ledger.
func (l *Ledger) GetStatistics() Statistics {
	stats := Statistics{ByStatus: map[string]int{}}

	rows, err := l.db.Query(`SELECT status, COUNT(*) FROM task_history GROUP BY status`)
	if err != nil {
		l.log.Base().Warn("ledger get_statistics failed", "error", err)
		return stats
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	rows.Close()

	agentRows, err := l.db.Query(`SELECT DISTINCT agent_id FROM task_history`)
	if err != nil {
		return stats
	}
	defer agentRows.Close()
	for agentRows.Next() {
		var agentID string
		if err := agentRows.Scan(&agentID); err != nil {
			continue
		}
		stats.AgentIDs = append(stats.AgentIDs, agentID)
	}
	return stats
}
