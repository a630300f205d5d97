package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncRun records one document operation for the history view.
type SyncRun struct {
	ID         string    `json:"id"`
	DocToken   string    `json:"docToken"`
	Action     string    `json:"action"`
	Blocks     int       `json:"blocks"`
	Batches    int       `json:"batches"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RunStore persists sync runs in SQLite.
type RunStore struct {
	db *DB
}

func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Record(run *SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.Conn().Exec(
		`INSERT INTO sync_runs (id, doc_token, action, blocks, batches, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DocToken, run.Action, run.Blocks, run.Batches, run.Status, run.Error, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. An empty docToken
// matches every document.
func (s *RunStore) List(docToken string, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, doc_token, action, blocks, batches, status, error, started_at, finished_at
		 FROM sync_runs`
	args := []any{}
	if docToken != "" {
		query += ` WHERE doc_token = ?`
		args = append(args, docToken)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var r SyncRun
		if err := rows.Scan(&r.ID, &r.DocToken, &r.Action, &r.Blocks, &r.Batches, &r.Status, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
