package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunStatus is the final state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunStopped   RunStatus = "stopped"
	RunFailed    RunStatus = "failed"
)

// Outcome is what happened to one item.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       RunStatus
	Total        int
	Committed    int
	Skipped      int
	ErrorKind    string
	ErrorMessage string
}

// Item is the ledger entry for one work item.
type Item struct {
	ID                int64
	RunID             string
	Position          int
	RemotePath        string
	CommitPath        string
	Title             string
	Outcome           Outcome
	ErrorKind         string
	ErrorMessage      string
	SourceSeconds     int
	OutputSeconds     int
	SourceBytes       int64
	OutputBytes       int64
	TranscodeDuration time.Duration
	RecordedAt        time.Time
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StartRun records a new run in the running state.
func (s *Store) StartRun(ctx context.Context, id string, total int, startedAt time.Time) error {
	err := s.exec(ctx,
		`INSERT INTO runs (id, started_at, status, total) VALUES (?, ?, ?, ?)`,
		id, startedAt.UTC().Format(timeLayout), string(RunRunning), total)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final state and counters of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	finished := run.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, committed = ?, skipped = ?, error_kind = ?, error_message = ? WHERE id = ?`,
		finished.UTC().Format(timeLayout), string(run.Status), run.Committed, run.Skipped,
		nullString(run.ErrorKind), nullString(run.ErrorMessage), run.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordItem appends an item outcome.
func (s *Store) RecordItem(ctx context.Context, item Item) error {
	recorded := item.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO items (run_id, position, remote_path, commit_path, title, outcome, error_kind, error_message,
			source_seconds, output_seconds, source_bytes, output_bytes, transcode_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.RunID, item.Position, item.RemotePath, nullString(item.CommitPath), nullString(item.Title),
		string(item.Outcome), nullString(item.ErrorKind), nullString(item.ErrorMessage),
		item.SourceSeconds, item.OutputSeconds, item.SourceBytes, item.OutputBytes,
		item.TranscodeDuration.Milliseconds(), recorded.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// RecentItems returns up to limit items, newest first.
func (s *Store) RecentItems(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, position, remote_path, commit_path, title, outcome, error_kind, error_message,
			source_seconds, output_seconds, source_bytes, output_bytes, transcode_ms, recorded_at
		 FROM items ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item                               Item
			commitPath, title, errKind, errMsg sql.NullString
			outcome, recordedAt                string
			transcodeMS                        int64
		)
		if err := rows.Scan(&item.ID, &item.RunID, &item.Position, &item.RemotePath, &commitPath, &title,
			&outcome, &errKind, &errMsg, &item.SourceSeconds, &item.OutputSeconds, &item.SourceBytes,
			&item.OutputBytes, &transcodeMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.CommitPath = commitPath.String
		item.Title = title.String
		item.Outcome = Outcome(outcome)
		item.ErrorKind = errKind.String
		item.ErrorMessage = errMsg.String
		item.TranscodeDuration = time.Duration(transcodeMS) * time.Millisecond
		item.RecordedAt = parseTime(recordedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, total, committed, skipped, error_kind, error_message
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                         Run
			startedAt, status           string
			finishedAt, errKind, errMsg sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &status, &run.Total, &run.Committed,
			&run.Skipped, &errKind, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(startedAt)
		run.FinishedAt = parseTime(finishedAt.String)
		run.Status = RunStatus(status)
		run.ErrorKind = errKind.String
		run.ErrorMessage = errMsg.String
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
