package workflow

import (
	"context"
	"fmt"
	"time"

	"tstomkv/internal/encoding"
	"tstomkv/internal/history"
	"tstomkv/internal/services"
)

// Stage names used in logs, errors and the ledger.
const (
	stageList      = "list"
	stageCheckStop = "check_stop"
	stageMap       = "map"
	stageFetch     = "fetch"
	stageTranscode = "transcode"
	stageVerify    = "verify"
	stageCommit    = "commit"
)

// Transfer is the part of transfer.Channel a run needs.
type Transfer interface {
	Fetch(ctx context.Context, remote, local string) error
	Commit(ctx context.Context, local, remote string) error
	Remove(ctx context.Context, remote string) error
}

// Transcoder converts a staged recording.
type Transcoder interface {
	Run(ctx context.Context, req encoding.Request) (encoding.Outcome, error)
}

// Verifier checks a converted file against its source.
type Verifier interface {
	Duration(ctx context.Context, path string) (int, bool)
	Verify(ctx context.Context, original, converted string) (encoding.VerificationResult, error)
}

// Ledger records run and item outcomes.
type Ledger interface {
	StartRun(ctx context.Context, id string, total int, startedAt time.Time) error
	RecordItem(ctx context.Context, item history.Item) error
	FinishRun(ctx context.Context, run history.Run) error
}

// RunOptions tunes a single run.
type RunOptions struct {
	// Skip drops this many candidates from the head of the list.
	Skip int
}

// RunState is owned by the Manager for the duration of one run.
type RunState struct {
	RunID         string
	Index         int
	Total         int
	StopRequested bool
	StartedAt     time.Time

	recorded bool
}

// Summary reports what a run did.
type Summary struct {
	RunID     string
	Listed    int
	Total     int
	Committed int
	Skipped   int
	Failed    int
	Stopped   bool
	Duration  time.Duration
}

// ItemError ties a fatal error to the item and stage it came from.
type ItemError struct {
	Index int
	Total int
	Path  string
	Stage string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s [%d/%d] %s: %v", services.Kind(e.Err), e.Index, e.Total, e.Path, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// itemResult carries per-item facts to the ledger and notifications.
type itemResult struct {
	commitPath    string
	sourceSeconds int
	outputSeconds int
	sourceBytes   int64
	outputBytes   int64
	transcode     time.Duration
	skipped       bool
}
