package progress

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

const (
	// maxLogEntries bounds each operation's activity log; oldest entries are
	// dropped first.
	maxLogEntries = 200

	// removalGrace is how long a terminal record stays pollable before it is
	// removed from the tracker.
	removalGrace = 30 * time.Second
)

// protectedFields cannot be overwritten through Update's extra fields.
var protectedFields = map[string]struct{}{
	"progress":   {},
	"status":     {},
	"message":    {},
	"id":         {},
	"kind":       {},
	"start_time": {},
}

// Broadcaster receives a copy of every tracker mutation. Implementations must
// not block; publishing is best-effort and failures are the implementation's
// problem to log.
type Broadcaster interface {
	Publish(op Operation)
}

// Tracker is the authoritative in-memory registry of operation records. All
// mutators are best-effort: updating an id that has already been removed is a
// no-op, which tolerates scheduling races between a finishing unit of work and
// the delayed removal timer.
type Tracker struct {
	mu        sync.RWMutex
	ops       map[string]*Operation
	logger    *slog.Logger
	broadcast Broadcaster

	// now and after are swappable for tests.
	now   func() time.Time
	after func(d time.Duration, fn func()) *time.Timer
}

// NewTracker creates an empty tracker. broadcast may be nil.
func NewTracker(logger *slog.Logger, broadcast Broadcaster) *Tracker {
	return &Tracker{
		ops:       make(map[string]*Operation),
		logger:    logger,
		broadcast: broadcast,
		now:       time.Now,
		after:     time.AfterFunc,
	}
}

// Start creates the record for a new operation. It must complete before the
// background unit of work is scheduled, so a caller polling immediately after
// receiving the id never sees "not found".
func (t *Tracker) Start(id string, kind Kind, extra map[string]any) {
	t.mu.Lock()
	op := &Operation{
		ID:        id,
		Kind:      kind,
		Status:    StatusInitializing,
		Progress:  0,
		StartedAt: t.now(),
		Extra:     mergeExtra(nil, extra),
	}
	op.Log = appendLog(nil, LogEntry{
		Timestamp: op.StartedAt,
		Message:   "operation started",
		Status:    StatusInitializing,
	})
	t.ops[id] = op
	snapshot := cloneOperation(op)
	t.mu.Unlock()

	t.publish(snapshot)
	t.logger.Info("operation started",
		slog.String("operation_id", id),
		slog.String("kind", string(kind)))
}

// Update records new status, progress, and message for an operation.
//
// Progress is clamped to [0,100]. A value below the stored progress is
// suppressed (status, message and extras still apply) so the reported number
// never goes backwards, whatever the caller supplies. Updates on terminal or
// removed records are no-ops.
func (t *Tracker) Update(id string, status Status, prog int, message string, extra map[string]any) {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok || op.Status.IsTerminal() {
		t.mu.Unlock()
		return
	}

	if prog < 0 {
		prog = 0
	} else if prog > 100 {
		prog = 100
	}
	if prog < op.Progress {
		t.logger.Debug("progress regression suppressed",
			slog.String("operation_id", id),
			slog.Int("stored", op.Progress),
			slog.Int("supplied", prog))
		prog = op.Progress
	}

	op.Status = status
	op.Progress = prog
	op.Message = message
	op.Extra = mergeExtra(op.Extra, extra)
	op.Log = appendLog(op.Log, LogEntry{
		Timestamp: t.now(),
		Message:   message,
		Status:    status,
		Progress:  prog,
	})
	snapshot := cloneOperation(op)
	t.mu.Unlock()

	t.publish(snapshot)
}

// Complete marks an operation as successfully finished. Completion always
// wins: progress is forced to 100 regardless of the stored value.
func (t *Tracker) Complete(id string, result map[string]any) {
	t.finish(id, StatusCompleted, func(op *Operation) {
		op.Progress = 100
		op.Result = mergeExtra(op.Result, result)
		op.Message = "operation completed"
	})
}

// Fail marks an operation as failed. Progress stays frozen at its last value
// so pollers never observe a regression, even on failure.
func (t *Tracker) Fail(id, message, detail string) {
	t.finish(id, StatusError, func(op *Operation) {
		op.Message = message
		op.Error = &OperationError{Message: message, Detail: detail}
	})
}

// Cancel marks an operation as cancelled, progress frozen. Cancellation is a
// non-error terminal path.
func (t *Tracker) Cancel(id string) {
	t.finish(id, StatusCancelled, func(op *Operation) {
		op.Message = "operation cancelled"
	})
}

func (t *Tracker) finish(id string, status Status, apply func(*Operation)) {
	t.mu.Lock()
	op, ok := t.ops[id]
	if !ok || op.Status.IsTerminal() {
		t.mu.Unlock()
		return
	}

	op.Status = status
	apply(op)
	ended := t.now()
	op.EndedAt = &ended
	op.DurationSecs = ended.Sub(op.StartedAt).Seconds()
	op.Log = appendLog(op.Log, LogEntry{
		Timestamp: ended,
		Message:   op.Message,
		Status:    status,
		Progress:  op.Progress,
	})
	snapshot := cloneOperation(op)
	t.mu.Unlock()

	t.publish(snapshot)
	t.scheduleRemoval(id, op)
}

// scheduleRemoval deletes the record after the grace period. The timer
// re-checks that the id still maps to the same, still-terminal record, so a
// reused id is never deleted by a stale timer from an earlier run.
func (t *Tracker) scheduleRemoval(id string, op *Operation) {
	t.after(removalGrace, func() {
		t.mu.Lock()
		current, ok := t.ops[id]
		if ok && current == op && current.Status.IsTerminal() {
			delete(t.ops, id)
		}
		t.mu.Unlock()
	})
}

// Get returns a copy of the operation record, or false if unknown.
func (t *Tracker) Get(id string) (Operation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	op, ok := t.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *cloneOperation(op), true
}

// List returns copies of all tracked operations, most recent first.
func (t *Tracker) List() []Operation {
	t.mu.RLock()
	out := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, *cloneOperation(op))
	}
	t.mu.RUnlock()

	sortOperations(out)
	return out
}

func (t *Tracker) publish(op *Operation) {
	if t.broadcast != nil {
		t.broadcast.Publish(*op)
	}
}

// mergeExtra merges src into dst, skipping protected keys. Malformed input is
// tolerated, never fatal.
func mergeExtra(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		if _, protected := protectedFields[k]; protected {
			continue
		}
		dst[k] = v
	}
	return dst
}

func appendLog(log []LogEntry, entry LogEntry) []LogEntry {
	log = append(log, entry)
	if len(log) > maxLogEntries {
		log = log[len(log)-maxLogEntries:]
	}
	return log
}

func cloneOperation(op *Operation) *Operation {
	out := *op
	out.Log = append([]LogEntry(nil), op.Log...)
	if op.Extra != nil {
		out.Extra = make(map[string]any, len(op.Extra))
		for k, v := range op.Extra {
			out.Extra[k] = v
		}
	}
	if op.Result != nil {
		out.Result = make(map[string]any, len(op.Result))
		for k, v := range op.Result {
			out.Result[k] = v
		}
	}
	if op.Error != nil {
		e := *op.Error
		out.Error = &e
	}
	return &out
}

func sortOperations(ops []Operation) {
	slices.SortFunc(ops, func(a, b Operation) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
}
