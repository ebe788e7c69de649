package progress

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTracker returns a tracker whose removal timers are captured instead
// of scheduled, so tests fire them deterministically.
func newTestTracker() (*Tracker, *[]func()) {
	t := NewTracker(testLogger(), nil)
	timers := &[]func(){}
	t.after = func(d time.Duration, fn func()) *time.Timer {
		*timers = append(*timers, fn)
		return nil
	}
	return t, timers
}

func TestTrackerProgressNeverRegresses(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindUpload, nil)

	tr.Update("op1", StatusStoring, 60, "storing", nil)
	tr.Update("op1", StatusStoring, 40, "late update", nil)

	op, ok := tr.Get("op1")
	if !ok {
		t.Fatal("operation not found")
	}
	if op.Progress != 60 {
		t.Errorf("progress = %d, want 60", op.Progress)
	}
	// The rest of the late update still applies.
	if op.Message != "late update" {
		t.Errorf("message = %q, want %q", op.Message, "late update")
	}
}

func TestTrackerClampsProgress(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindUpload, nil)

	tr.Update("op1", StatusReading, 150, "over", nil)
	if op, _ := tr.Get("op1"); op.Progress != 100 {
		t.Errorf("progress = %d, want 100", op.Progress)
	}

	tr.Start("op2", KindUpload, nil)
	tr.Update("op2", StatusReading, -5, "under", nil)
	if op, _ := tr.Get("op2"); op.Progress != 0 {
		t.Errorf("progress = %d, want 0", op.Progress)
	}
}

func TestTrackerFreezesOnTerminal(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindCrawl, nil)
	tr.Update("op1", StatusCrawling, 20, "crawling", nil)
	tr.Fail("op1", "boom", "detail")

	tr.Update("op1", StatusStoring, 90, "should not apply", nil)
	tr.Complete("op1", nil)
	tr.Cancel("op1")

	op, _ := tr.Get("op1")
	if op.Status != StatusError {
		t.Errorf("status = %s, want error", op.Status)
	}
	if op.Progress != 20 {
		t.Errorf("progress = %d, want frozen 20", op.Progress)
	}
	if op.Error == nil || op.Error.Message != "boom" {
		t.Errorf("error = %+v, want message boom", op.Error)
	}
}

func TestTrackerCompletionWins(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindUpload, nil)
	tr.Update("op1", StatusStoring, 73, "storing", nil)
	tr.Complete("op1", map[string]any{"chunks_stored": 12})

	op, _ := tr.Get("op1")
	if op.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", op.Status)
	}
	if op.Progress != 100 {
		t.Errorf("progress = %d, want 100", op.Progress)
	}
	if op.Result["chunks_stored"] != 12 {
		t.Errorf("result = %v, want chunks_stored 12", op.Result)
	}
	if op.EndedAt == nil {
		t.Error("ended_at not set")
	}
}

func TestTrackerCancelFreezesProgress(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindCrawl, nil)
	tr.Update("op1", StatusCrawling, 15, "crawling", nil)
	tr.Cancel("op1")

	op, _ := tr.Get("op1")
	if op.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", op.Status)
	}
	if op.Progress != 15 {
		t.Errorf("progress = %d, want frozen 15", op.Progress)
	}
}

func TestTrackerDelayedRemoval(t *testing.T) {
	tr, timers := newTestTracker()
	tr.Start("op1", KindUpload, nil)
	tr.Complete("op1", nil)

	// Still pollable until the grace timer fires.
	if _, ok := tr.Get("op1"); !ok {
		t.Fatal("operation removed before grace period")
	}
	if len(*timers) != 1 {
		t.Fatalf("captured %d timers, want 1", len(*timers))
	}
	(*timers)[0]()

	if _, ok := tr.Get("op1"); ok {
		t.Error("operation still present after removal timer fired")
	}
}

func TestTrackerStaleTimerSparesReusedID(t *testing.T) {
	tr, timers := newTestTracker()
	tr.Start("op1", KindUpload, nil)
	tr.Complete("op1", nil)

	// A new operation reuses the id before the old timer fires.
	tr.Start("op1", KindUpload, nil)
	(*timers)[0]()

	op, ok := tr.Get("op1")
	if !ok {
		t.Fatal("reused operation removed by stale timer")
	}
	if op.Status != StatusInitializing {
		t.Errorf("status = %s, want initializing", op.Status)
	}
}

func TestTrackerProtectedExtraFields(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindUpload, nil)

	tr.Update("op1", StatusReading, 3, "reading", map[string]any{
		"progress": 999,
		"status":   "completed",
		"id":       "other",
		"filename": "doc.pdf",
	})

	op, _ := tr.Get("op1")
	if op.Progress != 3 {
		t.Errorf("progress = %d, want 3", op.Progress)
	}
	if op.Status != StatusReading {
		t.Errorf("status = %s, want reading", op.Status)
	}
	if _, ok := op.Extra["progress"]; ok {
		t.Error("protected key progress leaked into extra")
	}
	if op.Extra["filename"] != "doc.pdf" {
		t.Errorf("extra filename = %v, want doc.pdf", op.Extra["filename"])
	}
}

func TestTrackerLogRing(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindUpload, nil)

	for i := 0; i < 300; i++ {
		tr.Update("op1", StatusStoring, 50, "tick", nil)
	}

	op, _ := tr.Get("op1")
	if len(op.Log) != maxLogEntries {
		t.Errorf("log length = %d, want %d", len(op.Log), maxLogEntries)
	}
	// Oldest entries (including the start entry) were dropped.
	if op.Log[0].Message != "tick" {
		t.Errorf("oldest entry = %q, want tick", op.Log[0].Message)
	}
}

func TestTrackerListNewestFirst(t *testing.T) {
	tr, _ := newTestTracker()
	base := time.Now()
	clock := base
	tr.now = func() time.Time { return clock }

	tr.Start("old", KindUpload, nil)
	clock = base.Add(time.Minute)
	tr.Start("new", KindCrawl, nil)

	ops := tr.List()
	if len(ops) != 2 {
		t.Fatalf("len = %d, want 2", len(ops))
	}
	if ops[0].ID != "new" || ops[1].ID != "old" {
		t.Errorf("order = [%s %s], want [new old]", ops[0].ID, ops[1].ID)
	}
}

func TestTrackerSnapshotsAreCopies(t *testing.T) {
	tr, _ := newTestTracker()
	tr.Start("op1", KindUpload, map[string]any{"filename": "a.txt"})

	op, _ := tr.Get("op1")
	op.Extra["filename"] = "mutated"
	op.Log[0].Message = "mutated"

	fresh, _ := tr.Get("op1")
	if fresh.Extra["filename"] != "a.txt" {
		t.Errorf("extra mutated through snapshot: %v", fresh.Extra["filename"])
	}
	if fresh.Log[0].Message == "mutated" {
		t.Error("log mutated through snapshot")
	}
}
