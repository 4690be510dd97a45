package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// mockDestination records writes for scheduler tests.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	if d.err != nil {
		return d.err
	}
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsInitialSnapshot(t *testing.T) {
	ms := seedStore(t)
	dest := &mockDestination{}

	sched := NewScheduler(ms, []Destination{dest}, time.Hour, quietLogger())
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for dest.writes.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no snapshot written within deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}

	data, _ := dest.last.Load().([]byte)
	lines := nonEmptyLines(data)
	if len(lines) != 6 {
		t.Errorf("snapshot has %d lines, want 6", len(lines))
	}
}

func TestScheduler_TicksRepeat(t *testing.T) {
	ms := seedStore(t)
	dest := &mockDestination{}

	sched := NewScheduler(ms, []Destination{dest}, 20*time.Millisecond, quietLogger())
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for dest.writes.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d snapshots within deadline", dest.writes.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_DestinationErrorDoesNotStopOthers(t *testing.T) {
	ms := seedStore(t)
	failing := &mockDestination{err: errors.New("bucket unavailable")}
	working := &mockDestination{}

	sched := NewScheduler(ms, []Destination{failing, working}, time.Hour, quietLogger())
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for working.writes.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("second destination never written despite first failing")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_StopIsIdempotentAndClean(t *testing.T) {
	ms := seedStore(t)
	dest := &mockDestination{}

	sched := NewScheduler(ms, []Destination{dest}, time.Hour, quietLogger())
	sched.Start()
	sched.Stop()
	sched.Stop() // second stop must not panic or hang

	before := dest.writes.Load()
	time.Sleep(50 * time.Millisecond)
	if dest.writes.Load() != before {
		t.Error("scheduler kept writing after Stop")
	}
}
