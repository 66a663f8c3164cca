package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCollapsesBursts(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		d.Arm(func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
}

func TestDebouncerRunsLatestTask(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var got atomic.Int32
	d.Arm(func() { got.Store(1) })
	d.Arm(func() { got.Store(2) })

	time.Sleep(100 * time.Millisecond)
	if got.Load() != 2 {
		t.Fatalf("ran task %d, want the re-armed one", got.Load())
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var fired atomic.Int32
	d.Arm(func() { fired.Add(1) })
	if !d.Cancel() {
		t.Fatal("Cancel should report a pending task")
	}

	time.Sleep(80 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("cancelled task still ran")
	}
	if d.Cancel() {
		t.Fatal("second Cancel should report nothing pending")
	}
}
