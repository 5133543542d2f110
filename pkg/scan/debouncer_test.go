package scan_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-scanform/pkg/scan"
	"github.com/goliatone/go-scanform/pkg/testsupport"
)

func batch(payloads ...string) []scan.Event {
	out := make([]scan.Event, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, scan.Event{Payload: p, Symbology: scan.SymbologyEAN13})
	}
	return out
}

func TestDebouncer_IdenticalEventsWithinWindowAcceptedOnce(t *testing.T) {
	sched := &testsupport.ManualScheduler{}
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	var accepted []string
	for i := 0; i < 25; i++ {
		if ev, ok := d.Offer(batch("7501234567890")); ok {
			accepted = append(accepted, ev.Payload)
		}
		sched.Advance(15 * time.Millisecond)
	}

	if diff := cmp.Diff([]string{"7501234567890"}, accepted); diff != "" {
		t.Fatalf("accepted scans mismatch (-want +got):\n%s", diff)
	}
}

func TestDebouncer_ReArmsAfterWindow(t *testing.T) {
	sched := &testsupport.ManualScheduler{}
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	if _, ok := d.Offer(batch("123")); !ok {
		t.Fatalf("expected first scan to be accepted")
	}
	sched.Advance(600 * time.Millisecond)
	if _, ok := d.Offer(batch("123")); !ok {
		t.Fatalf("expected scan after the window to be accepted")
	}
}

func TestDebouncer_DifferentCodeInsideWindowSuppressed(t *testing.T) {
	sched := &testsupport.ManualScheduler{}
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	if _, ok := d.Offer(batch("AAA")); !ok {
		t.Fatalf("expected first scan to be accepted")
	}
	sched.Advance(100 * time.Millisecond)
	if ev, ok := d.Offer(batch("BBB")); ok {
		t.Fatalf("expected different code to be suppressed, got %q", ev.Payload)
	}
}

func TestDebouncer_WindowNotExtendedByDroppedEvents(t *testing.T) {
	sched := &testsupport.ManualScheduler{}
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	d.Offer(batch("AAA"))
	sched.Advance(400 * time.Millisecond)
	if _, ok := d.Offer(batch("AAA")); ok {
		t.Fatalf("expected suppression at 400ms")
	}
	sched.Advance(100 * time.Millisecond)
	if got := d.State(); got != scan.StateIdle {
		t.Fatalf("expected idle at 500ms, got %s", got)
	}
	if _, ok := d.Offer(batch("AAA")); !ok {
		t.Fatalf("expected acceptance once the first window elapsed")
	}
}

func TestDebouncer_EmptyBatchNeverAccepted(t *testing.T) {
	sched := &testsupport.ManualScheduler{}
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	cases := [][]scan.Event{
		nil,
		{},
		{{Payload: ""}},
		{{Payload: "   ", Symbology: scan.SymbologyQR}},
	}
	for i, c := range cases {
		if _, ok := d.Offer(c); ok {
			t.Fatalf("case %d: expected empty batch to be discarded", i)
		}
	}
	if got := d.State(); got != scan.StateIdle {
		t.Fatalf("expected idle state, got %s", got)
	}
	if sched.Pending() != 0 {
		t.Fatalf("expected no release scheduled for empty batches")
	}
}

func TestDebouncer_FirstUsableEventWins(t *testing.T) {
	d := scan.NewDebouncer(scan.WithScheduler(&testsupport.ManualScheduler{}))

	ev, ok := d.Offer([]scan.Event{{Payload: ""}, {Payload: "111"}, {Payload: "222"}})
	if !ok {
		t.Fatalf("expected batch to be accepted")
	}
	if ev.Payload != "111" {
		t.Fatalf("expected first usable payload, got %q", ev.Payload)
	}
}

func TestDebouncer_SymbologyFilter(t *testing.T) {
	d := scan.NewDebouncer(
		scan.WithScheduler(&testsupport.ManualScheduler{}),
		scan.WithSymbologies(scan.SymbologyEAN13),
	)

	if _, ok := d.Offer([]scan.Event{{Payload: "x", Symbology: "pdf417"}}); ok {
		t.Fatalf("expected disabled symbology to be skipped")
	}
	if _, ok := d.Offer([]scan.Event{{Payload: "y"}}); !ok {
		t.Fatalf("expected event without symbology to be accepted")
	}
}

func TestDebouncer_CancelReturnsToIdleAndIgnoresStaleRelease(t *testing.T) {
	sched := &testsupport.ManualScheduler{}
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	d.Offer(batch("AAA"))
	d.Cancel()
	if got := d.State(); got != scan.StateIdle {
		t.Fatalf("expected idle after cancel, got %s", got)
	}

	d.Offer(batch("BBB"))
	sched.Advance(scan.Window - time.Millisecond)
	if got := d.State(); got != scan.StateSuppressing {
		t.Fatalf("expected new window to stay active, got %s", got)
	}
}

func TestDebouncer_StaleReleaseAfterLostStopIsIgnored(t *testing.T) {
	var fns []func()
	sched := scan.SchedulerFunc(func(_ time.Duration, fn func()) scan.Timer {
		fns = append(fns, fn)
		return noopTimer{}
	})
	d := scan.NewDebouncer(scan.WithScheduler(sched))

	d.Offer(batch("AAA"))
	d.Cancel()
	d.Offer(batch("BBB"))

	// release of the cancelled window fires late
	fns[0]()
	if got := d.State(); got != scan.StateSuppressing {
		t.Fatalf("expected stale release to be ignored, got %s", got)
	}
	fns[1]()
	if got := d.State(); got != scan.StateIdle {
		t.Fatalf("expected current release to apply, got %s", got)
	}
}

func TestDebouncer_RealSchedulerReleases(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the wall clock")
	}
	d := scan.NewDebouncer()
	d.Offer(batch("AAA"))

	deadline := time.Now().Add(5 * time.Second)
	for d.State() != scan.StateIdle {
		if time.Now().After(deadline) {
			t.Fatalf("release never fired")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }
