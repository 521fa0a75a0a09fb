package portal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/campusdesk/campusdesk/pkg/logger"
)

func newTestEngine(t *testing.T, fetcher Fetcher, dialer Dialer, opts ...Option) (*Engine, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	opts = append([]Option{WithScheduler(sched), WithLogger(logger.NewNopLogger())}, opts...)
	e := New(fetcher, dialer, opts...)
	t.Cleanup(func() { e.Close() })
	return e, sched
}

func TestInitUsesPlaceholderOnFetchFailure(t *testing.T) {
	fetcher := &staticFetcher{err: errors.New("portal unreachable")}
	dialer := &fakeDialer{}
	e, _ := newTestEngine(t, fetcher, dialer)

	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	got := e.Deadlines()
	if len(got) != 4 {
		t.Fatalf("expected 4 placeholder deadlines, got %d", len(got))
	}
	for _, d := range got {
		if d.StudentId != "S1001" {
			t.Errorf("placeholder deadline %s carries student %q", d.Id, d.StudentId)
		}
	}
}

func TestInitRejectsSecondCall(t *testing.T) {
	fetcher := &staticFetcher{}
	e, _ := newTestEngine(t, fetcher, &fakeDialer{channels: []*fakeChannel{newFakeChannel()}})

	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("first Init: %v", err)
	}
	if err := e.Init(context.Background(), "S1001"); err == nil {
		t.Fatal("second Init should fail")
	}
}

func TestInitOnClosedEngine(t *testing.T) {
	e, _ := newTestEngine(t, &staticFetcher{}, &fakeDialer{})
	e.Close()
	if err := e.Init(context.Background(), "S1001"); !errors.Is(err, ErrEngineClosed) {
		t.Fatalf("expected ErrEngineClosed, got %v", err)
	}
}

func TestApplyKeepsSetSorted(t *testing.T) {
	base := time.Now()
	fetcher := &staticFetcher{deadlines: []Deadline{
		testDeadline("d-late", base, 9, "12:00"),
		testDeadline("d-early", base, 1, "12:00"),
	}}
	ch := newFakeChannel()
	e, _ := newTestEngine(t, fetcher, &fakeDialer{channels: []*fakeChannel{ch}})
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	mid := testDeadline("d-mid", base, 5, "12:00")
	ch.open()
	ch.send(&Update{Type: UpdateDeadlineAdded, Deadline: &mid})
	waitFor(t, "added deadline", func() bool { return len(e.Deadlines()) == 3 })

	assertOrder(t, e.Deadlines(), "d-early", "d-mid", "d-late")

	// Moving the late record to the front re-sorts the set.
	moved := testDeadline("d-late", base, 0, "08:00")
	ch.send(&Update{Type: UpdateDeadlineUpdated, Deadline: &moved})
	waitFor(t, "updated deadline", func() bool { return e.Deadlines()[0].Id == "d-late" })
	assertOrder(t, e.Deadlines(), "d-late", "d-early", "d-mid")
}

func TestApplyRemoveAndUnknownIds(t *testing.T) {
	base := time.Now()
	fetcher := &staticFetcher{deadlines: []Deadline{
		testDeadline("a", base, 1, "10:00"),
		testDeadline("b", base, 2, "10:00"),
		testDeadline("c", base, 3, "10:00"),
	}}
	ch := newFakeChannel()
	log := logger.NewMockLogger()
	e, _ := newTestEngine(t, fetcher, &fakeDialer{channels: []*fakeChannel{ch}}, WithLogger(log))
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ch.open()
	ch.send(&Update{Type: UpdateDeadlineRemoved, DeadlineId: "b"})
	waitFor(t, "removal", func() bool { return len(e.Deadlines()) == 2 })
	assertOrder(t, e.Deadlines(), "a", "c")

	// Unmatched ids are logged no-ops.
	ch.send(&Update{Type: UpdateDeadlineRemoved, DeadlineId: "nope"})
	ch.send(&Update{Type: UpdateAssignmentGraded, AssignmentId: "nope"})
	waitFor(t, "no-op warnings", func() bool { return len(log.WarningCalls()) >= 2 })
	assertOrder(t, e.Deadlines(), "a", "c")
}

func TestApplyAssignmentGraded(t *testing.T) {
	base := time.Now()
	d := testDeadline("a", base, 1, "10:00")
	d.AssignmentId = "hw-7"
	fetcher := &staticFetcher{deadlines: []Deadline{d}}
	ch := newFakeChannel()
	e, _ := newTestEngine(t, fetcher, &fakeDialer{channels: []*fakeChannel{ch}})
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ch.open()
	ch.send(&Update{Type: UpdateAssignmentGraded, AssignmentId: "hw-7"})
	waitFor(t, "graded status", func() bool { return e.Deadlines()[0].Status == StatusCompleted })
}

func TestUnknownUpdateTypeDoesNotNotify(t *testing.T) {
	ch := newFakeChannel()
	log := logger.NewMockLogger()
	e, _ := newTestEngine(t, &staticFetcher{}, &fakeDialer{channels: []*fakeChannel{ch}}, WithLogger(log))
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var mu sync.Mutex
	notified := 0
	e.Subscribe(func([]Deadline) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	ch.open()
	ch.send(&Update{Type: "SOMETHING_ELSE"})
	waitFor(t, "unknown type warning", func() bool { return len(log.WarningCalls()) >= 1 })
	mu.Lock()
	defer mu.Unlock()
	if notified != 0 {
		t.Fatalf("unknown update type notified %d subscribers", notified)
	}
}

func TestSubscribeFanOutAndUnsubscribe(t *testing.T) {
	base := time.Now()
	ch := newFakeChannel()
	e, _ := newTestEngine(t, &staticFetcher{}, &fakeDialer{channels: []*fakeChannel{ch}})
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var mu sync.Mutex
	var first, second [][]Deadline
	unsubFirst := e.Subscribe(func(ds []Deadline) {
		mu.Lock()
		first = append(first, ds)
		mu.Unlock()
	})
	e.Subscribe(func(ds []Deadline) {
		mu.Lock()
		second = append(second, ds)
		mu.Unlock()
	})

	d1 := testDeadline("a", base, 1, "10:00")
	ch.open()
	ch.send(&Update{Type: UpdateDeadlineAdded, Deadline: &d1})
	waitFor(t, "first fan-out", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(first) == 1 && len(second) == 1
	})
	mu.Lock()
	if len(first[0]) != 1 || first[0][0].Id != "a" {
		t.Fatalf("subscriber received wrong snapshot: %+v", first[0])
	}
	mu.Unlock()

	unsubFirst()
	unsubFirst() // safe to call twice

	d2 := testDeadline("b", base, 2, "10:00")
	ch.send(&Update{Type: UpdateDeadlineAdded, Deadline: &d2})
	waitFor(t, "second fan-out", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(second) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if len(first) != 1 {
		t.Fatalf("unsubscribed callback still invoked, got %d calls", len(first))
	}
}

func TestPanickingSubscriberDoesNotAbortDelivery(t *testing.T) {
	base := time.Now()
	ch := newFakeChannel()
	log := logger.NewMockLogger()
	e, _ := newTestEngine(t, &staticFetcher{}, &fakeDialer{channels: []*fakeChannel{ch}}, WithLogger(log))
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var mu sync.Mutex
	survived := 0
	e.Subscribe(func([]Deadline) { panic("boom") })
	e.Subscribe(func([]Deadline) {
		mu.Lock()
		survived++
		mu.Unlock()
	})

	d := testDeadline("a", base, 1, "10:00")
	ch.open()
	ch.send(&Update{Type: UpdateDeadlineAdded, Deadline: &d})
	waitFor(t, "surviving subscriber", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return survived == 1
	})
	if len(log.ErrorCalls()) == 0 {
		t.Fatal("expected panic to be logged")
	}
}

func TestReconnectBackoffThenPermanentPolling(t *testing.T) {
	ch := newFakeChannel()
	dialer := &fakeDialer{channels: []*fakeChannel{ch}}
	e, sched := newTestEngine(t, &staticFetcher{}, dialer)
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ch.open()
	waitFor(t, "live state", func() bool { return e.State() == StateLive })
	ch.drop()
	waitFor(t, "first retry scheduled", func() bool { return sched.count() == 1 })

	// Every fired retry dials, fails and schedules the next one, until
	// the budget is exhausted and the poll timer takes over.
	for i := 0; i < 5; i++ {
		sched.fire(i)
	}

	delays := sched.delays()
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		DefaultPollInterval,
	}
	if len(delays) != len(want) {
		t.Fatalf("scheduled %d timers, want %d: %v", len(delays), len(want), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Errorf("timer %d delay = %s, want %s", i, delays[i], d)
		}
	}
	if got := dialer.dialCount(); got != 6 {
		t.Errorf("dial count = %d, want 1 initial + 5 retries", got)
	}
	if e.State() != StatePolling {
		t.Errorf("state = %s, want %s", e.State(), StatePolling)
	}

	// A poll tick after exhaustion never dials again.
	sched.fire(5)
	waitFor(t, "poll reschedule", func() bool { return sched.count() == 7 })
	if got := dialer.dialCount(); got != 6 {
		t.Errorf("dial count after exhaustion = %d, want 6", got)
	}
}

func TestReconnectResetsAfterSuccess(t *testing.T) {
	ch1 := newFakeChannel()
	ch2 := newFakeChannel()
	dialer := &fakeDialer{channels: []*fakeChannel{ch1, ch2}}
	e, sched := newTestEngine(t, &staticFetcher{}, dialer)
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	ch1.open()
	waitFor(t, "live state", func() bool { return e.State() == StateLive })
	ch1.drop()
	waitFor(t, "retry scheduled", func() bool { return sched.count() == 1 })
	sched.fire(0)

	ch2.open()
	waitFor(t, "live again", func() bool { return e.State() == StateLive })

	// The next drop starts the backoff over from the base delay.
	ch2.drop()
	waitFor(t, "second retry scheduled", func() bool { return sched.count() == 2 })
	if d := sched.delays()[1]; d != 1*time.Second {
		t.Fatalf("delay after recovered session = %s, want 1s", d)
	}
}

func TestInitDialFailureFallsBackToPolling(t *testing.T) {
	dialer := &fakeDialer{}
	e, sched := newTestEngine(t, &staticFetcher{}, dialer)
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if e.State() != StatePolling {
		t.Fatalf("state = %s, want %s", e.State(), StatePolling)
	}
	if sched.count() != 1 || sched.delays()[0] != DefaultPollInterval {
		t.Fatalf("expected one poll timer at %s, got %v", DefaultPollInterval, sched.delays())
	}
	if dialer.dialCount() != 1 {
		t.Fatalf("dial count = %d, want 1", dialer.dialCount())
	}
}

func TestPollingUpdatesFlowIntoEngine(t *testing.T) {
	base := time.Now()
	fetcher := &staticFetcher{}
	e, sched := newTestEngine(t, fetcher, &fakeDialer{})
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	fetcher.set([]Deadline{testDeadline("fresh", base, 3, "10:00")}, nil)
	sched.fire(0)
	waitFor(t, "polled snapshot applied", func() bool {
		ds := e.Deadlines()
		return len(ds) == 1 && ds[0].Id == "fresh"
	})
}

func TestUpcomingExcludesCompletedAndOutOfWindow(t *testing.T) {
	base := time.Now()
	done := testDeadline("done", base, 2, "10:00")
	done.Status = StatusCompleted
	fetcher := &staticFetcher{deadlines: []Deadline{
		testDeadline("soon", base, 2, "12:00"),
		done,
		testDeadline("far", base, 45, "12:00"),
	}}
	e, _ := newTestEngine(t, fetcher, &fakeDialer{channels: []*fakeChannel{newFakeChannel()}})
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	got := e.Upcoming(30)
	if len(got) != 1 || got[0].Id != "soon" {
		t.Fatalf("Upcoming(30) = %+v, want only soon", got)
	}
}

func TestCloseIsIdempotentAndStopsNotifications(t *testing.T) {
	ch := newFakeChannel()
	e, _ := newTestEngine(t, &staticFetcher{}, &fakeDialer{channels: []*fakeChannel{ch}})
	if err := e.Init(context.Background(), "S1001"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var mu sync.Mutex
	notified := 0
	e.Subscribe(func([]Deadline) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if e.State() != StateClosed {
		t.Fatalf("state = %s, want %s", e.State(), StateClosed)
	}

	if unsub := e.Subscribe(func([]Deadline) {}); unsub == nil {
		t.Fatal("Subscribe on closed engine returned nil")
	}
	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if notified != 0 {
		t.Fatalf("subscriber notified %d times after Close", notified)
	}
}

func assertOrder(t *testing.T, got []Deadline, ids ...string) {
	t.Helper()
	if len(got) != len(ids) {
		t.Fatalf("set has %d records, want %d: %+v", len(got), len(ids), got)
	}
	for i, id := range ids {
		if got[i].Id != id {
			t.Fatalf("position %d = %s, want %s (full set %+v)", i, got[i].Id, id, got)
		}
	}
}
