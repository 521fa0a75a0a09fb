package portal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTimer is a cancelable handle handed out by fakeScheduler.
type fakeTimer struct {
	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

type fakeTask struct {
	delay time.Duration
	fn    func()
	timer *fakeTimer
}

// fakeScheduler records scheduled actions and fires them on demand so
// tests control time.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (s *fakeScheduler) After(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &fakeTask{delay: d, fn: fn, timer: &fakeTimer{}}
	s.tasks = append(s.tasks, task)
	return task.timer
}

// fire runs the i-th scheduled action synchronously unless stopped.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	task := s.tasks[i]
	s.mu.Unlock()

	task.timer.mu.Lock()
	if task.timer.stopped {
		task.timer.mu.Unlock()
		return
	}
	task.timer.fired = true
	task.timer.mu.Unlock()
	task.fn()
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *fakeScheduler) delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.tasks))
	for i, task := range s.tasks {
		out[i] = task.delay
	}
	return out
}

// fakeChannel is a scriptable push channel.
type fakeChannel struct {
	events chan Event
	once   sync.Once
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan Event, 32)}
}

func (c *fakeChannel) Events() <-chan Event { return c.events }

func (c *fakeChannel) Close() error {
	c.drop()
	return nil
}

// drop ends the stream, simulating a connection loss.
func (c *fakeChannel) drop() {
	c.once.Do(func() {
		c.events <- Event{Kind: EventClosed}
		close(c.events)
	})
}

func (c *fakeChannel) open() {
	c.events <- Event{Kind: EventOpened}
}

func (c *fakeChannel) send(u *Update) {
	c.events <- Event{Kind: EventMessage, Update: u}
}

// fakeDialer returns scripted channels or errors per attempt; once the
// script is exhausted every further dial fails.
type fakeDialer struct {
	mu       sync.Mutex
	channels []*fakeChannel
	calls    int
}

func (d *fakeDialer) Dial(ctx context.Context, studentId string) (Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.channels) == 0 {
		return nil, errors.New("dial refused")
	}
	ch := d.channels[0]
	d.channels = d.channels[1:]
	if ch == nil {
		return nil, errors.New("dial refused")
	}
	return ch, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

var errTestFetch = errors.New("fetch failed")

// staticFetcher serves a fixed snapshot or a fixed error.
type staticFetcher struct {
	mu        sync.Mutex
	deadlines []Deadline
	err       error
	calls     int
}

func (f *staticFetcher) FetchDeadlines(ctx context.Context, studentId string) ([]Deadline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Deadline(nil), f.deadlines...), nil
}

func (f *staticFetcher) set(deadlines []Deadline, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deadlines = deadlines
	f.err = err
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// testDeadline builds a pending deadline due n days after base.
func testDeadline(id string, base time.Time, days int, dueTime string) Deadline {
	return Deadline{
		Id:        id,
		StudentId: "S1001",
		Title:     "deadline " + id,
		Course:    "course " + id,
		DueDate:   base.AddDate(0, 0, days).Format("2006-01-02"),
		DueTime:   dueTime,
		Type:      DeadlineAssignment,
		Status:    StatusPending,
		Priority:  PriorityMedium,
	}
}
