package portal

import (
	"context"
	"sync"
	"time"

	"github.com/campusdesk/campusdesk/pkg/logger"
)

// DefaultPollInterval is the cadence of the polling fallback.
const DefaultPollInterval = 30 * time.Second

// PollingChannel is the fallback transport used when the push channel
// is unavailable. Every interval it refetches the full deadline set
// and, when the set differs from the previous fetch, emits one
// synthetic snapshot message. Fetch failures are swallowed and retried
// on the next tick; the channel never emits EventClosed or EventError
// on its own cadence.
type PollingChannel struct {
	fetcher  Fetcher
	student  string
	interval time.Duration
	sched    Scheduler
	log      logger.Logger
	events   chan Event

	mu     sync.Mutex
	timer  Timer
	closed bool
	last   []Deadline
}

// NewPollingChannel starts a polling channel for the given student.
// seed is the deadline set the consumer currently holds; the first
// tick only emits if the refetched set differs from it. The first
// fetch happens one interval after construction.
func NewPollingChannel(fetcher Fetcher, studentId string, seed []Deadline, interval time.Duration, sched Scheduler, log logger.Logger) *PollingChannel {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if sched == nil {
		sched = NewScheduler()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	p := &PollingChannel{
		fetcher:  fetcher,
		student:  studentId,
		interval: interval,
		sched:    sched,
		log:      log,
		events:   make(chan Event, 16),
		last:     append([]Deadline(nil), seed...),
	}
	p.mu.Lock()
	p.scheduleLocked()
	p.mu.Unlock()
	return p
}

func (p *PollingChannel) scheduleLocked() {
	p.timer = p.sched.After(p.interval, p.tick)
}

func (p *PollingChannel) tick() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	got, err := p.fetcher.FetchDeadlines(context.Background(), p.student)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if err != nil {
		// Swallowed: retried on the next tick.
		p.log.Warning("polling: refetch failed: %s", err.Error())
		p.scheduleLocked()
		return
	}
	if !sameDeadlineSet(p.last, got) {
		p.last = append([]Deadline(nil), got...)
		ev := Event{Kind: EventMessage, Update: &Update{Type: UpdateSnapshot, Deadlines: got}}
		select {
		case p.events <- ev:
		default:
			p.log.Warning("polling: snapshot dropped, consumer not keeping up")
		}
	}
	p.scheduleLocked()
}

// sameDeadlineSet reports whether a and b contain the same records,
// ignoring order.
func sameDeadlineSet(a, b []Deadline) bool {
	if len(a) != len(b) {
		return false
	}
	byId := make(map[string]Deadline, len(a))
	for _, d := range a {
		byId[d.Id] = d
	}
	for _, d := range b {
		if prev, ok := byId[d.Id]; !ok || prev != d {
			return false
		}
	}
	return true
}

// Events returns the event stream of the channel.
func (p *PollingChannel) Events() <-chan Event {
	return p.events
}

// Close stops the poll timer and closes the stream. Idempotent.
func (p *PollingChannel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	close(p.events)
	return nil
}

var _ Channel = (*PollingChannel)(nil)
