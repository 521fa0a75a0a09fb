package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/campusdesk/campusdesk/pkg/logger"
)

// State is the lifecycle state of a sync engine session.
type State int

const (
	// StateIdle is the state before Init.
	StateIdle State = iota
	// StateConnecting covers the initial snapshot fetch and dial.
	StateConnecting
	// StateLive means updates arrive over the push channel.
	StateLive
	// StateReconnecting means the push channel dropped and a delayed
	// reconnect attempt is pending.
	StateReconnecting
	// StatePolling means updates arrive from the polling fallback.
	StatePolling
	// StateClosed is terminal, entered by Close.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateLive:
		return "live"
	case StateReconnecting:
		return "reconnecting"
	case StatePolling:
		return "polling"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SubscribeFunc receives the full current deadline set after every
// applied update.
type SubscribeFunc func(deadlines []Deadline)

type subscription struct {
	fn SubscribeFunc
}

// Engine owns the authoritative in-memory deadline set of one student
// session. It applies inbound channel updates one at a time, keeps the
// set sorted by due instant, and fans each applied update out to
// subscribers. It also owns the reconnect backoff and the polling
// fallback policy.
//
// Engines are constructed explicitly and their lifecycle is caller
// controlled: New, Init, Close.
type Engine struct {
	fetcher      Fetcher
	dialer       Dialer
	log          logger.Logger
	sched        Scheduler
	policy       ReconnectPolicy
	pollInterval time.Duration
	now          func() time.Time

	mu         sync.Mutex
	state      State
	studentId  string
	deadlines  []Deadline
	subs       []*subscription
	channel    Channel
	poller     *PollingChannel
	attempts   int
	retryTimer Timer
	// pollingForever is set once the reconnect budget is exhausted or
	// the initial dial failed; the session stays on polling for its
	// remaining lifetime.
	pollingForever bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. Default is a NopLogger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithScheduler sets the timer scheduler. Tests inject a fake here to
// drive backoff and polling without wall-clock waits.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithReconnectPolicy overrides the reconnect backoff policy.
func WithReconnectPolicy(p ReconnectPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithPollInterval overrides the polling fallback cadence.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// New creates an idle sync engine. The fetcher supplies snapshot
// fetches, the dialer opens the push channel.
func New(fetcher Fetcher, dialer Dialer, opts ...Option) *Engine {
	e := &Engine{
		fetcher:      fetcher,
		dialer:       dialer,
		log:          logger.NewNopLogger(),
		sched:        NewScheduler(),
		policy:       DefaultReconnectPolicy(),
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Init starts the session for a student: it fetches the initial
// snapshot and opens the push channel. A snapshot fetch failure is
// recovered locally with the placeholder dataset, and a dial failure
// activates the polling fallback; neither fails Init. Init returns an
// error only when called on a non-idle engine.
func (e *Engine) Init(ctx context.Context, studentId string) error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if e.state != StateIdle {
		e.mu.Unlock()
		return fmt.Errorf("sync engine already initialized (%s)", e.state)
	}
	e.state = StateConnecting
	e.studentId = studentId
	e.mu.Unlock()

	snapshot, err := e.fetcher.FetchDeadlines(ctx, studentId)
	if err != nil {
		e.log.Error("initial deadline fetch failed, using placeholder data: %s", err.Error())
		snapshot = PlaceholderDeadlines(studentId, e.now())
	}
	sorted := append([]Deadline(nil), snapshot...)
	SortDeadlines(sorted)

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.deadlines = sorted
	e.mu.Unlock()

	ch, err := e.dialer.Dial(ctx, studentId)
	if err != nil {
		e.log.Warning("push channel unavailable, falling back to polling: %s", err.Error())
		e.mu.Lock()
		e.pollingForever = true
		e.startPollingLocked()
		e.mu.Unlock()
		return nil
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		ch.Close()
		return ErrEngineClosed
	}
	e.channel = ch
	e.mu.Unlock()
	safeGo(e.log, "push channel read loop", func() { e.readLoop(ch) })
	return nil
}

// readLoop drains one channel until its stream ends, applying
// messages through the single event-application path.
func (e *Engine) readLoop(ch Channel) {
	for ev := range ch.Events() {
		switch ev.Kind {
		case EventOpened:
			e.onOpened()
		case EventMessage:
			e.apply(ev.Update)
		case EventError:
			if ev.Err != nil {
				e.log.Error("push channel error: %s", ev.Err.Error())
			}
		case EventClosed:
			// The stream ends right after; handled below.
		}
	}
	e.onChannelDown()
}

func (e *Engine) onOpened() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return
	}
	e.state = StateLive
	e.attempts = 0
	e.log.Info("realtime deadline channel established")
}

// onChannelDown runs the backoff-then-fallback policy after the push
// channel drops or a reconnect attempt fails.
func (e *Engine) onChannelDown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed || e.pollingForever {
		return
	}
	e.channel = nil
	if e.attempts >= e.policy.MaxAttempts {
		e.log.Warning("max reconnect attempts reached, switching to polling")
		e.pollingForever = true
		e.startPollingLocked()
		return
	}
	e.attempts++
	e.state = StateReconnecting
	delay := e.policy.Delay(e.attempts)
	e.log.Info("reconnecting in %s (attempt %d/%d)", delay, e.attempts, e.policy.MaxAttempts)
	e.retryTimer = e.sched.After(delay, e.reconnect)
}

func (e *Engine) reconnect() {
	e.mu.Lock()
	if e.state == StateClosed || e.pollingForever {
		e.mu.Unlock()
		return
	}
	studentId := e.studentId
	e.mu.Unlock()

	ch, err := e.dialer.Dial(context.Background(), studentId)
	if err != nil {
		e.log.Warning("reconnect failed: %s", err.Error())
		e.onChannelDown()
		return
	}

	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		ch.Close()
		return
	}
	e.channel = ch
	e.mu.Unlock()
	safeGo(e.log, "push channel read loop", func() { e.readLoop(ch) })
}

// startPollingLocked activates the polling fallback. Callers hold mu.
func (e *Engine) startPollingLocked() {
	if e.poller != nil || e.state == StateClosed {
		return
	}
	e.state = StatePolling
	seed := append([]Deadline(nil), e.deadlines...)
	p := NewPollingChannel(e.fetcher, e.studentId, seed, e.pollInterval, e.sched, e.log)
	e.poller = p
	safeGo(e.log, "polling read loop", func() {
		for ev := range p.Events() {
			if ev.Kind == EventMessage {
				e.apply(ev.Update)
			}
		}
	})
}

// apply routes one decoded update through the authoritative set and
// notifies subscribers. Unmatched ids are logged no-ops that leave the
// set untouched; unknown update types are logged and notify nobody.
func (e *Engine) apply(u *Update) {
	if u == nil {
		return
	}
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	switch u.Type {
	case UpdateDeadlineAdded:
		if u.Deadline != nil && e.indexOf(u.Deadline.Id) < 0 {
			e.deadlines = append(e.deadlines, *u.Deadline)
			SortDeadlines(e.deadlines)
		}
	case UpdateDeadlineUpdated:
		if u.Deadline != nil {
			if i := e.indexOf(u.Deadline.Id); i >= 0 {
				e.deadlines[i] = *u.Deadline
				SortDeadlines(e.deadlines)
			} else {
				e.log.Warning("update for unknown deadline %s ignored", u.Deadline.Id)
			}
		}
	case UpdateDeadlineRemoved:
		if i := e.indexOf(u.DeadlineId); i >= 0 {
			// Order of the remaining records is preserved.
			e.deadlines = append(e.deadlines[:i], e.deadlines[i+1:]...)
		} else {
			e.log.Warning("removal of unknown deadline %s ignored", u.DeadlineId)
		}
	case UpdateAssignmentGraded:
		found := false
		for i := range e.deadlines {
			if e.deadlines[i].AssignmentId != "" && e.deadlines[i].AssignmentId == u.AssignmentId {
				e.deadlines[i].Status = StatusCompleted
				found = true
				break
			}
		}
		if !found {
			e.log.Warning("grade for unknown assignment %s ignored", u.AssignmentId)
		}
	case UpdateSnapshot:
		set := append([]Deadline(nil), u.Deadlines...)
		SortDeadlines(set)
		e.deadlines = set
	default:
		e.log.Warning("unknown update type %q ignored", u.Type)
		e.mu.Unlock()
		return
	}
	snapshot := append([]Deadline(nil), e.deadlines...)
	subs := append([]*subscription(nil), e.subs...)
	e.mu.Unlock()

	for _, s := range subs {
		e.notifyOne(s, snapshot)
	}
}

// indexOf returns the position of the deadline with the given id, or
// -1. Callers hold mu.
func (e *Engine) indexOf(id string) int {
	for i := range e.deadlines {
		if e.deadlines[i].Id == id {
			return i
		}
	}
	return -1
}

// notifyOne invokes one subscriber with panic isolation so a faulty
// callback cannot abort delivery to the remaining subscribers.
func (e *Engine) notifyOne(s *subscription, snapshot []Deadline) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("subscriber panicked: %v", r)
		}
	}()
	s.fn(snapshot)
}

// Subscribe registers a callback invoked with the full current set
// after every applied update. The returned function removes the
// subscription; it is safe to call more than once.
func (e *Engine) Subscribe(fn SubscribeFunc) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateClosed {
		return func() {}
	}
	s := &subscription{fn: fn}
	e.subs = append(e.subs, s)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, cur := range e.subs {
			if cur == s {
				e.subs = append(e.subs[:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Deadlines returns a copy of the authoritative set.
func (e *Engine) Deadlines() []Deadline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Deadline(nil), e.deadlines...)
}

// Upcoming returns the pending deadlines due within the next
// windowDays days, in ascending due order. The authoritative set is
// not mutated.
func (e *Engine) Upcoming(windowDays int) []Deadline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return UpcomingWindow(e.deadlines, e.now(), windowDays)
}

// UpcomingWindow filters deadlines to the pending ones due within
// windowDays days of now, preserving order. Records with an
// unparseable due instant are excluded.
func UpcomingWindow(deadlines []Deadline, now time.Time, windowDays int) []Deadline {
	limit := now.Add(time.Duration(windowDays) * 24 * time.Hour)
	var out []Deadline
	for _, d := range deadlines {
		if d.Status != StatusPending {
			continue
		}
		due, err := d.DueAt()
		if err != nil {
			continue
		}
		if due.Before(now) || due.After(limit) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Close terminates the session: it stops any pending reconnect and
// poll timers, closes the active channel and clears all subscribers.
// The deadline set stays queryable but no further notifications are
// delivered. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	e.state = StateClosed
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	ch := e.channel
	e.channel = nil
	poller := e.poller
	e.poller = nil
	e.subs = nil
	e.mu.Unlock()

	var errs []error
	if ch != nil {
		if err := ch.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if poller != nil {
		if err := poller.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
