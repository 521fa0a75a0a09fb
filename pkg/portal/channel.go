package portal

import "context"

// EventKind discriminates channel events.
type EventKind int

const (
	// EventOpened signals the channel is live and delivering messages.
	EventOpened EventKind = iota
	// EventMessage carries one decoded Update.
	EventMessage
	// EventClosed signals the channel delivers no further messages.
	EventClosed
	// EventError carries a non-fatal channel error.
	EventError
)

// Event is the discriminated union a Channel emits to the engine.
// Update is set for EventMessage, Err for EventError.
type Event struct {
	Kind   EventKind
	Update *Update
	Err    error
}

// Channel abstracts a push transport for deadline updates. After an
// EventClosed the Events stream is drained and closed; no further
// EventMessage is delivered until a new Channel is dialed.
type Channel interface {
	// Events returns the stream of channel events. The channel is
	// closed after EventClosed has been delivered.
	Events() <-chan Event
	// Close tears the transport down. Idempotent.
	Close() error
}

// Dialer opens a push Channel for a student session.
type Dialer interface {
	Dial(ctx context.Context, studentId string) (Channel, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, studentId string) (Channel, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, studentId string) (Channel, error) {
	return f(ctx, studentId)
}
