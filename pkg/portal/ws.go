package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	cws "github.com/coder/websocket"

	"github.com/campusdesk/campusdesk/pkg/logger"
)

// wsChannel adapts a coder/websocket.Conn to the Channel interface.
// One text frame carries one JSON Update object.
type wsChannel struct {
	conn   *cws.Conn
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

// WSDialer dials the per-student push endpoint of the portal backend.
type WSDialer struct {
	// URL is the websocket endpoint, e.g. "wss://portal.example/push".
	URL string
	// Tokens supplies the bearer credential for the handshake.
	Tokens TokenSource
	// Log receives channel diagnostics. Defaults to a NopLogger.
	Log logger.Logger
}

// Dial opens the push channel for the given student. The returned
// channel emits EventOpened immediately, then one EventMessage per
// received frame, and finally EventClosed once the connection is torn
// down.
func (d *WSDialer) Dial(ctx context.Context, studentId string) (Channel, error) {
	token, err := d.Tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("ws dial: bad endpoint: %w", err)
	}
	q := u.Query()
	q.Set("studentId", studentId)
	u.RawQuery = q.Encode()

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+token)
	conn, _, err := cws.Dial(ctx, u.String(), &cws.DialOptions{HTTPHeader: hdr})
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	log := d.Log
	if log == nil {
		log = logger.NewNopLogger()
	}

	readCtx, cancel := context.WithCancel(context.Background())
	ch := &wsChannel{
		conn:   conn,
		events: make(chan Event, 16),
		cancel: cancel,
	}
	ch.events <- Event{Kind: EventOpened}
	safeGo(log, "ws read loop", func() { ch.readLoop(readCtx, log) })
	return ch, nil
}

func (c *wsChannel) readLoop(ctx context.Context, log logger.Logger) {
	defer c.shutdown()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := cws.CloseStatus(err); status != cws.StatusNormalClosure && status != cws.StatusGoingAway && ctx.Err() == nil {
				c.emit(ctx, Event{Kind: EventError, Err: err})
			}
			return
		}
		u, err := ParseUpdate(data)
		if err != nil {
			// Malformed frame: drop this message, keep the stream.
			log.Warning("push channel: malformed message: %s", err.Error())
			continue
		}
		c.emit(ctx, Event{Kind: EventMessage, Update: u})
	}
}

func (c *wsChannel) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// shutdown delivers the terminal EventClosed and closes the stream.
func (c *wsChannel) shutdown() {
	c.once.Do(func() {
		c.cancel()
		select {
		case c.events <- Event{Kind: EventClosed}:
		default:
			// Consumer gone and buffer full; closing the stream below
			// still signals termination.
		}
		close(c.events)
	})
}

// Events returns the event stream of the channel.
func (c *wsChannel) Events() <-chan Event {
	return c.events
}

// Close tears the websocket down with a normal closure status.
// Idempotent; the read loop delivers the terminal EventClosed.
func (c *wsChannel) Close() error {
	c.cancel()
	return c.conn.Close(cws.StatusNormalClosure, "")
}

var _ Channel = (*wsChannel)(nil)
var _ Dialer = (*WSDialer)(nil)
