// Package sse streams vault changes to HTTP clients as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/paranote/internal/actions"
)

// Event types emitted by the broker.
const (
	TypeNoteCreated    = "note.created"
	TypeNoteUpdated    = "note.updated"
	TypeNoteDeleted    = "note.deleted"
	TypeActionsChanged = "actions.changed"
)

// Defaults for NewBroker.
const (
	DefaultHistory   = 32
	DefaultKeepAlive = 25 * time.Second
	clientBuffer     = 64
)

// Event is one message to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NoteChange is the payload of the note.* events. Location is the PARA
// bucket or bucket/subfolder the note lives in, as used by action grouping.
type NoteChange struct {
	Path     string `json:"path"`
	Location string `json:"location"`
}

// Option configures a Broker.
type Option func(*Broker)

// WithHistory keeps the last n messages for Last-Event-ID replay.
func WithHistory(n int) Option {
	return func(b *Broker) {
		b.history = min(max(n, 0), clientBuffer)
	}
}

// WithKeepAlive sets the interval of comment lines sent to idle clients.
func WithKeepAlive(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.keepAlive = d
		}
	}
}

type record struct {
	id  string
	raw []byte
}

// state is owned by the broker goroutine.
type state struct {
	clients     map[chan []byte]struct{}
	recent      []record
	lastActions map[string]time.Time // by project location
}

// Broker fans events out to subscribers. Message ids are ULIDs, so they
// sort in emission order and a reconnecting client can resume after the
// last id it saw.
//
// One goroutine owns all mutable state; public methods hand it closures.
type Broker struct {
	throttle  time.Duration
	history   int
	keepAlive time.Duration

	ops     chan func(*state)
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits actions.changed at most once per
// throttle interval.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		throttle:  throttle,
		history:   DefaultHistory,
		keepAlive: DefaultKeepAlive,
		ops:       make(chan func(*state), 256),
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b
}

// Format renders event as one SSE message with the given id.
func Format(id string, event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "id: %s\nevent: %s\ndata: %s\n\n", id, event.Type, payload), nil
}

func (b *Broker) run() {
	defer close(b.stopped)
	st := &state{
		clients:     make(map[chan []byte]struct{}),
		lastActions: make(map[string]time.Time),
	}
	for {
		select {
		case <-b.stopCh:
			for ch := range st.clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(st)
		}
	}
}

// do runs op on the broker goroutine. It reports false once the broker is
// closed.
func (b *Broker) do(op func(*state)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// call runs op and waits for it to finish.
func (b *Broker) call(op func(*state)) bool {
	done := make(chan struct{})
	if !b.do(func(st *state) { op(st); close(done) }) {
		return false
	}
	select {
	case <-done:
		return true
	case <-b.stopped:
		return false
	}
}

func (b *Broker) broadcast(st *state, event Event) {
	id := ulid.Make().String()
	raw, err := Format(id, event)
	if err != nil {
		return
	}
	if b.history > 0 {
		st.recent = append(st.recent, record{id: id, raw: raw})
		if len(st.recent) > b.history {
			st.recent = st.recent[len(st.recent)-b.history:]
		}
	}
	for ch := range st.clients {
		select {
		case ch <- raw:
		default:
			// Slow client; drop rather than stall every subscriber.
		}
	}
}

// Close stops the broker and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. When lastID is set, retained messages
// newer than it are queued on the channel first.
func (b *Broker) Subscribe(lastID string) chan []byte {
	ch := make(chan []byte, clientBuffer)
	ok := b.call(func(st *state) {
		if lastID != "" {
			for _, r := range st.recent {
				if r.id > lastID {
					ch <- r.raw
				}
			}
		}
		st.clients[ch] = struct{}{}
	})
	if !ok {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.call(func(st *state) {
		if _, ok := st.clients[ch]; ok {
			delete(st.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := 0
	b.call(func(st *state) { n = len(st.clients) })
	return n
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	b.do(func(st *state) { b.broadcast(st, event) })
}

// PublishNoteEvent publishes a note change followed by an actions.changed
// event, throttled separately for each project location. kind is one of the index event kinds; others are
// ignored. It matches index.EventCallback.
func (b *Broker) PublishNoteEvent(kind, path string) {
	var typ string
	switch kind {
	case "created":
		typ = TypeNoteCreated
	case "updated":
		typ = TypeNoteUpdated
	case "deleted":
		typ = TypeNoteDeleted
	default:
		return
	}
	change := NoteChange{Path: path, Location: actions.ProjectKey(path)}
	b.do(func(st *state) {
		b.broadcast(st, Event{Type: typ, Data: change})
		if now := time.Now(); now.Sub(st.lastActions[change.Location]) >= b.throttle {
			st.lastActions[change.Location] = now
			b.broadcast(st, Event{Type: TypeActionsChanged, Data: map[string]string{"location": change.Location}})
		}
	})
}

// ServeHTTP streams events to one client (GET /api/events). A
// Last-Event-ID header resumes after that message.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(r.Header.Get("Last-Event-ID"))
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
