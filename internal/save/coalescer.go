// Package save coalesces bursts of edits to the same prompt into throttled
// writes. Each prompt with pending edits has one drain goroutine; it exits as
// soon as there is nothing left to write.
package save

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// DefaultThrottle is the minimum spacing between writes of one prompt.
const DefaultThrottle = 500 * time.Millisecond

// Edit is a full snapshot of a prompt's editable state.
type Edit struct {
	Title   *string
	Default bool
	Body    string
}

// Sink receives staged and durable writes. *store.Store satisfies it.
type Sink interface {
	Stage(id prompt.ID, title *string, isDefault bool) (prompt.Metadata, error)
	Put(ctx context.Context, id prompt.ID, title *string, isDefault bool, body string) (prompt.Metadata, error)
}

// Coalescer serializes writes per prompt. Only the latest snapshot submitted
// during a throttle interval is written.
type Coalescer struct {
	sink     Sink
	throttle time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[prompt.ID]*entry
	closed  bool

	flushing atomic.Int32
}

type entry struct {
	next     *Edit
	inFlight *Edit
	wake     chan struct{}
	done     chan struct{}
}

// Option configures a Coalescer.
type Option func(*Coalescer)

// WithLogger sets the logger used to report failed writes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coalescer) { c.logger = logger }
}

// WithThrottle sets the wait before each write. Non-positive values disable it.
func WithThrottle(d time.Duration) Option {
	return func(c *Coalescer) { c.throttle = d }
}

// New returns a Coalescer writing to sink.
func New(sink Sink, opts ...Option) *Coalescer {
	c := &Coalescer{
		sink:     sink,
		throttle: DefaultThrottle,
		logger:   slog.New(slog.DiscardHandler),
		entries:  make(map[prompt.ID]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit stages edit in the metadata cache and schedules it to be written.
// A later Submit for the same id before the write replaces this one.
func (c *Coalescer) Submit(id prompt.ID, edit Edit) error {
	if id.IsBuiltIn() {
		return errors.NewPermissionDenied(id.String(), "saved")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.NewCancelled("save")
	}
	if _, err := c.sink.Stage(id, edit.Title, edit.Default); err != nil {
		return err
	}

	e, ok := c.entries[id]
	if !ok {
		e = &entry{
			wake: make(chan struct{}, 1),
			done: make(chan struct{}),
		}
		c.entries[id] = e
		go c.drain(id, e)
	}
	e.next = &edit
	return nil
}

func (c *Coalescer) drain(id prompt.ID, e *entry) {
	defer close(e.done)

	for {
		c.wait(e)

		c.mu.Lock()
		edit := e.next
		e.next = nil
		e.inFlight = edit
		if edit == nil {
			delete(c.entries, id)
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		if _, err := c.sink.Put(context.Background(), id, edit.Title, edit.Default, edit.Body); err != nil {
			c.logger.Error("prompt save failed", "id", id.String(), "error", err)
		}

		c.mu.Lock()
		e.inFlight = nil
		c.mu.Unlock()
	}
}

func (c *Coalescer) wait(e *entry) {
	if c.throttle <= 0 || c.flushing.Load() > 0 {
		return
	}
	timer := time.NewTimer(c.throttle)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-e.wake:
	}
}

func (e *entry) poke() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pending returns the newest snapshot for id that has not been committed yet.
func (c *Coalescer) Pending(id prompt.ID) (Edit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return Edit{}, false
	}
	if e.next != nil {
		return *e.next, true
	}
	if e.inFlight != nil {
		return *e.inFlight, true
	}
	return Edit{}, false
}

// Discard drops any pending snapshot for id and waits until no write for id
// is in flight.
func (c *Coalescer) Discard(ctx context.Context, id prompt.ID) error {
	c.mu.Lock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	e.next = nil
	e.poke()
	c.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return errors.NewCancelled("discard pending save")
	}
}

// Flush writes every pending snapshot without waiting out throttle intervals
// and returns once all drain loops are idle.
func (c *Coalescer) Flush(ctx context.Context) error {
	c.flushing.Add(1)
	defer c.flushing.Add(-1)

	for {
		c.mu.Lock()
		dones := make([]chan struct{}, 0, len(c.entries))
		for _, e := range c.entries {
			e.poke()
			dones = append(dones, e.done)
		}
		c.mu.Unlock()

		if len(dones) == 0 {
			return nil
		}
		for _, done := range dones {
			select {
			case <-done:
			case <-ctx.Done():
				return errors.NewCancelled("flush")
			}
		}
	}
}

// Close flushes pending writes and rejects further submits.
func (c *Coalescer) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.Flush(ctx)
}
