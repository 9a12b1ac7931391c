package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hpungsan/promptlib/internal/errors"
)

// Handle opens a Store at most once and shares the result, success or
// failure, with every caller of Get.
type Handle struct {
	dir  string
	opts []Option

	once    sync.Once
	started atomic.Bool
	done    chan struct{}
	store   *Store
	err     error
}

// NewHandle returns a Handle that opens dir with opts on first use.
func NewHandle(dir string, opts ...Option) *Handle {
	return &Handle{
		dir:  dir,
		opts: opts,
		done: make(chan struct{}),
	}
}

// Start begins opening the store in the background. Calling it again has no
// effect; Get calls it implicitly.
func (h *Handle) Start() {
	h.once.Do(func() {
		h.started.Store(true)
		go func() {
			defer close(h.done)
			st, err := Open(context.Background(), h.dir, h.opts...)
			if err != nil && !errors.Is(err, errors.ErrStorageFailure) {
				err = errors.NewStorageFailure("open store", err)
			}
			h.store, h.err = st, err
		}()
	})
}

// Get waits for the store to finish opening. If ctx ends first the open keeps
// running and Get returns a cancelled error.
func (h *Handle) Get(ctx context.Context) (*Store, error) {
	h.Start()
	select {
	case <-h.done:
		return h.store, h.err
	case <-ctx.Done():
		return nil, errors.NewCancelled("open store")
	}
}

// Close waits for any pending open and closes the store if it succeeded. A
// Handle that was never started is left unopened.
func (h *Handle) Close() error {
	if !h.started.Load() {
		return nil
	}
	<-h.done
	if h.store == nil {
		return nil
	}
	return h.store.Close()
}
