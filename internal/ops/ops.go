// Package ops implements the prompt library operations shared by the CLI and
// the MCP server.
package ops

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/promptlib/internal/config"
	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
	"github.com/hpungsan/promptlib/internal/save"
	"github.com/hpungsan/promptlib/internal/store"
)

// Summary is the listing view of one prompt.
type Summary struct {
	ID           string    `json:"id"`
	Title        *string   `json:"title"`
	DisplayTitle string    `json:"display_title"`
	Default      bool      `json:"default"`
	BuiltIn      bool      `json:"built_in"`
	SavedAt      time.Time `json:"saved_at"`
}

func summarize(m prompt.Metadata) Summary {
	return Summary{
		ID:           m.ID.String(),
		Title:        m.Title,
		DisplayTitle: m.DisplayTitle(),
		Default:      m.Default,
		BuiltIn:      m.ID.IsBuiltIn(),
		SavedAt:      m.SavedAt,
	}
}

func summarizeAll(ms []prompt.Metadata) []Summary {
	out := make([]Summary, len(ms))
	for i, m := range ms {
		out[i] = summarize(m)
	}
	return out
}

// Library wires the store, the save coalescer and configuration together.
type Library struct {
	handle     *store.Handle
	cfg        *config.Config
	logger     *slog.Logger
	exportsDir string
	session    *store.Session

	mu    sync.Mutex
	st    *store.Store
	saver *save.Coalescer
}

// Open returns a Library over the store in dir and starts opening the store
// in the background.
func Open(dir string, cfg *config.Config, logger *slog.Logger) *Library {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	handle := store.NewHandle(dir,
		store.WithConfig(cfg),
		store.WithLogger(logger),
	)
	handle.Start()
	return &Library{
		handle:     handle,
		cfg:        cfg,
		logger:     logger,
		exportsDir: ExportsDir(dir),
	}
}

func (l *Library) ready(ctx context.Context) (*store.Store, *save.Coalescer, error) {
	st, err := l.handle.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.saver == nil {
		l.st = st
		l.session = st.NewSession()
		l.saver = save.New(st,
			save.WithThrottle(l.cfg.SaveThrottle()),
			save.WithLogger(l.logger),
		)
	}
	return st, l.saver, nil
}

// Flush writes every pending edit now.
func (l *Library) Flush(ctx context.Context) error {
	l.mu.Lock()
	saver := l.saver
	l.mu.Unlock()
	if saver == nil {
		return nil
	}
	return saver.Flush(ctx)
}

// Close flushes pending edits and closes the store.
func (l *Library) Close(ctx context.Context) error {
	l.mu.Lock()
	saver := l.saver
	l.mu.Unlock()

	var flushErr error
	if saver != nil {
		flushErr = saver.Close(ctx)
	}
	if err := l.handle.Close(); err != nil {
		return errors.NewStorageFailure("close store", err)
	}
	return flushErr
}

// parseID parses a prompt identifier argument.
func parseID(s string) (prompt.ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return prompt.ID{}, errors.NewInvalidRequest("id is required")
	}
	id, err := prompt.ParseID(s)
	if err != nil {
		return prompt.ID{}, errors.NewInvalidRequest(err.Error())
	}
	return id, nil
}

// body returns the newest body for id: the pending edit if there is one,
// otherwise what is on disk.
func (l *Library) body(ctx context.Context, st *store.Store, saver *save.Coalescer, id prompt.ID) (string, bool, error) {
	if edit, ok := saver.Pending(id); ok {
		return prompt.NormalizeLineEndings(edit.Body), true, nil
	}
	text, err := st.GetBody(ctx, id)
	return text, false, err
}
