// Package store is the persistent prompt store: a sqlite environment holding
// the metadata and body keyspaces, fronted by an in-memory metadata cache.
//
// Writes are optimistic. Put, PutMetadata and Delete update the cache before
// the durable transaction is committed, so listings reflect an edit at once.
// A process crash between the cache update and the commit loses that edit.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/hpungsan/promptlib/internal/config"
	"github.com/hpungsan/promptlib/internal/db"
	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// DefaultMaxSearchResults caps fuzzy search results when not configured.
const DefaultMaxSearchResults = 100

// Store is safe for concurrent use.
type Store struct {
	db     *sql.DB
	cache  *metadataCache
	logger *slog.Logger
	now    func() time.Time

	maxSearchResults int

	closeOnce sync.Once
	closeErr  error
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger           *slog.Logger
	now              func() time.Time
	maxSearchResults int
	cfg              *config.Config
}

// WithLogger sets the logger used for migration and background reports.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock overrides the clock used for SavedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithConfig applies pool and search settings from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithMaxSearchResults caps the number of fuzzy search matches.
func WithMaxSearchResults(n int) Option {
	return func(o *options) { o.maxSearchResults = n }
}

// Open opens the store rooted at dir, creating it if needed. It purges retired
// built-ins, seeds missing built-ins, folds any legacy data into the current
// tables, and loads the metadata cache from a single read transaction.
// Legacy migration failures are logged and do not fail Open.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	o := options{
		logger:           slog.New(slog.DiscardHandler),
		now:              time.Now,
		maxSearchResults: DefaultMaxSearchResults,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cfg != nil && o.cfg.MaxSearchResults > 0 {
		o.maxSearchResults = o.cfg.MaxSearchResults
	}

	database, err := db.Init(dir)
	if err != nil {
		return nil, errors.NewStorageFailure("open database", err)
	}
	db.ConfigurePool(database, o.cfg)

	records, err := prepare(ctx, database, o)
	if err != nil {
		database.Close()
		return nil, err
	}

	o.logger.Debug("prompt store opened", "dir", dir, "prompts", len(records))

	return &Store{
		db:               database,
		cache:            newMetadataCache(records),
		logger:           o.logger,
		now:              o.now,
		maxSearchResults: o.maxSearchResults,
	}, nil
}

func prepare(ctx context.Context, database *sql.DB, o options) ([]prompt.Metadata, error) {
	if err := db.PurgeRetired(ctx, database, prompt.Retired); err != nil {
		return nil, err
	}

	report, err := db.UpgradeLegacy(ctx, database)
	if err != nil {
		o.logger.Error("legacy prompt migration failed", "error", err)
	} else if report.Scanned > 0 {
		o.logger.Info("legacy prompts migrated",
			"scanned", report.Scanned, "migrated", report.Migrated, "skipped", report.Skipped)
	}

	if err := db.SeedBuiltIns(ctx, database, prompt.BuiltIns, o.now()); err != nil {
		return nil, err
	}

	var records []prompt.Metadata
	err = db.WithReadTx(ctx, database, func(tx *sql.Tx) error {
		var scanErr error
		records, scanErr = db.ScanMetadata(ctx, tx)
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying database. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// GetBody returns the body for id with line endings normalized.
func (s *Store) GetBody(ctx context.Context, id prompt.ID) (string, error) {
	body, err := db.GetBody(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	return prompt.NormalizeLineEndings(body), nil
}

// Stage records new metadata for a user prompt in the cache without touching
// disk. The durable write is expected to follow through Put.
func (s *Store) Stage(id prompt.ID, title *string, isDefault bool) (prompt.Metadata, error) {
	if id.IsBuiltIn() {
		return prompt.Metadata{}, errors.NewPermissionDenied(id.String(), "saved")
	}
	return s.stage(id, title, isDefault), nil
}

func (s *Store) stage(id prompt.ID, title *string, isDefault bool) prompt.Metadata {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()

	prev := s.cache.byID[id]
	m := prompt.Metadata{
		ID:      id,
		Title:   title,
		Default: isDefault,
		SavedAt: prompt.NextSavedAt(prev.SavedAt, s.now()),
	}
	s.cache.insertLocked(m)
	return m
}

// Put saves the metadata and body of a user prompt. The cache is updated
// first; both keyspaces are then written in one transaction.
func (s *Store) Put(ctx context.Context, id prompt.ID, title *string, isDefault bool, body string) (prompt.Metadata, error) {
	if id.IsBuiltIn() {
		return prompt.Metadata{}, errors.NewPermissionDenied(id.String(), "saved")
	}

	m := s.stage(id, title, isDefault)
	body = prompt.NormalizeLineEndings(body)

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := db.PutMetadata(ctx, tx, m); err != nil {
			return err
		}
		return db.PutBody(ctx, tx, id, body)
	})
	return m, err
}

// PutMetadata saves metadata only, leaving the body untouched. For built-in
// prompts the title argument is ignored and the stored title is kept, so only
// the default flag can change.
func (s *Store) PutMetadata(ctx context.Context, id prompt.ID, title *string, isDefault bool) (prompt.Metadata, error) {
	s.cache.mu.Lock()
	prev, ok := s.cache.byID[id]
	if !ok {
		s.cache.mu.Unlock()
		return prompt.Metadata{}, errors.NewNotFound(id.String())
	}
	if id.IsBuiltIn() {
		title = prev.Title
	}
	m := prompt.Metadata{
		ID:      id,
		Title:   title,
		Default: isDefault,
		SavedAt: prompt.NextSavedAt(prev.SavedAt, s.now()),
	}
	s.cache.insertLocked(m)
	s.cache.mu.Unlock()

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return db.PutMetadata(ctx, tx, m)
	})
	return m, err
}

// Delete removes a user prompt from the cache and then from both keyspaces.
func (s *Store) Delete(ctx context.Context, id prompt.ID) error {
	if id.IsBuiltIn() {
		return errors.NewPermissionDenied(id.String(), "deleted")
	}

	s.cache.remove(id)

	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return db.Delete(ctx, tx, id)
	})
}

// Metadata returns the cached metadata for id.
func (s *Store) Metadata(id prompt.ID) (prompt.Metadata, bool) {
	return s.cache.get(id)
}

// List returns every cached record in listing order.
func (s *Store) List() []prompt.Metadata {
	return s.cache.list()
}

// DefaultMetadata returns the cached records flagged default, in listing order.
func (s *Store) DefaultMetadata() []prompt.Metadata {
	return s.cache.defaults()
}

// IDForTitle returns the ID of the first cached record with exactly this title.
func (s *Store) IDForTitle(title string) (prompt.ID, bool) {
	return s.cache.idForTitle(title)
}

// First returns the first record in listing order.
func (s *Store) First() (prompt.Metadata, bool) {
	return s.cache.first()
}

// Count returns the number of cached records.
func (s *Store) Count() int {
	return s.cache.count()
}

// ReadSnapshot runs fn with a read-only transaction so several body reads see
// one point-in-time state.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(get func(prompt.ID) (string, error)) error) error {
	return db.WithReadTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(func(id prompt.ID) (string, error) {
			body, err := db.GetBody(ctx, tx, id)
			if err != nil {
				return "", err
			}
			return prompt.NormalizeLineEndings(body), nil
		})
	})
}
