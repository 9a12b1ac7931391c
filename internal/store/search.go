package store

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/sahilm/fuzzy"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// titleSource adapts titled metadata to fuzzy.Source.
type titleSource []prompt.Metadata

func (s titleSource) String(i int) string { return *s[i].Title }
func (s titleSource) Len() int            { return len(s) }

// Search fuzzy-matches query against cached titles. An empty query returns
// every record in listing order, uncapped. Matches are capped at the
// configured maximum. Either way the result is stably reordered so defaults
// come first. Untitled records only appear for the empty query.
func (s *Store) Search(ctx context.Context, query string) ([]prompt.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("search")
	}

	all := s.cache.list()
	results := all
	if query != "" {
		candidates := make(titleSource, 0, len(all))
		for _, m := range all {
			if m.Title != nil {
				candidates = append(candidates, m)
			}
		}

		matches := fuzzy.FindFrom(query, candidates)
		if len(matches) > s.maxSearchResults {
			matches = matches[:s.maxSearchResults]
		}

		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled("search")
		}

		results = make([]prompt.Metadata, 0, len(matches))
		for _, match := range matches {
			results = append(results, candidates[match.Index])
		}
	}

	// Stable, so listing or match order holds within each group.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Default && !results[j].Default
	})
	return results, nil
}

// Session runs searches on behalf of one interactive caller. Starting a new
// search supersedes any search still running, whose result is then reported
// as cancelled.
type Session struct {
	search     func(ctx context.Context, query string) ([]prompt.Metadata, error)
	generation atomic.Uint64
}

// NewSession returns a search session over s.
func (s *Store) NewSession() *Session {
	return &Session{search: s.Search}
}

// Search runs a store search stamped with a new generation.
func (sess *Session) Search(ctx context.Context, query string) ([]prompt.Metadata, error) {
	gen := sess.generation.Add(1)

	results, err := sess.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if sess.generation.Load() != gen {
		return nil, errors.NewCancelled("search")
	}
	return results, nil
}

// Supersede invalidates any search in flight without starting a new one.
func (sess *Session) Supersede() {
	sess.generation.Add(1)
}
