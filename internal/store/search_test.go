package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

func TestSearch_EmptyQueryReturnsAll(t *testing.T) {
	st := openTestStore(t)
	put(t, st, "zeta", false, "")
	put(t, st, "", false, "")
	eta := put(t, st, "eta", true, "")

	got, err := st.Search(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, len(st.List()))
	assert.Equal(t, eta.ID, got[0].ID)

	var rest []prompt.Metadata
	for _, m := range st.List() {
		if m.ID != eta.ID {
			rest = append(rest, m)
		}
	}
	assert.Equal(t, rest, got[1:])
}

func TestSearch_EmptyQueryDefaultsFirst(t *testing.T) {
	st := openTestStore(t)
	put(t, st, "alpha", false, "")
	zeta := put(t, st, "zeta", true, "")

	got, err := st.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, zeta.ID, got[0].ID)
	assert.Equal(t, []string{"zeta", "Commit message", "alpha"}, titles(got))
}

func TestSearch_EmptyQueryNotCapped(t *testing.T) {
	st := openTestStore(t, WithMaxSearchResults(2))
	for i := 0; i < 5; i++ {
		put(t, st, fmt.Sprintf("note %d", i), false, "")
	}

	got, err := st.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, len(st.List()))
}

func TestSearch_NoMatch(t *testing.T) {
	st := openTestStore(t)
	put(t, st, "hello", false, "")

	got, err := st.Search(context.Background(), "xyz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_UntitledNotCandidates(t *testing.T) {
	st := openTestStore(t)
	put(t, st, "", false, "untitled body")

	got, err := st.Search(context.Background(), "u")
	require.NoError(t, err)
	for _, m := range got {
		assert.NotNil(t, m.Title)
	}
}

func TestSearch_DefaultsFirst(t *testing.T) {
	st := openTestStore(t)
	plain := put(t, st, "review code", false, "")
	def := put(t, st, "review docs", true, "")

	got, err := st.Search(context.Background(), "review")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, def.ID, got[0].ID)
	assert.Equal(t, plain.ID, got[1].ID)
}

func TestSearch_FuzzySubsequence(t *testing.T) {
	st := openTestStore(t)
	want := put(t, st, "translate to french", false, "")
	put(t, st, "summarize", false, "")

	got, err := st.Search(context.Background(), "trfr")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, want.ID, got[0].ID)
}

func TestSearch_Capped(t *testing.T) {
	st := openTestStore(t, WithMaxSearchResults(3))
	for i := 0; i < 10; i++ {
		put(t, st, fmt.Sprintf("note %d", i), false, "")
	}

	got, err := st.Search(context.Background(), "note")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSearch_CancelledContext(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.Search(ctx, "anything")
	assert.True(t, errors.Is(err, errors.ErrCancelled))
}

func TestSession_LatestWins(t *testing.T) {
	st := openTestStore(t)
	put(t, st, "alpha", false, "")
	sess := st.NewSession()

	got, err := sess.Search(context.Background(), "alp")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSession_SupersededSearchCancelled(t *testing.T) {
	st := openTestStore(t)
	put(t, st, "alpha", false, "")
	sess := st.NewSession()

	started := make(chan struct{})
	release := make(chan struct{})
	sess.search = func(ctx context.Context, query string) ([]prompt.Metadata, error) {
		if query == "slow" {
			close(started)
			<-release
		}
		return st.Search(ctx, query)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := sess.Search(context.Background(), "slow")
		errc <- err
	}()

	<-started
	got, err := sess.Search(context.Background(), "alp")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	close(release)

	assert.True(t, errors.Is(<-errc, errors.ErrCancelled))
}

func TestSession_Supersede(t *testing.T) {
	st := openTestStore(t)
	sess := st.NewSession()

	release := make(chan struct{})
	sess.search = func(ctx context.Context, query string) ([]prompt.Metadata, error) {
		<-release
		return st.Search(ctx, query)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := sess.Search(context.Background(), "")
		errc <- err
	}()

	// Wait until the search has taken its generation.
	require.Eventually(t, func() bool { return sess.generation.Load() == 1 }, time.Second, time.Millisecond)
	sess.Supersede()
	close(release)

	assert.True(t, errors.Is(<-errc, errors.ErrCancelled))
}
