package prompt

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_StructuralEquality(t *testing.T) {
	u := uuid.New()
	a := UserID(u)
	b := UserID(u)
	require.Equal(t, a, b)
	require.True(t, a == b)

	m := map[ID]int{a: 1}
	require.Equal(t, 1, m[b])

	require.NotEqual(t, NewID(), NewID())
}

func TestID_IsBuiltIn(t *testing.T) {
	assert.False(t, NewID().IsBuiltIn())
	assert.True(t, CommitMessage.IsBuiltIn())
	assert.True(t, EditWorkflow.IsBuiltIn())
}

func TestBuiltIn_UnknownKind(t *testing.T) {
	_, err := BuiltIn("Nope")
	require.Error(t, err)
	_, err = BuiltIn(KindUser)
	require.Error(t, err)
}

func TestID_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want string
	}{
		{"user", UserID(uuid.MustParse("7c3f1a9e-2b4d-4e8f-9a1b-3c5d7e9f1a2b")), `{"kind":"User","uuid":"7c3f1a9e-2b4d-4e8f-9a1b-3c5d7e9f1a2b"}`},
		{"commit message", CommitMessage, `{"kind":"CommitMessage"}`},
		{"edit workflow", EditWorkflow, `{"kind":"EditWorkflow"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.id)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(data))

			var got ID
			require.NoError(t, json.Unmarshal(data, &got))
			require.Equal(t, tt.id, got)
		})
	}
}

func TestID_UnmarshalRejectsGarbage(t *testing.T) {
	var id ID
	require.Error(t, json.Unmarshal([]byte(`{"kind":"User","uuid":"not-a-uuid"}`), &id))
	require.Error(t, json.Unmarshal([]byte(`{"kind":"Mystery"}`), &id))
}

func TestID_MarshalZero(t *testing.T) {
	_, err := json.Marshal(ID{})
	require.Error(t, err)
}

func TestParseID(t *testing.T) {
	u := uuid.New()

	got, err := ParseID("user:" + u.String())
	require.NoError(t, err)
	require.Equal(t, UserID(u), got)

	got, err = ParseID(u.String())
	require.NoError(t, err)
	require.Equal(t, UserID(u), got)

	got, err = ParseID("builtin:CommitMessage")
	require.NoError(t, err)
	require.Equal(t, CommitMessage, got)

	_, err = ParseID("builtin:Nope")
	require.Error(t, err)
	_, err = ParseID("garbage")
	require.Error(t, err)

	roundTrip, err := ParseID(CommitMessage.String())
	require.NoError(t, err)
	require.Equal(t, CommitMessage, roundTrip)
}

func TestCompare_TitleThenRecency(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	untitled := Metadata{ID: NewID(), SavedAt: base}
	alphaOld := Metadata{ID: NewID(), Title: StringPtr("Alpha"), SavedAt: base}
	alphaNew := Metadata{ID: NewID(), Title: StringPtr("Alpha"), SavedAt: base.Add(time.Hour)}
	beta := Metadata{ID: NewID(), Title: StringPtr("Beta"), SavedAt: base.Add(-time.Hour)}

	items := []Metadata{beta, alphaOld, untitled, alphaNew}
	slices.SortFunc(items, Compare)

	require.Equal(t, []ID{untitled.ID, alphaNew.ID, alphaOld.ID, beta.ID},
		[]ID{items[0].ID, items[1].ID, items[2].ID, items[3].ID})
}

func TestNextSavedAt(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	first := NextSavedAt(time.Time{}, now)
	require.Equal(t, now.Truncate(time.Microsecond), first)

	// Same clock reading must still advance.
	second := NextSavedAt(first, now)
	require.True(t, second.After(first))

	// Clock going backwards must still advance.
	third := NextSavedAt(second, now.Add(-time.Hour))
	require.True(t, third.After(second))

	require.Equal(t, time.UTC, third.Location())
}

func TestNormalizeLineEndings(t *testing.T) {
	require.Equal(t, "a\nb\nc\n", NormalizeLineEndings("a\r\nb\rc\n"))
	require.Equal(t, "plain", NormalizeLineEndings("plain"))
}

func TestCleanTitle(t *testing.T) {
	require.Nil(t, CleanTitle("   "))
	require.Nil(t, CleanTitle(""))
	got := CleanTitle("  Foo ")
	require.NotNil(t, got)
	require.Equal(t, "Foo", *got)
}

func TestMetadata_JSONRoundTrip(t *testing.T) {
	m := Metadata{
		ID:      NewID(),
		Title:   StringPtr("Greeting"),
		Default: true,
		SavedAt: NextSavedAt(time.Time{}, time.Now()),
	}
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var got Metadata
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, *m.Title, *got.Title)
	require.True(t, m.SavedAt.Equal(got.SavedAt))
}
