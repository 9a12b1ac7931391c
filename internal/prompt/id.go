package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind tags an ID as a user prompt or one of the built-in prompts.
type Kind string

const (
	KindUser Kind = "User"

	// KindEditWorkflow is a retired built-in. It is purged from storage on every open.
	KindEditWorkflow Kind = "EditWorkflow"

	// KindCommitMessage is the built-in prompt used for commit message generation.
	KindCommitMessage Kind = "CommitMessage"
)

var builtInKinds = map[Kind]bool{
	KindEditWorkflow:  true,
	KindCommitMessage: true,
}

const (
	userPrefix    = "user:"
	builtInPrefix = "builtin:"
)

// ID identifies a prompt. It is comparable and safe to use as a map key.
// The zero value is not a valid ID.
type ID struct {
	kind Kind
	uuid uuid.UUID
}

// NewID returns a fresh user ID backed by a random (v4) UUID.
func NewID() ID {
	return ID{kind: KindUser, uuid: uuid.New()}
}

// UserID returns the user ID for an existing UUID.
func UserID(u uuid.UUID) ID {
	return ID{kind: KindUser, uuid: u}
}

// BuiltIn returns the ID for a built-in kind.
func BuiltIn(kind Kind) (ID, error) {
	if !builtInKinds[kind] {
		return ID{}, fmt.Errorf("unknown built-in prompt kind %q", kind)
	}
	return ID{kind: kind}, nil
}

var (
	EditWorkflow  = ID{kind: KindEditWorkflow}
	CommitMessage = ID{kind: KindCommitMessage}
)

func (id ID) Kind() Kind { return id.kind }

// UUID returns the UUID of a user ID, or uuid.Nil for built-ins.
func (id ID) UUID() uuid.UUID { return id.uuid }

// IsBuiltIn reports whether id names a built-in prompt. Built-ins cannot be
// retitled, re-bodied or deleted.
func (id ID) IsBuiltIn() bool {
	return id.kind != KindUser
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.kind == ""
}

// String returns the textual form: "user:<uuid>" or "builtin:<kind>".
func (id ID) String() string {
	switch {
	case id.IsZero():
		return ""
	case id.kind == KindUser:
		return userPrefix + id.uuid.String()
	default:
		return builtInPrefix + string(id.kind)
	}
}

// ParseID parses the textual form produced by String. A bare UUID is accepted
// as a user ID.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, builtInPrefix); ok {
		return BuiltIn(Kind(rest))
	}
	s = strings.TrimPrefix(s, userPrefix)
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid prompt id %q: %w", s, err)
	}
	return UserID(u), nil
}

// wireID is the self-describing on-disk form of an ID.
type wireID struct {
	Kind Kind   `json:"kind"`
	UUID string `json:"uuid,omitempty"`
}

// MarshalJSON encodes id as {"kind":"User","uuid":"…"} or {"kind":"<BuiltIn>"}.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("cannot encode zero prompt id")
	}
	w := wireID{Kind: id.kind}
	if id.kind == KindUser {
		w.UUID = id.uuid.String()
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (id *ID) UnmarshalJSON(data []byte) error {
	var w wireID
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Kind == KindUser {
		u, err := uuid.Parse(w.UUID)
		if err != nil {
			return fmt.Errorf("invalid user prompt uuid %q: %w", w.UUID, err)
		}
		*id = UserID(u)
		return nil
	}
	parsed, err := BuiltIn(w.Kind)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Key returns the storage key for id (its JSON form).
func (id ID) Key() (string, error) {
	b, err := id.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
