package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
	"github.com/hpungsan/promptlib/internal/save"
)

// DuplicateSuffix is appended to the title of a duplicated prompt.
const DuplicateSuffix = " copy"

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Title   string
	Default bool
	Body    string
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID     string `json:"id"`
	Reused bool   `json:"reused"`
}

// Create starts a new user prompt and enqueues its first save. An untitled
// request reuses the first listed prompt when that prompt is untitled and
// empty, rather than piling up blank entries.
func (l *Library) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	title := prompt.CleanTitle(input.Title)

	if title == nil {
		if first, ok := st.First(); ok && first.Title == nil && !first.ID.IsBuiltIn() {
			text, _, err := l.body(ctx, st, saver, first.ID)
			if err == nil && text == "" {
				if input.Body != "" || input.Default != first.Default {
					edit := save.Edit{Default: input.Default, Body: input.Body}
					if err := saver.Submit(first.ID, edit); err != nil {
						return nil, err
					}
				}
				return &CreateOutput{ID: first.ID.String(), Reused: true}, nil
			}
		}
	}

	id := prompt.NewID()
	edit := save.Edit{Title: title, Default: input.Default, Body: input.Body}
	if err := saver.Submit(id, edit); err != nil {
		return nil, err
	}
	return &CreateOutput{ID: id.String()}, nil
}

// DuplicateInput contains parameters for the Duplicate operation.
type DuplicateInput struct {
	ID string
}

// DuplicateOutput contains the result of the Duplicate operation.
type DuplicateOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Duplicate copies a prompt under a fresh ID with " copy" appended to its
// title. When another prompt already has that title a counter is added
// instead: " copy 1", " copy 2", and so on.
func (l *Library) Duplicate(ctx context.Context, input DuplicateInput) (*DuplicateOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}
	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	source, ok := st.Metadata(id)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}
	text, _, err := l.body(ctx, st, saver, id)
	if err != nil {
		return nil, err
	}

	base := source.TitleOrEmpty()
	existing := make(map[string]struct{})
	for _, m := range st.List() {
		if m.ID == id {
			continue
		}
		if t := m.TitleOrEmpty(); strings.HasPrefix(t, base) {
			existing[t] = struct{}{}
		}
	}
	title := duplicateTitle(base, existing)

	newID := prompt.NewID()
	if err := saver.Submit(newID, save.Edit{Title: prompt.StringPtr(title), Body: text}); err != nil {
		return nil, err
	}
	return &DuplicateOutput{ID: newID.String(), Title: title}, nil
}

func duplicateTitle(base string, existing map[string]struct{}) string {
	if _, taken := existing[base+DuplicateSuffix]; !taken {
		return base + DuplicateSuffix
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s%s %d", base, DuplicateSuffix, i)
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}
