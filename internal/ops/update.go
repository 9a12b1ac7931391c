package ops

import (
	"context"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
	"github.com/hpungsan/promptlib/internal/save"
)

// EditInput contains parameters for the Edit operation. Nil fields keep their
// current value.
type EditInput struct {
	ID    string
	Title *string
	Body  *string
}

// EditOutput contains the result of the Edit operation.
type EditOutput struct {
	ID      string  `json:"id"`
	Title   *string `json:"title"`
	Default bool    `json:"default"`
}

// Edit schedules a coalesced save of a user prompt. A blank title clears it.
// The default flag is carried over from the current record.
func (l *Library) Edit(ctx context.Context, input EditInput) (*EditOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}
	if id.IsBuiltIn() {
		return nil, errors.NewPermissionDenied(id.String(), "edited")
	}
	if input.Title == nil && input.Body == nil {
		return nil, errors.NewInvalidRequest("nothing to edit: provide title or body")
	}

	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}
	current, ok := st.Metadata(id)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}

	edit := save.Edit{Title: current.Title, Default: current.Default}
	if input.Title != nil {
		edit.Title = prompt.CleanTitle(*input.Title)
	}
	if input.Body != nil {
		edit.Body = *input.Body
	} else {
		text, _, err := l.body(ctx, st, saver, id)
		if err != nil {
			return nil, err
		}
		edit.Body = text
	}

	if err := saver.Submit(id, edit); err != nil {
		return nil, err
	}
	return &EditOutput{ID: id.String(), Title: edit.Title, Default: edit.Default}, nil
}

// ToggleDefaultInput contains parameters for the ToggleDefault operation.
type ToggleDefaultInput struct {
	ID string
}

// ToggleDefaultOutput contains the result of the ToggleDefault operation.
type ToggleDefaultOutput struct {
	ID      string `json:"id"`
	Default bool   `json:"default"`
}

// ToggleDefault flips whether a prompt is part of the default prompt. It is
// the one change allowed on built-in prompts.
func (l *Library) ToggleDefault(ctx context.Context, input ToggleDefaultInput) (*ToggleDefaultOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}
	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	// A pending edit would write the old flag back, so fold the toggle into it.
	if edit, ok := saver.Pending(id); ok {
		edit.Default = !edit.Default
		if err := saver.Submit(id, edit); err != nil {
			return nil, err
		}
		return &ToggleDefaultOutput{ID: id.String(), Default: edit.Default}, nil
	}

	current, ok := st.Metadata(id)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}
	m, err := st.PutMetadata(ctx, id, current.Title, !current.Default)
	if err != nil {
		return nil, err
	}
	return &ToggleDefaultOutput{ID: id.String(), Default: m.Default}, nil
}
