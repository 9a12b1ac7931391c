package ops

import (
	"context"

	"github.com/hpungsan/promptlib/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes a user prompt. Pending saves are dropped first so they
// cannot bring the prompt back.
func (l *Library) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}
	if id.IsBuiltIn() {
		return nil, errors.NewPermissionDenied(id.String(), "deleted")
	}

	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := st.Metadata(id); !ok {
		return nil, errors.NewNotFound(input.ID)
	}

	if err := saver.Discard(ctx, id); err != nil {
		return nil, err
	}
	if err := st.Delete(ctx, id); err != nil {
		return nil, err
	}

	return &DeleteOutput{Deleted: true, ID: id.String()}, nil
}
