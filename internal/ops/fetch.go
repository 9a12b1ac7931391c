package ops

import (
	"context"

	"github.com/hpungsan/promptlib/internal/errors"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID string
}

// GetOutput contains the result of the Get operation.
type GetOutput struct {
	Summary
	Body string `json:"body"`
	// Unsaved reports that Body comes from an edit not yet written to disk.
	Unsaved bool `json:"unsaved"`
}

// Get returns a prompt's metadata and its newest body.
func (l *Library) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	id, err := parseID(input.ID)
	if err != nil {
		return nil, err
	}
	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	m, ok := st.Metadata(id)
	if !ok {
		return nil, errors.NewNotFound(input.ID)
	}
	text, unsaved, err := l.body(ctx, st, saver, id)
	if err != nil {
		return nil, err
	}

	return &GetOutput{Summary: summarize(m), Body: text, Unsaved: unsaved}, nil
}

// FindByTitleInput contains parameters for the FindByTitle operation.
type FindByTitleInput struct {
	Title string
}

// FindByTitle returns the prompt whose title is exactly input.Title.
func (l *Library) FindByTitle(ctx context.Context, input FindByTitleInput) (*Summary, error) {
	if input.Title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	st, _, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	id, ok := st.IDForTitle(input.Title)
	if !ok {
		return nil, errors.NewNotFound(input.Title)
	}
	m, ok := st.Metadata(id)
	if !ok {
		return nil, errors.NewNotFound(input.Title)
	}
	s := summarize(m)
	return &s, nil
}
