package ops

import (
	"context"
)

// Pagination limits
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit       int  // default: 100, max: 500
	Offset      int  // default: 0
	DefaultOnly bool // only prompts flagged default
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []Summary  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// List returns prompt summaries in listing order: untitled first, then by
// title, newest first among equal titles.
func (l *Library) List(ctx context.Context, input ListInput) (*ListOutput, error) {
	st, _, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	all := st.List()
	if input.DefaultOnly {
		all = st.DefaultMetadata()
	}
	total := len(all)

	start := min(offset, total)
	end := min(start+limit, total)

	return &ListOutput{
		Items: summarizeAll(all[start:end]),
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: end < total,
			Total:   total,
		},
	}, nil
}

// ListDefault returns every prompt flagged default, in listing order.
func (l *Library) ListDefault(ctx context.Context) ([]Summary, error) {
	st, _, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}
	return summarizeAll(st.DefaultMetadata()), nil
}
