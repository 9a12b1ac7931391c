package ops

import (
	"context"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query string
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items []Summary `json:"items"`
	Query string    `json:"query"`
}

// Search fuzzy-matches prompt titles. A search started while another is
// running supersedes it; the older one returns a cancelled error.
func (l *Library) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if _, _, err := l.ready(ctx); err != nil {
		return nil, err
	}

	l.mu.Lock()
	session := l.session
	l.mu.Unlock()

	results, err := session.Search(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Items: summarizeAll(results), Query: input.Query}, nil
}
