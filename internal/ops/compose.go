package ops

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// ComposeInput contains parameters for the ComposeDefault operation.
type ComposeInput struct {
	Format string // "text" (default), "markdown" or "json"
}

// ComposeOutput contains the result of the ComposeDefault operation.
type ComposeOutput struct {
	Text       string   `json:"text"`
	PartsCount int      `json:"parts_count"`
	IDs        []string `json:"ids"`
}

// ComposePart is one default prompt in a composed bundle.
type ComposePart struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ComposeBundle is the JSON format output structure.
type ComposeBundle struct {
	Parts []ComposePart `json:"parts"`
}

// ComposeDefault assembles the default prompt: the bodies of every prompt
// flagged default, in listing order, separated by a blank line. Bodies on
// disk are read from one snapshot; unsaved edits take precedence.
func (l *Library) ComposeDefault(ctx context.Context, input ComposeInput) (*ComposeOutput, error) {
	format := input.Format
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "markdown" && format != "json" {
		return nil, errors.NewInvalidRequest("format must be one of: text, markdown, json")
	}

	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	defaults := st.DefaultMetadata()
	parts := make([]ComposePart, 0, len(defaults))
	err = st.ReadSnapshot(ctx, func(get func(prompt.ID) (string, error)) error {
		for _, m := range defaults {
			if err := ctx.Err(); err != nil {
				return errors.NewCancelled("compose")
			}

			var text string
			if edit, ok := saver.Pending(m.ID); ok {
				text = prompt.NormalizeLineEndings(edit.Body)
			} else {
				var err error
				text, err = get(m.ID)
				if errors.Is(err, errors.ErrNotFound) {
					// Deleted since the listing was taken.
					continue
				}
				if err != nil {
					return err
				}
			}
			parts = append(parts, ComposePart{
				ID:    m.ID.String(),
				Title: m.DisplayTitle(),
				Body:  text,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var text string
	switch format {
	case "markdown":
		text = assembleMarkdown(parts)
	case "json":
		text, err = assembleJSON(parts)
		if err != nil {
			return nil, err
		}
	default:
		text = assembleText(parts)
	}

	ids := make([]string, len(parts))
	for i, p := range parts {
		ids[i] = p.ID
	}
	return &ComposeOutput{Text: text, PartsCount: len(parts), IDs: ids}, nil
}

func assembleText(parts []ComposePart) string {
	bodies := make([]string, len(parts))
	for i, p := range parts {
		bodies[i] = p.Body
	}
	return strings.Join(bodies, "\n\n")
}

// assembleMarkdown creates markdown format: ## heading\n\nbody\n\n---\n\n...
func assembleMarkdown(parts []ComposePart) string {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteString("\n\n---\n\n")
		}
		sb.WriteString("## ")
		sb.WriteString(part.Title)
		sb.WriteString("\n\n")
		sb.WriteString(part.Body)
	}
	return sb.String()
}

func assembleJSON(parts []ComposePart) (string, error) {
	data, err := json.MarshalIndent(ComposeBundle{Parts: parts}, "", "  ")
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}
