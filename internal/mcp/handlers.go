package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	lib *ops.Library
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(lib *ops.Library) *Handlers {
	return &Handlers{lib: lib}
}

// Request types for each tool

// IDRequest addresses a single prompt.
type IDRequest struct {
	ID string `json:"id"`
}

// CreateRequest represents the arguments for prompt_create.
type CreateRequest struct {
	Title   string `json:"title,omitempty"`
	Body    string `json:"body,omitempty"`
	Default bool   `json:"default,omitempty"`
}

// EditRequest represents the arguments for prompt_edit.
type EditRequest struct {
	ID    string  `json:"id"`
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// ListRequest represents the arguments for prompt_list.
type ListRequest struct {
	Limit       int  `json:"limit,omitempty"`
	Offset      int  `json:"offset,omitempty"`
	DefaultOnly bool `json:"default_only,omitempty"`
}

// FindRequest represents the arguments for prompt_find.
type FindRequest struct {
	Title string `json:"title"`
}

// SearchRequest represents the arguments for prompt_search.
type SearchRequest struct {
	Query string `json:"query,omitempty"`
}

// ComposeRequest represents the arguments for prompt_compose.
type ComposeRequest struct {
	Format string `json:"format,omitempty"`
}

// ExportRequest represents the arguments for prompt_export.
type ExportRequest struct {
	Path  string `json:"path,omitempty"`
	Label string `json:"label,omitempty"`
}

// ImportRequest represents the arguments for prompt_import.
type ImportRequest struct {
	Paths []string `json:"paths"`
}

// Handler implementations

// HandleCreate handles the prompt_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Create(ctx, ops.CreateInput{
		Title:   input.Title,
		Default: input.Default,
		Body:    input.Body,
	}))
}

// HandleGet handles the prompt_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Get(ctx, ops.GetInput{ID: input.ID}))
}

// HandleEdit handles the prompt_edit tool call.
func (h *Handlers) HandleEdit(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EditRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Edit(ctx, ops.EditInput{
		ID:    input.ID,
		Title: input.Title,
		Body:  input.Body,
	}))
}

// HandleToggleDefault handles the prompt_toggle_default tool call.
func (h *Handlers) HandleToggleDefault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.ToggleDefault(ctx, ops.ToggleDefaultInput{ID: input.ID}))
}

// HandleDelete handles the prompt_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Delete(ctx, ops.DeleteInput{ID: input.ID}))
}

// HandleDuplicate handles the prompt_duplicate tool call.
func (h *Handlers) HandleDuplicate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Duplicate(ctx, ops.DuplicateInput{ID: input.ID}))
}

// HandleList handles the prompt_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.List(ctx, ops.ListInput{
		Limit:       input.Limit,
		Offset:      input.Offset,
		DefaultOnly: input.DefaultOnly,
	}))
}

// HandleListDefault handles the prompt_list_default tool call.
func (h *Handlers) HandleListDefault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.lib.ListDefault(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"items": items})
}

// HandleFind handles the prompt_find tool call.
func (h *Handlers) HandleFind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FindRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.FindByTitle(ctx, ops.FindByTitleInput{Title: input.Title}))
}

// HandleSearch handles the prompt_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Search(ctx, ops.SearchInput{Query: input.Query}))
}

// HandleCompose handles the prompt_compose tool call.
func (h *Handlers) HandleCompose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ComposeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.ComposeDefault(ctx, ops.ComposeInput{Format: input.Format}))
}

// HandleExport handles the prompt_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Export(ctx, ops.ExportInput{Path: input.Path, Label: input.Label}))
}

// HandleImport handles the prompt_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.lib.Import(ctx, ops.ImportInput{Paths: input.Paths}))
}

// Result helpers

func respond[T any](out T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// INTERNAL and STORAGE_FAILURE details are withheld; they can carry file
// paths and SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var pErr *errors.PromptError
	if stderrors.As(err, &pErr) {
		// Keep wrapper context such as "items[2]: ..." in the message.
		msg := pErr.Message
		if outer := err.Error(); outer != pErr.Error() {
			msg = strings.TrimSuffix(outer, pErr.Error()) + pErr.Message
		}
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": msg,
		}
		private := pErr.Code == errors.ErrInternal || pErr.Code == errors.ErrStorageFailure
		if private {
			errorObj["message"] = "an internal error occurred"
		} else if pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
