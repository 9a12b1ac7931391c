package mcp

import "github.com/mark3labs/mcp-go/mcp"

var idParam = mcp.WithString("id",
	mcp.Required(),
	mcp.Description(`Prompt ID, e.g. "user:<uuid>" or "builtin:CommitMessage"`),
)

var createToolDef = mcp.NewTool("prompt_create",
	mcp.WithDescription("Create a prompt. Without a title, an existing empty untitled prompt is reused."),
	mcp.WithString("title", mcp.Description("Prompt title; blank means untitled")),
	mcp.WithString("body", mcp.Description("Prompt text")),
	mcp.WithBoolean("default", mcp.Description("Include the prompt in the composed default prompt")),
)

var getToolDef = mcp.NewTool("prompt_get",
	mcp.WithDescription("Get a prompt's metadata and body. Unsaved edits are returned when pending."),
	mcp.WithReadOnlyHintAnnotation(true),
	idParam,
)

var editToolDef = mcp.NewTool("prompt_edit",
	mcp.WithDescription("Edit a user prompt's title and/or body. Saves are coalesced; omit a field to keep it."),
	idParam,
	mcp.WithString("title", mcp.Description("New title; blank clears it")),
	mcp.WithString("body", mcp.Description("New prompt text")),
)

var toggleDefaultToolDef = mcp.NewTool("prompt_toggle_default",
	mcp.WithDescription("Flip whether a prompt is part of the default prompt. Allowed on built-ins."),
	idParam,
)

var deleteToolDef = mcp.NewTool("prompt_delete",
	mcp.WithDescription("Permanently delete a user prompt. Built-in prompts cannot be deleted."),
	mcp.WithDestructiveHintAnnotation(true),
	idParam,
)

var duplicateToolDef = mcp.NewTool("prompt_duplicate",
	mcp.WithDescription(`Copy a prompt under a new ID with " copy" appended to its title.`),
	idParam,
)

var listToolDef = mcp.NewTool("prompt_list",
	mcp.WithDescription("List prompts: untitled first, then by title."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit", mcp.Description("Max items (default 100, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithBoolean("default_only", mcp.Description("Only prompts marked default")),
)

var listDefaultToolDef = mcp.NewTool("prompt_list_default",
	mcp.WithDescription("List the prompts that make up the default prompt."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var findToolDef = mcp.NewTool("prompt_find",
	mcp.WithDescription("Find the prompt whose title matches exactly."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("title", mcp.Required(), mcp.Description("Exact title")),
)

var searchToolDef = mcp.NewTool("prompt_search",
	mcp.WithDescription("Fuzzy search prompt titles. Default prompts rank first; an empty query lists everything."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description("Search text")),
)

var composeToolDef = mcp.NewTool("prompt_compose",
	mcp.WithDescription("Assemble the default prompt from every prompt marked default."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("format",
		mcp.Description("Output format"),
		mcp.Enum("text", "markdown", "json"),
	),
)

var exportToolDef = mcp.NewTool("prompt_export",
	mcp.WithDescription("Export all prompts to a JSONL file."),
	mcp.WithString("path", mcp.Description("Target .jsonl path; defaults to the exports directory")),
	mcp.WithString("label", mcp.Description("File name label for the default path")),
)

var importToolDef = mcp.NewTool("prompt_import",
	mcp.WithDescription("Import prompts from JSONL exports or markdown files. Every import gets a new ID."),
	mcp.WithArray("paths",
		mcp.Required(),
		mcp.Description(".jsonl or .md file paths"),
		mcp.Items(map[string]any{"type": "string"}),
	),
)
