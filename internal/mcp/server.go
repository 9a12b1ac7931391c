package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/promptlib/internal/config"
	"github.com/hpungsan/promptlib/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"prompt_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"prompt_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"prompt_edit": {
		def:     editToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEdit },
	},
	"prompt_toggle_default": {
		def:     toggleDefaultToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleToggleDefault },
	},
	"prompt_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"prompt_duplicate": {
		def:     duplicateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDuplicate },
	},
	"prompt_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"prompt_list_default": {
		def:     listDefaultToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListDefault },
	},
	"prompt_find": {
		def:     findToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFind },
	},
	"prompt_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"prompt_compose": {
		def:     composeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCompose },
	},
	"prompt_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"prompt_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the prompt tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(lib *ops.Library, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"promptlib",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(lib)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves MCP over stdio until stdin closes.
func Run(lib *ops.Library, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(lib, cfg, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
