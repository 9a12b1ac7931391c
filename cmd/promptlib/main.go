package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/promptlib/internal/config"
	"github.com/hpungsan/promptlib/internal/mcp"
	"github.com/hpungsan/promptlib/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// dirEnvVar overrides the default store directory.
const dirEnvVar = "PROMPTLIB_DIR"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"create": true, "get": true, "edit": true, "default": true,
	"delete": true, "duplicate": true, "list": true, "defaults": true,
	"find": true, "search": true, "compose": true,
	"export": true, "import": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--dir" || strings.HasPrefix(arg, "--dir=") {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  promptlib: local prompt library

  Usage: promptlib <command> [options]
         promptlib --help

  MCP server mode requires piped input.`)
}

// defaultDir returns $PROMPTLIB_DIR, or ~/.promptlib.
func defaultDir() (string, error) {
	if dir := os.Getenv(dirEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".promptlib"), nil
}

// loadConfig merges the store's config.json with the nearest repo config.
func loadConfig(dir string) (*config.Config, error) {
	cwd, _ := os.Getwd()
	cfg, err := config.LoadWithRepo(dir, cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	if isCLIMode() {
		app := newCLIApp(&session{})
		err := app.Run(os.Args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'promptlib --help' for usage.\n")
		os.Exit(1)
	}

	if err := runMCP(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runMCP serves the MCP tools over stdio.
func runMCP() error {
	dir, err := defaultDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	lib := ops.Open(dir, cfg, logger)
	runErr := mcp.Run(lib, cfg, Version)
	if err := lib.Close(context.Background()); err != nil {
		logger.Error("close library", "error", err)
	}
	return runErr
}
