package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/ops"
)

// MaxBodyBytes caps a prompt body read from stdin.
const MaxBodyBytes = 10 << 20

// session opens the library on first use, in the directory chosen by --dir.
// A session created with a library uses it as is and never closes it.
type session struct {
	lib   *ops.Library
	owned bool
}

func (s *session) library(c *cli.Context) (*ops.Library, error) {
	if s.lib != nil {
		return s.lib, nil
	}
	dir := c.String("dir")
	if dir == "" {
		var err error
		if dir, err = defaultDir(); err != nil {
			return nil, err
		}
	}
	cfg, err := loadConfig(dir)
	if err != nil {
		return nil, err
	}
	s.lib = ops.Open(dir, cfg, newLogger(c.App.ErrWriter, cfg))
	s.owned = true
	return s.lib, nil
}

// close flushes pending saves and closes a library the session opened.
func (s *session) close() error {
	if !s.owned || s.lib == nil {
		return nil
	}
	err := s.lib.Close(context.Background())
	s.lib, s.owned = nil, false
	return err
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(s *session) *cli.App {
	app := &cli.App{
		Name:    "promptlib",
		Usage:   "Local prompt library",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Store directory (default ~/.promptlib)",
				EnvVars: []string{dirEnvVar},
			},
		},
		Commands: []*cli.Command{
			createCmd(s),
			getCmd(s),
			editCmd(s),
			defaultCmd(s),
			deleteCmd(s),
			duplicateCmd(s),
			listCmd(s),
			defaultsCmd(s),
			findCmd(s),
			searchCmd(s),
			composeCmd(s),
			exportCmd(s),
			importCmd(s),
		},
		After: func(c *cli.Context) error {
			if err := s.close(); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// withLibrary adapts an action that needs the library.
func withLibrary(s *session, fn func(c *cli.Context, lib *ops.Library) (any, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		lib, err := s.library(c)
		if err != nil {
			return outputError(err)
		}
		out, err := fn(c, lib)
		if err != nil {
			return outputError(err)
		}
		return outputJSON(c.App.Writer, out)
	}
}

// requireArg returns the first positional argument or an INVALID_REQUEST error.
func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() == 0 {
		return "", errors.NewInvalidRequest(name + " is required")
	}
	return c.Args().First(), nil
}

// createCmd creates the create command.
func createCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a prompt (reads the body from stdin when piped)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Prompt title"},
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "Prompt body (instead of stdin)"},
			&cli.BoolFlag{Name: "default", Aliases: []string{"d"}, Usage: "Include in the default prompt"},
		},
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			body, err := bodyInput(c)
			if err != nil {
				return nil, err
			}
			input := ops.CreateInput{Title: c.String("title"), Default: c.Bool("default")}
			if body != nil {
				input.Body = *body
			}
			return lib.Create(c.Context, input)
		}),
	}
}

// getCmd creates the get command.
func getCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a prompt",
		ArgsUsage: "<id>",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			id, err := requireArg(c, "id")
			if err != nil {
				return nil, err
			}
			return lib.Get(c.Context, ops.GetInput{ID: id})
		}),
	}
}

// editCmd creates the edit command.
func editCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a prompt's title and/or body (reads the body from stdin when piped)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title (empty clears it)"},
			&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "New body (instead of stdin)"},
		},
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			id, err := requireArg(c, "id")
			if err != nil {
				return nil, err
			}
			input := ops.EditInput{ID: id}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if input.Body, err = bodyInput(c); err != nil {
				return nil, err
			}
			return lib.Edit(c.Context, input)
		}),
	}
}

// defaultCmd creates the default command.
func defaultCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "default",
		Usage:     "Toggle whether a prompt is part of the default prompt",
		ArgsUsage: "<id>",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			id, err := requireArg(c, "id")
			if err != nil {
				return nil, err
			}
			return lib.ToggleDefault(c.Context, ops.ToggleDefaultInput{ID: id})
		}),
	}
}

// deleteCmd creates the delete command.
func deleteCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a prompt",
		ArgsUsage: "<id>",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			id, err := requireArg(c, "id")
			if err != nil {
				return nil, err
			}
			return lib.Delete(c.Context, ops.DeleteInput{ID: id})
		}),
	}
}

// duplicateCmd creates the duplicate command.
func duplicateCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "duplicate",
		Usage:     "Copy a prompt under a new ID",
		ArgsUsage: "<id>",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			id, err := requireArg(c, "id")
			if err != nil {
				return nil, err
			}
			return lib.Duplicate(c.Context, ops.DuplicateInput{ID: id})
		}),
	}
}

// listCmd creates the list command.
func listCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List prompts",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "default-only", Usage: "Only prompts in the default prompt"},
		},
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			return lib.List(c.Context, ops.ListInput{
				Limit:       c.Int("limit"),
				Offset:      c.Int("offset"),
				DefaultOnly: c.Bool("default-only"),
			})
		}),
	}
}

// defaultsCmd creates the defaults command.
func defaultsCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "defaults",
		Usage: "List the prompts that make up the default prompt",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			return lib.ListDefault(c.Context)
		}),
	}
}

// findCmd creates the find command.
func findCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "Find a prompt by exact title",
		ArgsUsage: "<title>",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			title, err := requireArg(c, "title")
			if err != nil {
				return nil, err
			}
			return lib.FindByTitle(c.Context, ops.FindByTitleInput{Title: title})
		}),
	}
}

// searchCmd creates the search command.
func searchCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Fuzzy search prompt titles",
		ArgsUsage: "[query]",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			return lib.Search(c.Context, ops.SearchInput{Query: strings.Join(c.Args().Slice(), " ")})
		}),
	}
}

// composeCmd creates the compose command.
func composeCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "compose",
		Usage: "Assemble the default prompt",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format: text|markdown|json"},
			&cli.BoolFlag{Name: "raw", Usage: "Print the composed text instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			lib, err := s.library(c)
			if err != nil {
				return outputError(err)
			}
			out, err := lib.ComposeDefault(c.Context, ops.ComposeInput{Format: c.String("format")})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("raw") {
				_, err := fmt.Fprintln(c.App.Writer, out.Text)
				return err
			}
			return outputJSON(c.App.Writer, out)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export all prompts to JSONL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: <dir>/exports/<label>-<id>.jsonl)"},
			&cli.StringFlag{Name: "label", Usage: "File name label for the default path"},
		},
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			return lib.Export(c.Context, ops.ExportInput{Path: c.String("path"), Label: c.String("label")})
		}),
	}
}

// importCmd creates the import command.
func importCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import prompts from JSONL exports or markdown files",
		ArgsUsage: "<path> [path...]",
		Action: withLibrary(s, func(c *cli.Context, lib *ops.Library) (any, error) {
			return lib.Import(c.Context, ops.ImportInput{Paths: c.Args().Slice()})
		}),
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var pErr *errors.PromptError
	if stderrors.As(err, &pErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// bodyInput returns the --body flag, or the piped input, or nil when neither
// is present. Empty piped input counts as absent.
func bodyInput(c *cli.Context) (*string, error) {
	if c.IsSet("body") {
		body := c.String("body")
		return &body, nil
	}
	if !hasPipedInput(c.App.Reader) {
		return nil, nil
	}
	body, err := readStdin(c.App.Reader, MaxBodyBytes)
	if err != nil || body == "" {
		return nil, err
	}
	return &body, nil
}

// hasPipedInput reports whether r carries piped data rather than a terminal.
func hasPipedInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from r and drops the trailing newline.
func readStdin(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("read stdin: %w", err))
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
