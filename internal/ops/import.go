package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// Import limits
const (
	MaxImportFiles       = 100
	importReadWorkers    = 4
	maxImportLineBytes   = 16 << 20
	initialImportLineBuf = 64 << 10
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Paths []string // .jsonl exports or .md files
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	IDs      []string      `json:"ids"`
	Errors   []ImportError `json:"errors"`
}

// ImportError represents a record that could not be imported.
type ImportError struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importItem struct {
	title     *string
	isDefault bool
	body      string
}

type importFile struct {
	items   []importItem
	skipped int
	errors  []ImportError
}

// Import reads prompts from export files and markdown files. Files are read
// concurrently and written in argument order. Every imported prompt gets a
// fresh ID; built-in records in exports are skipped.
func (l *Library) Import(ctx context.Context, input ImportInput) (*ImportOutput, error) {
	if len(input.Paths) == 0 {
		return nil, errors.NewInvalidRequest("at least one path is required")
	}
	if len(input.Paths) > MaxImportFiles {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many files: %d (max %d)", len(input.Paths), MaxImportFiles))
	}
	for _, p := range input.Paths {
		if err := ValidatePath(p, PathCheckRead, l.exportsDir, l.cfg, ExtJSONL, ExtMarkdown); err != nil {
			return nil, err
		}
	}

	st, _, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]importFile, len(input.Paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importReadWorkers)
	for i, p := range input.Paths {
		g.Go(func() error {
			f, err := readImportFile(gctx, p)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	output := &ImportOutput{IDs: []string{}, Errors: []ImportError{}}
	for _, f := range files {
		output.Skipped += f.skipped + len(f.errors)
		output.Errors = append(output.Errors, f.errors...)

		for _, item := range f.items {
			if err := ctx.Err(); err != nil {
				return nil, errors.NewCancelled("import")
			}
			id := prompt.NewID()
			if _, err := st.Put(ctx, id, item.title, item.isDefault, item.body); err != nil {
				return nil, err
			}
			output.Imported++
			output.IDs = append(output.IDs, id.String())
		}
	}

	l.logger.Info("prompts imported", "files", len(input.Paths), "imported", output.Imported, "skipped", output.Skipped)
	return output, nil
}

func readImportFile(ctx context.Context, path string) (importFile, error) {
	file, err := openFileNoFollowRead(path)
	if err != nil {
		if errors.CodeOf(err) != errors.ErrInternal {
			return importFile{}, err
		}
		return importFile{}, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ExtMarkdown) {
		data, err := io.ReadAll(file)
		if err != nil {
			return importFile{}, errors.NewInternal(fmt.Errorf("failed to read import file: %w", err))
		}
		return importFile{items: []importItem{parseMarkdown(path, data)}}, nil
	}
	return parseExportFile(ctx, path, file)
}

// importLine decodes either an export header or a prompt record.
type importLine struct {
	PromptlibExport bool `json:"_promptlib_export"`
	ExportRecord
}

// parseExportFile parses a JSONL export file.
func parseExportFile(ctx context.Context, path string, r io.Reader) (importFile, error) {
	var result importFile

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialImportLineBuf), maxImportLineBytes)
	lineNum := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return importFile{}, errors.NewCancelled("import")
		}
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec importLine
		if err := json.Unmarshal(line, &rec); err != nil {
			result.errors = append(result.errors, ImportError{
				Path:    path,
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if rec.PromptlibExport {
			continue
		}
		if rec.ID.IsZero() {
			result.errors = append(result.errors, ImportError{
				Path:    path,
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: "missing id field",
			})
			continue
		}
		if rec.ID.IsBuiltIn() {
			result.skipped++
			continue
		}

		result.items = append(result.items, importItem{
			title:     rec.Title,
			isDefault: rec.Default,
			body:      rec.Body,
		})
	}

	if err := scanner.Err(); err != nil {
		result.errors = append(result.errors, ImportError{
			Path:    path,
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return result, nil
}

// parseMarkdown turns a markdown file into one prompt. The title is the text
// of the first heading, falling back to the file name.
func parseMarkdown(path string, data []byte) importItem {
	title := firstHeading(data)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return importItem{
		title: prompt.CleanTitle(title),
		body:  string(data),
	}
}

func firstHeading(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var heading *ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			heading = h
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if heading == nil {
		return ""
	}

	var sb strings.Builder
	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
