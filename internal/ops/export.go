package ops

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// ExportSchemaVersion is written in every export header.
const ExportSchemaVersion = "1"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path  string // optional, default: <dir>/exports/<label>-<export id>.jsonl
	Label string // optional file name prefix for the default path, default "prompts"
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	ExportID   string `json:"export_id"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	PromptlibExport bool   `json:"_promptlib_export"`
	SchemaVersion   string `json:"schema_version"`
	ExportID        string `json:"export_id"`
	ExportedAt      int64  `json:"exported_at"`
}

// ExportRecord is one prompt line of a JSONL export file.
type ExportRecord struct {
	prompt.Metadata
	Body string `json:"body"`
}

// Export writes every prompt to a JSONL file. Pending edits are flushed first
// and all bodies are read from one snapshot. The file is replaced atomically,
// so an existing export survives a failed run.
func (l *Library) Export(ctx context.Context, input ExportInput) (*ExportOutput, error) {
	st, saver, err := l.ready(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exportID := newExportID(now)

	exportPath := input.Path
	if exportPath == "" {
		label := input.Label
		if label == "" {
			label = "prompts"
		}
		exportPath = filepath.Join(l.exportsDir, fmt.Sprintf("%s-%s.jsonl", SanitizeForFilename(label), exportID))
		if err := os.MkdirAll(l.exportsDir, 0700); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
		}
	}

	if err := ValidatePath(exportPath, PathCheckWrite, l.exportsDir, l.cfg, ExtJSONL); err != nil {
		return nil, err
	}

	if err := saver.Flush(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	header := ExportHeader{
		PromptlibExport: true,
		SchemaVersion:   ExportSchemaVersion,
		ExportID:        exportID,
		ExportedAt:      now.Unix(),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	err = st.ReadSnapshot(ctx, func(get func(prompt.ID) (string, error)) error {
		for _, m := range st.List() {
			if err := ctx.Err(); err != nil {
				return errors.NewCancelled("export")
			}
			text, err := get(m.ID)
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := enc.Encode(ExportRecord{Metadata: m, Body: text}); err != nil {
				return errors.NewInternal(err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := atomic.WriteFile(exportPath, &buf); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to write export file: %w", err))
	}
	// atomic.WriteFile renames a 0600 temp file into place; pin the mode
	// anyway so a change in that behavior cannot widen it.
	if err := os.Chmod(exportPath, 0600); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to set export file permissions: %w", err))
	}

	l.logger.Info("prompts exported", "path", exportPath, "count", count, "export_id", exportID)

	return &ExportOutput{
		Path:       exportPath,
		ExportID:   exportID,
		Count:      count,
		ExportedAt: header.ExportedAt,
	}, nil
}

func newExportID(now time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
