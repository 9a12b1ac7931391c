package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestMetadata(title string, savedAt time.Time) prompt.Metadata {
	return prompt.Metadata{
		ID:      prompt.NewID(),
		Title:   prompt.StringPtr(title),
		SavedAt: savedAt.UTC().Truncate(prompt.SavedAtResolution),
	}
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	m := newTestMetadata("Greeting", time.Now())
	m.Default = true

	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if err := PutMetadata(ctx, tx, m); err != nil {
			return err
		}
		return PutBody(ctx, tx, m.ID, "Hello there")
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	got, err := GetMetadata(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if diff := cmp.Diff(m, *got, cmp.AllowUnexported(prompt.ID{})); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	body, err := GetBody(ctx, database, m.ID)
	if err != nil {
		t.Fatalf("GetBody failed: %v", err)
	}
	if body != "Hello there" {
		t.Errorf("body = %q, want %q", body, "Hello there")
	}
}

func TestPutMetadata_Replaces(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	m := newTestMetadata("First", time.Now())
	if err := PutMetadata(ctx, database, m); err != nil {
		t.Fatalf("PutMetadata failed: %v", err)
	}
	m.Title = prompt.StringPtr("Second")
	m.SavedAt = m.SavedAt.Add(time.Second)
	if err := PutMetadata(ctx, database, m); err != nil {
		t.Fatalf("PutMetadata failed: %v", err)
	}

	all, err := ScanMetadata(ctx, database)
	if err != nil {
		t.Fatalf("ScanMetadata failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len = %d, want exactly one record per id", len(all))
	}
	if all[0].TitleOrEmpty() != "Second" {
		t.Errorf("title = %q, want %q", all[0].TitleOrEmpty(), "Second")
	}
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	id := prompt.NewID()

	if _, err := GetMetadata(ctx, database, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetMetadata error = %v, want NOT_FOUND", err)
	}
	if _, err := GetBody(ctx, database, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetBody error = %v, want NOT_FOUND", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	m := newTestMetadata("Doomed", time.Now())
	if err := PutMetadata(ctx, database, m); err != nil {
		t.Fatalf("PutMetadata failed: %v", err)
	}
	if err := PutBody(ctx, database, m.ID, "bye"); err != nil {
		t.Fatalf("PutBody failed: %v", err)
	}

	if err := Delete(ctx, database, m.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := GetMetadata(ctx, database, m.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetMetadata after delete error = %v, want NOT_FOUND", err)
	}
	if _, err := GetBody(ctx, database, m.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetBody after delete error = %v, want NOT_FOUND", err)
	}

	// Deleting again is a no-op.
	if err := Delete(ctx, database, m.ID); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	m := newTestMetadata("Partial", time.Now())
	boom := errors.NewInternal(nil)
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if err := PutMetadata(ctx, tx, m); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("WithTx error = %v, want %v", err, boom)
	}

	if _, err := GetMetadata(ctx, database, m.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("metadata visible after rollback: err = %v", err)
	}
}

func TestScanMetadata_Corrupt(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	if _, err := database.Exec("INSERT INTO "+MetadataTable+" (key, value) VALUES (?, ?)", "bogus", "{not json"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := ScanMetadata(ctx, database); !errors.Is(err, errors.ErrStorageFailure) {
		t.Errorf("ScanMetadata error = %v, want STORAGE_FAILURE", err)
	}
}

func TestSeedBuiltIns(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	now := time.Now()

	if err := SeedBuiltIns(ctx, database, prompt.BuiltIns, now); err != nil {
		t.Fatalf("SeedBuiltIns failed: %v", err)
	}

	m, err := GetMetadata(ctx, database, prompt.CommitMessage)
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if m.TitleOrEmpty() != "Commit message" {
		t.Errorf("title = %q, want %q", m.TitleOrEmpty(), "Commit message")
	}

	// A stored default flag survives re-seeding.
	m.Default = true
	if err := PutMetadata(ctx, database, *m); err != nil {
		t.Fatalf("PutMetadata failed: %v", err)
	}
	if err := SeedBuiltIns(ctx, database, prompt.BuiltIns, now.Add(time.Hour)); err != nil {
		t.Fatalf("second SeedBuiltIns failed: %v", err)
	}
	again, err := GetMetadata(ctx, database, prompt.CommitMessage)
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if !again.Default {
		t.Error("default flag lost on re-seed")
	}
}

func TestPurgeRetired(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	m := prompt.Metadata{ID: prompt.EditWorkflow, Title: prompt.StringPtr("Edit workflow"), SavedAt: time.Now().UTC()}
	if err := PutMetadata(ctx, database, m); err != nil {
		t.Fatalf("PutMetadata failed: %v", err)
	}
	if err := PutBody(ctx, database, prompt.EditWorkflow, "old"); err != nil {
		t.Fatalf("PutBody failed: %v", err)
	}

	if err := PurgeRetired(ctx, database, prompt.Retired); err != nil {
		t.Fatalf("PurgeRetired failed: %v", err)
	}
	if _, err := GetMetadata(ctx, database, prompt.EditWorkflow); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("retired metadata still present: err = %v", err)
	}
	if _, err := GetBody(ctx, database, prompt.EditWorkflow); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("retired body still present: err = %v", err)
	}
}
