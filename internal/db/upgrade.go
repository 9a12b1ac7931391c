package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// LegacyMetadata is the metadata record of the legacy generation. Its id is a
// bare UUID with no kind tag.
type LegacyMetadata struct {
	ID      string    `json:"id"`
	Title   *string   `json:"title"`
	Default bool      `json:"default"`
	SavedAt time.Time `json:"saved_at"`
}

// MigrationReport summarizes one UpgradeLegacy run.
type MigrationReport struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// UpgradeLegacy folds the legacy metadata/bodies tables into the current
// tables. A legacy record is written when the current generation has no record
// for the same ID or the legacy record was saved strictly later. Everything is
// committed in one transaction. The legacy tables are left in place, so running
// this again is a no-op unless a downgrade wrote newer legacy data.
func UpgradeLegacy(ctx context.Context, database *sql.DB) (MigrationReport, error) {
	var report MigrationReport

	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		for _, table := range []string{LegacyBodiesTable, LegacyMetadataTable} {
			exists, err := TableExists(ctx, tx, table)
			if err != nil {
				return errors.NewStorageFailure("inspect legacy schema", err)
			}
			if !exists {
				return nil
			}
		}

		bodies, err := readLegacyBodies(ctx, tx)
		if err != nil {
			return err
		}
		legacy, err := readLegacyMetadata(ctx, tx)
		if err != nil {
			return err
		}

		for key, value := range legacy {
			report.Scanned++

			var old LegacyMetadata
			if err := json.Unmarshal([]byte(value), &old); err != nil {
				report.Skipped++
				continue
			}
			u, err := uuid.Parse(key)
			if err != nil {
				report.Skipped++
				continue
			}
			body, ok := bodies[key]
			if !ok {
				report.Skipped++
				continue
			}

			id := prompt.UserID(u)
			current, err := GetMetadata(ctx, tx, id)
			switch {
			case errors.Is(err, errors.ErrNotFound):
			case err != nil:
				return err
			case !old.SavedAt.After(current.SavedAt):
				continue
			}

			m := prompt.Metadata{
				ID:      id,
				Title:   old.Title,
				Default: old.Default,
				SavedAt: old.SavedAt.UTC(),
			}
			if err := PutMetadata(ctx, tx, m); err != nil {
				return err
			}
			if err := PutBody(ctx, tx, id, body); err != nil {
				return err
			}
			report.Migrated++
		}
		return nil
	})

	return report, err
}

func readLegacyBodies(ctx context.Context, q Querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT key, body FROM "+LegacyBodiesTable)
	if err != nil {
		return nil, errors.NewStorageFailure("read legacy bodies", err)
	}
	defer rows.Close()

	bodies := make(map[string]string)
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return nil, errors.NewStorageFailure("read legacy bodies", err)
		}
		bodies[key] = body
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure("read legacy bodies", err)
	}
	return bodies, nil
}

func readLegacyMetadata(ctx context.Context, q Querier) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT key, value FROM "+LegacyMetadataTable)
	if err != nil {
		return nil, errors.NewStorageFailure("read legacy metadata", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.NewStorageFailure("read legacy metadata", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure("read legacy metadata", err)
	}
	return values, nil
}

// PurgeRetired removes the given built-in IDs from the current tables.
// Legacy rows are keyed by bare UUIDs and can never name a built-in.
func PurgeRetired(ctx context.Context, database *sql.DB, ids []prompt.ID) error {
	return WithTx(ctx, database, func(tx *sql.Tx) error {
		for _, id := range ids {
			if err := Delete(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedBuiltIns writes each built-in prompt whose metadata or body is missing.
// Existing built-in records are left untouched so a stored default flag survives.
func SeedBuiltIns(ctx context.Context, database *sql.DB, builtIns []prompt.BuiltInPrompt, now time.Time) error {
	return WithTx(ctx, database, func(tx *sql.Tx) error {
		for _, b := range builtIns {
			_, err := GetMetadata(ctx, tx, b.ID)
			switch {
			case errors.Is(err, errors.ErrNotFound):
				m := prompt.Metadata{
					ID:      b.ID,
					Title:   prompt.StringPtr(b.Title),
					SavedAt: prompt.NextSavedAt(time.Time{}, now),
				}
				if err := PutMetadata(ctx, tx, m); err != nil {
					return err
				}
			case err != nil:
				return err
			}

			_, err = GetBody(ctx, tx, b.ID)
			switch {
			case errors.Is(err, errors.ErrNotFound):
				if err := PutBody(ctx, tx, b.ID, b.Body); err != nil {
					return err
				}
			case err != nil:
				return err
			}
		}
		return nil
	})
}
