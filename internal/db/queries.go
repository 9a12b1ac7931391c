package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hpungsan/promptlib/internal/errors"
	"github.com/hpungsan/promptlib/internal/prompt"
)

// GetMetadata retrieves the metadata record for id.
func GetMetadata(ctx context.Context, q Querier, id prompt.ID) (*prompt.Metadata, error) {
	key, err := id.Key()
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	var value string
	err = q.QueryRowContext(ctx, "SELECT value FROM "+MetadataTable+" WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id.String())
	}
	if err != nil {
		return nil, errors.NewStorageFailure("read metadata", err)
	}

	m, err := decodeMetadata(value)
	if err != nil {
		return nil, errors.NewStorageFailure("decode metadata", err)
	}
	return m, nil
}

// GetBody retrieves the stored body for id, without line ending normalization.
func GetBody(ctx context.Context, q Querier, id prompt.ID) (string, error) {
	key, err := id.Key()
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}

	var body string
	err = q.QueryRowContext(ctx, "SELECT body FROM "+BodiesTable+" WHERE key = ?", key).Scan(&body)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound(id.String())
	}
	if err != nil {
		return "", errors.NewStorageFailure("read body", err)
	}
	return body, nil
}

// PutMetadata inserts or replaces the metadata record keyed by m.ID.
func PutMetadata(ctx context.Context, q Querier, m prompt.Metadata) error {
	key, err := m.ID.Key()
	if err != nil {
		return errors.NewInvalidRequest(err.Error())
	}
	value, err := json.Marshal(m)
	if err != nil {
		return errors.NewInternal(err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO `+MetadataTable+` (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(value))
	if err != nil {
		return errors.NewStorageFailure("write metadata", err)
	}
	return nil
}

// PutBody inserts or replaces the body keyed by id.
func PutBody(ctx context.Context, q Querier, id prompt.ID, body string) error {
	key, err := id.Key()
	if err != nil {
		return errors.NewInvalidRequest(err.Error())
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO `+BodiesTable+` (key, body) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body
	`, key, body)
	if err != nil {
		return errors.NewStorageFailure("write body", err)
	}
	return nil
}

// Delete removes both the metadata record and the body for id.
// Deleting an absent id is not an error.
func Delete(ctx context.Context, q Querier, id prompt.ID) error {
	key, err := id.Key()
	if err != nil {
		return errors.NewInvalidRequest(err.Error())
	}

	if _, err := q.ExecContext(ctx, "DELETE FROM "+MetadataTable+" WHERE key = ?", key); err != nil {
		return errors.NewStorageFailure("delete metadata", err)
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM "+BodiesTable+" WHERE key = ?", key); err != nil {
		return errors.NewStorageFailure("delete body", err)
	}
	return nil
}

// ScanMetadata returns every metadata record in key order.
func ScanMetadata(ctx context.Context, q Querier) ([]prompt.Metadata, error) {
	rows, err := q.QueryContext(ctx, "SELECT key, value FROM "+MetadataTable+" ORDER BY key")
	if err != nil {
		return nil, errors.NewStorageFailure("scan metadata", err)
	}
	defer rows.Close()

	var result []prompt.Metadata
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.NewStorageFailure("scan metadata", err)
		}
		m, err := decodeMetadata(value)
		if err != nil {
			return nil, errors.NewStorageFailure("decode metadata", fmt.Errorf("key %s: %w", key, err))
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageFailure("scan metadata", err)
	}
	return result, nil
}

// WithTx runs fn inside a write transaction and commits if fn returns nil.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageFailure("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageFailure("commit", err)
	}
	return nil
}

// WithReadTx runs fn inside a read-only transaction so all reads share one snapshot.
func WithReadTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return errors.NewStorageFailure("begin read transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	return fn(tx)
}

func decodeMetadata(value string) (*prompt.Metadata, error) {
	var m prompt.Metadata
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
