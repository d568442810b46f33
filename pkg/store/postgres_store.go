package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonmatthis/og-classbot/pkg/fusion"
)

// PostgresStore persists one row per entity with the history trail in a
// JSONB column.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and returns a Postgres-backed SummaryStore.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (ps *PostgresStore) Get(ctx context.Context, entityID string) (*fusion.SummaryRecord, error) {
	if ps == nil || ps.DB == nil {
		return nil, nil
	}
	row := ps.DB.QueryRow(ctx, `
                SELECT entity_id, summary_text, model, created_at, schema_degraded, history::text
                FROM summaries
                WHERE entity_id = $1
        `, entityID)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Put upserts the current summary fields and appends the prior snapshot to the
// JSONB history in the same statement.
func (ps *PostgresStore) Put(ctx context.Context, record fusion.SummaryRecord, prior *fusion.Snapshot) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	appended := "[]"
	if prior != nil {
		data, err := json.Marshal([]fusion.Snapshot{*prior})
		if err != nil {
			return err
		}
		appended = string(data)
	}
	_, err := ps.DB.Exec(ctx, `
                INSERT INTO summaries (entity_id, summary_text, model, created_at, schema_degraded, history)
                VALUES ($1, $2, $3, $4, $5, $6::jsonb)
                ON CONFLICT (entity_id) DO UPDATE SET
                        summary_text = EXCLUDED.summary_text,
                        model = EXCLUDED.model,
                        created_at = EXCLUDED.created_at,
                        schema_degraded = EXCLUDED.schema_degraded,
                        history = summaries.history || $6::jsonb
        `, record.EntityID, record.SummaryText, record.ModelID, record.CreatedAt, record.SchemaDegraded, appended)
	return err
}

func (ps *PostgresStore) All(ctx context.Context) ([]fusion.SummaryRecord, error) {
	if ps == nil || ps.DB == nil {
		return nil, nil
	}
	rows, err := ps.DB.Query(ctx, `
                SELECT entity_id, summary_text, model, created_at, schema_degraded, history::text
                FROM summaries
                ORDER BY entity_id ASC
        `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []fusion.SummaryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (ps *PostgresStore) EntityIDs(ctx context.Context) ([]string, error) {
	if ps == nil || ps.DB == nil {
		return nil, nil
	}
	rows, err := ps.DB.Query(ctx, `SELECT entity_id FROM summaries ORDER BY entity_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (ps *PostgresStore) Export(ctx context.Context, path string) error {
	return exportJSON(ctx, ps, path)
}

// CreateSchema ensures the summaries table is available.
func (ps *PostgresStore) CreateSchema(ctx context.Context, schemaPath string) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	schema := defaultPostgresSchema
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file: %w", err)
		}
		schema = string(data)
	}
	if _, err := ps.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Close releases the underlying Postgres connection pool.
func (ps *PostgresStore) Close() error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	ps.DB.Close()
	return nil
}

func scanRecord(row pgx.Row) (fusion.SummaryRecord, error) {
	var rec fusion.SummaryRecord
	var historyText string
	if err := row.Scan(&rec.EntityID, &rec.SummaryText, &rec.ModelID, &rec.CreatedAt, &rec.SchemaDegraded, &historyText); err != nil {
		return fusion.SummaryRecord{}, err
	}
	if historyText != "" {
		if err := json.Unmarshal([]byte(historyText), &rec.History); err != nil {
			return fusion.SummaryRecord{}, fmt.Errorf("decode history for %s: %w", rec.EntityID, err)
		}
	}
	return rec, nil
}

const defaultPostgresSchema = `
CREATE TABLE IF NOT EXISTS summaries (
    entity_id TEXT PRIMARY KEY,
    summary_text TEXT NOT NULL,
    model TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    schema_degraded BOOLEAN NOT NULL DEFAULT FALSE,
    history JSONB NOT NULL DEFAULT '[]'::jsonb
);
`
