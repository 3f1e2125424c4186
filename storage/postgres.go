package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/spektr-org/pivot/engine"
)

// Postgres stores snapshots as jsonb rows in pivot_configs.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS pivot_configs (
			name       TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create pivot_configs: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := p.db.SelectContext(ctx, &names, `SELECT name FROM pivot_configs ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list configurations: %w", err)
	}
	return names, nil
}

func (p *Postgres) Load(ctx context.Context, name string) (*engine.Snapshot, error) {
	var body []byte
	err := p.db.GetContext(ctx, &body, `SELECT body FROM pivot_configs WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	var snap engine.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return &snap, nil
}

func (p *Postgres) Save(ctx context.Context, snap engine.Snapshot) error {
	if err := checkName(snap.Name); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", snap.Name, err)
	}

	query := `
		INSERT INTO pivot_configs (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, query, snap.Name, string(body)); err != nil {
		return fmt.Errorf("failed to save %s: %w", snap.Name, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, name string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM pivot_configs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(name)
	}
	return nil
}
