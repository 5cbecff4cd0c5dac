package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps secrets in the secrets table. Values are stored as
// given, withDecryption has no effect.
type PostgresStore struct {
	conn *pgx.Conn
}

func NewPostgresStore(conn *pgx.Conn) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (p *PostgresStore) Get(ctx context.Context, name string, _ bool) (string, error) {
	var value string
	err := p.conn.QueryRow(ctx, `SELECT value FROM secrets WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("get secret %s: %w", name, err)
	}
	return value, nil
}

func (p *PostgresStore) Put(ctx context.Context, name, value string) error {
	const upsertSQL = `
	INSERT INTO secrets (name, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.conn.Exec(ctx, upsertSQL, name, value); err != nil {
		return fmt.Errorf("put secret %s: %w", name, err)
	}
	return nil
}

func (p *PostgresStore) Close(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close(ctx)
}
