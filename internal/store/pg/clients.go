package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/security/secretbox"
)

func (s *Store) UpsertClient(ctx context.Context, c *oauth2.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	secret, err := secretbox.Encrypt(c.ClientSecret)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO clients (id, name, provider, enabled, client_id, client_secret, scope_override)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			provider = EXCLUDED.provider,
			enabled = EXCLUDED.enabled,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			scope_override = EXCLUDED.scope_override
		RETURNING id`
	return s.pool.QueryRow(ctx, q,
		c.ID, c.Name, c.ProviderName, c.Enabled, c.ClientID, secret, c.ScopeOverride,
	).Scan(&c.ID)
}

const clientColumns = `id, name, provider, enabled, client_id, client_secret, scope_override`

func scanClient(row pgx.Row) (*oauth2.Client, error) {
	var c oauth2.Client
	var secret string
	err := row.Scan(&c.ID, &c.Name, &c.ProviderName, &c.Enabled, &c.ClientID, &secret, &c.ScopeOverride)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oauth2.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	c.ClientSecret, err = secretbox.Decrypt(secret)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ClientByName(ctx context.Context, name string) (*oauth2.Client, error) {
	return scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE name = $1`, name))
}

func (s *Store) ClientByID(ctx context.Context, id uuid.UUID) (*oauth2.Client, error) {
	return scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (s *Store) Clients(ctx context.Context) ([]*oauth2.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*oauth2.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
