package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/guildmaster/internal/oauth2"
	"github.com/dropDatabas3/guildmaster/internal/security/secretbox"
)

const tokenColumns = `id, user_id, client_id, token_type, access_token, refresh_token,
	timestamp, expires_in, scope, redirect_uri, resource, version`

func (s *Store) UpsertToken(ctx context.Context, t *oauth2.Token) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	access, err := secretbox.Encrypt(t.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := secretbox.Encrypt(t.RefreshToken)
	if err != nil {
		return err
	}
	// The conflict target is the (user_id, client_id) unique constraint:
	// one token row per pair, overwritten on re-authorization.
	const q = `
		INSERT INTO tokens (id, user_id, client_id, token_type, access_token, refresh_token,
			timestamp, expires_in, scope, redirect_uri, resource, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), 1)
		ON CONFLICT (user_id, client_id) DO UPDATE SET
			token_type = EXCLUDED.token_type,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			timestamp = EXCLUDED.timestamp,
			expires_in = EXCLUDED.expires_in,
			scope = EXCLUDED.scope,
			redirect_uri = EXCLUDED.redirect_uri,
			resource = EXCLUDED.resource,
			version = tokens.version + 1
		RETURNING id, version`
	return s.pool.QueryRow(ctx, q,
		t.ID, t.UserID, t.ClientID, t.TokenType, access, refresh,
		t.Timestamp, t.ExpiresIn, t.Scope, t.RedirectURI, t.Resource,
	).Scan(&t.ID, &t.Version)
}

func scanToken(row pgx.Row) (*oauth2.Token, error) {
	var t oauth2.Token
	var access, refresh string
	var resource *string
	err := row.Scan(&t.ID, &t.UserID, &t.ClientID, &t.TokenType, &access, &refresh,
		&t.Timestamp, &t.ExpiresIn, &t.Scope, &t.RedirectURI, &resource, &t.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oauth2.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	if resource != nil {
		t.Resource = *resource
	}
	if t.AccessToken, err = secretbox.Decrypt(access); err != nil {
		return nil, err
	}
	if t.RefreshToken, err = secretbox.Decrypt(refresh); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) TokenByUserClient(ctx context.Context, userID string, clientID uuid.UUID) (*oauth2.Token, error) {
	const q = `SELECT ` + tokenColumns + ` FROM tokens WHERE user_id = $1 AND client_id = $2`
	return scanToken(s.pool.QueryRow(ctx, q, userID, clientID))
}

func (s *Store) TokenByID(ctx context.Context, id uuid.UUID) (*oauth2.Token, error) {
	return scanToken(s.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id))
}

func (s *Store) UpdateTokenIfVersion(ctx context.Context, t *oauth2.Token, expected int64) error {
	access, err := secretbox.Encrypt(t.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := secretbox.Encrypt(t.RefreshToken)
	if err != nil {
		return err
	}
	const q = `
		UPDATE tokens SET
			token_type = $3,
			access_token = $4,
			refresh_token = $5,
			timestamp = $6,
			expires_in = $7,
			scope = $8,
			version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`
	err = s.pool.QueryRow(ctx, q,
		t.ID, expected, t.TokenType, access, refresh, t.Timestamp, t.ExpiresIn, t.Scope,
	).Scan(&t.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the row is gone or another writer bumped the version.
		if _, lookupErr := s.TokenByID(ctx, t.ID); lookupErr != nil {
			return lookupErr
		}
		return oauth2.ErrVersionConflict
	}
	return err
}

func (s *Store) ReleaseResource(ctx context.Context, resource string, keep uuid.UUID) error {
	const q = `UPDATE tokens SET resource = NULL, version = version + 1 WHERE resource = $1 AND id <> $2`
	_, err := s.pool.Exec(ctx, q, resource, keep)
	return err
}

func (s *Store) DeleteToken(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, id)
	return err
}
