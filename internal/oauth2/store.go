package oauth2

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Storage errors shared by all store implementations.
var (
	ErrClientNotFound  = errors.New("oauth2 client not found")
	ErrTokenNotFound   = errors.New("token not found")
	ErrVersionConflict = errors.New("token version conflict")
)

// ClientStore persists client configurations. Clients are admin-managed;
// the engine only reads them, except for the config-seeding path.
type ClientStore interface {
	// UpsertClient inserts or updates a client keyed by Name, assigning
	// an ID to new rows.
	UpsertClient(ctx context.Context, c *Client) error

	// ClientByName resolves a client by its unique slug.
	ClientByName(ctx context.Context, name string) (*Client, error)

	// ClientByID resolves a client by its identifier.
	ClientByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// Clients lists all clients ordered by name.
	Clients(ctx context.Context) ([]*Client, error)
}

// TokenStore persists tokens, one row per (user, client).
type TokenStore interface {
	// UpsertToken inserts or overwrites the row keyed by
	// (UserID, ClientID), assigning ID and Version on insert and
	// bumping Version on update. The stored row is written back into t.
	UpsertToken(ctx context.Context, t *Token) error

	// TokenByUserClient returns the row for a (user, client) pair.
	TokenByUserClient(ctx context.Context, userID string, clientID uuid.UUID) (*Token, error)

	// TokenByID returns a row by identifier.
	TokenByID(ctx context.Context, id uuid.UUID) (*Token, error)

	// UpdateTokenIfVersion writes t only if the stored row still has
	// the expected version, bumping Version on success. Returns
	// ErrVersionConflict when another writer got there first.
	UpdateTokenIfVersion(ctx context.Context, t *Token, expected int64) error

	// ReleaseResource clears the resource tag from any token other than
	// keep that currently holds it. A provider account is bound to at
	// most one stored token.
	ReleaseResource(ctx context.Context, resource string, keep uuid.UUID) error

	// DeleteToken removes a row.
	DeleteToken(ctx context.Context, id uuid.UUID) error
}
