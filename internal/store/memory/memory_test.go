package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dropDatabas3/guildmaster/internal/oauth2"
)

func TestStore_UpsertClientKeyedByName(t *testing.T) {
	t.Parallel()
	st := New()
	ctx := context.Background()

	c := &oauth2.Client{Name: "acme-main", ProviderName: "acme", Enabled: true, ClientID: "cid"}
	if err := st.UpsertClient(ctx, c); err != nil {
		t.Fatalf("UpsertClient err: %v", err)
	}
	if c.ID == uuid.Nil {
		t.Fatalf("no ID assigned on insert")
	}
	firstID := c.ID

	// Re-seed con el mismo nombre: actualiza la fila, conserva el ID
	update := &oauth2.Client{Name: "acme-main", ProviderName: "acme", Enabled: true, ClientID: "cid-2"}
	if err := st.UpsertClient(ctx, update); err != nil {
		t.Fatalf("UpsertClient update err: %v", err)
	}
	if update.ID != firstID {
		t.Fatalf("upsert changed client ID")
	}

	got, err := st.ClientByName(ctx, "acme-main")
	if err != nil {
		t.Fatalf("ClientByName err: %v", err)
	}
	if got.ClientID != "cid-2" {
		t.Fatalf("update not applied: %q", got.ClientID)
	}

	all, err := st.Clients(ctx)
	if err != nil {
		t.Fatalf("Clients err: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 client, got %d", len(all))
	}
}

func TestStore_ClientNotFound(t *testing.T) {
	t.Parallel()
	st := New()

	if _, err := st.ClientByName(context.Background(), "nope"); !errors.Is(err, oauth2.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if _, err := st.ClientByID(context.Background(), uuid.New()); !errors.Is(err, oauth2.ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
}

func TestStore_UpsertTokenKeyedByUserClient(t *testing.T) {
	t.Parallel()
	st := New()
	ctx := context.Background()
	clientID := uuid.New()

	tok := &oauth2.Token{UserID: "user-1", ClientID: clientID, AccessToken: "at-1"}
	if err := st.UpsertToken(ctx, tok); err != nil {
		t.Fatalf("UpsertToken err: %v", err)
	}
	if tok.ID == uuid.Nil || tok.Version != 1 {
		t.Fatalf("insert semantics: id=%v version=%d", tok.ID, tok.Version)
	}

	// Re-autorización del mismo par: misma fila, versión avanza
	again := &oauth2.Token{UserID: "user-1", ClientID: clientID, AccessToken: "at-2"}
	if err := st.UpsertToken(ctx, again); err != nil {
		t.Fatalf("UpsertToken again err: %v", err)
	}
	if again.ID != tok.ID {
		t.Fatalf("upsert created a second row")
	}
	if again.Version != 2 {
		t.Fatalf("version = %d, want 2", again.Version)
	}

	got, err := st.TokenByUserClient(ctx, "user-1", clientID)
	if err != nil {
		t.Fatalf("TokenByUserClient err: %v", err)
	}
	if got.AccessToken != "at-2" {
		t.Fatalf("access token = %q", got.AccessToken)
	}
}

func TestStore_UpdateTokenIfVersion(t *testing.T) {
	t.Parallel()
	st := New()
	ctx := context.Background()

	tok := &oauth2.Token{UserID: "u", ClientID: uuid.New(), AccessToken: "at-1"}
	if err := st.UpsertToken(ctx, tok); err != nil {
		t.Fatalf("UpsertToken err: %v", err)
	}

	ok := *tok
	ok.AccessToken = "at-2"
	if err := st.UpdateTokenIfVersion(ctx, &ok, 1); err != nil {
		t.Fatalf("CAS err: %v", err)
	}
	if ok.Version != 2 {
		t.Fatalf("version = %d, want 2", ok.Version)
	}

	// Segundo escritor con la versión vieja pierde
	stale := *tok
	stale.AccessToken = "at-3"
	if err := st.UpdateTokenIfVersion(ctx, &stale, 1); !errors.Is(err, oauth2.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	got, _ := st.TokenByID(ctx, tok.ID)
	if got.AccessToken != "at-2" {
		t.Fatalf("loser overwrote winner: %q", got.AccessToken)
	}

	// Fila inexistente
	gone := *tok
	gone.ID = uuid.New()
	if err := st.UpdateTokenIfVersion(ctx, &gone, 1); !errors.Is(err, oauth2.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestStore_ReleaseResource(t *testing.T) {
	t.Parallel()
	st := New()
	ctx := context.Background()

	a := &oauth2.Token{UserID: "u1", ClientID: uuid.New(), Resource: "Nelly#1337"}
	b := &oauth2.Token{UserID: "u2", ClientID: uuid.New(), Resource: "Nelly#1337"}
	c := &oauth2.Token{UserID: "u3", ClientID: uuid.New(), Resource: "Other#1"}
	for _, tok := range []*oauth2.Token{a, b, c} {
		if err := st.UpsertToken(ctx, tok); err != nil {
			t.Fatalf("UpsertToken err: %v", err)
		}
	}

	if err := st.ReleaseResource(ctx, "Nelly#1337", b.ID); err != nil {
		t.Fatalf("ReleaseResource err: %v", err)
	}

	gotA, _ := st.TokenByID(ctx, a.ID)
	gotB, _ := st.TokenByID(ctx, b.ID)
	gotC, _ := st.TokenByID(ctx, c.ID)
	if gotA.Resource != "" {
		t.Fatalf("a still holds resource")
	}
	if gotB.Resource != "Nelly#1337" {
		t.Fatalf("keeper lost resource")
	}
	if gotC.Resource != "Other#1" {
		t.Fatalf("unrelated token touched")
	}
}

func TestStore_DeleteToken(t *testing.T) {
	t.Parallel()
	st := New()
	ctx := context.Background()

	tok := &oauth2.Token{UserID: "u", ClientID: uuid.New()}
	if err := st.UpsertToken(ctx, tok); err != nil {
		t.Fatalf("UpsertToken err: %v", err)
	}
	if err := st.DeleteToken(ctx, tok.ID); err != nil {
		t.Fatalf("DeleteToken err: %v", err)
	}
	if _, err := st.TokenByID(ctx, tok.ID); !errors.Is(err, oauth2.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
