package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/emberworks/echofall/internal/content"
	"github.com/emberworks/echofall/pkg/session"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewRedisStore(mr.Addr(), time.Hour, logger)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return store, mr
}

func seedSession(t *testing.T) *session.Session {
	t.Helper()
	player, err := content.NewRegistry().NewPlayer("Tester", "courier", "vault-bred")
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return session.New(player, content.SeedWorld())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	s := seedSession(t)
	s.Context.AddKeyEvent("Entered the cathedral")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for a saved session")
	}
	if loaded.ID != s.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, s.ID)
	}
	if loaded.Player.Name != "Tester" || loaded.Player.Class != "courier" {
		t.Errorf("player did not round-trip: %+v", loaded.Player)
	}
	if loaded.World.Current != content.StartingLocation {
		t.Errorf("Current = %s, want %s", loaded.World.Current, content.StartingLocation)
	}
	if len(loaded.Context.KeyEvents) != 1 {
		t.Errorf("KeyEvents = %v, want 1 entry", loaded.Context.KeyEvents)
	}
}

func TestRedisStoreLoadMissing(t *testing.T) {
	store, _ := newRedisStore(t)

	loaded, err := store.Load(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Error("Load of an unknown session should return nil, nil")
	}
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	s := seedSession(t)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	key := "session:" + s.ID.String()
	ttl := mr.TTL(key)
	if ttl != time.Hour {
		t.Errorf("TTL = %v, want %v", ttl, time.Hour)
	}

	// An idle session expires on its own.
	mr.FastForward(2 * time.Hour)
	loaded, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load after expiry: %v", err)
	}
	if loaded != nil {
		t.Error("session should have expired")
	}
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	s := seedSession(t)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	loaded, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != nil {
		t.Error("session should be gone after delete")
	}

	// Deleting an absent session is not an error.
	if err := store.Delete(ctx, uuid.New()); err != nil {
		t.Errorf("Delete of missing session: %v", err)
	}
}

func TestRedisStoreList(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	a := seedSession(t)
	b := seedSession(t)
	for _, s := range []*session.Session{a, b} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	// Unrelated and malformed keys are ignored.
	mr.Set("other:thing", "x")
	mr.Set("session:not-a-uuid", "x")

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("List returned %d ids, want 2", len(ids))
	}
	found := map[uuid.UUID]bool{}
	for _, id := range ids {
		found[id] = true
	}
	if !found[a.ID] || !found[b.ID] {
		t.Errorf("List = %v, missing %s or %s", ids, a.ID, b.ID)
	}
}
