package beapi

import (
	"context"
	"slices"
	"testing"

	"github.com/google/uuid"
)

func TestPlayerManagerLookups(t *testing.T) {
	m := NewPlayerManager(nil, discardLogger())
	steve := newPlayer(nil, uuid.New(), "Steve", "1001")
	alex := newPlayer(nil, uuid.New(), "Alex", "")
	m.Add(steve)
	m.Add(alex)

	if m.Count() != 2 {
		t.Fatalf("expected 2 players, got %d", m.Count())
	}
	if all := m.All(); len(all) != 2 || all[0] != steve || all[1] != alex {
		t.Fatalf("unexpected join order: %v", all)
	}
	if m.ByUUID(steve.UUID()) != steve {
		t.Fatal("ByUUID failed")
	}
	if m.ByName("Alex") != alex {
		t.Fatal("ByName failed")
	}
	if m.ByXUID("1001") != steve {
		t.Fatal("ByXUID failed")
	}
	if m.ByXUID("") != nil {
		t.Fatal("expected players without XUID not to be indexed")
	}

	m.Remove(steve)
	if m.Count() != 1 || m.ByName("Steve") != nil || m.ByUUID(steve.UUID()) != nil {
		t.Fatal("expected Steve to be removed")
	}
}

func TestPlayerManagerRemoveClearsViewVector(t *testing.T) {
	m := NewPlayerManager(nil, discardLogger())
	a := newPlayer(nil, uuid.New(), "A", "")
	b := newPlayer(nil, uuid.New(), "B", "")
	m.Add(a)
	m.Add(b)

	a.SetPrevPlayerInVector(b)
	m.Remove(b)
	if a.PrevPlayerInVector() != nil {
		t.Fatal("expected reference to removed player to be cleared")
	}
}

func TestPlayerTagsPersisted(t *testing.T) {
	store := NewMemoryTagStore()
	if err := store.SetTags(context.Background(), "42", []string{"dev"}); err != nil {
		t.Fatal(err)
	}

	m := NewPlayerManager(store, discardLogger())
	p := newPlayer(nil, uuid.New(), "Steve", "42")
	m.loadTags(p)
	m.Add(p)

	if !p.HasTag("dev") {
		t.Fatal("expected stored tag to be loaded")
	}
	if !p.AddTag("admin") {
		t.Fatal("expected tag to be added")
	}
	if p.AddTag("admin") {
		t.Fatal("expected duplicate tag to be rejected")
	}

	stored, _ := store.Tags(context.Background(), "42")
	if !slices.Equal(stored, []string{"dev", "admin"}) {
		t.Fatalf("unexpected stored tags: %v", stored)
	}

	if !p.RemoveTag("dev") || p.RemoveTag("dev") {
		t.Fatal("unexpected RemoveTag result")
	}
	stored, _ = store.Tags(context.Background(), "42")
	if !slices.Equal(stored, []string{"admin"}) {
		t.Fatalf("unexpected stored tags: %v", stored)
	}
}

func TestPlayerDetached(t *testing.T) {
	p := newPlayer(nil, uuid.New(), "Steve", "")

	if !p.IsAlive() || p.IsMuted() || p.IsSprinting() || p.IsSneaking() {
		t.Fatal("unexpected initial state")
	}
	p.SetMuted(true)
	if !p.IsMuted() {
		t.Fatal("expected player to be muted")
	}

	if p.Exec(nil) {
		t.Fatal("expected Exec to fail without an entity")
	}
	if _, err := p.NameTag(); err != ErrPlayerOffline {
		t.Fatalf("expected ErrPlayerOffline, got %v", err)
	}
	if err := p.Kick(""); err != ErrPlayerOffline {
		t.Fatalf("expected ErrPlayerOffline, got %v", err)
	}

	// A detached player is still a valid command sender.
	var s Sender = p
	if got, ok := SenderPlayer(s); !ok || got != p {
		t.Fatal("expected SenderPlayer to resolve the player")
	}
	if _, ok := SenderPlayer(&fakeSender{}); ok {
		t.Fatal("expected SenderPlayer to reject other senders")
	}
}

func TestPlayerManagerReplaceSameUUID(t *testing.T) {
	m := NewPlayerManager(nil, discardLogger())
	id := uuid.New()
	alex := newPlayer(nil, uuid.New(), "Alex", "")
	old := newPlayer(nil, id, "Steve", "1001")
	m.Add(old)
	m.Add(alex)

	renamed := newPlayer(nil, id, "Steve2", "1001")
	m.Add(renamed)

	if all := m.All(); len(all) != 2 || all[0] != renamed || all[1] != alex {
		t.Fatalf("unexpected players after replace: %v", all)
	}
	if m.ByUUID(id) != renamed || m.ByXUID("1001") != renamed {
		t.Fatal("expected lookups to resolve the new wrapper")
	}
	if m.ByName("Steve") != nil {
		t.Fatal("expected the old name to be unindexed")
	}

	m.Remove(old)
	if m.ByUUID(id) != renamed || m.Count() != 2 {
		t.Fatal("removing the replaced wrapper must not touch the new one")
	}

	m.Remove(renamed)
	if m.ByUUID(id) != nil || m.ByXUID("1001") != nil || m.Count() != 1 {
		t.Fatal("expected the new wrapper to be removed")
	}
}
