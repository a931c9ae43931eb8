package beapi

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// tagTimeout bounds tag store round trips.
const tagTimeout = 5 * time.Second

// PlayerSource supplies the tracked players and resolves entities to them.
type PlayerSource interface {
	All() []*Player
	ByUUID(id uuid.UUID) *Player
}

// PlayerManager tracks connected players and indexes them for lookup.
type PlayerManager struct {
	mu       sync.RWMutex
	order    []*Player
	byHandle map[*world.EntityHandle]*Player
	byUUID   map[uuid.UUID]*Player
	byName   map[string]*Player
	byXUID   map[string]*Player

	tags TagStore
	log  *slog.Logger
}

// NewPlayerManager creates a player manager. tags may be nil, in which case
// tags only live as long as the player is connected.
func NewPlayerManager(tags TagStore, log *slog.Logger) *PlayerManager {
	if log == nil {
		log = slog.Default()
	}
	return &PlayerManager{
		byHandle: make(map[*world.EntityHandle]*Player),
		byUUID:   make(map[uuid.UUID]*Player),
		byName:   make(map[string]*Player),
		byXUID:   make(map[string]*Player),
		tags:     tags,
		log:      log,
	}
}

// Track creates the wrapper for a joining player, loads its stored tags and
// adds it to the manager. An already tracked player is returned as is.
func (m *PlayerManager) Track(p *player.Player) *Player {
	if existing := m.ByHandle(p.H()); existing != nil {
		return existing
	}
	wrapped := newPlayer(p.H(), p.UUID(), p.Name(), p.XUID())
	m.loadTags(wrapped)
	m.Add(wrapped)
	return wrapped
}

// Add registers a player with the manager. A player with the UUID of a
// tracked one replaces it, keeping its place in the join order.
func (m *PlayerManager) Add(p *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.manager = m
	if old, ok := m.byUUID[p.uuid]; ok && old != p {
		m.unindex(old)
		m.order[slices.Index(m.order, old)] = p
	} else if !ok {
		m.order = append(m.order, p)
	}
	if p.handle != nil {
		m.byHandle[p.handle] = p
	}
	m.byUUID[p.uuid] = p
	m.byName[p.name] = p
	if p.xuid != "" {
		m.byXUID[p.xuid] = p
	}
}

// Remove unregisters a player and clears view vector references to it.
// Removing a player that was replaced does nothing.
func (m *PlayerManager) Remove(p *Player) {
	m.mu.Lock()
	if m.byUUID[p.uuid] != p {
		m.mu.Unlock()
		return
	}
	m.unindex(p)
	m.order = slices.DeleteFunc(m.order, func(o *Player) bool { return o == p })
	remaining := slices.Clone(m.order)
	m.mu.Unlock()

	for _, o := range remaining {
		if o.PrevPlayerInVector() == p {
			o.SetPrevPlayerInVector(nil)
		}
	}
}

// unindex removes the lookup entries pointing at p. Caller must hold the write lock.
func (m *PlayerManager) unindex(p *Player) {
	if p.handle != nil && m.byHandle[p.handle] == p {
		delete(m.byHandle, p.handle)
	}
	if m.byUUID[p.uuid] == p {
		delete(m.byUUID, p.uuid)
	}
	if m.byName[p.name] == p {
		delete(m.byName, p.name)
	}
	if p.xuid != "" && m.byXUID[p.xuid] == p {
		delete(m.byXUID, p.xuid)
	}
}

// All returns the tracked players in join order.
func (m *PlayerManager) All() []*Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// Count returns the number of tracked players.
func (m *PlayerManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}

// ByHandle retrieves a player by entity handle.
func (m *PlayerManager) ByHandle(h *world.EntityHandle) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byHandle[h]
}

// ByPlayer retrieves the wrapper of a Dragonfly player.
func (m *PlayerManager) ByPlayer(p *player.Player) *Player {
	return m.ByHandle(p.H())
}

// ByUUID retrieves a player by UUID.
func (m *PlayerManager) ByUUID(id uuid.UUID) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byUUID[id]
}

// ByName retrieves a player by name.
func (m *PlayerManager) ByName(name string) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byName[name]
}

// ByXUID retrieves a player by XUID.
func (m *PlayerManager) ByXUID(xuid string) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byXUID[xuid]
}

// loadTags fills the player's tags from the store.
func (m *PlayerManager) loadTags(p *Player) {
	if m.tags == nil || p.xuid == "" {
		// Not an error, the player just starts without stored tags.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tagTimeout)
	defer cancel()

	tags, err := m.tags.Tags(ctx, p.xuid)
	if err != nil {
		m.log.Warn("beapi: failed to load tags", "player", p.name, "error", err)
		return
	}
	p.setTags(tags)
}

// saveTags persists the player's tags.
func (m *PlayerManager) saveTags(p *Player, tags []string) {
	if m.tags == nil || p.xuid == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), tagTimeout)
	defer cancel()

	if err := m.tags.SetTags(ctx, p.xuid, tags); err != nil {
		m.log.Warn("beapi: failed to save tags", "player", p.name, "error", err)
	}
}
