package beapi

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/title"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ErrPlayerOffline is returned when the player is no longer in a world.
var ErrPlayerOffline = errors.New("beapi: player offline")

// EntityTypePlayer is the encoded entity type of players.
const EntityTypePlayer = "minecraft:player"

// Player wraps a Dragonfly player's EntityHandle, which is persistent across
// transactions, together with the state BeAPI keeps for it.
//
// Methods that talk to the engine run inside the player's world transaction
// through Exec. They must not be called from a goroutine that is already
// inside that world's transaction (handlers, commands); use the
// *player.Player available there instead.
type Player struct {
	handle *world.EntityHandle
	uuid   uuid.UUID
	name   string
	xuid   string

	// manager persists tag changes, nil for detached players
	manager *PlayerManager

	mu         sync.RWMutex
	tags       []string
	prevPlayer *Player

	sprinting atomic.Bool
	sneaking  atomic.Bool
	alive     atomic.Bool
	muted     atomic.Bool
}

// newPlayer creates a wrapper. handle may be nil for players not backed by an entity.
func newPlayer(handle *world.EntityHandle, id uuid.UUID, name, xuid string) *Player {
	p := &Player{
		handle: handle,
		uuid:   id,
		name:   name,
		xuid:   xuid,
	}
	p.alive.Store(true)
	return p
}

// Handle returns the underlying EntityHandle.
func (p *Player) Handle() *world.EntityHandle {
	return p.handle
}

// UUID returns the player's UUID.
func (p *Player) UUID() uuid.UUID {
	return p.uuid
}

// Name returns the player's name.
func (p *Player) Name() string {
	return p.name
}

// XUID returns the player's XUID.
func (p *Player) XUID() string {
	return p.xuid
}

// Exec runs fn within the player's world transaction.
// Returns false if the player is offline.
func (p *Player) Exec(fn func(tx *world.Tx, pl *player.Player)) bool {
	if p.handle == nil {
		return false
	}
	return p.handle.ExecWorld(func(tx *world.Tx, e world.Entity) {
		pl, ok := e.(*player.Player)
		if !ok {
			return
		}
		fn(tx, pl)
	})
}

// exec is Exec returning ErrPlayerOffline.
func (p *Player) exec(fn func(tx *world.Tx, pl *player.Player)) error {
	if !p.Exec(fn) {
		return ErrPlayerOffline
	}
	return nil
}

// SendMessage sends a chat message to the player.
func (p *Player) SendMessage(message string) {
	p.Exec(func(_ *world.Tx, pl *player.Player) {
		pl.Message(message)
	})
}

// SendActionbar shows a message above the hotbar.
func (p *Player) SendActionbar(message string) {
	p.Exec(func(_ *world.Tx, pl *player.Player) {
		pl.SendTip(message)
	})
}

// SendTitle shows a title.
func (p *Player) SendTitle(message string) {
	p.Exec(func(_ *world.Tx, pl *player.Player) {
		pl.SendTitle(title.New(message))
	})
}

// SendSubtitle shows a subtitle below an empty title.
func (p *Player) SendSubtitle(message string) {
	p.Exec(func(_ *world.Tx, pl *player.Player) {
		pl.SendTitle(title.New("").WithSubtitle(message))
	})
}

// Kick disconnects the player. An empty reason uses a default message.
func (p *Player) Kick(reason string) error {
	if reason == "" {
		reason = "You were kicked from the game!"
	}
	return p.exec(func(_ *world.Tx, pl *player.Player) {
		pl.Disconnect(reason)
	})
}

// NameTag returns the name tag displayed above the player.
func (p *Player) NameTag() (tag string, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		tag = pl.NameTag()
	})
	return tag, err
}

// SetNameTag changes the name tag displayed above the player.
func (p *Player) SetNameTag(tag string) error {
	return p.exec(func(_ *world.Tx, pl *player.Player) {
		pl.SetNameTag(tag)
	})
}

// GameMode returns the player's game mode.
func (p *Player) GameMode() (mode world.GameMode, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		mode = pl.GameMode()
	})
	return mode, err
}

// SetGameMode changes the player's game mode.
func (p *Player) SetGameMode(mode world.GameMode) error {
	return p.exec(func(_ *world.Tx, pl *player.Player) {
		pl.SetGameMode(mode)
	})
}

// Location returns the player's block-aligned position.
func (p *Player) Location() (loc mgl64.Vec3, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		loc = floorVec(pl.Position())
	})
	return loc, err
}

// Teleport moves the player within its current world.
func (p *Player) Teleport(pos mgl64.Vec3) error {
	return p.exec(func(_ *world.Tx, pl *player.Player) {
		pl.Teleport(pos)
	})
}

// Velocity returns the player's velocity.
func (p *Player) Velocity() (v mgl64.Vec3, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		v = pl.Velocity()
	})
	return v, err
}

// SetVelocity changes the player's velocity.
func (p *Player) SetVelocity(v mgl64.Vec3) error {
	return p.exec(func(_ *world.Tx, pl *player.Player) {
		pl.SetVelocity(v)
	})
}

// Health returns the current and maximum health.
func (p *Player) Health() (current, maximum float64, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		current, maximum = pl.Health(), pl.MaxHealth()
	})
	return current, maximum, err
}

// XPLevel returns the player's experience level.
func (p *Player) XPLevel() (level int, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		level = pl.ExperienceLevel()
	})
	return level, err
}

// AddXPLevel adds levels (negative to remove) and returns the new level.
func (p *Player) AddXPLevel(levels int) (level int, err error) {
	err = p.exec(func(_ *world.Tx, pl *player.Player) {
		pl.SetExperienceLevel(max(pl.ExperienceLevel()+levels, 0))
		level = pl.ExperienceLevel()
	})
	return level, err
}

// Tags returns a copy of the player's tags.
func (p *Player) Tags() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.tags)
}

// HasTag reports whether the player carries tag.
func (p *Player) HasTag(tag string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Contains(p.tags, tag)
}

// AddTag adds a tag. Returns false if the player already had it.
func (p *Player) AddTag(tag string) bool {
	p.mu.Lock()
	if tag == "" || slices.Contains(p.tags, tag) {
		p.mu.Unlock()
		return false
	}
	p.tags = append(p.tags, tag)
	tags := slices.Clone(p.tags)
	p.mu.Unlock()

	p.persistTags(tags)
	return true
}

// RemoveTag removes a tag. Returns false if the player did not have it.
func (p *Player) RemoveTag(tag string) bool {
	p.mu.Lock()
	i := slices.Index(p.tags, tag)
	if i < 0 {
		p.mu.Unlock()
		return false
	}
	p.tags = slices.Delete(p.tags, i, i+1)
	tags := slices.Clone(p.tags)
	p.mu.Unlock()

	p.persistTags(tags)
	return true
}

// setTags replaces the tags without persisting them.
func (p *Player) setTags(tags []string) {
	p.mu.Lock()
	p.tags = slices.Clone(tags)
	p.mu.Unlock()
}

func (p *Player) persistTags(tags []string) {
	if p.manager != nil {
		p.manager.saveTags(p, tags)
	}
}

// PrevPlayerInVector returns the last player observed in this player's view vector.
func (p *Player) PrevPlayerInVector() *Player {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prevPlayer
}

// SetPrevPlayerInVector records the last player observed in this player's view vector.
func (p *Player) SetPrevPlayerInVector(target *Player) {
	p.mu.Lock()
	p.prevPlayer = target
	p.mu.Unlock()
}

// IsSprinting reports the last sprint state seen by the handler.
func (p *Player) IsSprinting() bool { return p.sprinting.Load() }

// IsSneaking reports the last sneak state seen by the handler.
func (p *Player) IsSneaking() bool { return p.sneaking.Load() }

// IsAlive reports whether the player is alive.
func (p *Player) IsAlive() bool { return p.alive.Load() }

// IsMuted reports whether the player's chat is blocked.
func (p *Player) IsMuted() bool { return p.muted.Load() }

// SetMuted blocks or unblocks the player's chat.
func (p *Player) SetMuted(muted bool) { p.muted.Store(muted) }

// String returns a string representation of the player for debugging.
func (p *Player) String() string {
	return fmt.Sprintf("Player{Name: %s, XUID: %s, UUID: %s, Tags: %v}", p.name, p.xuid, p.uuid, p.Tags())
}

// txSender is the Sender of a chat command. It talks to the *player.Player
// of the running transaction directly, since Exec would wait on the
// transaction the command runs in.
type txSender struct {
	pl     *player.Player
	player *Player
}

func (s txSender) Name() string { return s.player.Name() }

func (s txSender) SendMessage(message string) { s.pl.Message(message) }

func (s txSender) Tags() []string { return s.player.Tags() }

// Player returns the wrapper of the sending player.
func (s txSender) Player() *Player { return s.player }

// SenderPlayer returns the player wrapper behind a command sender, if any.
func SenderPlayer(s Sender) (*Player, bool) {
	switch v := s.(type) {
	case *Player:
		return v, true
	case interface{ Player() *Player }:
		return v.Player(), true
	}
	return nil, false
}
