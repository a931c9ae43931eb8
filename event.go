package beapi

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/world"
)

// EventName identifies a BeAPI event.
type EventName string

// Event names emitted by the client.
const (
	EventTick               EventName = "Tick"
	EventChat               EventName = "Chat"
	EventChatCommand        EventName = "ChatCommand"
	EventPlayerJoin         EventName = "PlayerJoin"
	EventPlayerLeft         EventName = "PlayerLeft"
	EventPlayerDied         EventName = "PlayerDied"
	EventPlayerRespawned    EventName = "PlayerRespawned"
	EventPlayerHurt         EventName = "PlayerHurt"
	EventPlayerToggleSprint EventName = "PlayerToggleSprint"
	EventPlayerToggleSneak  EventName = "PlayerToggleSneak"
	EventPlayerInViewVector EventName = "PlayerInViewVector"
	EventSocketMessage      EventName = "SocketMessage"
)

// Event payloads. Payloads carrying a Cancel func are emitted from inside the
// player's world transaction; calling Cancel cancels the underlying action.
// Listeners of those events must not call Player methods that go through Exec.

// TickEvent is emitted once per scheduler tick.
type TickEvent struct {
	Tick uint64
	Time time.Time
}

// ChatEvent is emitted when a player sends a chat message that is not a command.
type ChatEvent struct {
	Player  *Player
	Message *string
	Cancel  func()
}

// PlayerJoinEvent is emitted on the scheduler tick after a player is accepted
// by the client, outside any world transaction.
type PlayerJoinEvent struct {
	Player *Player
}

// PlayerLeftEvent is emitted when a player quits.
type PlayerLeftEvent struct {
	Player *Player
}

// PlayerDiedEvent is emitted when a player dies.
type PlayerDiedEvent struct {
	Player        *Player
	Source        world.DamageSource
	KeepInventory *bool
}

// PlayerRespawnedEvent is emitted when a player respawns.
type PlayerRespawnedEvent struct {
	Player *Player
}

// PlayerHurtEvent is emitted when a player is hurt.
type PlayerHurtEvent struct {
	Player *Player
	Damage *float64
	Source world.DamageSource
	Cancel func()
}

// PlayerToggleEvent is emitted for sprint and sneak toggles.
type PlayerToggleEvent struct {
	Player *Player
	After  bool
	Cancel func()
}

// PlayerInViewVectorEvent is emitted when a player looks at another tracked player.
type PlayerInViewVectorEvent struct {
	Player *Player
	Target *Player
}

// SocketMessageEvent is emitted for every message read from the socket.
type SocketMessageEvent struct {
	Request JSONRequest
}

// Listener receives the payload of an emitted event.
type Listener func(data any)

// ListenerID identifies a registered listener so it can be removed again.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// TickSource delivers a callback once per game tick under EventTick.
type TickSource interface {
	AddListener(name EventName, fn Listener) ListenerID
	RemoveListener(name EventName, id ListenerID) bool
}

// Emitter publishes events.
type Emitter interface {
	Emit(name EventName, data any)
}

// Events is a synchronous, name keyed event emitter.
// Listeners run on the goroutine calling Emit, in registration order.
type Events struct {
	mu        sync.RWMutex
	next      ListenerID
	listeners map[EventName][]listenerEntry
	log       *slog.Logger
}

// NewEvents creates an empty emitter.
func NewEvents(log *slog.Logger) *Events {
	if log == nil {
		log = slog.Default()
	}
	return &Events{
		listeners: make(map[EventName][]listenerEntry),
		log:       log,
	}
}

// AddListener registers fn for the named event.
func (e *Events) AddListener(name EventName, fn Listener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	id := e.next
	e.listeners[name] = append(e.listeners[name], listenerEntry{id: id, fn: fn})
	return id
}

// RemoveListener removes a listener. Returns false if it was not registered.
func (e *Events) RemoveListener(name EventName, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	list := e.listeners[name]
	for i, l := range list {
		if l.id != id {
			continue
		}
		// Copy so that an Emit iterating the old slice is unaffected.
		updated := make([]listenerEntry, 0, len(list)-1)
		updated = append(updated, list[:i]...)
		updated = append(updated, list[i+1:]...)
		if len(updated) == 0 {
			delete(e.listeners, name)
		} else {
			e.listeners[name] = updated
		}
		return true
	}
	return false
}

// ListenerCount returns the number of listeners registered for name.
func (e *Events) ListenerCount(name EventName) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[name])
}

// Emit calls every listener of name with data. A panicking listener is
// logged and does not stop the remaining listeners.
func (e *Events) Emit(name EventName, data any) {
	e.mu.RLock()
	list := e.listeners[name]
	e.mu.RUnlock()

	for _, l := range list {
		e.call(name, l.fn, data)
	}
}

func (e *Events) call(name EventName, fn Listener, data any) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("beapi: panic in event listener",
				"event", string(name),
				"error", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	fn(data)
}

// On registers a typed listener. Payloads of any other type are ignored.
// PlayerJoin is delivered from the scheduler, so its listeners may talk to
// the player through the wrapper:
//
//	beapi.On(events, beapi.EventPlayerJoin, func(e beapi.PlayerJoinEvent) {
//	    e.Player.SendMessage("Welcome!")
//	})
func On[T any](e *Events, name EventName, fn func(T)) ListenerID {
	return e.AddListener(name, func(data any) {
		if v, ok := data.(T); ok {
			fn(v)
		}
	})
}
