package beapi

import (
	"log/slog"
	"sync"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
)

// Client is the central BeAPI coordinator. It owns the command registry,
// the tracked players, the event emitter and the tick scheduler.
// Multiple Clients can coexist in the same process; none of them is global.
type Client struct {
	log *slog.Logger

	events     *Events
	scheduler  *Scheduler
	commands   *CommandManager
	players    *PlayerManager
	world      *WorldManager
	viewVector *PlayerInViewVector

	// socket is nil when no socket endpoint is configured
	socket *Socket

	// closers run on Close, in reverse order
	closers []func() error

	closeOnce sync.Once
}

// Events returns the client's event emitter.
func (c *Client) Events() *Events {
	return c.events
}

// Scheduler returns the tick scheduler.
func (c *Client) Scheduler() *Scheduler {
	return c.scheduler
}

// Commands returns the chat command manager.
func (c *Client) Commands() *CommandManager {
	return c.commands
}

// Players returns the tracked players.
func (c *Client) Players() *PlayerManager {
	return c.players
}

// World returns the world manager. It is nil if Init was given no world.
func (c *Client) World() *WorldManager {
	return c.world
}

// ViewVector returns the PlayerInViewVector event.
func (c *Client) ViewVector() *PlayerInViewVector {
	return c.viewVector
}

// Socket returns the socket, or nil if none is configured.
func (c *Client) Socket() *Socket {
	return c.socket
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.log
}

// Accept starts tracking a player that joined the server and installs the
// BeAPI handler on it. Dragonfly's accept loop runs inside the player's world
// transaction, so EventPlayerJoin is not emitted here: it is delivered on the
// next scheduler tick, where listeners may use the Player wrapper freely.
//
//	for p := range srv.Accept() {
//	    client.Accept(p)
//	}
func (c *Client) Accept(p *player.Player) *Player {
	wrapped := c.players.Track(p)
	p.Handle(NewPlayerHandler(c, wrapped))
	c.scheduler.SetTimeout(0, func() {
		c.events.Emit(EventPlayerJoin, PlayerJoinEvent{Player: wrapped})
	})
	return wrapped
}

// Emit emits an event on the client's emitter.
func (c *Client) Emit(name EventName, data any) {
	c.events.Emit(name, data)
}

// AddListener registers a listener on the client's emitter.
func (c *Client) AddListener(name EventName, fn Listener) ListenerID {
	return c.events.AddListener(name, fn)
}

// RemoveListener removes a listener from the client's emitter.
func (c *Client) RemoveListener(name EventName, id ListenerID) bool {
	return c.events.RemoveListener(name, id)
}

// Broadcast sends a chat message to every tracked player.
func (c *Client) Broadcast(message string) {
	for _, p := range c.players.All() {
		p.SendMessage(message)
	}
}

// Close stops the scheduler and the view vector event and releases the
// socket and tag store.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.viewVector.Off()
		c.scheduler.Stop()

		for i := len(c.closers) - 1; i >= 0; i-- {
			if err := c.closers[i](); err != nil {
				c.log.Warn("beapi: close failed", "error", err)
			}
		}
	})
}

// attachWorld creates the WorldManager. Without a world the client has none.
func (c *Client) attachWorld(w *world.World) {
	if w != nil {
		c.world = NewWorldManager(w, c.players)
	}
}
