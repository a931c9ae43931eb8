package beapi

import (
	"time"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// PlayerHandler is the player.Handler installed by Client.Accept. It keeps
// the wrapper's state current and turns Dragonfly callbacks into BeAPI events.
//
// Concurrency:
// Dragonfly calls handlers synchronously inside the player's world
// transaction, so listeners of the events emitted here must not call
// Player methods that go through Exec. Use the *player.Player or the
// Sender they are given instead.
type PlayerHandler struct {
	player.NopHandler

	client *Client
	player *Player
}

// NewPlayerHandler creates the handler for a tracked player.
func NewPlayerHandler(c *Client, p *Player) *PlayerHandler {
	return &PlayerHandler{client: c, player: p}
}

// Player returns the wrapper this handler serves.
func (h *PlayerHandler) Player() *Player {
	return h.player
}

// Compile-time check that PlayerHandler implements player.Handler.
var _ player.Handler = (*PlayerHandler)(nil)

// HandleChat routes prefixed messages to the command manager and drops chat
// of muted players.
func (h *PlayerHandler) HandleChat(ctx *player.Context, message *string) {
	pl := ctx.Val()
	if h.player.IsMuted() {
		ctx.Cancel()
		pl.Message("§cYou are muted.")
		return
	}

	if cm := h.client.commands; cm.Enabled() && cm.IsCommand(*message) {
		ctx.Cancel()
		h.client.events.Emit(EventChatCommand, ChatCommand{
			Sender:  txSender{pl: pl, player: h.player},
			Command: *message,
		})
		return
	}

	h.client.events.Emit(EventChat, ChatEvent{
		Player:  h.player,
		Message: message,
		Cancel:  ctx.Cancel,
	})
}

// HandleToggleSprint handles the player toggling sprint.
func (h *PlayerHandler) HandleToggleSprint(ctx *player.Context, after bool) {
	h.player.sprinting.Store(after)
	h.client.events.Emit(EventPlayerToggleSprint, PlayerToggleEvent{Player: h.player, After: after, Cancel: ctx.Cancel})
}

// HandleToggleSneak handles the player toggling sneak.
func (h *PlayerHandler) HandleToggleSneak(ctx *player.Context, after bool) {
	h.player.sneaking.Store(after)
	h.client.events.Emit(EventPlayerToggleSneak, PlayerToggleEvent{Player: h.player, After: after, Cancel: ctx.Cancel})
}

// HandleHurt handles the player being hurt.
func (h *PlayerHandler) HandleHurt(ctx *player.Context, damage *float64, _ bool, _ *time.Duration, src world.DamageSource) {
	h.client.events.Emit(EventPlayerHurt, PlayerHurtEvent{
		Player: h.player,
		Damage: damage,
		Source: src,
		Cancel: ctx.Cancel,
	})
}

// HandleDeath handles the player dying.
func (h *PlayerHandler) HandleDeath(_ *player.Player, src world.DamageSource, keepInv *bool) {
	h.player.alive.Store(false)
	h.client.events.Emit(EventPlayerDied, PlayerDiedEvent{Player: h.player, Source: src, KeepInventory: keepInv})
}

// HandleRespawn handles the player respawning.
func (h *PlayerHandler) HandleRespawn(_ *player.Player, _ *mgl64.Vec3, _ **world.World) {
	h.player.alive.Store(true)
	h.client.events.Emit(EventPlayerRespawned, PlayerRespawnedEvent{Player: h.player})
}

// HandleQuit handles a player quitting the server.
func (h *PlayerHandler) HandleQuit(_ *player.Player) {
	h.client.events.Emit(EventPlayerLeft, PlayerLeftEvent{Player: h.player})
	h.client.players.Remove(h.player)
}
