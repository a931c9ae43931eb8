package beapi

import (
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
)

// playerFromHandler extracts the wrapper from a player's handler.
// Returns nil if the player doesn't have a BeAPI PlayerHandler.
func playerFromHandler(p *player.Player) *Player {
	h, ok := p.Handler().(*PlayerHandler)
	if !ok {
		return nil
	}
	return h.player
}

// Command extracts the player and its wrapper from a Dragonfly command source.
// Returns (nil, nil) if the source is not a player or is not tracked.
//
// Usage:
//
//	func (c MyCommand) Run(src cmd.Source, out *cmd.Output, tx *world.Tx) {
//	    p, wrapped := beapi.Command(src)
//	    if p == nil || wrapped == nil {
//	        out.Error("Player-only command")
//	        return
//	    }
//	    if !wrapped.HasTag("dev") { ... }
//	}
func Command(src cmd.Source) (*player.Player, *Player) {
	p, ok := src.(*player.Player)
	if !ok {
		return nil, nil
	}
	return p, playerFromHandler(p)
}
