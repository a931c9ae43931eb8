package beapi

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
)

// adminTag allows a player to run the operator command.
const adminTag = "admin"

// newTagCommand returns the /beapitag command granting permission tags.
func newTagCommand(c *Client) cmd.Command {
	return cmd.New("beapitag", "Manage BeAPI permission tags.", nil,
		tagAdd{tagAllower: tagAllower{client: c}},
		tagRemove{tagAllower: tagAllower{client: c}},
		tagList{tagAllower: tagAllower{client: c}},
	)
}

// tagAllower allows the console and players tagged admin.
type tagAllower struct {
	client *Client
}

// Allow ...
func (a tagAllower) Allow(src cmd.Source) bool {
	pl, p := Command(src)
	if pl == nil {
		return true
	}
	return p != nil && p.HasTag(adminTag)
}

type tagAdd struct {
	tagAllower
	Sub     cmd.SubCommand `cmd:"add"`
	Targets []cmd.Target   `cmd:"player"`
	Tag     string         `cmd:"tag"`
}

// Run ...
func (t tagAdd) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	for _, p := range t.targets(t.Targets, o) {
		if p.AddTag(t.Tag) {
			o.Printf("Added tag %s to %s.", t.Tag, p.Name())
		} else {
			o.Errorf("%s already has tag %s.", p.Name(), t.Tag)
		}
	}
}

type tagRemove struct {
	tagAllower
	Sub     cmd.SubCommand `cmd:"remove"`
	Targets []cmd.Target   `cmd:"player"`
	Tag     string         `cmd:"tag"`
}

// Run ...
func (t tagRemove) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	for _, p := range t.targets(t.Targets, o) {
		if p.RemoveTag(t.Tag) {
			o.Printf("Removed tag %s from %s.", t.Tag, p.Name())
		} else {
			o.Errorf("%s does not have tag %s.", p.Name(), t.Tag)
		}
	}
}

type tagList struct {
	tagAllower
	Sub     cmd.SubCommand `cmd:"list"`
	Targets []cmd.Target   `cmd:"player"`
}

// Run ...
func (t tagList) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	for _, p := range t.targets(t.Targets, o) {
		tags := p.Tags()
		if len(tags) == 0 {
			o.Printf("%s has no tags.", p.Name())
			continue
		}
		o.Printf("%s: %s", p.Name(), strings.Join(tags, ", "))
	}
}

// targets resolves command targets to tracked players.
func (a tagAllower) targets(targets []cmd.Target, o *cmd.Output) []*Player {
	var players []*Player
	for _, target := range targets {
		pl, ok := target.(*player.Player)
		if !ok {
			continue
		}
		p := playerFromHandler(pl)
		if p == nil {
			p = a.client.players.ByPlayer(pl)
		}
		if p == nil {
			o.Errorf("%s is not tracked by BeAPI.", pl.Name())
			continue
		}
		players = append(players, p)
	}
	if len(players) == 0 && len(targets) == 0 {
		o.Error("No targets matched selector")
	}
	return players
}
