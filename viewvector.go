package beapi

import (
	"fmt"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube/trace"
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// DefaultViewReach is the distance in blocks RaySighter looks along the view vector.
const DefaultViewReach = 64.0

// Sighting is the first entity found on a player's view vector.
type Sighting struct {
	UUID uuid.UUID
	// Type is the encoded entity type, e.g. "minecraft:player".
	Type string
}

// Sighter finds the entity a player is looking at. ok is false if there is none.
type Sighter interface {
	Sight(p *Player) (s Sighting, ok bool, err error)
}

// sightOutcome is the result of checking one player in a tick.
type sightOutcome int

const (
	sightFound sightOutcome = iota
	sightSkipped
	sightFailed
)

// sightResult is the per-player result folded over a tick.
type sightResult struct {
	outcome sightOutcome
	player  *Player
	target  *Player
	err     error
}

// PlayerInViewVector emits EventPlayerInViewVector every tick for every
// tracked player looking at another tracked player.
//
// A lookup failure only affects the player it happened for. By default the
// failure is dropped; WithFailureHandler observes it instead.
type PlayerInViewVector struct {
	ticks   TickSource
	players PlayerSource
	sight   Sighter
	emit    Emitter

	onFailure func(p *Player, err error)

	mu         sync.Mutex
	registered bool
	listener   ListenerID
}

// ViewVectorOption configures a PlayerInViewVector.
type ViewVectorOption func(*PlayerInViewVector)

// WithFailureHandler is called for each player whose lookup failed in a tick.
func WithFailureHandler(fn func(p *Player, err error)) ViewVectorOption {
	return func(v *PlayerInViewVector) {
		v.onFailure = fn
	}
}

// NewPlayerInViewVector creates the event in the off state.
func NewPlayerInViewVector(ticks TickSource, players PlayerSource, sight Sighter, emit Emitter, opts ...ViewVectorOption) *PlayerInViewVector {
	v := &PlayerInViewVector{
		ticks:   ticks,
		players: players,
		sight:   sight,
		emit:    emit,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name returns the event name.
func (v *PlayerInViewVector) Name() EventName {
	return EventPlayerInViewVector
}

// On subscribes to the tick source. Calling On while on does nothing.
func (v *PlayerInViewVector) On() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.registered {
		return
	}
	v.listener = v.ticks.AddListener(EventTick, func(any) { v.Tick() })
	v.registered = true
}

// Off unsubscribes from the tick source. Calling Off while off does nothing.
func (v *PlayerInViewVector) Off() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.registered {
		return
	}
	v.ticks.RemoveListener(EventTick, v.listener)
	v.registered = false
}

// Registered reports whether the event is subscribed to the tick source.
func (v *PlayerInViewVector) Registered() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.registered
}

// Tick runs one pass over all tracked players.
func (v *PlayerInViewVector) Tick() {
	for _, p := range v.players.All() {
		res := v.check(p)
		switch res.outcome {
		case sightFound:
			p.SetPrevPlayerInVector(res.target)
			v.emit.Emit(EventPlayerInViewVector, PlayerInViewVectorEvent{
				Player: p,
				Target: res.target,
			})
		case sightFailed:
			if v.onFailure != nil {
				v.onFailure(p, res.err)
			}
		}
	}
}

// check looks up the target of a single player. Panics from the lookup are
// reported as failures.
func (v *PlayerInViewVector) check(p *Player) (res sightResult) {
	res.player = p
	defer func() {
		if r := recover(); r != nil {
			res = sightResult{outcome: sightFailed, player: p, err: fmt.Errorf("sight panic: %v", r)}
		}
	}()

	s, ok, err := v.sight.Sight(p)
	if err != nil {
		res.outcome, res.err = sightFailed, err
		return res
	}
	if !ok || s.Type != EntityTypePlayer {
		res.outcome = sightSkipped
		return res
	}
	target := v.players.ByUUID(s.UUID)
	if target == nil {
		res.outcome = sightSkipped
		return res
	}
	res.outcome, res.target = sightFound, target
	return res
}

// RaySighter finds the nearest entity intersecting the player's line of sight.
type RaySighter struct {
	// Reach is the maximum distance in blocks.
	Reach float64
}

// Sight implements Sighter. It runs inside the player's world transaction.
func (r RaySighter) Sight(p *Player) (s Sighting, ok bool, err error) {
	reach := r.Reach
	if reach <= 0 {
		reach = DefaultViewReach
	}

	err = p.exec(func(tx *world.Tx, pl *player.Player) {
		start := entity.EyePosition(pl)
		end := start.Add(pl.Rotation().Vec3().Mul(reach))

		nearest := reach * reach
		for e := range tx.Entities() {
			if e.H() == pl.H() {
				continue
			}
			hit, intercepts := trace.EntityIntercept(e, start, end)
			if !intercepts {
				continue
			}
			if dist := hit.Position().Sub(start).LenSqr(); dist <= nearest {
				nearest = dist
				s = Sighting{UUID: e.H().UUID(), Type: e.H().Type().EncodeEntity()}
				ok = true
			}
		}
	})
	return s, ok, err
}
