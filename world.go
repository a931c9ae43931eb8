package beapi

import (
	"fmt"
	"math"
	"time"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Weather is the weather set through WorldManager.SetWeather.
type Weather string

const (
	WeatherClear   Weather = "clear"
	WeatherRain    Weather = "rain"
	WeatherThunder Weather = "thunder"
)

// defaultWeatherDuration is how long rain and thunder last when set without a duration.
const defaultWeatherDuration = 10 * time.Minute

// WorldManager wraps a Dragonfly world.
type WorldManager struct {
	w       *world.World
	players *PlayerManager
}

// NewWorldManager creates a world manager. players is used for broadcasts
// and location queries.
func NewWorldManager(w *world.World, players *PlayerManager) *WorldManager {
	return &WorldManager{w: w, players: players}
}

// World returns the underlying world.
func (m *WorldManager) World() *world.World {
	return m.w
}

// Exec runs fn within the world transaction and waits for it to finish.
func (m *WorldManager) Exec(fn func(tx *world.Tx)) {
	<-m.w.Exec(fn)
}

// SendMessage sends a chat message to every tracked player.
func (m *WorldManager) SendMessage(message string) {
	for _, p := range m.players.All() {
		p.SendMessage(message)
	}
}

// PlayersAt returns the tracked players of this world standing in the block at pos.
func (m *WorldManager) PlayersAt(pos mgl64.Vec3) []*Player {
	block := floorVec(pos)

	var found []*Player
	m.Exec(func(tx *world.Tx) {
		for _, p := range m.players.All() {
			e, ok := p.Handle().Entity(tx)
			if !ok {
				continue
			}
			pl, ok := e.(*player.Player)
			if ok && floorVec(pl.Position()) == block {
				found = append(found, p)
			}
		}
	})
	return found
}

// Time returns the time of day.
func (m *WorldManager) Time() int {
	return m.w.Time()
}

// SetTime sets the time of day.
func (m *WorldManager) SetTime(t int) {
	m.w.SetTime(t)
}

// SetWeather changes the weather for the default duration.
func (m *WorldManager) SetWeather(weather Weather) error {
	return m.SetWeatherFor(weather, defaultWeatherDuration)
}

// SetWeatherFor changes the weather for d.
func (m *WorldManager) SetWeatherFor(weather Weather, d time.Duration) error {
	switch weather {
	case WeatherClear:
		m.w.StopThundering()
		m.w.StopRaining()
	case WeatherRain:
		m.w.StopThundering()
		m.w.StartRaining(d)
	case WeatherThunder:
		m.w.StartRaining(d)
		m.w.StartThundering(d)
	default:
		return fmt.Errorf("unknown weather %q", weather)
	}
	return nil
}

func floorVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Floor(v[0]), math.Floor(v[1]), math.Floor(v[2])}
}
