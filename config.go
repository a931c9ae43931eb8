package beapi

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the environment configuration of a BeAPI server.
type Config struct {
	// Address is the UDP address the Bedrock server listens on.
	Address string `env:"BEAPI_ADDRESS" envDefault:":19132"`
	// ServerName is shown in the server list.
	ServerName string `env:"BEAPI_SERVER_NAME" envDefault:"BeAPI Server"`

	Prefix   string        `env:"BEAPI_PREFIX" envDefault:"-"`
	TickRate time.Duration `env:"BEAPI_TICK_RATE" envDefault:"50ms"`

	// SocketURL is the websocket endpoint of the socket manager. Empty disables it.
	SocketURL string `env:"BEAPI_SOCKET_URL"`
	SocketLog bool   `env:"BEAPI_SOCKET_LOG" envDefault:"false"`

	// TagDatabase is the SQLite file player tags are stored in. Empty keeps them in memory.
	TagDatabase string `env:"BEAPI_TAG_DB" envDefault:"beapi.db"`

	ViewVector bool    `env:"BEAPI_VIEW_VECTOR" envDefault:"true"`
	ViewReach  float64 `env:"BEAPI_VIEW_REACH" envDefault:"64"`

	LogLevel slog.Level `env:"BEAPI_LOG_LEVEL" envDefault:"INFO"`
}

// LoadConfig reads the configuration from the environment. Variables from a
// .env file in the working directory are loaded first if the file exists;
// variables already set take precedence.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Prefix == "" {
		return Config{}, fmt.Errorf("parse env: BEAPI_PREFIX must not be empty")
	}
	return cfg, nil
}

// Builder returns a builder configured from cfg. The tag store is not opened here.
func (cfg Config) Builder(log *slog.Logger) *Builder {
	return NewBuilder().
		Logger(log).
		Prefix(cfg.Prefix).
		TickRate(cfg.TickRate).
		Socket(cfg.SocketURL, cfg.SocketLog).
		ViewVector(cfg.ViewVector).
		Sighter(RaySighter{Reach: cfg.ViewReach})
}
