package beapi

import (
	"io"
	"log/slog"
	"time"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
)

// Builder configures a Client before initialization.
// Use NewBuilder() to create a builder and chain configuration methods.
type Builder struct {
	prefix     string
	tickRate   time.Duration
	log        *slog.Logger
	tags       TagStore
	socketURL  string
	socketLog  bool
	viewVector bool
	sighter    Sighter
	opCommand  bool
	commands   []commandRegistration
}

// commandRegistration holds a chat command registered on the builder.
type commandRegistration struct {
	options CommandOptions
	handler CommandHandler
}

// NewBuilder creates a new builder.
func NewBuilder() *Builder {
	return &Builder{
		prefix:   DefaultPrefix,
		tickRate: DefaultTickRate,
		sighter:  RaySighter{Reach: DefaultViewReach},
	}
}

// Prefix sets the chat command prefix.
func (b *Builder) Prefix(prefix string) *Builder {
	b.prefix = prefix
	return b
}

// TickRate sets the duration of a scheduler tick.
func (b *Builder) TickRate(d time.Duration) *Builder {
	b.tickRate = d
	return b
}

// Logger sets the logger.
func (b *Builder) Logger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// TagStore sets where player tags are persisted.
func (b *Builder) TagStore(s TagStore) *Builder {
	b.tags = s
	return b
}

// Socket configures the websocket endpoint of the socket manager.
func (b *Builder) Socket(url string, log bool) *Builder {
	b.socketURL = url
	b.socketLog = log
	return b
}

// ViewVector enables the PlayerInViewVector event on Init.
func (b *Builder) ViewVector(enabled bool) *Builder {
	b.viewVector = enabled
	return b
}

// Sighter replaces the view vector lookup.
func (b *Builder) Sighter(s Sighter) *Builder {
	b.sighter = s
	return b
}

// OperatorCommand registers the /beapitag Dragonfly command.
func (b *Builder) OperatorCommand(enabled bool) *Builder {
	b.opCommand = enabled
	return b
}

// Command registers a chat command on Init.
func (b *Builder) Command(opts CommandOptions, handler CommandHandler) *Builder {
	b.commands = append(b.commands, commandRegistration{options: opts, handler: handler})
	return b
}

// Init builds the Client and starts its scheduler. w may be nil, in which
// case the client has no WorldManager.
func (b *Builder) Init(w *world.World) *Client {
	c := b.build(w)
	c.scheduler.Start()
	return c
}

// build wires the client without starting it.
func (b *Builder) build(w *world.World) *Client {
	log := b.log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{log: log}
	c.events = NewEvents(log)
	c.scheduler = newScheduler(c.events, b.tickRate, log)
	c.players = NewPlayerManager(b.tags, log)
	c.attachWorld(w)

	opts := []CommandOption{WithPrefix(b.prefix), WithCommandLogger(log)}
	if b.socketURL != "" {
		c.socket = NewSocket(b.socketURL,
			WithSocketLogger(log),
			WithSocketEvents(c.events),
			WithSocketLog(b.socketLog))
		c.closers = append(c.closers, c.socket.Close)
		opts = append(opts, WithSocketLink(c.socket))
	}
	if closer, ok := b.tags.(io.Closer); ok {
		c.closers = append(c.closers, closer.Close)
	}

	c.commands = NewCommandManager(opts...)
	for _, reg := range b.commands {
		if !c.commands.RegisterCommand(reg.options, reg.handler) {
			log.Warn("beapi: command already registered", "command", reg.options.Command)
		}
	}
	On(c.events, EventChatCommand, c.commands.ExecuteCommand)

	c.viewVector = NewPlayerInViewVector(c.events, c.players, b.sighter, c.events)
	if b.viewVector {
		c.viewVector.On()
	}

	if b.opCommand {
		cmd.Register(newTagCommand(c))
	}
	return c
}
