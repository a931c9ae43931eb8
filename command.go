package beapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// DefaultPrefix is the chat command prefix used until SetPrefix is called.
const DefaultPrefix = "-"

// Sender is the origin of a chat command.
type Sender interface {
	Name() string
	SendMessage(message string)
	Tags() []string
}

// SocketLink is the part of the socket the diagnostic command drives.
type SocketLink interface {
	SetLog(enabled bool)
	SendMessage(req JSONRequest) error
}

// CommandOptions describes a chat command.
type CommandOptions struct {
	// Command is the unique name typed after the prefix.
	Command     string
	Description string
	// Aliases route to the same handler and are never listed by help.
	Aliases []string
	// PermissionTags restricts the command to senders carrying at least one of the tags.
	PermissionTags []string
	// Hidden keeps the command out of the help listing.
	Hidden bool
}

// CommandResponse is passed to a command handler.
type CommandResponse struct {
	Sender Sender
	Args   []string
}

// CommandHandler handles an invocation of a chat command.
type CommandHandler func(data CommandResponse)

// CommandEntry is a registry entry. Aliases get their own entry sharing the
// options and handler of the primary name.
type CommandEntry struct {
	Name       string
	Options    CommandOptions
	ShowInList bool
	Execute    CommandHandler
}

// ChatCommand is a chat message that starts with the command prefix.
type ChatCommand struct {
	Sender  Sender
	Command string
}

// ParsedCommand is the result of ParseCommand.
type ParsedCommand struct {
	Command string
	Args    []string
}

// Messages replied by the command manager.
const (
	msgUnknownCommand = "§cThis command doesn't exist!"
	msgNoPermission   = "§cYou dont have permission to use this command!"
	msgCommandFailed  = "§cAn error occurred while running this command."
)

// CommandManager keeps the chat command registry and dispatches chat commands.
// It is safe for concurrent use; dispatch itself is synchronous on the
// goroutine delivering the chat command.
type CommandManager struct {
	mu       sync.RWMutex
	prefix   string
	enabled  bool
	commands map[string]*CommandEntry
	order    []string

	socket SocketLink
	log    *slog.Logger
}

// CommandOption configures a CommandManager.
type CommandOption func(*CommandManager)

// WithSocketLink sets the socket driven by the sm diagnostic command.
func WithSocketLink(s SocketLink) CommandOption {
	return func(m *CommandManager) {
		m.socket = s
	}
}

// WithCommandLogger sets the logger used for handler failures.
func WithCommandLogger(log *slog.Logger) CommandOption {
	return func(m *CommandManager) {
		m.log = log
	}
}

// WithPrefix sets the initial command prefix.
func WithPrefix(prefix string) CommandOption {
	return func(m *CommandManager) {
		m.prefix = prefix
	}
}

// NewCommandManager creates a registry seeded with the help, about and sm commands.
func NewCommandManager(opts ...CommandOption) *CommandManager {
	m := &CommandManager{
		prefix:   DefaultPrefix,
		enabled:  true,
		commands: make(map[string]*CommandEntry),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.registerDefaults()
	return m
}

// RegisterCommand adds a command and its aliases. Registering a name that
// already exists is a no-op and returns false. Aliases that collide with an
// existing entry are skipped; the existing entry is kept.
func (m *CommandManager) RegisterCommand(opts CommandOptions, handler CommandHandler) bool {
	if opts.Command == "" || handler == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.commands[opts.Command]; ok {
		return false
	}
	opts.Aliases = slices.Clone(opts.Aliases)
	opts.PermissionTags = slices.Clone(opts.PermissionTags)

	m.insert(opts.Command, &CommandEntry{
		Name:       opts.Command,
		Options:    opts,
		ShowInList: !opts.Hidden,
		Execute:    handler,
	})
	for _, alias := range opts.Aliases {
		if _, ok := m.commands[alias]; ok || alias == "" {
			continue
		}
		m.insert(alias, &CommandEntry{
			Name:       alias,
			Options:    opts,
			ShowInList: false,
			Execute:    handler,
		})
	}
	return true
}

// insert adds an entry. Caller must hold the write lock.
func (m *CommandManager) insert(name string, entry *CommandEntry) {
	m.commands[name] = entry
	m.order = append(m.order, name)
}

// Command returns the entry registered under name or alias.
func (m *CommandManager) Command(name string) (CommandEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.commands[name]
	if !ok {
		return CommandEntry{}, false
	}
	return *e, true
}

// Commands returns every registry entry, aliases included, in registration order.
func (m *CommandManager) Commands() []CommandEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]CommandEntry, 0, len(m.order))
	for _, name := range m.order {
		list = append(list, *m.commands[name])
	}
	return list
}

// Prefix returns the current command prefix.
func (m *CommandManager) Prefix() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefix
}

// SetPrefix replaces the command prefix. It applies to the next parsed command.
func (m *CommandManager) SetPrefix(prefix string) {
	m.mu.Lock()
	m.prefix = prefix
	m.mu.Unlock()
}

// Enabled reports whether chat is routed to the command manager.
func (m *CommandManager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// SetEnabled toggles chat command routing.
func (m *CommandManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
}

// IsCommand reports whether a chat message should be handled as a command.
func (m *CommandManager) IsCommand(text string) bool {
	prefix := m.Prefix()
	return prefix != "" && strings.HasPrefix(text, prefix)
}

// ParseCommand splits chat text into the command name and its arguments.
//
//	ParseCommand("-give Steve diamond", "-") // {give [Steve diamond]}
//	ParseCommand("-help", "-")               // {help []}
func ParseCommand(text, prefix string) ParsedCommand {
	command, _, _ := strings.Cut(strings.Replace(text, prefix, "", 1), " ")

	rest := strings.Replace(text, prefix+command+" ", "", 1)
	args := make([]string, 0)
	for _, arg := range strings.Split(rest, " ") {
		if arg != "" {
			args = append(args, arg)
		}
	}
	// Without a trailing argument nothing was stripped and the command itself is left over.
	if len(args) > 0 && args[0] == prefix+command {
		args = args[1:]
	}

	return ParsedCommand{Command: command, Args: args}
}

// ExecuteCommand dispatches a chat command to its handler. Unknown commands
// and missing permissions are answered to the sender; the handler is not run.
func (m *CommandManager) ExecuteCommand(data ChatCommand) {
	parsed := ParseCommand(data.Command, m.Prefix())

	entry, ok := m.Command(parsed.Command)
	if !ok {
		data.Sender.SendMessage(msgUnknownCommand)
		return
	}
	if len(entry.Options.PermissionTags) > 0 && !hasAnyTag(data.Sender.Tags(), entry.Options.PermissionTags) {
		data.Sender.SendMessage(msgNoPermission)
		return
	}

	m.run(entry, CommandResponse{Sender: data.Sender, Args: parsed.Args})
}

func (m *CommandManager) run(entry CommandEntry, data CommandResponse) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("beapi: panic in command handler",
				"command", entry.Options.Command,
				"sender", data.Sender.Name(),
				"error", fmt.Sprint(r))
			data.Sender.SendMessage(msgCommandFailed)
		}
	}()
	entry.Execute(data)
}

func hasAnyTag(tags, required []string) bool {
	for _, t := range tags {
		if slices.Contains(required, t) {
			return true
		}
	}
	return false
}

// registerDefaults seeds the built-in commands.
func (m *CommandManager) registerDefaults() {
	m.RegisterCommand(CommandOptions{
		Command:     "help",
		Description: "Displays a list of available commands.",
		Aliases:     []string{"h"},
	}, m.helpCommand)

	m.RegisterCommand(CommandOptions{
		Command:     "about",
		Description: "Shows info about the server.",
		Aliases:     []string{"ab"},
	}, func(data CommandResponse) {
		data.Sender.SendMessage(fmt.Sprintf("§7This server is running §9BeAPI v%s§7 for §aMinecraft: Bedrock Edition v%s§7.", Version, MCBEVersion))
	})

	m.RegisterCommand(CommandOptions{
		Command:        "sm",
		Description:    "Interact with the socketmanager",
		PermissionTags: []string{"dev"},
		Hidden:         true,
	}, m.socketCommand)
}

func (m *CommandManager) helpCommand(data CommandResponse) {
	prefix := m.Prefix()
	data.Sender.SendMessage("§bShowing all Available Commands:")
	for _, c := range m.Commands() {
		if !c.ShowInList {
			continue
		}
		data.Sender.SendMessage(fmt.Sprintf(" §7%s%s§r §o§8- %s§r", prefix, c.Options.Command, c.Options.Description))
	}
}

func (m *CommandManager) socketCommand(data CommandResponse) {
	if len(data.Args) == 0 {
		data.Sender.SendMessage("§cInvalid parameter! Expected <log|send>")
		return
	}
	if m.socket == nil {
		data.Sender.SendMessage("§cSocketManager is not configured.")
		return
	}

	switch data.Args[0] {
	case "log":
		if len(data.Args) < 2 {
			data.Sender.SendMessage("§cInvalid parameter! Expected <true|false>")
			return
		}
		switch data.Args[1] {
		case "t", "true":
			m.socket.SetLog(true)
			data.Sender.SendMessage("§7SocketManager log set to §aTRUE§7.")
		case "f", "false":
			m.socket.SetLog(false)
			data.Sender.SendMessage("§7SocketManager log set to §cFALSE§7.")
		}
	case "send":
		if len(data.Args) < 2 {
			data.Sender.SendMessage("§cInvalid parameter! Expected {}")
			return
		}
		var req JSONRequest
		if err := json.Unmarshal([]byte(strings.Join(data.Args[1:], " ")), &req); err != nil {
			data.Sender.SendMessage("§cInvalid JSON payload: " + err.Error())
			return
		}
		if err := m.socket.SendMessage(req); err != nil {
			m.log.Warn("beapi: socket send failed", "sender", data.Sender.Name(), "error", err)
			data.Sender.SendMessage("§cFailed to send: " + err.Error())
			return
		}
		data.Sender.SendMessage("§7Message queued.")
	}
}
