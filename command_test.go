package beapi

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

type fakeSender struct {
	name     string
	tags     []string
	messages []string
}

func (s *fakeSender) Name() string { return s.name }
func (s *fakeSender) SendMessage(message string) { s.messages = append(s.messages, message) }
func (s *fakeSender) Tags() []string { return s.tags }

type fakeSocketLink struct {
	log  []bool
	sent []JSONRequest
	err  error
}

func (f *fakeSocketLink) SetLog(enabled bool) { f.log = append(f.log, enabled) }

func (f *fakeSocketLink) SendMessage(req JSONRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text    string
		prefix  string
		command string
		args    []string
	}{
		{"-help", "-", "help", []string{}},
		{"-give Steve diamond", "-", "give", []string{"Steve", "diamond"}},
		{"-give  Steve   diamond", "-", "give", []string{"Steve", "diamond"}},
		{"!tp Alex", "!", "tp", []string{"Alex"}},
		{"--x a", "--", "x", []string{"a"}},
		{"-help ", "-", "help", []string{}},
	}

	for _, tt := range tests {
		got := ParseCommand(tt.text, tt.prefix)
		if got.Command != tt.command {
			t.Errorf("ParseCommand(%q) command = %q, want %q", tt.text, got.Command, tt.command)
		}
		if !slices.Equal(got.Args, tt.args) {
			t.Errorf("ParseCommand(%q) args = %q, want %q", tt.text, got.Args, tt.args)
		}
	}
}

func TestRegisterCommandDuplicate(t *testing.T) {
	m := NewCommandManager()

	calls := 0
	opts := CommandOptions{Command: "ping", Description: "Pong."}
	if !m.RegisterCommand(opts, func(CommandResponse) { calls++ }) {
		t.Fatal("expected first registration to succeed")
	}
	if m.RegisterCommand(opts, func(CommandResponse) { calls += 100 }) {
		t.Fatal("expected duplicate registration to fail")
	}

	m.ExecuteCommand(ChatCommand{Sender: &fakeSender{name: "Steve"}, Command: "-ping"})
	if calls != 1 {
		t.Fatalf("expected first handler to run once, got %d", calls)
	}
}

func TestRegisterCommandRejectsInvalid(t *testing.T) {
	m := NewCommandManager()
	if m.RegisterCommand(CommandOptions{}, func(CommandResponse) {}) {
		t.Fatal("expected empty name to be rejected")
	}
	if m.RegisterCommand(CommandOptions{Command: "nil"}, nil) {
		t.Fatal("expected nil handler to be rejected")
	}
}

func TestRegisterCommandAliases(t *testing.T) {
	m := NewCommandManager()

	var got []string
	m.RegisterCommand(CommandOptions{
		Command: "teleport",
		Aliases: []string{"tp", "h"},
	}, func(data CommandResponse) {
		got = append(got, strings.Join(data.Args, ","))
	})

	alias, ok := m.Command("tp")
	if !ok {
		t.Fatal("expected alias to be registered")
	}
	if alias.ShowInList {
		t.Fatal("expected alias to be hidden from help")
	}
	if alias.Options.Command != "teleport" {
		t.Fatalf("expected alias to share options, got %q", alias.Options.Command)
	}

	// h is the alias of help and must be kept.
	h, _ := m.Command("h")
	if h.Options.Command != "help" {
		t.Fatalf("expected h to stay bound to help, got %q", h.Options.Command)
	}

	m.ExecuteCommand(ChatCommand{Sender: &fakeSender{}, Command: "-tp 1 2 3"})
	if len(got) != 1 || got[0] != "1,2,3" {
		t.Fatalf("unexpected alias invocations: %v", got)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	m := NewCommandManager()
	s := &fakeSender{}

	m.ExecuteCommand(ChatCommand{Sender: s, Command: "-nope"})
	if !slices.Equal(s.messages, []string{msgUnknownCommand}) {
		t.Fatalf("unexpected replies: %q", s.messages)
	}
}

func TestExecutePermissionTags(t *testing.T) {
	m := NewCommandManager()
	calls := 0
	m.RegisterCommand(CommandOptions{
		Command:        "ban",
		PermissionTags: []string{"admin", "mod"},
	}, func(CommandResponse) { calls++ })

	denied := &fakeSender{tags: []string{"member"}}
	m.ExecuteCommand(ChatCommand{Sender: denied, Command: "-ban Steve"})
	if calls != 0 {
		t.Fatal("expected handler not to run without a permission tag")
	}
	if !slices.Equal(denied.messages, []string{msgNoPermission}) {
		t.Fatalf("unexpected replies: %q", denied.messages)
	}

	allowed := &fakeSender{tags: []string{"member", "mod"}}
	m.ExecuteCommand(ChatCommand{Sender: allowed, Command: "-ban Steve"})
	if calls != 1 {
		t.Fatalf("expected handler to run once, got %d", calls)
	}
	if len(allowed.messages) != 0 {
		t.Fatalf("unexpected replies: %q", allowed.messages)
	}
}

func TestExecuteHandlerPanic(t *testing.T) {
	m := NewCommandManager(WithCommandLogger(discardLogger()))
	m.RegisterCommand(CommandOptions{Command: "boom"}, func(CommandResponse) {
		panic("boom")
	})

	s := &fakeSender{name: "Steve"}
	m.ExecuteCommand(ChatCommand{Sender: s, Command: "-boom"})
	if !slices.Equal(s.messages, []string{msgCommandFailed}) {
		t.Fatalf("unexpected replies: %q", s.messages)
	}
}

func TestHelpCommand(t *testing.T) {
	m := NewCommandManager()
	m.RegisterCommand(CommandOptions{Command: "ping", Description: "Pong.", Aliases: []string{"p"}}, func(CommandResponse) {})
	m.RegisterCommand(CommandOptions{Command: "secret", Hidden: true}, func(CommandResponse) {})

	s := &fakeSender{}
	m.ExecuteCommand(ChatCommand{Sender: s, Command: "-help"})

	want := []string{
		"§bShowing all Available Commands:",
		" §7-help§r §o§8- Displays a list of available commands.§r",
		" §7-about§r §o§8- Shows info about the server.§r",
		" §7-ping§r §o§8- Pong.§r",
	}
	if !slices.Equal(s.messages, want) {
		t.Fatalf("unexpected help output:\n%q\nwant\n%q", s.messages, want)
	}
}

func TestAboutCommand(t *testing.T) {
	m := NewCommandManager()
	s := &fakeSender{}

	m.ExecuteCommand(ChatCommand{Sender: s, Command: "-ab"})
	if len(s.messages) != 1 {
		t.Fatalf("expected one reply, got %q", s.messages)
	}
	if !strings.Contains(s.messages[0], "BeAPI v"+Version) || !strings.Contains(s.messages[0], MCBEVersion) {
		t.Fatalf("unexpected about message: %q", s.messages[0])
	}
}

func TestPrefixChange(t *testing.T) {
	m := NewCommandManager(WithPrefix("!"))
	calls := 0
	m.RegisterCommand(CommandOptions{Command: "ping"}, func(CommandResponse) { calls++ })

	if !m.IsCommand("!ping") || m.IsCommand("-ping") {
		t.Fatal("unexpected IsCommand result for prefix !")
	}

	m.SetPrefix(".")
	if !m.IsCommand(".ping") {
		t.Fatal("expected new prefix to apply")
	}
	m.ExecuteCommand(ChatCommand{Sender: &fakeSender{}, Command: ".ping"})
	if calls != 1 {
		t.Fatalf("expected handler to run once, got %d", calls)
	}
}

func TestSocketCommandRequiresDevTag(t *testing.T) {
	link := &fakeSocketLink{}
	m := NewCommandManager(WithSocketLink(link))

	s := &fakeSender{}
	m.ExecuteCommand(ChatCommand{Sender: s, Command: "-sm log true"})
	if len(link.log) != 0 {
		t.Fatal("expected sm to be refused without the dev tag")
	}
	if !slices.Equal(s.messages, []string{msgNoPermission}) {
		t.Fatalf("unexpected replies: %q", s.messages)
	}
}

func TestSocketCommandLog(t *testing.T) {
	link := &fakeSocketLink{}
	m := NewCommandManager(WithSocketLink(link))
	dev := &fakeSender{tags: []string{"dev"}}

	for _, text := range []string{"-sm log t", "-sm log false", "-sm log true", "-sm log f", "-sm log maybe"} {
		m.ExecuteCommand(ChatCommand{Sender: dev, Command: text})
	}
	if !slices.Equal(link.log, []bool{true, false, true, false}) {
		t.Fatalf("unexpected log toggles: %v", link.log)
	}
}

func TestSocketCommandSend(t *testing.T) {
	link := &fakeSocketLink{}
	m := NewCommandManager(WithSocketLink(link))
	dev := &fakeSender{tags: []string{"dev"}}

	m.ExecuteCommand(ChatCommand{Sender: dev, Command: `-sm send {"type": "ping", "n": 1}`})
	if len(link.sent) != 1 {
		t.Fatalf("expected one message sent, got %d", len(link.sent))
	}
	if link.sent[0]["type"] != "ping" || link.sent[0]["n"] != float64(1) {
		t.Fatalf("unexpected payload: %v", link.sent[0])
	}
	if dev.messages[len(dev.messages)-1] != "§7Message queued." {
		t.Fatalf("unexpected replies: %q", dev.messages)
	}

	dev.messages = nil
	m.ExecuteCommand(ChatCommand{Sender: dev, Command: "-sm send {nope"})
	if len(link.sent) != 1 {
		t.Fatal("expected invalid JSON not to be sent")
	}
	if len(dev.messages) != 1 || !strings.HasPrefix(dev.messages[0], "§cInvalid JSON payload: ") {
		t.Fatalf("unexpected replies: %q", dev.messages)
	}

	dev.messages = nil
	link.err = errors.New("connection refused")
	m.ExecuteCommand(ChatCommand{Sender: dev, Command: `-sm send {}`})
	if len(dev.messages) != 1 || dev.messages[0] != "§cFailed to send: connection refused" {
		t.Fatalf("unexpected replies: %q", dev.messages)
	}
}

func TestSocketCommandWithoutSocket(t *testing.T) {
	m := NewCommandManager()
	dev := &fakeSender{tags: []string{"dev"}}

	m.ExecuteCommand(ChatCommand{Sender: dev, Command: "-sm log true"})
	if !slices.Equal(dev.messages, []string{"§cSocketManager is not configured."}) {
		t.Fatalf("unexpected replies: %q", dev.messages)
	}
}

func TestCommandsRegistrationOrder(t *testing.T) {
	m := NewCommandManager()
	m.RegisterCommand(CommandOptions{Command: "zeta", Aliases: []string{"z"}}, func(CommandResponse) {})

	var names []string
	for _, c := range m.Commands() {
		names = append(names, c.Name)
	}
	want := []string{"help", "h", "about", "ab", "sm", "zeta", "z"}
	if !slices.Equal(names, want) {
		t.Fatalf("Commands() = %v, want %v", names, want)
	}
}
