package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/beapi-go/beapi"
	"github.com/df-mc/dragonfly/server"
)

func main() {
	cfg, err := beapi.LoadConfig()
	if err != nil {
		slog.Error("beapi: failed to load config", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	uc := server.DefaultConfig()
	uc.Network.Address = cfg.Address
	uc.Server.Name = cfg.ServerName
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("beapi: invalid server config", "error", err)
		os.Exit(1)
	}

	var tags beapi.TagStore = beapi.NewMemoryTagStore()
	if cfg.TagDatabase != "" {
		store, err := beapi.OpenSQLiteTagStore(cfg.TagDatabase)
		if err != nil {
			log.Error("beapi: failed to open tag store", "path", cfg.TagDatabase, "error", err)
			os.Exit(1)
		}
		tags = store
	}

	srv := conf.New()
	srv.CloseOnProgramEnd()

	client := cfg.Builder(log).
		TagStore(tags).
		OperatorCommand(true).
		Command(beapi.CommandOptions{
			Command:     "whoami",
			Description: "Shows your name and tags.",
			Aliases:     []string{"me"},
		}, func(data beapi.CommandResponse) {
			data.Sender.SendMessage("§7You are §a" + data.Sender.Name() + "§7, tags: " + formatTags(data.Sender.Tags()))
		}).
		Init(srv.World())
	defer client.Close()

	beapi.On(client.Events(), beapi.EventPlayerInViewVector, func(e beapi.PlayerInViewVectorEvent) {
		log.Debug("player in view vector", "player", e.Player.Name(), "target", e.Target.Name())
	})
	beapi.On(client.Events(), beapi.EventPlayerJoin, func(e beapi.PlayerJoinEvent) {
		log.Info("player joined", "player", e.Player.Name())
	})

	srv.Listen()
	for p := range srv.Accept() {
		client.Accept(p)
	}
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "none"
	}
	return strings.Join(tags, ", ")
}
