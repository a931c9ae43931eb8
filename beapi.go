// Package beapi provides an ergonomic scripting API for Dragonfly Bedrock servers.
//
// BeAPI wraps Dragonfly's native player and world types in a friendlier
// object model for server-side add-on authors:
//   - Player wrappers with tags, status flags and engine delegation
//   - A chat command manager with aliases, permission tags and a help listing
//   - A name keyed event emitter fed by player handlers and a tick scheduler
//   - The PlayerInViewVector event, raised when a player looks at another player
//   - A socket manager for talking to external tooling over websockets
//
// # Quick Start
//
//	client := beapi.NewBuilder().
//	    Prefix("-").
//	    ViewVector(true).
//	    Command(beapi.CommandOptions{
//	        Command:     "ping",
//	        Description: "Replies with pong.",
//	    }, func(data beapi.CommandResponse) {
//	        data.Sender.SendMessage("pong")
//	    }).
//	    Init(srv.World())
//	defer client.Close()
//
//	for p := range srv.Accept() {
//	    client.Accept(p)
//	}
//
// # Events
//
//	beapi.On(client.Events(), beapi.EventPlayerInViewVector, func(e beapi.PlayerInViewVectorEvent) {
//	    e.Player.SendActionbar("Looking at " + e.Target.Name())
//	})
//
// # Permission tags
//
// Commands registered with PermissionTags only run for senders carrying one
// of the tags. Tags are kept on the Player wrapper and persisted through the
// configured TagStore, keyed by XUID.
package beapi

import "github.com/sandertv/gophertunnel/minecraft/protocol"

// Version is the BeAPI version.
const Version = "1.0.0"

// MCBEVersion is the Minecraft: Bedrock Edition version the server speaks.
const MCBEVersion = protocol.CurrentVersion
