// Package notredis provides an in-memory, network-accessible key-value
// cache: clients connect over TCP and issue simple commands against a
// single shared string-to-string map.
//
// # Architecture Overview
//
// not-redis consists of a few small components:
//
//   - Store (pkg/store): a concurrent string-to-string map shared by all
//     connections
//   - Protocol (pkg/protocol): length-prefixed framing plus a
//     space-separated text grammar for commands and responses
//   - Server (internal/server): the accept loop and the per-connection
//     read-decode-execute-encode-write loop
//   - Client SDK (pkg/client): a pooled client with retry logic
//   - Configuration (pkg/config): flags, an optional TOML file, and
//     environment variables, applied only at the process entry points
//
// # Quick Start
//
// Server:
//
//	import "github.com/imagine-hussain/not-redis/internal/server"
//	import "github.com/imagine-hussain/not-redis/pkg/config"
//	import "github.com/imagine-hussain/not-redis/pkg/store"
//
//	cfg, _ := config.LoadServerConfig()
//	srv := server.New(cfg, store.New())
//	log.Fatal(srv.Start())
//
// Client:
//
//	import "github.com/imagine-hussain/not-redis/pkg/client"
//
//	c, _ := client.New("localhost:6791")
//	defer c.Close()
//
//	c.Set("foo", "bar")
//	value, found, _ := c.Get("foo")
//
// # Wire Protocol
//
// Every message, in both directions, is a frame: a 4-byte unsigned
// big-endian length followed by that many bytes of UTF-8 text. Requests are
// PING, ECHO <text>, GET <key>, SET <key> <value>, DEL <key> and CLR;
// responses echo the command tag, with "(nil)" marking an absent value and
// "ERR <reason>" reporting a malformed request.
//
// The store never persists, expires or replicates data; it lives exactly as
// long as the process.
package notredis
