// Package main runs the parley relay server.
//
// The relay accepts TCP connections from clients, assigns each a UUID, and
// forwards dial requests, dial replies and sealed payloads between them. It
// never sees plaintext or private keys; it only forwards wrapped keys and
// ciphertext.
//
// Configuration comes from an optional TOML file (--config) with flag
// overrides:
//
//	listen = ":8080"         # TCP listen address
//	maxFrameBytes = 1048576  # per-frame size limit
//	writeTimeout = "10s"     # per-write deadline to a client
//	logLevel = "info"        # trace, debug, info, warn, error
//
// All state is held in memory and lost on process exit.
package main
