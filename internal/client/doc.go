// Package client implements the parley chat client.
//
// A Client holds one TCP connection to a relay and mirrors the state the
// relay pushes at it: the UUID it was assigned, the roster of advertised
// peers, pending dial requests, and the encrypted sessions opened so far.
// A background reader applies every client-bound message to that state and
// emits a human-readable event line for anything the user should see, which
// the interactive prompt drains between commands.
//
// Plaintext never crosses the relay. Outbound text is sealed with the
// per-peer session (see internal/protocol/handshake) before it is sent, and
// inbound payloads are opened with the local RSA identity key.
package client
