// Package wire defines the relay protocol: the message set exchanged between
// clients and the relay, and the framing used to carry it over TCP.
//
// Every frame is a 4-byte big-endian length, a 1-byte message kind, and a
// CBOR-encoded body. The length covers the kind byte and the body, so an
// empty body produces a length of 1.
//
// Server-bound messages (client to relay):
//
//   - Advertise     publish a friendly name for the roster
//   - Dial          ask the relay to forward a connection request
//   - DialReply     accept or reject a pending request
//   - Send          forward a sealed payload to a peer
//
// Client-bound messages (relay to client):
//
//   - Welcome       the UUID the relay assigned to this connection
//   - Roster        all currently advertised peers
//   - PeerJoined    a peer advertised a name
//   - PeerLeft      a peer disconnected
//   - DialRequest   a forwarded connection request with the caller's key
//   - DialResponse  a forwarded accept/reject with the responder's key
//   - Deliver       a forwarded sealed payload
//
// The relay fills the From field of every forwarded message from its own
// registry, so clients cannot impersonate each other.
package wire
