// Package relay implements the parley relay server.
//
// The relay accepts TCP connections, assigns each client a UUID, and keeps a
// registry of live connections. It forwards dial requests, dial replies and
// sealed payloads between clients; the sender description on every forwarded
// message is filled from the registry, never from the message, so clients
// cannot impersonate one another.
//
// The relay only ever sees wrapped keys and ciphertext. It holds no key
// material and cannot read the payloads it forwards.
//
// Behaviour
//
//   - On accept, the client receives Welcome with its UUID, then the current
//     Roster of advertised peers.
//   - Advertise records a friendly name and broadcasts PeerJoined to every
//     connected client, the sender included.
//   - Dial, DialReply and Send targeting an unknown UUID are dropped.
//   - A read error or disconnect removes the client and broadcasts PeerLeft.
//   - All state is held in memory and lost on process exit.
package relay
