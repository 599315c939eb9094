// Package handshake implements the per-session encryption used between two
// peers once a dial has been accepted.
//
// Each direction of a session has its own 32-byte AES key. The sender
// generates the key lazily on first use, wraps it with RSA-OAEP (SHA-256)
// to the peer's public key, and attaches the wrapping to every sealed
// payload. Message bodies are encrypted with AES-256-GCM under a fresh
// random nonce; the associated data binds the sender and recipient UUIDs so
// a payload replayed between different peers fails to open.
//
// Because every Sealed carries its own wrapped key, the receiver needs no
// prior state: it unwraps with its RSA private key and caches the result by
// the wrapping bytes, so the RSA operation runs once per session rather
// than once per message.
package handshake
