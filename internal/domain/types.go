package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Peer describes another client as the relay advertises it: the UUID the
// relay assigned on connect plus the friendly name the client chose.
type Peer struct {
	ID   uuid.UUID `cbor:"id"`
	Name string    `cbor:"name"`
}

// Label renders the peer the way it is shown in rosters and prompts.
func (p Peer) Label() string {
	if p.Name == "" {
		return p.ID.String()
	}
	return fmt.Sprintf("%s: %s", p.ID, p.Name)
}

// Sealed is an encrypted payload as it crosses the relay: the sender's
// session key wrapped with RSA-OAEP to the recipient, the AES-GCM nonce,
// and the ciphertext. The relay forwards it without being able to open it.
type Sealed struct {
	WrappedKey []byte `cbor:"wrapped_key"`
	Nonce      []byte `cbor:"nonce"`
	Ciphertext []byte `cbor:"ciphertext"`
}
