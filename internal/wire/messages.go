package wire

import (
	"github.com/google/uuid"

	"parley/internal/domain"
)

// Kind identifies a message on the wire.
type Kind byte

const (
	// Server-bound.
	KindAdvertise Kind = 0x01
	KindDial      Kind = 0x02
	KindDialReply Kind = 0x03
	KindSend      Kind = 0x04

	// Client-bound.
	KindWelcome      Kind = 0x10
	KindRoster       Kind = 0x11
	KindPeerJoined   Kind = 0x12
	KindPeerLeft     Kind = 0x13
	KindDialRequest  Kind = 0x14
	KindDialResponse Kind = 0x15
	KindDeliver      Kind = 0x16
)

// Message is the common interface of everything that crosses the wire.
type Message interface {
	Kind() Kind
}

// Advertise publishes the sender's friendly name.
type Advertise struct {
	Name string `cbor:"name"`
}

// Dial asks the relay to forward a connection request to To. Key is the
// caller's RSA public key in PKIX DER form.
type Dial struct {
	To  uuid.UUID `cbor:"to"`
	Key []byte    `cbor:"key"`
}

// DialReply accepts or rejects a pending request from To. Key carries the
// responder's RSA public key when accepting.
type DialReply struct {
	To     uuid.UUID `cbor:"to"`
	Accept bool      `cbor:"accept"`
	Key    []byte    `cbor:"key,omitempty"`
}

// Send forwards a sealed payload to To.
type Send struct {
	To     uuid.UUID     `cbor:"to"`
	Sealed domain.Sealed `cbor:"sealed"`
}

// Welcome tells a freshly connected client which UUID the relay assigned.
type Welcome struct {
	ID uuid.UUID `cbor:"id"`
}

// Roster lists every peer that has advertised a name.
type Roster struct {
	Peers []domain.Peer `cbor:"peers"`
}

// PeerJoined announces a newly advertised peer.
type PeerJoined struct {
	Peer domain.Peer `cbor:"peer"`
}

// PeerLeft announces a disconnected peer.
type PeerLeft struct {
	ID uuid.UUID `cbor:"id"`
}

// DialRequest is a forwarded connection request. From is filled by the relay.
type DialRequest struct {
	From domain.Peer `cbor:"from"`
	Key  []byte      `cbor:"key"`
}

// DialResponse is a forwarded accept/reject. From is filled by the relay.
type DialResponse struct {
	From   domain.Peer `cbor:"from"`
	Accept bool        `cbor:"accept"`
	Key    []byte      `cbor:"key,omitempty"`
}

// Deliver is a forwarded sealed payload. From is filled by the relay.
type Deliver struct {
	From   domain.Peer   `cbor:"from"`
	Sealed domain.Sealed `cbor:"sealed"`
}

func (Advertise) Kind() Kind    { return KindAdvertise }
func (Dial) Kind() Kind         { return KindDial }
func (DialReply) Kind() Kind    { return KindDialReply }
func (Send) Kind() Kind         { return KindSend }
func (Welcome) Kind() Kind      { return KindWelcome }
func (Roster) Kind() Kind       { return KindRoster }
func (PeerJoined) Kind() Kind   { return KindPeerJoined }
func (PeerLeft) Kind() Kind     { return KindPeerLeft }
func (DialRequest) Kind() Kind  { return KindDialRequest }
func (DialResponse) Kind() Kind { return KindDialResponse }
func (Deliver) Kind() Kind      { return KindDeliver }
