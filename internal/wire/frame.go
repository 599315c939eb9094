package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// DefaultMaxFrame bounds the size of a single frame (kind byte plus body).
const DefaultMaxFrame = 1 << 20

var (
	// ErrFrameTooLarge is returned when a frame length exceeds the limit.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

	// ErrBadMessage marks a frame that was read in full but could not be
	// decoded. The stream is still aligned on frame boundaries, so callers
	// may skip the message and keep reading.
	ErrBadMessage = errors.New("wire: undecodable message")

	// ErrUnknownKind is returned when a frame carries an unrecognised kind.
	ErrUnknownKind = fmt.Errorf("%w: unknown kind", ErrBadMessage)
)

// WriteMessage frames and writes a single message.
func WriteMessage(w io.Writer, m Message) error {
	body, err := cbor.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", m, err)
	}
	frame := make([]byte, 4+1+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(1+len(body)))
	frame[4] = byte(m.Kind())
	copy(frame[5:], body)
	_, err = w.Write(frame)
	return err
}

// ReadMessage reads and decodes a single frame. max bounds the accepted
// frame size; pass 0 for DefaultMaxFrame.
func ReadMessage(r io.Reader, max uint32) (Message, error) {
	if max == 0 {
		max = DefaultMaxFrame
	}
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrBadMessage)
	}
	if n > max {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	m, err := newMessage(Kind(buf[0]))
	if err != nil {
		return nil, err
	}
	if err := cbor.Unmarshal(buf[1:], m); err != nil {
		return nil, fmt.Errorf("%w: decoding %T: %v", ErrBadMessage, m, err)
	}
	return m, nil
}

func newMessage(k Kind) (Message, error) {
	switch k {
	case KindAdvertise:
		return &Advertise{}, nil
	case KindDial:
		return &Dial{}, nil
	case KindDialReply:
		return &DialReply{}, nil
	case KindSend:
		return &Send{}, nil
	case KindWelcome:
		return &Welcome{}, nil
	case KindRoster:
		return &Roster{}, nil
	case KindPeerJoined:
		return &PeerJoined{}, nil
	case KindPeerLeft:
		return &PeerLeft{}, nil
	case KindDialRequest:
		return &DialRequest{}, nil
	case KindDialResponse:
		return &DialResponse{}, nil
	case KindDeliver:
		return &Deliver{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownKind, byte(k))
	}
}
