package wire_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"parley/internal/domain"
	"parley/internal/wire"
)

func TestRoundTrip(t *testing.T) {
	alice := domain.Peer{ID: uuid.New(), Name: "alice"}
	sealed := domain.Sealed{
		WrappedKey: []byte{1, 2, 3},
		Nonce:      []byte{4, 5, 6},
		Ciphertext: []byte{7, 8, 9},
	}

	msgs := []wire.Message{
		&wire.Advertise{Name: "alice"},
		&wire.Dial{To: alice.ID, Key: []byte("der")},
		&wire.DialReply{To: alice.ID, Accept: true, Key: []byte("der")},
		&wire.DialReply{To: alice.ID, Accept: false},
		&wire.Send{To: alice.ID, Sealed: sealed},
		&wire.Welcome{ID: alice.ID},
		&wire.Roster{Peers: []domain.Peer{alice}},
		&wire.PeerJoined{Peer: alice},
		&wire.PeerLeft{ID: alice.ID},
		&wire.DialRequest{From: alice, Key: []byte("der")},
		&wire.DialResponse{From: alice, Accept: true, Key: []byte("der")},
		&wire.Deliver{From: alice, Sealed: sealed},
	}

	for _, want := range msgs {
		var buf bytes.Buffer
		require.NoError(t, wire.WriteMessage(&buf, want))

		got, err := wire.ReadMessage(&buf, 0)
		require.NoError(t, err, "kind 0x%02x", byte(want.Kind()))
		require.Equal(t, want, got)
	}
}

func TestReadMessage_FrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteMessage(&buf, &wire.Advertise{Name: "alice"}))

	_, err := wire.ReadMessage(&buf, 4)
	require.ErrorIs(t, err, wire.ErrFrameTooLarge)
}

func TestReadMessage_UnknownKind(t *testing.T) {
	frame := []byte{0, 0, 0, 1, 0xff}
	_, err := wire.ReadMessage(bytes.NewReader(frame), 0)
	require.ErrorIs(t, err, wire.ErrUnknownKind)
	require.ErrorIs(t, err, wire.ErrBadMessage)
}

func TestReadMessage_BadBodyLeavesStreamAligned(t *testing.T) {
	var buf bytes.Buffer
	// Advertise body that is not CBOR, followed by a good frame.
	buf.Write([]byte{0, 0, 0, 3, byte(wire.KindAdvertise), 0xff, 0xff})
	require.NoError(t, wire.WriteMessage(&buf, &wire.Advertise{Name: "alice"}))

	_, err := wire.ReadMessage(&buf, 0)
	require.ErrorIs(t, err, wire.ErrBadMessage)

	// The bad frame was consumed whole; the next read succeeds.
	got, err := wire.ReadMessage(&buf, 0)
	require.NoError(t, err)
	require.Equal(t, &wire.Advertise{Name: "alice"}, got)
}

func TestReadMessage_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wire.WriteMessage(&buf, &wire.Advertise{Name: "alice"}))
	full := buf.Bytes()

	// Chop the frame mid-body; the reader must fail, not hang or misparse.
	_, err := wire.ReadMessage(bytes.NewReader(full[:len(full)-2]), 0)
	require.Error(t, err)
}

func TestReadMessage_EmptyFrame(t *testing.T) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], 0)
	_, err := wire.ReadMessage(bytes.NewReader(hdr[:]), 0)
	require.Error(t, err)
}
