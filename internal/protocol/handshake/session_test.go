package handshake_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"parley/internal/crypto"
	"parley/internal/protocol/handshake"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	bobKey, err := crypto.GenerateRSA()
	require.NoError(t, err)

	alice, bob := uuid.New(), uuid.New()
	aad := handshake.AAD(alice, bob)

	send := handshake.New(&bobKey.PublicKey)
	recv := handshake.New(nil)

	sealed, err := send.Seal([]byte("hello bob"), aad)
	require.NoError(t, err)

	pt, err := recv.Open(bobKey, sealed, aad)
	require.NoError(t, err)
	require.Equal(t, []byte("hello bob"), pt)
}

func TestSeal_ReusesSessionKey(t *testing.T) {
	bobKey, err := crypto.GenerateRSA()
	require.NoError(t, err)

	aad := handshake.AAD(uuid.New(), uuid.New())
	send := handshake.New(&bobKey.PublicKey)

	first, err := send.Seal([]byte("one"), aad)
	require.NoError(t, err)
	second, err := send.Seal([]byte("two"), aad)
	require.NoError(t, err)

	// Same wrapped session key across messages, fresh nonce each time.
	require.Equal(t, first.WrappedKey, second.WrappedKey)
	require.NotEqual(t, first.Nonce, second.Nonce)

	recv := handshake.New(nil)
	pt, err := recv.Open(bobKey, first, aad)
	require.NoError(t, err)
	require.Equal(t, []byte("one"), pt)
	pt, err = recv.Open(bobKey, second, aad)
	require.NoError(t, err)
	require.Equal(t, []byte("two"), pt)
}

func TestOpen_WrongAAD(t *testing.T) {
	bobKey, err := crypto.GenerateRSA()
	require.NoError(t, err)

	alice, bob := uuid.New(), uuid.New()
	send := handshake.New(&bobKey.PublicKey)

	sealed, err := send.Seal([]byte("hello"), handshake.AAD(alice, bob))
	require.NoError(t, err)

	// A payload replayed on a different route must not open.
	_, err = handshake.New(nil).Open(bobKey, sealed, handshake.AAD(bob, alice))
	require.ErrorIs(t, err, handshake.ErrDecrypt)
}

func TestOpen_TamperedCiphertext(t *testing.T) {
	bobKey, err := crypto.GenerateRSA()
	require.NoError(t, err)

	aad := handshake.AAD(uuid.New(), uuid.New())
	sealed, err := handshake.New(&bobKey.PublicKey).Seal([]byte("hello"), aad)
	require.NoError(t, err)

	sealed.Ciphertext[0] ^= 0x01
	_, err = handshake.New(nil).Open(bobKey, sealed, aad)
	require.ErrorIs(t, err, handshake.ErrDecrypt)
}

func TestOpen_MalformedNonce(t *testing.T) {
	bobKey, err := crypto.GenerateRSA()
	require.NoError(t, err)

	aad := handshake.AAD(uuid.New(), uuid.New())
	sealed, err := handshake.New(&bobKey.PublicKey).Seal([]byte("hello"), aad)
	require.NoError(t, err)

	// A wrong-size nonce must fail cleanly, not panic inside GCM.
	truncated := sealed
	truncated.Nonce = truncated.Nonce[:3]
	_, err = handshake.New(nil).Open(bobKey, truncated, aad)
	require.ErrorIs(t, err, handshake.ErrDecrypt)

	empty := sealed
	empty.Nonce = nil
	_, err = handshake.New(nil).Open(bobKey, empty, aad)
	require.ErrorIs(t, err, handshake.ErrDecrypt)
}

func TestOpen_WrongRecipient(t *testing.T) {
	bobKey, err := crypto.GenerateRSA()
	require.NoError(t, err)
	eveKey, err := crypto.GenerateRSA()
	require.NoError(t, err)

	aad := handshake.AAD(uuid.New(), uuid.New())
	sealed, err := handshake.New(&bobKey.PublicKey).Seal([]byte("hello"), aad)
	require.NoError(t, err)

	_, err = handshake.New(nil).Open(eveKey, sealed, aad)
	require.ErrorIs(t, err, handshake.ErrDecrypt)
}

func TestSeal_NoPeerKey(t *testing.T) {
	s := handshake.New(nil)
	_, err := s.Seal([]byte("hello"), nil)
	require.ErrorIs(t, err, handshake.ErrNoPeerKey)
	require.False(t, s.Established())

	key, err := crypto.GenerateRSA()
	require.NoError(t, err)
	s.SetPeerKey(&key.PublicKey)
	require.True(t, s.Established())

	_, err = s.Seal([]byte("hello"), nil)
	require.NoError(t, err)
}
