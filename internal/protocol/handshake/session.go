package handshake

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"parley/internal/domain"
)

const (
	// SessionKeyBytes is the size of the per-direction AES-256 key.
	SessionKeyBytes = 32

	// NonceBytes is the AES-GCM nonce size.
	NonceBytes = 12
)

var (
	// ErrNoPeerKey is returned when sealing without the peer's public key,
	// i.e. before the dial handshake completed.
	ErrNoPeerKey = errors.New("handshake: no public key for peer")

	// ErrDecrypt is returned when a sealed payload fails to open.
	ErrDecrypt = errors.New("handshake: cannot decrypt payload")
)

// Session tracks the encryption state shared with one peer.
//
// The send side holds our session key and its RSA-OAEP wrapping to the
// peer; the receive side caches the last unwrapped key so repeated RSA
// decryptions are avoided. All methods are safe for concurrent use.
type Session struct {
	mu   sync.Mutex
	peer *rsa.PublicKey

	sendKey     []byte
	sendAEAD    cipher.AEAD
	sendWrapped []byte

	recvWrapped []byte
	recvAEAD    cipher.AEAD
}

// New returns a session for a peer. pub may be nil for an inbound-only
// session (the peer dialed us but we never accepted); Seal will fail until
// SetPeerKey is called.
func New(pub *rsa.PublicKey) *Session {
	return &Session{peer: pub}
}

// SetPeerKey installs the peer's public key once a dial completes.
func (s *Session) SetPeerKey(pub *rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peer = pub
}

// Established reports whether we can seal payloads to the peer.
func (s *Session) Established() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

// Seal encrypts plaintext for the peer, generating and wrapping the session
// key on first use.
func (s *Session) Seal(plaintext, aad []byte) (domain.Sealed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.peer == nil {
		return domain.Sealed{}, ErrNoPeerKey
	}
	if s.sendKey == nil {
		key := make([]byte, SessionKeyBytes)
		if _, err := rand.Read(key); err != nil {
			return domain.Sealed{}, err
		}
		aead, err := newAEAD(key)
		if err != nil {
			return domain.Sealed{}, err
		}
		wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, s.peer, key, nil)
		if err != nil {
			return domain.Sealed{}, fmt.Errorf("wrapping session key: %w", err)
		}
		s.sendKey = key
		s.sendAEAD = aead
		s.sendWrapped = wrapped
	}

	nonce := make([]byte, NonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return domain.Sealed{}, err
	}
	return domain.Sealed{
		WrappedKey: append([]byte(nil), s.sendWrapped...),
		Nonce:      nonce,
		Ciphertext: s.sendAEAD.Seal(nil, nonce, plaintext, aad),
	}, nil
}

// Open decrypts a sealed payload using priv to unwrap the sender's session
// key. The unwrapped key is cached for subsequent payloads of the session.
func (s *Session) Open(priv *rsa.PrivateKey, sl domain.Sealed, aad []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// GCM panics on a wrong-size nonce, and the nonce arrives off the wire.
	if len(sl.Nonce) != NonceBytes {
		return nil, ErrDecrypt
	}
	if s.recvAEAD == nil || !bytes.Equal(sl.WrappedKey, s.recvWrapped) {
		key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, sl.WrappedKey, nil)
		if err != nil {
			return nil, ErrDecrypt
		}
		aead, err := newAEAD(key)
		if err != nil {
			return nil, err
		}
		s.recvWrapped = append([]byte(nil), sl.WrappedKey...)
		s.recvAEAD = aead
	}

	pt, err := s.recvAEAD.Open(nil, sl.Nonce, sl.Ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

// AAD builds the associated data binding a payload to its route.
func AAD(from, to uuid.UUID) []byte {
	aad := make([]byte, 0, 32)
	aad = append(aad, from[:]...)
	return append(aad, to[:]...)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != SessionKeyBytes {
		return nil, fmt.Errorf("handshake: session key is %d bytes, want %d", len(key), SessionKeyBytes)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
