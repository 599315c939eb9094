package relay_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"parley/internal/domain"
	"parley/internal/relay"
	"parley/internal/wire"
)

// startRelay runs a relay on a random port and returns its address.
func startRelay(t *testing.T) string {
	t.Helper()

	cfg := &relay.Config{Listen: "127.0.0.1:0"}
	require.NoError(t, cfg.FixupAndValidate())

	ln, err := net.Listen("tcp", cfg.Listen)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := relay.New(cfg, zerolog.Nop())
	go func() { _ = srv.Serve(ctx, ln) }()

	return ln.Addr().String()
}

func dialRelay(t *testing.T, addr string) net.Conn {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// readMsg reads the next frame with a deadline so a broken relay fails the
// test instead of hanging it.
func readMsg(t *testing.T, c net.Conn) wire.Message {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	m, err := wire.ReadMessage(c, 0)
	require.NoError(t, err)
	return m
}

func readWelcome(t *testing.T, c net.Conn) uuid.UUID {
	t.Helper()
	w, ok := readMsg(t, c).(*wire.Welcome)
	require.True(t, ok, "first message should be Welcome")
	require.NotEqual(t, uuid.Nil, w.ID)
	return w.ID
}

func TestWelcomeAndRoster(t *testing.T) {
	addr := startRelay(t)

	alice := dialRelay(t, addr)
	aliceID := readWelcome(t, alice)

	roster, ok := readMsg(t, alice).(*wire.Roster)
	require.True(t, ok)
	require.Empty(t, roster.Peers, "nobody has advertised yet")

	// Advertising puts us on the roster and is echoed back to us.
	require.NoError(t, wire.WriteMessage(alice, &wire.Advertise{Name: "alice"}))
	joined, ok := readMsg(t, alice).(*wire.PeerJoined)
	require.True(t, ok)
	require.Equal(t, domain.Peer{ID: aliceID, Name: "alice"}, joined.Peer)

	// A later client sees alice in its initial roster.
	bob := dialRelay(t, addr)
	readWelcome(t, bob)
	roster, ok = readMsg(t, bob).(*wire.Roster)
	require.True(t, ok)
	require.Equal(t, []domain.Peer{{ID: aliceID, Name: "alice"}}, roster.Peers)
}

func TestForwardDialAndSend(t *testing.T) {
	addr := startRelay(t)

	alice := dialRelay(t, addr)
	aliceID := readWelcome(t, alice)
	readMsg(t, alice) // roster

	bob := dialRelay(t, addr)
	bobID := readWelcome(t, bob)
	readMsg(t, bob) // roster
	require.NoError(t, wire.WriteMessage(bob, &wire.Advertise{Name: "bob"}))
	readMsg(t, bob)   // own PeerJoined
	readMsg(t, alice) // bob's PeerJoined reaches alice too

	// Alice dials bob; the relay fills in who is asking.
	require.NoError(t, wire.WriteMessage(alice, &wire.Dial{To: bobID, Key: []byte("alice-der")}))
	req, ok := readMsg(t, bob).(*wire.DialRequest)
	require.True(t, ok)
	require.Equal(t, aliceID, req.From.ID)
	require.Equal(t, []byte("alice-der"), req.Key)

	// Bob accepts; alice sees the relay's description of bob.
	require.NoError(t, wire.WriteMessage(bob, &wire.DialReply{To: aliceID, Accept: true, Key: []byte("bob-der")}))
	resp, ok := readMsg(t, alice).(*wire.DialResponse)
	require.True(t, ok)
	require.Equal(t, domain.Peer{ID: bobID, Name: "bob"}, resp.From)
	require.True(t, resp.Accept)
	require.Equal(t, []byte("bob-der"), resp.Key)

	// Sealed payloads pass through untouched.
	sealed := domain.Sealed{WrappedKey: []byte{1}, Nonce: []byte{2}, Ciphertext: []byte{3}}
	require.NoError(t, wire.WriteMessage(alice, &wire.Send{To: bobID, Sealed: sealed}))
	del, ok := readMsg(t, bob).(*wire.Deliver)
	require.True(t, ok)
	require.Equal(t, aliceID, del.From.ID)
	require.Equal(t, sealed, del.Sealed)
}

func TestUnknownTargetDropped(t *testing.T) {
	addr := startRelay(t)

	alice := dialRelay(t, addr)
	readWelcome(t, alice)
	readMsg(t, alice) // roster

	// Nothing listens on this UUID; the relay must swallow the dial.
	require.NoError(t, wire.WriteMessage(alice, &wire.Dial{To: uuid.New(), Key: []byte("der")}))

	// The connection stays healthy afterwards.
	require.NoError(t, wire.WriteMessage(alice, &wire.Advertise{Name: "alice"}))
	_, ok := readMsg(t, alice).(*wire.PeerJoined)
	require.True(t, ok)
}

func TestUndecodableFrameKeepsConnection(t *testing.T) {
	addr := startRelay(t)

	alice := dialRelay(t, addr)
	aliceID := readWelcome(t, alice)
	readMsg(t, alice) // roster

	// A well-formed frame with a kind the relay does not know.
	_, err := alice.Write([]byte{0, 0, 0, 1, 0xff})
	require.NoError(t, err)

	// The relay skips the frame instead of dropping us.
	require.NoError(t, wire.WriteMessage(alice, &wire.Advertise{Name: "alice"}))
	joined, ok := readMsg(t, alice).(*wire.PeerJoined)
	require.True(t, ok)
	require.Equal(t, domain.Peer{ID: aliceID, Name: "alice"}, joined.Peer)
}

func TestDisconnectBroadcastsPeerLeft(t *testing.T) {
	addr := startRelay(t)

	alice := dialRelay(t, addr)
	readWelcome(t, alice)
	readMsg(t, alice) // roster
	require.NoError(t, wire.WriteMessage(alice, &wire.Advertise{Name: "alice"}))
	readMsg(t, alice) // own PeerJoined

	bob := dialRelay(t, addr)
	bobID := readWelcome(t, bob)
	readMsg(t, bob) // roster
	require.NoError(t, wire.WriteMessage(bob, &wire.Advertise{Name: "bob"}))

	joined, ok := readMsg(t, alice).(*wire.PeerJoined)
	require.True(t, ok)
	require.Equal(t, bobID, joined.Peer.ID)

	require.NoError(t, bob.Close())

	left, ok := readMsg(t, alice).(*wire.PeerLeft)
	require.True(t, ok)
	require.Equal(t, bobID, left.ID)
}
