package client

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/protocol/handshake"
	"parley/internal/wire"
)

var (
	// ErrNoChannel is returned by Say when no channel is selected.
	ErrNoChannel = errors.New("client: not talking to any peer; open a channel first")

	// ErrNotConnected is returned when addressing a peer without an
	// established session.
	ErrNotConnected = errors.New("client: no open session with that peer")

	// ErrUnknownRequest is returned when accepting a request that is not pending.
	ErrUnknownRequest = errors.New("client: no such pending request")
)

// request is a pending inbound dial: who asked, and their public key.
type request struct {
	peer domain.Peer
	key  []byte
}

// Client is one connection to a relay plus the chat state built from it.
type Client struct {
	log      zerolog.Logger
	identity domain.Identity

	nc  net.Conn
	wmu sync.Mutex

	mu         sync.Mutex
	id         uuid.UUID
	greeted    bool
	roster     []domain.Peer
	pending    []request
	sessions   map[uuid.UUID]*handshake.Session
	current    uuid.UUID
	hasCurrent bool

	welcomed chan struct{}
	done     chan struct{}
	readErr  error

	events chan string
}

// Dial connects to a relay and starts the background reader. The returned
// client is usable once WaitWelcome has observed the relay's Welcome.
func Dial(addr string, id domain.Identity, log zerolog.Logger) (*Client, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to relay %s: %w", addr, err)
	}
	c := &Client{
		log:      log.With().Str("component", "client").Logger(),
		identity: id,
		nc:       nc,
		sessions: make(map[uuid.UUID]*handshake.Session),
		welcomed: make(chan struct{}),
		done:     make(chan struct{}),
		events:   make(chan string, 32),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the relay connection.
func (c *Client) Close() error { return c.nc.Close() }

// Done is closed when the reader exits; Err then reports why.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the error that stopped the reader, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Events delivers event lines for the user. The channel is closed when the
// connection dies.
func (c *Client) Events() <-chan string { return c.events }

// WaitWelcome blocks until the relay has assigned us a UUID.
func (c *Client) WaitWelcome(ctx context.Context) error {
	select {
	case <-c.welcomed:
		return nil
	case <-c.done:
		return fmt.Errorf("relay connection closed: %w", c.Err())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ID returns the relay-assigned UUID.
func (c *Client) ID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Advertise publishes a friendly name to the roster.
func (c *Client) Advertise(name string) error {
	return c.send(&wire.Advertise{Name: name})
}

// Peers returns a copy of the current roster.
func (c *Client) Peers() []domain.Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Peer(nil), c.roster...)
}

// Requests returns the peers with a dial pending our decision.
func (c *Client) Requests() []domain.Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	peers := make([]domain.Peer, len(c.pending))
	for i, r := range c.pending {
		peers[i] = r.peer
	}
	return peers
}

// Connected reports whether an outbound session with the peer is established.
func (c *Client) Connected(peer uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[peer]
	return ok && s.Established()
}

// Current returns the peer whose channel is selected.
func (c *Client) Current() (domain.Peer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCurrent {
		return domain.Peer{}, false
	}
	return c.describe(c.current), true
}

// Open selects the channel to peer when a session already exists, or sends a
// dial request otherwise. It reports whether the channel was switched.
func (c *Client) Open(peer uuid.UUID) (switched bool, err error) {
	c.mu.Lock()
	s, ok := c.sessions[peer]
	if ok && s.Established() {
		c.current = peer
		c.hasCurrent = true
		c.mu.Unlock()
		return true, nil
	}
	c.mu.Unlock()

	der, err := c.identity.PublicDER()
	if err != nil {
		return false, err
	}
	return false, c.send(&wire.Dial{To: peer, Key: der})
}

// Accept approves a pending dial request: the requester's key opens our side
// of the session, and our key travels back in the reply.
func (c *Client) Accept(peer uuid.UUID) error {
	c.mu.Lock()
	idx := -1
	for i, r := range c.pending {
		if r.peer.ID == peer {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return ErrUnknownRequest
	}
	req := c.pending[idx]
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	c.mu.Unlock()

	pub, err := crypto.ParsePublicKey(req.key)
	if err != nil {
		return err
	}
	c.setPeerKey(peer, pub)

	der, err := c.identity.PublicDER()
	if err != nil {
		return err
	}
	return c.send(&wire.DialReply{To: peer, Accept: true, Key: der})
}

// Reject declines a pending dial request.
func (c *Client) Reject(peer uuid.UUID) error {
	c.mu.Lock()
	for i, r := range c.pending {
		if r.peer.ID == peer {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			c.mu.Unlock()
			return c.send(&wire.DialReply{To: peer, Accept: false})
		}
	}
	c.mu.Unlock()
	return ErrUnknownRequest
}

// Say seals text for the current channel and sends it through the relay.
func (c *Client) Say(text string) error {
	c.mu.Lock()
	if !c.hasCurrent {
		c.mu.Unlock()
		return ErrNoChannel
	}
	to := c.current
	s, ok := c.sessions[to]
	c.mu.Unlock()
	if !ok || !s.Established() {
		return ErrNotConnected
	}

	sealed, err := s.Seal([]byte(text), handshake.AAD(c.ID(), to))
	if err != nil {
		return err
	}
	return c.send(&wire.Send{To: to, Sealed: sealed})
}

// send frames and writes one server-bound message.
func (c *Client) send(m wire.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wire.WriteMessage(c.nc, m)
}

// readLoop applies client-bound messages until the connection dies.
func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		m, err := wire.ReadMessage(c.nc, 0)
		if errors.Is(err, wire.ErrBadMessage) {
			c.log.Warn().Err(err).Msg("discarding undecodable message")
			continue
		}
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			if !errors.Is(err, net.ErrClosed) {
				c.log.Debug().Err(err).Msg("reader stopped")
			}
			return
		}
		c.handle(m)
	}
}

// handle applies one client-bound message and emits any user-facing event.
func (c *Client) handle(m wire.Message) {
	switch msg := m.(type) {
	case *wire.Welcome:
		c.mu.Lock()
		first := !c.greeted
		c.greeted = true
		c.id = msg.ID
		c.mu.Unlock()
		if first {
			close(c.welcomed)
		}

	case *wire.Roster:
		c.mu.Lock()
		c.roster = msg.Peers
		c.mu.Unlock()

	case *wire.PeerJoined:
		c.mu.Lock()
		me := msg.Peer.ID == c.id
		found := false
		for i, p := range c.roster {
			if p.ID == msg.Peer.ID {
				c.roster[i] = msg.Peer
				found = true
				break
			}
		}
		if !found && !me {
			c.roster = append(c.roster, msg.Peer)
		}
		c.mu.Unlock()
		if !found && !me {
			c.event(fmt.Sprintf("%s joined.", msg.Peer.Label()))
		}

	case *wire.PeerLeft:
		c.mu.Lock()
		var left domain.Peer
		for i, p := range c.roster {
			if p.ID == msg.ID {
				left = p
				c.roster = append(c.roster[:i], c.roster[i+1:]...)
				break
			}
		}
		delete(c.sessions, msg.ID)
		if c.hasCurrent && c.current == msg.ID {
			c.hasCurrent = false
		}
		c.mu.Unlock()
		if left.ID != uuid.Nil {
			c.event(fmt.Sprintf("%s left.", left.Label()))
		}

	case *wire.DialRequest:
		c.mu.Lock()
		dup := false
		for _, r := range c.pending {
			if r.peer.ID == msg.From.ID {
				dup = true
				break
			}
		}
		if !dup {
			c.pending = append(c.pending, request{peer: msg.From, key: msg.Key})
		}
		c.mu.Unlock()
		if !dup {
			c.event(fmt.Sprintf("New connection request from %s. Type 'accept' to view and accept it.", msg.From.Label()))
		}

	case *wire.DialResponse:
		if !msg.Accept {
			c.event(fmt.Sprintf("%s rejected your connection.", c.displayName(msg.From)))
			return
		}
		pub, err := crypto.ParsePublicKey(msg.Key)
		if err != nil {
			c.log.Warn().Err(err).Stringer("from", msg.From.ID).Msg("bad key in dial response")
			return
		}
		c.setPeerKey(msg.From.ID, pub)
		c.event(fmt.Sprintf("%s accepted your connection. Type 'open' to choose the channel.", c.displayName(msg.From)))

	case *wire.Deliver:
		s := c.session(msg.From.ID)
		pt, err := s.Open(c.identity.Key, msg.Sealed, handshake.AAD(msg.From.ID, c.ID()))
		if err != nil {
			c.log.Warn().Err(err).Stringer("from", msg.From.ID).Msg("discarding undecryptable payload")
			return
		}
		c.event(fmt.Sprintf("%s: %s", c.displayName(msg.From), pt))

	default:
		c.log.Warn().Uint8("kind", uint8(m.Kind())).Msg("unhandled message")
	}
}

// session returns the session for peer, creating an inbound-only one if needed.
func (c *Client) session(peer uuid.UUID) *handshake.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[peer]
	if !ok {
		s = handshake.New(nil)
		c.sessions[peer] = s
	}
	return s
}

// setPeerKey installs pub on the peer's session, creating it if needed.
func (c *Client) setPeerKey(peer uuid.UUID, pub *rsa.PublicKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[peer]
	if !ok {
		s = handshake.New(pub)
		c.sessions[peer] = s
		return
	}
	s.SetPeerKey(pub)
}

// describe resolves a peer ID against the roster.
func (c *Client) describe(id uuid.UUID) domain.Peer {
	for _, p := range c.roster {
		if p.ID == id {
			return p
		}
	}
	return domain.Peer{ID: id}
}

// displayName prefers the roster name, then the relay-supplied description.
func (c *Client) displayName(from domain.Peer) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.roster {
		if p.ID == from.ID && p.Name != "" {
			return p.Name
		}
	}
	if from.Name != "" {
		return from.Name
	}
	return "Unknown"
}

// event queues a user-facing line, dropping the line if nobody is draining.
func (c *Client) event(line string) {
	select {
	case c.events <- line:
	default:
		c.log.Debug().Str("event", line).Msg("event dropped")
	}
}
