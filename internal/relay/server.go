package relay

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parley/internal/domain"
	"parley/internal/wire"
)

// Server is the relay: an accept loop, a registry of live client
// connections, and the forwarding rules between them.
type Server struct {
	cfg *Config
	log zerolog.Logger

	ln net.Listener

	mu    sync.RWMutex
	conns map[uuid.UUID]*conn

	wg sync.WaitGroup
}

// New returns a relay server for cfg. The caller is expected to have run
// cfg.FixupAndValidate (LoadConfig does).
func New(cfg *Config, log zerolog.Logger) *Server {
	return &Server{
		cfg:   cfg,
		log:   log.With().Str("component", "relay").Logger(),
		conns: make(map[uuid.UUID]*conn),
	}
}

// ListenAndServe binds the configured listen address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It owns ln and
// closes it on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.log.Info().Str("listen", ln.Addr().String()).Msg("relay listening")

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.closeAll()
	})
	defer stop()

	for {
		c, err := ln.Accept()
		if err != nil {
			s.wg.Wait()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(c)
		}()
	}
}

// Addr returns the bound listener address, useful with a ":0" listen config.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// handle runs the per-connection read loop.
func (s *Server) handle(nc net.Conn) {
	c := &conn{id: uuid.New(), c: nc}

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	log := s.log.With().
		Stringer("peer", c.id).
		Str("remote", nc.RemoteAddr().String()).
		Logger()
	log.Info().Msg("client connected")

	// The new client learns its UUID, then who is already here.
	if err := c.send(&wire.Welcome{ID: c.id}, s.cfg.WriteTimeout.Std()); err != nil {
		log.Warn().Err(err).Msg("welcome failed")
		s.drop(c, log)
		return
	}
	if err := c.send(&wire.Roster{Peers: s.roster()}, s.cfg.WriteTimeout.Std()); err != nil {
		log.Warn().Err(err).Msg("roster failed")
		s.drop(c, log)
		return
	}

	for {
		m, err := wire.ReadMessage(nc, s.cfg.MaxFrameBytes)
		if errors.Is(err, wire.ErrBadMessage) {
			// The frame was consumed whole; the stream is still usable.
			log.Warn().Err(err).Msg("discarding undecodable message")
			continue
		}
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Info().Err(err).Msg("client disconnected")
			}
			break
		}
		s.dispatch(c, m, log)
	}
	s.drop(c, log)
}

// dispatch applies one server-bound message from c.
func (s *Server) dispatch(c *conn, m wire.Message, log zerolog.Logger) {
	switch msg := m.(type) {
	case *wire.Advertise:
		c.setName(msg.Name)
		log.Info().Str("name", msg.Name).Msg("peer advertised")
		s.broadcast(&wire.PeerJoined{Peer: c.peer()})

	case *wire.Dial:
		s.forward(c, msg.To, func(from domain.Peer) wire.Message {
			return &wire.DialRequest{From: from, Key: msg.Key}
		}, log)

	case *wire.DialReply:
		s.forward(c, msg.To, func(from domain.Peer) wire.Message {
			return &wire.DialResponse{From: from, Accept: msg.Accept, Key: msg.Key}
		}, log)

	case *wire.Send:
		s.forward(c, msg.To, func(from domain.Peer) wire.Message {
			return &wire.Deliver{From: from, Sealed: msg.Sealed}
		}, log)

	default:
		log.Warn().Uint8("kind", uint8(m.Kind())).Msg("unhandled message")
	}
}

// forward delivers build(sender) to the target, dropping silently when the
// target is unknown. The sender description comes from the registry.
func (s *Server) forward(c *conn, to uuid.UUID, build func(domain.Peer) wire.Message, log zerolog.Logger) {
	s.mu.RLock()
	target, ok := s.conns[to]
	s.mu.RUnlock()
	if !ok {
		log.Debug().Stringer("to", to).Msg("drop for unknown peer")
		return
	}
	if err := target.send(build(c.peer()), s.cfg.WriteTimeout.Std()); err != nil {
		log.Warn().Err(err).Stringer("to", to).Msg("forward failed")
	}
}

// roster returns every advertised peer.
func (s *Server) roster() []domain.Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peers := make([]domain.Peer, 0, len(s.conns))
	for _, c := range s.conns {
		if c.advertised() {
			peers = append(peers, c.peer())
		}
	}
	return peers
}

// broadcast sends m to every connected client.
func (s *Server) broadcast(m wire.Message) {
	s.mu.RLock()
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.send(m, s.cfg.WriteTimeout.Std()); err != nil {
			s.log.Warn().Err(err).Stringer("peer", c.id).Msg("broadcast failed")
		}
	}
}

// drop removes c from the registry and tells the others.
func (s *Server) drop(c *conn, log zerolog.Logger) {
	_ = c.c.Close()

	s.mu.Lock()
	_, present := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()

	if present {
		log.Info().Msg("client removed")
		s.broadcast(&wire.PeerLeft{ID: c.id})
	}
}

// closeAll tears down every live connection during shutdown.
func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.c.Close()
	}
}
