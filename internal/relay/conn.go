package relay

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"parley/internal/domain"
	"parley/internal/wire"
)

// conn is one connected client: the socket, the relay-assigned UUID and the
// friendly name, if any, the client advertised.
type conn struct {
	id uuid.UUID
	c  net.Conn

	// wmu serialises writes; frames from the client's own reader and from
	// broadcasts interleave otherwise.
	wmu sync.Mutex

	mu   sync.Mutex
	name string
}

// send frames and writes a single message, bounded by the write timeout.
func (c *conn) send(m wire.Message, timeout time.Duration) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if timeout > 0 {
		if err := c.c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return wire.WriteMessage(c.c, m)
}

// setName records the advertised friendly name.
func (c *conn) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// advertised reports whether the client has published a name yet. Clients
// that never advertise stay off the roster, reachable only by UUID.
func (c *conn) advertised() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name != ""
}

// peer returns the relay's authoritative description of this client.
func (c *conn) peer() domain.Peer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Peer{ID: c.id, Name: c.name}
}
