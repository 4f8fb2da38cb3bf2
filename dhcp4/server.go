package dhcp4

import (
	"errors"
	"net"

	log "github.com/sirupsen/logrus"
)

// Conn is the narrow datagram transport contract the engine depends on.
// net.PacketConn satisfies it; tests supply an in memory implementation.
type Conn interface {
	ReadFrom(b []byte) (n int, addr net.Addr, err error)
	WriteTo(b []byte, addr net.Addr) (n int, err error)
	Close() error
}

// Serve reads datagrams from the handler's conn and processes them to
// completion one at a time. It returns when the conn is closed. Dropped
// datagrams are logged at debug level only; they are not failures of the
// serve loop.
func (h *Handler) Serve() error {
	buf := make([]byte, 1500)
	for {
		n, src, err := h.conn.ReadFrom(buf)
		if err != nil {
			h.Lock()
			closed := h.closed
			h.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if err := h.ProcessPacket(buf[:n], src); err != nil {
			log.WithFields(log.Fields{"src": src}).Debugf("dhcp4: dropped datagram error=%s", err)
		}
	}
}

// Close stops the serve loop by closing the underlying conn.
func (h *Handler) Close() error {
	h.Lock()
	if h.closed {
		h.Unlock()
		return nil
	}
	h.closed = true
	h.Unlock()
	return h.conn.Close()
}
