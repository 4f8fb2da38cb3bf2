// Package dns implements the captive portal DNS responder: every A query
// is answered with the access point's own address so that any hostname a
// client resolves leads back to the portal. The responder keeps no zone
// data and never recurses.
package dns

import (
	"errors"
	"fmt"
	"net"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/dns/dnsmessage"

	"github.com/softap/softap/metrics"
)

// Port is the well known DNS server port.
const Port = 53

const answerTTL = 60 // seconds

// seenCacheSize bounds the cache used to log each queried name only once.
const seenCacheSize = 256

// Handler answers every query on its conn with a single fixed A record.
type Handler struct {
	conn   net.PacketConn
	ip     [4]byte // the one answer we ever give
	seen   *lru.Cache
	closed bool
	mutex  sync.Mutex
}

// New returns a responder answering with ip on conn.
func New(conn net.PacketConn, ip net.IP) (*Handler, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("invalid answer ip=%s", ip)
	}
	seen, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, err
	}
	h := &Handler{conn: conn, seen: seen}
	copy(h.ip[:], ip4)
	return h, nil
}

// Serve reads queries until the conn is closed. Each datagram is answered
// to completion before the next is read; malformed or non query messages
// are dropped silently.
func (h *Handler) Serve() error {
	buf := make([]byte, 512)
	for {
		n, src, err := h.conn.ReadFrom(buf)
		if err != nil {
			h.mutex.Lock()
			closed := h.closed
			h.mutex.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		response := h.process(buf[:n])
		if response == nil {
			continue
		}
		if _, err := h.conn.WriteTo(response, src); err != nil {
			log.WithFields(log.Fields{"dst": src}).Errorf("dns: failed sending reply error=%s", err)
		}
	}
}

// Close stops the serve loop by closing the underlying conn.
func (h *Handler) Close() error {
	h.mutex.Lock()
	if h.closed {
		h.mutex.Unlock()
		return nil
	}
	h.closed = true
	h.mutex.Unlock()
	return h.conn.Close()
}

// process parses one query and builds the reply, or nil to drop. Only
// standard queries with at least one question are answered; the first
// question is echoed back with an authoritative A record for our address.
// Non A questions get an empty authoritative answer.
func (h *Handler) process(msg []byte) []byte {
	metrics.DNSQueries.Inc()

	var parser dnsmessage.Parser
	hdr, err := parser.Start(msg)
	if err != nil || hdr.Response || hdr.OpCode != 0 {
		return nil
	}
	q, err := parser.Question()
	if err != nil {
		return nil
	}

	if ok, _ := h.seen.ContainsOrAdd(q.Name.String(), true); !ok {
		log.WithFields(log.Fields{"name": q.Name.String(), "type": q.Type.String()}).Debug("dns: query")
	}

	builder := dnsmessage.NewBuilder(make([]byte, 0, 512), dnsmessage.Header{
		ID:                 hdr.ID,
		Response:           true,
		Authoritative:      true,
		RecursionAvailable: true,
	})
	builder.EnableCompression()
	if err := builder.StartQuestions(); err != nil {
		return nil
	}
	if err := builder.Question(q); err != nil {
		return nil
	}
	if q.Type == dnsmessage.TypeA {
		if err := builder.StartAnswers(); err != nil {
			return nil
		}
		err := builder.AResource(dnsmessage.ResourceHeader{
			Name:  q.Name,
			Type:  dnsmessage.TypeA,
			Class: dnsmessage.ClassINET,
			TTL:   answerTTL,
		}, dnsmessage.AResource{A: h.ip})
		if err != nil {
			return nil
		}
	}
	response, err := builder.Finish()
	if err != nil {
		return nil
	}
	metrics.DNSReplies.Inc()
	return response
}
