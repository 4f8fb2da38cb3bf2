// Package dhcp4 implements the lease allocation engine of the soft access
// point: it decodes inbound DHCP datagrams, drives a fixed capacity lease
// table and answers DISCOVER/REQUEST with OFFER/ACK.
//
// The server owns the whole address range it hands out. Each lease table
// slot maps deterministically to one address (base address plus slot index)
// so the requested address on a REQUEST resolves to its slot in O(1).
package dhcp4

import (
	"errors"
	"net"
	"time"
)

const module = "dhcp4"

// UDP ports for server and client.
const (
	ServerPort = 67
	ClientPort = 68
)

// DefaultLeaseDuration is used when the configuration does not set one.
const DefaultLeaseDuration = 24 * time.Hour

// Error taxonomy. Every protocol level error results in the datagram being
// dropped with no reply to the client; ErrBufferOverflow is a hard failure
// of an option write and never a silent overrun.
var (
	ErrMalformedPacket         = errors.New("malformed packet")
	ErrMissingMessageType      = errors.New("missing message type option")
	ErrPoolExhausted           = errors.New("lease pool exhausted")
	ErrInvalidRequestedAddress = errors.New("invalid requested address")
	ErrLeaseConflict           = errors.New("lease owned by another client")
	ErrBufferOverflow          = errors.New("options buffer overflow")
)

var broadcastAddr = &net.UDPAddr{IP: net.IPv4bcast, Port: ClientPort}
