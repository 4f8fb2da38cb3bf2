package dhcp4

import (
	"bytes"
	"fmt"
	"net"
)

type OpCode byte

// OpCodes
const (
	BootRequest OpCode = 1 // from client
	BootReply   OpCode = 2 // from server
)

// MessageType is DHCP option 53.
type MessageType byte

const (
	Discover MessageType = 1
	Offer    MessageType = 2
	Request  MessageType = 3
	Decline  MessageType = 4
	ACK      MessageType = 5
	NAK      MessageType = 6
	Release  MessageType = 7
	Inform   MessageType = 8
)

func (m MessageType) String() string {
	switch m {
	case Discover:
		return "discover"
	case Offer:
		return "offer"
	case Request:
		return "request"
	case Decline:
		return "decline"
	case ACK:
		return "ack"
	case NAK:
		return "nak"
	case Release:
		return "release"
	case Inform:
		return "inform"
	}
	return fmt.Sprintf("unknown(%d)", byte(m))
}

const (
	// fixed header (236 bytes) plus the 4 byte magic cookie
	headerLen     = 236
	optionsOffset = headerLen + 4

	// MinPacketSize is the smallest datagram the codec accepts: fixed
	// header, cookie and a minimal message type option.
	MinPacketSize = optionsOffset + 3

	// MaxPacketSize bounds the options area to 308 bytes after the cookie,
	// the same fixed area the BOOTP options field provides.
	MaxPacketSize = optionsOffset + optionsAreaSize
)

var magicCookie = []byte{99, 130, 83, 99}

// DHCP4 is a wire format DHCP packet. All accessors index directly into the
// underlying byte slice; the caller must validate the packet with IsValid
// before using them.
type DHCP4 []byte

// IsValid checks the packet is large enough to hold the fixed header, the
// magic cookie and a message type option, and that the cookie matches.
func (p DHCP4) IsValid() error {
	if len(p) < MinPacketSize {
		return ErrMalformedPacket
	}
	if !bytes.Equal(p.Cookie(), magicCookie) {
		return ErrMalformedPacket
	}
	return nil
}

func (p DHCP4) OpCode() OpCode { return OpCode(p[0]) }
func (p DHCP4) HType() byte    { return p[1] }
func (p DHCP4) HLen() byte     { return p[2] }
func (p DHCP4) Hops() byte     { return p[3] }
func (p DHCP4) XId() []byte    { return p[4:8] }
func (p DHCP4) Secs() []byte   { return p[8:10] }
func (p DHCP4) Flags() []byte  { return p[10:12] }
func (p DHCP4) CIAddr() net.IP { return net.IP(p[12:16]) }
func (p DHCP4) YIAddr() net.IP { return net.IP(p[16:20]) }
func (p DHCP4) SIAddr() net.IP { return net.IP(p[20:24]) }
func (p DHCP4) GIAddr() net.IP { return net.IP(p[24:28]) }

// CHAddr returns the client hardware address. The address field is 16 bytes
// on the wire; hlen caps how many are meaningful.
func (p DHCP4) CHAddr() net.HardwareAddr {
	hLen := p.HLen()
	if hLen > 16 {
		hLen = 16
	}
	return net.HardwareAddr(p[28 : 28+hLen])
}

// BOOTP legacy
func (p DHCP4) SName() []byte { return p[44:108] }

// BOOTP legacy
func (p DHCP4) File() []byte { return p[108:236] }

func (p DHCP4) Cookie() []byte { return p[236:240] }

// Options returns the options area following the magic cookie.
func (p DHCP4) Options() []byte {
	if len(p) > optionsOffset {
		return p[optionsOffset:]
	}
	return nil
}

func (p DHCP4) Broadcast() bool { return p.Flags()[0] > 127 }

func (p DHCP4) SetOpCode(c OpCode) { p[0] = byte(c) }
func (p DHCP4) SetHType(t byte)    { p[1] = t }
func (p DHCP4) SetXId(xid []byte)  { copy(p.XId(), xid) }
func (p DHCP4) SetCIAddr(ip net.IP) {
	copy(p.CIAddr(), ip.To4())
}
func (p DHCP4) SetYIAddr(ip net.IP) {
	copy(p.YIAddr(), ip.To4())
}
func (p DHCP4) SetCHAddr(a net.HardwareAddr) {
	copy(p[28:44], a)
	p[2] = byte(len(a))
}
func (p DHCP4) SetBroadcast(broadcast bool) {
	if p.Broadcast() != broadcast {
		p.Flags()[0] ^= 128
	}
}
func (p DHCP4) SetCookie(cookie []byte) { copy(p.Cookie(), cookie) }

// MessageType scans the options for option 53. Returns zero if absent or
// malformed.
func (p DHCP4) MessageType() MessageType {
	value, ok := FindOption(p.Options(), OptionMessageType)
	if !ok || len(value) != 1 {
		return 0
	}
	return MessageType(value[0])
}

func (p DHCP4) String() string {
	return fmt.Sprintf("opcode=%d chaddr=%s ciaddr=%s yiaddr=%s len=%d", p.OpCode(), p.CHAddr(), p.CIAddr(), p.YIAddr(), len(p))
}

// NewPacket returns an empty packet with the fixed header, hardware type
// ethernet and the magic cookie set. The options area is zeroed; use an
// OptionWriter to fill it.
func NewPacket(opCode OpCode) DHCP4 {
	p := make(DHCP4, MaxPacketSize)
	p.SetOpCode(opCode)
	p.SetHType(1) // ethernet
	p[2] = 6      // hlen
	p.SetCookie(magicCookie)
	return p
}

// replyFor builds the skeleton of a server reply by copying the request's
// fixed header and cookie into a fresh max size buffer. xid, flags, chaddr
// and giaddr are carried over from the request; the options area is empty.
func replyFor(req DHCP4) DHCP4 {
	p := make(DHCP4, MaxPacketSize)
	copy(p, req[:optionsOffset])
	p.SetOpCode(BootReply)
	return p
}
