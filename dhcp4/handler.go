package dhcp4

import (
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/softap/softap/metrics"
)

// Config contains configuration overrides for a Handler.
type Config struct {
	// ServerIP is the access point's own address. It is also advertised as
	// router and DNS server in every reply.
	ServerIP net.IP

	// SubnetMask defaults to /24.
	SubnetMask net.IPMask

	// BaseOctet is the last octet of the first leased address. Defaults to
	// the server's last octet plus one.
	BaseOctet byte

	// Capacity is the lease table size; slot i serves BaseOctet+i.
	Capacity int

	LeaseDuration time.Duration

	// Ticks overrides the millisecond tick source. Tests inject a fake
	// clock here.
	Ticks func() uint32
}

// Handler is the allocation engine. It owns the lease table explicitly; no
// process wide state. The embedded mutex spans the whole locate, build,
// commit sequence of a message so concurrent callers cannot race two
// clients onto one slot.
type Handler struct {
	conn          Conn
	serverIP      net.IP // 4 byte form
	mask          net.IPMask
	base          byte
	leaseDuration time.Duration
	table         *leaseTable
	closed        bool
	sync.Mutex
}

// New validates config and returns a handler sending replies on conn.
func New(conn Conn, config Config) (*Handler, error) {
	ip := config.ServerIP.To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid server ip=%s", config.ServerIP)
	}
	if config.SubnetMask == nil {
		config.SubnetMask = net.CIDRMask(24, 32)
	}
	if config.Capacity == 0 {
		config.Capacity = DefaultCapacity
	}
	if config.BaseOctet == 0 {
		config.BaseOctet = ip[3] + 1
	}
	if int(config.BaseOctet)+config.Capacity-1 > 254 {
		return nil, fmt.Errorf("lease range base=%d capacity=%d exceeds subnet", config.BaseOctet, config.Capacity)
	}
	if config.LeaseDuration == 0 {
		config.LeaseDuration = DefaultLeaseDuration
	}
	h := &Handler{
		conn:          conn,
		serverIP:      ip,
		mask:          config.SubnetMask,
		base:          config.BaseOctet,
		leaseDuration: config.LeaseDuration,
		table:         newLeaseTable(config.Capacity, config.LeaseDuration, config.Ticks),
	}
	return h, nil
}

// ProcessPacket decodes one inbound datagram, runs the allocation decision
// and sends the reply. Protocol errors drop the datagram silently; the
// error is returned for the caller's log only, the client gets nothing.
func (h *Handler) ProcessPacket(b []byte, src net.Addr) error {
	p := DHCP4(b)
	if err := p.IsValid(); err != nil {
		metrics.DHCPDrops.WithLabelValues("malformed").Inc()
		return err
	}
	if p.HType() != 1 || p.HLen() != macLen {
		metrics.DHCPDrops.WithLabelValues("malformed").Inc()
		return ErrMalformedPacket
	}

	value, ok := FindOption(p.Options(), OptionMessageType)
	if !ok || len(value) != 1 {
		metrics.DHCPDrops.WithLabelValues("missing_type").Inc()
		return ErrMissingMessageType
	}
	msgType := MessageType(value[0])
	metrics.DHCPMessages.WithLabelValues(msgType.String()).Inc()

	var response DHCP4
	var err error

	h.Lock()
	switch msgType {
	case Discover:
		response, err = h.handleDiscover(p)
	case Request:
		response, err = h.handleRequest(p)
	default:
		// DECLINE, RELEASE, INFORM and anything else: no reply, no state
		// change. Expiry alone releases leases.
		metrics.DHCPDrops.WithLabelValues("unsupported").Inc()
	}
	h.Unlock()

	if err != nil {
		return err
	}
	if response == nil {
		return nil
	}

	// Clients in the middle of address acquisition cannot receive unicast;
	// replies always go to the broadcast address on the client port.
	if _, err := h.conn.WriteTo(response, broadcastAddr); err != nil {
		metrics.DHCPDrops.WithLabelValues("send").Inc()
		log.WithFields(log.Fields{"dst": broadcastAddr}).Errorf("dhcp4: failed sending reply error=%s", err)
		return err
	}
	metrics.DHCPReplies.WithLabelValues(response.MessageType().String()).Inc()
	return nil
}

// slotIP returns the address slot maps to: base address plus slot index.
func (h *Handler) slotIP(slot int) net.IP {
	ip := make(net.IP, 4)
	copy(ip, h.serverIP)
	ip[3] = h.base + byte(slot)
	return ip
}

// replyPacket assembles a reply carrying the fixed option set: message
// type, server identifier, subnet mask, router, DNS server and lease time.
// The server is the single default gateway and the DNS server.
func (h *Handler) replyPacket(req DHCP4, msgType MessageType, yiaddr net.IP) (DHCP4, error) {
	resp := replyFor(req)
	resp.SetYIAddr(yiaddr)

	w := NewOptionWriter(resp.Options())
	if err := w.WriteUint8(OptionMessageType, byte(msgType)); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(OptionServerIdentifier, h.serverIP); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(OptionSubnetMask, h.mask); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(OptionRouter, h.serverIP); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(OptionDomainNameServer, h.serverIP); err != nil {
		return nil, err
	}
	if err := w.WriteUint32(OptionIPAddressLeaseTime, uint32(h.leaseDuration/time.Second)); err != nil {
		return nil, err
	}
	if err := w.WriteEnd(); err != nil {
		return nil, err
	}
	return resp[:optionsOffset+w.Len()], nil
}

// Lease is a snapshot of one committed lease for the portal and logs.
type Lease struct {
	MAC       net.HardwareAddr `json:"mac"`
	IP        net.IP           `json:"ip"`
	Remaining time.Duration    `json:"remaining"`
}

// Leases returns a snapshot of all committed leases.
func (h *Handler) Leases() []Lease {
	h.Lock()
	defer h.Unlock()
	now := h.table.ticks()
	leases := make([]Lease, 0, len(h.table.slots))
	for i := range h.table.slots {
		if h.table.slots[i].free() {
			continue
		}
		mac := make(net.HardwareAddr, macLen)
		copy(mac, h.table.slots[i].mac[:])
		leases = append(leases, Lease{
			MAC:       mac,
			IP:        h.slotIP(i),
			Remaining: time.Duration(h.table.remaining(i, now)) * time.Second,
		})
	}
	return leases
}
