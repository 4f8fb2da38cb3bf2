package dhcp4

import (
	"net"

	log "github.com/sirupsen/logrus"

	"github.com/softap/softap/metrics"
)

// handleRequest validates the requested address, commits the lease and
// answers with an ACK. Every validation failure drops the datagram without
// a NAK; the client falls back to timeout and rediscovery.
//
// Validation order: the requested-address option must be present, its
// network prefix must match the server's subnet, the derived slot must be
// in range, and the slot must be free or already owned by this client.
func (h *Handler) handleRequest(p DHCP4) (DHCP4, error) {
	mac := p.CHAddr()

	value, ok := FindOption(p.Options(), OptionRequestedIPAddress)
	if !ok || len(value) != 4 {
		metrics.DHCPDrops.WithLabelValues("invalid_address").Inc()
		log.WithFields(log.Fields{"mac": mac}).Info("dhcp4: request - no requested address, dropping")
		return nil, ErrInvalidRequestedAddress
	}
	reqIP := net.IP(value)

	if !reqIP.Mask(h.mask).Equal(h.serverIP.Mask(h.mask)) {
		metrics.DHCPDrops.WithLabelValues("invalid_address").Inc()
		log.WithFields(log.Fields{"mac": mac, "ip": reqIP}).Info("dhcp4: request - address outside subnet, dropping")
		return nil, ErrInvalidRequestedAddress
	}

	slot := int(reqIP[3]) - int(h.base)
	if slot < 0 || slot >= len(h.table.slots) {
		metrics.DHCPDrops.WithLabelValues("invalid_address").Inc()
		log.WithFields(log.Fields{"mac": mac, "ip": reqIP}).Info("dhcp4: request - address outside lease range, dropping")
		return nil, ErrInvalidRequestedAddress
	}

	if !h.table.available(slot, mac) {
		metrics.DHCPDrops.WithLabelValues("conflict").Inc()
		log.WithFields(log.Fields{"mac": mac, "ip": reqIP}).Info("dhcp4: request - address in use, dropping")
		return nil, ErrLeaseConflict
	}

	h.table.commit(slot, mac)
	log.WithFields(log.Fields{"mac": mac, "ip": reqIP}).Info("dhcp4: client connected")
	return h.replyPacket(p, ACK, reqIP)
}
