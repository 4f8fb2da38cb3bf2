package dhcp4

import (
	log "github.com/sirupsen/logrus"

	"github.com/softap/softap/metrics"
)

// handleDiscover answers a DISCOVER with an OFFER naming the slot the
// client would get. The slot is not committed: only a REQUEST writes the
// lease. Two clients discovering concurrently may be offered the same slot;
// the REQUEST ownership check resolves the race in favour of the first
// committer. Exhaustion drops the datagram, no NAK.
func (h *Handler) handleDiscover(p DHCP4) (DHCP4, error) {
	mac := p.CHAddr()
	name := ""
	if value, ok := FindOption(p.Options(), OptionHostName); ok {
		name = string(value)
	}

	slot, state := h.table.locate(mac)
	if state == SlotExhausted {
		metrics.DHCPDrops.WithLabelValues("exhausted").Inc()
		log.WithFields(log.Fields{"mac": mac, "name": name}).Info("dhcp4: discover - no addresses left, failing silently")
		return nil, ErrPoolExhausted
	}

	ip := h.slotIP(slot)
	log.WithFields(log.Fields{"mac": mac, "ip": ip, "slot": state.String(), "name": name}).Info("dhcp4: discover - offer")
	return h.replyPacket(p, Offer, ip)
}
