package dhcp4

import (
	"bytes"
	"net"
	"time"
)

const macLen = 6

// DefaultCapacity is the lease table size when the configuration does not
// set one. Capacity also bounds the address range handed out: slot i maps
// to base+i.
const DefaultCapacity = 8

// SlotState is the outcome of a lease table scan for a hardware address.
type SlotState int

const (
	SlotOwned   SlotState = iota // non expired slot already bound to this address
	SlotFree                     // unused slot
	SlotExpired                  // slot whose previous owner's lease lapsed
	SlotExhausted
)

func (s SlotState) String() string {
	switch s {
	case SlotOwned:
		return "owned"
	case SlotFree:
		return "free"
	case SlotExpired:
		return "expired"
	}
	return "exhausted"
}

// leaseSlot binds a hardware address to the slot's implied IP address until
// expiry. A zero hardware address marks the slot free. Expiry keeps only the
// high 16 bits of the millisecond tick counter (~65s granularity); the tick
// counter wraps every ~48 days so comparisons use signed deltas.
type leaseSlot struct {
	mac    [macLen]byte
	expiry uint16
}

func (l *leaseSlot) free() bool {
	return l.mac == [macLen]byte{}
}

// leaseTable is a fixed capacity array of lease slots. It performs no
// locking; the Handler serializes access.
type leaseTable struct {
	slots    []leaseSlot
	duration uint32        // lease duration in ticks (milliseconds)
	ticks    func() uint32 // monotonic millisecond counter, may wrap
}

var bootTime = time.Now()

// monotonicTicks is the default tick source: milliseconds since process
// start, truncated to 32 bits.
func monotonicTicks() uint32 {
	return uint32(time.Since(bootTime) / time.Millisecond)
}

func newLeaseTable(capacity int, duration time.Duration, ticks func() uint32) *leaseTable {
	if ticks == nil {
		ticks = monotonicTicks
	}
	return &leaseTable{
		slots:    make([]leaseSlot, capacity),
		duration: uint32(duration / time.Millisecond),
		ticks:    ticks,
	}
}

// expired reports whether the slot's lease lapsed at tick counter value now.
// The expiry value widens back to a full tick value at the end of its 65s
// bucket; the subtraction is evaluated as a signed delta so the comparison
// survives counter wraparound.
func (t *leaseTable) expired(slot int, now uint32) bool {
	expiry := uint32(t.slots[slot].expiry)<<16 | 0xffff
	return int32(expiry-now) < 0
}

// locate scans the table once for the slot to offer mac. Priority order:
// the slot already bound to mac, else the first free slot, else the first
// expired slot (its stale owner is evicted). Returns SlotExhausted with
// slot -1 when every slot is held by a distinct live lease.
func (t *leaseTable) locate(mac net.HardwareAddr) (int, SlotState) {
	if len(mac) != macLen {
		return -1, SlotExhausted
	}
	now := t.ticks()
	firstFree, firstExpired := -1, -1
	for i := range t.slots {
		if t.slots[i].free() {
			if firstFree < 0 {
				firstFree = i
			}
			continue
		}
		if bytes.Equal(mac, t.slots[i].mac[:]) {
			return i, SlotOwned
		}
		if firstExpired < 0 && t.expired(i, now) {
			firstExpired = i
		}
	}
	if firstFree >= 0 {
		return firstFree, SlotFree
	}
	if firstExpired >= 0 {
		// evict the stale owner so the slot can be offered
		t.slots[firstExpired].mac = [macLen]byte{}
		return firstExpired, SlotExpired
	}
	return -1, SlotExhausted
}

// available reports whether a REQUEST for slot from mac may be honoured:
// the slot is free or mac already owns it. An expired lease held by a
// different address is not reclaimed here; only a DISCOVER scan evicts it.
func (t *leaseTable) available(slot int, mac net.HardwareAddr) bool {
	if t.slots[slot].free() {
		return true
	}
	return bytes.Equal(mac, t.slots[slot].mac[:])
}

// commit binds slot to mac and restarts its lease clock.
func (t *leaseTable) commit(slot int, mac net.HardwareAddr) {
	copy(t.slots[slot].mac[:], mac)
	t.slots[slot].expiry = uint16((t.ticks() + t.duration) >> 16)
}

// remaining returns the seconds left on the slot's lease, zero if lapsed.
func (t *leaseTable) remaining(slot int, now uint32) uint32 {
	expiry := uint32(t.slots[slot].expiry)<<16 | 0xffff
	delta := int32(expiry - now)
	if delta < 0 {
		return 0
	}
	return uint32(delta) / 1000
}
