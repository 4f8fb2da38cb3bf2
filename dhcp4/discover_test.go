package dhcp4

import (
	"bytes"
	"net"
	"testing"
	"time"
)

func TestDiscoverOffer(t *testing.T) {
	h, conn := newTestHandler(t, 2, nil)

	p := newTestPacket(t, Discover, mac1, nil)
	if err := h.ProcessPacket(p, nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}

	resp := conn.last(t)
	if err := resp.IsValid(); err != nil {
		t.Fatalf("reply invalid: %v", err)
	}
	if resp.MessageType() != Offer {
		t.Errorf("MessageType() = %s, want offer", resp.MessageType())
	}
	if want := (net.IP{192, 168, 4, 2}); !resp.YIAddr().Equal(want) {
		t.Errorf("YIAddr() = %s, want %s", resp.YIAddr(), want)
	}
	if !bytes.Equal(resp.XId(), testXId) {
		t.Errorf("XId() = %v, want %v", resp.XId(), testXId)
	}
	if value, ok := FindOption(resp.Options(), OptionServerIdentifier); !ok || !net.IP(value).Equal(testServerIP) {
		t.Errorf("server identifier = %v, want %s", value, testServerIP)
	}
	if value, ok := FindOption(resp.Options(), OptionSubnetMask); !ok || !bytes.Equal(value, []byte{255, 255, 255, 0}) {
		t.Errorf("subnet mask = %v, want /24", value)
	}
	if value, ok := FindOption(resp.Options(), OptionRouter); !ok || !net.IP(value).Equal(testServerIP) {
		t.Errorf("router = %v, want %s", value, testServerIP)
	}
	if value, ok := FindOption(resp.Options(), OptionDomainNameServer); !ok || !net.IP(value).Equal(testServerIP) {
		t.Errorf("dns = %v, want %s", value, testServerIP)
	}

	// replies go to the broadcast address on the client port
	dst, ok := conn.dsts[0].(*net.UDPAddr)
	if !ok || !dst.IP.Equal(net.IPv4bcast) || dst.Port != ClientPort {
		t.Errorf("reply dst = %v, want %v", conn.dsts[0], broadcastAddr)
	}
}

// A DISCOVER never commits: the offered slot stays free until a REQUEST.
func TestDiscoverDoesNotReserve(t *testing.T) {
	h, conn := newTestHandler(t, 2, nil)

	if err := h.ProcessPacket(newTestPacket(t, Discover, mac1, nil), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}
	if got := conn.last(t).YIAddr(); !got.Equal(net.IP{192, 168, 4, 2}) {
		t.Fatalf("YIAddr() = %s, want 192.168.4.2", got)
	}
	if n := len(h.Leases()); n != 0 {
		t.Errorf("Leases() = %d entries after discover, want 0", n)
	}

	// a second client discovering before the first commits is offered the
	// same slot
	if err := h.ProcessPacket(newTestPacket(t, Discover, mac2, nil), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}
	if got := conn.last(t).YIAddr(); !got.Equal(net.IP{192, 168, 4, 2}) {
		t.Errorf("YIAddr() = %s, want 192.168.4.2", got)
	}
}

func TestDiscoverSecondClient(t *testing.T) {
	h, conn := newTestHandler(t, 2, nil)

	// first client completes the full exchange
	if err := h.ProcessPacket(newTestPacket(t, Discover, mac1, nil), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}
	reqP := newTestPacket(t, Request, mac1, requestedIP(t, net.IP{192, 168, 4, 2}))
	if err := h.ProcessPacket(reqP, nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}

	// second client is offered the next slot
	if err := h.ProcessPacket(newTestPacket(t, Discover, mac2, nil), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}
	resp := conn.last(t)
	if want := (net.IP{192, 168, 4, 3}); !resp.YIAddr().Equal(want) {
		t.Errorf("YIAddr() = %s, want %s", resp.YIAddr(), want)
	}
}

func TestDiscoverPoolExhausted(t *testing.T) {
	h, conn := newTestHandler(t, 2, nil)

	for i, mac := range []net.HardwareAddr{mac1, mac2} {
		ip := net.IP{192, 168, 4, byte(2 + i)}
		if err := h.ProcessPacket(newTestPacket(t, Request, mac, requestedIP(t, ip)), nil); err != nil {
			t.Fatalf("ProcessPacket() error = %v", err)
		}
	}
	sent := len(conn.packets)

	err := h.ProcessPacket(newTestPacket(t, Discover, mac3, nil), nil)
	if err != ErrPoolExhausted {
		t.Errorf("ProcessPacket() error = %v, want ErrPoolExhausted", err)
	}
	if len(conn.packets) != sent {
		t.Error("reply sent on pool exhaustion, want silent drop")
	}
}

func TestDiscoverReusesExpiredSlot(t *testing.T) {
	clock := &fakeClock{}
	h, conn := newTestHandler(t, 1, clock)

	if err := h.ProcessPacket(newTestPacket(t, Request, mac1, requestedIP(t, net.IP{192, 168, 4, 2})), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}

	// while mac1's lease is live the single slot is taken
	if err := h.ProcessPacket(newTestPacket(t, Discover, mac2, nil), nil); err != ErrPoolExhausted {
		t.Fatalf("ProcessPacket() error = %v, want ErrPoolExhausted", err)
	}

	clock.advance(2 * time.Hour)
	if err := h.ProcessPacket(newTestPacket(t, Discover, mac2, nil), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}
	resp := conn.last(t)
	if resp.MessageType() != Offer {
		t.Errorf("MessageType() = %s, want offer", resp.MessageType())
	}
	if want := (net.IP{192, 168, 4, 2}); !resp.YIAddr().Equal(want) {
		t.Errorf("YIAddr() = %s, want %s", resp.YIAddr(), want)
	}

	// and mac2 can now commit the evicted slot
	if err := h.ProcessPacket(newTestPacket(t, Request, mac2, requestedIP(t, net.IP{192, 168, 4, 2})), nil); err != nil {
		t.Fatalf("ProcessPacket() error = %v", err)
	}
	if conn.last(t).MessageType() != ACK {
		t.Errorf("MessageType() = %s, want ack", conn.last(t).MessageType())
	}
}
