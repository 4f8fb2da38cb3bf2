package dhcp4

import (
	"net"
	"testing"
	"time"
)

var (
	mac1 = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01}
	mac2 = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x02}
	mac3 = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x03}

	testServerIP = net.IP{192, 168, 4, 1}
	testXId      = []byte{0xde, 0xad, 0xbe, 0xef}
)

// testConn is an in memory Conn capturing every write.
type testConn struct {
	packets []DHCP4
	dsts    []net.Addr
}

func (c *testConn) ReadFrom(b []byte) (int, net.Addr, error) {
	return 0, nil, net.ErrClosed
}

func (c *testConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	p := make(DHCP4, len(b))
	copy(p, b)
	c.packets = append(c.packets, p)
	c.dsts = append(c.dsts, addr)
	return len(b), nil
}

func (c *testConn) Close() error { return nil }

func (c *testConn) last(t *testing.T) DHCP4 {
	t.Helper()
	if len(c.packets) == 0 {
		t.Fatal("no packet sent")
	}
	return c.packets[len(c.packets)-1]
}

// fakeClock is an adjustable millisecond tick source.
type fakeClock struct {
	now uint32
}

func (f *fakeClock) ticks() uint32 { return f.now }

func (f *fakeClock) advance(d time.Duration) {
	f.now += uint32(d / time.Millisecond)
}

func newTestHandler(t *testing.T, capacity int, clock *fakeClock) (*Handler, *testConn) {
	t.Helper()
	conn := &testConn{}
	config := Config{ServerIP: testServerIP, Capacity: capacity, LeaseDuration: time.Hour}
	if clock != nil {
		config.Ticks = clock.ticks
	}
	h, err := New(conn, config)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return h, conn
}

// newTestPacket builds a minimal client packet with the message type option
// and any extra options appended by opts.
func newTestPacket(t *testing.T, mt MessageType, mac net.HardwareAddr, opts func(w *OptionWriter)) DHCP4 {
	t.Helper()
	p := NewPacket(BootRequest)
	p.SetCHAddr(mac)
	p.SetXId(testXId)
	w := NewOptionWriter(p.Options())
	if err := w.WriteUint8(OptionMessageType, byte(mt)); err != nil {
		t.Fatalf("WriteUint8() error = %v", err)
	}
	if opts != nil {
		opts(w)
	}
	if err := w.WriteEnd(); err != nil {
		t.Fatalf("WriteEnd() error = %v", err)
	}
	return p
}

func requestedIP(t *testing.T, ip net.IP) func(w *OptionWriter) {
	t.Helper()
	return func(w *OptionWriter) {
		if err := w.WriteBytes(OptionRequestedIPAddress, ip.To4()); err != nil {
			t.Fatalf("WriteBytes() error = %v", err)
		}
	}
}
