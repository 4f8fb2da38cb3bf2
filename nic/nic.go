// Package nic brings up the access point network interface and opens the
// datagram sockets the servers listen on. The rest of the daemon depends
// only on net.PacketConn; everything platform specific stays here.
package nic

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Setup assigns the static address in CIDR notation to the interface and
// brings the link up. Assigning an address the interface already carries is
// not an error.
func Setup(ifname string, cidr string) error {
	link, err := netlink.LinkByName(ifname)
	if err != nil {
		return fmt.Errorf("nic %s: %w", ifname, err)
	}
	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return fmt.Errorf("nic %s: invalid address %s: %w", ifname, cidr, err)
	}

	existing, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return fmt.Errorf("nic %s: %w", ifname, err)
	}
	found := false
	for i := range existing {
		if existing[i].Equal(*addr) {
			found = true
			break
		}
	}
	if !found {
		if err := netlink.AddrAdd(link, addr); err != nil {
			return fmt.Errorf("nic %s: add addr %s: %w", ifname, cidr, err)
		}
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("nic %s: link up: %w", ifname, err)
	}
	return nil
}

// ListenBroadcastUDP4 binds a UDP socket on the given port accepting
// broadcast datagrams and able to send to the broadcast address. DHCP
// clients have no address yet, so both directions go over broadcast.
func ListenBroadcastUDP4(port int) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				if serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); serr != nil {
					return
				}
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}
	return lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
}

// ListenUDP4 binds a plain UDP socket on addr:port, used by the DNS
// responder.
func ListenUDP4(ip net.IP, port int) (net.PacketConn, error) {
	return net.ListenUDP("udp4", &net.UDPAddr{IP: ip, Port: port})
}
