// softapd is the soft access point daemon: DHCP lease allocation, a
// captive catch-all DNS responder and the HTTP control portal, all bound
// to one interface the daemon brings up itself.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/softap/softap/config"
	"github.com/softap/softap/dhcp4"
	"github.com/softap/softap/dns"
	"github.com/softap/softap/metrics"
	"github.com/softap/softap/nic"
	"github.com/softap/softap/portal"
)

var (
	configFile = flag.String("c", "/etc/softap.yaml", "configuration file")
	ifname     = flag.String("i", "", "nic interface (overrides config)")
	loglevel   = flag.String("d", "", "log level: error, info or debug (overrides config)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("cannot load config: %s\n", err)
		os.Exit(1)
	}
	if *ifname != "" {
		cfg.Interface = *ifname
	}
	if *loglevel != "" {
		cfg.LogLevel = *loglevel
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	serverIP, mask, err := cfg.ServerAddr()
	if err != nil {
		log.Fatalf("softapd: %s", err)
	}

	if err := nic.Setup(cfg.Interface, cfg.ServerCIDR); err != nil {
		// Not fatal: the interface may be managed externally.
		log.Warnf("softapd: interface setup failed: %s", err)
	}

	metrics.Register()

	dhcpConn, err := nic.ListenBroadcastUDP4(dhcp4.ServerPort)
	if err != nil {
		log.Fatalf("softapd: dhcp listen: %s", err)
	}
	dhcpd, err := dhcp4.New(dhcpConn, dhcp4.Config{
		ServerIP:      serverIP,
		SubnetMask:    mask,
		Capacity:      cfg.LeaseCapacity,
		LeaseDuration: cfg.LeaseDuration(),
	})
	if err != nil {
		log.Fatalf("softapd: dhcp: %s", err)
	}
	go func() {
		if err := dhcpd.Serve(); err != nil {
			log.Errorf("softapd: dhcp server stopped: %s", err)
		}
	}()
	log.WithFields(log.Fields{"ip": serverIP, "port": dhcp4.ServerPort}).Info("softapd: dhcp server started")

	dnsConn, err := nic.ListenUDP4(serverIP, dns.Port)
	if err != nil {
		log.Fatalf("softapd: dns listen: %s", err)
	}
	dnsd, err := dns.New(dnsConn, serverIP)
	if err != nil {
		log.Fatalf("softapd: dns: %s", err)
	}
	go func() {
		if err := dnsd.Serve(); err != nil {
			log.Errorf("softapd: dns server stopped: %s", err)
		}
	}()
	log.WithFields(log.Fields{"ip": serverIP, "port": dns.Port}).Info("softapd: dns server started")

	web := portal.New(dhcpd, nil)
	go func() {
		if err := http.ListenAndServe(cfg.PortalListen, web.Handler()); err != nil {
			log.Errorf("softapd: portal stopped: %s", err)
		}
	}()
	log.WithFields(log.Fields{"listen": cfg.PortalListen}).Info("softapd: portal started")

	// terminate cleanly on ctrl-C or sigterm
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
	dhcpd.Close()
	dnsd.Close()
}
