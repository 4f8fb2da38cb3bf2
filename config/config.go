// Package config loads the daemon configuration from a YAML file.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the daemon configuration. Zero fields take defaults.
type Config struct {
	// Interface is the access point network interface.
	Interface string `yaml:"interface"`

	// ServerCIDR is the access point's own address and subnet, e.g.
	// "192.168.4.1/24". The server is also gateway and DNS for clients.
	ServerCIDR string `yaml:"server_cidr"`

	// LeaseCapacity is the lease table size; it bounds how many clients
	// can hold an address at once.
	LeaseCapacity int `yaml:"lease_capacity"`

	// LeaseSeconds is the lease duration handed to clients.
	LeaseSeconds int `yaml:"lease_seconds"`

	// PortalListen is the control portal listen address.
	PortalListen string `yaml:"portal_listen"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration matching the original board firmware:
// a /24 on 192.168.4.1 with 8 slots and 24 hour leases.
func Default() Config {
	return Config{
		Interface:     "wlan0",
		ServerCIDR:    "192.168.4.1/24",
		LeaseCapacity: 8,
		LeaseSeconds:  24 * 60 * 60,
		PortalListen:  ":8080",
		LogLevel:      "info",
	}
}

// Load reads path over the defaults. A missing file is not an error; the
// defaults are returned.
func Load(path string) (Config, error) {
	config := Default()
	source, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}
	if err := yaml.Unmarshal(source, &config); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// ServerAddr parses ServerCIDR into the server address and subnet mask.
func (c Config) ServerAddr() (net.IP, net.IPMask, error) {
	ip, ipNet, err := net.ParseCIDR(c.ServerCIDR)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid server_cidr %q: %w", c.ServerCIDR, err)
	}
	if ip.To4() == nil {
		return nil, nil, fmt.Errorf("server_cidr %q is not IPv4", c.ServerCIDR)
	}
	return ip.To4(), ipNet.Mask, nil
}

// LeaseDuration returns LeaseSeconds as a duration.
func (c Config) LeaseDuration() time.Duration {
	return time.Duration(c.LeaseSeconds) * time.Second
}
