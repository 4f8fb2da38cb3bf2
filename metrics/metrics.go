// Package metrics holds the prometheus collectors for the daemon. The
// portal exposes them on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var DHCPMessages = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softap_dhcp_messages_total",
		Help: "Inbound DHCP messages by message type",
	},
	[]string{"type"},
)

var DHCPReplies = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softap_dhcp_replies_total",
		Help: "DHCP replies sent by message type",
	},
	[]string{"type"},
)

var DHCPDrops = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "softap_dhcp_drops_total",
		Help: "DHCP datagrams dropped without a reply, by reason",
	},
	[]string{"reason"},
)

var DNSQueries = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "softap_dns_queries_total",
		Help: "DNS queries received",
	},
)

var DNSReplies = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "softap_dns_replies_total",
		Help: "DNS replies sent",
	},
)

// Register registers every collector with the default registry. Call once
// at startup.
func Register() {
	prometheus.MustRegister(DHCPMessages)
	prometheus.MustRegister(DHCPReplies)
	prometheus.MustRegister(DHCPDrops)
	prometheus.MustRegister(DNSQueries)
	prometheus.MustRegister(DNSReplies)
}
