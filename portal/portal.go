// Package portal serves the access point's control pages: a status page
// with the lease table, device on/off routes and the metrics endpoint.
package portal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/softap/softap/dhcp4"
)

// Device is the switchable thing the portal controls. The original board
// toggles a GPIO pin; anything with on/off semantics fits.
type Device interface {
	On() error
	Off() error
	State() bool
}

// MemoryDevice is a Device holding only an in memory flag. Used when no
// real hardware is attached.
type MemoryDevice struct {
	mutex sync.Mutex
	on    bool
}

func (d *MemoryDevice) On() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.on = true
	return nil
}

func (d *MemoryDevice) Off() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.on = false
	return nil
}

func (d *MemoryDevice) State() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.on
}

// LeaseSource provides the lease table snapshot shown on the status page.
type LeaseSource interface {
	Leases() []dhcp4.Lease
}

// Portal routes http requests for the control pages.
type Portal struct {
	leases LeaseSource
	device Device
}

func New(leases LeaseSource, device Device) *Portal {
	if device == nil {
		device = &MemoryDevice{}
	}
	return &Portal{leases: leases, device: device}
}

// Handler uses a multiplexing router to route http requests.
func (p *Portal) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", p.home).Methods("GET")
	r.HandleFunc("/index", p.home).Methods("GET")
	r.HandleFunc("/on", p.deviceOn).Methods("GET")
	r.HandleFunc("/off", p.deviceOff).Methods("GET")
	r.HandleFunc("/api/leases", p.apiLeases).Methods("GET")
	r.Path("/metrics").Handler(promhttp.Handler())
	r.NotFoundHandler = http.HandlerFunc(p.notFound)
	return r
}

func (p *Portal) home(w http.ResponseWriter, r *http.Request) {
	state := "off"
	if p.device.State() {
		state = "on"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><h1>Access Point</h1><p>Device is %s</p><table><tr><th>MAC</th><th>IP</th><th>Remaining</th></tr>", state)
	for _, lease := range p.leases.Leases() {
		fmt.Fprintf(w, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", lease.MAC, lease.IP, lease.Remaining)
	}
	fmt.Fprint(w, "</table></body></html>")
}

func (p *Portal) deviceOn(w http.ResponseWriter, r *http.Request) {
	if err := p.device.On(); err != nil {
		log.Errorf("portal: device on failed error=%s", err)
		http.Error(w, "device error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Device On</h1></body></html>")
}

func (p *Portal) deviceOff(w http.ResponseWriter, r *http.Request) {
	if err := p.device.Off(); err != nil {
		log.Errorf("portal: device off failed error=%s", err)
		http.Error(w, "device error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h1>Device Off</h1></body></html>")
}

func (p *Portal) apiLeases(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	leases := p.leases.Leases()
	type entry struct {
		MAC       string `json:"mac"`
		IP        string `json:"ip"`
		Remaining string `json:"remaining"`
	}
	out := make([]entry, 0, len(leases))
	for _, lease := range leases {
		out = append(out, entry{MAC: lease.MAC.String(), IP: lease.IP.String(), Remaining: lease.Remaining.String()})
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Errorf("portal: encode leases error=%s", err)
	}
}

func (p *Portal) notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "<html><body><h1>404 - Page not found</h1></body></html>")
}
