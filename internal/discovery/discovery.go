// Package discovery advertises the HTTP API on the local network over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/oshokin/site-environment/internal/logger"
)

const (
	// ServiceType is the DNS-SD service type of the simulator.
	ServiceType = "_site-environment._tcp"
	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."
)

// ErrInvalidPort is returned when the advertised port is out of range.
var ErrInvalidPort = errors.New("invalid advertised port")

// Shutdowner stops an active registration.
type Shutdowner interface {
	Shutdown()
}

// RegisterFunc publishes a service. zeroconf.Register matches it once wrapped.
type RegisterFunc func(instance, service, domain string, port int, text []string) (Shutdowner, error)

// Registration describes what to announce.
type Registration struct {
	// Instance is the human-readable instance name.
	Instance string
	// Domain defaults to DefaultDomain.
	Domain string
	// Port is the HTTP API port.
	Port int
	// Version is published in the TXT record.
	Version string
	// DocumentPath is the HTTP path serving the document.
	DocumentPath string
}

// Text builds the TXT record entries.
func (r Registration) Text() []string {
	text := []string{"path=" + r.DocumentPath}

	if r.Version != "" {
		text = append(text, "version="+r.Version)
	}

	return text
}

// Advertiser owns at most one active mDNS registration.
type Advertiser struct {
	register RegisterFunc

	mu     sync.Mutex
	server Shutdowner
}

// NewAdvertiser creates an Advertiser. A nil register uses zeroconf on every interface.
func NewAdvertiser(register RegisterFunc) *Advertiser {
	if register == nil {
		register = registerZeroconf
	}

	return &Advertiser{register: register}
}

// Start announces reg. Calling Start while active is a no-op.
func (a *Advertiser) Start(ctx context.Context, reg Registration) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return nil
	}

	if reg.Port <= 0 || reg.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, reg.Port)
	}

	if reg.Domain == "" {
		reg.Domain = DefaultDomain
	}

	server, err := a.register(reg.Instance, ServiceType, reg.Domain, reg.Port, reg.Text())
	if err != nil {
		return fmt.Errorf("register mDNS service: %w", err)
	}

	a.server = server

	logger.InfoKV(ctx, "Advertising over mDNS",
		"instance", reg.Instance, "service", ServiceType, "domain", reg.Domain, "port", reg.Port)

	return nil
}

// Stop withdraws the registration. It is idempotent.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}

	a.server.Shutdown()
	a.server = nil
}

// Active reports whether a registration is live.
func (a *Advertiser) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.server != nil
}

// PortOf extracts the numeric port from a listener address.
func PortOf(addr net.Addr) (int, error) {
	_, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0, fmt.Errorf("split listener address: %w", err)
	}

	n, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("parse port %q: %w", port, err)
	}

	return n, nil
}

func registerZeroconf(instance, service, domain string, port int, text []string) (Shutdowner, error) {
	return zeroconf.Register(instance, service, domain, port, text, nil)
}
