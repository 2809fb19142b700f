// Package machineid resolves a stable identifier for the current host and
// caches it in a sidecar file so later runs report the same value.
package machineid

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/google/uuid"
)

// UUIDPrefix marks identifiers that were generated rather than discovered.
const UUIDPrefix = "UUID-"

// Resolver finds the machine identifier. The zero value is not usable; call New.
type Resolver struct {
	path string
	log  *slog.Logger

	// Sources, replaceable in tests.
	interfaces func() ([]net.Interface, error)
	hostname   func() (string, error)
	newUUID    func() string

	resolved string
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithInterfaces replaces the network interface source.
func WithInterfaces(fn func() ([]net.Interface, error)) Option {
	return func(r *Resolver) { r.interfaces = fn }
}

// WithHostname replaces the hostname source.
func WithHostname(fn func() (string, error)) Option {
	return func(r *Resolver) { r.hostname = fn }
}

// WithUUID replaces the random identifier source.
func WithUUID(fn func() string) Option {
	return func(r *Resolver) { r.newUUID = fn }
}

// New returns a Resolver that persists its result at path.
func New(path string, log *slog.Logger, opts ...Option) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	r := &Resolver{
		path:       path,
		log:        log,
		interfaces: net.Interfaces,
		hostname:   os.Hostname,
		newUUID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path is the sidecar file location.
func (r *Resolver) Path() string { return r.path }

// Resolve returns the machine identifier, trying in order: the sidecar file,
// the MAC address of the first usable network interface, the hostname and a
// random UUID. Whatever is discovered is written back to the sidecar. Resolve
// never fails; a sidecar that cannot be written only costs the cache.
func (r *Resolver) Resolve() string {
	if r.resolved != "" {
		return r.resolved
	}

	if id := r.readSidecar(); id != "" {
		r.resolved = id
		return id
	}

	id, source := r.discover()
	r.log.Debug("machine id discovered", "source", source, "id", id)
	if err := r.writeSidecar(id); err != nil {
		r.log.Warn("machine id not cached", "path", r.path, "err", err)
	}
	r.resolved = id
	return id
}

func (r *Resolver) discover() (id, source string) {
	if mac, err := r.firstMAC(); err != nil {
		r.log.Debug("network interfaces unavailable", "err", err)
	} else if mac != "" {
		return mac, "mac"
	}

	if host, err := r.hostname(); err != nil {
		r.log.Debug("hostname unavailable", "err", err)
	} else if host = strings.TrimSpace(host); host != "" {
		return host, "hostname"
	}

	return UUIDPrefix + r.newUUID(), "uuid"
}

func (r *Resolver) readSidecar() string {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Debug("machine id sidecar unreadable", "path", r.path, "err", err)
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (r *Resolver) writeSidecar(id string) error {
	if err := os.WriteFile(r.path, []byte(id), 0o600); err != nil {
		return fmt.Errorf("writing machine id: %w", err)
	}
	return nil
}

// firstMAC returns the formatted hardware address of the first interface that
// is up, not loopback, not an alias and has a hardware address.
func (r *Resolver) firstMAC() (string, error) {
	ifaces, err := r.interfaces()
	if err != nil {
		return "", err
	}
	for _, ni := range ifaces {
		if ni.Flags&net.FlagUp == 0 || ni.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isVirtual(ni) || len(ni.HardwareAddr) == 0 {
			continue
		}
		return FormatMAC(ni.HardwareAddr), nil
	}
	return "", nil
}

// isVirtual reports alias sub-interfaces such as "eth0:1".
func isVirtual(ni net.Interface) bool {
	return strings.Contains(ni.Name, ":")
}

// FormatMAC renders a hardware address as uppercase hex octets joined by '-'.
func FormatMAC(hw net.HardwareAddr) string {
	parts := make([]string, len(hw))
	for i, b := range hw {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, "-")
}
