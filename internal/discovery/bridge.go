package discovery

import (
	"fmt"
	"time"
)

// Bridge represents an xComfort Bridge found on the local network.
type Bridge struct {
	// Serial is the bridge serial taken from the hostname
	// (e.g., "00123456" from "xComfort-Bridge-00123456.local")
	Serial string

	// Hostname is the mDNS hostname as advertised
	Hostname string

	// IP is the address to connect to (IPv4 preferred)
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the bridge was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the bridge.
func (b *Bridge) String() string {
	return fmt.Sprintf("xComfort Bridge %s (%s) at %s:%d", b.Serial, b.Hostname, b.IP, b.Port)
}

// Address returns the host:port to dial. The websocket endpoint lives on the
// same port the bridge advertises over mDNS.
func (b *Bridge) Address() string {
	return fmt.Sprintf("%s:%d", b.IP, b.Port)
}

// GetMetadata retrieves a TXT metadata value by key, or returns empty string
// if not found.
func (b *Bridge) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
