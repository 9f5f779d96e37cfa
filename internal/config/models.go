package config

import "time"

// Registry represents the entire user configuration file.
// This stores user-defined metadata for known bridges and application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Bridges     map[string]*Bridge `yaml:"bridges,omitempty"` // Keyed by the bridge's device id
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Bridge represents user-defined metadata for a single xComfort bridge.
// This is keyed by the bridge's device id in the Registry.
type Bridge struct {
	Nickname        string    `yaml:"nickname,omitempty"`         // User-friendly name
	LastIP          string    `yaml:"last_ip,omitempty"`          // Last known IP address
	LastSeen        time.Time `yaml:"last_seen,omitempty"`        // Last discovery/connection time
	FirmwareVersion string    `yaml:"firmware_version,omitempty"` // Last reported firmware version
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool `yaml:"auto_discover"`    // Enable automatic mDNS discovery on startup
	DiscoverTimeout int  `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Bridges: make(map[string]*Bridge),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// GetBridge retrieves bridge metadata by device id.
// Returns nil if the bridge doesn't exist in the registry.
func (r *Registry) GetBridge(deviceID string) *Bridge {
	return r.Bridges[deviceID]
}

// EnsureBridge ensures a bridge entry exists in the registry.
// If the bridge doesn't exist, creates a new entry with default values.
// Returns the bridge entry (existing or newly created).
func (r *Registry) EnsureBridge(deviceID string) *Bridge {
	if r.Bridges == nil {
		r.Bridges = make(map[string]*Bridge)
	}

	if bridge, exists := r.Bridges[deviceID]; exists {
		return bridge
	}

	bridge := &Bridge{}
	r.Bridges[deviceID] = bridge
	return bridge
}

// UpdateBridgeLastSeen updates the last seen timestamp and IP for a bridge.
func (r *Registry) UpdateBridgeLastSeen(deviceID, ip string) {
	bridge := r.EnsureBridge(deviceID)
	bridge.LastSeen = time.Now()
	bridge.LastIP = ip
}

// SetBridgeNickname sets a user-friendly nickname for a bridge.
func (r *Registry) SetBridgeNickname(deviceID, nickname string) {
	bridge := r.EnsureBridge(deviceID)
	bridge.Nickname = nickname
}

// SetBridgeFirmware records the firmware version a bridge last reported.
func (r *Registry) SetBridgeFirmware(deviceID, version string) {
	bridge := r.EnsureBridge(deviceID)
	bridge.FirmwareVersion = version
}
