package discovery

import (
	"testing"
	"time"
)

func TestBridge_String(t *testing.T) {
	bridge := &Bridge{
		Serial:   "00123456",
		Hostname: "xComfort-Bridge-00123456.local",
		IP:       "192.168.1.40",
		Port:     80,
	}

	expected := "xComfort Bridge 00123456 (xComfort-Bridge-00123456.local) at 192.168.1.40:80"
	if bridge.String() != expected {
		t.Errorf("Bridge.String() = %v, want %v", bridge.String(), expected)
	}
}

func TestBridge_Address(t *testing.T) {
	tests := []struct {
		name     string
		bridge   *Bridge
		expected string
	}{
		{
			name: "standard HTTP port",
			bridge: &Bridge{
				IP:   "192.168.1.40",
				Port: 80,
			},
			expected: "192.168.1.40:80",
		},
		{
			name: "custom port",
			bridge: &Bridge{
				IP:   "10.0.0.5",
				Port: 8080,
			},
			expected: "10.0.0.5:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bridge.Address(); got != tt.expected {
				t.Errorf("Bridge.Address() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBridge_GetMetadata(t *testing.T) {
	bridge := &Bridge{
		Metadata: map[string]string{
			"path":    "/",
			"version": "3.0.0",
		},
	}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "existing key",
			key:      "path",
			expected: "/",
		},
		{
			name:     "another existing key",
			key:      "version",
			expected: "3.0.0",
		},
		{
			name:     "non-existent key",
			key:      "missing",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bridge.GetMetadata(tt.key); got != tt.expected {
				t.Errorf("Bridge.GetMetadata(%v) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}

func TestBridge_GetMetadata_NilMap(t *testing.T) {
	bridge := &Bridge{
		Metadata: nil,
	}

	if got := bridge.GetMetadata("anything"); got != "" {
		t.Errorf("Bridge.GetMetadata() with nil map = %v, want empty string", got)
	}
}

func TestBridge_DiscoveredAt(t *testing.T) {
	now := time.Now()
	bridge := &Bridge{
		Serial:       "00123456",
		DiscoveredAt: now,
	}

	if bridge.DiscoveredAt != now {
		t.Errorf("Bridge.DiscoveredAt = %v, want %v", bridge.DiscoveredAt, now)
	}
}
