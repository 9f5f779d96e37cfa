// Package config provides user configuration management for the xcbridge project.
//
// This package manages a YAML-based configuration file that stores user-defined
// metadata for known xComfort bridges, including nicknames, last known addresses,
// and application preferences. The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/xcbridge/config.yaml or $HOME/.config/xcbridge/config.yaml
//   - macOS: $HOME/.config/xcbridge/config.yaml
//   - Windows: %LOCALAPPDATA%\xcbridge\config.yaml
//
// # Security
//
// IMPORTANT: This package NEVER stores bridge authentication keys. These are
// always prompted from the user when needed.
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Record a discovered bridge
//	registry.UpdateBridgeLastSeen("bridge-4711", "192.168.1.50")
//	registry.SetBridgeNickname("bridge-4711", "Main house")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
