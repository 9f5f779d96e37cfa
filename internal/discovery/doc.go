// Package discovery provides mDNS-based discovery of xComfort Bridges.
//
// The bridge advertises itself as a plain "_http._tcp" service on the local
// network. That service type is shared with printers, NAS boxes, and anything
// else with a web page, so this package filters by hostname: bridges announce
// as "xComfort-Bridge-<serial>.local".
//
// # Usage Example
//
//	// Discover bridges with a 10-second timeout
//	bridges, err := discovery.ScanForBridges(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, bridge := range bridges {
//	    fmt.Printf("Found: %s at %s (Serial: %s)\n",
//	        bridge.Hostname, bridge.IP, bridge.Serial)
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
