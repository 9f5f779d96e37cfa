package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/xcbridge/internal/bridge"
	"github.com/muurk/xcbridge/internal/config"
	"github.com/muurk/xcbridge/internal/discovery"
	"github.com/muurk/xcbridge/internal/entity"
	"github.com/muurk/xcbridge/internal/tui"
)

// authKeyEnv is consulted before prompting for the authentication key.
const authKeyEnv = "XCBRIDGE_AUTH_KEY"

// connectTimeout bounds the handshake plus initial datapoint load.
const connectTimeout = 60 * time.Second

// Command flags
var (
	bridgeAddr  string
	authKey     string
	scanTimeout int
	nickname    string
)

func init() {
	// Common flags for bridge commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&bridgeAddr, "bridge", "", "Bridge address as host[:port] (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&authKey, "auth-key", "", "Authentication key (prompted if not given; see also "+authKeyEnv+")")

	// Add subcommands directly to root
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(dimCmd)
}

// scanCmd discovers bridges on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for xComfort Bridges on the network",
	Long: `Scan for xComfort Bridges using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts and displays every bridge found
with its IP address, serial, and metadata. Known bridges in the local
registry get their last-seen address refreshed.`,
	Example: `  # Scan for 10 seconds (default)
  xcbridge scan

  # Quick 3-second scan
  xcbridge scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for xComfort Bridges (timeout: %ds)...\n\n", scanTimeout)

	bridges, err := discovery.ScanForBridges(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(bridges) == 0 {
		fmt.Println("No bridges found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the bridge is powered on and connected to your network")
		fmt.Println("  - Check that your computer is on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --bridge flag to specify the address manually")
		return nil
	}

	fmt.Printf("Found %d bridge(s):\n\n", len(bridges))

	for i, b := range bridges {
		fmt.Printf("%d. %s\n", i+1, b.Hostname)
		fmt.Printf("   Serial: %s\n", b.Serial)
		fmt.Printf("   IP:     %s:%d\n", b.IP, b.Port)
		if len(b.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", b.Metadata)
		}
		fmt.Println()
	}

	rememberScanResults(bridges)

	fmt.Println("Use 'xcbridge pair --bridge <ip>' to pair with a bridge")
	fmt.Println("Use 'xcbridge watch --bridge <ip>' for the live console")

	return nil
}

// rememberScanResults refreshes last-seen addresses for known bridges.
// Scan output is useful without the registry, so failures only warn.
func rememberScanResults(bridges []*discovery.Bridge) {
	registry, err := config.LoadRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load bridge registry: %v\n", err)
		return
	}

	updated := false
	for _, b := range bridges {
		if registry.GetBridge(b.Serial) != nil {
			registry.UpdateBridgeLastSeen(b.Serial, b.Address())
			updated = true
		}
	}

	if updated {
		if err := registry.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not save bridge registry: %v\n", err)
		}
	}
}

// pairCmd verifies the authentication key and records the bridge
var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair with a bridge and record it locally",
	Long: `Connect to a bridge, verify the authentication key, and record the
bridge's identity in the local registry.

The authentication key is printed on the underside of the bridge. It is
used only to establish the connection and is never written to disk; every
later command prompts for it again (or reads it from the ` + authKeyEnv + `
environment variable).`,
	Example: `  # Pair with a specific bridge
  xcbridge pair --bridge 192.168.1.40

  # Pair via auto-discovery and give the bridge a nickname
  xcbridge pair --nickname "Main house"`,
	RunE: runPair,
}

func init() {
	pairCmd.Flags().StringVar(&nickname, "nickname", "", "Nickname to record for this bridge")
}

func runPair(cmd *cobra.Command, args []string) error {
	address, err := resolveBridgeAddress()
	if err != nil {
		return err
	}

	key, err := resolveAuthKey()
	if err != nil {
		return err
	}

	fmt.Printf("Connecting to bridge at %s...\n", address)

	b, stop, err := connectBridge(address, key)
	if err != nil {
		return err
	}
	defer stop()

	fmt.Println("✓ Authentication key verified")
	fmt.Println()
	fmt.Printf("  Bridge:   %s\n", b.BridgeName())
	fmt.Printf("  ID:       %s\n", b.BridgeID())
	fmt.Printf("  Firmware: %s\n", b.FirmwareVersion())
	fmt.Printf("  Devices:  %d\n", len(b.Devices()))
	fmt.Printf("  Rooms:    %d\n", len(b.Rooms()))

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load bridge registry: %w", err)
	}

	id := b.BridgeID()
	if id == "" {
		id = address
	}
	registry.EnsureBridge(id)
	registry.UpdateBridgeLastSeen(id, address)
	registry.SetBridgeFirmware(id, b.FirmwareVersion())
	if nickname != "" {
		registry.SetBridgeNickname(id, nickname)
	}

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save bridge registry: %w", err)
	}

	path, _ := config.GetConfigPath()
	fmt.Printf("\n✓ Bridge recorded in %s (the authentication key is not stored)\n", path)

	return nil
}

// watchCmd launches the live console
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Launch the live device console",
	Long: `Launch an interactive terminal console showing every device and heating
room the bridge knows about, updated live as the bridge pushes state.

The console can also drive devices: toggle lights, nudge dimmers, and move
shades directly from the row list.`,
	Example: `  # Launch the console for a specific bridge
  xcbridge watch --bridge 192.168.1.40
  # Or simply (watch is the default command):
  xcbridge --bridge 192.168.1.40`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	address, err := resolveBridgeAddress()
	if err != nil {
		return err
	}

	key, err := resolveAuthKey()
	if err != nil {
		return err
	}

	b := bridge.New(address, key)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	model := tui.NewWatchModel(b, address)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}

	cancel()
	b.Close()
	<-errCh

	return nil
}

// switchCmd switches a single device on or off
var switchCmd = &cobra.Command{
	Use:   "switch <device-id> <on|off>",
	Short: "Switch a device on or off",
	Long: `Connect to the bridge and switch a single device.

The device id is the bridge-assigned numeric id shown by the live console.`,
	Example: `  # Turn device 23 on
  xcbridge switch 23 on --bridge 192.168.1.40

  # Turn it off again
  xcbridge switch 23 off --bridge 192.168.1.40`,
	Args: cobra.ExactArgs(2),
	RunE: runSwitch,
}

func runSwitch(cmd *cobra.Command, args []string) error {
	deviceID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid device id: %w", err)
	}

	var on bool
	switch strings.ToLower(args[1]) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("invalid switch state %q (use on/off)", args[1])
	}

	return withLight(deviceID, func(ctx context.Context, light *entity.Light) error {
		if err := light.Switch(ctx, on); err != nil {
			return fmt.Errorf("switch command failed: %w", err)
		}
		fmt.Printf("✓ Device %d (%s) switched %s\n", deviceID, light.Name(), args[1])
		return nil
	})
}

// dimCmd sets a dimmable light's brightness
var dimCmd = &cobra.Command{
	Use:   "dim <device-id> <value>",
	Short: "Set a dimmable light's brightness",
	Long: `Connect to the bridge and set a dimmable light's brightness.

Values range from 0 (off) to 99 (full brightness); out-of-range values are
clamped. The device must be a dimming actuator.`,
	Example: `  # Dim device 23 to half brightness
  xcbridge dim 23 50 --bridge 192.168.1.40`,
	Args: cobra.ExactArgs(2),
	RunE: runDim,
}

func runDim(cmd *cobra.Command, args []string) error {
	deviceID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid device id: %w", err)
	}

	value, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid brightness value: %w", err)
	}

	return withLight(deviceID, func(ctx context.Context, light *entity.Light) error {
		if !light.Dimmable() {
			return fmt.Errorf("device %d (%s) is not dimmable", deviceID, light.Name())
		}
		if err := light.Dim(ctx, value); err != nil {
			return fmt.Errorf("dim command failed: %w", err)
		}
		fmt.Printf("✓ Device %d (%s) dimmed to %d\n", deviceID, light.Name(), value)
		return nil
	})
}

// withLight connects, resolves the device as a light, runs fn, disconnects
func withLight(deviceID int, fn func(context.Context, *entity.Light) error) error {
	address, err := resolveBridgeAddress()
	if err != nil {
		return err
	}

	key, err := resolveAuthKey()
	if err != nil {
		return err
	}

	b, stop, err := connectBridge(address, key)
	if err != nil {
		return err
	}
	defer stop()

	device := b.Device(deviceID)
	if device == nil {
		return fmt.Errorf("bridge has no device with id %d", deviceID)
	}

	light, ok := device.(*entity.Light)
	if !ok {
		return fmt.Errorf("device %d (%s) is not a light", deviceID, device.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return fn(ctx, light)
}

// connectBridge starts the supervisor and waits for the initial load.
// The returned stop function tears the connection down.
func connectBridge(address, key string) (*bridge.Bridge, func(), error) {
	b := bridge.New(address, key)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	stop := func() {
		cancel()
		b.Close()
		<-errCh
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), connectTimeout)
	defer waitCancel()

	if err := b.WaitForInitialization(waitCtx); err != nil {
		stop()
		return nil, nil, fmt.Errorf("failed to connect to bridge at %s: %w", address, err)
	}

	return b, stop, nil
}

// resolveBridgeAddress returns the --bridge flag or falls back to discovery
func resolveBridgeAddress() (string, error) {
	if bridgeAddr != "" {
		if strings.Contains(bridgeAddr, ":") {
			return bridgeAddr, nil
		}
		return bridgeAddr + ":80", nil
	}

	fmt.Println("No bridge address specified, attempting auto-discovery...")
	bridges, err := discovery.ScanForBridges(5 * time.Second)
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	if len(bridges) == 0 {
		return "", fmt.Errorf("no bridges found. Use --bridge flag to specify the address manually")
	}

	if len(bridges) > 1 {
		fmt.Printf("Found %d bridges:\n", len(bridges))
		for i, b := range bridges {
			fmt.Printf("%d. %s (%s)\n", i+1, b.Serial, b.IP)
		}
		return "", fmt.Errorf("multiple bridges found. Use --bridge flag to specify which one")
	}

	b := bridges[0]
	fmt.Printf("Found bridge: %s (%s)\n\n", b.Serial, b.IP)
	return b.Address(), nil
}

// resolveAuthKey returns the key from flag or environment, or prompts for it
// without echo. The key is never persisted.
func resolveAuthKey() (string, error) {
	if authKey != "" {
		return authKey, nil
	}

	if key := os.Getenv(authKeyEnv); key != "" {
		return key, nil
	}

	fmt.Fprint(os.Stderr, "Authentication key: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read authentication key: %w", err)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return "", fmt.Errorf("authentication key must not be empty")
	}

	return key, nil
}
