package entity

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// Commander is the outbound command surface devices and rooms use to reach
// the bridge. The connection supervisor implements it; entities hold this
// back-reference only for issuing commands, never for mutating registries.
type Commander interface {
	// SwitchDevice sends a switch-device command for one device.
	SwitchDevice(ctx context.Context, deviceID int, payload map[string]any) error

	// SlideDevice sends a slide-device command for one device.
	SlideDevice(ctx context.Context, deviceID int, payload map[string]any) error

	// SendMessage sends an arbitrary counted message to the bridge.
	SendMessage(ctx context.Context, t protocol.MessageType, payload map[string]any) error
}

// Device is an individually addressable endpoint known to the bridge. The
// concrete variant decides how state fragments are interpreted and which
// commands exist.
type Device interface {
	// DeviceID returns the bridge-assigned numeric id.
	DeviceID() int

	// Name returns the user-assigned name.
	Name() string

	// State returns the device's observable state cell.
	State() *Cell[DeviceState]

	// CompID returns the owning component id, when the variant has one.
	CompID() (int, bool)

	// HandleState applies one inbound state fragment. Called only from the
	// supervisor's pump.
	HandleState(payload map[string]any)
}

// BridgeDevice is the base embedded by every device variant, and the
// fallback variant for unrecognized device types: identity plus raw state
// passthrough.
type BridgeDevice struct {
	registry  *Registry
	commander Commander
	deviceID  int
	name      string
	state     *Cell[DeviceState]
}

// NewBridgeDevice creates the generic fallback device.
func NewBridgeDevice(reg *Registry, cmd Commander, deviceID int, name string) *BridgeDevice {
	return &BridgeDevice{
		registry:  reg,
		commander: cmd,
		deviceID:  deviceID,
		name:      name,
		state:     NewCell[DeviceState](),
	}
}

// DeviceID returns the bridge-assigned numeric id.
func (d *BridgeDevice) DeviceID() int { return d.deviceID }

// Name returns the user-assigned name.
func (d *BridgeDevice) Name() string { return d.name }

// State returns the device's observable state cell.
func (d *BridgeDevice) State() *Cell[DeviceState] { return d.state }

// CompID returns false for devices without a component link.
func (d *BridgeDevice) CompID() (int, bool) { return 0, false }

// HandleState republishes the raw fragment unchanged.
func (d *BridgeDevice) HandleState(payload map[string]any) {
	d.state.Publish(GenericState{Raw: payload})
}

// logIgnored records a fragment a variant chose not to process.
func (d *BridgeDevice) logIgnored(reason string) {
	logging.Debug("Ignoring device payload",
		zap.Int("device_id", d.deviceID),
		zap.String("name", d.name),
		zap.String("reason", reason),
	)
}
