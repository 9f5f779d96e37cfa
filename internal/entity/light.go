package entity

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// fullBrightness is the dimm value reported for non-dimmable lights and the
// default for dimmable lights with no known history.
const fullBrightness = 99

// Light is a switching or dimming actuator configured as a light (usage 0).
// Actuators configured as loads (usage 1) fall through to the generic
// variant instead.
type Light struct {
	BridgeDevice
	dimmable bool
}

// NewLight creates a light device.
func NewLight(reg *Registry, cmd Commander, deviceID int, name string, dimmable bool) *Light {
	return &Light{
		BridgeDevice: *NewBridgeDevice(reg, cmd, deviceID, name),
		dimmable:     dimmable,
	}
}

// Dimmable reports whether the light accepts dimm commands.
func (l *Light) Dimmable() bool { return l.dimmable }

// HandleState applies a state fragment. Fragments without a switch field
// belong to some other concern and are ignored without touching state.
func (l *Light) HandleState(payload map[string]any) {
	on, ok := protocol.BoolField(payload, "switch")
	if !ok {
		l.logIgnored("no switch field")
		return
	}

	l.state.Publish(LightState{
		Switch:    on,
		DimmValue: l.interpretDimmValue(on, payload),
		Raw:       payload,
	})
}

// interpretDimmValue resolves the effective dimm value for a fragment.
// Non-dimmable lights always report full brightness. A dimmable light
// turning off keeps its last known value so turning back on restores it;
// turning on takes the fragment's dimmvalue when supplied.
func (l *Light) interpretDimmValue(on bool, payload map[string]any) int {
	if !l.dimmable {
		return fullBrightness
	}

	if !on {
		if prev, ok := l.state.Value(); ok {
			if prevLight, ok := prev.(LightState); ok {
				return prevLight.DimmValue
			}
		}
		return fullBrightness
	}

	if v, ok := protocol.IntField(payload, "dimmvalue"); ok {
		return v
	}
	return fullBrightness
}

// Switch turns the light on or off.
func (l *Light) Switch(ctx context.Context, on bool) error {
	logging.Debug("Switching light",
		zap.Int("device_id", l.deviceID),
		zap.Bool("on", on),
	)
	return l.commander.SwitchDevice(ctx, l.deviceID, map[string]any{"switch": on})
}

// Dim sets the dimm value, clamped to [0, 99].
func (l *Light) Dim(ctx context.Context, value int) error {
	if value < 0 {
		value = 0
	}
	if value > fullBrightness {
		value = fullBrightness
	}
	logging.Debug("Dimming light",
		zap.Int("device_id", l.deviceID),
		zap.Int("dimmvalue", value),
	)
	return l.commander.SlideDevice(ctx, l.deviceID, map[string]any{"dimmvalue": value})
}
