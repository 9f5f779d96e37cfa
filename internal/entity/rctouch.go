package entity

import "github.com/muurk/xcbridge/internal/protocol"

// RcTouch is a room controller with built-in temperature and humidity
// sensors. Readings arrive in the generic info array using the shared
// temperature/humidity codes.
type RcTouch struct {
	BridgeDevice
	compID int
}

// NewRcTouch creates an RC Touch sensor device.
func NewRcTouch(reg *Registry, cmd Commander, deviceID int, name string, compID int) *RcTouch {
	return &RcTouch{
		BridgeDevice: *NewBridgeDevice(reg, cmd, deviceID, name),
		compID:       compID,
	}
}

// CompID returns the linked component id.
func (r *RcTouch) CompID() (int, bool) { return r.compID, true }

// HandleState parses the fragment's info array. A state is broadcast only
// when a single fragment carries both temperature and humidity; partial
// fragments produce nothing.
func (r *RcTouch) HandleState(payload map[string]any) {
	temperature, humidity := protocol.InfoValues(payload)
	if temperature == nil || humidity == nil {
		r.logIgnored("fragment missing temperature or humidity")
		return
	}

	r.state.Publish(RcTouchState{
		Temperature: *temperature,
		Humidity:    *humidity,
		Raw:         payload,
	})
}

// Heater is a heating actuator. It carries identity and raw state only; no
// derived fields.
type Heater struct {
	BridgeDevice
	compID int
}

// NewHeater creates a heating actuator device.
func NewHeater(reg *Registry, cmd Commander, deviceID int, name string, compID int) *Heater {
	return &Heater{
		BridgeDevice: *NewBridgeDevice(reg, cmd, deviceID, name),
		compID:       compID,
	}
}

// CompID returns the linked component id.
func (h *Heater) CompID() (int, bool) { return h.compID, true }
