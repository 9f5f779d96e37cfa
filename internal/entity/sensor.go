package entity

import "github.com/muurk/xcbridge/internal/protocol"

// DoorWindowSensor is a binary contact sensor. Door and window sensors are
// distinguished only at construction (by the component descriptor's mode
// field); their behavior is identical.
type DoorWindowSensor struct {
	BridgeDevice
	compID     int
	descriptor map[string]any
	isClosed   *bool
	isOpen     *bool
}

func newDoorWindowSensor(reg *Registry, cmd Commander, deviceID int, name string, compID int, descriptor map[string]any) DoorWindowSensor {
	return DoorWindowSensor{
		BridgeDevice: *NewBridgeDevice(reg, cmd, deviceID, name),
		compID:       compID,
		descriptor:   descriptor,
	}
}

// CompID returns the linked component id.
func (d *DoorWindowSensor) CompID() (int, bool) { return d.compID, true }

// IsClosed reports the last known contact state, nil when unknown.
func (d *DoorWindowSensor) IsClosed() *bool { return d.isClosed }

// IsOpen is the inverse of IsClosed, nil when unknown.
func (d *DoorWindowSensor) IsOpen() *bool { return d.isOpen }

// HandleState applies a fragment. curstate 1 means closed; fragments without
// curstate leave the contact state untouched but still broadcast it.
func (d *DoorWindowSensor) HandleState(payload map[string]any) {
	if cur, ok := protocol.IntField(payload, "curstate"); ok {
		closed := cur == 1
		open := !closed
		d.isClosed = &closed
		d.isOpen = &open
	}
	d.state.Publish(DoorWindowState{IsClosed: d.isClosed})
}

// DoorSensor is a contact sensor mounted on a door.
type DoorSensor struct {
	DoorWindowSensor
}

// NewDoorSensor creates a door contact sensor.
func NewDoorSensor(reg *Registry, cmd Commander, deviceID int, name string, compID int, descriptor map[string]any) *DoorSensor {
	return &DoorSensor{newDoorWindowSensor(reg, cmd, deviceID, name, compID, descriptor)}
}

// WindowSensor is a contact sensor mounted on a window.
type WindowSensor struct {
	DoorWindowSensor
}

// NewWindowSensor creates a window contact sensor.
func NewWindowSensor(reg *Registry, cmd Commander, deviceID int, name string, compID int, descriptor map[string]any) *WindowSensor {
	return &WindowSensor{newDoorWindowSensor(reg, cmd, deviceID, name, compID, descriptor)}
}
