package entity

import (
	"testing"

	"github.com/muurk/xcbridge/internal/protocol"
)

func TestRegistryDeviceFactory(t *testing.T) {
	tests := []struct {
		name    string
		comps   []map[string]any
		payload map[string]any
		verify  func(t *testing.T, d Device)
	}{
		{
			name: "switching actuator with usage 0 is a light",
			payload: map[string]any{
				"deviceId": float64(1), "name": "Lamp",
				"devType": float64(protocol.DevTypeActuatorSwitch),
				"usage":   float64(0), "dimmable": false, "switch": true,
			},
			verify: func(t *testing.T, d Device) {
				light, ok := d.(*Light)
				if !ok {
					t.Fatalf("device is %T, want *Light", d)
				}
				if light.Dimmable() {
					t.Error("Dimmable() = true for a switching actuator")
				}
			},
		},
		{
			name: "dimming actuator with usage 0 is a dimmable light",
			payload: map[string]any{
				"deviceId": float64(2), "name": "Dimmer",
				"devType": float64(protocol.DevTypeActuatorDimm),
				"usage":   float64(0), "dimmable": true, "switch": false,
			},
			verify: func(t *testing.T, d Device) {
				light, ok := d.(*Light)
				if !ok {
					t.Fatalf("device is %T, want *Light", d)
				}
				if !light.Dimmable() {
					t.Error("Dimmable() = false for a dimming actuator")
				}
			},
		},
		{
			name: "actuator with usage 1 is a plain load",
			payload: map[string]any{
				"deviceId": float64(3), "name": "Pump",
				"devType": float64(protocol.DevTypeActuatorSwitch),
				"usage":   float64(1),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*Light); ok {
					t.Error("a load was classified as a light")
				}
			},
		},
		{
			name: "shading actuator is a shade",
			payload: map[string]any{
				"deviceId": float64(4), "name": "Blind",
				"devType": float64(protocol.DevTypeShadingActuator),
				"compId":  float64(9),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*Shade); !ok {
					t.Fatalf("device is %T, want *Shade", d)
				}
			},
		},
		{
			name: "heating actuator is a heater",
			payload: map[string]any{
				"deviceId": float64(5), "name": "Radiator",
				"devType": float64(protocol.DevTypeHeatingActuator),
				"compId":  float64(9),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*Heater); !ok {
					t.Fatalf("device is %T, want *Heater", d)
				}
			},
		},
		{
			name: "rc touch",
			payload: map[string]any{
				"deviceId": float64(6), "name": "Controller",
				"devType": float64(protocol.DevTypeRcTouch),
				"compId":  float64(9),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*RcTouch); !ok {
					t.Fatalf("device is %T, want *RcTouch", d)
				}
			},
		},
		{
			name: "switch on door/window comp with mode 1310 is a door sensor",
			comps: []map[string]any{{
				"compId":   float64(12),
				"compType": float64(protocol.CompTypeDoorWindowSensor),
				"name":     "Contact", "mode": "1310",
			}},
			payload: map[string]any{
				"deviceId": float64(7), "name": "Front door",
				"devType": float64(protocol.DevTypeSwitch),
				"compId":  float64(12),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*DoorSensor); !ok {
					t.Fatalf("device is %T, want *DoorSensor", d)
				}
			},
		},
		{
			name: "switch on door/window comp with other mode is a window sensor",
			comps: []map[string]any{{
				"compId":   float64(12),
				"compType": float64(protocol.CompTypeDoorWindowSensor),
				"name":     "Contact", "mode": "1300",
			}},
			payload: map[string]any{
				"deviceId": float64(8), "name": "Kitchen window",
				"devType": float64(protocol.DevTypeSwitch),
				"compId":  float64(12),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*WindowSensor); !ok {
					t.Fatalf("device is %T, want *WindowSensor", d)
				}
			},
		},
		{
			name: "switch without a sensor comp is generic",
			payload: map[string]any{
				"deviceId": float64(9), "name": "Mystery switch",
				"devType": float64(protocol.DevTypeSwitch),
				"compId":  float64(55),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*BridgeDevice); !ok {
					t.Fatalf("device is %T, want *BridgeDevice", d)
				}
			},
		},
		{
			name: "rocker",
			payload: map[string]any{
				"deviceId": float64(10), "name": "Wall switch",
				"devType": float64(protocol.DevTypeRocker),
				"compId":  float64(9),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*Rocker); !ok {
					t.Fatalf("device is %T, want *Rocker", d)
				}
			},
		},
		{
			name: "unknown device type is generic",
			payload: map[string]any{
				"deviceId": float64(11), "name": "Future gadget",
				"devType": float64(888),
			},
			verify: func(t *testing.T, d Device) {
				if _, ok := d.(*BridgeDevice); !ok {
					t.Fatalf("device is %T, want *BridgeDevice", d)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &fakeCommander{}
			reg := NewRegistry(cmd)
			for _, comp := range tt.comps {
				reg.HandleCompPayload(comp)
			}

			reg.HandleDevicePayload(tt.payload)

			deviceID, _ := protocol.IntField(tt.payload, "deviceId")
			device := reg.Device(deviceID)
			if device == nil {
				t.Fatal("device not registered")
			}
			tt.verify(t, device)
		})
	}
}

func TestRegistryGetOrCreate(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	payload := map[string]any{
		"deviceId": float64(1), "name": "Lamp",
		"devType": float64(protocol.DevTypeActuatorSwitch),
		"usage":   float64(0), "dimmable": false, "switch": false,
	}
	reg.HandleDevicePayload(payload)
	first := reg.Device(1)

	// A second payload for the same id updates the existing device.
	reg.HandleDevicePayload(map[string]any{"deviceId": float64(1), "switch": true})
	if reg.Device(1) != first {
		t.Error("second payload replaced the device instance")
	}

	state, ok := first.State().Value()
	if !ok {
		t.Fatal("no state after two payloads")
	}
	if !state.(LightState).Switch {
		t.Error("second payload's state was not applied")
	}

	if len(reg.Devices()) != 1 {
		t.Errorf("Devices() length = %d, want 1", len(reg.Devices()))
	}
}

func TestRegistryPayloadsWithoutIDs(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	reg.HandleDevicePayload(map[string]any{"name": "no id"})
	reg.HandleCompPayload(map[string]any{"name": "no id"})
	reg.HandleRoomPayload(map[string]any{"name": "no id"})

	if len(reg.Devices()) != 0 || len(reg.Comps()) != 0 || len(reg.Rooms()) != 0 {
		t.Error("payloads without ids created entities")
	}
}

func TestRegistryRooms(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	reg.HandleRoomPayload(map[string]any{
		"roomId": float64(1), "name": "Bedroom",
		"currentMode": float64(2), "state": float64(0),
	})

	room := reg.Room(1)
	if room == nil {
		t.Fatal("room not registered")
	}
	if room.Name() != "Bedroom" {
		t.Errorf("Name() = %q", room.Name())
	}

	state, ok := room.State().Value()
	if !ok {
		t.Fatal("room has no state")
	}
	if state.Mode != RctModeEco {
		t.Errorf("Mode = %v, want Eco", state.Mode)
	}

	// Heating config payloads address the same room.
	reg.HandleRoomPayload(map[string]any{"roomId": float64(1), "setpoint": float64(19)})
	if len(reg.Rooms()) != 1 {
		t.Errorf("Rooms() length = %d, want 1", len(reg.Rooms()))
	}
}
