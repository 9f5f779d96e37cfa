package entity

import (
	"testing"

	"github.com/muurk/xcbridge/internal/protocol"
)

func TestRockerWithoutSensors(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	reg.HandleCompPayload(map[string]any{
		"compId":   float64(4),
		"compType": float64(60),
		"name":     "Push button",
	})
	rocker := NewRocker(reg, cmd, 10, "Bedroom switch", 4, map[string]any{})

	if rocker.HasSensors() {
		t.Error("HasSensors() = true on a plain push button component")
	}

	var got []DeviceState
	rocker.State().Subscribe(func(s DeviceState) { got = append(got, s) })

	rocker.HandleState(map[string]any{"curstate": float64(1)})
	rocker.HandleState(map[string]any{"other": float64(5)})
	rocker.HandleState(map[string]any{"curstate": float64(0)})

	if len(got) != 2 {
		t.Fatalf("received %d states, want 2 (fragment without curstate is dropped)", len(got))
	}
	if s := got[0].(RockerState); !s.IsOn {
		t.Error("first state IsOn = false, want true")
	}
	if s := got[1].(RockerState); s.IsOn {
		t.Error("second state IsOn = true, want false")
	}
}

func TestRockerCompanionSensor(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	reg.HandleCompPayload(map[string]any{
		"compId":   float64(4),
		"compType": float64(protocol.CompTypeMultiSensorPushButton),
		"name":     "Multisensor",
	})

	// The companion (device id + 1) registers before the rocker here, so the
	// constructor's first search already finds it.
	reg.HandleDevicePayload(map[string]any{
		"deviceId": float64(11),
		"name":     "Sensor",
		"devType":  float64(999),
		"compId":   float64(4),
	})
	reg.HandleDevicePayload(map[string]any{
		"deviceId": float64(10),
		"name":     "Hall switch",
		"devType":  float64(protocol.DevTypeRocker),
		"compId":   float64(4),
		"curstate": float64(1),
	})

	rocker, ok := reg.Device(10).(*Rocker)
	if !ok {
		t.Fatalf("device 10 is %T, want *Rocker", reg.Device(10))
	}
	if !rocker.HasSensors() {
		t.Fatal("HasSensors() = false on multisensor component")
	}

	var got []RockerSensorState
	rocker.State().Subscribe(func(s DeviceState) {
		if rs, ok := s.(RockerSensorState); ok {
			got = append(got, rs)
		}
	})

	// Companion readings arrive through the sensor device's raw payload.
	reg.Device(11).HandleState(map[string]any{
		"deviceId": float64(11),
		"info": []any{
			map[string]any{"text": protocol.InfoCodeTemperature, "value": 21.5},
			map[string]any{"text": protocol.InfoCodeHumidity, "value": float64(55)},
		},
	})

	if len(got) == 0 {
		t.Fatal("no composite state after companion reading")
	}
	final := got[len(got)-1]
	if final.Temperature == nil || *final.Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", final.Temperature)
	}
	if final.Humidity == nil || *final.Humidity != 55 {
		t.Errorf("Humidity = %v, want 55", final.Humidity)
	}

	// A button press keeps the readings in the composite state.
	rocker.HandleState(map[string]any{"curstate": float64(0)})
	final = got[len(got)-1]
	if final.IsOn == nil || *final.IsOn {
		t.Errorf("IsOn = %v, want false", final.IsOn)
	}
	if final.Temperature == nil || *final.Temperature != 21.5 {
		t.Errorf("Temperature after press = %v, want retained 21.5", final.Temperature)
	}
}

func TestRockerCompanionFoundOnLaterUpdate(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	reg.HandleCompPayload(map[string]any{
		"compId":   float64(4),
		"compType": float64(protocol.CompTypeMultiSensorPushButton),
		"name":     "Multisensor",
	})

	// Rocker first: the companion does not exist yet.
	reg.HandleDevicePayload(map[string]any{
		"deviceId": float64(20),
		"name":     "Office switch",
		"devType":  float64(protocol.DevTypeRocker),
		"compId":   float64(4),
		"curstate": float64(0),
	})
	rocker := reg.Device(20).(*Rocker)
	if rocker.sensorDevice != nil {
		t.Fatal("companion resolved before it exists")
	}

	// Companion shares the comp id but not id+1: the fallback path. The
	// variant must be one that keeps its comp id; generic devices drop it.
	reg.HandleDevicePayload(map[string]any{
		"deviceId": float64(35),
		"name":     "Sensor",
		"devType":  float64(protocol.DevTypeHeatingActuator),
		"compId":   float64(4),
	})

	// The search reruns on the rocker's next update.
	rocker.HandleState(map[string]any{"curstate": float64(1)})
	if rocker.sensorDevice == nil {
		t.Fatal("companion not resolved after update")
	}
	if rocker.sensorDevice.DeviceID() != 35 {
		t.Errorf("companion id = %d, want 35", rocker.sensorDevice.DeviceID())
	}
}

func TestRockerNameWithControlled(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)

	reg.HandleDevicePayload(map[string]any{
		"deviceId": float64(1), "name": "Ceiling light", "devType": float64(protocol.DevTypeActuatorSwitch),
		"usage": float64(0), "dimmable": false, "switch": false,
	})
	reg.HandleDevicePayload(map[string]any{
		"deviceId": float64(2), "name": "Accent light", "devType": float64(protocol.DevTypeActuatorDimm),
		"usage": float64(0), "dimmable": true, "switch": false,
	})

	rocker := NewRocker(reg, cmd, 10, "Wall switch", 4, map[string]any{
		"controlId": []any{float64(2), float64(1), float64(2), float64(99)},
	})

	want := "Wall switch (Accent light, Ceiling light)"
	if got := rocker.NameWithControlled(); got != want {
		t.Errorf("NameWithControlled() = %q, want %q", got, want)
	}
}
