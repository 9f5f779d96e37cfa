package entity

import "testing"

func TestDoorWindowSensorHandleState(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)
	sensor := NewDoorSensor(reg, cmd, 7, "Front door", 3, map[string]any{})

	if sensor.IsClosed() != nil {
		t.Error("IsClosed() before any fragment should be nil")
	}

	var got []DoorWindowState
	sensor.State().Subscribe(func(s DeviceState) {
		got = append(got, s.(DoorWindowState))
	})

	sensor.HandleState(map[string]any{"curstate": float64(1)})
	if len(got) != 1 || got[0].IsClosed == nil || !*got[0].IsClosed {
		t.Fatalf("after curstate 1: states = %+v, want closed", got)
	}
	if sensor.IsOpen() == nil || *sensor.IsOpen() {
		t.Error("IsOpen() should be false while closed")
	}

	sensor.HandleState(map[string]any{"curstate": float64(0)})
	if len(got) != 2 || *got[1].IsClosed {
		t.Fatalf("after curstate 0: states = %+v, want open", got)
	}

	// A fragment without curstate still broadcasts the retained state.
	sensor.HandleState(map[string]any{"battery": float64(80)})
	if len(got) != 3 {
		t.Fatalf("fragment without curstate did not broadcast")
	}
	if got[2].IsClosed == nil || *got[2].IsClosed {
		t.Error("retained state lost across a curstate-free fragment")
	}
}

func TestRcTouchHandleState(t *testing.T) {
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)
	rc := NewRcTouch(reg, cmd, 8, "Living room controller", 5)

	var got []RcTouchState
	rc.State().Subscribe(func(s DeviceState) {
		got = append(got, s.(RcTouchState))
	})

	// Partial fragments produce nothing: both readings or none.
	rc.HandleState(map[string]any{"info": []any{
		map[string]any{"text": "1222", "value": 21.0},
	}})
	if len(got) != 0 {
		t.Fatalf("temperature-only fragment produced a state: %+v", got)
	}

	rc.HandleState(map[string]any{"info": []any{
		map[string]any{"text": "1222", "value": 21.0},
		map[string]any{"text": "1223", "value": float64(45)},
	}})
	if len(got) != 1 {
		t.Fatalf("received %d states, want 1", len(got))
	}
	if got[0].Temperature != 21.0 || got[0].Humidity != 45 {
		t.Errorf("state = %+v, want 21.0 / 45", got[0])
	}
}
