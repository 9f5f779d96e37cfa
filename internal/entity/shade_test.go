package entity

import (
	"context"
	"testing"

	"github.com/muurk/xcbridge/internal/protocol"
)

func newTestShade(t *testing.T, compType int, descriptor map[string]any) (*Shade, *fakeCommander) {
	t.Helper()
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)
	reg.HandleCompPayload(map[string]any{
		"compId":   float64(9),
		"compType": float64(compType),
		"name":     "Shade module",
	})
	if descriptor == nil {
		descriptor = map[string]any{}
	}
	return NewShade(reg, cmd, 3, "Living room shade", 9, descriptor), cmd
}

func TestShadeMergesFragments(t *testing.T) {
	shade, _ := newTestShade(t, protocol.CompTypeShadeGoTo, nil)

	var got []ShadeState
	shade.State().Subscribe(func(s DeviceState) {
		got = append(got, s.(ShadeState))
	})

	shade.HandleState(map[string]any{"curstate": float64(1)})
	shade.HandleState(map[string]any{"shPos": float64(100)})
	shade.HandleState(map[string]any{"shSafety": float64(1)})

	if len(got) != 3 {
		t.Fatalf("received %d states, want 3", len(got))
	}

	final := got[2]
	if final.CurrentState == nil || *final.CurrentState != 1 {
		t.Errorf("CurrentState = %v, want 1 (kept from earlier fragment)", final.CurrentState)
	}
	if final.Position == nil || *final.Position != 100 {
		t.Errorf("Position = %v, want 100 (kept from earlier fragment)", final.Position)
	}
	if !final.Safety() {
		t.Error("Safety() = false after shSafety fragment")
	}
	if _, ok := final.Raw["curstate"]; !ok {
		t.Error("Raw lost the curstate field across merges")
	}
}

func TestShadeStateIsClosed(t *testing.T) {
	tests := []struct {
		name     string
		position *int
		want     *bool
	}{
		{"unknown position", nil, nil},
		{"fully open", intPtr(0), boolPtr(false)},
		{"fully extended", intPtr(100), boolPtr(true)},
		{"mid travel", intPtr(45), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ShadeState{Position: tt.position}
			got := s.IsClosed()
			switch {
			case got == nil && tt.want == nil:
			case got == nil || tt.want == nil:
				t.Errorf("IsClosed() = %v, want %v", got, tt.want)
			case *got != *tt.want:
				t.Errorf("IsClosed() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestShadeSafetyInterlock(t *testing.T) {
	shade, cmd := newTestShade(t, protocol.CompTypeShadeGoTo, nil)
	ctx := context.Background()

	shade.HandleState(map[string]any{"shSafety": float64(1)})

	if err := shade.MoveDown(ctx); err != nil {
		t.Fatalf("MoveDown() error = %v", err)
	}
	if len(cmd.sent) != 0 {
		t.Errorf("movement command was sent while safety engaged: %v", cmd.sent)
	}

	// An explicit stop always goes through.
	if err := shade.MoveStop(ctx); err != nil {
		t.Fatalf("MoveStop() error = %v", err)
	}
	sent, ok := cmd.last()
	if !ok {
		t.Fatal("stop command was not sent")
	}
	if sent.messageType != protocol.MsgSetDeviceShadingState {
		t.Errorf("stop sent %v", sent.messageType)
	}
	if sent.payload["state"] != protocol.ShadeOpStop {
		t.Errorf("stop payload state = %v, want %d", sent.payload["state"], protocol.ShadeOpStop)
	}

	// Disengaging safety lets movement through again.
	shade.HandleState(map[string]any{"shSafety": float64(0)})
	if err := shade.MoveUp(ctx); err != nil {
		t.Fatalf("MoveUp() error = %v", err)
	}
	sent, _ = cmd.last()
	if sent.payload["state"] != protocol.ShadeOpOpen {
		t.Errorf("MoveUp payload state = %v, want %d", sent.payload["state"], protocol.ShadeOpOpen)
	}
}

func TestShadeSupportsGoTo(t *testing.T) {
	tests := []struct {
		name       string
		compType   int
		descriptor map[string]any
		want       bool
	}{
		{"go-to comp with runtime", protocol.CompTypeShadeGoTo, map[string]any{"shRuntime": float64(1)}, true},
		{"go-to comp without runtime", protocol.CompTypeShadeGoTo, map[string]any{}, false},
		{"plain comp", 80, map[string]any{"shRuntime": float64(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shade, _ := newTestShade(t, tt.compType, tt.descriptor)
			got := shade.SupportsGoTo()
			if got == nil {
				t.Fatal("SupportsGoTo() = nil with a known component")
			}
			if *got != tt.want {
				t.Errorf("SupportsGoTo() = %v, want %v", *got, tt.want)
			}
		})
	}

	// Unknown component: undecidable, not false.
	cmd := &fakeCommander{}
	reg := NewRegistry(cmd)
	shade := NewShade(reg, cmd, 3, "Orphan shade", 77, map[string]any{"shRuntime": float64(1)})
	if got := shade.SupportsGoTo(); got != nil {
		t.Errorf("SupportsGoTo() = %v with unknown component, want nil", *got)
	}
}

func TestShadeMoveToPosition(t *testing.T) {
	shade, cmd := newTestShade(t, protocol.CompTypeShadeGoTo, map[string]any{"shRuntime": float64(1)})
	ctx := context.Background()

	if err := shade.MoveToPosition(ctx, 101); err == nil {
		t.Error("MoveToPosition(101) did not fail")
	}
	if err := shade.MoveToPosition(ctx, -1); err == nil {
		t.Error("MoveToPosition(-1) did not fail")
	}

	if err := shade.MoveToPosition(ctx, 60); err != nil {
		t.Fatalf("MoveToPosition(60) error = %v", err)
	}
	sent, _ := cmd.last()
	if sent.payload["state"] != protocol.ShadeOpGoTo || sent.payload["value"] != 60 {
		t.Errorf("go-to payload = %v", sent.payload)
	}

	unsupported, _ := newTestShade(t, protocol.CompTypeShadeGoTo, nil)
	if err := unsupported.MoveToPosition(ctx, 50); err == nil {
		t.Error("MoveToPosition() succeeded on a shade without go-to support")
	}
}
