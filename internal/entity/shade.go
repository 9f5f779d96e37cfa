package entity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// Shade is a shading actuator. Its state arrives as partial fragments, each
// carrying any subset of operation state, safety flag and position, so the
// device aggregates them into one long-lived state that is merged, never
// replaced.
type Shade struct {
	BridgeDevice
	compID     int
	descriptor map[string]any
	shadeState ShadeState
}

// NewShade creates a shade linked to its component.
func NewShade(reg *Registry, cmd Commander, deviceID int, name string, compID int, descriptor map[string]any) *Shade {
	return &Shade{
		BridgeDevice: *NewBridgeDevice(reg, cmd, deviceID, name),
		compID:       compID,
		descriptor:   descriptor,
		shadeState:   ShadeState{Raw: make(map[string]any)},
	}
}

// CompID returns the linked component id.
func (s *Shade) CompID() (int, bool) { return s.compID, true }

// SupportsGoTo reports whether the actuator accepts go-to-position commands:
// the linked component must be the go-to capable type and the descriptor
// must advertise a calibrated runtime. Nil when the component is unknown.
func (s *Shade) SupportsGoTo() *bool {
	comp := s.registry.Comp(s.compID)
	if comp == nil {
		return nil
	}
	runtime, _ := protocol.IntField(s.descriptor, "shRuntime")
	supported := comp.CompType() == protocol.CompTypeShadeGoTo && runtime == 1
	return &supported
}

// HandleState merges a partial fragment into the aggregated state: a field
// is only overwritten when the fragment supplies it.
func (s *Shade) HandleState(payload map[string]any) {
	for k, v := range payload {
		s.shadeState.Raw[k] = v
	}

	if cur, ok := protocol.IntField(payload, "curstate"); ok {
		s.shadeState.CurrentState = &cur
	}
	if safety, ok := protocol.IntField(payload, "shSafety"); ok {
		engaged := safety != 0
		s.shadeState.IsSafetyEnabled = &engaged
	}
	if pos, ok := protocol.IntField(payload, "shPos"); ok {
		s.shadeState.Position = &pos
	}

	s.state.Publish(s.shadeState)
}

// sendState sends a shading command. Movement commands are refused while the
// safety interlock is engaged; an explicit stop is always allowed through.
func (s *Shade) sendState(ctx context.Context, op int, extra map[string]any) error {
	if op != protocol.ShadeOpStop && s.shadeState.Safety() {
		logging.Warn("Refusing shade command, safety is engaged",
			zap.Int("device_id", s.deviceID),
			zap.Int("operation", op),
		)
		return nil
	}

	payload := map[string]any{"deviceId": s.deviceID, "state": op}
	for k, v := range extra {
		payload[k] = v
	}
	return s.commander.SendMessage(ctx, protocol.MsgSetDeviceShadingState, payload)
}

// MoveUp opens the shade.
func (s *Shade) MoveUp(ctx context.Context) error {
	return s.sendState(ctx, protocol.ShadeOpOpen, nil)
}

// MoveDown closes the shade.
func (s *Shade) MoveDown(ctx context.Context) error {
	return s.sendState(ctx, protocol.ShadeOpClose, nil)
}

// MoveStop stops the shade where it is.
func (s *Shade) MoveStop(ctx context.Context) error {
	return s.sendState(ctx, protocol.ShadeOpStop, nil)
}

// MoveToPosition moves the shade to a specific position (0 open, 100 fully
// extended). Only valid for actuators that support go-to.
func (s *Shade) MoveToPosition(ctx context.Context, position int) error {
	if supported := s.SupportsGoTo(); supported == nil || !*supported {
		return fmt.Errorf("shade %d does not support go-to-position", s.deviceID)
	}
	if position < 0 || position > 100 {
		return fmt.Errorf("shade position %d out of range [0, 100]", position)
	}
	return s.sendState(ctx, protocol.ShadeOpGoTo, map[string]any{"value": position})
}
