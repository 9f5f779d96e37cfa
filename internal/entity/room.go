package entity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// RctMode is a room climate preset.
type RctMode int

// Room climate presets, from the currentMode/mode payload fields.
const (
	RctModeCool    RctMode = 1
	RctModeEco     RctMode = 2
	RctModeComfort RctMode = 3
)

// String returns the preset name.
func (m RctMode) String() string {
	switch m {
	case RctModeCool:
		return "Cool"
	case RctModeEco:
		return "Eco"
	case RctModeComfort:
		return "Comfort"
	default:
		return fmt.Sprintf("RctMode(%d)", int(m))
	}
}

// RctState is a room thermostat's activity state.
type RctState int

// Room thermostat activity states.
const (
	RctStateIdle   RctState = 0
	RctStateAuto   RctState = 1
	RctStateActive RctState = 2
)

// String returns the state name.
func (s RctState) String() string {
	switch s {
	case RctStateIdle:
		return "Idle"
	case RctStateAuto:
		return "Auto"
	case RctStateActive:
		return "Active"
	default:
		return fmt.Sprintf("RctState(%d)", int(s))
	}
}

// RctModeRange is the setpoint range a preset accepts, inclusive.
type RctModeRange struct {
	Min float64
	Max float64
}

// setpointRanges holds the per-preset setpoint limits the bridge enforces.
// Requests outside the range are clamped before sending.
var setpointRanges = map[RctMode]RctModeRange{
	RctModeCool:    {Min: 5, Max: 20},
	RctModeEco:     {Min: 10, Max: 30},
	RctModeComfort: {Min: 18, Max: 40},
}

// SetpointRange returns the clamping range for a preset.
func SetpointRange(mode RctMode) (RctModeRange, bool) {
	r, ok := setpointRanges[mode]
	return r, ok
}

// RoomState is a room's aggregated climate state. Pointer fields are nil
// until the bridge has reported them.
type RoomState struct {
	Setpoint    *float64
	Temperature *float64
	Humidity    *float64
	Power       float64
	Mode        RctMode
	State       RctState
	Raw         map[string]any
}

// Room is a heating zone with a thermostat. Room fragments are merged into
// the previously published raw payload before interpretation, so later
// partial updates never erase earlier fields.
type Room struct {
	registry  *Registry
	commander Commander
	roomID    int
	name      string
	state     *Cell[RoomState]

	modeSetpoints map[RctMode]float64
}

// NewRoom creates a room.
func NewRoom(reg *Registry, cmd Commander, roomID int, name string) *Room {
	return &Room{
		registry:      reg,
		commander:     cmd,
		roomID:        roomID,
		name:          name,
		state:         NewCell[RoomState](),
		modeSetpoints: make(map[RctMode]float64),
	}
}

// RoomID returns the bridge-assigned room id.
func (r *Room) RoomID() int { return r.roomID }

// Name returns the user-assigned name.
func (r *Room) Name() string { return r.name }

// State returns the room's observable state cell.
func (r *Room) State() *Cell[RoomState] { return r.state }

// HandleState merges an inbound fragment into the accumulated raw payload
// and publishes the reinterpreted state. Snapshot payloads carry currentMode
// and a modes list with per-preset setpoints; incremental updates carry mode.
func (r *Room) HandleState(payload map[string]any) {
	merged := payload
	if prev, ok := r.state.Value(); ok && prev.Raw != nil {
		for k, v := range payload {
			prev.Raw[k] = v
		}
		merged = prev.Raw
	}

	next := RoomState{Raw: merged}
	if prev, ok := r.state.Value(); ok {
		next.Mode = prev.Mode
		next.State = prev.State
	}

	if v, ok := protocol.FloatField(merged, "setpoint"); ok {
		next.Setpoint = &v
	}
	if v, ok := protocol.FloatField(merged, "temp"); ok {
		next.Temperature = &v
	}
	if v, ok := protocol.FloatField(merged, "humidity"); ok {
		next.Humidity = &v
	}
	if v, ok := protocol.FloatField(merged, "power"); ok {
		next.Power = v
	}

	if v, ok := protocol.IntField(merged, "currentMode"); ok {
		next.Mode = RctMode(v)
	}
	if v, ok := protocol.IntField(merged, "mode"); ok {
		next.Mode = RctMode(v)
	}
	if v, ok := protocol.IntField(merged, "state"); ok {
		next.State = RctState(v)
	}

	if modes, ok := protocol.ObjectList(merged, "modes"); ok {
		for _, entry := range modes {
			mode, okMode := protocol.IntField(entry, "mode")
			value, okValue := protocol.FloatField(entry, "value")
			if okMode && okValue {
				r.modeSetpoints[RctMode(mode)] = value
			}
		}
		logging.Debug("Room loaded mode setpoints",
			zap.Int("room_id", r.roomID),
			zap.String("name", r.name),
			zap.Int("count", len(r.modeSetpoints)),
		)
	}

	r.state.Publish(next)
}

// SetTargetTemperature requests a new setpoint for the room's current mode.
// Out-of-range requests are clamped to the mode's limits rather than
// rejected, matching the official app.
func (r *Room) SetTargetTemperature(ctx context.Context, setpoint float64) error {
	current, ok := r.state.Value()
	if !ok {
		return fmt.Errorf("room %d: no state received yet", r.roomID)
	}

	clamped := setpoint
	if limits, ok := setpointRanges[current.Mode]; ok {
		if clamped > limits.Max {
			clamped = limits.Max
		}
		if clamped < limits.Min {
			clamped = limits.Min
		}
		if clamped != setpoint {
			logging.Warn("Requested setpoint out of range, clamped",
				zap.Int("room_id", r.roomID),
				zap.Float64("requested", setpoint),
				zap.Float64("clamped", clamped),
				zap.Float64("min", limits.Min),
				zap.Float64("max", limits.Max),
			)
		}
	}

	r.modeSetpoints[current.Mode] = clamped

	return r.commander.SendMessage(ctx, protocol.MsgSetHeatingState, map[string]any{
		"roomId":    r.roomID,
		"mode":      int(current.Mode),
		"state":     int(current.State),
		"setpoint":  clamped,
		"confirmed": false,
	})
}

// SetMode switches the room to another preset, carrying the preset's stored
// setpoint so the thermostat resumes where that preset left off.
func (r *Room) SetMode(ctx context.Context, mode RctMode) error {
	current, ok := r.state.Value()
	if !ok {
		return fmt.Errorf("room %d: no state received yet", r.roomID)
	}

	payload := map[string]any{
		"roomId":    r.roomID,
		"mode":      int(mode),
		"state":     int(current.State),
		"confirmed": false,
	}
	// The bridge expects the setpoint key on every mode change, null when the
	// preset has no stored value yet.
	if setpoint, ok := r.modeSetpoints[mode]; ok {
		payload["setpoint"] = setpoint
	} else {
		payload["setpoint"] = nil
	}

	return r.commander.SendMessage(ctx, protocol.MsgSetHeatingState, payload)
}
