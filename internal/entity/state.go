package entity

// DeviceState is the broadcast value of a device's state cell. The concrete
// type depends on the device variant; subscribers switch on it.
type DeviceState interface {
	deviceState()
}

// RawCarrier is implemented by state values that retain the raw payload
// fragment they were built from. Multisensor rockers re-parse their
// companion's raw payloads through this.
type RawCarrier interface {
	RawPayload() map[string]any
}

// GenericState is the raw-passthrough state of devices without a dedicated
// variant (and of Heaters).
type GenericState struct {
	Raw map[string]any
}

func (GenericState) deviceState()                 {}
func (s GenericState) RawPayload() map[string]any { return s.Raw }

// LightState is the observable state of a Light.
type LightState struct {
	Switch    bool
	DimmValue int
	Raw       map[string]any
}

func (LightState) deviceState()                 {}
func (s LightState) RawPayload() map[string]any { return s.Raw }

// RcTouchState is the observable state of an RC Touch sensor. Both readings
// come from a single fragment; fragments missing either produce no state.
type RcTouchState struct {
	Temperature float64
	Humidity    float64
	Raw         map[string]any
}

func (RcTouchState) deviceState()                 {}
func (s RcTouchState) RawPayload() map[string]any { return s.Raw }

// RockerState is the observable state of a rocker without sensors.
type RockerState struct {
	IsOn bool
}

func (RockerState) deviceState() {}

// RockerSensorState is the composite state of a multisensor rocker. IsOn is
// nil until the rocker's own curstate has been seen; readings are nil until
// the companion sensor reports them.
type RockerSensorState struct {
	IsOn        *bool
	Temperature *float64
	Humidity    *float64
	Raw         map[string]any
}

func (RockerSensorState) deviceState()                 {}
func (s RockerSensorState) RawPayload() map[string]any { return s.Raw }

// DoorWindowState is the observable state of a door or window sensor.
// IsClosed is nil until a curstate fragment has been seen.
type DoorWindowState struct {
	IsClosed *bool
}

func (DoorWindowState) deviceState() {}

// ShadeState aggregates the partial shade fragments. Each field is nil until
// some fragment has supplied it; fields persist across fragments that omit
// them.
type ShadeState struct {
	// CurrentState is the shade's operation state code.
	CurrentState *int
	// IsSafetyEnabled reports whether the safety interlock is engaged
	// (wind alarm etc.); commands are refused while it is.
	IsSafetyEnabled *bool
	// Position is 0 (open) to 100 (fully extended).
	Position *int
	// Raw is the left-fold of every fragment received so far.
	Raw map[string]any
}

func (ShadeState) deviceState()                 {}
func (s ShadeState) RawPayload() map[string]any { return s.Raw }

// IsClosed reports whether the shade is fully extended. It is nil when the
// position is unknown or strictly between 0 and 100, where the shade can
// move either way.
func (s ShadeState) IsClosed() *bool {
	if s.Position == nil || (*s.Position > 0 && *s.Position < 100) {
		return nil
	}
	closed := *s.Position == 100
	return &closed
}

// Safety reports whether the safety interlock is known to be engaged.
func (s ShadeState) Safety() bool {
	return s.IsSafetyEnabled != nil && *s.IsSafetyEnabled
}
