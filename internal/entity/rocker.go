package entity

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// Rocker is a wall push-button. Rockers on a multisensor component carry a
// companion device that reports temperature and humidity; such rockers
// resolve the companion lazily and fold its readings into a composite state.
type Rocker struct {
	BridgeDevice
	compID      int
	descriptor  map[string]any
	isOn        *bool
	temperature *float64
	humidity    *float64

	sensorDevice Device
	sensorSub    *Subscription
}

// NewRocker creates a rocker. Multisensor rockers immediately begin looking
// for their companion sensor device; the search is retried on every update
// until it succeeds, since the companion may not be registered yet.
func NewRocker(reg *Registry, cmd Commander, deviceID int, name string, compID int, descriptor map[string]any) *Rocker {
	r := &Rocker{
		BridgeDevice: *NewBridgeDevice(reg, cmd, deviceID, name),
		compID:       compID,
		descriptor:   descriptor,
	}

	if cur, ok := protocol.BoolField(descriptor, "curstate"); ok {
		r.isOn = &cur
	}

	if comp := reg.Comp(compID); comp != nil && comp.CompType() == protocol.CompTypeMultiSensorPushButton {
		comp.State().Subscribe(func(CompState) { r.onComponentUpdate() })
		r.findAndSubscribeSensorDevice()
	}

	return r
}

// CompID returns the linked component id.
func (r *Rocker) CompID() (int, bool) { return r.compID, true }

// IsOn reports the last known button state, nil when unknown.
func (r *Rocker) IsOn() *bool { return r.isOn }

// HasSensors reports whether this rocker sits on a multisensor component.
func (r *Rocker) HasSensors() bool {
	comp := r.registry.Comp(r.compID)
	return comp != nil && comp.CompType() == protocol.CompTypeMultiSensorPushButton
}

// NameWithControlled returns the rocker's name with the sorted names of the
// devices it controls in parentheses.
func (r *Rocker) NameWithControlled() string {
	seen := make(map[string]struct{})
	controlled, _ := protocol.ListField(r.descriptor, "controlId")
	for _, raw := range controlled {
		id, ok := raw.(float64)
		if !ok {
			continue
		}
		if device := r.registry.Device(int(id)); device != nil {
			seen[device.Name()] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return r.name + " (" + strings.Join(names, ", ") + ")"
}

// findAndSubscribeSensorDevice resolves the companion sensor device. The
// companion might not be created yet during initialization, so this is
// called again on every update until it succeeds.
//
// Search order: device id + 1 first (the pairing pattern observed in the
// field: rocker 14, sensor 15), then any other device sharing this rocker's
// component id.
func (r *Rocker) findAndSubscribeSensorDevice() {
	if r.sensorDevice != nil {
		return
	}

	if candidate := r.registry.Device(r.deviceID + 1); candidate != nil {
		r.adoptSensorDevice(candidate, "device_id+1")
		return
	}

	for _, device := range r.registry.DeviceMap() {
		if device.DeviceID() == r.deviceID {
			continue
		}
		if compID, ok := device.CompID(); ok && compID == r.compID {
			r.adoptSensorDevice(device, "shared comp_id")
			return
		}
	}

	logging.Debug("Companion sensor device not found yet",
		zap.Int("device_id", r.deviceID),
		zap.Int("comp_id", r.compID),
	)
}

func (r *Rocker) adoptSensorDevice(device Device, how string) {
	logging.Info("Rocker found companion sensor device",
		zap.Int("device_id", r.deviceID),
		zap.Int("sensor_device_id", device.DeviceID()),
		zap.String("via", how),
	)
	r.sensorDevice = device
	r.sensorSub = device.State().Subscribe(r.onSensorDeviceUpdate)
}

// onSensorDeviceUpdate parses temperature and humidity from the companion's
// raw payload and broadcasts a composite state when either reading changed.
func (r *Rocker) onSensorDeviceUpdate(state DeviceState) {
	carrier, ok := state.(RawCarrier)
	if !ok {
		return
	}

	temperature, humidity := protocol.InfoValues(carrier.RawPayload())
	if floatsEqual(temperature, r.temperature) && floatsEqual(humidity, r.humidity) {
		return
	}

	r.temperature = temperature
	r.humidity = humidity

	if r.temperature != nil || r.humidity != nil {
		r.state.Publish(RockerSensorState{
			IsOn:        r.isOn,
			Temperature: r.temperature,
			Humidity:    r.humidity,
			Raw:         r.descriptor,
		})
	}
}

// onComponentUpdate retries the companion search; sensor readings come from
// the companion device, not the component itself.
func (r *Rocker) onComponentUpdate() {
	if !r.HasSensors() {
		return
	}
	if r.sensorDevice == nil {
		r.findAndSubscribeSensorDevice()
	}
}

// HandleState applies a fragment. curstate is required; fragments without it
// are logged and dropped.
func (r *Rocker) HandleState(payload map[string]any) {
	for k, v := range payload {
		r.descriptor[k] = v
	}

	on, ok := protocol.BoolField(payload, "curstate")
	if !ok {
		r.logIgnored("no curstate field")
		return
	}
	r.isOn = &on

	if r.HasSensors() {
		if r.sensorDevice == nil {
			r.findAndSubscribeSensorDevice()
		}
		r.state.Publish(RockerSensorState{
			IsOn:        r.isOn,
			Temperature: r.temperature,
			Humidity:    r.humidity,
			Raw:         payload,
		})
		return
	}

	r.state.Publish(RockerState{IsOn: on})
}

func floatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
