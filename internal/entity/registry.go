package entity

import (
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// Registry holds every entity the bridge has announced. Entities are created
// lazily from the first payload that references them, whether that arrives
// in the bulk snapshot or in an incremental update.
//
// All mutation happens from the supervisor's pump goroutine; the lock only
// guards concurrent reads from API callers.
type Registry struct {
	mu        sync.RWMutex
	commander Commander
	devices   map[int]Device
	comps     map[int]*Comp
	rooms     map[int]*Room
}

// NewRegistry creates an empty registry. The commander is handed to every
// entity the registry creates.
func NewRegistry(cmd Commander) *Registry {
	return &Registry{
		commander: cmd,
		devices:   make(map[int]Device),
		comps:     make(map[int]*Comp),
		rooms:     make(map[int]*Room),
	}
}

// Device returns the device with the given id, nil when unknown.
func (r *Registry) Device(deviceID int) Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.devices[deviceID]
}

// Comp returns the component with the given id, nil when unknown.
func (r *Registry) Comp(compID int) *Comp {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.comps[compID]
}

// Room returns the room with the given id, nil when unknown.
func (r *Registry) Room(roomID int) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[roomID]
}

// Devices returns a snapshot of all known devices.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}

// DeviceMap returns a snapshot copy of the device map keyed by id.
func (r *Registry) DeviceMap() map[int]Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]Device, len(r.devices))
	for id, d := range r.devices {
		out[id] = d
	}
	return out
}

// Comps returns a snapshot of all known components.
func (r *Registry) Comps() []*Comp {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Comp, 0, len(r.comps))
	for _, c := range r.comps {
		out = append(out, c)
	}
	return out
}

// Rooms returns a snapshot of all known rooms.
func (r *Registry) Rooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

// HandleDevicePayload routes a device payload, creating the device on first
// sight. The payload that creates a device is also its first state fragment.
func (r *Registry) HandleDevicePayload(payload map[string]any) {
	deviceID, ok := protocol.IntField(payload, "deviceId")
	if !ok {
		logging.Warn("Device payload without deviceId", zap.Any("payload", payload))
		return
	}

	r.mu.RLock()
	device, known := r.devices[deviceID]
	r.mu.RUnlock()

	if !known {
		device = r.createDevice(deviceID, payload)
		r.mu.Lock()
		r.devices[deviceID] = device
		r.mu.Unlock()
		logging.Debug("Added device",
			zap.Int("device_id", deviceID),
			zap.String("name", device.Name()),
		)
	}

	device.HandleState(payload)
}

// HandleCompPayload routes a component payload, creating the component on
// first sight.
func (r *Registry) HandleCompPayload(payload map[string]any) {
	compID, ok := protocol.IntField(payload, "compId")
	if !ok {
		logging.Warn("Component payload without compId", zap.Any("payload", payload))
		return
	}

	r.mu.RLock()
	comp, known := r.comps[compID]
	r.mu.RUnlock()

	if !known {
		name, _ := protocol.StringField(payload, "name")
		compType, _ := protocol.IntField(payload, "compType")
		comp = NewComp(compID, compType, name, payload)
		r.mu.Lock()
		r.comps[compID] = comp
		r.mu.Unlock()
		logging.Debug("Added component",
			zap.Int("comp_id", compID),
			zap.String("name", name),
			zap.Int("comp_type", compType),
		)
	}

	comp.HandleState(payload)
}

// HandleRoomPayload routes a room payload, creating the room on first sight.
func (r *Registry) HandleRoomPayload(payload map[string]any) {
	roomID, ok := protocol.IntField(payload, "roomId")
	if !ok {
		logging.Warn("Room payload without roomId", zap.Any("payload", payload))
		return
	}

	r.mu.RLock()
	room, known := r.rooms[roomID]
	r.mu.RUnlock()

	if !known {
		name, _ := protocol.StringField(payload, "name")
		room = NewRoom(r, r.commander, roomID, name)
		r.mu.Lock()
		r.rooms[roomID] = room
		r.mu.Unlock()
		logging.Debug("Added room",
			zap.Int("room_id", roomID),
			zap.String("name", name),
		)
	}

	room.HandleState(payload)
}

// createDevice picks the device variant from the descriptor. Device type
// codes alone do not decide the variant: actuators double as plain loads,
// and a switch is only a door/window sensor when its component says so.
// Runs outside the registry lock so constructors may look up companions.
func (r *Registry) createDevice(deviceID int, payload map[string]any) Device {
	name, _ := protocol.StringField(payload, "name")
	devType, _ := protocol.IntField(payload, "devType")
	compID, hasComp := protocol.IntField(payload, "compId")

	switch devType {
	case protocol.DevTypeActuatorSwitch, protocol.DevTypeActuatorDimm:
		// usage 1 means the actuator drives a plain load, not a light.
		if usage, ok := protocol.IntField(payload, "usage"); ok && usage == 0 {
			dimmable, _ := protocol.BoolField(payload, "dimmable")
			logging.Debug("Creating light", zap.Int("device_id", deviceID), zap.Bool("dimmable", dimmable))
			return NewLight(r, r.commander, deviceID, name, dimmable)
		}

	case protocol.DevTypeShadingActuator:
		logging.Debug("Creating shade", zap.Int("device_id", deviceID))
		return NewShade(r, r.commander, deviceID, name, compID, payload)

	case protocol.DevTypeHeatingActuator:
		logging.Debug("Creating heater", zap.Int("device_id", deviceID))
		return NewHeater(r, r.commander, deviceID, name, compID)

	case protocol.DevTypeRcTouch:
		logging.Debug("Creating RC Touch", zap.Int("device_id", deviceID))
		return NewRcTouch(r, r.commander, deviceID, name, compID)

	case protocol.DevTypeSwitch:
		if comp := r.Comp(compID); hasComp && comp != nil && comp.CompType() == protocol.CompTypeDoorWindowSensor {
			if comp.Mode() == "1310" {
				logging.Debug("Creating door sensor", zap.Int("device_id", deviceID))
				return NewDoorSensor(r, r.commander, deviceID, name, compID, payload)
			}
			logging.Debug("Creating window sensor", zap.Int("device_id", deviceID))
			return NewWindowSensor(r, r.commander, deviceID, name, compID, payload)
		}

	case protocol.DevTypeRocker:
		logging.Debug("Creating rocker", zap.Int("device_id", deviceID))
		return NewRocker(r, r.commander, deviceID, name, compID, payload)
	}

	logging.Debug("Creating generic device",
		zap.Int("device_id", deviceID),
		zap.Int("dev_type", devType),
	)
	return NewBridgeDevice(r, r.commander, deviceID, name)
}
