package bridge

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
)

// dispatch routes one decoded envelope to its handler. Unknown application
// types are logged and dropped; the bridge pushes more types than a client
// needs.
func (b *Bridge) dispatch(env protocol.Envelope) {
	logging.Debug("Received message", zap.String("type", env.TypeInt.String()))

	switch env.TypeInt {
	case protocol.MsgSetAllData:
		b.handleSetAllData(env.Payload)
	case protocol.MsgSetHomeData:
		b.handleSetHomeData(env.Payload)
	case protocol.MsgSetDeviceState:
		b.handleSetDeviceState(env.Payload)
	case protocol.MsgSetStateInfo:
		b.handleSetStateInfo(env.Payload)
	default:
		logging.Warn("Unhandled message type",
			zap.String("type", env.TypeInt.String()),
			zap.Int("type_int", int(env.TypeInt)),
		)
	}
}

// handleSetAllData folds a bulk snapshot into the registry. Components come
// before devices in the bridge's payloads, which the device factory relies
// on for sensor classification. roomHeating entries address the same rooms
// as the rooms list and are merged into them.
func (b *Bridge) handleSetAllData(payload map[string]any) {
	if _, last := payload["lastItem"]; last {
		b.markInitialized()
		logging.Info("Bridge initialization complete, all data loaded",
			zap.Int("devices", len(b.registry.Devices())),
			zap.Int("comps", len(b.registry.Comps())),
			zap.Int("rooms", len(b.registry.Rooms())),
		)
	}

	if comps, ok := protocol.ObjectList(payload, "comps"); ok {
		logging.Debug("Processing snapshot components", zap.Int("count", len(comps)))
		for _, comp := range comps {
			b.registry.HandleCompPayload(comp)
		}
	}

	if devices, ok := protocol.ObjectList(payload, "devices"); ok {
		logging.Debug("Processing snapshot devices", zap.Int("count", len(devices)))
		for _, device := range devices {
			b.registry.HandleDevicePayload(device)
		}
	}

	if rooms, ok := protocol.ObjectList(payload, "rooms"); ok {
		logging.Debug("Processing snapshot rooms", zap.Int("count", len(rooms)))
		for _, room := range rooms {
			b.registry.HandleRoomPayload(room)
		}
	}

	if heating, ok := protocol.ObjectList(payload, "roomHeating"); ok {
		logging.Debug("Processing snapshot room heating", zap.Int("count", len(heating)))
		for _, room := range heating {
			b.registry.HandleRoomPayload(room)
		}
	}
}

// handleSetHomeData records the bridge's identity and firmware build.
func (b *Bridge) handleSetHomeData(payload map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.homeData = payload
	if id, ok := protocol.StringField(payload, "id"); ok {
		b.bridgeID = id
	}
	if name, ok := protocol.StringField(payload, "name"); ok {
		b.bridgeName = name
	}
	if bridgeType, ok := protocol.StringField(payload, "bridgeType"); ok {
		b.bridgeType = bridgeType
	}

	if build, ok := protocol.IntField(payload, "fwBuild"); ok {
		version, known := protocol.FirmwareBuilds[build]
		if !known {
			version = fmt.Sprintf("Unknown (build %d)", build)
		}
		b.firmwareVersion = version
		logging.Info("Bridge firmware",
			zap.String("version", version),
			zap.Int("build", build),
		)
	}

	if scenes, ok := protocol.ListField(payload, "homeScenes"); ok {
		b.homeSceneCount = len(scenes)
	}

	logging.Debug("Bridge info updated",
		zap.String("id", b.bridgeID),
		zap.String("name", b.bridgeName),
		zap.String("bridge_type", b.bridgeType),
		zap.String("fw_version", b.firmwareVersion),
		zap.Int("home_scenes", b.homeSceneCount),
	)
}

// handleSetDeviceState applies an incremental update to one known device.
// Unlike snapshot payloads, incremental updates never create devices.
func (b *Bridge) handleSetDeviceState(payload map[string]any) {
	deviceID, ok := protocol.IntField(payload, "deviceId")
	if !ok {
		logging.Warn("Device state update without deviceId", zap.Any("payload", payload))
		return
	}

	device := b.registry.Device(deviceID)
	if device == nil {
		logging.Warn("State update for unknown device", zap.Int("device_id", deviceID))
		return
	}

	logging.Debug("Updating device state",
		zap.Int("device_id", deviceID),
		zap.String("name", device.Name()),
	)
	device.HandleState(payload)
}

// handleSetStateInfo routes a mixed list of incremental updates. Each item
// addresses a device, a room or a component via its id field; items with
// none of the three are dropped.
func (b *Bridge) handleSetStateInfo(payload map[string]any) {
	items, ok := protocol.ObjectList(payload, "item")
	if !ok {
		logging.Warn("State info without item list", zap.Any("payload", payload))
		return
	}
	logging.Debug("Handling state info update", zap.Int("items", len(items)))

	for _, item := range items {
		switch {
		case hasField(item, "deviceId"):
			deviceID, _ := protocol.IntField(item, "deviceId")
			if device := b.registry.Device(deviceID); device != nil {
				device.HandleState(item)
			} else {
				logging.Warn("State info for unknown device", zap.Int("device_id", deviceID))
			}

		case hasField(item, "roomId"):
			roomID, _ := protocol.IntField(item, "roomId")
			if room := b.registry.Room(roomID); room != nil {
				room.HandleState(item)
			} else {
				logging.Warn("State info for unknown room", zap.Int("room_id", roomID))
			}

		case hasField(item, "compId"):
			compID, _ := protocol.IntField(item, "compId")
			if comp := b.registry.Comp(compID); comp != nil {
				comp.HandleState(item)
			} else {
				logging.Warn("State info for unknown component", zap.Int("comp_id", compID))
			}

		default:
			logging.Warn("State info item without deviceId, roomId or compId", zap.Any("item", item))
		}
	}
}

func hasField(payload map[string]any, key string) bool {
	_, ok := payload[key]
	return ok
}
