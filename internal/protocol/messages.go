package protocol

// MessageType identifies a wire message by its type_int code.
type MessageType int

// Control and handshake message types (from live capture of the official app).
const (
	MsgNack               MessageType = 0  // Connection refused, info string in "info"
	MsgAck                MessageType = 1  // Acknowledgement, references inbound mc in "ref"
	MsgRequestAllData     MessageType = 2  // Bootstrap: request full entity snapshot
	MsgClientConnect      MessageType = 11 // Client identification after hello
	MsgConnectionDeclined MessageType = 12 // Bridge declined the identified client
	MsgInitiateSecure     MessageType = 14 // Start key exchange
	MsgSecret             MessageType = 16 // RSA-encrypted AES key/IV blob
	MsgSecureEstablished  MessageType = 17 // Bridge confirms encrypted channel
	MsgLoginRequest       MessageType = 30
	MsgLoginResponse      MessageType = 32 // Carries session token
	MsgTokenSubmit        MessageType = 33
	MsgTokenValidation    MessageType = 34 // Valid flag + remaining lifetime
	MsgTokenRenewRequest  MessageType = 37
	MsgTokenRenewResponse MessageType = 38 // Carries renewed token
)

// Bootstrap subscription message types, sent once with empty payloads after
// every handshake. 240 and 242 subscribe to state/status pushes, 2 requests
// the full snapshot.
const (
	MsgSubscribeStateInfo MessageType = 240
	MsgSubscribeStatus    MessageType = 242
)

// Application message types for entity snapshots, incremental updates and
// outbound commands.
const (
	MsgSetAllData            MessageType = 300 // Bulk snapshot: devices/comps/rooms/roomHeating
	MsgSetHomeData           MessageType = 301 // Bridge identity, firmware build, home scenes
	MsgSetDeviceState        MessageType = 310 // Single device update
	MsgSetStateInfo          MessageType = 320 // Mixed-bag list of device/room/comp items
	MsgActionSwitchDevice    MessageType = 281 // {deviceId, switch: bool}
	MsgActionSlideDevice     MessageType = 282 // {deviceId, dimmvalue: 0..99}
	MsgSetDeviceShadingState MessageType = 283 // {deviceId, state, value?}
	MsgSetHeatingState       MessageType = 284 // {roomId, mode, state, setpoint, confirmed}
)

// String returns the symbolic name for known message types.
func (m MessageType) String() string {
	switch m {
	case MsgNack:
		return "NACK"
	case MsgAck:
		return "ACK"
	case MsgRequestAllData:
		return "REQUEST_ALL_DATA"
	case MsgClientConnect:
		return "CLIENT_CONNECT"
	case MsgConnectionDeclined:
		return "CONNECTION_DECLINED"
	case MsgInitiateSecure:
		return "INITIATE_SECURE"
	case MsgSecret:
		return "SECRET"
	case MsgSecureEstablished:
		return "SECURE_ESTABLISHED"
	case MsgLoginRequest:
		return "LOGIN_REQUEST"
	case MsgLoginResponse:
		return "LOGIN_RESPONSE"
	case MsgTokenSubmit:
		return "TOKEN_SUBMIT"
	case MsgTokenValidation:
		return "TOKEN_VALIDATION"
	case MsgTokenRenewRequest:
		return "TOKEN_RENEW_REQUEST"
	case MsgTokenRenewResponse:
		return "TOKEN_RENEW_RESPONSE"
	case MsgSubscribeStateInfo:
		return "SUBSCRIBE_STATE_INFO"
	case MsgSubscribeStatus:
		return "SUBSCRIBE_STATUS"
	case MsgSetAllData:
		return "SET_ALL_DATA"
	case MsgSetHomeData:
		return "SET_HOME_DATA"
	case MsgSetDeviceState:
		return "SET_DEVICE_STATE"
	case MsgSetStateInfo:
		return "SET_STATE_INFO"
	case MsgActionSwitchDevice:
		return "ACTION_SWITCH_DEVICE"
	case MsgActionSlideDevice:
		return "ACTION_SLIDE_DEVICE"
	case MsgSetDeviceShadingState:
		return "SET_DEVICE_SHADING_STATE"
	case MsgSetHeatingState:
		return "SET_HEATING_STATE"
	default:
		return "UNKNOWN"
	}
}

// Device type codes from the devType descriptor field. The codes overlap in
// meaning: an ACTUATOR_SWITCH with usage 1 is a load, not a light, and a
// SWITCH is only a door/window sensor when its component says so.
const (
	DevTypeActuatorSwitch  = 100
	DevTypeActuatorDimm    = 101
	DevTypeShadingActuator = 102
	DevTypeHeatingActuator = 105
	DevTypeSwitch          = 120
	DevTypeRocker          = 130
	DevTypeRcTouch         = 450
)

// Component type codes from the compType descriptor field.
const (
	CompTypeDoorWindowSensor      = 82
	CompTypeShadeGoTo             = 86 // Shading actuator that accepts go-to-position
	CompTypeMultiSensorPushButton = 87 // Push button with companion temp/humidity sensor
)

// Shade operation codes for the state field of SET_DEVICE_SHADING_STATE.
const (
	ShadeOpClose = 0
	ShadeOpOpen  = 1
	ShadeOpStop  = 2
	ShadeOpGoTo  = 3
)

// Info array codes used by RC Touch and companion sensor devices. Values
// arrive as {text, value} string pairs.
const (
	InfoCodeTemperature = "1222"
	InfoCodeHumidity    = "1223"
)

// Client identification presented during the handshake. The bridge only
// admits known client types; these values match the official app.
const (
	ClientType    = "shl-app"
	ClientID      = "c956e43f999f8004"
	ClientVersion = "3.0.0"
)

// FirmwareBuilds maps fwBuild numbers from SET_HOME_DATA to released version
// strings. Unknown builds are reported as "Unknown (build N)".
var FirmwareBuilds = map[int]string{
	230: "1.6.0",
	242: "1.7.1",
	255: "2.0.0",
	268: "2.1.2",
	275: "3.0.0",
	281: "3.1.0",
}
