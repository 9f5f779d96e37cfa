package protocol

import "encoding/json"

// Envelope is the JSON object carried by every wire frame, before encryption
// during the handshake and inside the AES-CBC records afterwards.
//
// MC is a pointer because its presence matters independently of its value:
// inbound records carrying any mc (including -1) must be acknowledged, while
// control records omit it entirely. Unsolicited outbound control frames use
// mc -1.
type Envelope struct {
	TypeInt MessageType    `json:"type_int"`
	MC      *int           `json:"mc,omitempty"`
	Ref     *int           `json:"ref,omitempty"`
	Info    string         `json:"info,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// envelopeWire is the marshaling shape. Payload is raw so a non-nil empty
// map still serializes as {}: the bridge's bootstrap requests carry an empty
// payload object, and omitting the key changes the frame.
type envelopeWire struct {
	TypeInt MessageType     `json:"type_int"`
	MC      *int            `json:"mc,omitempty"`
	Ref     *int            `json:"ref,omitempty"`
	Info    string          `json:"info,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON serializes the envelope, keeping the payload key for non-nil
// empty maps and dropping it only when the payload is nil.
func (e Envelope) MarshalJSON() ([]byte, error) {
	wire := envelopeWire{TypeInt: e.TypeInt, MC: e.MC, Ref: e.Ref, Info: e.Info}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		wire.Payload = raw
	}
	return json.Marshal(wire)
}

// NewMessage builds an envelope for a counted payload message.
func NewMessage(t MessageType, mc int, payload map[string]any) Envelope {
	return Envelope{TypeInt: t, MC: &mc, Payload: payload}
}

// NewControl builds an unsolicited control envelope with mc -1.
func NewControl(t MessageType, payload map[string]any) Envelope {
	mc := -1
	return Envelope{TypeInt: t, MC: &mc, Payload: payload}
}

// NewAck builds an acknowledgement referencing an inbound message counter.
// ACK frames carry no mc of their own.
func NewAck(ref int) Envelope {
	return Envelope{TypeInt: MsgAck, Ref: &ref}
}

// HasCounter reports whether the envelope carries a message counter.
func (e Envelope) HasCounter() bool {
	return e.MC != nil
}

// Counter returns the message counter, or -1 when absent.
func (e Envelope) Counter() int {
	if e.MC == nil {
		return -1
	}
	return *e.MC
}

// Marshal serializes the envelope to its JSON wire form.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
