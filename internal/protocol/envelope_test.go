package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEnvelopeMarshal(t *testing.T) {
	tests := []struct {
		name   string
		env    Envelope
		verify func(t *testing.T, raw string, decoded map[string]any)
	}{
		{
			name: "counted message carries mc",
			env:  NewMessage(MsgRequestAllData, 3, map[string]any{}),
			verify: func(t *testing.T, raw string, decoded map[string]any) {
				if decoded["mc"] != float64(3) {
					t.Errorf("mc = %v, want 3", decoded["mc"])
				}
				if decoded["type_int"] != float64(2) {
					t.Errorf("type_int = %v, want 2", decoded["type_int"])
				}
			},
		},
		{
			name: "empty payload map serializes as an empty object",
			env:  NewMessage(MsgSubscribeStateInfo, 1, map[string]any{}),
			verify: func(t *testing.T, raw string, decoded map[string]any) {
				payload, ok := decoded["payload"]
				if !ok {
					t.Fatalf("empty payload map was dropped: %s", raw)
				}
				obj, ok := payload.(map[string]any)
				if !ok || len(obj) != 0 {
					t.Errorf("payload = %v, want empty object", payload)
				}
			},
		},
		{
			name: "control message carries mc -1",
			env:  NewControl(MsgInitiateSecure, nil),
			verify: func(t *testing.T, raw string, decoded map[string]any) {
				if decoded["mc"] != float64(-1) {
					t.Errorf("mc = %v, want -1", decoded["mc"])
				}
				if _, ok := decoded["payload"]; ok {
					t.Error("nil payload was serialized")
				}
			},
		},
		{
			name: "ack carries ref and no mc",
			env:  NewAck(17),
			verify: func(t *testing.T, raw string, decoded map[string]any) {
				if decoded["ref"] != float64(17) {
					t.Errorf("ref = %v, want 17", decoded["ref"])
				}
				if strings.Contains(raw, `"mc"`) {
					t.Errorf("ack serialized an mc field: %s", raw)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.env.Marshal()
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("output is not valid JSON: %v", err)
			}
			tt.verify(t, string(data), decoded)
		})
	}
}

func TestEnvelopeCounter(t *testing.T) {
	var env Envelope
	if err := json.Unmarshal([]byte(`{"type_int":310,"mc":-1,"payload":{}}`), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// mc -1 still counts as present: unsolicited pushes must be acked.
	if !env.HasCounter() {
		t.Error("HasCounter() = false for mc -1")
	}
	if env.Counter() != -1 {
		t.Errorf("Counter() = %d, want -1", env.Counter())
	}

	var control Envelope
	if err := json.Unmarshal([]byte(`{"type_int":1,"ref":4}`), &control); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if control.HasCounter() {
		t.Error("HasCounter() = true for a frame without mc")
	}
	if control.Counter() != -1 {
		t.Errorf("Counter() = %d, want -1 when absent", control.Counter())
	}
}

func TestMessageTypeString(t *testing.T) {
	if got := MsgSetAllData.String(); got != "SET_ALL_DATA" {
		t.Errorf("MsgSetAllData.String() = %q", got)
	}
	if got := MessageType(9999).String(); got != "UNKNOWN" {
		t.Errorf("unknown type String() = %q", got)
	}
}
