package entity

import (
	"context"

	"github.com/muurk/xcbridge/internal/protocol"
)

// sentCommand records one outbound command captured by the fake commander.
type sentCommand struct {
	messageType protocol.MessageType
	payload     map[string]any
}

// fakeCommander captures commands the way the connection supervisor would
// send them, merging deviceId into switch/slide payloads.
type fakeCommander struct {
	sent []sentCommand
	err  error
}

func (f *fakeCommander) SwitchDevice(ctx context.Context, deviceID int, payload map[string]any) error {
	merged := map[string]any{"deviceId": deviceID}
	for k, v := range payload {
		merged[k] = v
	}
	return f.record(protocol.MsgActionSwitchDevice, merged)
}

func (f *fakeCommander) SlideDevice(ctx context.Context, deviceID int, payload map[string]any) error {
	merged := map[string]any{"deviceId": deviceID}
	for k, v := range payload {
		merged[k] = v
	}
	return f.record(protocol.MsgActionSlideDevice, merged)
}

func (f *fakeCommander) SendMessage(_ context.Context, t protocol.MessageType, payload map[string]any) error {
	return f.record(t, payload)
}

func (f *fakeCommander) record(t protocol.MessageType, payload map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCommand{messageType: t, payload: payload})
	return nil
}

func (f *fakeCommander) last() (sentCommand, bool) {
	if len(f.sent) == 0 {
		return sentCommand{}, false
	}
	return f.sent[len(f.sent)-1], true
}

func boolPtr(v bool) *bool        { return &v }
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
