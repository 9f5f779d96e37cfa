package secure

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
	"github.com/muurk/xcbridge/internal/transport"
)

// frameDelimiter terminates every encrypted wire frame. The transport does
// not segment records itself, so the receiver recognizes a frame boundary by
// this single trailing byte.
const frameDelimiter = 0x04

// Channel is the authenticated encrypted channel to the bridge. It owns one
// AES key/IV pair and the monotonically increasing outbound message counter.
//
// A Channel belongs to exactly one successful handshake and is never reused
// across reconnects; a new handshake always produces a new key, IV and
// counter.
type Channel struct {
	transport transport.Transport
	key       []byte
	iv        []byte

	// mu serializes every encode+send pair. Interleaving two encodes would
	// race on the counter and corrupt the record stream.
	mu sync.Mutex
	mc int
}

// NewChannel creates a channel over an established transport with the
// session secret agreed during the handshake.
func NewChannel(t transport.Transport, key, iv []byte) *Channel {
	return &Channel{transport: t, key: key, iv: iv}
}

// Counter returns the current outbound message counter.
func (c *Channel) Counter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mc
}

// EncodeMessage increments the counter and encodes a counted payload message
// into its wire frame.
func (c *Channel) EncodeMessage(t protocol.MessageType, payload map[string]any) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encodeMessageLocked(t, payload)
}

func (c *Channel) encodeMessageLocked(t protocol.MessageType, payload map[string]any) ([]byte, error) {
	c.mc++
	return c.encodeEnvelope(protocol.NewMessage(t, c.mc, payload))
}

// encodeEnvelope serializes, zero-pads, encrypts and base64-encodes an
// envelope, appending the frame delimiter.
func (c *Channel) encodeEnvelope(env protocol.Envelope) ([]byte, error) {
	plain, err := env.Marshal()
	if err != nil {
		return nil, NewMalformedFrame("failed to serialize envelope", err)
	}

	ct, err := encryptCBC(c.key, c.iv, pad(plain))
	if err != nil {
		return nil, err
	}

	encoded := base64.StdEncoding.EncodeToString(ct)
	frame := make([]byte, 0, len(encoded)+1)
	frame = append(frame, encoded...)
	frame = append(frame, frameDelimiter)
	return frame, nil
}

// Decode turns a received wire frame back into an envelope. An empty
// plaintext decodes to an empty envelope, which the pump drops.
func (c *Channel) Decode(frame []byte) (protocol.Envelope, error) {
	frame = bytes.TrimSuffix(frame, []byte{frameDelimiter})

	ct, err := base64.StdEncoding.DecodeString(string(frame))
	if err != nil {
		return protocol.Envelope{}, NewMalformedFrame("frame is not valid base64", err)
	}

	plain, err := decryptCBC(c.key, c.iv, ct)
	if err != nil {
		return protocol.Envelope{}, err
	}
	plain = unpad(plain)

	if len(plain) == 0 {
		return protocol.Envelope{}, nil
	}

	var env protocol.Envelope
	if err := json.Unmarshal(plain, &env); err != nil {
		logging.LogRawBytes("Undecodable frame plaintext", plain)
		return protocol.Envelope{}, NewMalformedFrame("decrypted frame is not valid JSON", err)
	}
	return env, nil
}

// SendMessage encodes and sends a counted payload message. The counter
// increment, encryption and write happen under one lock so concurrent
// callers never interleave two records.
func (c *Channel) SendMessage(ctx context.Context, t protocol.MessageType, payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame, err := c.encodeMessageLocked(t, payload)
	if err != nil {
		return err
	}
	logging.LogFrame("sent", int(t), c.mc, len(frame))
	if err := c.transport.Send(ctx, frame); err != nil {
		return NewTransportError("failed to send message", err)
	}
	return nil
}

// Send encodes and sends an uncounted control envelope (acknowledgements).
func (c *Channel) Send(ctx context.Context, env protocol.Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	frame, err := c.encodeEnvelope(env)
	if err != nil {
		return err
	}
	logging.LogFrame("sent", int(env.TypeInt), env.Counter(), len(frame))
	if err := c.transport.Send(ctx, frame); err != nil {
		return NewTransportError("failed to send control frame", err)
	}
	return nil
}

// Receive blocks for the next frame and decodes it.
func (c *Channel) Receive(ctx context.Context) (protocol.Envelope, error) {
	data, err := c.transport.Receive(ctx)
	if err != nil {
		return protocol.Envelope{}, NewTransportError("failed to receive frame", err)
	}
	env, err := c.Decode(data)
	if err != nil {
		return protocol.Envelope{}, err
	}
	logging.LogFrame("received", int(env.TypeInt), env.Counter(), len(data))
	return env, nil
}

// Close tears down the underlying transport.
func (c *Channel) Close() error {
	return c.transport.Close()
}
