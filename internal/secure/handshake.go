package secure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
	"github.com/muurk/xcbridge/internal/transport"
)

// Establish runs the full connection handshake over a freshly dialed
// transport and returns the ready encrypted channel plus the bridge's device
// id. The exchange is strictly sequential; any unexpected response aborts,
// and the transport is closed before the error propagates.
//
// Sequence: plaintext hello (NACK check), client identification, secure
// channel key exchange, login with the salted password hash, then token
// validation and renewal. The token is always renewed once per connection
// regardless of its remaining lifetime, matching the official client.
func Establish(ctx context.Context, t transport.Transport, address, authKey string) (channel *Channel, deviceID string, err error) {
	logging.Info("Establishing secure connection", zap.String("bridge_addr", address))

	defer func() {
		if err != nil {
			_ = t.Close()
		}
	}()

	// Step 1: hello frame arrives plaintext before any key exchange.
	hello, err := receivePlain(ctx, t)
	if err != nil {
		return nil, "", err
	}
	if hello.TypeInt == protocol.MsgNack {
		return nil, "", NewConnectionRejected(hello.Info)
	}

	deviceID, ok := protocol.StringField(hello.Payload, "device_id")
	if !ok {
		if raw, present := hello.Payload["device_id"]; present {
			deviceID = fmt.Sprint(raw)
		} else {
			return nil, "", NewHandshakeFailed("hello payload missing device_id")
		}
	}
	connectionID, present := hello.Payload["connection_id"]
	if !present {
		return nil, "", NewHandshakeFailed("hello payload missing connection_id")
	}
	logging.LogHandshakeStep(address, "hello", int(hello.TypeInt))

	// Step 2: identify ourselves as a known client type.
	err = sendPlain(ctx, t, protocol.NewControl(protocol.MsgClientConnect, map[string]any{
		"client_type":    protocol.ClientType,
		"client_id":      protocol.ClientID,
		"client_version": protocol.ClientVersion,
		"connection_id":  connectionID,
	}))
	if err != nil {
		return nil, "", err
	}

	resp, err := receivePlain(ctx, t)
	if err != nil {
		return nil, "", err
	}
	if resp.TypeInt == protocol.MsgConnectionDeclined {
		msg, _ := protocol.StringField(resp.Payload, "error_message")
		return nil, "", NewConnectionRejected(msg)
	}
	logging.LogHandshakeStep(address, "client_accepted", int(resp.TypeInt))

	// Step 3: request the bridge's RSA public key.
	if err := sendPlain(ctx, t, protocol.NewControl(protocol.MsgInitiateSecure, nil)); err != nil {
		return nil, "", err
	}

	keyMsg, err := receivePlain(ctx, t)
	if err != nil {
		return nil, "", err
	}
	pubPEM, ok := protocol.StringField(keyMsg.Payload, "public_key")
	if !ok {
		return nil, "", NewHandshakeFailed("secure response missing public_key")
	}
	pub, err := ParsePublicKey([]byte(pubPEM))
	if err != nil {
		return nil, "", err
	}
	logging.LogHandshakeStep(address, "public_key", int(keyMsg.TypeInt))

	// Step 4: generate the session secret and deliver it RSA-encrypted.
	key, iv, err := GenerateSessionSecret()
	if err != nil {
		return nil, "", err
	}
	secret, err := EncryptSecret(pub, key, iv)
	if err != nil {
		return nil, "", err
	}
	err = sendPlain(ctx, t, protocol.NewControl(protocol.MsgSecret, map[string]any{"secret": secret}))
	if err != nil {
		return nil, "", err
	}

	// From here the channel exists but is receive-only until the bridge
	// confirms it end to end.
	channel = NewChannel(t, key, iv)

	ack, err := channel.Receive(ctx)
	if err != nil {
		return nil, "", err
	}
	if ack.TypeInt != protocol.MsgSecureEstablished {
		return nil, "", NewHandshakeFailed("secure connection not established")
	}
	logging.LogHandshakeStep(address, "secure_established", int(ack.TypeInt))

	// Step 5: log in with the salted double-SHA-256 password hash.
	salt, err := GenerateSalt()
	if err != nil {
		return nil, "", err
	}
	password := HashPassword([]byte(deviceID), []byte(authKey), []byte(salt))

	err = channel.SendMessage(ctx, protocol.MsgLoginRequest, map[string]any{
		"username": "default",
		"password": password,
		"salt":     salt,
	})
	if err != nil {
		return nil, "", err
	}

	login, err := channel.Receive(ctx)
	if err != nil {
		return nil, "", err
	}
	if login.TypeInt != protocol.MsgLoginResponse {
		return nil, "", NewHandshakeFailed("login failed")
	}
	token, ok := protocol.StringField(login.Payload, "token")
	if !ok {
		return nil, "", NewHandshakeFailed("login response missing token")
	}
	logging.LogHandshakeStep(address, "login_ok", int(login.TypeInt))

	// Step 6: validate, renew, validate again. The validation acks are
	// informational only; the renewal response is gating.
	if err := submitToken(ctx, channel, address, token); err != nil {
		return nil, "", err
	}

	err = channel.SendMessage(ctx, protocol.MsgTokenRenewRequest, map[string]any{"token": token})
	if err != nil {
		return nil, "", err
	}
	renewed, err := channel.Receive(ctx)
	if err != nil {
		return nil, "", err
	}
	if renewed.TypeInt != protocol.MsgTokenRenewResponse {
		return nil, "", NewHandshakeFailed("token renewal failed")
	}
	token, ok = protocol.StringField(renewed.Payload, "token")
	if !ok {
		return nil, "", NewHandshakeFailed("renewal response missing token")
	}
	logging.LogHandshakeStep(address, "token_renewed", int(renewed.TypeInt))

	if err := submitToken(ctx, channel, address, token); err != nil {
		return nil, "", err
	}

	logging.Info("Secure connection established",
		zap.String("bridge_addr", address),
		zap.String("device_id", deviceID),
	)
	return channel, deviceID, nil
}

// submitToken sends a token-submit message and reads the validation ack.
// The ack's valid flag and remaining lifetime are logged but never gate the
// handshake.
func submitToken(ctx context.Context, channel *Channel, address, token string) error {
	err := channel.SendMessage(ctx, protocol.MsgTokenSubmit, map[string]any{"token": token})
	if err != nil {
		return err
	}
	ack, err := channel.Receive(ctx)
	if err != nil {
		return err
	}
	valid, _ := protocol.BoolField(ack.Payload, "valid")
	remaining, _ := protocol.IntField(ack.Payload, "remaining")
	logging.Debug("Token validation response",
		zap.String("bridge_addr", address),
		zap.Bool("valid", valid),
		zap.Int("remaining", remaining),
	)
	return nil
}

// receivePlain reads a plaintext JSON frame, used only before the secure
// channel exists. The bridge terminates plaintext frames with the same 0x04
// delimiter as encrypted ones.
func receivePlain(ctx context.Context, t transport.Transport) (protocol.Envelope, error) {
	data, err := t.Receive(ctx)
	if err != nil {
		return protocol.Envelope{}, NewTransportError("failed to receive handshake frame", err)
	}
	data = bytes.TrimSuffix(data, []byte{frameDelimiter})

	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return protocol.Envelope{}, NewMalformedFrame("handshake frame is not valid JSON", err)
	}
	return env, nil
}

// sendPlain writes a plaintext JSON frame. Plaintext frames carry no
// delimiter; only encrypted records do.
func sendPlain(ctx context.Context, t transport.Transport, env protocol.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return NewMalformedFrame("failed to serialize handshake frame", err)
	}
	if err := t.Send(ctx, data); err != nil {
		return NewTransportError("failed to send handshake frame", err)
	}
	return nil
}
