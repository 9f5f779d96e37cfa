package secure

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/xcbridge/internal/protocol"
)

// fakeBridge emulates the bridge side of the handshake: a scripted state
// machine that answers each client frame the way a real bridge would,
// including decrypting the RSA secret and switching to encrypted records.
type fakeBridge struct {
	t       *testing.T
	priv    *rsa.PrivateKey
	authKey string

	key []byte
	iv  []byte

	responses [][]byte
	closed    bool

	declineClient bool
	rejectHello   bool
}

func newFakeBridge(t *testing.T, authKey string) *fakeBridge {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey() error = %v", err)
	}
	fb := &fakeBridge{t: t, priv: priv, authKey: authKey}
	fb.queuePlain(fb.helloEnvelope())
	return fb
}

func (f *fakeBridge) helloEnvelope() map[string]any {
	if f.rejectHello {
		return map[string]any{"type_int": int(protocol.MsgNack), "info": "no free slots"}
	}
	return map[string]any{
		"type_int": 10,
		"payload": map[string]any{
			"device_id":     "bridge-42",
			"connection_id": "conn-1",
		},
	}
}

func (f *fakeBridge) queuePlain(env map[string]any) {
	data, err := json.Marshal(env)
	if err != nil {
		f.t.Fatalf("marshal response: %v", err)
	}
	f.responses = append(f.responses, append(data, frameDelimiter))
}

func (f *fakeBridge) queueEncrypted(env map[string]any) {
	data, err := json.Marshal(env)
	if err != nil {
		f.t.Fatalf("marshal response: %v", err)
	}
	ct, err := encryptCBC(f.key, f.iv, pad(data))
	if err != nil {
		f.t.Fatalf("encrypt response: %v", err)
	}
	frame := append([]byte(base64.StdEncoding.EncodeToString(ct)), frameDelimiter)
	f.responses = append(f.responses, frame)
}

func (f *fakeBridge) publicKeyPEM() string {
	pkix, err := x509.MarshalPKIXPublicKey(&f.priv.PublicKey)
	if err != nil {
		f.t.Fatalf("marshal public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix}))
}

// Send consumes one client frame and queues the bridge's scripted reply.
func (f *fakeBridge) Send(_ context.Context, data []byte) error {
	var env map[string]any
	if f.key == nil {
		if err := json.Unmarshal(data, &env); err != nil {
			f.t.Fatalf("client sent invalid plaintext frame: %v", err)
		}
	} else {
		ct, err := base64.StdEncoding.DecodeString(strings.TrimSuffix(string(data), "\x04"))
		if err != nil {
			f.t.Fatalf("client sent invalid base64 frame: %v", err)
		}
		plain, err := decryptCBC(f.key, f.iv, ct)
		if err != nil {
			f.t.Fatalf("client frame failed to decrypt: %v", err)
		}
		if err := json.Unmarshal(unpad(plain), &env); err != nil {
			f.t.Fatalf("client sent invalid encrypted frame: %v", err)
		}
	}

	typeInt, _ := protocol.IntField(env, "type_int")
	payload, _ := env["payload"].(map[string]any)

	switch protocol.MessageType(typeInt) {
	case protocol.MsgClientConnect:
		if ct, _ := protocol.StringField(payload, "client_type"); ct != protocol.ClientType {
			f.t.Errorf("client_type = %q, want %q", ct, protocol.ClientType)
		}
		if cid, ok := payload["connection_id"]; !ok || cid != "conn-1" {
			f.t.Errorf("connection_id = %v, want conn-1", cid)
		}
		if f.declineClient {
			f.queuePlain(map[string]any{
				"type_int": int(protocol.MsgConnectionDeclined),
				"payload":  map[string]any{"error_message": "client not allowed"},
			})
		} else {
			f.queuePlain(map[string]any{"type_int": 13, "payload": map[string]any{}})
		}

	case protocol.MsgInitiateSecure:
		f.queuePlain(map[string]any{
			"type_int": 15,
			"payload":  map[string]any{"public_key": f.publicKeyPEM()},
		})

	case protocol.MsgSecret:
		secret, _ := protocol.StringField(payload, "secret")
		ct, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			f.t.Fatalf("secret is not base64: %v", err)
		}
		blob, err := rsa.DecryptPKCS1v15(nil, f.priv, ct)
		if err != nil {
			f.t.Fatalf("secret failed to decrypt: %v", err)
		}
		parts := strings.Split(string(blob), ":::")
		if len(parts) != 2 {
			f.t.Fatalf("secret blob = %q, want hex:::hex", blob)
		}
		if f.key, err = hex.DecodeString(parts[0]); err != nil {
			f.t.Fatalf("secret key is not hex: %v", err)
		}
		if f.iv, err = hex.DecodeString(parts[1]); err != nil {
			f.t.Fatalf("secret iv is not hex: %v", err)
		}
		f.queueEncrypted(map[string]any{"type_int": int(protocol.MsgSecureEstablished)})

	case protocol.MsgLoginRequest:
		salt, _ := protocol.StringField(payload, "salt")
		password, _ := protocol.StringField(payload, "password")
		want := HashPassword([]byte("bridge-42"), []byte(f.authKey), []byte(salt))
		if password != want {
			f.t.Errorf("login password = %s, want %s", password, want)
		}
		f.queueEncrypted(map[string]any{
			"type_int": int(protocol.MsgLoginResponse),
			"payload":  map[string]any{"token": "token-initial"},
		})

	case protocol.MsgTokenSubmit:
		f.queueEncrypted(map[string]any{
			"type_int": int(protocol.MsgTokenValidation),
			"payload":  map[string]any{"valid": true, "remaining": 3600},
		})

	case protocol.MsgTokenRenewRequest:
		if token, _ := protocol.StringField(payload, "token"); token != "token-initial" {
			f.t.Errorf("renew request token = %q, want token-initial", token)
		}
		f.queueEncrypted(map[string]any{
			"type_int": int(protocol.MsgTokenRenewResponse),
			"payload":  map[string]any{"token": "token-renewed"},
		})
	}

	return nil
}

func (f *fakeBridge) Receive(_ context.Context) ([]byte, error) {
	if len(f.responses) == 0 {
		return nil, errors.New("fake bridge has no response queued")
	}
	frame := f.responses[0]
	f.responses = f.responses[1:]
	return frame, nil
}

func (f *fakeBridge) Close() error {
	f.closed = true
	return nil
}

func TestEstablish(t *testing.T) {
	fb := newFakeBridge(t, "auth-key-123")

	channel, deviceID, err := Establish(context.Background(), fb, "192.168.1.50", "auth-key-123")
	if err != nil {
		t.Fatalf("Establish() error = %v", err)
	}

	if deviceID != "bridge-42" {
		t.Errorf("deviceID = %q, want bridge-42", deviceID)
	}
	if channel == nil {
		t.Fatal("Establish() returned nil channel")
	}

	// Login, two token submits and the renewal consume four counted messages.
	if channel.Counter() != 4 {
		t.Errorf("counter after handshake = %d, want 4", channel.Counter())
	}
	if fb.closed {
		t.Error("transport was closed despite successful handshake")
	}
}

func TestEstablishRejectedHello(t *testing.T) {
	fb := newFakeBridge(t, "auth-key-123")
	fb.rejectHello = true
	fb.responses = nil
	fb.queuePlain(fb.helloEnvelope())

	_, _, err := Establish(context.Background(), fb, "192.168.1.50", "auth-key-123")
	if !IsConnectionRejected(err) {
		t.Fatalf("Establish() error = %v, want connection rejected", err)
	}
	if !strings.Contains(err.Error(), "no free slots") {
		t.Errorf("error does not carry the bridge's info string: %v", err)
	}
	if !fb.closed {
		t.Error("transport not closed after rejection")
	}
}

func TestEstablishDeclinedClient(t *testing.T) {
	fb := newFakeBridge(t, "auth-key-123")
	fb.declineClient = true

	_, _, err := Establish(context.Background(), fb, "192.168.1.50", "auth-key-123")
	if !IsConnectionRejected(err) {
		t.Fatalf("Establish() error = %v, want connection rejected", err)
	}
	if !fb.closed {
		t.Error("transport not closed after decline")
	}
}

func TestEstablishTransportFailure(t *testing.T) {
	fb := newFakeBridge(t, "auth-key-123")
	fb.responses = nil // nothing queued: first receive fails

	_, _, err := Establish(context.Background(), fb, "192.168.1.50", "auth-key-123")
	if err == nil {
		t.Fatal("Establish() succeeded with a dead transport")
	}
	if !fb.closed {
		t.Error("transport not closed after failure")
	}
}
