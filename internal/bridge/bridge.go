package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/xcbridge/internal/entity"
	"github.com/muurk/xcbridge/internal/logging"
	"github.com/muurk/xcbridge/internal/protocol"
	"github.com/muurk/xcbridge/internal/secure"
	"github.com/muurk/xcbridge/internal/transport"
)

// Package-level errors returned by Bridge operations.
var (
	// ErrAlreadyRunning is returned by Run when the bridge is not in its
	// uninitialized state.
	ErrAlreadyRunning = errors.New("bridge is already running")

	// ErrNotConnected is returned by commands issued while no encrypted
	// channel is established.
	ErrNotConnected = errors.New("not connected to bridge")
)

// State is the supervisor lifecycle state.
type State int

// Supervisor lifecycle states. The bridge moves Uninitialized to
// Initializing on Run, Initializing to Ready when the full snapshot has
// been loaded, and to Closing on Close. Reconnects do not leave Ready.
const (
	StateUninitialized State = 0
	StateInitializing  State = 1
	StateReady         State = 2
	StateClosing       State = 10
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateInitializing:
		return "Initializing"
	case StateReady:
		return "Ready"
	case StateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// defaultRetryInterval is the fixed delay between reconnect attempts.
// Attempts are unbounded; the bridge keeps trying until Close.
const defaultRetryInterval = 5 * time.Second

// Bridge is the connection supervisor for one xComfort bridge. It owns the
// connect/handshake/pump/reconnect loop and the entity registry, and it
// implements entity.Commander for outbound commands.
type Bridge struct {
	address       string
	authKey       string
	dialer        transport.Dialer
	retryInterval time.Duration

	registry *entity.Registry

	mu       sync.Mutex
	state    State
	channel  *secure.Channel
	deviceID string

	initOnce    sync.Once
	initialized chan struct{}

	// Bridge identity from SET_HOME_DATA.
	bridgeID        string
	bridgeName      string
	bridgeType      string
	firmwareVersion string
	homeSceneCount  int
	homeData        map[string]any
}

// New creates a bridge supervisor for the given address and authentication
// key. Nothing connects until Run is called.
func New(address, authKey string) *Bridge {
	return NewWithDialer(address, authKey, transport.NewWebsocketDialer())
}

// NewWithDialer creates a bridge supervisor with a custom transport dialer.
func NewWithDialer(address, authKey string, dialer transport.Dialer) *Bridge {
	b := &Bridge{
		address:       address,
		authKey:       authKey,
		dialer:        dialer,
		retryInterval: defaultRetryInterval,
		initialized:   make(chan struct{}),
	}
	b.registry = entity.NewRegistry(b)
	logging.Info("Initialized bridge client", zap.String("address", address))
	return b
}

// State returns the supervisor state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run drives the supervisor until Close is called or the context is
// canceled. Every connection failure is retried after a fixed delay; the
// registry and all entity subscriptions survive reconnects.
func (b *Bridge) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateUninitialized {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.state = StateInitializing
	b.mu.Unlock()

	logging.Info("Starting bridge main loop", zap.String("address", b.address))

	for {
		if b.State() == StateClosing {
			break
		}
		if err := ctx.Err(); err != nil {
			b.setState(StateClosing)
			break
		}

		err := b.connectAndPump(ctx)
		if b.State() == StateClosing || ctx.Err() != nil {
			break
		}

		logging.Error("Connection error, retrying",
			zap.String("address", b.address),
			zap.Duration("retry_in", b.retryInterval),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			b.setState(StateClosing)
		case <-time.After(b.retryInterval):
		}
	}

	b.setState(StateUninitialized)
	logging.Info("Bridge main loop stopped", zap.String("address", b.address))
	return nil
}

// connectAndPump performs one full connection lifetime: dial, handshake,
// bootstrap, then pump messages until the connection dies.
func (b *Bridge) connectAndPump(ctx context.Context) error {
	logging.Debug("Connecting to bridge", zap.String("address", b.address))

	t, err := b.dialer.Dial(ctx, b.address)
	if err != nil {
		return err
	}

	channel, deviceID, err := secure.Establish(ctx, t, b.address, b.authKey)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.channel = channel
	b.deviceID = deviceID
	b.mu.Unlock()

	logging.Info("Connected to bridge, starting message pump",
		zap.String("address", b.address),
		zap.String("bridge_device_id", deviceID),
	)

	err = b.pump(ctx, channel)

	b.mu.Lock()
	b.channel = nil
	b.mu.Unlock()
	channel.Close()

	return err
}

// pump subscribes to state pushes, requests the full snapshot, then decodes
// and dispatches inbound frames. Every counted frame is acknowledged before
// dispatch, unsolicited or not.
func (b *Bridge) pump(ctx context.Context, channel *secure.Channel) error {
	logging.Debug("Requesting initial data from bridge")
	for _, t := range []protocol.MessageType{
		protocol.MsgSubscribeStateInfo,
		protocol.MsgSubscribeStatus,
		protocol.MsgRequestAllData,
	} {
		if err := channel.SendMessage(ctx, t, map[string]any{}); err != nil {
			return err
		}
	}

	logging.Info("Message pump active, listening for messages")
	for {
		env, err := channel.Receive(ctx)
		if err != nil {
			if secure.IsMalformedFrame(err) {
				logging.Warn("Dropping malformed frame", zap.Error(err))
				continue
			}
			return err
		}

		if env.HasCounter() {
			if err := channel.Send(ctx, protocol.NewAck(env.Counter())); err != nil {
				return err
			}
		}

		if env.Payload != nil {
			b.dispatch(env)
		}
	}
}

// Close stops the supervisor and tears down the active connection, if any.
func (b *Bridge) Close() error {
	logging.Info("Closing bridge connection", zap.String("address", b.address))

	b.mu.Lock()
	b.state = StateClosing
	channel := b.channel
	b.channel = nil
	b.mu.Unlock()

	if channel != nil {
		return channel.Close()
	}
	return nil
}

// WaitForInitialization blocks until the bridge has loaded the full entity
// snapshot, or the context is canceled.
func (b *Bridge) WaitForInitialization(ctx context.Context) error {
	select {
	case <-b.initialized:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// markInitialized flips the state to Ready and releases initialization
// waiters. Subsequent snapshots after reconnects are no-ops here.
func (b *Bridge) markInitialized() {
	b.setState(StateReady)
	b.initOnce.Do(func() { close(b.initialized) })
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// Devices returns all devices loaded so far. Call after
// WaitForInitialization for a complete view.
func (b *Bridge) Devices() []entity.Device { return b.registry.Devices() }

// Device returns one device by id, nil when unknown.
func (b *Bridge) Device(deviceID int) entity.Device { return b.registry.Device(deviceID) }

// Comps returns all components loaded so far.
func (b *Bridge) Comps() []*entity.Comp { return b.registry.Comps() }

// Rooms returns all rooms loaded so far.
func (b *Bridge) Rooms() []*entity.Room { return b.registry.Rooms() }

// Room returns one room by id, nil when unknown.
func (b *Bridge) Room(roomID int) *entity.Room { return b.registry.Room(roomID) }

// BridgeID returns the bridge's own identifier from SET_HOME_DATA.
func (b *Bridge) BridgeID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bridgeID
}

// BridgeName returns the bridge's configured name.
func (b *Bridge) BridgeName() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bridgeName
}

// FirmwareVersion returns the bridge firmware version string mapped from its
// build number, empty until home data arrives.
func (b *Bridge) FirmwareVersion() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.firmwareVersion
}

// HomeSceneCount returns the number of home scenes configured on the bridge.
func (b *Bridge) HomeSceneCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.homeSceneCount
}

// SwitchDevice implements entity.Commander.
func (b *Bridge) SwitchDevice(ctx context.Context, deviceID int, payload map[string]any) error {
	merged := map[string]any{"deviceId": deviceID}
	for k, v := range payload {
		merged[k] = v
	}
	logging.Debug("Switching device", zap.Int("device_id", deviceID))
	return b.SendMessage(ctx, protocol.MsgActionSwitchDevice, merged)
}

// SlideDevice implements entity.Commander.
func (b *Bridge) SlideDevice(ctx context.Context, deviceID int, payload map[string]any) error {
	merged := map[string]any{"deviceId": deviceID}
	for k, v := range payload {
		merged[k] = v
	}
	logging.Debug("Sliding device", zap.Int("device_id", deviceID))
	return b.SendMessage(ctx, protocol.MsgActionSlideDevice, merged)
}

// SendMessage implements entity.Commander. It fails fast when no channel is
// established rather than queueing commands across reconnects.
func (b *Bridge) SendMessage(ctx context.Context, t protocol.MessageType, payload map[string]any) error {
	b.mu.Lock()
	channel := b.channel
	b.mu.Unlock()

	if channel == nil {
		return ErrNotConnected
	}
	return channel.SendMessage(ctx, t, payload)
}
