// Package bridge implements the connection supervisor for an xComfort
// bridge: a single long-lived client that dials the bridge's websocket,
// performs the encrypted handshake, bootstraps subscriptions and the full
// entity snapshot, then pumps inbound messages into the entity registry.
//
// The supervisor reconnects forever on a fixed interval until Close is
// called. The entity registry and every subscription on its cells survive
// reconnects; only the encrypted channel is replaced.
//
// Outbound commands from entities arrive through the entity.Commander
// interface, which Bridge implements. Commands issued while disconnected
// fail fast with ErrNotConnected instead of being queued.
package bridge
