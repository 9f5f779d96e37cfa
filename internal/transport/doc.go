// Package transport provides the socket boundary to the xComfort Bridge.
//
// The bridge speaks its control protocol over a single long-lived websocket
// connection served on plain HTTP at the root path. This package hides the
// websocket details behind the Transport interface: discrete text frames in,
// discrete text frames out, no interpretation of their contents.
//
// The Dialer interface exists so the connection supervisor and the handshake
// can be exercised against scripted in-memory transports in tests.
//
// # Concurrency
//
// A Transport has exactly one reader (the supervisor's pump) and one
// serialized writer (the secure channel's send path). A blocked Receive is
// released by Close, which is the supervisor's only cancellation mechanism
// for a live connection.
package transport
