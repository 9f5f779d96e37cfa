// Package logging provides structured logging for the xcbridge client.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the client. It provides both general logging functions
// and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame traffic, handshake steps)
//   - Info: Normal operations (connections, entity updates, state changes)
//   - Warn: Non-fatal issues (unknown entities, malformed payload items, retries)
//   - Error: Fatal issues (handshake failures, transport errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device registered",
//	    zap.Int("device_id", 14),
//	    zap.String("name", "Kitchen ceiling"),
//	    zap.String("variant", "Light"),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Connection Logging:
//
//	logging.LogConnection(bridgeAddr, "websocket_connected")
//	logging.LogConnection(bridgeAddr, "secure_channel_established")
//	logging.LogConnection(bridgeAddr, "reconnecting")
//
// Handshake and Frame Logging:
//
//	logging.LogHandshakeStep(bridgeAddr, "login_response", 32)
//	logging.LogFrame("received", msgType, mc, length)
//
// # Configuration
//
// By default logging is silent so CLI output stays clean. Set the
// XCBRIDGE_LOG_LEVEL environment variable (debug, info, warn, error) or call
// Initialize with an explicit level:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
