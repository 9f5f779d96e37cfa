// Package protocol defines the xComfort Bridge wire protocol vocabulary.
//
// This package holds the message type codes, the JSON envelope shared by
// every frame, and payload field accessors used by the secure channel and
// the entity model. It is purely declarative: framing, encryption and
// dispatch live in the secure and bridge packages.
//
// # Envelope Shape
//
// Every frame carries a JSON object:
//
//		{"type_int": 310, "mc": 17, "payload": {...}}
//
//	  - type_int selects dispatch
//	  - mc is the outbound message counter; -1 marks unsolicited control
//	    frames, and its absence marks records that need no acknowledgement
//	  - payload is the message body; control frames may omit it
//
// ACK frames reference the inbound counter instead:
//
//	{"type_int": 1, "ref": 17}
//
// # Message Type Codes
//
// Codes below 50 are control and handshake traffic (NACK, client connect,
// key exchange, login, token management). 240/242/2 are the bootstrap
// subscription requests sent after every handshake. The 28x range carries
// outbound commands and the 3xx range carries entity snapshots and updates.
//
// # Payload Accessors
//
// Inbound payloads decode to map[string]any, so every numeric field arrives
// as float64 and some descriptor fields arrive as strings. The *Field
// helpers normalize these access patterns, and InfoValues parses the
// {text, value} info-array convention shared by RC Touch devices and the
// companion sensors of multisensor rockers.
//
// # Thread Safety
//
// Everything in this package is immutable after initialization and safe for
// concurrent use.
package protocol
