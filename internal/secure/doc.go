// Package secure implements the xComfort Bridge's encrypted session layer.
//
// This package covers three things: the cryptographic primitives the
// protocol depends on, the encrypted record channel, and the multi-round
// handshake that produces a ready channel from a raw transport.
//
// # Handshake
//
// Establish runs the strict sequence once per connection attempt:
//
//  1. Receive the plaintext hello (a NACK here means the bridge has no free
//     client slot)
//  2. Send client identification, check for CONNECTION_DECLINED
//  3. Request the bridge's RSA public key
//  4. Generate a random 32-byte AES key and 16-byte IV, deliver them
//     RSA-encrypted (PKCS#1 v1.5) as "hex(key):::hex(iv)"
//  5. Expect the secure-established ack, then log in with the salted
//     double-SHA-256 password hash
//  6. Submit, renew and re-submit the session token
//
// Any deviation aborts with a typed error and closes the transport.
//
// # Record Framing
//
// Wire records are base64(AES-CBC(JSON, zero-padded)) followed by a single
// 0x04 delimiter byte. There is no length prefix; the delimiter is the frame
// boundary. Two quirks are deliberate protocol behavior and must not be
// "fixed":
//
//   - The session IV is reused for every record (never re-randomized)
//   - Padding is zero bytes, stripped on decrypt by trimming trailing NULs
//
// Both are weaker than standard practice, but the bridge depends on
// bit-exact behavior for interop.
//
// # Concurrency
//
// A Channel serializes every encode+send pair under one mutex, since both
// the message counter and CBC encryption are stateful per record. Receive
// has a single caller by construction (the supervisor's pump).
package secure
