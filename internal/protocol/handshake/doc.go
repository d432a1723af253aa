// Package handshake implements the hub's key-exchange protocol and the
// length-prefixed message framing shared with the steady-state tunnel.
//
// The exchange is three messages: the hub sends its KEM public key, the
// service answers with an encapsulated secret, and the hub confirms with
// the derived service identifier. Both ends then hold independent
// directional session keys; the shared secret itself never crosses the
// transport.
package handshake
