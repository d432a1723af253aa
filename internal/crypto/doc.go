// Package crypto exposes the primitives the tunnel hub is built on.
//
// Contents
//
//   - Key-encapsulation scheme selection and capability checks over circl
//     (NewKEM, Encapsulate, Decapsulate)
//   - HKDF-SHA256 derivation of directional session keys and service
//     identifiers from a KEM shared secret (DirectionalKeys,
//     ServiceIDFromSecret)
//   - ChaCha20-Poly1305 frame sealing in the nonce ‖ tag ‖ ciphertext wire
//     layout (Seal, Open)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// Callers should treat shared secrets as sensitive and Wipe them as soon as
// the directional keys are derived; only the derived keys live for the
// duration of a session.
package crypto
