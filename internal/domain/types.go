package domain

import "time"

// ServiceID identifies a connected service inside the hub. It is derived
// from the session's shared secret (truncated SHA-256, hex encoded) so the
// hub never has to trust a self-reported name.
type ServiceID string

// String returns the string form of the service identifier.
func (id ServiceID) String() string { return string(id) }

// SessionKey is a 32-byte symmetric key for one tunnel direction.
type SessionKey [32]byte

// Slice returns the key as a byte slice without copying.
func (k *SessionKey) Slice() []byte { return k[:] }

// Envelope is the logical routing unit carried through the tunnel: who sent
// it, who should receive it, and an opaque payload. It only exists in
// decrypted form inside the hub or an endpoint; on the wire it travels as an
// encrypted frame.
type Envelope struct {
	Sender    ServiceID `json:"sender"`
	Target    ServiceID `json:"target"`
	Payload   []byte    `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary is the registry view exposed through the control surface.
// It never carries key material.
type SessionSummary struct {
	ServiceID   ServiceID `json:"service_id"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
	Algorithm   string    `json:"algorithm"`
}

// Stats holds the hub's cumulative counters.
type Stats struct {
	SessionsTotal     uint64 `json:"sessions_total"`
	MessagesRouted    uint64 `json:"messages_routed"`
	MessagesDropped   uint64 `json:"messages_dropped"`
	HandshakeFailures uint64 `json:"handshake_failures"`
	AuthFailures      uint64 `json:"auth_failures"`
}

// Health is the hub's self-report: which KEM algorithm is active, whether it
// is post-quantum, and how many services are connected right now.
type Health struct {
	Status           string `json:"status"`
	Algorithm        string `json:"algorithm"`
	QuantumAvailable bool   `json:"quantum_available"`
	SessionCount     int    `json:"session_count"`
}

// ConnectionInfo is everything an external service needs to start a
// handshake out-of-band: the tunnel endpoint, the hub's public key, and the
// algorithm in use. Handing it out creates no session.
type ConnectionInfo struct {
	Endpoint     string `json:"endpoint"`
	PublicKey    []byte `json:"public_key"`
	AlgorithmID  string `json:"algorithm_id"`
	ConnectionID string `json:"connection_id"`
}
