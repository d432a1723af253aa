package handshake

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cloudflare/circl/kem"

	"qtunnel/internal/crypto"
	"qtunnel/internal/domain"
)

// DefaultTimeout bounds the whole key exchange. A peer that connects and
// then stalls is dropped rather than holding a worker forever.
const DefaultTimeout = 10 * time.Second

// maxHandshakeBytes bounds any single handshake message. Generous for every
// scheme circl registers (McEliece public keys are the largest).
const maxHandshakeBytes = 2 << 20

var (
	// ErrDecapsulation is returned when the encapsulated secret cannot be
	// decapsulated under the hub's private key.
	ErrDecapsulation = errors.New("decapsulation failed")
	// ErrQuantumRequired is returned by the client when the hub offers a
	// scheme that does not meet the local quantum requirement.
	ErrQuantumRequired = errors.New("hub does not offer a post-quantum scheme")
)

// Result is the outcome of a completed key exchange. ToHub protects
// service-to-hub frames, ToService the opposite direction; both sides hold
// the same pair and pick their send key by role.
type Result struct {
	ServiceID domain.ServiceID
	Algorithm string
	ToHub     domain.SessionKey
	ToService domain.SessionKey
}

// Server runs the hub side of the exchange:
//
//	send ServerPublicKey → read ClientEncapsulation → decapsulate →
//	derive id and keys → Register → send HandshakeConfirmed.
//
// Any failure closes the attempt without touching hub state; Register is
// the single point where the session becomes visible.
type Server struct {
	KEM        *crypto.KEM
	PublicKey  []byte // marshalled hub public key
	PrivateKey kem.PrivateKey
	Timeout    time.Duration

	// Register is called after key derivation and before the confirmation
	// is sent. Returning an error aborts the handshake.
	Register func(Result) error
}

// Establish performs the exchange over conn. The connection deadline covers
// the whole exchange and is cleared on success.
func (s *Server) Establish(conn net.Conn) (Result, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Result{}, err
	}

	if err := WriteMessage(conn, MsgServerKey, encodeServerKey(s.KEM.Algorithm(), s.PublicKey)); err != nil {
		return Result{}, fmt.Errorf("send public key: %w", err)
	}

	typ, payload, err := ReadMessage(conn, maxHandshakeBytes)
	if err != nil {
		return Result{}, fmt.Errorf("read encapsulation: %w", err)
	}
	if typ != MsgEncapsulation || len(payload) != s.KEM.CiphertextSize() {
		return Result{}, ErrMalformedMessage
	}

	secret, err := s.KEM.Decapsulate(s.PrivateKey, payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDecapsulation, err)
	}
	res, err := resultFromSecret(secret, s.KEM.Algorithm())
	if err != nil {
		return Result{}, err
	}

	if s.Register != nil {
		if err := s.Register(res); err != nil {
			return Result{}, err
		}
	}
	if err := WriteMessage(conn, MsgConfirm, []byte(res.ServiceID)); err != nil {
		return Result{}, fmt.Errorf("send confirmation: %w", err)
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		return Result{}, err
	}
	return res, nil
}

// Client runs the service side of the exchange against a hub.
type Client struct {
	// RequireQuantum rejects hubs whose advertised scheme is classical.
	RequireQuantum bool
	// Algorithm, when non-empty, pins the expected scheme name.
	Algorithm string
	Timeout   time.Duration
}

// Establish performs the client half of the exchange over conn.
func (c *Client) Establish(conn net.Conn) (Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Result{}, err
	}

	typ, payload, err := ReadMessage(conn, maxHandshakeBytes)
	if err != nil {
		return Result{}, fmt.Errorf("read server key: %w", err)
	}
	if typ != MsgServerKey {
		return Result{}, ErrMalformedMessage
	}
	algorithm, publicKey, err := parseServerKey(payload)
	if err != nil {
		return Result{}, err
	}
	if c.Algorithm != "" && c.Algorithm != algorithm {
		return Result{}, fmt.Errorf("hub offered %q, want %q", algorithm, c.Algorithm)
	}

	k, err := crypto.NewKEM(algorithm, c.RequireQuantum)
	if err != nil {
		if errors.Is(err, crypto.ErrQuantumUnavailable) {
			return Result{}, fmt.Errorf("%w: hub offered %q", ErrQuantumRequired, algorithm)
		}
		return Result{}, err
	}

	ciphertext, secret, err := k.Encapsulate(publicKey)
	if err != nil {
		return Result{}, fmt.Errorf("encapsulate: %w", err)
	}
	if err := WriteMessage(conn, MsgEncapsulation, ciphertext); err != nil {
		return Result{}, fmt.Errorf("send encapsulation: %w", err)
	}

	res, err := resultFromSecret(secret, algorithm)
	if err != nil {
		return Result{}, err
	}

	typ, payload, err = ReadMessage(conn, maxHandshakeBytes)
	if err != nil {
		return Result{}, fmt.Errorf("read confirmation: %w", err)
	}
	if typ != MsgConfirm || domain.ServiceID(payload) != res.ServiceID {
		return Result{}, ErrMalformedMessage
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		return Result{}, err
	}
	return res, nil
}

// resultFromSecret derives the session identity and directional keys, then
// wipes the raw secret. Only the derived keys outlive this call.
func resultFromSecret(secret []byte, algorithm string) (Result, error) {
	defer crypto.Wipe(secret)

	toHub, toService, err := crypto.DirectionalKeys(secret)
	if err != nil {
		return Result{}, err
	}
	return Result{
		ServiceID: crypto.ServiceIDFromSecret(secret),
		Algorithm: algorithm,
		ToHub:     toHub,
		ToService: toService,
	}, nil
}
