package crypto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/schemes"
)

// ErrQuantumUnavailable is returned when the hub is configured to require
// post-quantum protection but the selected algorithm cannot provide it.
// There is deliberately no silent downgrade path.
var ErrQuantumUnavailable = errors.New("required post-quantum algorithm unavailable")

// KEM wraps a key-encapsulation scheme selected by name. The zero value is
// not usable; construct with NewKEM.
type KEM struct {
	scheme kem.Scheme
}

// NewKEM resolves the named scheme. If requireQuantum is set and the scheme
// is unknown or not post-quantum, it fails with ErrQuantumUnavailable.
func NewKEM(algorithm string, requireQuantum bool) (*KEM, error) {
	scheme := schemes.ByName(algorithm)
	if scheme == nil {
		if requireQuantum {
			return nil, fmt.Errorf("%w: unknown scheme %q", ErrQuantumUnavailable, algorithm)
		}
		return nil, fmt.Errorf("unknown KEM scheme %q", algorithm)
	}
	if requireQuantum && !quantumResistant(scheme.Name()) {
		return nil, fmt.Errorf("%w: %q is not post-quantum", ErrQuantumUnavailable, algorithm)
	}
	return &KEM{scheme: scheme}, nil
}

// Algorithm returns the canonical scheme name.
func (k *KEM) Algorithm() string { return k.scheme.Name() }

// Quantum reports whether the active scheme resists quantum attack.
func (k *KEM) Quantum() bool { return quantumResistant(k.scheme.Name()) }

// GenerateKeyPair creates a fresh keypair for the hub.
func (k *KEM) GenerateKeyPair() (kem.PublicKey, kem.PrivateKey, error) {
	return k.scheme.GenerateKeyPair()
}

// Encapsulate derives a shared secret against a marshalled public key and
// returns the ciphertext to send plus the local copy of the secret.
func (k *KEM) Encapsulate(publicKey []byte) (ciphertext, sharedSecret []byte, err error) {
	pk, err := k.scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key: %w", err)
	}
	return k.scheme.Encapsulate(pk)
}

// Decapsulate recovers the shared secret from an encapsulation ciphertext.
func (k *KEM) Decapsulate(private kem.PrivateKey, ciphertext []byte) ([]byte, error) {
	return k.scheme.Decapsulate(private, ciphertext)
}

// CiphertextSize returns the encapsulation size for the active scheme, used
// to bound handshake reads.
func (k *KEM) CiphertextSize() int { return k.scheme.CiphertextSize() }

// quantumResistant classifies a scheme name. All lattice- and code-based
// families circl registers count; plain elliptic-curve KEMs do not.
func quantumResistant(name string) bool {
	n := strings.ToLower(name)
	for _, family := range []string{"ml-kem", "kyber", "frodo", "mceliece", "sntrup"} {
		if strings.Contains(n, family) {
			return true
		}
	}
	return false
}
