package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"qtunnel/internal/domain"
)

// Context string for session key derivation. Changing it breaks wire
// compatibility with older endpoints.
const kdfContext = "qtunnel/v1 session"

const serviceIDBytes = 8

// DirectionalKeys derives independent send and receive keys from a raw KEM
// shared secret so the two tunnel directions never share a nonce space.
// Labels are from the hub's point of view: toHub protects service-to-hub
// frames, toService protects hub-to-service frames.
func DirectionalKeys(sharedSecret []byte) (toHub, toService domain.SessionKey, err error) {
	if err = expand(sharedSecret, "service->hub", toHub.Slice()); err != nil {
		return
	}
	err = expand(sharedSecret, "hub->service", toService.Slice())
	return
}

func expand(secret []byte, label string, out []byte) error {
	r := hkdf.New(sha256.New, secret, []byte(kdfContext), []byte(label))
	if _, err := io.ReadFull(r, out); err != nil {
		return fmt.Errorf("hkdf %s: %w", label, err)
	}
	return nil
}

// ServiceIDFromSecret derives the registry identifier for a session:
// truncated SHA-256 of the shared secret, hex encoded. Both ends compute
// the same value without it crossing the wire before the confirmation.
func ServiceIDFromSecret(sharedSecret []byte) domain.ServiceID {
	sum := sha256.Sum256(sharedSecret)
	return domain.ServiceID(hex.EncodeToString(sum[:serviceIDBytes]))
}
