package crypto

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	"qtunnel/internal/domain"
)

const (
	// NonceBytes is the per-frame nonce size.
	NonceBytes = chacha20poly1305.NonceSize
	// TagBytes is the Poly1305 authentication tag size.
	TagBytes = chacha20poly1305.Overhead
	// frameOverhead is the fixed cost of sealing a payload.
	frameOverhead = NonceBytes + TagBytes
)

// ErrAuthFailure is returned when a frame fails authentication or is too
// short to contain a nonce and tag. Decryption fails closed: no partial
// plaintext is ever returned.
var ErrAuthFailure = errors.New("frame authentication failed")

// Seal encrypts plaintext under key with a fresh random nonce and lays the
// frame out as nonce ‖ tag ‖ ciphertext.
func Seal(key *domain.SessionKey, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	frame := make([]byte, frameOverhead+len(plaintext))
	nonce := frame[:NonceBytes]
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	// chacha20poly1305 appends the tag after the ciphertext; the wire
	// format wants it up front, so seal into scratch and re-slice.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct := sealed[:len(sealed)-TagBytes]
	copy(frame[NonceBytes:], sealed[len(sealed)-TagBytes:])
	copy(frame[frameOverhead:], ct)
	return frame, nil
}

// Open authenticates and decrypts a frame produced by Seal. Any tampering
// or truncation yields ErrAuthFailure.
func Open(key *domain.SessionKey, frame []byte) ([]byte, error) {
	if len(frame) < frameOverhead {
		return nil, ErrAuthFailure
	}
	aead, err := chacha20poly1305.New(key.Slice())
	if err != nil {
		return nil, err
	}
	nonce := frame[:NonceBytes]
	tag := frame[NonceBytes:frameOverhead]
	ct := frame[frameOverhead:]

	sealed := make([]byte, 0, len(ct)+TagBytes)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailure
	}
	return plaintext, nil
}
