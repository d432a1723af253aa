package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"qtunnel/internal/crypto"
)

func TestKEM_EncapsulateDecapsulate(t *testing.T) {
	k, err := crypto.NewKEM("ML-KEM-768", true)
	if err != nil {
		t.Fatalf("NewKEM: %v", err)
	}
	pub, priv, err := k.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	ct, secret, err := k.Encapsulate(pubBytes)
	if err != nil {
		t.Fatalf("Encapsulate: %v", err)
	}
	if len(ct) != k.CiphertextSize() {
		t.Fatalf("ciphertext size = %d, want %d", len(ct), k.CiphertextSize())
	}

	recovered, err := k.Decapsulate(priv, ct)
	if err != nil {
		t.Fatalf("Decapsulate: %v", err)
	}
	if !bytes.Equal(secret, recovered) {
		t.Fatal("shared secrets differ between encapsulation and decapsulation")
	}
}

func TestKEM_UnknownScheme(t *testing.T) {
	if _, err := crypto.NewKEM("ROT13-KEM", false); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
	_, err := crypto.NewKEM("ROT13-KEM", true)
	if !errors.Is(err, crypto.ErrQuantumUnavailable) {
		t.Fatalf("err = %v, want ErrQuantumUnavailable", err)
	}
}

func TestKEM_QuantumFlag(t *testing.T) {
	k, err := crypto.NewKEM("ML-KEM-768", true)
	if err != nil {
		t.Fatalf("NewKEM: %v", err)
	}
	if !k.Quantum() {
		t.Fatal("ML-KEM-768 should report quantum resistance")
	}
	if k.Algorithm() != "ML-KEM-768" {
		t.Fatalf("Algorithm = %q", k.Algorithm())
	}
}
