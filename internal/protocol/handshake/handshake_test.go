package handshake_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"qtunnel/internal/crypto"
	"qtunnel/internal/protocol/handshake"
)

func newServer(t *testing.T) *handshake.Server {
	t.Helper()
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
	return &handshake.Server{KEM: k, PublicKey: pubBytes, PrivateKey: priv}
}

func TestHandshake_BothSidesAgree(t *testing.T) {
	srv := newServer(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	var registered []handshake.Result
	srv.Register = func(res handshake.Result) error {
		registered = append(registered, res)
		return nil
	}

	srvCh := make(chan handshake.Result, 1)
	errCh := make(chan error, 1)
	go func() {
		res, err := srv.Establish(serverConn)
		if err != nil {
			errCh <- err
			return
		}
		srvCh <- res
	}()

	cli := &handshake.Client{RequireQuantum: true}
	clientRes, err := cli.Establish(clientConn)
	if err != nil {
		t.Fatalf("client Establish: %v", err)
	}

	var serverRes handshake.Result
	select {
	case serverRes = <-srvCh:
	case err := <-errCh:
		t.Fatalf("server Establish: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server handshake did not finish")
	}

	if serverRes.ServiceID != clientRes.ServiceID {
		t.Fatalf("service ids differ: %s vs %s", serverRes.ServiceID, clientRes.ServiceID)
	}
	if serverRes.ToHub != clientRes.ToHub || serverRes.ToService != clientRes.ToService {
		t.Fatal("directional keys differ between sides")
	}
	if serverRes.Algorithm != "ML-KEM-768" || clientRes.Algorithm != "ML-KEM-768" {
		t.Fatal("algorithm not propagated")
	}
	if len(registered) != 1 || registered[0].ServiceID != serverRes.ServiceID {
		t.Fatal("Register hook not called exactly once before confirmation")
	}

	// Keys actually interoperate: seal as the client, open as the hub.
	frame, err := crypto.Seal(&clientRes.ToHub, []byte("ping"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	pt, err := crypto.Open(&serverRes.ToHub, frame)
	if err != nil || string(pt) != "ping" {
		t.Fatalf("Open = %q, %v", pt, err)
	}
}

func TestHandshake_RegisterFailureAborts(t *testing.T) {
	srv := newServer(t)
	srv.Register = func(handshake.Result) error {
		return errors.New("registry rejected session")
	}
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	go func() {
		cli := &handshake.Client{}
		cli.Establish(clientConn)
	}()

	if _, err := srv.Establish(serverConn); err == nil {
		t.Fatal("expected server handshake to abort")
	}
}

func TestHandshake_ServerTimeout(t *testing.T) {
	srv := newServer(t)
	srv.Timeout = 100 * time.Millisecond
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	// Drain the server's public key, then go silent.
	go func() {
		handshake.ReadMessage(clientConn, 2<<20)
	}()

	start := time.Now()
	_, err := srv.Establish(serverConn)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("handshake did not respect its deadline")
	}
}

func TestHandshake_MalformedEncapsulation(t *testing.T) {
	srv := newServer(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	go func() {
		handshake.ReadMessage(clientConn, 2<<20)
		// Wrong size for the scheme's ciphertext.
		handshake.WriteMessage(clientConn, handshake.MsgEncapsulation, []byte("too short"))
	}()

	if _, err := srv.Establish(serverConn); !errors.Is(err, handshake.ErrMalformedMessage) {
		t.Fatalf("err = %v, want ErrMalformedMessage", err)
	}
}

func TestHandshake_ClientRejectsWrongAlgorithm(t *testing.T) {
	srv := newServer(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	go func() {
		srv.Establish(serverConn)
	}()

	cli := &handshake.Client{Algorithm: "ML-KEM-1024"}
	if _, err := cli.Establish(clientConn); err == nil {
		t.Fatal("expected algorithm pin mismatch to fail")
	}
}
