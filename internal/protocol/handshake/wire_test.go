package handshake_test

import (
	"bytes"
	"errors"
	"testing"

	"qtunnel/internal/protocol/handshake"
)

func TestMessage_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("binary\x00safe\xffpayload")

	if err := handshake.WriteMessage(&buf, handshake.MsgData, payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	typ, got, err := handshake.ReadMessage(&buf, 1<<20)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if typ != handshake.MsgData {
		t.Fatalf("type = %#x, want MsgData", typ)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload mismatch")
	}
}

func TestMessage_EmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := handshake.WriteMessage(&buf, handshake.MsgConfirm, nil); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	typ, got, err := handshake.ReadMessage(&buf, 16)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if typ != handshake.MsgConfirm || len(got) != 0 {
		t.Fatalf("got type %#x payload %q", typ, got)
	}
}

func TestReadMessage_EnforcesLimit(t *testing.T) {
	var buf bytes.Buffer
	if err := handshake.WriteMessage(&buf, handshake.MsgData, make([]byte, 1024)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	_, _, err := handshake.ReadMessage(&buf, 1023)
	if !errors.Is(err, handshake.ErrMessageTooLarge) {
		t.Fatalf("err = %v, want ErrMessageTooLarge", err)
	}
}

func TestReadMessage_TruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	if err := handshake.WriteMessage(&buf, handshake.MsgData, []byte("full message")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	trunc := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	if _, _, err := handshake.ReadMessage(trunc, 1<<20); err == nil {
		t.Fatal("expected error on truncated stream")
	}
}
