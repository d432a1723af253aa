package handshake

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Message types for the length-prefixed tunnel protocol. Every message on
// the wire is type(1) ‖ length(4, big-endian) ‖ payload, which keeps
// arbitrary binary payloads unambiguous.
const (
	MsgServerKey     byte = 0x01 // hub → service: algorithm id + public key
	MsgEncapsulation byte = 0x02 // service → hub: encapsulated secret
	MsgConfirm       byte = 0x03 // hub → service: derived service id
	MsgData          byte = 0x04 // either direction: one encrypted frame
)

// headerBytes is the fixed message header size.
const headerBytes = 5

var (
	// ErrMalformedMessage covers unparsable headers and payloads.
	ErrMalformedMessage = errors.New("malformed handshake message")
	// ErrMessageTooLarge guards against a peer advertising a huge length
	// to exhaust memory.
	ErrMessageTooLarge = errors.New("message exceeds size limit")
)

// WriteMessage frames and writes a single protocol message. The header and
// payload go out in one Write so concurrent writers serialized above this
// layer never interleave partial messages.
func WriteMessage(w io.Writer, typ byte, payload []byte) error {
	buf := make([]byte, headerBytes+len(payload))
	buf[0] = typ
	binary.BigEndian.PutUint32(buf[1:headerBytes], uint32(len(payload)))
	copy(buf[headerBytes:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadMessage reads one framed message, rejecting payloads above maxLen.
func ReadMessage(r io.Reader, maxLen uint32) (byte, []byte, error) {
	var header [headerBytes]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(header[1:])
	if n > maxLen {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return header[0], payload, nil
}

// encodeServerKey packs the ServerPublicKey payload:
// algLen(2, big-endian) ‖ algorithm ‖ publicKey.
func encodeServerKey(algorithm string, publicKey []byte) []byte {
	buf := make([]byte, 2+len(algorithm)+len(publicKey))
	binary.BigEndian.PutUint16(buf, uint16(len(algorithm)))
	copy(buf[2:], algorithm)
	copy(buf[2+len(algorithm):], publicKey)
	return buf
}

func parseServerKey(payload []byte) (algorithm string, publicKey []byte, err error) {
	if len(payload) < 2 {
		return "", nil, ErrMalformedMessage
	}
	n := int(binary.BigEndian.Uint16(payload))
	if len(payload) < 2+n {
		return "", nil, ErrMalformedMessage
	}
	return string(payload[2 : 2+n]), payload[2+n:], nil
}
