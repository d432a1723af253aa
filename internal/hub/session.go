package hub

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"qtunnel/internal/crypto"
	"qtunnel/internal/domain"
	"qtunnel/internal/protocol/handshake"
)

// Session is one authenticated service connection: its identity, transport
// and directional keys. It is created only after a successful handshake and
// owned by the registry until disconnect.
type Session struct {
	id          domain.ServiceID
	algorithm   string
	remoteAddr  string
	connectedAt time.Time

	conn        net.Conn
	fromService domain.SessionKey // opens frames the service sends
	toService   domain.SessionKey // seals frames the hub sends

	wmu          sync.Mutex // serializes transport writes
	closeOnce    sync.Once
	authFailures atomic.Uint32
}

func newSession(res handshake.Result, conn net.Conn) *Session {
	return &Session{
		id:          res.ServiceID,
		algorithm:   res.Algorithm,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now().UTC(),
		conn:        conn,
		fromService: res.ToHub,
		toService:   res.ToService,
	}
}

// ID returns the session's derived service identifier.
func (s *Session) ID() domain.ServiceID { return s.id }

// Summary returns the control-surface view of the session. No key material.
func (s *Session) Summary() domain.SessionSummary {
	return domain.SessionSummary{
		ServiceID:   s.id,
		RemoteAddr:  s.remoteAddr,
		ConnectedAt: s.connectedAt,
		Algorithm:   s.algorithm,
	}
}

// Open authenticates and decrypts one inbound frame.
func (s *Session) Open(frame []byte) ([]byte, error) {
	return crypto.Open(&s.fromService, frame)
}

// Seal encrypts one outbound payload for this session.
func (s *Session) Seal(plaintext []byte) ([]byte, error) {
	return crypto.Seal(&s.toService, plaintext)
}

// WriteFrame writes one sealed frame to the transport. The per-session
// mutex keeps concurrent senders targeting this session from interleaving
// partial messages.
func (s *Session) WriteFrame(frame []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return handshake.WriteMessage(s.conn, handshake.MsgData, frame)
}

// noteAuthFailure bumps the per-session failure counter and returns the
// new total.
func (s *Session) noteAuthFailure() uint32 {
	return s.authFailures.Add(1)
}

// Close wipes the session keys and closes the transport. Safe to call more
// than once; the keys are never reusable afterwards.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		crypto.Wipe(s.fromService.Slice())
		crypto.Wipe(s.toService.Slice())
		err = s.conn.Close()
	})
	return err
}
