package hub

import (
	"sync/atomic"

	"qtunnel/internal/domain"
)

// Stats tracks the hub's cumulative counters. All methods are safe for
// concurrent use.
type Stats struct {
	sessionsTotal     atomic.Uint64
	messagesRouted    atomic.Uint64
	messagesDropped   atomic.Uint64
	handshakeFailures atomic.Uint64
	authFailures      atomic.Uint64
}

func (s *Stats) sessionOpened()    { s.sessionsTotal.Add(1) }
func (s *Stats) messageRouted()    { s.messagesRouted.Add(1) }
func (s *Stats) messageDropped()   { s.messagesDropped.Add(1) }
func (s *Stats) handshakeFailure() { s.handshakeFailures.Add(1) }
func (s *Stats) authFailure()      { s.authFailures.Add(1) }

// Snapshot returns a point-in-time copy of the counters.
func (s *Stats) Snapshot() domain.Stats {
	return domain.Stats{
		SessionsTotal:     s.sessionsTotal.Load(),
		MessagesRouted:    s.messagesRouted.Load(),
		MessagesDropped:   s.messagesDropped.Load(),
		HandshakeFailures: s.handshakeFailures.Load(),
		AuthFailures:      s.authFailures.Load(),
	}
}
