package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"qtunnel/internal/domain"
)

// ErrUnknownTarget is returned when an envelope addresses a service that is
// not currently registered. The message is dropped and counted, never
// buffered for later delivery.
var ErrUnknownTarget = errors.New("unknown target service")

// Router delivers decrypted envelopes to their target session, re-encrypted
// under the target's key. It holds no state of its own beyond counters.
type Router struct {
	registry *Registry
	stats    *Stats
	log      *slog.Logger
}

// NewRouter wires a router over the given registry and counters.
func NewRouter(registry *Registry, stats *Stats, log *slog.Logger) *Router {
	return &Router{registry: registry, stats: stats, log: log}
}

// Route delivers env to its target. The sender field is overwritten with
// the authenticated sender identity, so a service cannot impersonate
// another by lying inside the envelope.
func (r *Router) Route(sender domain.ServiceID, env domain.Envelope) error {
	env.Sender = sender

	target, ok := r.registry.Lookup(env.Target)
	if !ok {
		r.stats.messageDropped()
		r.log.Warn("message dropped", "sender", sender, "target", env.Target)
		return fmt.Errorf("%w: %s", ErrUnknownTarget, env.Target)
	}

	body, err := json.Marshal(env)
	if err != nil {
		r.stats.messageDropped()
		return fmt.Errorf("encode envelope: %w", err)
	}
	frame, err := target.Seal(body)
	if err != nil {
		r.stats.messageDropped()
		return fmt.Errorf("seal for %s: %w", env.Target, err)
	}
	if err := target.WriteFrame(frame); err != nil {
		r.stats.messageDropped()
		return fmt.Errorf("write to %s: %w", env.Target, err)
	}

	r.stats.messageRouted()
	r.log.Debug("message routed", "sender", sender, "target", env.Target, "bytes", len(env.Payload))
	return nil
}
