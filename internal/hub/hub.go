package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/cloudflare/circl/kem"
	"github.com/google/uuid"

	"qtunnel/internal/crypto"
	"qtunnel/internal/domain"
	"qtunnel/internal/protocol/handshake"
)

// ErrHubFull is logged when a connection is refused by the admission bound.
var ErrHubFull = errors.New("connection limit reached")

// ErrHubClosed refuses registrations that race with shutdown.
var ErrHubClosed = errors.New("hub is shutting down")

// Config holds the hub's runtime parameters. Zero values fall back to the
// defaults below.
type Config struct {
	// TunnelAddr is the TCP address the listener binds, e.g. ":9000".
	TunnelAddr string
	// Advertise is the endpoint reported by ConnectionInfo. Defaults to
	// the bound listener address.
	Advertise string
	// Algorithm names the KEM scheme, e.g. "ML-KEM-768".
	Algorithm string
	// RequireQuantum makes startup fatal if Algorithm is not post-quantum.
	RequireQuantum bool
	// MaxConnections bounds concurrent tunnel connections; excess
	// connections are refused immediately, never queued.
	MaxConnections int
	// MaxFrameBytes bounds a single tunnel message.
	MaxFrameBytes uint32
	// HandshakeTimeout bounds the key exchange per connection.
	HandshakeTimeout time.Duration
	// AuthFailureLimit is the number of rejected frames after which a
	// session is torn down.
	AuthFailureLimit uint32

	Logger *slog.Logger
}

const (
	defaultAlgorithm        = "ML-KEM-768"
	defaultMaxConnections   = 64
	defaultMaxFrameBytes    = 1 << 20
	defaultAuthFailureLimit = 5
)

func (c *Config) withDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = defaultAlgorithm
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = defaultMaxConnections
	}
	if c.MaxFrameBytes == 0 {
		c.MaxFrameBytes = defaultMaxFrameBytes
	}
	if c.AuthFailureLimit == 0 {
		c.AuthFailureLimit = defaultAuthFailureLimit
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Hub owns the long-term keypair, the session registry and the router, and
// runs the tunnel listener. One Hub per process.
type Hub struct {
	cfg Config
	log *slog.Logger

	kem        *crypto.KEM
	publicKey  []byte
	privateKey kem.PrivateKey

	registry *Registry
	router   *Router
	stats    *Stats

	ln        net.Listener
	sem       chan struct{}
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	// connsMu guards conns, the accepted transports that have not yet
	// finished their worker. Close walks it so a connection mid-handshake
	// is unblocked; the registry only knows about completed sessions.
	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// New resolves the configured KEM scheme and generates the hub's long-term
// keypair. The private key never leaves process memory. If the scheme does
// not satisfy RequireQuantum this fails outright.
func New(cfg Config) (*Hub, error) {
	cfg.withDefaults()

	k, err := crypto.NewKEM(cfg.Algorithm, cfg.RequireQuantum)
	if err != nil {
		return nil, err
	}
	pub, priv, err := k.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	registry := NewRegistry()
	stats := &Stats{}
	log := cfg.Logger.With("component", "hub")
	return &Hub{
		cfg:        cfg,
		log:        log,
		kem:        k,
		publicKey:  pubBytes,
		privateKey: priv,
		registry:   registry,
		router:     NewRouter(registry, stats, log),
		stats:      stats,
		sem:        make(chan struct{}, cfg.MaxConnections),
		quit:       make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// Start binds the tunnel listener and launches the accept loop.
func (h *Hub) Start() error {
	ln, err := net.Listen("tcp", h.cfg.TunnelAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.cfg.TunnelAddr, err)
	}
	h.ln = ln
	if h.cfg.Advertise == "" {
		h.cfg.Advertise = ln.Addr().String()
	}
	h.log.Info("tunnel listening",
		"addr", ln.Addr().String(),
		"algorithm", h.kem.Algorithm(),
		"quantum", h.kem.Quantum())

	h.wg.Add(1)
	go h.acceptLoop()
	return nil
}

// Addr returns the bound listener address. Valid after Start.
func (h *Hub) Addr() string { return h.ln.Addr().String() }

// PublicKey returns the hub's marshalled KEM public key.
func (h *Hub) PublicKey() []byte { return h.publicKey }

// Close shuts the hub down: stops accepting, closes every session and waits
// for all workers to drain.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.quit)
		if h.ln != nil {
			h.ln.Close()
		}
		// Unblock every worker, including those still mid-handshake.
		h.connsMu.Lock()
		for conn := range h.conns {
			conn.Close()
		}
		h.connsMu.Unlock()
		for _, s := range h.registry.Clear() {
			s.Close()
		}
		h.wg.Wait()
		h.log.Info("hub stopped")
	})
	return nil
}

// track records conn as owned by a live worker. It refuses once shutdown
// has begun, which closes the window between Accept and the quit check.
func (h *Hub) track(conn net.Conn) bool {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()
	select {
	case <-h.quit:
		return false
	default:
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *Hub) untrack(conn net.Conn) {
	h.connsMu.Lock()
	delete(h.conns, conn)
	h.connsMu.Unlock()
}

func (h *Hub) acceptLoop() {
	defer h.wg.Done()
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			select {
			case <-h.quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			h.log.Warn("accept failed", "err", err)
			continue
		}

		// Admission control: refuse immediately when full.
		select {
		case h.sem <- struct{}{}:
		default:
			h.log.Warn("connection refused", "remote", conn.RemoteAddr().String(), "err", ErrHubFull)
			conn.Close()
			continue
		}

		if !h.track(conn) {
			conn.Close()
			<-h.sem
			return
		}

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			defer func() { <-h.sem }()
			defer h.untrack(conn)
			h.handle(conn)
		}()
	}
}

// handle runs one connection start to finish: handshake, then the
// read-decrypt-route loop until disconnect, protocol error or shutdown.
func (h *Hub) handle(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	var sess *Session
	srv := &handshake.Server{
		KEM:        h.kem,
		PublicKey:  h.publicKey,
		PrivateKey: h.privateKey,
		Timeout:    h.cfg.HandshakeTimeout,
		Register: func(res handshake.Result) error {
			select {
			case <-h.quit:
				return ErrHubClosed
			default:
			}
			sess = newSession(res, conn)
			if evicted := h.registry.Insert(sess); evicted != nil {
				evicted.Close()
				h.log.Warn("evicted colliding session", "service_id", res.ServiceID)
			}
			return nil
		},
	}
	if _, err := srv.Establish(conn); err != nil {
		h.stats.handshakeFailure()
		h.log.Warn("handshake failed", "remote", remote, "err", err)
		if sess != nil {
			h.registry.Drop(sess)
			sess.Close()
		} else {
			conn.Close()
		}
		return
	}

	h.stats.sessionOpened()
	h.log.Info("service connected", "service_id", sess.ID(), "remote", remote)

	h.readLoop(sess)

	h.registry.Drop(sess)
	sess.Close()
	h.log.Info("service disconnected", "service_id", sess.ID(), "remote", remote)
}

func (h *Hub) readLoop(sess *Session) {
	for {
		typ, frame, err := handshake.ReadMessage(sess.conn, h.cfg.MaxFrameBytes)
		if err != nil {
			return
		}
		if typ != handshake.MsgData {
			h.log.Warn("unexpected message type", "service_id", sess.ID(), "type", typ)
			return
		}

		plaintext, err := sess.Open(frame)
		if err != nil {
			h.stats.authFailure()
			failures := sess.noteAuthFailure()
			h.log.Warn("frame rejected", "service_id", sess.ID(), "failures", failures)
			if failures >= h.cfg.AuthFailureLimit {
				h.log.Warn("closing session after repeated auth failures", "service_id", sess.ID())
				return
			}
			continue
		}

		var env domain.Envelope
		if err := json.Unmarshal(plaintext, &env); err != nil {
			h.stats.messageDropped()
			h.log.Warn("bad envelope", "service_id", sess.ID(), "err", err)
			continue
		}
		// Routing failures are already counted and logged by the router;
		// a missing target must not take the sender's session down.
		_ = h.router.Route(sess.ID(), env)
	}
}

// Health reports the hub's capability state. The quantum flag is the true
// scheme capability, never an advertised aspiration.
func (h *Hub) Health() domain.Health {
	return domain.Health{
		Status:           "healthy",
		Algorithm:        h.kem.Algorithm(),
		QuantumAvailable: h.kem.Quantum(),
		SessionCount:     h.registry.Len(),
	}
}

// Status returns the registry snapshot.
func (h *Hub) Status() []domain.SessionSummary { return h.registry.Snapshot() }

// Stats returns the cumulative counters.
func (h *Hub) Stats() domain.Stats { return h.stats.Snapshot() }

// ConnectionInfo hands out what serviceName needs to start a handshake
// out-of-band. It creates no session and mutates no state beyond a log line.
func (h *Hub) ConnectionInfo(serviceName string) domain.ConnectionInfo {
	h.log.Info("connection info requested", "service", serviceName)
	return domain.ConnectionInfo{
		Endpoint:     h.cfg.Advertise,
		PublicKey:    h.publicKey,
		AlgorithmID:  h.kem.Algorithm(),
		ConnectionID: uuid.NewString(),
	}
}

// Send routes a payload on behalf of a control-surface caller. Delivery
// failure is returned synchronously, never swallowed.
func (h *Hub) Send(sender, target domain.ServiceID, payload []byte) error {
	return h.router.Route(sender, domain.Envelope{
		Target:    target,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}
