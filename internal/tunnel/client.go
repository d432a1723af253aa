package tunnel

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"qtunnel/internal/crypto"
	"qtunnel/internal/domain"
	"qtunnel/internal/protocol/handshake"
)

// Options controls how a client connects to the hub.
type Options struct {
	// Algorithm, when non-empty, pins the scheme the hub must offer.
	Algorithm string
	// RequireQuantum rejects hubs running a classical scheme.
	RequireQuantum bool
	// HandshakeTimeout bounds the key exchange.
	HandshakeTimeout time.Duration
	// MaxFrameBytes bounds a single received message.
	MaxFrameBytes uint32
}

const defaultMaxFrameBytes = 1 << 20

// Client is one service's end of the tunnel. Safe for one concurrent
// reader plus any number of senders.
type Client struct {
	conn      net.Conn
	id        domain.ServiceID
	algorithm string
	toHub     domain.SessionKey
	fromHub   domain.SessionKey

	maxFrame  uint32
	wmu       sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the hub's tunnel endpoint and runs the client handshake.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial hub %s: %w", addr, err)
	}

	hs := &handshake.Client{
		Algorithm:      opts.Algorithm,
		RequireQuantum: opts.RequireQuantum,
		Timeout:        opts.HandshakeTimeout,
	}
	res, err := hs.Establish(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}

	maxFrame := opts.MaxFrameBytes
	if maxFrame == 0 {
		maxFrame = defaultMaxFrameBytes
	}
	return &Client{
		conn:      conn,
		id:        res.ServiceID,
		algorithm: res.Algorithm,
		toHub:     res.ToHub,
		fromHub:   res.ToService,
		maxFrame:  maxFrame,
	}, nil
}

// ServiceID returns the identifier the hub derived for this connection.
func (c *Client) ServiceID() domain.ServiceID { return c.id }

// Algorithm returns the KEM scheme negotiated with the hub.
func (c *Client) Algorithm() string { return c.algorithm }

// Send encrypts payload and submits it for routing to target.
func (c *Client) Send(target domain.ServiceID, payload []byte) error {
	body, err := json.Marshal(domain.Envelope{
		Sender:    c.id,
		Target:    target,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	frame, err := crypto.Seal(&c.toHub, body)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return handshake.WriteMessage(c.conn, handshake.MsgData, frame)
}

// Receive blocks until the next envelope routed to this service arrives.
func (c *Client) Receive() (domain.Envelope, error) {
	for {
		typ, frame, err := handshake.ReadMessage(c.conn, c.maxFrame)
		if err != nil {
			return domain.Envelope{}, err
		}
		if typ != handshake.MsgData {
			return domain.Envelope{}, handshake.ErrMalformedMessage
		}
		plaintext, err := crypto.Open(&c.fromHub, frame)
		if err != nil {
			// A corrupted frame is dropped, not fatal; the hub applies
			// the same policy on its side.
			continue
		}
		var env domain.Envelope
		if err := json.Unmarshal(plaintext, &env); err != nil {
			continue
		}
		return env, nil
	}
}

// SetReceiveDeadline bounds the next Receive call.
func (c *Client) SetReceiveDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// Close wipes the session keys and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		crypto.Wipe(c.toHub.Slice())
		crypto.Wipe(c.fromHub.Slice())
		err = c.conn.Close()
	})
	return err
}
