package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"qtunnel/internal/domain"
)

// Client talks to a hub's control surface over HTTP.
type Client struct {
	Base string
	HTTP *http.Client
}

// NewClient returns a control client for the given base URL.
func NewClient(base string) *Client {
	return &Client{Base: base, HTTP: http.DefaultClient}
}

// Health fetches the hub's capability report.
func (c *Client) Health(ctx context.Context) (domain.Health, error) {
	var out domain.Health
	err := c.getJSON(ctx, "/health", &out)
	return out, err
}

// Status fetches the registry snapshot.
func (c *Client) Status(ctx context.Context) ([]domain.SessionSummary, error) {
	var out StatusResponse
	if err := c.getJSON(ctx, "/status", &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Stats fetches the cumulative counters.
func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var out domain.Stats
	err := c.getJSON(ctx, "/stats", &out)
	return out, err
}

// Connect requests handshake bootstrap info for serviceName.
func (c *Client) Connect(ctx context.Context, serviceName string) (domain.ConnectionInfo, error) {
	var out domain.ConnectionInfo
	err := c.post(ctx, "/connect", ConnectRequest{ServiceName: serviceName}, &out)
	return out, err
}

// Send routes one message through the hub.
func (c *Client) Send(ctx context.Context, sender, target domain.ServiceID, message []byte) error {
	return c.post(ctx, "/send", SendRequest{Sender: sender, Target: target, Message: message}, nil)
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("control post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("control get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
