// Package tunnel is the client side of the hub: services dial the tunnel
// endpoint, complete the key exchange and then send and receive encrypted
// envelopes addressed by service id.
package tunnel
