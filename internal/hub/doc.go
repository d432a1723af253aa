// Package hub implements the tunnel hub core: the long-term keypair, the
// session registry, the router, and the TCP listener with one worker per
// connection. The registry is the only structure mutated concurrently;
// per-target write serialization happens at each session's transport write,
// so unrelated sessions stay independent.
package hub
