// Package commands wires the qtunnel CLI: the serve command runs the hub,
// the rest are thin clients of its control surface.
package commands
