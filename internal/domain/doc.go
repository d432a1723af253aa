// Package domain defines the core data models shared across the hub.
// It contains plain types only: identifiers, envelopes, summaries and
// counters. Live connection state lives in internal/hub.
package domain
