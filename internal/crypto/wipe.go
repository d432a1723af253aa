package crypto

import "runtime"

// Wipe overwrites b with zeroes so key material does not linger in memory
// longer than it has to. The noinline directive and KeepAlive make it harder
// for the compiler to discard the stores as dead.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
