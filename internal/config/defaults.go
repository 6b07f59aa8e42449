// internal/config/defaults.go
//
// Host-derived default providers.
//
// Context
// -------
// Some defaults depend on the host rather than on a constant: command
// processing sizes its worker pool from the CPU count, and the command
// size cap scales with addressable memory.  These are computed once at
// package initialization and injected into the incoming specs as explicit
// provider funcs, so conversion never reads hidden global state and tests
// can substitute their own providers.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package config

import "runtime"

var hostCPUs = runtime.NumCPU()

// defaultCommandThreads sizes the command-processing worker pool at half
// the available processing units, with a floor of one.
func defaultCommandThreads() any {
	if n := hostCPUs / 2; n > 1 {
		return n
	}
	return 1
}

// defaultConcurrentWrites caps concurrent storage writes at the CPU
// count, bounded to four so a large host does not overwhelm the pool.
func defaultConcurrentWrites() any {
	n := hostCPUs
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

// defaultMaxCommandSize scales the accepted command payload cap with the
// platform word size: 64 MiB on 64-bit hosts, 16 MiB on 32-bit ones.
func defaultMaxCommandSize() any {
	const mib = 1 << 20
	if is64bit() {
		return 64 * mib
	}
	return 16 * mib
}

func is64bit() bool {
	return ^uint(0)>>32 != 0
}
