// SPDX-License-Identifier: MIT
// Package bitint provides power-of-two helpers for FFT window and buffer
// sizing. All operations are O(1), allocation-free and real-time safe.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of two
// are preserved; the size-1 subtraction is what keeps 8 from becoming 16.
// Non-positive sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of two
// have exactly one bit set, so n&(n-1) clears to zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
