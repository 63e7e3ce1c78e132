// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-two helpers for FFT and buffer sizing.
All operations are O(1), allocation-free, and safe for the real-time path.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Non-positive sizes map to 1. The size-1 subtraction keeps exact
// powers of two from being doubled:
//
//	Input  Output
//	4      4
//	5      8
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of two have exactly one bit set, so n&(n-1) clears it.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
