package contentstore

import "fmt"

// FNV-1a 64-bit, split into two 32-bit halves: XOR
// each input byte into the low word, then multiply the full 64-bit state
// by the prime 0x00000100_000001b3 (carrying between halves). Native
// uint64 arithmetic in Go is exactly this: the hardware does the 64-bit
// multiply-with-carry for us, and it is bit-identical to the
// hand-described half-split algorithm. hash(empty) == the FNV-1a-64
// offset basis, rendered as 16 lowercase hex chars.
const (
	fnvOffsetBasis64 uint64 = 0xcbf29ce484222325
	fnvPrime64       uint64 = 0x00000100000001b3
)

// Hash computes the content hash used as the ContentStore key: 16
// lowercase hex characters.
func Hash(b []byte) string {
	h := fnvOffsetBasis64
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return fmt.Sprintf("%016x", h)
}
