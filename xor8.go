package xorset

import (
	"math"
)

// Contains tell you whether the key is likely part of the set
func (filter *Xor8) Contains(key []byte) bool {
	return filter.containsHash(keyHash(key))
}

// ContainsString is Contains for a string key, without allocating.
func (filter *Xor8) ContainsString(s string) bool {
	return filter.containsHash(keyHashString(s))
}

func (filter *Xor8) containsHash(k uint64) bool {
	h := filter.geth0h1h2(k)
	f := fingerprint(h.h)
	return f == (filter.Fingerprints[h.h0] ^ filter.Fingerprints[h.h1] ^ filter.Fingerprints[h.h2])
}

// SizeInBytes is the length of the filter's binary encoding.
func (filter *Xor8) SizeInBytes() int {
	return HeaderSize + len(filter.Fingerprints)
}

// BitsPerEntry is the table size in bits divided by the number of keys the
// filter was built from.
func (filter *Xor8) BitsPerEntry(numKeys int) float64 {
	if numKeys == 0 {
		return math.Inf(1)
	}
	return float64(8*len(filter.Fingerprints)) / float64(numKeys)
}

func (filter *Xor8) allocate(size int) {
	capacity := 32 + uint32(math.Ceil(1.23*float64(size)))
	capacity = capacity / 3 * 3 // round it down to a multiple of 3

	// slice capacity defaults to length
	filter.Fingerprints = make([]uint8, capacity)
	filter.BlockLength = capacity / 3
}

// assign walks the peel stack backwards. Each entry's slot is still zero
// when it is reached, so XORing all three slots gives the other two.
func (filter *Xor8) assign(stack []keyindex) {
	for i := len(stack) - 1; i >= 0; i-- {
		ki := stack[i]
		h := filter.locate(ki.hash)
		val := fingerprint(ki.hash)
		val ^= filter.Fingerprints[h.h0] ^ filter.Fingerprints[h.h1] ^ filter.Fingerprints[h.h2]
		filter.Fingerprints[ki.index] = val
	}
}
