package xorset

import (
	"math/bits"

	"github.com/zeebo/xxh3"
)

// keyHash digests a key to the 64 bit value the filter is built over. The
// digest is seedless so it is computed once per key, not once per attempt.
func keyHash(key []byte) uint64 {
	return xxh3.Hash(key)
}

// keyHashString is keyHash without the []byte conversion.
func keyHashString(s string) uint64 {
	return xxh3.HashString(s)
}

// https://github.com/aappleby/smhasher/blob/master/src/MurmurHash3.cpp
// MurmurHash3.cpp calls this fmix64()
func murmur64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

func mixsplit(key, seed uint64) uint64 {
	return murmur64(key + seed)
}

func reduce(hash, n uint32) uint32 {
	// http://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
	return uint32((uint64(hash) * uint64(n)) >> 32)
}

func fingerprint(hash uint64) uint8 {
	return uint8(hash ^ (hash >> 32))
}

// geth0h1h2 mixes a key digest with the seed and returns the mixed hash
// together with the key's three global slot indexes.
func (filter *XorFilterCommon) geth0h1h2(k uint64) hashes {
	return filter.locate(mixsplit(k, filter.Seed))
}

// locate maps an already mixed hash to one slot in each block.
func (filter *XorFilterCommon) locate(hash uint64) hashes {
	return hashes{
		h:  hash,
		h0: filter.geth0(hash),
		h1: filter.geth1(hash) + filter.BlockLength,
		h2: filter.geth2(hash) + 2*filter.BlockLength,
	}
}

// geth0, geth1 and geth2 return block-local offsets.

func (filter *XorFilterCommon) geth0(hash uint64) uint32 {
	return reduce(uint32(hash), filter.BlockLength)
}

func (filter *XorFilterCommon) geth1(hash uint64) uint32 {
	return reduce(uint32(bits.RotateLeft64(hash, 21)), filter.BlockLength)
}

func (filter *XorFilterCommon) geth2(hash uint64) uint32 {
	return reduce(uint32(bits.RotateLeft64(hash, 42)), filter.BlockLength)
}
