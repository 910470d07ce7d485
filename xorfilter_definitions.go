package xorset

import "errors"

// Xor8 offers a 0.39% false-positive probability.
//
// An Xor8 is immutable once built: it may be shared between goroutines and
// queried concurrently without synchronization.
type Xor8 struct {
	XorFilterCommon
	Fingerprints []uint8
}

// XorFilterCommon holds the parameters needed to recompute a key's slots.
type XorFilterCommon struct {
	Seed        uint64
	BlockLength uint32
}

// per-slot peeling state
type xorset struct {
	xormask uint64
	count   uint32
}

// global slot indexes, one in each block
type hashes struct {
	h  uint64
	h0 uint32
	h1 uint32
	h2 uint32
}

type keyindex struct {
	hash  uint64
	index uint32
}

// Filter is satisfied by *Xor8.
type Filter interface {
	Contains(key []byte) bool
	ContainsString(s string) bool
}

var (
	// ErrTooManyIterations is returned by Populate when no seed out of
	// MaxIterations produced a peelable hypergraph.
	ErrTooManyIterations = errors.New("xorset: too many iterations, you probably have duplicate keys")

	// ErrInvalidData is returned when serialized data is truncated or inconsistent.
	ErrInvalidData = errors.New("xorset: invalid serialized data")

	// ErrBadMagic is returned when serialized data does not start with Magic.
	ErrBadMagic = errors.New("xorset: bad magic")

	// ErrUnsupportedVersion is returned for a format version this package cannot read.
	ErrUnsupportedVersion = errors.New("xorset: unsupported serialization version")
)
