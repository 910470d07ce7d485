package xorset

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"slices"
)

// The maximum number of seeds tried before Populate returns ErrTooManyIterations.
var MaxIterations = 100

type Rand interface {
	Read([]byte) (int, error)
}

// Builder holds allocated structures so that repeated filter construction can have a lower garbage collection overhead.
// A Builder must not be used from more than one goroutine at a time; separate
// Builders share nothing and may run in parallel.
type Builder struct {
	hashStore []uint64
	kiStore   []keyindex
	qStore    []uint32
	setStore  []xorset

	// Rng supplies seeds. Nil means a math/rand source seeded on first use.
	Rng Rand
}

// Populate builds a filter over keys using a fresh Builder.
func Populate(keys [][]byte) (*Xor8, error) {
	var bld Builder
	return bld.Populate(keys)
}

// PopulateStrings builds a filter over keys using a fresh Builder.
func PopulateStrings(keys []string) (*Xor8, error) {
	var bld Builder
	return bld.PopulateStrings(keys)
}

// Populate builds a filter containing keys.
// Repeated keys are collapsed before construction. The function may return
// ErrTooManyIterations if no seed out of MaxIterations can be peeled, which
// for distinct keys is vanishingly unlikely.
func (bld *Builder) Populate(keys [][]byte) (*Xor8, error) {
	hs := bld.getHashes(len(keys))
	for i, k := range keys {
		hs[i] = keyHash(k)
	}
	return bld.populateHashes(hs)
}

// PopulateStrings is Populate for string keys.
func (bld *Builder) PopulateStrings(keys []string) (*Xor8, error) {
	hs := bld.getHashes(len(keys))
	for i, k := range keys {
		hs[i] = keyHashString(k)
	}
	return bld.populateHashes(hs)
}

// populateHashes sorts and compacts hs in place, then builds the filter.
func (bld *Builder) populateHashes(hs []uint64) (*Xor8, error) {
	slices.Sort(hs)
	hs = slices.Compact(hs)

	filter := new(Xor8)
	filter.allocate(len(hs))

	stack, err := bld.populateCommon(hs, &filter.XorFilterCommon)
	if err != nil {
		return nil, err
	}
	filter.assign(stack)
	return filter, nil
}

func (bld *Builder) getHashes(n int) []uint64 {
	if cap(bld.hashStore) < n {
		bld.hashStore = make([]uint64, n)
	}
	return bld.hashStore[:n]
}

// getKeyIndexes returns the peel stack and the worklist of degree one slots.
// A slot drops to a count of one at most once per attempt, so capacity
// bounds the worklist.
func (bld *Builder) getKeyIndexes(size, capacity int) (stack []keyindex, queue []uint32) {
	if cap(bld.kiStore) < size {
		bld.kiStore = make([]keyindex, size)
	}
	if cap(bld.qStore) < capacity {
		bld.qStore = make([]uint32, capacity)
	}
	return bld.kiStore[:size], bld.qStore[:capacity]
}

func (bld *Builder) getSets(capacity int) []xorset {
	if cap(bld.setStore) < capacity {
		bld.setStore = make([]xorset, capacity)
	}
	sets := bld.setStore[:capacity]
	clear(sets)
	return sets
}

func (bld *Builder) randUint64() (uint64, error) {
	if bld.Rng == nil {
		bld.Rng = rand.New(rand.NewSource(rand.Int63()))
	}
	var b [8]byte
	if _, err := io.ReadFull(bld.Rng, b[:]); err != nil {
		return 0, fmt.Errorf("xorset: reading seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// populateCommon picks seeds until the key hypergraph peels completely and
// returns the keys in peel order, each paired with the slot it owns.
// hs must not contain duplicates: a repeated digest can never be peeled.
func (bld *Builder) populateCommon(hs []uint64, filter *XorFilterCommon) ([]keyindex, error) {
	size := len(hs)
	capacity := int(3 * filter.BlockLength)

	stack, queue := bld.getKeyIndexes(size, capacity)
	sets := bld.getSets(capacity)

	for iterations := 1; ; iterations++ {
		if iterations > MaxIterations {
			return nil, ErrTooManyIterations
		}
		if iterations > 1 {
			clear(sets)
		}
		seed, err := bld.randUint64()
		if err != nil {
			return nil, err
		}
		filter.Seed = seed

		for _, k := range hs {
			h := filter.geth0h1h2(k)
			sets[h.h0].xormask ^= h.h
			sets[h.h0].count++
			sets[h.h1].xormask ^= h.h
			sets[h.h1].count++
			sets[h.h2].xormask ^= h.h
			sets[h.h2].count++
		}

		// scan for values with a count of one
		qsize := 0
		for i := range sets {
			if sets[i].count == 1 {
				queue[qsize] = uint32(i)
				qsize++
			}
		}

		stacksize := 0
		for qsize > 0 {
			qsize--
			index := queue[qsize]
			if sets[index].count == 0 {
				continue // already peeled through another of its slots
			}
			hash := sets[index].xormask
			stack[stacksize] = keyindex{hash: hash, index: index}
			stacksize++

			h := filter.locate(hash)
			for _, s := range [3]uint32{h.h0, h.h1, h.h2} {
				sets[s].xormask ^= hash
				sets[s].count--
				if sets[s].count == 1 {
					queue[qsize] = s
					qsize++
				}
			}
		}

		if stacksize == size {
			return stack, nil
		}
	}
}
