// Package presence maintains a bloom filter over stored ASNs so the detail
// path can reject definitely-absent ASNs without touching the store. False
// positives fall through to the store, so NotFound semantics are unchanged.
package presence

import (
	"encoding/binary"
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

const (
	// minCapacity keeps the filter usable when seeded from an empty store.
	minCapacity = 1024
	// falsePositiveRate trades a little memory for rarely hitting the
	// store on absent ASNs.
	falsePositiveRate = 0.001
)

// Filter wraps a bloom filter keyed by big-endian ASN. Add is serialized;
// MayContain takes the read lock because the underlying filter is not safe
// against concurrent writes.
type Filter struct {
	mu sync.RWMutex
	bf *bitsbloom.BloomFilter
}

// New sizes a filter for the expected number of ASNs.
func New(expected uint) *Filter {
	if expected < minCapacity {
		expected = minCapacity
	}
	return &Filter{bf: bitsbloom.NewWithEstimates(expected, falsePositiveRate)}
}

// Seed builds a filter from the ASNs currently in the store.
func Seed(asns []uint32) *Filter {
	f := New(uint(len(asns)))
	for _, asn := range asns {
		f.Add(asn)
	}
	return f
}

func (f *Filter) Add(asn uint32) {
	f.mu.Lock()
	f.bf.Add(asnKey(asn))
	f.mu.Unlock()
}

// MayContain reports whether asn might be stored. A false return is
// definitive; a true return must be confirmed against the store.
func (f *Filter) MayContain(asn uint32) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test(asnKey(asn))
}

func asnKey(asn uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, asn)
	return k
}
