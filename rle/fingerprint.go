package rle

import (
	"encoding/binary"
	"fmt"

	"blainsmith.com/go/seahash"
)

// Fingerprint returns a content hash of rv's runs, for the same kind
// of accidental-double-registration debugging BITS.Digest serves in
// the interval package.
func (rv *RLEVec[Idx, V]) Fingerprint() uint64 {
	h := seahash.New()
	var buf [8]byte
	for i, v := range rv.Values {
		fmt.Fprintf(h, "%v", v)
		binary.LittleEndian.PutUint64(buf[:], uint64(rv.Lengths[i]))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
