// Package numx declares the small numeric constraints shared across the
// toolkit's generic components (interval, rle, pairwise, pileup,
// peakcall, countit), so index, length and count types are never
// hardcoded to one width.
package numx

// Integer is any signed or unsigned integer type usable as an index or
// coordinate.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Unsigned is the subset of Integer used for run lengths.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float is any floating point type usable as a count/score.
type Float interface {
	~float32 | ~float64
}

// Number is any integer or floating point type usable as a DP score.
type Number interface {
	Integer | Float
}
