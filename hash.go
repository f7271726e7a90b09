package bloom

import (
	"fmt"
	"unicode/utf8"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// HashFunc maps an element to a raw hash value. It must be deterministic.
// The filter reduces the value modulo its bit count. A non-nil error means
// the element cannot be hashed; the filter returns it as a *HashFunctionError.
type HashFunc[T any] func(T) (uint64, error)

// Family builds an ordered set of k hash functions. Filters sized from an
// expected item count use a Family because k is not known up front.
type Family[T any] func(k uint32) []HashFunc[T]

// Encoder converts an element to the bytes a byte-oriented family hashes.
type Encoder[T any] func(T) ([]byte, error)

// Key is the set of element types the built-in families hash directly.
type Key interface {
	~string | ~[]byte
}

// XXH3 returns the default hash family. It splits a single 128-bit xxh3 hash
// into h1 and h2 and derives function i as h1 + i*h2 (double hashing).
func XXH3[T Key]() Family[T] {
	return doubleHashing(func(v T) (uint64, uint64, error) {
		var h xxh3.Uint128
		switch b := any(v).(type) {
		case []byte:
			h = xxh3.Hash128(b)
		default:
			h = xxh3.HashString128(string(v))
		}
		return h.Hi, h.Lo, nil
	})
}

// Murmur3 is the double hashing family over the 128-bit murmur3 hash.
func Murmur3[T Key]() Family[T] {
	return doubleHashing(func(v T) (uint64, uint64, error) {
		var h1, h2 uint64
		switch b := any(v).(type) {
		case []byte:
			h1, h2 = murmur3.Sum128(b)
		default:
			h1, h2 = murmur3.Sum128([]byte(v))
		}
		return h1, h2, nil
	})
}

// Encoded adapts a byte-oriented family to any element type. Errors from enc
// surface as hash function errors.
func Encoded[T any](enc Encoder[T], base Family[[]byte]) Family[T] {
	return func(k uint32) []HashFunc[T] {
		inner := base(k)
		fns := make([]HashFunc[T], len(inner))
		for i, fn := range inner {
			fns[i] = func(v T) (uint64, error) {
				b, err := enc(v)
				if err != nil {
					return 0, err
				}
				return fn(b)
			}
		}
		return fns
	}
}

// doubleHashing builds h_i(x) = h1(x) + i*h2(x). The sum wraps at 2^64 and is
// reduced modulo m by the filter. h2 is forced odd so the step is never zero
// and is coprime with power-of-two m, keeping the k indices distinct there.
func doubleHashing[T any](sum func(T) (h1, h2 uint64, err error)) Family[T] {
	return func(k uint32) []HashFunc[T] {
		fns := make([]HashFunc[T], k)
		for i := range k {
			fns[i] = func(v T) (uint64, error) {
				h1, h2, err := sum(v)
				if err != nil {
					return 0, err
				}
				return h1 + uint64(i)*(h2|1), nil
			}
		}
		return fns
	}
}

// Codepoint returns the hash codepoint(s) + offset for single-rune strings.
//
// Functions built this way are strongly correlated: two runes whose
// codepoints differ by a multiple of m collide on every index, so filters
// using them do far worse than the false positive estimate. They exist to
// reproduce that behaviour; use XXH3 for real workloads.
func Codepoint(offset uint64) HashFunc[string] {
	return func(s string) (uint64, error) {
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) || (r == utf8.RuneError && size == 1) {
			return 0, fmt.Errorf("%w: %q", ErrNotSingleRune, s)
		}
		return uint64(r) + offset, nil
	}
}

// AdditiveOffsets is the Family of Codepoint functions with offsets
// 0, step, 2*step, ...
func AdditiveOffsets(step uint64) Family[string] {
	return func(k uint32) []HashFunc[string] {
		fns := make([]HashFunc[string], k)
		for i := range k {
			fns[i] = Codepoint(uint64(i) * step)
		}
		return fns
	}
}
