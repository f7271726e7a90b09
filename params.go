package bloom

import (
	"fmt"
	"math"
)

const (
	// ln2 is the natural logarithm of 2.
	ln2 = 0.6931471805599453
	// ln2Squared is ln(2)^2.
	ln2Squared = 0.4804530139182014

	// maxAllocBytes is the largest single allocation the Go runtime accepts
	// (48-bit address space on 64-bit platforms, MaxInt on 32-bit ones).
	maxAllocBytes = min(1<<48, math.MaxInt)

	// maxBits bounds m so that the word array, plus the padding used to align
	// it to a cache line, fits in one allocation and m fits in a uint.
	maxBits = uint64(min((maxAllocBytes-cacheLineSize)/8*64, math.MaxUint>>1))
)

// OptimalParams calculates the optimal bloom filter parameters for n expected
// items at a false positive rate of p.
//
//	m = ceil(-(n * ln(p)) / ln(2)^2)
//	k = round((m / n) * ln(2)), at least 1
//
// n must be positive and p must lie in the open interval (0, 1).
func OptimalParams(n uint64, p float64) (m uint64, k uint32, err error) {
	if n == 0 {
		return 0, 0, fmt.Errorf("%w: expected item count must be positive", ErrInvalidConfiguration)
	}
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, 0, fmt.Errorf("%w: false positive rate %v not in (0, 1)", ErrInvalidConfiguration, p)
	}

	mFloat := math.Ceil(-(float64(n) * math.Log(p)) / ln2Squared)
	if mFloat > float64(maxBits) {
		return 0, 0, fmt.Errorf("%w: %d items at rate %v needs more than %d bits", ErrInvalidConfiguration, n, p, maxBits)
	}
	m = max(uint64(mFloat), 1)

	kFloat := math.Round(float64(m) / float64(n) * ln2)
	if kFloat > math.MaxUint32 {
		return 0, 0, fmt.Errorf("%w: rate %v needs too many hash functions", ErrInvalidConfiguration, p)
	}
	k = max(uint32(kFloat), 1)

	return m, k, nil
}

// BitsPerItem returns the optimal number of bits per item for a false
// positive rate of p: -ln(p) / ln(2)^2.
func BitsPerItem(p float64) float64 {
	return -math.Log(p) / ln2Squared
}

// EstimateFalsePositiveRate estimates the false positive rate of a filter with
// m bits and k hash functions after n insertions.
// Formula: (1 - e^(-kn/m))^k
func EstimateFalsePositiveRate(m uint64, k uint32, n uint64) float64 {
	if m == 0 || n == 0 {
		return 0
	}

	mf := float64(m)
	nf := float64(n)
	kf := float64(k)

	return math.Pow(1-math.Exp(-kf*nf/mf), kf)
}
