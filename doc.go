// Package bloom provides classical bloom filters with pluggable hash functions.
//
// A bloom filter is a space-efficient probabilistic data structure that tests
// whether an element is a member of a set. False positive matches are possible,
// but false negatives are not: if the filter says an element is not present,
// it definitely is not. If it says an element might be present, it could be a
// false positive.
//
// # Structure
//
// A filter owns an array of m bits, all initially zero, and an ordered set of
// k hash functions. Inserting an element sets the k bits at positions
// hash_i(element) mod m. A query answers "might contain" only when all k bits
// are set. Bits are never cleared, so there is no deletion.
//
// Both m and k are fixed at construction. Use [New] to pass them explicitly,
// or [NewWithEstimates] with the number of items you expect and the false
// positive rate you want:
//
//	// Filter for 1 million items with 1% false positive rate
//	f, err := bloom.NewWithEstimates(1_000_000, 0.01, bloom.XXH3[string]())
//
// # Hash Functions
//
// A [HashFunc] maps an element to a uint64 and may fail. The built-in
// families use double hashing: a single 128-bit hash is split into h1 and h2
// and function i is h1 + i*h2, with h2 forced odd. [XXH3] is the default;
// [Murmur3] is an alternative, and [Encoded] adapts either to arbitrary
// element types.
//
// [Codepoint] and [AdditiveOffsets] build the correlated codepoint+offset
// functions often used to explain bloom filters. Elements whose codepoints
// differ by a multiple of m share every index under them, so the measured
// false positive rate is far above the estimate. They are useful for
// demonstrations and tests only.
//
// # Errors
//
// Constructors return [ErrInvalidConfiguration] for a zero bit count, no hash
// functions, or sizing parameters out of range. Insert, MightContain and
// ComputeIndices fail only when a hash function does; the error is a
// [*HashFunctionError] wrapping the cause and the filter is left unchanged.
//
// # False Positive Rate
//
// For a filter sized for n items at rate p:
//
//	m = ceil(-n * ln(p) / ln(2)^2)
//	k = round(m/n * ln(2))
//
// When the filter is filled to its intended capacity, it will achieve
// approximately the target false positive rate. Adding more items than
// the capacity increases the false positive rate. Use
// [Filter.EstimatedFalsePositiveRate] to monitor the current rate.
//
// # Thread Safety
//
// [Filter] is NOT thread-safe.
//
// [SyncFilter] serializes inserts behind a read-write mutex; queries run in
// parallel and never observe a half-applied insert.
//
// [AtomicFilter] sets bits with lock-free atomic OR. A query racing an insert
// of the same element may see only part of it and answer false, the same
// answer it would give had the insert not started.
//
// # References
//
//   - Less Hashing, Same Performance: https://www.eecs.harvard.edu/~michaelm/postscripts/rsa2008.pdf
package bloom
