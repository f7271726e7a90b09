package bloom

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
)

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

// maxStackIndices is the k up to which index computation avoids allocating.
const maxStackIndices = 16

// hashSet is the ordered set of hash functions shared by every filter type.
type hashSet[T any] struct {
	fns []HashFunc[T]
	m   uint64
}

func newHashSet[T any](m uint64, fns []HashFunc[T]) (hashSet[T], error) {
	if m == 0 {
		return hashSet[T]{}, fmt.Errorf("%w: bit count must be at least 1", ErrInvalidConfiguration)
	}
	if m > maxBits {
		return hashSet[T]{}, fmt.Errorf("%w: bit count %d exceeds %d", ErrInvalidConfiguration, m, maxBits)
	}
	if len(fns) == 0 {
		return hashSet[T]{}, fmt.Errorf("%w: at least one hash function is required", ErrInvalidConfiguration)
	}
	if uint64(len(fns)) > uint64(^uint32(0)) {
		return hashSet[T]{}, fmt.Errorf("%w: too many hash functions (%d)", ErrInvalidConfiguration, len(fns))
	}
	for i, fn := range fns {
		if fn == nil {
			return hashSet[T]{}, fmt.Errorf("%w: hash function %d is nil", ErrInvalidConfiguration, i)
		}
	}
	return hashSet[T]{fns: append([]HashFunc[T](nil), fns...), m: m}, nil
}

// indices appends the k bit positions of e to dst. Either every position is
// returned or none is.
func (h *hashSet[T]) indices(e T, dst []uint64) ([]uint64, error) {
	for i, fn := range h.fns {
		v, err := fn(e)
		if err != nil {
			return nil, wrapHashErr(i, err)
		}
		dst = append(dst, v%h.m)
	}
	return dst, nil
}

// estimatedParams derives (m, k) from the expected item count and builds the
// hash functions with family.
func estimatedParams[T any](n uint64, p float64, family Family[T]) (uint64, []HashFunc[T], error) {
	if family == nil {
		return 0, nil, fmt.Errorf("%w: hash family is nil", ErrInvalidConfiguration)
	}
	m, k, err := OptimalParams(n, p)
	if err != nil {
		return 0, nil, err
	}
	fns := family(k)
	if uint32(len(fns)) != k {
		return 0, nil, fmt.Errorf("%w: family built %d hash functions, want %d", ErrInvalidConfiguration, len(fns), k)
	}
	return m, fns, nil
}

// Report describes the effect of a single insertion.
type Report struct {
	// Indices are the bit positions of the element, in hash function order.
	Indices []uint64
	// WasSet[i] is true if Indices[i] was already set before the insertion.
	WasSet []bool
}

// AlreadyPresent reports whether every bit of the element was already set,
// meaning the filter would have answered "might contain" before the insert.
func (r Report) AlreadyPresent() bool {
	for _, set := range r.WasSet {
		if !set {
			return false
		}
	}
	return true
}

// NewlySet returns the number of bits the insertion flipped from 0 to 1.
func (r Report) NewlySet() int {
	var n int
	for _, set := range r.WasSet {
		if !set {
			n++
		}
	}
	return n
}

// Filter is a classical bloom filter of m bits and k hash functions. It is
// not safe for concurrent use; see SyncFilter and AtomicFilter.
type Filter[T any] struct {
	bits   *bitset.BitSet
	hashes hashSet[T]
	count  uint64 // Number of Insert calls
}

// New creates a filter with m bits and the given ordered hash functions.
// It returns ErrInvalidConfiguration if m or the number of functions is zero.
func New[T any](m uint64, fns ...HashFunc[T]) (*Filter[T], error) {
	hs, err := newHashSet(m, fns)
	if err != nil {
		return nil, err
	}
	// bitset.New returns an empty set instead of failing when it cannot allocate.
	b := bitset.New(uint(m))
	if b.Len() != uint(m) {
		return nil, fmt.Errorf("%w: cannot allocate %d bits", ErrInvalidConfiguration, m)
	}
	return &Filter[T]{
		bits:   b,
		hashes: hs,
	}, nil
}

// NewWithEstimates creates a filter sized for n items at false positive
// rate p, with k hash functions drawn from family.
func NewWithEstimates[T any](n uint64, p float64, family Family[T]) (*Filter[T], error) {
	m, fns, err := estimatedParams(n, p, family)
	if err != nil {
		return nil, err
	}
	return New(m, fns...)
}

// ComputeIndices returns the k bit positions of e, each in [0, Cap()).
func (f *Filter[T]) ComputeIndices(e T) ([]uint64, error) {
	return f.hashes.indices(e, make([]uint64, 0, len(f.hashes.fns)))
}

// Insert adds e to the filter. Inserting the same element again has no
// effect on the bit array.
func (f *Filter[T]) Insert(e T) error {
	var buf [maxStackIndices]uint64
	idx, err := f.hashes.indices(e, buf[:0])
	if err != nil {
		return err
	}
	for _, i := range idx {
		f.bits.Set(uint(i))
	}
	f.count++
	return nil
}

// InsertWithReport adds e like Insert and reports which bits were already set.
func (f *Filter[T]) InsertWithReport(e T) (Report, error) {
	idx, err := f.ComputeIndices(e)
	if err != nil {
		return Report{}, err
	}
	wasSet := make([]bool, len(idx))
	for j, i := range idx {
		wasSet[j] = f.bits.Test(uint(i))
		f.bits.Set(uint(i))
	}
	f.count++
	return Report{Indices: idx, WasSet: wasSet}, nil
}

// MightContain returns false if e was definitely never inserted, and true if
// it probably was.
func (f *Filter[T]) MightContain(e T) (bool, error) {
	var buf [maxStackIndices]uint64
	idx, err := f.hashes.indices(e, buf[:0])
	if err != nil {
		return false, err
	}
	for _, i := range idx {
		if !f.bits.Test(uint(i)) {
			return false, nil
		}
	}
	return true, nil
}

// Cap returns the capacity of the filter in bits (m).
func (f *Filter[T]) Cap() uint64 {
	return f.hashes.m
}

// K returns the number of hash functions used.
func (f *Filter[T]) K() uint32 {
	return uint32(len(f.hashes.fns))
}

// Count returns the number of successful Insert calls, duplicates included.
func (f *Filter[T]) Count() uint64 {
	return f.count
}

// EstimatedFillRatio returns the proportion of bits that are set.
func (f *Filter[T]) EstimatedFillRatio() float64 {
	return float64(f.bits.Count()) / float64(f.hashes.m)
}

// EstimatedFalsePositiveRate estimates the current false positive rate
// based on the number of items added.
func (f *Filter[T]) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.hashes.m, f.K(), f.count)
}

// SyncFilter is a Filter guarded by a read-write mutex. Inserts are
// serialized, queries run in parallel, and a query never observes an insert
// that is only partially applied.
type SyncFilter[T any] struct {
	mu sync.RWMutex
	f  *Filter[T]
}

// NewSync creates a thread-safe filter with m bits and the given hash functions.
func NewSync[T any](m uint64, fns ...HashFunc[T]) (*SyncFilter[T], error) {
	f, err := New(m, fns...)
	if err != nil {
		return nil, err
	}
	return &SyncFilter[T]{f: f}, nil
}

// NewSyncWithEstimates creates a thread-safe filter sized for n items at
// false positive rate p.
func NewSyncWithEstimates[T any](n uint64, p float64, family Family[T]) (*SyncFilter[T], error) {
	f, err := NewWithEstimates(n, p, family)
	if err != nil {
		return nil, err
	}
	return &SyncFilter[T]{f: f}, nil
}

// ComputeIndices returns the k bit positions of e. Hashing needs no lock.
func (s *SyncFilter[T]) ComputeIndices(e T) ([]uint64, error) {
	return s.f.ComputeIndices(e)
}

// Insert adds e to the filter.
func (s *SyncFilter[T]) Insert(e T) error {
	var buf [maxStackIndices]uint64
	idx, err := s.f.hashes.indices(e, buf[:0])
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range idx {
		s.f.bits.Set(uint(i))
	}
	s.f.count++
	return nil
}

// InsertWithReport adds e like Insert and reports which bits were already set.
func (s *SyncFilter[T]) InsertWithReport(e T) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.InsertWithReport(e)
}

// MightContain returns false if e was definitely never inserted.
func (s *SyncFilter[T]) MightContain(e T) (bool, error) {
	var buf [maxStackIndices]uint64
	idx, err := s.f.hashes.indices(e, buf[:0])
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, i := range idx {
		if !s.f.bits.Test(uint(i)) {
			return false, nil
		}
	}
	return true, nil
}

// Cap returns the capacity of the filter in bits (m).
func (s *SyncFilter[T]) Cap() uint64 {
	return s.f.Cap()
}

// K returns the number of hash functions used.
func (s *SyncFilter[T]) K() uint32 {
	return s.f.K()
}

// Count returns the number of successful Insert calls.
func (s *SyncFilter[T]) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Count()
}

// EstimatedFillRatio returns the proportion of bits that are set.
func (s *SyncFilter[T]) EstimatedFillRatio() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.EstimatedFillRatio()
}

// EstimatedFalsePositiveRate estimates the current false positive rate.
func (s *SyncFilter[T]) EstimatedFalsePositiveRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.EstimatedFalsePositiveRate()
}

// AtomicFilter is a thread-safe bloom filter using lock-free atomic
// operations on a cache-line aligned bit array.
//
// Concurrent inserts never lose bits. A MightContain racing an Insert of the
// same element may see only some of its bits and return false, exactly as if
// the insert had not started; once Insert returns, every later MightContain
// observes all of its bits.
type AtomicFilter[T any] struct {
	raw    []byte          // Raw allocation to keep aligned memory alive for GC
	words  []atomic.Uint64 // ceil(m/64) words
	hashes hashSet[T]
	count  atomic.Uint64 // Number of Insert calls
}

// NewAtomic creates a lock-free filter with m bits and the given hash functions.
func NewAtomic[T any](m uint64, fns ...HashFunc[T]) (*AtomicFilter[T], error) {
	hs, err := newHashSet(m, fns)
	if err != nil {
		return nil, err
	}
	raw, words := makeAlignedAtomicUint64Slice(int((m + 63) / 64))
	return &AtomicFilter[T]{
		raw:    raw,
		words:  words,
		hashes: hs,
	}, nil
}

// NewAtomicWithEstimates creates a lock-free filter sized for n items at
// false positive rate p.
func NewAtomicWithEstimates[T any](n uint64, p float64, family Family[T]) (*AtomicFilter[T], error) {
	m, fns, err := estimatedParams(n, p, family)
	if err != nil {
		return nil, err
	}
	return NewAtomic(m, fns...)
}

// makeAlignedAtomicUint64Slice allocates a cache-line aligned slice of atomic.Uint64.
// Returns the raw byte slice (to keep alive for GC) and the aligned atomic slice.
func makeAlignedAtomicUint64Slice(n int) ([]byte, []atomic.Uint64) {
	// atomic.Uint64 is the same size as uint64 (8 bytes)
	const atomicSize = 8
	raw := make([]byte, n*atomicSize+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*atomic.Uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// ComputeIndices returns the k bit positions of e.
func (f *AtomicFilter[T]) ComputeIndices(e T) ([]uint64, error) {
	return f.hashes.indices(e, make([]uint64, 0, len(f.hashes.fns)))
}

// Insert adds e to the filter atomically.
func (f *AtomicFilter[T]) Insert(e T) error {
	var buf [maxStackIndices]uint64
	idx, err := f.hashes.indices(e, buf[:0])
	if err != nil {
		return err
	}
	for _, i := range idx {
		f.words[i/64].Or(1 << (i % 64))
	}
	f.count.Add(1)
	return nil
}

// InsertWithReport adds e like Insert and reports which bits were already set.
// With concurrent writers the report reflects the order the bits were won.
func (f *AtomicFilter[T]) InsertWithReport(e T) (Report, error) {
	idx, err := f.ComputeIndices(e)
	if err != nil {
		return Report{}, err
	}
	wasSet := make([]bool, len(idx))
	for j, i := range idx {
		mask := uint64(1) << (i % 64)
		old := f.words[i/64].Or(mask)
		wasSet[j] = old&mask != 0
	}
	f.count.Add(1)
	return Report{Indices: idx, WasSet: wasSet}, nil
}

// MightContain returns false if e was definitely never inserted. It is safe
// to call concurrently with Insert.
func (f *AtomicFilter[T]) MightContain(e T) (bool, error) {
	var buf [maxStackIndices]uint64
	idx, err := f.hashes.indices(e, buf[:0])
	if err != nil {
		return false, err
	}
	for _, i := range idx {
		if f.words[i/64].Load()&(1<<(i%64)) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Cap returns the capacity of the filter in bits (m).
func (f *AtomicFilter[T]) Cap() uint64 {
	return f.hashes.m
}

// K returns the number of hash functions used.
func (f *AtomicFilter[T]) K() uint32 {
	return uint32(len(f.hashes.fns))
}

// Count returns the number of successful Insert calls.
func (f *AtomicFilter[T]) Count() uint64 {
	return f.count.Load()
}

// EstimatedFillRatio returns the proportion of bits that are set.
func (f *AtomicFilter[T]) EstimatedFillRatio() float64 {
	var setBits uint64
	for i := range f.words {
		setBits += uint64(bits.OnesCount64(f.words[i].Load()))
	}
	return float64(setBits) / float64(f.hashes.m)
}

// EstimatedFalsePositiveRate estimates the current false positive rate.
func (f *AtomicFilter[T]) EstimatedFalsePositiveRate() float64 {
	return EstimateFalsePositiveRate(f.hashes.m, f.K(), f.count.Load())
}
