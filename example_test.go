package bloom_test

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jcalabro/bloom"
)

// This example demonstrates basic bloom filter usage for membership testing.
func Example() {
	// Create a filter for 10,000 items with 1% false positive rate
	f, err := bloom.NewWithEstimates(10_000, 0.01, bloom.XXH3[string]())
	if err != nil {
		panic(err)
	}

	// Add some items
	_ = f.Insert("apple")
	_ = f.Insert("banana")
	_ = f.Insert("cherry")

	// Test membership
	for _, fruit := range []string{"apple", "banana", "grape"} {
		ok, _ := f.MightContain(fruit)
		fmt.Printf("%s: %v\n", fruit, ok)
	}

	// Output:
	// apple: true
	// banana: true
	// grape: false
}

// This example reproduces a false positive caused by correlated hash
// functions: "B" and "L" map to the same three bits of a 5-bit filter.
func Example_correlatedHashes() {
	f, err := bloom.New(5, bloom.Codepoint(0), bloom.Codepoint(2), bloom.Codepoint(4))
	if err != nil {
		panic(err)
	}

	for _, e := range []string{"A", "B"} {
		rep, _ := f.InsertWithReport(e)
		fmt.Printf("insert %s: indices %v, already set %v\n", e, rep.Indices, rep.WasSet)
	}

	idx, _ := f.ComputeIndices("L")
	ok, _ := f.MightContain("L")
	fmt.Printf("L: indices %v, might contain %v\n", idx, ok)

	// Output:
	// insert A: indices [0 2 4], already set [false false false]
	// insert B: indices [1 3 0], already set [false false true]
	// L: indices [1 3 0], might contain true
}

// This example shows how a hash function failure is reported.
func Example_hashFunctionError() {
	f, _ := bloom.New(5, bloom.AdditiveOffsets(2)(3)...)

	err := f.Insert("too long")
	fmt.Println(errors.Is(err, bloom.ErrHashFunction))
	fmt.Println(errors.Is(err, bloom.ErrNotSingleRune))
	fmt.Println(f.Count())

	// Output:
	// true
	// true
	// 0
}

// This example hashes a struct type through an Encoder.
func Example_encoded() {
	type point struct{ X, Y uint8 }

	family := bloom.Encoded(func(p point) ([]byte, error) {
		return []byte{p.X, p.Y}, nil
	}, bloom.XXH3[[]byte]())

	f, _ := bloom.NewWithEstimates(1000, 0.01, family)
	_ = f.Insert(point{1, 2})

	ok, _ := f.MightContain(point{1, 2})
	fmt.Println(ok)

	// Output:
	// true
}

// This example demonstrates using AtomicFilter for concurrent access.
func Example_concurrent() {
	// AtomicFilter is safe for concurrent Insert and MightContain
	f, _ := bloom.NewAtomicWithEstimates(100_000, 0.01, bloom.XXH3[string]())

	var wg sync.WaitGroup

	// Spawn multiple writers
	for i := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 1000 {
				_ = f.Insert(fmt.Sprintf("worker-%d-item-%d", id, j))
			}
		}(i)
	}

	// Spawn multiple readers (can run concurrently with writers)
	for i := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 1000 {
				_, _ = f.MightContain(fmt.Sprintf("worker-%d-item-%d", id, j))
			}
		}(i)
	}

	wg.Wait()
	fmt.Println("Items added:", f.Count())

	// Output:
	// Items added: 4000
}

// This example shows how to monitor filter statistics.
func Example_statistics() {
	f, _ := bloom.NewWithEstimates(10_000, 0.01, bloom.XXH3[[]byte]())

	for i := range 5000 {
		_ = f.Insert(fmt.Appendf(nil, "item-%d", i))
	}

	fmt.Printf("Capacity: %d bits\n", f.Cap())
	fmt.Printf("Hash functions (k): %d\n", f.K())
	fmt.Printf("Items added: %d\n", f.Count())

	// Output:
	// Capacity: 95851 bits
	// Hash functions (k): 7
	// Items added: 5000
}

func ExampleNewSync() {
	// Create a mutex-guarded filter with explicit size and hash functions.
	f, _ := bloom.NewSync(1<<16, bloom.Murmur3[string]()(5)...)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_ = f.Insert("from-goroutine-1")
	}()

	go func() {
		defer wg.Done()
		_ = f.Insert("from-goroutine-2")
	}()

	wg.Wait()
	fmt.Println("Count:", f.Count())

	// Output:
	// Count: 2
}

func ExampleOptimalParams() {
	// Calculate optimal parameters for your use case
	m, k, _ := bloom.OptimalParams(1_000_000, 0.01)

	fmt.Printf("For 1M items at 1%% FP rate:\n")
	fmt.Printf("  Bits: %d\n", m)
	fmt.Printf("  Hash functions (k): %d\n", k)
	fmt.Printf("  Bits per item: %.1f\n", bloom.BitsPerItem(0.01))

	// Output:
	// For 1M items at 1% FP rate:
	//   Bits: 9585059
	//   Hash functions (k): 7
	//   Bits per item: 9.6
}

func ExampleEstimateFalsePositiveRate() {
	rate := bloom.EstimateFalsePositiveRate(9586, 7, 1000)
	fmt.Printf("Estimated FP rate: %.2f%%\n", rate*100)

	// Output:
	// Estimated FP rate: 1.00%
}
