package bloom

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned by constructors when the filter
	// parameters are out of range. No filter is created.
	ErrInvalidConfiguration = errors.New("bloom: invalid configuration")

	// ErrHashFunction matches every *HashFunctionError via errors.Is.
	ErrHashFunction = errors.New("bloom: hash function failed")

	// ErrNotSingleRune is returned by Codepoint hash functions for input that
	// is not exactly one UTF-8 encoded rune.
	ErrNotSingleRune = errors.New("bloom: element is not a single rune")
)

// HashFunctionError reports that the hash function at position Index could
// not process an element. The filter is left untouched when it is returned.
type HashFunctionError struct {
	Index int
	Err   error
}

func (e *HashFunctionError) Error() string {
	return fmt.Sprintf("%s: function %d: %v", ErrHashFunction, e.Index, e.Err)
}

func (e *HashFunctionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrHashFunction.
func (e *HashFunctionError) Is(target error) bool {
	return target == ErrHashFunction
}

// wrapHashErr attaches the function index to err unless a hash function
// already returned a *HashFunctionError.
func wrapHashErr(idx int, err error) error {
	var hfe *HashFunctionError
	if errors.As(err, &hfe) {
		return err
	}
	return &HashFunctionError{Index: idx, Err: err}
}
