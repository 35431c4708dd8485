// Package batch splits large collections into bounded chunks so that no single
// persistence call carries an unbounded amount of work.
package batch

import (
	"fmt"
)

// DefaultSize is used when a caller passes a non-positive batch size
const DefaultSize = 500

// Error reports which batch failed. Batches before Index were processed and
// are not rolled back.
type Error struct {
	Index  int // zero-based batch index
	Offset int // index of the first item of the failing batch
	Size   int
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("batch %d (items %d-%d) failed: %v", e.Index, e.Offset, e.Offset+e.Size-1, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Count returns the number of batches n items split into
func Count(n, size int) int {
	if size <= 0 {
		size = DefaultSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ProcessInBatches calls fn once per contiguous slice of at most size items,
// in original order. It stops at the first failing batch and returns an
// *Error wrapping the cause; remaining batches are not processed. A nil or
// empty items slice results in no calls.
func ProcessInBatches[T any](items []T, size int, fn func(batch []T) error) error {
	if size <= 0 {
		size = DefaultSize
	}

	for index, offset := 0, 0; offset < len(items); index, offset = index+1, offset+size {
		end := offset + size
		if end > len(items) {
			end = len(items)
		}

		chunk := items[offset:end:end]
		if err := fn(chunk); err != nil {
			return &Error{Index: index, Offset: offset, Size: len(chunk), Err: err}
		}
	}

	return nil
}

// ProcessIndexed is ProcessInBatches with the batch index passed through, for
// callers that record which batch they are committing.
func ProcessIndexed[T any](items []T, size int, fn func(index int, batch []T) error) error {
	index := 0
	return ProcessInBatches(items, size, func(b []T) error {
		err := fn(index, b)
		index++
		return err
	})
}
