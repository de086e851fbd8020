package scanner

import (
	"errors"
	"fmt"
)

// DefaultBatchSize keeps each eth_getLogs call under the public Ronin RPC
// result-size limit.
const DefaultBatchSize uint64 = 499

// ErrInvalidRange is returned for ranges that cannot be scanned.
var ErrInvalidRange = errors.New("invalid scan range")

// Range is an inclusive block range swept in fixed-size batches.
type Range struct {
	From      uint64
	To        uint64
	BatchSize uint64
}

// Batch is one contiguous sub-range of a Range. Index is 0-based.
type Batch struct {
	Index uint64
	Count uint64
	Start uint64
	End   uint64
}

// Size returns the number of blocks covered by the batch.
func (b Batch) Size() uint64 { return b.End - b.Start + 1 }

// Last reports whether b is the final batch of its range.
func (b Batch) Last() bool { return b.Index+1 == b.Count }

func (b Batch) String() string {
	return fmt.Sprintf("batch %d/%d (blocks %d to %d)", b.Index+1, b.Count, b.Start, b.End)
}

// Validate checks From <= To and BatchSize > 0.
func (r Range) Validate() error {
	if r.BatchSize == 0 {
		return fmt.Errorf("%w: batch size must be greater than zero", ErrInvalidRange)
	}
	if r.To < r.From {
		return fmt.Errorf("%w: to block %d is before from block %d", ErrInvalidRange, r.To, r.From)
	}
	return nil
}

// Blocks returns the inclusive length of the range.
func (r Range) Blocks() uint64 { return r.To - r.From + 1 }

// BatchCount returns ceil((To-From+1)/BatchSize). Every block of the range
// falls in exactly one batch, so From == To yields a single batch.
func (r Range) BatchCount() uint64 {
	if r.Validate() != nil {
		return 0
	}
	n := r.Blocks()
	return n/r.BatchSize + min(n%r.BatchSize, 1)
}

// Batch returns the i-th batch. It panics if i is out of range.
func (r Range) Batch(i uint64) Batch {
	count := r.BatchCount()
	if i >= count {
		panic(fmt.Sprintf("scanner: batch index %d out of range [0,%d)", i, count))
	}
	start := r.From + i*r.BatchSize
	end := r.To
	// start+BatchSize-1 may overflow near MaxUint64; compare on the remaining span instead.
	if r.To-start >= r.BatchSize {
		end = start + r.BatchSize - 1
	}
	return Batch{Index: i, Count: count, Start: start, End: end}
}

// Batches lists every batch of the range in ascending order.
func (r Range) Batches() []Batch {
	count := r.BatchCount()
	out := make([]Batch, 0, count)
	for i := uint64(0); i < count; i++ {
		out = append(out, r.Batch(i))
	}
	return out
}
