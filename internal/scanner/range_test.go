package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeBatchesReferenceScenario(t *testing.T) {
	r := Range{From: 100, To: 1100, BatchSize: 499}

	got := r.Batches()
	require.Len(t, got, 3)
	assert.Equal(t, Batch{Index: 0, Count: 3, Start: 100, End: 598}, got[0])
	assert.Equal(t, Batch{Index: 1, Count: 3, Start: 599, End: 1097}, got[1])
	assert.Equal(t, Batch{Index: 2, Count: 3, Start: 1098, End: 1100}, got[2])
	assert.True(t, got[2].Last())
	assert.Equal(t, uint64(3), got[2].Size())
}

func TestRangeSingleBlock(t *testing.T) {
	r := Range{From: 42, To: 42, BatchSize: 499}
	require.Equal(t, uint64(1), r.BatchCount())
	assert.Equal(t, Batch{Index: 0, Count: 1, Start: 42, End: 42}, r.Batch(0))
}

func TestRangeExactMultiple(t *testing.T) {
	r := Range{From: 0, To: 9, BatchSize: 5}
	assert.Equal(t, []Batch{
		{Index: 0, Count: 2, Start: 0, End: 4},
		{Index: 1, Count: 2, Start: 5, End: 9},
	}, r.Batches())
}

func TestRangeBatchesTileTheRange(t *testing.T) {
	for _, r := range []Range{
		{From: 0, To: 0, BatchSize: 1},
		{From: 0, To: 1, BatchSize: 1},
		{From: 7, To: 8, BatchSize: 499},
		{From: 39246306, To: 39248000, BatchSize: 499},
		{From: 1, To: 1000, BatchSize: 3},
		{From: 500, To: 998, BatchSize: 499},
		{From: 500, To: 999, BatchSize: 499},
	} {
		batches := r.Batches()
		require.NotEmpty(t, batches, "%+v", r)

		wantCount := (r.To - r.From + 1 + r.BatchSize - 1) / r.BatchSize
		assert.Equal(t, wantCount, uint64(len(batches)), "%+v", r)
		assert.Equal(t, r.From, batches[0].Start, "%+v", r)
		assert.Equal(t, r.To, batches[len(batches)-1].End, "%+v", r)

		var covered uint64
		for i, b := range batches {
			assert.LessOrEqual(t, b.Start, b.End)
			assert.LessOrEqual(t, b.Size(), r.BatchSize)
			if i > 0 {
				assert.Equal(t, batches[i-1].End+1, b.Start, "batches must be contiguous in %+v", r)
			}
			covered += b.Size()
		}
		assert.Equal(t, r.Blocks(), covered, "no block skipped or counted twice in %+v", r)
	}
}

func TestRangeValidate(t *testing.T) {
	assert.NoError(t, Range{From: 1, To: 1, BatchSize: 1}.Validate())
	assert.ErrorIs(t, Range{From: 2, To: 1, BatchSize: 1}.Validate(), ErrInvalidRange)
	assert.ErrorIs(t, Range{From: 1, To: 2, BatchSize: 0}.Validate(), ErrInvalidRange)
	assert.Zero(t, Range{From: 2, To: 1, BatchSize: 1}.BatchCount())
}

func TestRangeBatchOutOfRangePanics(t *testing.T) {
	r := Range{From: 0, To: 10, BatchSize: 5}
	assert.Panics(t, func() { r.Batch(3) })
}

func TestBatchString(t *testing.T) {
	b := Range{From: 100, To: 1100, BatchSize: 499}.Batch(1)
	assert.Equal(t, "batch 2/3 (blocks 599 to 1097)", b.String())
}
