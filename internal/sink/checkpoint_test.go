package sink

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floppylabs/floppy/internal/scanner"
)

const distributor = "0x1bece3a948c14eefbaace67fe6f51cd21b79aa21"

var fullRange = scanner.Range{From: 100, To: 1100, BatchSize: 499}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.json")
	res := scanner.Result[int]{LastBlockTracked: 598, BatchesDone: 1, EventCount: 4}
	cp := NewCheckpoint(nil, "distributed", "ronin", distributor, fullRange, res, errors.New("rpc down"))
	cp.Totals = map[string]string{"commission_wei": "15"}

	require.NoError(t, SaveCheckpoint(path, cp))
	got, err := LoadCheckpoint(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(598), got.LastBlockTracked)
	assert.Equal(t, uint64(4), got.EventCount)
	assert.False(t, got.Complete)
	assert.Equal(t, "rpc down", got.Error)
	assert.Equal(t, "15", got.Totals["commission_wei"])
	assert.WithinDuration(t, cp.UpdatedAt, got.UpdatedAt, 0)
}

func TestLoadCheckpointMissing(t *testing.T) {
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestResumeAfterPartialScan(t *testing.T) {
	res := scanner.Result[int]{LastBlockTracked: 598, BatchesDone: 1}
	cp := NewCheckpoint(nil, "distributed", "ronin", distributor, fullRange, res, errors.New("boom"))

	r, more, err := cp.Resume("distributed", "ronin", "0x1BECE3A948C14EEFBAACE67FE6F51CD21B79AA21", 200)
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, scanner.Range{From: 599, To: 1100, BatchSize: 200}, r)
}

func TestResumeWithNoCompletedBatch(t *testing.T) {
	cp := NewCheckpoint(nil, "forge", "ronin", distributor, fullRange, scanner.Result[int]{}, errors.New("boom"))

	r, more, err := cp.Resume("forge", "ronin", distributor, 499)
	require.NoError(t, err)
	require.True(t, more)
	assert.Equal(t, fullRange, r)
}

func TestResumeCompletedScan(t *testing.T) {
	res := scanner.Result[int]{LastBlockTracked: 1100, BatchesDone: 3}
	cp := NewCheckpoint(nil, "forge", "ronin", distributor, fullRange, res, nil)
	assert.True(t, cp.Complete)

	_, more, err := cp.Resume("forge", "ronin", distributor, 499)
	require.NoError(t, err)
	assert.False(t, more)
}

func TestResumeMismatch(t *testing.T) {
	cp := NewCheckpoint(nil, "forge", "ronin", distributor, fullRange, scanner.Result[int]{}, nil)
	_, _, err := cp.Resume("distributed", "ronin", distributor, 499)
	assert.ErrorIs(t, err, ErrCheckpointMismatch)
}

func TestNewCheckpointAccumulatesPrevious(t *testing.T) {
	first := NewCheckpoint(nil, "transfers", "ronin", distributor, fullRange,
		scanner.Result[int]{LastBlockTracked: 598, BatchesDone: 1, EventCount: 2}, errors.New("boom"))

	resumed := scanner.Range{From: 599, To: 1100, BatchSize: 499}
	second := NewCheckpoint(&first, "transfers", "ronin", distributor, resumed,
		scanner.Result[int]{LastBlockTracked: 1100, BatchesDone: 2, EventCount: 3}, nil)

	assert.Equal(t, uint64(100), second.From)
	assert.Equal(t, uint64(3), second.BatchesDone)
	assert.Equal(t, uint64(5), second.EventCount)
	assert.True(t, second.Complete)

	failedAgain := NewCheckpoint(&first, "transfers", "ronin", distributor, resumed,
		scanner.Result[int]{}, errors.New("still down"))
	assert.Equal(t, uint64(598), failedAgain.LastBlockTracked)
}
