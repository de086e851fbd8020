package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/floppylabs/floppy/internal/scanner"
)

// ErrNoCheckpoint is returned by LoadCheckpoint when the file does not exist.
var ErrNoCheckpoint = errors.New("no checkpoint")

// ErrCheckpointMismatch is returned by Resume when a checkpoint belongs to a
// different scan.
var ErrCheckpointMismatch = errors.New("checkpoint belongs to a different scan")

// Checkpoint records how far a scan got.
type Checkpoint struct {
	Name             string            `json:"name"`
	Network          string            `json:"network"`
	Contract         string            `json:"contract"`
	From             uint64            `json:"from"`
	To               uint64            `json:"to"`
	BatchSize        uint64            `json:"batch_size"`
	LastBlockTracked uint64            `json:"last_block_tracked"`
	BatchesDone      uint64            `json:"batches_done"`
	EventCount       uint64            `json:"event_count"`
	Complete         bool              `json:"complete"`
	Error            string            `json:"error,omitempty"`
	Totals           map[string]string `json:"totals,omitempty"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewCheckpoint captures the outcome of a scan over r. Counters add up with
// prev when the scan was itself a resume of prev.
func NewCheckpoint[A any](prev *Checkpoint, name, network, contract string, r scanner.Range, res scanner.Result[A], scanErr error) Checkpoint {
	cp := Checkpoint{
		Name:             name,
		Network:          network,
		Contract:         strings.ToLower(contract),
		From:             r.From,
		To:               r.To,
		BatchSize:        r.BatchSize,
		LastBlockTracked: res.LastBlockTracked,
		BatchesDone:      res.BatchesDone,
		EventCount:       res.EventCount,
		UpdatedAt:        time.Now().UTC(),
	}
	if prev != nil {
		cp.From = prev.From
		cp.BatchesDone += prev.BatchesDone
		cp.EventCount += prev.EventCount
		if res.BatchesDone == 0 {
			cp.LastBlockTracked = prev.LastBlockTracked
		}
	}
	if scanErr != nil {
		cp.Error = scanErr.Error()
	} else {
		cp.Complete = true
	}
	return cp
}

// Resume returns the range still to scan. It fails when the checkpoint was
// written for another scan, network or contract.
func (cp *Checkpoint) Resume(name, network, contract string, batchSize uint64) (scanner.Range, bool, error) {
	if cp.Name != name || cp.Network != network || !strings.EqualFold(cp.Contract, contract) {
		return scanner.Range{}, false, fmt.Errorf("%w: %s on %s (%s)", ErrCheckpointMismatch, cp.Name, cp.Network, cp.Contract)
	}
	if cp.Complete {
		return scanner.Range{}, false, nil
	}
	done := scanner.Result[struct{}]{LastBlockTracked: cp.LastBlockTracked, BatchesDone: cp.BatchesDone}
	r, more := done.Remaining(scanner.Range{From: cp.From, To: cp.To, BatchSize: batchSize})
	return r, more, nil
}

// SaveCheckpoint writes cp to path as indented JSON.
func SaveCheckpoint(path string, cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", ErrNoCheckpoint, path)
	}
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parsing checkpoint %s: %w", path, err)
	}
	return &cp, nil
}
