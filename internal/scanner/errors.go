package scanner

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BatchError reports a failed log query. The scan stops at the failing batch
// and is never retried.
type BatchError struct {
	Batch Batch
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("fetching logs for %s: %v", e.Batch, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// DecodeError reports a log entry that does not match the expected event
// schema. It identifies the entry so it can be inspected on-chain.
type DecodeError struct {
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
	Address     common.Address
	Topic0      common.Hash
	Err         error
}

// NewDecodeError attributes err to the log entry l.
func NewDecodeError(l types.Log, err error) *DecodeError {
	de := &DecodeError{
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		LogIndex:    l.Index,
		Address:     l.Address,
		Err:         err,
	}
	if len(l.Topics) > 0 {
		de.Topic0 = l.Topics[0]
	}
	return de
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding log %d of tx %s (block %d): %v", e.LogIndex, e.TxHash.Hex(), e.BlockNumber, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
