package scanner

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Filter selects the logs of one event emitted by one contract.
// Topics[0] holds the event topic hash; later positions carry optional
// indexed-argument constraints (nil matches anything).
type Filter struct {
	Address common.Address
	Topics  [][]common.Hash
}

// NewFilter builds a filter for the canonical event signature sig, e.g.
// "Transfer(address,address,uint256)". Each element of indexed constrains the
// matching indexed argument position.
func NewFilter(address common.Address, sig string, indexed ...[]common.Hash) Filter {
	topics := make([][]common.Hash, 0, 1+len(indexed))
	topics = append(topics, []common.Hash{EventTopic(sig)})
	topics = append(topics, indexed...)
	return Filter{Address: address, Topics: topics}
}

// EventTopic returns the keccak256 hash of a canonical event signature.
func EventTopic(sig string) common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(strings.ReplaceAll(sig, " ", "")))
	return common.BytesToHash(h.Sum(nil))
}

// Topic0 returns the event topic hash, or the zero hash if none is set.
func (f Filter) Topic0() common.Hash {
	if len(f.Topics) == 0 || len(f.Topics[0]) == 0 {
		return common.Hash{}
	}
	return f.Topics[0][0]
}

// Query scopes the filter to a single batch.
func (f Filter) Query(b Batch) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(b.Start),
		ToBlock:   new(big.Int).SetUint64(b.End),
		Addresses: []common.Address{f.Address},
		Topics:    f.Topics,
	}
}
