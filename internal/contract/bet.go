package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BetTier is the stake tier of a bet.
type BetTier uint8

const (
	TierBronze BetTier = iota
	TierSilver
	TierGold
	TierDiamond
)

var tierNames = [...]string{"Bronze", "Silver", "Gold", "Diamond"}

func (t BetTier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// ParseBetTier accepts a tier name (case-insensitive) or its number.
func ParseBetTier(s string) (BetTier, error) {
	for i, n := range tierNames {
		if strings.EqualFold(s, n) || s == fmt.Sprint(i) {
			return BetTier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bet tier %q (want bronze, silver, gold or diamond)", s)
}

// BetStatus is the lifecycle state of a bet.
type BetStatus uint8

const (
	StatusUnknown BetStatus = iota
	StatusPending
	StatusResolved
	StatusCanceled
)

var statusNames = [...]string{"Unknown", "Pending", "Resolved", "Canceled"}

func (s BetStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// ParseBetStatus accepts a status name (case-insensitive) or its number.
func ParseBetStatus(s string) (BetStatus, error) {
	for i, n := range statusNames {
		if strings.EqualFold(s, n) || s == fmt.Sprint(i) {
			return BetStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown bet status %q", s)
}

// BetInfo mirrors the tuple returned by getBetInfoById.
type BetInfo struct {
	Requester common.Address
	Receiver  common.Address
	Tier      uint8
	Status    uint8
	Amount    *big.Int
	Points    *big.Int
	Reward    *big.Int
	Timestamp *big.Int
	Win       bool
	Claimed   bool
}

// BetTier returns the typed tier.
func (b BetInfo) BetTier() BetTier { return BetTier(b.Tier) }

// BetStatus returns the typed status.
func (b BetInfo) BetStatus() BetStatus { return BetStatus(b.Status) }

// Gamble is a typed binding of the gamble contract.
type Gamble struct {
	caller *Caller
	abi    abi.ABI
}

// NewGamble binds the gamble contract at address.
func NewGamble(backend CallBackend, address common.Address) (*Gamble, error) {
	a, err := BuiltinABI(BuiltinGamble)
	if err != nil {
		return nil, err
	}
	return &Gamble{caller: NewCaller(backend, address, a), abi: a}, nil
}

// Address returns the contract address.
func (g *Gamble) Address() common.Address { return g.caller.Address() }

// BetInfo calls getBetInfoById.
func (g *Gamble) BetInfo(ctx context.Context, id *big.Int) (*BetInfo, error) {
	out, err := g.caller.Call(ctx, "getBetInfoById", id)
	if err != nil {
		return nil, err
	}
	info := *abi.ConvertType(out[0], new(BetInfo)).(*BetInfo)
	return &info, nil
}

// MinBetAmount calls getMinBetAmount.
func (g *Gamble) MinBetAmount(ctx context.Context) (*big.Int, error) {
	out, err := g.caller.Call(ctx, "getMinBetAmount")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// BetsByStatus calls getBetsByStatus and returns the ids with their infos.
func (g *Gamble) BetsByStatus(ctx context.Context, status BetStatus) ([]*big.Int, []BetInfo, error) {
	out, err := g.caller.Call(ctx, "getBetsByStatus", uint8(status))
	if err != nil {
		return nil, nil, err
	}
	ids := *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int)
	infos := *abi.ConvertType(out[1], new([]BetInfo)).(*[]BetInfo)
	if len(ids) != len(infos) {
		return nil, nil, fmt.Errorf("getBetsByStatus: %d ids but %d bets", len(ids), len(infos))
	}
	return ids, infos, nil
}

// PlaceBet sends placeBet(receiver, amount, tier) through s.
func (g *Gamble) PlaceBet(ctx context.Context, s *Sender, receiver common.Address, amount *big.Int, tier BetTier) (*types.Transaction, error) {
	return s.Transact(ctx, g.Address(), g.abi, "placeBet", nil, receiver, amount, uint8(tier))
}
