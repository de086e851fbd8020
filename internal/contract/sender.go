package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/floppylabs/floppy/internal/config"
	"github.com/floppylabs/floppy/internal/wallet"
)

// SendBackend is the part of the node API needed to build and broadcast a
// transaction. *chain.Client implements it.
type SendBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	BaseFee(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Sender signs and broadcasts transactions from one account.
type Sender struct {
	backend SendBackend
	signer  *wallet.Signer
	chainID *big.Int
	logger  zerolog.Logger
}

// NewSender creates a Sender for chainID.
func NewSender(backend SendBackend, signer *wallet.Signer, chainID *big.Int, logger zerolog.Logger) *Sender {
	return &Sender{backend: backend, signer: signer, chainID: chainID, logger: logger}
}

// From returns the sending address.
func (s *Sender) From() common.Address { return s.signer.Address() }

// Transfer sends value wei of the native currency to to.
func (s *Sender) Transfer(ctx context.Context, to common.Address, value *big.Int) (*types.Transaction, error) {
	return s.send(ctx, to, value, nil, config.GasLimitTransfer)
}

// Transact calls a write function of the contract at to and broadcasts the
// transaction.
func (s *Sender) Transact(ctx context.Context, to common.Address, a abi.ABI, method string, value *big.Int, args ...any) (*types.Transaction, error) {
	m, ok := a.Methods[method]
	if !ok {
		return nil, fmt.Errorf("function %q not found in ABI", method)
	}
	if m.IsConstant() {
		return nil, fmt.Errorf("function %q is not a write function", method)
	}
	if value != nil && value.Sign() > 0 && !m.IsPayable() {
		return nil, fmt.Errorf("function %q is not payable", method)
	}

	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}
	return s.send(ctx, to, value, data, config.GasLimitContractCall)
}

func (s *Sender) send(ctx context.Context, to common.Address, value *big.Int, data []byte, fallbackGas uint64) (*types.Transaction, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := s.signer.Address()

	nonce, err := s.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		s.logger.Warn().Err(err).Uint64("fallback", fallbackGas).Msg("gas estimation failed, using fallback limit")
		gas = fallbackGas
	}

	tx, err := s.buildTx(ctx, nonce, to, value, gas, data)
	if err != nil {
		return nil, err
	}

	signed, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return nil, err
	}
	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}

	s.logger.Info().
		Str("hash", signed.Hash().Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gas).
		Msg("transaction sent")
	return signed, nil
}

// buildTx prices the transaction as EIP-1559 when the node reports a base
// fee and falls back to a legacy gas price otherwise.
func (s *Sender) buildTx(ctx context.Context, nonce uint64, to common.Address, value *big.Int, gas uint64, data []byte) (*types.Transaction, error) {
	baseFee, err := s.backend.BaseFee(ctx)
	if err == nil && baseFee != nil {
		tip, tipErr := s.backend.SuggestGasTipCap(ctx)
		if tipErr == nil {
			feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))
			return types.NewTx(&types.DynamicFeeTx{
				ChainID:   s.chainID,
				Nonce:     nonce,
				GasTipCap: tip,
				GasFeeCap: feeCap,
				Gas:       gas,
				To:        &to,
				Value:     value,
				Data:      data,
			}), nil
		}
		err = tipErr
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("dynamic fees unavailable, using legacy gas price")
	}

	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     data,
	}), nil
}
