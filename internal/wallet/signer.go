package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs transactions with a single private key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex private key, with or without 0x.
func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &Signer{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// LoadSigner builds a signer from a key stored in ks under ref.
func LoadSigner(ks Backend, ref string) (*Signer, error) {
	hexKey, err := ks.Retrieve(ref)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	return NewSigner(hexKey)
}

// ImportKey validates hexKey and stores it under name. It returns the
// reference and the address of the key.
func ImportKey(ks Backend, name, hexKey string) (string, common.Address, error) {
	s, err := NewSigner(hexKey)
	if err != nil {
		return "", common.Address{}, err
	}
	ref, err := ks.Store(name, hexKey)
	if err != nil {
		return "", common.Address{}, err
	}
	return ref, s.address, nil
}

// Address returns the signer's address.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs tx for chainID. Legacy and dynamic-fee transactions are both
// accepted.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}
