package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known development key (hardhat/anvil account #0).
const (
	hardhatKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	hardhatAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestNewSignerAddress(t *testing.T) {
	for _, key := range []string{hardhatKey, "0x" + hardhatKey, " 0x" + hardhatKey + "\n"} {
		s, err := NewSigner(key)
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(hardhatAddress), s.Address())
	}
}

func TestNewSignerInvalid(t *testing.T) {
	_, err := NewSigner("not-a-key")
	assert.Error(t, err)

	_, err = NewSigner("")
	assert.Error(t, err)
}

func TestLoadSigner(t *testing.T) {
	ks := NewInMemoryKeystore()
	ref, addr, err := ImportKey(ks, "main", hardhatKey)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(hardhatAddress), addr)

	s, err := LoadSigner(ks, ref)
	require.NoError(t, err)
	assert.Equal(t, addr, s.Address())

	_, err = LoadSigner(ks, "floppy.missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestImportKeyRejectsBadKey(t *testing.T) {
	ks := NewInMemoryKeystore()
	_, _, err := ImportKey(ks, "bad", "0x1234")
	require.Error(t, err)
	_, err = ks.Retrieve(Ref("bad"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestSignTxRecoversSender(t *testing.T) {
	s, err := NewSigner(hardhatKey)
	require.NoError(t, err)
	chainID := big.NewInt(2021)
	to := common.HexToAddress("0xec6be1d0c53489de129b2c13ac3edb393865c22f")

	txs := map[string]*types.Transaction{
		"legacy": types.NewTx(&types.LegacyTx{
			Nonce: 1, GasPrice: big.NewInt(20e9), Gas: 21000, To: &to, Value: big.NewInt(1),
		}),
		"dynamic": types.NewTx(&types.DynamicFeeTx{
			ChainID: chainID, Nonce: 2, GasTipCap: big.NewInt(1e9), GasFeeCap: big.NewInt(41e9),
			Gas: 21000, To: &to, Value: big.NewInt(1),
		}),
	}
	for name, tx := range txs {
		t.Run(name, func(t *testing.T) {
			signed, err := s.SignTx(tx, chainID)
			require.NoError(t, err)

			from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
			require.NoError(t, err)
			assert.Equal(t, s.Address(), from)
			assert.Equal(t, chainID, signed.ChainId())
		})
	}
}
