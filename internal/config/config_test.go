package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/floppylabs/floppy/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "ronin", cfg.Network)
	assert.Equal(t, uint64(499), cfg.Scan.BatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Scan.Delay)
	assert.Zero(t, cfg.Scan.RPS)
	assert.Equal(t, config.DefaultRPCTimeout, cfg.RPC.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FLOPPY_NETWORK", "saigon")
	t.Setenv("FLOPPY_SCAN_BATCH_SIZE", "100")
	t.Setenv("FLOPPY_SCAN_DELAY", "250ms")
	t.Setenv("FLOPPY_CONTRACTS_DISTRIBUTOR", "0x1bece3a948c14eefbaace67fe6f51cd21b79aa21")

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "saigon", cfg.Network)
	assert.Equal(t, uint64(100), cfg.Scan.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Scan.Delay)
	assert.Equal(t, "0x1bece3a948c14eefbaace67fe6f51cd21b79aa21", cfg.Contracts.Distributor)
}

func TestLoadUnprefixedPrivateKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", cfg.PrivateKey)
	assert.NoError(t, cfg.RequireSigningKey())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floppy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
network: saigon
rpc:
  url: https://saigon-archive.roninchain.com/rpc
scan:
  batch_size: 250
log:
  level: debug
`), 0o600))

	cfg, err := config.Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "saigon", cfg.Network)
	assert.Equal(t, "https://saigon-archive.roninchain.com/rpc", cfg.RPC.URL)
	assert.Equal(t, uint64(250), cfg.Scan.BatchSize)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingConfigFileErrors(t *testing.T) {
	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownNetwork(t *testing.T) {
	t.Setenv("FLOPPY_NETWORK", "ethereum")
	_, err := config.Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Network")
}

func TestLoadRejectsZeroBatchSize(t *testing.T) {
	t.Setenv("FLOPPY_SCAN_BATCH_SIZE", "0")
	_, err := config.Load(viper.New(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BatchSize")
}

func TestLoadRejectsBadContractAddress(t *testing.T) {
	t.Setenv("FLOPPY_CONTRACTS_FORGE", "0x1234")
	_, err := config.Load(viper.New(), "")
	assert.Error(t, err)
}

func TestRequireSigningKey(t *testing.T) {
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("FLOPPY_PRIVATE_KEY", "")
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.RequireSigningKey(), config.ErrMissingPrivateKey)

	cfg.KeyRef = "floppy.deployer"
	assert.NoError(t, cfg.RequireSigningKey())
}
