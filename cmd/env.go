package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"github.com/floppylabs/floppy/internal/chain"
	"github.com/floppylabs/floppy/internal/config"
	"github.com/floppylabs/floppy/internal/wallet"
)

// resolveNetwork returns the configured network from the registry.
func resolveNetwork() (*chain.Chain, error) {
	c, err := chain.NewRegistry().GetByName(cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("%w; known networks: ronin, saigon", err)
	}
	return c, nil
}

// dialClient connects to the network's endpoint, or the --rpc / rpc.url
// override when one is set. Scans read history and use the archive node.
func dialClient(ctx context.Context, c *chain.Chain, archive bool) (*chain.Client, error) {
	url := cfg.RPC.URL
	if url == "" {
		url = c.Endpoint(archive)
	}
	timeout := cfg.RPC.Timeout
	if timeout == 0 {
		timeout = config.DefaultRPCTimeout
	}
	return chain.Dial(ctx, url, timeout)
}

// contractAddress resolves a contract by role: flag, then config, then the
// network's known deployment.
func contractAddress(c *chain.Chain, role, override string) (common.Address, error) {
	addr := override
	if addr == "" {
		addr = configuredContract(role)
	}
	if addr == "" {
		addr = c.Contract(role)
	}
	if addr == "" {
		return common.Address{}, fmt.Errorf("no %s contract known on %s: pass --contract or set contracts.%s", role, c.Name, role)
	}
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("invalid %s contract address %q", role, addr)
	}
	return common.HexToAddress(addr), nil
}

func configuredContract(role string) string {
	switch role {
	case chain.ContractGamble:
		return cfg.Contracts.Gamble
	case chain.ContractDistributor:
		return cfg.Contracts.Distributor
	case chain.ContractForge:
		return cfg.Contracts.Forge
	case chain.ContractToken:
		return cfg.Contracts.Token
	}
	return ""
}

// loadSigner builds the transaction signer. It fails before any RPC when no
// key is configured.
func loadSigner() (*wallet.Signer, error) {
	if err := cfg.RequireSigningKey(); err != nil {
		return nil, err
	}
	if cfg.PrivateKey != "" {
		return wallet.NewSigner(cfg.PrivateKey)
	}
	ks, err := openKeystore()
	if err != nil {
		return nil, err
	}
	return wallet.LoadSigner(ks, cfg.KeyRef)
}

func openKeystore() (*wallet.Keystore, error) {
	dir := cfg.Keyring.Dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locating keyring directory: %w", err)
		}
		dir = filepath.Join(base, "floppy", "keys")
	}
	return wallet.DefaultKeystore(dir, cfg.Keyring.Password)
}

// parseAddress validates a hex address flag.
func parseAddress(flag, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s: invalid address %q", flag, s)
	}
	return common.HexToAddress(s), nil
}
