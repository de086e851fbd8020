package chain

import (
	"errors"
	"sort"
	"strings"
)

// ErrChainNotFound is returned when a network is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Contract names used in Chain.Contracts.
const (
	ContractGamble      = "gamble"
	ContractDistributor = "distributor"
	ContractForge       = "forge"
	ContractToken       = "token"
)

// Chain holds the metadata of one Ronin network.
type Chain struct {
	Name           string            `json:"name"`
	DisplayName    string            `json:"display_name"`
	ChainID        int64             `json:"chain_id"`
	NativeCurrency string            `json:"native_currency"`
	RPC            string            `json:"rpc"`
	ArchiveRPC     string            `json:"archive_rpc"` // serves eth_getLogs over old ranges
	Explorer       string            `json:"explorer"`
	Contracts      map[string]string `json:"contracts"` // known deployments by role
}

// Registry is the network registry.
type Registry struct {
	chains []Chain
	byName map[string]*Chain
	byID   map[int64]*Chain
}

// NewRegistry returns the registry of supported networks.
func NewRegistry() *Registry {
	chains := allChains()
	r := &Registry{
		chains: chains,
		byName: make(map[string]*Chain, len(chains)),
		byID:   make(map[int64]*Chain, len(chains)),
	}
	for i := range r.chains {
		c := &r.chains[i]
		r.byName[c.Name] = c
		r.byID[c.ChainID] = c
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Chain {
	return r.chains
}

// Names returns the sorted network names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetByName finds a network by its slug name (e.g. "ronin", "saigon").
func (r *Registry) GetByName(name string) (*Chain, error) {
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// GetByChainID finds a network by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (*Chain, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, ErrChainNotFound
	}
	return c, nil
}

// Endpoint returns the archive RPC when archive is set and one is known,
// otherwise the regular RPC.
func (c *Chain) Endpoint(archive bool) string {
	if archive && c.ArchiveRPC != "" {
		return c.ArchiveRPC
	}
	return c.RPC
}

// Contract returns the known deployment for role, or "".
func (c *Chain) Contract(role string) string {
	return c.Contracts[role]
}

// TxURL returns the explorer link of a transaction.
func (c *Chain) TxURL(hash string) string {
	return c.Explorer + "/tx/" + hash
}

// --- chain data ---

func allChains() []Chain {
	return []Chain{
		{
			Name: "ronin", DisplayName: "Ronin", ChainID: 2020, NativeCurrency: "RON",
			RPC:        "https://api.roninchain.com/rpc",
			ArchiveRPC: "https://api-archived.roninchain.com/rpc",
			Explorer:   "https://app.roninchain.com",
			Contracts: map[string]string{
				ContractDistributor: "0x1bece3a948c14eefbaace67fe6f51cd21b79aa21",
				ContractForge:       "0xee85902589eb0c7f88603bb203045b885a1c3a98",
				ContractToken:       "0x97a9107c1793bc407d6f527b77e7fff4d812bece",
			},
		},
		{
			Name: "saigon", DisplayName: "Saigon Testnet", ChainID: 2021, NativeCurrency: "RON",
			RPC:        "https://saigon-testnet.roninchain.com/rpc",
			ArchiveRPC: "https://saigon-archive.roninchain.com/rpc",
			Explorer:   "https://saigon-app.roninchain.com",
			Contracts: map[string]string{
				ContractGamble: "0xec6be1d0c53489de129b2c13ac3edb393865c22f",
			},
		},
	}
}
