package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/floppylabs/floppy/internal/contract"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

type rpcHandler func(params []json.RawMessage) (any, error)

// rpcMock serves JSON-RPC requests from per-method handlers and counts calls.
func rpcMock(t *testing.T, handlers map[string]rpcHandler) (*httptest.Server, func(method string) int) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls = map[string]int{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mu.Lock()
		calls[req.Method]++
		mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		h, ok := handlers[req.Method]
		if !ok {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		} else if result, err := h(req.Params); err != nil {
			resp["error"] = map[string]any{"code": -32000, "message": err.Error()}
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv, func(method string) int {
		mu.Lock()
		defer mu.Unlock()
		return calls[method]
	}
}

func constant(v any) rpcHandler {
	return func([]json.RawMessage) (any, error) { return v, nil }
}

// resetCommandState restores every flag to its default so values do not leak
// between in-process runs of rootCmd.
func resetCommandState() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.PersistentFlags(), c.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				f.Value.Set(f.DefValue) //nolint:errcheck
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	cfgFile = ""
}

// runCLI executes rootCmd in-process and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func builtinEvent(t *testing.T, builtin, name string) *contract.EventDecoder {
	t.Helper()
	d, err := contract.BuiltinEventDecoder(builtin, name)
	require.NoError(t, err)
	return d
}

// packEventData ABI-encodes the non-indexed arguments of a built-in event.
func packEventData(t *testing.T, builtin, name string, values ...any) []byte {
	t.Helper()
	a, err := contract.BuiltinABI(builtin)
	require.NoError(t, err)
	data, err := a.Events[name].Inputs.NonIndexed().Pack(values...)
	require.NoError(t, err)
	return data
}

var (
	distributorAddr = common.HexToAddress("0x1bece3a948c14eefbaace67fe6f51cd21b79aa21")
	someone         = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func distributedLog(t *testing.T, block uint64, amount *big.Int) types.Log {
	t.Helper()
	d := builtinEvent(t, contract.BuiltinDistributor, contract.EventDistributed)
	return types.Log{
		Address:     distributorAddr,
		Topics:      []common.Hash{d.Topic(), common.BytesToHash(someone.Bytes())},
		Data:        packEventData(t, contract.BuiltinDistributor, contract.EventDistributed, amount),
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(block)),
		BlockHash:   common.BigToHash(new(big.Int).SetUint64(block + 1)),
	}
}

// getLogsFromBlock extracts fromBlock of an eth_getLogs request.
func getLogsFromBlock(t *testing.T, params []json.RawMessage) uint64 {
	t.Helper()
	var q struct {
		FromBlock hexutil.Uint64 `json:"fromBlock"`
	}
	require.NoError(t, json.Unmarshal(params[0], &q))
	return uint64(q.FromBlock)
}

func hexUint(n uint64) string { return fmt.Sprintf("0x%x", n) }
