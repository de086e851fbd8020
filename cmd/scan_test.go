package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floppylabs/floppy/internal/contract"
	"github.com/floppylabs/floppy/internal/scanner"
	"github.com/floppylabs/floppy/internal/sink"
)

// fakeLogs serves logs by block range.
type fakeLogs struct{ logs []types.Log }

func (f *fakeLogs) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var out []types.Log
	for _, l := range f.logs {
		if l.BlockNumber >= q.FromBlock.Uint64() && l.BlockNumber <= q.ToBlock.Uint64() {
			out = append(out, l)
		}
	}
	return out, nil
}

func runJob[E, A any](t *testing.T, job scanJob[E, A], logs []types.Log, r scanner.Range) scanner.Result[A] {
	t.Helper()
	s := scanner.New(&fakeLogs{logs: logs}, scanner.WithPacer(scanner.NoDelay()), scanner.WithLogger(zerolog.Nop()))
	f := scanner.NewFilter(common.Address{}, job.decoder.Signature())
	res, err := scanner.Scan(context.Background(), s, r, f, job.decodeLog, job.fold, job.initial())
	require.NoError(t, err)
	return res
}

func ether(n int64) *big.Int { return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18)) }

// ---------------------------------------------------------------------------
// jobs
// ---------------------------------------------------------------------------

func TestDistributedJobSumsCommission(t *testing.T) {
	job, err := distributedJob()
	require.NoError(t, err)

	logs := []types.Log{
		distributedLog(t, 100, ether(1)),
		distributedLog(t, 700, big.NewInt(5e17)),
		distributedLog(t, 1100, ether(2)),
	}
	res := runJob(t, job, logs, scanner.Range{From: 100, To: 1100, BatchSize: 499})

	assert.Equal(t, uint64(3), res.Accumulator.Count)
	assert.Equal(t, "3500000000000000000", res.Accumulator.Commission.String())

	report := job.report(res.Accumulator)
	assert.Equal(t, [2]string{"Distributions", "3"}, report[0])
	assert.Contains(t, report[1][1], "3.5 RON")
}

func TestDistributedTotalsSurviveCheckpoint(t *testing.T) {
	job, err := distributedJob()
	require.NoError(t, err)

	acc := distributedTotals{Commission: ether(7), Count: 4}
	restored, err := job.seed(job.totals(acc))
	require.NoError(t, err)
	assert.Equal(t, acc.Count, restored.Count)
	assert.Equal(t, 0, acc.Commission.Cmp(restored.Commission))

	_, err = job.seed(map[string]string{"commission": "abc"})
	assert.Error(t, err)
}

func forgeLog(t *testing.T, block uint64, blueprint int64, fee *big.Int) types.Log {
	t.Helper()
	d := builtinEvent(t, contract.BuiltinForge, contract.EventForgingCompleted)
	type axieInfo struct {
		Cooldown *big.Int
		Nonce    *big.Int
	}
	return types.Log{
		Topics: []common.Hash{d.Topic(), common.BytesToHash(someone.Bytes()), common.BigToHash(big.NewInt(blueprint))},
		Data: packEventData(t, contract.BuiltinForge, contract.EventForgingCompleted,
			[]*big.Int{big.NewInt(1)}, []axieInfo{{big.NewInt(0), big.NewInt(1)}}, fee),
		BlockNumber: block,
	}
}

func TestForgeJobCountsBlueprints(t *testing.T) {
	job, err := forgeJob()
	require.NoError(t, err)

	logs := []types.Log{
		forgeLog(t, 10, 0, ether(1)),
		forgeLog(t, 11, 1, ether(2)),
		forgeLog(t, 12, 1, big.NewInt(5e17)),
		forgeLog(t, 13, 2, ether(1)),
	}
	res := runJob(t, job, logs, scanner.Range{From: 10, To: 13, BatchSize: 2})

	acc := res.Accumulator
	assert.Equal(t, uint64(4), acc.Count)
	assert.Equal(t, uint64(1), acc.Blueprint0)
	assert.Equal(t, uint64(2), acc.Blueprint1)
	assert.Equal(t, "4500000000000000000", acc.Fees.String())

	restored, err := job.seed(job.totals(acc))
	require.NoError(t, err)
	assert.Equal(t, acc.Blueprint1, restored.Blueprint1)
	assert.Equal(t, 0, acc.Fees.Cmp(restored.Fees))
}

func transferLog(t *testing.T, block uint64, to common.Address, tx common.Hash) types.Log {
	t.Helper()
	d := builtinEvent(t, contract.BuiltinERC20, contract.EventTransfer)
	return types.Log{
		Topics:      []common.Hash{d.Topic(), common.BytesToHash(someone.Bytes()), common.BytesToHash(to.Bytes())},
		Data:        packEventData(t, contract.BuiltinERC20, contract.EventTransfer, big.NewInt(1)),
		BlockNumber: block,
		TxHash:      tx,
	}
}

func TestTransfersJobCollectsHashes(t *testing.T) {
	recipient := common.HexToAddress(defaultRecipient)
	job, err := transfersJob(recipient, filepath.Join(t.TempDir(), "hashes.txt"))
	require.NoError(t, err)

	tx1, tx2 := common.HexToHash("0x01"), common.HexToHash("0x02")
	res := runJob(t, job, []types.Log{transferLog(t, 5, recipient, tx1), transferLog(t, 900, recipient, tx2)},
		scanner.Range{From: 1, To: 1000, BatchSize: 499})
	assert.Equal(t, []string{tx1.Hex(), tx2.Hex()}, res.Accumulator)

	topics := job.indexed(distributorAddr)
	require.Len(t, topics, 2)
	assert.Nil(t, topics[0], "any sender")
	assert.Equal(t, common.BytesToHash(recipient.Bytes()), topics[1][0])
}

func TestTransfersJobRejectsOtherRecipient(t *testing.T) {
	job, err := transfersJob(common.HexToAddress(defaultRecipient), "unused.txt")
	require.NoError(t, err)

	_, err = job.decodeLog(transferLog(t, 5, someone, common.HexToHash("0x01")))
	assert.Error(t, err)
}

func TestTransfersJobSeedsFromOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "hashes.txt")
	job, err := transfersJob(common.HexToAddress(defaultRecipient), out)
	require.NoError(t, err)

	hashes, err := job.seed(nil)
	require.NoError(t, err)
	assert.Empty(t, hashes, "missing file means nothing collected yet")

	require.NoError(t, sink.WriteTxHashes(out, []string{"0xaa", "0xbb"}))
	hashes, err = job.seed(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"0xaa", "0xbb"}, hashes)
}

func TestEventLine(t *testing.T) {
	d := builtinEvent(t, contract.BuiltinDistributor, contract.EventDistributed)
	ev, err := d.Decode(distributedLog(t, 77, big.NewInt(12)))
	require.NoError(t, err)

	line, err := eventLine(ev)
	require.NoError(t, err)

	var got struct {
		Event string            `json:"event"`
		Block uint64            `json:"block"`
		Args  map[string]string `json:"args"`
	}
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, "Distributed", got.Event)
	assert.Equal(t, uint64(77), got.Block)
	assert.Equal(t, "12", got.Args["commissionAmount"])
	assert.Equal(t, someone.Hex(), got.Args["recipient"])
}

// ---------------------------------------------------------------------------
// scan commands end to end
// ---------------------------------------------------------------------------

// distributedRPC answers eth_getLogs with one 1.5 RON payout at the first
// block of each batch, failing batches starting at failFrom while failing is set.
func distributedRPC(t *testing.T, failFrom uint64, failing *atomic.Bool) (string, func(string) int) {
	t.Helper()
	srv, calls := rpcMock(t, map[string]rpcHandler{
		"eth_blockNumber": constant(hexUint(1100)),
		"eth_getLogs": func(params []json.RawMessage) (any, error) {
			from := getLogsFromBlock(t, params)
			if failing != nil && failing.Load() && from == failFrom {
				return nil, errors.New("503 service unavailable")
			}
			return []types.Log{distributedLog(t, from, big.NewInt(15e17))}, nil
		},
	})
	return srv.URL, calls
}

func TestScanDistributedCommand(t *testing.T) {
	url, calls := distributedRPC(t, 0, nil)

	out, _, err := runCLI(t, "scan", "distributed", "--rpc", url, "--from", "100", "--to", "1100", "--delay", "0s")
	require.NoError(t, err)

	assert.Contains(t, out, "Processing batch 1/3 (blocks 100 to 598)")
	assert.Contains(t, out, "Processing batch 2/3 (blocks 599 to 1097)")
	assert.Contains(t, out, "Processing batch 3/3 (blocks 1098 to 1100)")
	assert.Contains(t, out, "4.5 RON")
	assert.Equal(t, 3, calls("eth_getLogs"))
	assert.Equal(t, 0, calls("eth_blockNumber"), "explicit --to needs no head lookup")
}

func TestScanDistributedToLatest(t *testing.T) {
	url, calls := distributedRPC(t, 0, nil)

	out, _, err := runCLI(t, "scan", "distributed", "--rpc", url, "--from", "1000", "--to", "latest", "--delay", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "Processing batch 1/1 (blocks 1000 to 1100)")
	assert.Equal(t, 1, calls("eth_blockNumber"))
}

func TestScanFailureCheckpointAndResume(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	url, calls := distributedRPC(t, 599, &failing)
	cpPath := filepath.Join(t.TempDir(), "distributed.json")

	out, errOut, err := runCLI(t, "scan", "distributed", "--rpc", url, "--from", "100", "--to", "1100",
		"--delay", "0s", "--checkpoint", cpPath)
	require.Error(t, err)
	assert.True(t, isReported(err))
	assert.Contains(t, out, "1.5 RON", "totals so far are printed")
	assert.Contains(t, errOut, "last block tracked: 598")

	cp, err := sink.LoadCheckpoint(cpPath)
	require.NoError(t, err)
	assert.False(t, cp.Complete)
	assert.Equal(t, uint64(598), cp.LastBlockTracked)
	assert.Equal(t, "1500000000000000000", cp.Totals["commission"])

	failing.Store(false)
	out, _, err = runCLI(t, "scan", "distributed", "--rpc", url, "--delay", "0s",
		"--checkpoint", cpPath, "--resume")
	require.NoError(t, err)
	assert.Contains(t, out, "Resuming distributed at block 599")
	assert.Contains(t, out, "4.5 RON")
	assert.Equal(t, 4, calls("eth_getLogs"), "1 ok + 1 failed + 2 resumed")

	cp, err = sink.LoadCheckpoint(cpPath)
	require.NoError(t, err)
	assert.True(t, cp.Complete)
	assert.Equal(t, uint64(1100), cp.LastBlockTracked)
	assert.Equal(t, uint64(3), cp.EventCount)
	assert.Equal(t, uint64(100), cp.From)
}

func TestScanEventsResumeKeepsEarlierLines(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	url, _ := distributedRPC(t, 599, &failing)
	dir := t.TempDir()
	cpPath, outPath := filepath.Join(dir, "events.json"), filepath.Join(dir, "events.jsonl")
	args := []string{"scan", "events", "--abi", "distributor", "--event", "Distributed",
		"--rpc", url, "--delay", "0s", "--checkpoint", cpPath, "--out", outPath}

	_, _, err := runCLI(t, append(args, "--from", "100", "--to", "1100")...)
	require.Error(t, err)
	lines, err := sink.ReadLines(outPath)
	require.NoError(t, err)
	require.Len(t, lines, 1, "partial output is written on failure")

	failing.Store(false)
	_, _, err = runCLI(t, append(args, "--resume")...)
	require.NoError(t, err)

	lines, err = sink.ReadLines(outPath)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for i, block := range []uint64{100, 599, 1098} {
		var ev struct {
			Block uint64 `json:"block"`
		}
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &ev))
		assert.Equal(t, block, ev.Block)
	}

	cp, err := sink.LoadCheckpoint(cpPath)
	require.NoError(t, err)
	assert.True(t, cp.Complete)
	assert.Equal(t, uint64(3), cp.EventCount)
	assert.Equal(t, "3", cp.Totals["lines"])
}

func TestScanEventsResumeNeedsOut(t *testing.T) {
	srv, calls := rpcMock(t, nil)
	cpPath := filepath.Join(t.TempDir(), "events.json")

	_, _, err := runCLI(t, "scan", "events", "--abi", "distributor", "--event", "Distributed",
		"--rpc", srv.URL, "--checkpoint", cpPath, "--resume")
	require.ErrorIs(t, err, errEventsResumeWithoutOut)
	assert.Zero(t, calls("eth_getLogs"))
}

func TestReloadLinesChecksRecordedCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	lines, err := reloadLines(path, map[string]string{"lines": "0"}, "lines")
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, sink.WriteLines(path, []string{"a", "b"}))
	lines, err = reloadLines(path, map[string]string{"lines": "2"}, "lines")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)

	_, err = reloadLines(path, map[string]string{"lines": "3"}, "lines")
	assert.ErrorContains(t, err, "checkpoint recorded 3")
}

func TestScanResumeNeedsCheckpoint(t *testing.T) {
	url, _ := distributedRPC(t, 0, nil)
	_, _, err := runCLI(t, "scan", "distributed", "--rpc", url, "--resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--checkpoint")
}

func TestScanTransfersWritesHashes(t *testing.T) {
	recipient := common.HexToAddress(defaultRecipient)
	var sawRecipientTopic atomic.Bool
	srv, _ := rpcMock(t, map[string]rpcHandler{
		"eth_getLogs": func(params []json.RawMessage) (any, error) {
			if strings.Contains(strings.ToLower(string(params[0])), strings.ToLower(common.BytesToHash(recipient.Bytes()).Hex())) {
				sawRecipientTopic.Store(true)
			}
			from := getLogsFromBlock(t, params)
			return []types.Log{transferLog(t, from, recipient, common.BigToHash(new(big.Int).SetUint64(from)))}, nil
		},
	})
	outFile := filepath.Join(t.TempDir(), "transactionHashes.txt")

	_, _, err := runCLI(t, "scan", "transfers", "--rpc", srv.URL, "--from", "1", "--to", "998",
		"--delay", "0s", "--out", outFile)
	require.NoError(t, err)
	assert.True(t, sawRecipientTopic.Load())

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, common.BigToHash(big.NewInt(1)).Hex()+"\n"+common.BigToHash(big.NewInt(500)).Hex(), string(data))
}
