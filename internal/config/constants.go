package config

import "time"

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitTransfer     = uint64(21_000)
	GasLimitContractCall = uint64(200_000)
)

// Timeouts shared by the commands.
const (
	DefaultRPCTimeout = 30 * time.Second
	TxConfirmTimeout  = 3 * time.Minute
)
