package config

import "time"

// Config holds all floppy configuration.
type Config struct {
	Network    string          `mapstructure:"network"     validate:"required,oneof=ronin saigon"`
	RPC        RPCConfig       `mapstructure:"rpc"`
	Contracts  ContractsConfig `mapstructure:"contracts"`
	PrivateKey string          `mapstructure:"private_key" validate:"omitempty,hexadecimal"`
	KeyRef     string          `mapstructure:"key_ref"` // keychain reference, used when PrivateKey is empty
	Keyring    KeyringConfig   `mapstructure:"keyring"`
	Scan       ScanConfig      `mapstructure:"scan"`
	Log        LogConfig       `mapstructure:"log"`
}

// RPCConfig overrides the network's default endpoint.
type RPCConfig struct {
	URL     string        `mapstructure:"url"     validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ContractsConfig overrides the network's known deployments.
type ContractsConfig struct {
	Gamble      string `mapstructure:"gamble"      validate:"omitempty,eth_addr"`
	Distributor string `mapstructure:"distributor" validate:"omitempty,eth_addr"`
	Forge       string `mapstructure:"forge"       validate:"omitempty,eth_addr"`
	Token       string `mapstructure:"token"       validate:"omitempty,eth_addr"`
}

// KeyringConfig configures the encrypted file keyring used when no OS
// keychain is available.
type KeyringConfig struct {
	Dir      string `mapstructure:"dir"`
	Password string `mapstructure:"password"`
}

// ScanConfig holds the batch log scanner defaults.
type ScanConfig struct {
	BatchSize uint64        `mapstructure:"batch_size" validate:"gt=0"`
	Delay     time.Duration `mapstructure:"delay"      validate:"gte=0"`
	RPS       float64       `mapstructure:"rps"        validate:"gte=0"` // > 0 switches to the token-bucket pacer
}

// LogConfig controls the zerolog diagnostic logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}
