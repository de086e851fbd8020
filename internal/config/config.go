package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix        = "FLOPPY"
	defaultNetwork   = "ronin"
	defaultBatchSize = 499
	defaultDelay     = "100ms"
	defaultLogLevel  = "warn"
)

// ErrMissingPrivateKey is returned by signing commands run without a key.
var ErrMissingPrivateKey = errors.New("no private key configured: set PRIVATE_KEY (or FLOPPY_PRIVATE_KEY) or import one with `floppy wallet import`")

// Load builds the configuration from, in increasing precedence: defaults,
// the config file (if cfgFile is set), .env, the environment and any flags
// already bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	setDefaults(v)

	// sets e.g. FLOPPY_SCAN_BATCH_SIZE to scan.batch_size
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The unprefixed names match the .env files the contract scripts shipped with.
	v.BindEnv("private_key", envPrefix+"_PRIVATE_KEY", "PRIVATE_KEY") //nolint:errcheck
	v.BindEnv("rpc.url", envPrefix+"_RPC_URL", "RPC_URL")             //nolint:errcheck

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.PrivateKey = strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireSigningKey reports a configuration error when neither a private key
// nor a keychain reference is available.
func (c *Config) RequireSigningKey() error {
	if c.PrivateKey == "" && c.KeyRef == "" {
		return ErrMissingPrivateKey
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", defaultNetwork)
	v.SetDefault("rpc.url", "")
	v.SetDefault("rpc.timeout", DefaultRPCTimeout)
	v.SetDefault("contracts.gamble", "")
	v.SetDefault("contracts.distributor", "")
	v.SetDefault("contracts.forge", "")
	v.SetDefault("contracts.token", "")
	v.SetDefault("private_key", "")
	v.SetDefault("key_ref", "")
	v.SetDefault("keyring.dir", "")
	v.SetDefault("keyring.password", "")
	v.SetDefault("scan.batch_size", defaultBatchSize)
	v.SetDefault("scan.delay", defaultDelay)
	v.SetDefault("scan.rps", 0)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.pretty", false)
}
