package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network   string `mapstructure:"network" yaml:"network"`
	RPCUrl    string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl     string `mapstructure:"ws_url" yaml:"ws_url"`
	RPCAPIKey string `mapstructure:"rpc_api_key" yaml:"rpc_api_key"`

	// Wallet settings
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic" yaml:"mnemonic"`

	// External services
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Jupiter  JupiterConfig  `mapstructure:"jupiter" yaml:"jupiter"`
	Price    PriceConfig    `mapstructure:"price" yaml:"price"`

	// Scooping policy
	Scoop ScoopConfig `mapstructure:"scoop" yaml:"scoop"`

	// Logging settings
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Advanced settings
	Advanced AdvancedConfig `mapstructure:"advanced" yaml:"advanced"`
}

// RegistryConfig points at the token catalog service
type RegistryConfig struct {
	AllURL    string `mapstructure:"all_url" yaml:"all_url"`
	StrictURL string `mapstructure:"strict_url" yaml:"strict_url"`
}

// JupiterConfig contains swap-routing service settings
type JupiterConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	PlatformFeeBps int    `mapstructure:"platform_fee_bps" yaml:"platform_fee_bps"`
	FeeAccount     string `mapstructure:"fee_account" yaml:"fee_account"`
}

// PriceConfig contains price-lookup service settings
type PriceConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// FeeTarget receives a share of each realized swap's output.
// Each target's share is outAmount / floor(100/percent), computed
// independently of the other targets.
type FeeTarget struct {
	Account string  `mapstructure:"account" yaml:"account"`
	Percent float64 `mapstructure:"percent" yaml:"percent"`
}

// ScoopConfig contains the reclaim policy
type ScoopConfig struct {
	TargetMint       string      `mapstructure:"target_mint" yaml:"target_mint"`
	SlippageBps      int         `mapstructure:"slippage_bps" yaml:"slippage_bps"`
	BurnThresholdUSD float64     `mapstructure:"burn_threshold_usd" yaml:"burn_threshold_usd"`
	ForbiddenSymbols []string    `mapstructure:"forbidden_symbols" yaml:"forbidden_symbols"`
	FeeTargets       []FeeTarget `mapstructure:"fee_targets" yaml:"fee_targets"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
	SweepLogDir string `mapstructure:"sweep_log_dir" yaml:"sweep_log_dir"`
}

// AdvancedConfig contains advanced settings
type AdvancedConfig struct {
	HTTPTimeoutSec    int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	ConfirmTimeoutSec int `mapstructure:"confirm_timeout_sec" yaml:"confirm_timeout_sec"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("scooper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("$HOME/.scooper")
		viper.AddConfigPath("/etc/scooper/")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SCOOPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("network", "mainnet")
	viper.SetDefault("rpc_url", GetRPCEndpoint("mainnet"))
	viper.SetDefault("ws_url", GetWSEndpoint("mainnet"))

	viper.SetDefault("registry.all_url", DefaultTokenListURL)
	viper.SetDefault("registry.strict_url", DefaultStrictListURL)

	viper.SetDefault("jupiter.base_url", DefaultJupiterBaseURL)
	viper.SetDefault("jupiter.platform_fee_bps", DefaultPlatformFeeBps)

	viper.SetDefault("price.base_url", DefaultPriceBaseURL)

	viper.SetDefault("scoop.target_mint", DefaultTargetMint)
	viper.SetDefault("scoop.slippage_bps", DefaultSlippageBps)
	viper.SetDefault("scoop.burn_threshold_usd", DefaultBurnThresholdUSD)
	viper.SetDefault("scoop.forbidden_symbols", DefaultForbiddenSymbols)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.log_to_file", false)
	viper.SetDefault("logging.sweep_log_dir", "logs/sweeps")

	viper.SetDefault("advanced.http_timeout_sec", 30)
	viper.SetDefault("advanced.confirm_timeout_sec", 60)
}

func validateConfig(config *Config) error {
	if config.RPCUrl == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if config.Scoop.TargetMint == "" {
		return fmt.Errorf("scoop.target_mint is required")
	}
	if config.Scoop.SlippageBps <= 0 || config.Scoop.SlippageBps > 10000 {
		return fmt.Errorf("scoop.slippage_bps must be in (0, 10000], got %d", config.Scoop.SlippageBps)
	}
	if config.Scoop.BurnThresholdUSD < 0 {
		return fmt.Errorf("scoop.burn_threshold_usd must not be negative")
	}
	for i, target := range config.Scoop.FeeTargets {
		if target.Account == "" {
			return fmt.Errorf("scoop.fee_targets[%d].account is required", i)
		}
		if target.Percent <= 0 || target.Percent > 100 {
			return fmt.Errorf("scoop.fee_targets[%d].percent must be in (0, 100], got %v", i, target.Percent)
		}
	}
	return nil
}

// ForbiddenSet returns the forbidden token symbols as a lookup set.
// The target token's own symbol is always included: swapping a token
// into itself is never a valid reclaim.
func (c *Config) ForbiddenSet(targetSymbol string) map[string]bool {
	set := make(map[string]bool, len(c.Scoop.ForbiddenSymbols)+1)
	for _, symbol := range c.Scoop.ForbiddenSymbols {
		set[symbol] = true
	}
	if targetSymbol != "" {
		set[targetSymbol] = true
	}
	return set
}

// GetHTTPTimeout returns the HTTP client timeout
func (c *Config) GetHTTPTimeout() time.Duration {
	if c.Advanced.HTTPTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Advanced.HTTPTimeoutSec) * time.Second
}

// GetConfirmTimeout returns the per-transaction confirmation timeout
func (c *Config) GetConfirmTimeout() time.Duration {
	if c.Advanced.ConfirmTimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Advanced.ConfirmTimeoutSec) * time.Second
}
