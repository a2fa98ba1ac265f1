package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config captures the runtime configuration for the synthvault service: the
// registered asset set, oracle tolerances, pause switches, and HTTP wiring.
type Config struct {
	ListenAddress string        `toml:"ListenAddress"`
	DataDir       string        `toml:"DataDir"`
	Environment   string        `toml:"Environment"`
	EventBuffer   int           `toml:"EventBuffer"`
	Oracle        OracleConfig  `toml:"oracle"`
	Pauses        PauseConfig   `toml:"pauses"`
	Assets        []AssetConfig `toml:"asset"`
}

// AssetConfig registers one collateral asset. InitialPriceUSD seeds the
// manual dev feed in 8-decimal feed units; production deployments replace the
// feed wiring and ignore it.
type AssetConfig struct {
	Symbol          string `toml:"Symbol"`
	InitialPriceUSD string `toml:"InitialPriceUSD"`
}

// OracleConfig tunes reading validation.
type OracleConfig struct {
	// MaxAgeSeconds rejects readings older than the window; zero accepts
	// readings of any age.
	MaxAgeSeconds uint64 `toml:"MaxAgeSeconds"`
}

// MaxAge returns the staleness window as a duration.
func (o OracleConfig) MaxAge() time.Duration {
	return time.Duration(o.MaxAgeSeconds) * time.Second
}

// PauseConfig exposes operator switches for halting individual flows. It
// satisfies the engine's PauseView interface.
type PauseConfig struct {
	Deposit   bool `toml:"Deposit"`
	Redeem    bool `toml:"Redeem"`
	Mint      bool `toml:"Mint"`
	Burn      bool `toml:"Burn"`
	Liquidate bool `toml:"Liquidate"`
}

// IsPaused reports whether the named operation is halted.
func (p PauseConfig) IsPaused(op string) bool {
	switch op {
	case "deposit":
		return p.Deposit
	case "redeem":
		return p.Redeem
	case "mint":
		return p.Mint
	case "burn":
		return p.Burn
	case "liquidate":
		return p.Liquidate
	}
	return false
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8087"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./synthvault-data"
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 256
	}
}

// Validate rejects configurations the engine constructor would refuse, so
// misconfiguration surfaces before any state is established.
func (c *Config) Validate() error {
	if len(c.Assets) == 0 {
		return errors.New("config: at least one collateral asset is required")
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for i, asset := range c.Assets {
		symbol := strings.TrimSpace(asset.Symbol)
		if symbol == "" {
			return fmt.Errorf("config: asset %d has a blank symbol", i)
		}
		if _, ok := seen[symbol]; ok {
			return fmt.Errorf("config: duplicate asset symbol %q", symbol)
		}
		seen[symbol] = struct{}{}
		if _, err := asset.InitialPrice(); err != nil {
			return err
		}
	}
	return nil
}

// InitialPrice parses the seeded feed price.
func (a AssetConfig) InitialPrice() (*big.Int, error) {
	raw := strings.TrimSpace(a.InitialPriceUSD)
	if raw == "" {
		return nil, fmt.Errorf("config: asset %q has no initial price", a.Symbol)
	}
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok || price.Sign() <= 0 {
		return nil, fmt.Errorf("config: asset %q has an invalid initial price %q", a.Symbol, raw)
	}
	return price, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Assets: []AssetConfig{
			{Symbol: "WETH", InitialPriceUSD: "300000000000"},
			{Symbol: "WBTC", InitialPriceUSD: "6000000000000"},
		},
	}
	cfg.applyDefaults()
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
