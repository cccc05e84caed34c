// Package daemon holds the lottery daemon configuration, loaded from a TOML
// file with sane defaults for every field.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/holiman/uint256"

	"github.com/lotto-network/lotto/internal/domain"
)

// Config is the full daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Lottery LotteryConfig `toml:"lottery"`
	Chain   ChainConfig   `toml:"chain"`
	Storage StorageConfig `toml:"storage"`
	Metrics MetricsConfig `toml:"metrics"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LotteryConfig holds the round parameters. Prices are decimal wei strings so
// the config round-trips exactly.
type LotteryConfig struct {
	PeriodTicks     uint64 `toml:"period_ticks"`
	WinnerRanks     int    `toml:"winner_ranks"`
	FullPriceWei    string `toml:"full_price_wei"`
	HalfPriceWei    string `toml:"half_price_wei"`
	QuarterPriceWei string `toml:"quarter_price_wei"`
}

// ChainConfig configures the tick clock that stands in for block height.
type ChainConfig struct {
	BlockInterval string `toml:"block_interval"`
}

// StorageConfig configures the sqlite store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the defaults: the original contract's tier prices
// (8/4/2 finney), a 20-tick period, 4 paid ranks, one tick per second.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7707,
		},
		Lottery: LotteryConfig{
			PeriodTicks:     20,
			WinnerRanks:     4,
			FullPriceWei:    "8000000000000000",
			HalfPriceWei:    "4000000000000000",
			QuarterPriceWei: "2000000000000000",
		},
		Chain: ChainConfig{
			BlockInterval: "1s",
		},
		Storage: StorageConfig{
			Path: defaultDBPath(),
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file is
// not an error — the defaults apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// TierPrices parses the configured prices into the tier table.
func (c Config) TierPrices() (map[domain.Tier]*uint256.Int, error) {
	out := make(map[domain.Tier]*uint256.Int, 3)
	for tier, dec := range map[domain.Tier]string{
		domain.TierFull:    c.Lottery.FullPriceWei,
		domain.TierHalf:    c.Lottery.HalfPriceWei,
		domain.TierQuarter: c.Lottery.QuarterPriceWei,
	} {
		amt, err := uint256.FromDecimal(dec)
		if err != nil {
			return nil, fmt.Errorf("%s price %q: %w", tier, dec, err)
		}
		out[tier] = amt
	}
	return out, nil
}

// BlockInterval parses the configured tick interval.
func (c Config) BlockInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Chain.BlockInterval)
	if err != nil {
		return 0, fmt.Errorf("block_interval %q: %w", c.Chain.BlockInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("block_interval %q: must be positive", c.Chain.BlockInterval)
	}
	return d, nil
}

// Addr returns the host:port the API server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// defaultDBPath returns the database location under the user's home.
func defaultDBPath() string {
	if env := os.Getenv("LOTTO_HOME"); env != "" {
		return filepath.Join(env, "lotto.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lotto", "lotto.db")
}
