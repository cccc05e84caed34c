package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lotto-network/lotto/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 7707 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 7707)
	}
	if cfg.Lottery.PeriodTicks != 20 {
		t.Errorf("Lottery.PeriodTicks = %d, want 20", cfg.Lottery.PeriodTicks)
	}
	if cfg.Lottery.WinnerRanks != 4 {
		t.Errorf("Lottery.WinnerRanks = %d, want 4", cfg.Lottery.WinnerRanks)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled should be true by default")
	}
}

func TestTierPrices_Defaults(t *testing.T) {
	prices, err := DefaultConfig().TierPrices()
	if err != nil {
		t.Fatalf("TierPrices() error: %v", err)
	}

	want := domain.DefaultTierPrices()
	for _, tier := range []domain.Tier{domain.TierFull, domain.TierHalf, domain.TierQuarter} {
		if !prices[tier].Eq(want[tier]) {
			t.Errorf("%s price = %s, want %s", tier, prices[tier], want[tier])
		}
	}
}

func TestTierPrices_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lottery.HalfPriceWei = "four finney"

	if _, err := cfg.TierPrices(); err == nil {
		t.Error("expected an error for a non-decimal price")
	}
}

func TestBlockInterval(t *testing.T) {
	cfg := DefaultConfig()

	d, err := cfg.BlockInterval()
	if err != nil || d != time.Second {
		t.Errorf("BlockInterval() = %v, %v; want 1s", d, err)
	}

	cfg.Chain.BlockInterval = "250ms"
	if d, err = cfg.BlockInterval(); err != nil || d != 250*time.Millisecond {
		t.Errorf("BlockInterval() = %v, %v; want 250ms", d, err)
	}

	cfg.Chain.BlockInterval = "-3s"
	if _, err = cfg.BlockInterval(); err == nil {
		t.Error("negative interval should be rejected")
	}

	cfg.Chain.BlockInterval = "soon"
	if _, err = cfg.BlockInterval(); err == nil {
		t.Error("unparseable interval should be rejected")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 7707 {
		t.Errorf("missing file should yield defaults, got port %d", cfg.API.Port)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotto.toml")
	data := `
[api]
port = 9000

[lottery]
period_ticks = 120
winner_ranks = 6

[metrics]
enabled = false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("unset fields should keep defaults, host = %q", cfg.API.Host)
	}
	if cfg.Lottery.PeriodTicks != 120 || cfg.Lottery.WinnerRanks != 6 {
		t.Errorf("lottery overrides not applied: %+v", cfg.Lottery)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics override not applied")
	}
}
