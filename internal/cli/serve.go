package cli

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lotto-network/lotto/internal/api"
	"github.com/lotto-network/lotto/internal/app/ledger"
	"github.com/lotto-network/lotto/internal/app/round"
	"github.com/lotto-network/lotto/internal/daemon"
	"github.com/lotto-network/lotto/internal/infra/chain"
	"github.com/lotto-network/lotto/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", defaultConfigPath(), "Path to the TOML config file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lottery daemon",
	Long:  `Start the lottery daemon: tick clock, round controller, balance ledger and HTTP API.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		return err
	}

	prices, err := cfg.TierPrices()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	interval, err := cfg.BlockInterval()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	clock, err := loadClock(db, interval)
	if err != nil {
		return err
	}

	led := ledger.New(db)
	if balances, err := db.LoadBalances(); err != nil {
		return fmt.Errorf("restore balances: %w", err)
	} else if len(balances) > 0 {
		led.Restore(balances)
		log.Printf("[serve] restored %d pending balances", len(balances))
	}

	ctrl := round.New(round.Config{
		Period: cfg.Lottery.PeriodTicks,
		Ranks:  cfg.Lottery.WinnerRanks,
		Prices: prices,
	}, clock, led, db)

	if err := restoreRound(db, ctrl); err != nil {
		return err
	}

	server := api.NewServer(ctrl, led)
	if cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	log.Printf("[serve] lotto %s listening on %s (period=%d ticks, ranks=%d, tick every %s)",
		Version, cfg.Addr(), cfg.Lottery.PeriodTicks, cfg.Lottery.WinnerRanks, interval)
	return http.ListenAndServe(cfg.Addr(), server.Handler())
}

// loadClock builds the interval tick clock, persisting the genesis instant on
// first boot so ticks stay monotonic across restarts.
func loadClock(db *sqlite.DB, interval time.Duration) (*chain.IntervalClock, error) {
	raw, err := db.GetMeta("genesis_unix")
	if err != nil {
		return nil, fmt.Errorf("load genesis: %w", err)
	}

	var genesis time.Time
	if raw == "" {
		genesis = time.Now()
		if err := db.SetMeta("genesis_unix", strconv.FormatInt(genesis.Unix(), 10)); err != nil {
			return nil, fmt.Errorf("store genesis: %w", err)
		}
		log.Printf("[serve] genesis set to %s", genesis.Format(time.RFC3339))
	} else {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stored genesis %q: %w", raw, err)
		}
		genesis = time.Unix(unix, 0)
	}
	return chain.NewIntervalClock(genesis, interval), nil
}

// restoreRound reloads the open round and the last winner sequence from the
// store after a restart.
func restoreRound(db *sqlite.DB, ctrl *round.Controller) error {
	snap, ok, err := db.LoadRound()
	if err != nil {
		return fmt.Errorf("restore round: %w", err)
	}
	if ok {
		tickets, err := db.LoadTickets(snap.Index)
		if err != nil {
			return fmt.Errorf("restore tickets: %w", err)
		}
		ctrl.RestoreRound(snap, tickets)
		log.Printf("[serve] restored round %d with %d tickets", snap.Index, len(tickets))
	}

	if _, winners, _, ok, err := db.LatestPayout(); err != nil {
		return fmt.Errorf("restore payout history: %w", err)
	} else if ok {
		ctrl.RestoreWinners(winners)
	}
	return nil
}

// defaultConfigPath returns ~/.lotto/config.toml (or $LOTTO_HOME/config.toml).
func defaultConfigPath() string {
	if env := os.Getenv("LOTTO_HOME"); env != "" {
		return filepath.Join(env, "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lotto", "config.toml")
}
