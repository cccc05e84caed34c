package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// ─── Client Commands ────────────────────────────────────────────────────────
// Thin HTTP clients against a running daemon, for operators and scripts.

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(withdrawCmd)

	statusCmd.Flags().String("addr", "http://127.0.0.1:7707", "Daemon API address")
	withdrawCmd.Flags().String("addr", "http://127.0.0.1:7707", "Daemon API address")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current round and phase",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	var out struct {
		Round       uint64 `json:"round"`
		StartTick   uint64 `json:"start_tick"`
		Period      uint64 `json:"period"`
		CurrentTick uint64 `json:"current_tick"`
		Phase       string `json:"phase"`
		Tickets     int    `json:"tickets"`
		Revealed    int    `json:"revealed"`
		TotalWei    string `json:"total_reward_wei"`
		CarriedWei  string `json:"carried_reward_wei"`
	}
	if err := getJSON(addr+"/v1/round", &out); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Round:    %d (phase %s)\n", out.Round, out.Phase)
	fmt.Fprintf(os.Stdout, "Ticks:    %d now, round started at %d, period %d\n", out.CurrentTick, out.StartTick, out.Period)
	fmt.Fprintf(os.Stdout, "Tickets:  %d bought, %d revealed\n", out.Tickets, out.Revealed)
	fmt.Fprintf(os.Stdout, "Pool:     %s wei (%s carried)\n", out.TotalWei, out.CarriedWei)
	return nil
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw ACCOUNT",
	Short: "Withdraw an account's pending balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runWithdraw,
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	resp, err := httpClient().Post(addr+"/v1/withdrawals/"+args[0], "application/json", nil)
	if err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Account   string `json:"account"`
		AmountWei string `json:"amount_wei"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("withdraw failed: HTTP %d", resp.StatusCode)
	}

	fmt.Fprintf(os.Stdout, "Withdrew %s wei for %s\n", out.AmountWei, out.Account)
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func getJSON(url string, v interface{}) error {
	resp, err := httpClient().Get(url)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: HTTP %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
