// Package cli implements the lotto command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "lotto",
	Short: "Commit-reveal lottery daemon",
	Long: `lotto runs a recurring multi-winner lottery on a commit-reveal protocol.
Participants commit to secret numbers during the submission window, reveal
them during the reveal window, and a deterministic payout splits the pooled
reward by rank and tier. Unallocated reward carries into the next round.`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lotto version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "lotto %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
