// Command duels-cli talks to a running chess-duels server over its HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// host is the base URL every subcommand sends its request to.
var host string

// rootCmd only carries the shared --host flag; the work happens in the
// subcommands registered in commands.go.
var rootCmd = &cobra.Command{
	Use:   "duels-cli",
	Short: "Manage players and read duel standings on a chess-duels server",
	Long: `duels-cli registers players, links their Lichess accounts, triggers
duel syncs and prints the head-to-head matrix of a chess-duels server.

  duels-cli register alice
  duels-cli link alice alice_on_lichess
  duels-cli duels --force`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "Base URL of the chess-duels server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "duels-cli: %s\n", err)
		os.Exit(1)
	}
}
