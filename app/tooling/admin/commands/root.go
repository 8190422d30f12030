// Package commands contains the admin tool commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	genesisPath string
	publicURL   string
	privateURL  string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	rootCmd.PersistentFlags().StringVar(&publicURL, "public", "http://localhost:8080", "Public API address of the node.")
	rootCmd.PersistentFlags().StringVar(&privateURL, "private", "http://localhost:9080", "Private API address of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative tasks for the node",
}

// Execute runs the command specified on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
