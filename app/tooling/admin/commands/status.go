package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the chain state reported by the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(fmt.Sprintf("%s/v1/chain/state", publicURL))
		if err != nil {
			return fmt.Errorf("querying node: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("node returned status %d", resp.StatusCode)
		}

		var cs struct {
			BestBlockHash   string  `json:"best_block_hash"`
			Height          uint64  `json:"height"`
			TotalWork       string  `json:"total_work"`
			UTXOSetHash     string  `json:"utxo_set_hash"`
			TotalSupply     uint64  `json:"total_supply"`
			NetworkHashrate float64 `json:"network_hashrate"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&cs); err != nil {
			return fmt.Errorf("decoding chain state: %w", err)
		}

		fmt.Printf("height          : %d\n", cs.Height)
		fmt.Printf("best block      : %s\n", cs.BestBlockHash)
		fmt.Printf("total work      : %s\n", cs.TotalWork)
		fmt.Printf("utxo set hash   : %s\n", cs.UTXOSetHash)
		fmt.Printf("total supply    : %d\n", cs.TotalSupply)
		fmt.Printf("network hashrate: %.2f\n", cs.NetworkHashrate)

		return nil
	},
}
