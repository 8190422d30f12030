package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritascoin/veritas/foundation/blockchain/difficulty"
	"github.com/veritascoin/veritas/foundation/blockchain/genesis"
)

var (
	chainID      uint16
	bits         uint32
	miningReward uint64
	coinbaseHex  string
)

func init() {
	genesisCmd.Flags().Uint16Var(&chainID, "chain-id", 1, "Unique id for the chain.")
	genesisCmd.Flags().Uint32Var(&bits, "bits", difficulty.BitsRegtest, "Compact starting target.")
	genesisCmd.Flags().Uint64Var(&miningReward, "reward", 5_000_000_000, "Coinbase value in the smallest unit.")
	genesisCmd.Flags().StringVar(&coinbaseHex, "script", "0x51", "Hex locking script for the genesis output.")
	rootCmd.AddCommand(genesisCmd)
}

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "Write a new genesis file",
	RunE: func(cmd *cobra.Command, args []string) error {

		// Reject a starting target the codec cannot expand.
		if _, err := difficulty.TargetFromBits(bits); err != nil {
			return fmt.Errorf("starting bits: %w", err)
		}

		gen := genesis.Genesis{
			Date:           time.Now().UTC(),
			ChainID:        chainID,
			Bits:           bits,
			MiningReward:   miningReward,
			CoinbaseScript: coinbaseHex,
		}

		if err := gen.Save(genesisPath); err != nil {
			return fmt.Errorf("writing genesis file: %w", err)
		}

		fmt.Printf("genesis file written to %s\n", genesisPath)
		return nil
	},
}
