package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/genesis"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/pow"
)

func init() {
	rootCmd.AddCommand(mineCmd)
}

// mineCmd mines a coinbase only block on the current tip and submits
// it over the private API. Intended for regtest style chains where the
// target from the genesis file is trivially reachable.
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine a block on the current tip and submit it to the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := genesis.LoadFromFile(genesisPath)
		if err != nil {
			return fmt.Errorf("loading genesis file: %w", err)
		}

		script, err := hexutil.Decode(gen.CoinbaseScript)
		if err != nil {
			return fmt.Errorf("decoding coinbase script: %w", err)
		}

		resp, err := http.Get(fmt.Sprintf("%s/v1/chain/state", publicURL))
		if err != nil {
			return fmt.Errorf("querying node: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("node returned status %d", resp.StatusCode)
		}

		var cs struct {
			BestBlockHash string `json:"best_block_hash"`
			Height        uint64 `json:"height"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&cs); err != nil {
			return fmt.Errorf("decoding chain state: %w", err)
		}

		prev := hashing.Zero
		if cs.Height > 0 {
			if prev, err = hashing.FromHex(cs.BestBlockHash); err != nil {
				return fmt.Errorf("decoding best block hash: %w", err)
			}
		}

		coinbase := database.NewCoinbaseTx(gen.MiningReward, script, cs.Height)

		block, err := database.NewBlock(1, prev, uint64(time.Now().Unix()), gen.Bits, []database.Transaction{coinbase})
		if err != nil {
			return fmt.Errorf("building block: %w", err)
		}

		header, err := pow.Mine(cmd.Context(), block.Header)
		if err != nil {
			return fmt.Errorf("mining block: %w", err)
		}
		block.Header = header

		data, err := json.Marshal(block)
		if err != nil {
			return fmt.Errorf("encoding block: %w", err)
		}

		sub, err := http.Post(fmt.Sprintf("%s/v1/node/block/submit", privateURL), "application/json", bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("submitting block: %w", err)
		}
		defer sub.Body.Close()

		if sub.StatusCode != http.StatusOK {
			return fmt.Errorf("node rejected block with status %d", sub.StatusCode)
		}

		fmt.Printf("block %s mined at height %d with nonce %d\n", block.Hash().Hex(), cs.Height, header.Nonce)
		return nil
	},
}
