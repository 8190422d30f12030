// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date           time.Time `json:"date"`
	ChainID        uint16    `json:"chain_id"`        // Unique id for this running chain.
	Bits           uint32    `json:"bits"`            // Compact target the chain starts at.
	MiningReward   uint64    `json:"mining_reward"`   // Coinbase value in the smallest unit.
	CoinbaseScript string    `json:"coinbase_script"` // Hex locking script of the genesis output.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load() (Genesis, error) {
	return LoadFromFile("zblock/genesis.json")
}

// LoadFromFile opens and consumes a genesis file at the specified path.
func LoadFromFile(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Save writes the genesis file to the specified path.
func (g Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Block constructs the deterministic height zero block: a lone
// coinbase paying the mining reward to the configured script, under a
// zero previous hash.
func (g Genesis) Block() (database.Block, error) {
	script, err := hexutil.Decode(g.CoinbaseScript)
	if err != nil {
		return database.Block{}, fmt.Errorf("decoding coinbase script: %w", err)
	}

	coinbase := database.NewCoinbaseTx(g.MiningReward, script, 0)

	block, err := database.NewBlock(1, hashing.Zero, uint64(g.Date.Unix()), g.Bits, []database.Transaction{coinbase})
	if err != nil {
		return database.Block{}, fmt.Errorf("building genesis block: %w", err)
	}

	return block, nil
}
