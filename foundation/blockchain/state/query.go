package state

import (
	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/genesis"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/mempool"
)

// Genesis returns the genesis information the chain started from.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// GetUTXO retrieves an unspent output from the durable store.
func (s *State) GetUTXO(op database.OutPoint) (database.UTXO, bool, error) {
	return s.db.GetUTXO(op)
}

// UTXOStats aggregates the unspent set for status queries.
func (s *State) UTXOStats() (database.UTXOStats, error) {
	return s.db.Stats()
}

// GetBlock retrieves a confirmed block by its header hash.
func (s *State) GetBlock(blockHash hashing.Hash) (database.Block, error) {
	return s.db.GetBlock(blockHash)
}

// GetBlockByHeight retrieves a confirmed block through the height index.
func (s *State) GetBlockByHeight(height uint64) (database.Block, error) {
	return s.db.GetBlockByHeight(height)
}

// GetTransaction retrieves a confirmed transaction by id.
func (s *State) GetTransaction(txID hashing.Hash) (database.Transaction, error) {
	return s.db.GetTransaction(txID)
}

// MempoolStats returns the pending pool statistics.
func (s *State) MempoolStats() mempool.Stats {
	return s.mempool.GetStats()
}

// MempoolHashes returns the pending transaction ids for inventory
// announcements.
func (s *State) MempoolHashes() []hashing.Hash {
	return s.mempool.GetTransactionHashes()
}

// MempoolContains reports whether a transaction is pending.
func (s *State) MempoolContains(txID hashing.Hash) bool {
	return s.mempool.Contains(txID)
}

// RecentHeaders walks back from the best block and returns up to count
// headers ordered oldest first, for the hashrate estimate.
func (s *State) RecentHeaders(count int) ([]database.BlockHeader, error) {
	cs := s.GetState()

	var headers []database.BlockHeader
	for h := int64(cs.Height) - int64(count); h < int64(cs.Height); h++ {
		if h < 0 {
			continue
		}

		block, err := s.db.GetBlockByHeight(uint64(h))
		if err != nil {
			return nil, err
		}
		headers = append(headers, block.Header)
	}

	return headers, nil
}
