package state

import (
	"fmt"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/validate"
)

// ProcessBlock runs a candidate block through the full confirmation
// path: consensus validation, input checks against the unspent set,
// one atomic batch carrying the block records and the UTXO delta,
// chain state advancement, and finally mempool cleanup. The ordering
// is a hard contract: the batch is durable before the chain state
// persists, and the mempool drops confirmed transactions only after
// both succeed.
func (s *State) ProcessBlock(block database.Block) error {
	blockHash := block.Hash()
	s.evHandler("state: processing block", "hash", blockHash.Hex())

	if err := validate.Block(block); err != nil {
		return fmt.Errorf("validating block %s: %w", blockHash, err)
	}

	height := s.GetState().Height

	if err := validate.BlockInputs(block, s.db, height); err != nil {
		return fmt.Errorf("validating inputs of %s: %w", blockHash, err)
	}

	toRemove, toAdd := utxoDelta(block, height)

	if err := s.db.ApplyBlock(block, height, toRemove, toAdd); err != nil {
		return err
	}

	digest, err := s.db.UTXOSetDigest()
	if err != nil {
		return err
	}

	stats, err := s.db.Stats()
	if err != nil {
		return err
	}

	if err := s.OnNewBlock(block, digest, stats.TotalValue); err != nil {
		return err
	}

	txIDs := make([]hashing.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		txIDs[i] = tx.Hash()
	}
	s.mempool.RemoveBatch(txIDs)

	s.evHandler("state: block confirmed", "hash", blockHash.Hex(), "height", height+1, "txs", len(block.Transactions))

	return nil
}

// utxoDelta derives the spend set and the output set a confirmed block
// implies. The block's outputs are created at the chain height the
// block lands on.
func utxoDelta(block database.Block, height uint64) ([]database.OutPoint, []database.UTXO) {
	var toRemove []database.OutPoint
	var toAdd []database.UTXO

	for _, tx := range block.Transactions {
		txID := tx.Hash()

		if !tx.IsCoinbase() {
			for _, in := range tx.Inputs {
				toRemove = append(toRemove, in.PreviousOutPoint)
			}
		}

		for vout, out := range tx.Outputs {
			toAdd = append(toAdd, database.UTXO{
				OutPoint:     database.OutPoint{TxID: txID, Vout: uint32(vout)},
				Value:        out.Value,
				ScriptPubKey: out.ScriptPubKey,
				BlockHeight:  height,
				IsCoinbase:   tx.IsCoinbase(),
			})
		}
	}

	return toRemove, toAdd
}
