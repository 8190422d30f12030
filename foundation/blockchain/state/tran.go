package state

import (
	"fmt"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/validate"
)

// SubmitTransaction validates a transaction standalone and admits it
// into the mempool. Admission failures (duplicate, pool full) pass
// through so callers can distinguish the soft conditions.
func (s *State) SubmitTransaction(tx database.Transaction) error {
	txID := tx.Hash()

	if err := validate.Transaction(tx); err != nil {
		return fmt.Errorf("validating transaction %s: %w", txID, err)
	}

	if err := s.mempool.Add(tx); err != nil {
		return err
	}

	s.evHandler("state: transaction accepted", "txid", txID.Hex(), "pool", s.mempool.Count())

	return nil
}

// MempoolTransactions returns a copy of every pending transaction.
func (s *State) MempoolTransactions() []database.Transaction {
	return s.mempool.GetAllTransactions()
}
