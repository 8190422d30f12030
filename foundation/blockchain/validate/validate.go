// Package validate implements the consensus checks a candidate block
// or transaction must pass before it can touch the ledger. Every
// function here is pure: no I/O, no mutation, first failure wins.
package validate

import (
	"errors"
	"fmt"
	"time"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/difficulty"
)

// Header and transaction minimums.
const (
	MinBlockVersion = 1
	MinTxVersion    = 1

	// Blocks dated before the chain launch instant are rejected.
	MinTimestamp = 1735344000

	// Tolerance for clock skew on future-dated blocks, in seconds.
	MaxFutureBlockTime = 7200
)

// Set of consensus failures. Each names the check that rejected the
// candidate; detail wraps around these sentinels.
var (
	ErrNoTransactions      = errors.New("block has no transactions")
	ErrNoCoinbase          = errors.New("first transaction is not a coinbase")
	ErrMultipleCoinbase    = errors.New("more than one coinbase transaction")
	ErrInvalidBlockVersion = errors.New("block version below minimum")
	ErrInvalidBlockHeader  = errors.New("invalid block header")
	ErrInvalidTimestamp    = errors.New("block timestamp out of range")
	ErrInvalidMerkleRoot   = errors.New("merkle root does not commit to the transactions")
	ErrBlockTooLarge       = errors.New("block exceeds maximum size")
	ErrInvalidDifficulty   = errors.New("header bits do not expand to a valid target")
	ErrInvalidProofOfWork  = errors.New("header hash does not meet the target")
	ErrInvalidTransaction  = errors.New("invalid transaction")
	ErrMissingInput        = errors.New("input references no unspent output")
	ErrDoubleSpend         = errors.New("outpoint spent more than once in the block")
	ErrImmatureSpend       = errors.New("coinbase output spent before maturity")
	ErrValueOverflow       = errors.New("transaction spends more than its inputs")
)

// =============================================================================

// Block runs the full consensus pipeline against the current clock.
func Block(block database.Block) error {
	return BlockAt(block, uint64(time.Now().Unix()))
}

// BlockAt runs the full consensus pipeline, in order: structure,
// header, merkle commitment, size, proof of work, then per-transaction
// checks. The first failing check rejects the block.
func BlockAt(block database.Block, now uint64) error {
	if err := structure(block); err != nil {
		return err
	}

	if err := headerAt(block.Header, now); err != nil {
		return err
	}

	root, err := block.MerkleRoot()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMerkleRoot, err)
	}
	if root != block.Header.MerkleRoot {
		return fmt.Errorf("%w: computed %s, header %s", ErrInvalidMerkleRoot, root, block.Header.MerkleRoot)
	}

	if size := block.Size(); size > database.MaxBlockSize {
		return fmt.Errorf("%w: %d bytes", ErrBlockTooLarge, size)
	}

	if err := ProofOfWork(block.Header); err != nil {
		return err
	}

	for i, tx := range block.Transactions {
		if err := Transaction(tx); err != nil {
			return fmt.Errorf("transaction[%d]: %w", i, err)
		}
	}

	return nil
}

// Header checks header-internal invariants against the current clock.
func Header(header database.BlockHeader) error {
	return headerAt(header, uint64(time.Now().Unix()))
}

func headerAt(header database.BlockHeader, now uint64) error {
	if header.Version < MinBlockVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidBlockVersion, header.Version)
	}

	if header.Timestamp > now+MaxFutureBlockTime {
		return fmt.Errorf("%w: %d is too far in the future", ErrInvalidTimestamp, header.Timestamp)
	}

	if header.Timestamp < MinTimestamp {
		return fmt.Errorf("%w: %d predates the chain", ErrInvalidTimestamp, header.Timestamp)
	}

	return nil
}

// ProofOfWork expands the header's compact bits and checks the header
// hash against the resulting target.
func ProofOfWork(header database.BlockHeader) error {
	target, err := difficulty.TargetFromBits(header.Bits)
	if err != nil {
		return fmt.Errorf("%w: bits 0x%08x: %s", ErrInvalidDifficulty, header.Bits, err)
	}

	if !target.ValidatesHash(header.Hash()) {
		return fmt.Errorf("%w: hash %s, target %s", ErrInvalidProofOfWork, header.Hash(), target.Hash())
	}

	return nil
}

// Transaction applies the version and structural checks standalone,
// for mempool admission before a transaction is part of any block.
func Transaction(tx database.Transaction) error {
	if tx.Version < MinTxVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidTransaction, tx.Version)
	}

	if len(tx.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs", ErrInvalidTransaction)
	}
	if len(tx.Inputs) > database.MaxInputs {
		return fmt.Errorf("%w: %d inputs", ErrInvalidTransaction, len(tx.Inputs))
	}

	if len(tx.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidTransaction)
	}
	if len(tx.Outputs) > database.MaxOutputs {
		return fmt.Errorf("%w: %d outputs", ErrInvalidTransaction, len(tx.Outputs))
	}

	if size := tx.Size(); size > database.MaxTransactionSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidTransaction, size)
	}

	for _, in := range tx.Inputs {
		if len(in.ScriptSig) > database.MaxScriptSize {
			return fmt.Errorf("%w: script sig %d bytes", ErrInvalidTransaction, len(in.ScriptSig))
		}
	}
	for _, out := range tx.Outputs {
		if len(out.ScriptPubKey) > database.MaxScriptSize {
			return fmt.Errorf("%w: script pubkey %d bytes", ErrInvalidTransaction, len(out.ScriptPubKey))
		}
	}

	return nil
}

// structure checks the coinbase shape of the transaction list.
func structure(block database.Block) error {
	if len(block.Transactions) == 0 {
		return ErrNoTransactions
	}

	if !block.Transactions[0].IsCoinbase() {
		return ErrNoCoinbase
	}

	for i, tx := range block.Transactions[1:] {
		if tx.IsCoinbase() {
			return fmt.Errorf("%w: at index %d", ErrMultipleCoinbase, i+1)
		}
	}

	return nil
}

// =============================================================================

// UTXOReader is the read-only view of the unspent set the input checks
// consult. The durable store satisfies it.
type UTXOReader interface {
	GetUTXO(op database.OutPoint) (database.UTXO, bool, error)
}

// BlockInputs checks every non-coinbase input in the block against the
// unspent set: the referenced output must exist, be spent exactly once
// across the whole block, be mature, and cover the transaction's
// output value. Script and signature execution is the remaining
// unwired step of this check.
func BlockInputs(block database.Block, reader UTXOReader, height uint64) error {

	// Every outpoint may fund at most one input in the block, whether
	// the duplicates sit in one transaction or across transactions.
	spent := make(map[database.OutPoint]struct{})

	for i, tx := range block.Transactions {
		if tx.IsCoinbase() {
			continue
		}

		var inValue uint64
		for _, in := range tx.Inputs {
			if _, dup := spent[in.PreviousOutPoint]; dup {
				return fmt.Errorf("transaction[%d]: %w: %s", i, ErrDoubleSpend, in.PreviousOutPoint)
			}
			spent[in.PreviousOutPoint] = struct{}{}

			utxo, exists, err := reader.GetUTXO(in.PreviousOutPoint)
			if err != nil {
				return fmt.Errorf("transaction[%d]: reading input %s: %w", i, in.PreviousOutPoint, err)
			}
			if !exists {
				return fmt.Errorf("transaction[%d]: %w: %s", i, ErrMissingInput, in.PreviousOutPoint)
			}
			if !utxo.IsSpendable(height) {
				return fmt.Errorf("transaction[%d]: %w: %s at height %d", i, ErrImmatureSpend, in.PreviousOutPoint, height)
			}

			inValue += utxo.Value
		}

		var outValue uint64
		for _, out := range tx.Outputs {
			outValue += out.Value
		}

		if outValue > inValue {
			return fmt.Errorf("transaction[%d]: %w: in %d, out %d", i, ErrValueOverflow, inValue, outValue)
		}
	}

	return nil
}
