// Package database maintains the ledger's durable state: the unspent
// output set, accepted blocks and transactions, and chain metadata,
// all over a pluggable ordered key/value storage engine.
package database

import (
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// Database manages the ledger state on top of a storage engine. All
// cross-namespace consistency flows through ApplyBlock: a confirmed
// block's records and its utxo delta land in one atomic batch or not
// at all.
type Database struct {
	storage   Storage
	evHandler func(v string, args ...any)
}

// New constructs a database over the specified storage engine.
func New(storage Storage, evHandler func(v string, args ...any)) *Database {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Database{
		storage:   storage,
		evHandler: ev,
	}
}

// Close releases the underlying storage engine.
func (db *Database) Close() error {
	return db.storage.Close()
}

// =============================================================================
// UTXO set

// StoreUTXO writes a single unspent output. Outside of tests, writes
// go through ApplyBlock so they commit with their block.
func (db *Database) StoreUTXO(utxo UTXO) error {
	if err := db.storage.Set(NSUTXOs, utxo.Key(), utxo.Serialize()); err != nil {
		return fmt.Errorf("storing utxo %s: %w", utxo.OutPoint, err)
	}

	return nil
}

// GetUTXO retrieves an unspent output. The boolean reports presence;
// an error is an engine failure or a corrupt record, never a miss.
func (db *Database) GetUTXO(op OutPoint) (UTXO, bool, error) {
	data, err := db.storage.Get(NSUTXOs, UTXOKey(op))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return UTXO{}, false, nil
		}
		return UTXO{}, false, fmt.Errorf("reading utxo %s: %w", op, err)
	}

	utxo, err := DeserializeUTXO(data)
	if err != nil {
		db.evHandler("database: corrupt utxo record", "outpoint", op.String(), "ERROR", err)
		return UTXO{}, false, err
	}

	return utxo, true, nil
}

// RemoveUTXO deletes a single unspent output, failing with
// ErrUTXONotFound when the key is absent.
func (db *Database) RemoveUTXO(op OutPoint) error {
	exists, err := db.storage.Exists(NSUTXOs, UTXOKey(op))
	if err != nil {
		return fmt.Errorf("checking utxo %s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUTXONotFound, op)
	}

	if err := db.storage.Delete(NSUTXOs, UTXOKey(op)); err != nil {
		return fmt.Errorf("removing utxo %s: %w", op, err)
	}

	return nil
}

// ApplyUTXOBatch commits a block's spend set and output set in one
// atomic write. Every removal must reference a present output and may
// appear only once; the whole batch is rejected otherwise so a
// half-applied block can never leave an output both spendable and
// spent.
func (db *Database) ApplyUTXOBatch(toRemove []OutPoint, toAdd []UTXO) error {
	var batch Batch

	if err := db.stageUTXODelta(&batch, toRemove, toAdd); err != nil {
		return err
	}

	if err := db.storage.ApplyBatch(batch); err != nil {
		return fmt.Errorf("applying utxo batch [%d remove, %d add]: %w", len(toRemove), len(toAdd), err)
	}

	db.evHandler("database: utxo batch applied", "removed", len(toRemove), "added", len(toAdd))

	return nil
}

// stageUTXODelta appends a block's spend set and output set to the
// batch. Each removal must reference a present output exactly once: a
// repeated outpoint means two inputs claim the same funds, and the
// delete-based batch would silently apply it as a single spend.
func (db *Database) stageUTXODelta(batch *Batch, toRemove []OutPoint, toAdd []UTXO) error {
	seen := make(map[string]struct{}, len(toRemove))

	for _, op := range toRemove {
		key := UTXOKey(op)
		if _, dup := seen[string(key)]; dup {
			return fmt.Errorf("%w: spend of %s", ErrDuplicateSpend, op)
		}
		seen[string(key)] = struct{}{}

		exists, err := db.storage.Exists(NSUTXOs, key)
		if err != nil {
			return fmt.Errorf("checking spend %s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%w: spend of %s", ErrUTXONotFound, op)
		}
		batch.Delete(NSUTXOs, key)
	}

	for _, utxo := range toAdd {
		batch.Set(NSUTXOs, utxo.Key(), utxo.Serialize())
	}

	return nil
}

// ForEachUTXO walks the whole unspent set in key order. The walk is
// finite and restarts from the first key on every call.
func (db *Database) ForEachUTXO(fn func(op OutPoint, utxo UTXO) error) error {
	return db.storage.ForEach(NSUTXOs, func(key []byte, value []byte) error {
		op, err := OutPointFromKey(key)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidData, err)
		}

		utxo, err := DeserializeUTXO(value)
		if err != nil {
			return err
		}

		return fn(op, utxo)
	})
}

// UTXOStats summarizes the unspent set for status queries.
type UTXOStats struct {
	Count         uint64 `json:"count"`
	TotalValue    uint64 `json:"total_value"`
	CoinbaseCount uint64 `json:"coinbase_count"`
	CoinbaseValue uint64 `json:"coinbase_value"`
}

// Stats walks the unspent set and aggregates count and value totals.
func (db *Database) Stats() (UTXOStats, error) {
	var stats UTXOStats

	err := db.ForEachUTXO(func(op OutPoint, utxo UTXO) error {
		stats.Count++
		stats.TotalValue += utxo.Value
		if utxo.IsCoinbase {
			stats.CoinbaseCount++
			stats.CoinbaseValue += utxo.Value
		}
		return nil
	})
	if err != nil {
		return UTXOStats{}, err
	}

	return stats, nil
}

// UTXOSetDigest streams the key-ordered unspent set through double
// SHA-512 and returns the digest. Two stores with the same set produce
// the same digest regardless of write order.
func (db *Database) UTXOSetDigest() (hashing.Hash, error) {
	first := sha512.New()

	err := db.storage.ForEach(NSUTXOs, func(key []byte, value []byte) error {
		first.Write(key)
		first.Write(value)
		return nil
	})
	if err != nil {
		return hashing.Hash{}, fmt.Errorf("digesting utxo set: %w", err)
	}

	return hashing.DoubleSum(first.Sum(nil)), nil
}

// =============================================================================
// Blocks and transactions

// heightKey builds the metadata key that indexes a block hash by its
// big-endian height, keeping the index ordered by height.
func heightKey(height uint64) []byte {
	key := make([]byte, 8+len("height/"))
	copy(key, "height/")
	binary.BigEndian.PutUint64(key[len("height/"):], height)

	return key
}

// StoreBlock persists a block and its transactions, plus the height
// index entry, in one atomic batch. Confirmation goes through
// ApplyBlock instead so the records commit with the utxo delta.
func (db *Database) StoreBlock(block Block, height uint64) error {
	var batch Batch
	stageBlock(&batch, block, height)

	if err := db.storage.ApplyBatch(batch); err != nil {
		return fmt.Errorf("storing block %s: %w", block.Hash(), err)
	}

	return nil
}

// ApplyBlock commits a confirmed block in one atomic batch: the block
// record, its transactions, the height index entry, and the utxo delta
// the block implies. A failure leaves no trace, so a block can never
// be served from the store without its spends and outputs applied.
func (db *Database) ApplyBlock(block Block, height uint64, toRemove []OutPoint, toAdd []UTXO) error {
	blockHash := block.Hash()

	var batch Batch
	stageBlock(&batch, block, height)

	if err := db.stageUTXODelta(&batch, toRemove, toAdd); err != nil {
		return err
	}

	if err := db.storage.ApplyBatch(batch); err != nil {
		return fmt.Errorf("applying block %s: %w", blockHash, err)
	}

	db.evHandler("database: block applied", "hash", blockHash.Hex(), "height", height, "removed", len(toRemove), "added", len(toAdd))

	return nil
}

// stageBlock appends a block's records to the batch: the block by
// hash, the height index entry, and every transaction by id.
func stageBlock(batch *Batch, block Block, height uint64) {
	blockHash := block.Hash()
	batch.Set(NSBlocks, blockHash[:], block.Serialize())
	batch.Set(NSMeta, heightKey(height), blockHash[:])

	for _, tx := range block.Transactions {
		txID := tx.Hash()
		batch.Set(NSTrans, txID[:], tx.Serialize())
	}
}

// GetBlock retrieves a block by its header hash.
func (db *Database) GetBlock(blockHash hashing.Hash) (Block, error) {
	data, err := db.storage.Get(NSBlocks, blockHash[:])
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, blockHash)
		}
		return Block{}, fmt.Errorf("reading block %s: %w", blockHash, err)
	}

	block, err := DeserializeBlock(data)
	if err != nil {
		return Block{}, fmt.Errorf("%w: block %s: %s", ErrInvalidData, blockHash, err)
	}

	return block, nil
}

// GetBlockByHeight resolves the height index and retrieves the block.
func (db *Database) GetBlockByHeight(height uint64) (Block, error) {
	hashData, err := db.storage.Get(NSMeta, heightKey(height))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return Block{}, fmt.Errorf("%w: height %d", ErrBlockNotFound, height)
		}
		return Block{}, fmt.Errorf("reading height index %d: %w", height, err)
	}

	blockHash, err := hashing.FromBytes(hashData)
	if err != nil {
		return Block{}, fmt.Errorf("%w: height index %d: %s", ErrInvalidData, height, err)
	}

	return db.GetBlock(blockHash)
}

// StoreTransaction persists a single transaction outside of a block
// write. Block application uses ApplyBlock's batch instead.
func (db *Database) StoreTransaction(tx Transaction) error {
	txID := tx.Hash()
	if err := db.storage.Set(NSTrans, txID[:], tx.Serialize()); err != nil {
		return fmt.Errorf("storing transaction %s: %w", txID, err)
	}

	return nil
}

// GetTransaction retrieves a transaction by id.
func (db *Database) GetTransaction(txID hashing.Hash) (Transaction, error) {
	data, err := db.storage.Get(NSTrans, txID[:])
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return Transaction{}, fmt.Errorf("%w: %s", ErrTxNotFound, txID)
		}
		return Transaction{}, fmt.Errorf("reading transaction %s: %w", txID, err)
	}

	tx, _, err := DeserializeTx(data)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: transaction %s: %s", ErrInvalidData, txID, err)
	}

	return tx, nil
}

// =============================================================================
// Metadata

// SetMetadata writes an opaque value into the metadata namespace.
func (db *Database) SetMetadata(key string, value []byte) error {
	if err := db.storage.Set(NSMeta, []byte(key), value); err != nil {
		return fmt.Errorf("storing metadata %q: %w", key, err)
	}

	return nil
}

// GetMetadata reads an opaque value from the metadata namespace. A
// missing key returns ErrKeyNotFound.
func (db *Database) GetMetadata(key string) ([]byte, error) {
	data, err := db.storage.Get(NSMeta, []byte(key))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("reading metadata %q: %w", key, err)
	}

	return data, nil
}
