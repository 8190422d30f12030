// Package mempool maintains the pool of transactions accepted by the
// node but not yet included in a confirmed block. Capacity is bounded
// by total measured wire bytes, not entry count.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// DefaultMaxSize is the pool byte capacity used when none is
// configured: 300 MB, enough for roughly an hour of full blocks.
const DefaultMaxSize = 300_000_000

// Set of admission errors.
var (
	ErrTxExists    = errors.New("transaction already in the pool")
	ErrMempoolFull = errors.New("pool byte capacity exceeded")
)

// entry pairs a pooled transaction with its measured size so removals
// decrement the counter by exactly what admission charged.
type entry struct {
	tx   database.Transaction
	size int
}

// Mempool represents the pending transaction pool keyed by transaction
// hash. Reads proceed concurrently; writes are serialized, and the
// insert and size accounting happen under one lock section.
type Mempool struct {
	mu      sync.RWMutex
	pool    map[hashing.Hash]entry
	curSize int
	maxSize int
}

// New constructs a pool with the default byte capacity.
func New() *Mempool {
	return NewWithMaxSize(DefaultMaxSize)
}

// NewWithMaxSize constructs a pool bounded to the specified number of
// transaction wire bytes.
func NewWithMaxSize(maxSize int) *Mempool {
	return &Mempool{
		pool:    make(map[hashing.Hash]entry),
		maxSize: maxSize,
	}
}

// Add admits a transaction, rejecting a duplicate hash or a size that
// would push the pool past capacity.
func (mp *Mempool) Add(tx database.Transaction) error {
	txID := tx.Hash()
	size := tx.Size()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[txID]; exists {
		return fmt.Errorf("%w: %s", ErrTxExists, txID)
	}

	if mp.curSize+size > mp.maxSize {
		return fmt.Errorf("%w: %d + %d over %d bytes", ErrMempoolFull, mp.curSize, size, mp.maxSize)
	}

	mp.pool[txID] = entry{tx: tx, size: size}
	mp.curSize += size

	return nil
}

// Remove drops a single transaction, decrementing the size counter by
// its measured size. Removing an absent hash is a no-op.
func (mp *Mempool) Remove(txID hashing.Hash) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.remove(txID)
}

// RemoveBatch drops every listed transaction, used when a block
// confirms a set at once.
func (mp *Mempool) RemoveBatch(txIDs []hashing.Hash) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, txID := range txIDs {
		mp.remove(txID)
	}
}

// remove must be called with the write lock held.
func (mp *Mempool) remove(txID hashing.Hash) {
	ent, exists := mp.pool[txID]
	if !exists {
		return
	}

	delete(mp.pool, txID)
	mp.curSize -= ent.size
}

// Contains reports whether the transaction is pooled.
func (mp *Mempool) Contains(txID hashing.Hash) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[txID]
	return exists
}

// GetTransaction retrieves a pooled transaction by hash.
func (mp *Mempool) GetTransaction(txID hashing.Hash) (database.Transaction, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	ent, exists := mp.pool[txID]
	return ent.tx, exists
}

// GetAllTransactions returns a copy of every pooled transaction.
func (mp *Mempool) GetAllTransactions() []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.Transaction, 0, len(mp.pool))
	for _, ent := range mp.pool {
		txs = append(txs, ent.tx)
	}

	return txs
}

// GetTransactionHashes returns the pooled transaction ids, used for
// inventory announcements.
func (mp *Mempool) GetTransactionHashes() []hashing.Hash {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	hashes := make([]hashing.Hash, 0, len(mp.pool))
	for txID := range mp.pool {
		hashes = append(hashes, txID)
	}

	return hashes
}

// Count returns the current number of pooled transactions.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Size returns the pooled bytes currently counted against capacity.
func (mp *Mempool) Size() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.curSize
}

// Clear resets the map and the byte counter together.
func (mp *Mempool) Clear() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[hashing.Hash]entry)
	mp.curSize = 0
}

// Stats summarizes the pool for status queries.
type Stats struct {
	Count   int `json:"count"`
	Bytes   int `json:"bytes"`
	MaxSize int `json:"max_size"`
}

// GetStats returns the current pool statistics.
func (mp *Mempool) GetStats() Stats {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return Stats{
		Count:   len(mp.pool),
		Bytes:   mp.curSize,
		MaxSize: mp.maxSize,
	}
}
