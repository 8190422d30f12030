// Package state is the core API for the node and implements all the
// business rules and processing: it ties the validator, the durable
// store, the mempool and the chain state tracker together.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/difficulty"
	"github.com/veritascoin/veritas/foundation/blockchain/genesis"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/mempool"
)

// chainStateKey is the metadata key the tracker persists under.
const chainStateKey = "chain_state"

// EventHandler defines a function that is called when events occur in
// the processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// =============================================================================

// ChainState is the tracker's snapshot of where the chain stands. It
// is created once at genesis and mutated by exactly one path, block
// confirmation, and persisted after every mutation.
type ChainState struct {
	BestBlockHash   hashing.Hash `json:"best_block_hash"`
	Height          uint64       `json:"height"`
	TotalWork       *big.Int     `json:"total_work"`
	UTXOSetHash     hashing.Hash `json:"utxo_set_hash"`
	TotalSupply     uint64       `json:"total_supply"`
	NetworkHashrate float64      `json:"network_hashrate"`
	LastUpdated     uint64       `json:"last_updated"`
}

// GenesisState seeds the chain state from the genesis block: zero
// blocks applied, zero work, the genesis timestamp.
func GenesisState(genesisBlock database.Block) ChainState {
	return ChainState{
		BestBlockHash: genesisBlock.Hash(),
		Height:        0,
		TotalWork:     big.NewInt(0),
		LastUpdated:   genesisBlock.Header.Timestamp,
	}
}

// clone returns a deep copy so callers never observe the tracker's
// state mutating underneath them.
func (cs ChainState) clone() ChainState {
	c := cs
	c.TotalWork = new(big.Int)
	if cs.TotalWork != nil {
		c.TotalWork.Set(cs.TotalWork)
	}

	return c
}

// =============================================================================

// Config represents the configuration required to start the node core.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Storage
	MempoolMaxSize int
	EvHandler      EventHandler
}

// State manages the blockchain node core. The chain state is guarded
// by a reader/writer lock: snapshots are shared reads, block
// confirmation is the exclusive writer.
type State struct {
	mu         sync.RWMutex
	chainState ChainState

	genesis   genesis.Genesis
	db        *database.Database
	mempool   *mempool.Mempool
	evHandler EventHandler
}

// New constructs the node core. Prior chain state is loaded from the
// metadata namespace; a fresh store is seeded from the genesis file
// and the seed is persisted before the constructor returns.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db := database.New(cfg.Storage, ev)

	poolSize := cfg.MempoolMaxSize
	if poolSize == 0 {
		poolSize = mempool.DefaultMaxSize
	}

	s := State{
		genesis:   cfg.Genesis,
		db:        db,
		mempool:   mempool.NewWithMaxSize(poolSize),
		evHandler: ev,
	}

	cs, err := loadChainState(db)
	switch {
	case err == nil:
		ev("state: resuming chain", "height", cs.Height, "best", cs.BestBlockHash.Hex())

	case errors.Is(err, database.ErrKeyNotFound):
		genesisBlock, err := cfg.Genesis.Block()
		if err != nil {
			return nil, fmt.Errorf("constructing genesis block: %w", err)
		}

		cs = GenesisState(genesisBlock)
		if err := persistChainState(db, cs); err != nil {
			return nil, fmt.Errorf("seeding chain state: %w", err)
		}
		ev("state: seeded fresh chain from genesis", "best", cs.BestBlockHash.Hex())

	default:
		return nil, fmt.Errorf("loading chain state: %w", err)
	}

	s.chainState = cs

	return &s, nil
}

// Shutdown cleanly brings the node core down.
func (s *State) Shutdown() error {
	return s.db.Close()
}

// =============================================================================

// GetState returns a deep copy snapshot of the chain state.
func (s *State) GetState() ChainState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chainState.clone()
}

// OnNewBlock advances the chain state for a block whose validation and
// UTXO batch have already completed: height increments by exactly one,
// the block's work contribution accumulates, and the digest, supply
// and timestamp are replaced. The mutation is durable before it
// becomes visible; a persistence failure leaves the tracker unchanged.
func (s *State) OnNewBlock(block database.Block, utxoSetHash hashing.Hash, totalSupply uint64) error {
	work, err := blockWork(block.Header.Bits)
	if err != nil {
		return fmt.Errorf("computing block work: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.chainState.clone()
	next.BestBlockHash = block.Hash()
	next.Height++
	next.TotalWork.Add(next.TotalWork, work)
	next.UTXOSetHash = utxoSetHash
	next.TotalSupply = totalSupply
	next.LastUpdated = block.Header.Timestamp

	if err := persistChainState(s.db, next); err != nil {
		return fmt.Errorf("persisting chain state: %w", err)
	}

	s.chainState = next

	s.evHandler("state: chain advanced", "height", next.Height, "best", next.BestBlockHash.Hex())

	return nil
}

// UpdateHashrate recomputes the network hashrate estimate over the
// supplied window of recent headers and persists the new state.
func (s *State) UpdateHashrate(window []database.BlockHeader) error {
	rate := CalculateHashrate(window)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.chainState.clone()
	next.NetworkHashrate = rate

	if err := persistChainState(s.db, next); err != nil {
		return fmt.Errorf("persisting chain state: %w", err)
	}

	s.chainState = next

	return nil
}

// CalculateHashrate estimates the network hash rate from the average
// compact difficulty and the elapsed time across a window of headers.
// Fewer than two headers, or zero elapsed time, is defined as 0.0.
func CalculateHashrate(window []database.BlockHeader) float64 {
	if len(window) < 2 {
		return 0.0
	}

	first := window[0].Timestamp
	last := window[len(window)-1].Timestamp
	if last <= first {
		return 0.0
	}

	var bitsSum float64
	for _, header := range window {
		bitsSum += float64(header.Bits)
	}
	avgBits := bitsSum / float64(len(window))

	elapsed := float64(last - first)

	return avgBits * float64(1<<32) / elapsed
}

// =============================================================================

// blockWork returns the expected hash attempts the block's target
// represents: 2^512 / (target + 1).
func blockWork(bits uint32) (*big.Int, error) {
	target, err := difficulty.TargetFromBits(bits)
	if err != nil {
		return nil, err
	}

	return target.Work(), nil
}

func persistChainState(db *database.Database, cs ChainState) error {
	data, err := json.Marshal(cs)
	if err != nil {
		return err
	}

	return db.SetMetadata(chainStateKey, data)
}

func loadChainState(db *database.Database) (ChainState, error) {
	data, err := db.GetMetadata(chainStateKey)
	if err != nil {
		return ChainState{}, err
	}

	var cs ChainState
	if err := json.Unmarshal(data, &cs); err != nil {
		return ChainState{}, fmt.Errorf("%w: chain state: %s", database.ErrInvalidData, err)
	}
	if cs.TotalWork == nil {
		cs.TotalWork = big.NewInt(0)
	}

	return cs, nil
}
