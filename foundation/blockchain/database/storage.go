package database

import "errors"

// The four logical namespaces every storage engine must partition its
// keyspace into. Each is an independently ordered byte-key map.
const (
	NSBlocks = "blocks"
	NSTrans  = "trans"
	NSUTXOs  = "utxos"
	NSMeta   = "meta"
)

// Namespaces lists every namespace an engine must serve.
var Namespaces = []string{NSBlocks, NSTrans, NSUTXOs, NSMeta}

// Set of sentinel errors shared by all storage engines. Engines
// translate their native not-found conditions to ErrKeyNotFound;
// anything else is an engine failure and wraps through unchanged.
var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrUTXONotFound   = errors.New("utxo not found")
	ErrDuplicateSpend = errors.New("outpoint removed twice in one batch")
	ErrBlockNotFound  = errors.New("block not found")
	ErrTxNotFound     = errors.New("transaction not found")
	ErrInvalidData    = errors.New("invalid stored data")
)

// =============================================================================

// BatchSet is one write inside an atomic batch.
type BatchSet struct {
	NS    string
	Key   []byte
	Value []byte
}

// BatchDelete is one delete inside an atomic batch.
type BatchDelete struct {
	NS  string
	Key []byte
}

// Batch groups writes and deletes that must land together. Engines
// apply the whole batch in one durable write: after a crash either
// every operation is visible or none is.
type Batch struct {
	Sets    []BatchSet
	Deletes []BatchDelete
}

// Set appends a write to the batch.
func (b *Batch) Set(ns string, key []byte, value []byte) {
	b.Sets = append(b.Sets, BatchSet{NS: ns, Key: key, Value: value})
}

// Delete appends a delete to the batch.
func (b *Batch) Delete(ns string, key []byte) {
	b.Deletes = append(b.Deletes, BatchDelete{NS: ns, Key: key})
}

// Len returns the number of operations in the batch.
func (b *Batch) Len() int {
	return len(b.Sets) + len(b.Deletes)
}

// =============================================================================

// Storage interface represents the behavior required to be implemented
// by any engine providing the ordered key/value substrate under the
// ledger. ForEach walks one namespace in key order and stops early if
// the callback returns an error; each call starts a fresh walk.
type Storage interface {
	Get(ns string, key []byte) ([]byte, error)
	Set(ns string, key []byte, value []byte) error
	Delete(ns string, key []byte) error
	Exists(ns string, key []byte) (bool, error)
	ApplyBatch(batch Batch) error
	ForEach(ns string, fn func(key []byte, value []byte) error) error
	Close() error
}
