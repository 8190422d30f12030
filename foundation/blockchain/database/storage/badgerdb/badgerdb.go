// Package badgerdb provides the durable storage engine for the ledger
// on top of BadgerDB. The four logical namespaces share one database
// and are separated by key prefixes, so a batch spanning namespaces
// commits through a single write transaction.
package badgerdb

import (
	"errors"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v3"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
)

// BadgerDB represents the storage engine over a badger database. This
// implements the database.Storage interface.
type BadgerDB struct {
	db *badger.DB
}

// New opens (or creates) the database at the specified path. Writes
// are synchronous so an applied batch is durable when the call
// returns; bloom filters on the tables serve the fixed-length prefix
// lookups the utxos namespace is built around.
func New(dbPath string) (*BadgerDB, error) {
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	opts := badger.DefaultOptions(dbPath)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}

	return &BadgerDB{db: db}, nil
}

// Close releases the database.
func (b *BadgerDB) Close() error {
	return b.db.Close()
}

// Get retrieves the value for a key inside a namespace.
func (b *BadgerDB) Get(ns string, key []byte) ([]byte, error) {
	var value []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nsKey(ns, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return database.ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, fmt.Errorf("badger get: %w", err)
	}

	return value, nil
}

// Set writes a single key inside a namespace.
func (b *BadgerDB) Set(ns string, key []byte, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nsKey(ns, key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}

	return nil
}

// Delete removes a single key inside a namespace. Deleting an absent
// key is not an error at this layer.
func (b *BadgerDB) Delete(ns string, key []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nsKey(ns, key))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}

	return nil
}

// Exists reports whether a key is present without reading its value.
func (b *BadgerDB) Exists(ns string, key []byte) (bool, error) {
	var exists bool

	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(nsKey(ns, key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badger exists: %w", err)
	}

	return exists, nil
}

// ApplyBatch commits every operation in the batch through one write
// transaction. Badger's write-ahead log makes the transaction the
// durability unit: after a crash either the whole batch is visible or
// none of it is.
func (b *BadgerDB) ApplyBatch(batch database.Batch) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, del := range batch.Deletes {
			if err := txn.Delete(nsKey(del.NS, del.Key)); err != nil {
				return err
			}
		}
		for _, set := range batch.Sets {
			if err := txn.Set(nsKey(set.NS, set.Key), set.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger batch [%d ops]: %w", batch.Len(), err)
	}

	return nil
}

// ForEach walks one namespace in key order, passing keys with the
// namespace prefix stripped. The walk stops at the first callback
// error.
func (b *BadgerDB) ForEach(ns string, fn func(key []byte, value []byte) error) error {
	prefix := nsKey(ns, nil)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()

			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			key := item.KeyCopy(nil)
			if err := fn(key[len(prefix):], value); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("badger iterate %q: %w", ns, err)
	}

	return nil
}

// nsKey prefixes a key with its namespace.
func nsKey(ns string, key []byte) []byte {
	full := make([]byte, 0, len(ns)+1+len(key))
	full = append(full, ns...)
	full = append(full, '/')
	full = append(full, key...)

	return full
}
