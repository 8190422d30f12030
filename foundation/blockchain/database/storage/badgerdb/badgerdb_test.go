package badgerdb_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/database/storage/badgerdb"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Engine(t *testing.T) {
	t.Log("Given the need for an ordered durable key/value substrate.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen writing and reading across namespaces.", testID)
		{
			stg, err := badgerdb.New(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the engine: %v", failed, testID, err)
			}
			defer stg.Close()
			t.Logf("\t%s\tTest %d:\tShould be able to open the engine.", success, testID)

			if err := stg.Set(database.NSUTXOs, []byte("k1"), []byte("v1")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to set a key: %v", failed, testID, err)
			}

			value, err := stg.Get(database.NSUTXOs, []byte("k1"))
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the key: %v", failed, testID, err)
			}
			if string(value) != "v1" {
				t.Fatalf("\t%s\tTest %d:\tShould return the stored value, got %q.", failed, testID, value)
			}
			t.Logf("\t%s\tTest %d:\tShould round trip a key inside its namespace.", success, testID)

			if _, err := stg.Get(database.NSBlocks, []byte("k1")); !errors.Is(err, database.ErrKeyNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould keep namespaces apart, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould keep namespaces apart.", success, testID)

			exists, err := stg.Exists(database.NSUTXOs, []byte("k1"))
			if err != nil || !exists {
				t.Fatalf("\t%s\tTest %d:\tShould report the key present: %v", failed, testID, err)
			}

			if err := stg.Delete(database.NSUTXOs, []byte("k1")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to delete the key: %v", failed, testID, err)
			}
			if _, err := stg.Get(database.NSUTXOs, []byte("k1")); !errors.Is(err, database.ErrKeyNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould miss after delete, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould delete keys.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen iterating a namespace in key order.", testID)
		{
			stg, err := badgerdb.New(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the engine: %v", failed, testID, err)
			}
			defer stg.Close()

			// Insert out of order; the walk must come back sorted.
			for _, k := range []string{"c", "a", "b"} {
				if err := stg.Set(database.NSMeta, []byte(k), []byte("v-"+k)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to set %q: %v", failed, testID, k, err)
				}
			}

			var keys []string
			err = stg.ForEach(database.NSMeta, func(key []byte, value []byte) error {
				keys = append(keys, string(key))
				return nil
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to iterate: %v", failed, testID, err)
			}

			if fmt.Sprint(keys) != "[a b c]" {
				t.Fatalf("\t%s\tTest %d:\tShould walk in key order, got %v.", failed, testID, keys)
			}
			t.Logf("\t%s\tTest %d:\tShould walk in key order.", success, testID)

			stop := errors.New("stop")
			count := 0
			err = stg.ForEach(database.NSMeta, func(key []byte, value []byte) error {
				count++
				return stop
			})
			if !errors.Is(err, stop) || count != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould stop at the first callback error, visited %d.", failed, testID, count)
			}
			t.Logf("\t%s\tTest %d:\tShould stop at the first callback error.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen a batch spans namespaces.", testID)
		{
			stg, err := badgerdb.New(t.TempDir())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the engine: %v", failed, testID, err)
			}
			defer stg.Close()

			if err := stg.Set(database.NSUTXOs, []byte("spent"), []byte("v")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to seed the engine: %v", failed, testID, err)
			}

			var batch database.Batch
			batch.Delete(database.NSUTXOs, []byte("spent"))
			batch.Set(database.NSUTXOs, []byte("created"), []byte("v"))
			batch.Set(database.NSBlocks, []byte("block"), []byte("v"))

			if err := stg.ApplyBatch(batch); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to apply the batch: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to apply the batch.", success, testID)

			if _, err := stg.Get(database.NSUTXOs, []byte("spent")); !errors.Is(err, database.ErrKeyNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould apply the delete, got %v.", failed, testID, err)
			}
			if _, err := stg.Get(database.NSUTXOs, []byte("created")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould apply the set: %v", failed, testID, err)
			}
			if _, err := stg.Get(database.NSBlocks, []byte("block")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould apply across namespaces: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould commit every operation together.", success, testID)
		}

		testID = 3
		t.Logf("\tTest %d:\tWhen reopening the database.", testID)
		{
			dir := t.TempDir()

			stg, err := badgerdb.New(dir)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the engine: %v", failed, testID, err)
			}
			if err := stg.Set(database.NSMeta, []byte("persist"), []byte("v")); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to write: %v", failed, testID, err)
			}
			if err := stg.Close(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to close the engine: %v", failed, testID, err)
			}

			stg, err = badgerdb.New(dir)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen the engine: %v", failed, testID, err)
			}
			defer stg.Close()

			value, err := stg.Get(database.NSMeta, []byte("persist"))
			if err != nil || string(value) != "v" {
				t.Fatalf("\t%s\tTest %d:\tShould survive a reopen: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould survive a reopen.", success, testID)
		}
	}
}
