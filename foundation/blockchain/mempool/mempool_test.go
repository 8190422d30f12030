package mempool_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// makeTx builds a distinct transaction padded to roughly the specified
// script size so capacity tests can reason in measured bytes.
func makeTx(seed int, scriptLen int) database.Transaction {
	return database.Transaction{
		Version: 1,
		Inputs: []database.TxInput{
			{
				PreviousOutPoint: database.OutPoint{TxID: hashing.DoubleSum([]byte(fmt.Sprintf("tx-%d", seed))), Vout: 0},
				ScriptSig:        bytes.Repeat([]byte{0x01}, scriptLen),
			},
		},
		Outputs: []database.TxOutput{
			{Value: uint64(seed), ScriptPubKey: []byte{0x51}},
		},
	}
}

// =============================================================================

func Test_AddRemove(t *testing.T) {
	t.Log("Given the need to pool pending transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen adding and retrieving a transaction.", testID)
		{
			mp := mempool.New()
			tx := makeTx(1, 10)

			if err := mp.Add(tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add the transaction.", success, testID)

			if !mp.Contains(tx.Hash()) {
				t.Fatalf("\t%s\tTest %d:\tShould report the transaction pooled.", failed, testID)
			}

			got, exists := mp.GetTransaction(tx.Hash())
			if !exists || got.Hash() != tx.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould return the pooled transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould return the pooled transaction.", success, testID)

			if mp.Count() != 1 || mp.Size() != tx.Size() {
				t.Fatalf("\t%s\tTest %d:\tShould account 1 entry of %d bytes, got %d of %d.", failed, testID, tx.Size(), mp.Count(), mp.Size())
			}
			t.Logf("\t%s\tTest %d:\tShould account the measured wire size.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen adding a duplicate transaction.", testID)
		{
			mp := mempool.New()
			tx := makeTx(1, 10)

			if err := mp.Add(tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the transaction: %v", failed, testID, err)
			}

			if err := mp.Add(tx); !errors.Is(err, mempool.ErrTxExists) {
				t.Fatalf("\t%s\tTest %d:\tShould reject with ErrTxExists, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject with ErrTxExists.", success, testID)

			if mp.Count() != 1 || mp.Size() != tx.Size() {
				t.Fatalf("\t%s\tTest %d:\tShould leave the accounting unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould leave the accounting unchanged.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen removing transactions.", testID)
		{
			mp := mempool.New()
			tx1 := makeTx(1, 10)
			tx2 := makeTx(2, 10)

			if err := mp.Add(tx1); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add tx1: %v", failed, testID, err)
			}
			if err := mp.Add(tx2); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add tx2: %v", failed, testID, err)
			}

			mp.Remove(tx1.Hash())
			if mp.Contains(tx1.Hash()) || mp.Count() != 1 || mp.Size() != tx2.Size() {
				t.Fatalf("\t%s\tTest %d:\tShould remove the entry and its bytes.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the entry and its bytes.", success, testID)

			// Removing an absent hash must not disturb accounting.
			mp.Remove(tx1.Hash())
			if mp.Size() != tx2.Size() {
				t.Fatalf("\t%s\tTest %d:\tShould ignore an absent hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould ignore an absent hash.", success, testID)

			mp.RemoveBatch([]hashing.Hash{tx2.Hash()})
			if mp.Count() != 0 || mp.Size() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould drain through a batch removal.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould drain through a batch removal.", success, testID)
		}
	}
}

func Test_ByteCapacity(t *testing.T) {
	t.Log("Given the need to bound the pool by wire bytes.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen filling the pool to its byte capacity.", testID)
		{
			// Size the capacity from measured transactions: the first
			// two fit, the third would overflow, and after dropping the
			// first a smaller fourth fits again.
			big1 := makeTx(1, 500)
			big2 := makeTx(2, 400)
			over := makeTx(3, 200)
			small := makeTx(4, 100)

			capacity := big1.Size() + big2.Size() + over.Size()/2
			mp := mempool.NewWithMaxSize(capacity)

			if err := mp.Add(big1); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the first transaction: %v", failed, testID, err)
			}
			if err := mp.Add(big2); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the second transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fill the pool under capacity.", success, testID)

			if err := mp.Add(over); !errors.Is(err, mempool.ErrMempoolFull) {
				t.Fatalf("\t%s\tTest %d:\tShould reject with ErrMempoolFull, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject with ErrMempoolFull.", success, testID)

			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould not admit the rejected transaction.", failed, testID)
			}

			mp.Remove(big1.Hash())

			if err := mp.Add(small); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept a smaller transaction after a removal: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a smaller transaction after a removal.", success, testID)

			if mp.Size() != big2.Size()+small.Size() {
				t.Fatalf("\t%s\tTest %d:\tShould track the exact pooled bytes, got %d.", failed, testID, mp.Size())
			}
			t.Logf("\t%s\tTest %d:\tShould track the exact pooled bytes.", success, testID)
		}
	}
}

func Test_Snapshot(t *testing.T) {
	t.Log("Given the need to snapshot the pool for block assembly.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen reading the pool contents.", testID)
		{
			mp := mempool.New()

			want := make(map[hashing.Hash]bool)
			for i := 1; i <= 5; i++ {
				tx := makeTx(i, 10)
				want[tx.Hash()] = true
				if err := mp.Add(tx); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to add transaction %d: %v", failed, testID, i, err)
				}
			}

			txs := mp.GetAllTransactions()
			if len(txs) != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould return all 5 transactions, got %d.", failed, testID, len(txs))
			}
			for _, tx := range txs {
				if !want[tx.Hash()] {
					t.Fatalf("\t%s\tTest %d:\tShould only return pooled transactions.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould return every pooled transaction.", success, testID)

			hashes := mp.GetTransactionHashes()
			if len(hashes) != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould return all 5 hashes, got %d.", failed, testID, len(hashes))
			}
			t.Logf("\t%s\tTest %d:\tShould return every pooled hash.", success, testID)

			stats := mp.GetStats()
			if stats.Count != 5 || stats.Bytes != mp.Size() || stats.MaxSize != mempool.DefaultMaxSize {
				t.Fatalf("\t%s\tTest %d:\tShould report consistent stats.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report consistent stats.", success, testID)

			mp.Clear()
			if mp.Count() != 0 || mp.Size() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould reset on clear.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reset on clear.", success, testID)
		}
	}
}
