package genesis_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/veritascoin/veritas/foundation/blockchain/difficulty"
	"github.com/veritascoin/veritas/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to fix the chain parameters in a genesis file.")
	{
		gen := genesis.Genesis{
			Date:           time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			ChainID:        1,
			Bits:           difficulty.BitsRegtest,
			MiningReward:   5_000_000_000,
			CoinbaseScript: "0x51",
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen saving and reloading the file.", testID)
		{
			path := filepath.Join(t.TempDir(), "genesis.json")

			if err := gen.Save(path); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to save the file: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to save the file.", success, testID)

			loaded, err := genesis.LoadFromFile(path)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %v", failed, testID, err)
			}
			if loaded != gen {
				t.Fatalf("\t%s\tTest %d:\tShould round trip every parameter.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould round trip every parameter.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen constructing the genesis block.", testID)
		{
			a, err := gen.Block()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to build the block.", success, testID)

			b, err := gen.Block()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the block again: %v", failed, testID, err)
			}
			if a.Hash() != b.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould be deterministic.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)

			if !a.Header.PrevBlockHash.IsZero() {
				t.Fatalf("\t%s\tTest %d:\tShould reference the zero previous hash.", failed, testID)
			}
			if len(a.Transactions) != 1 || !a.Transactions[0].IsCoinbase() {
				t.Fatalf("\t%s\tTest %d:\tShould carry exactly the coinbase.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould carry a lone coinbase under a zero previous hash.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the coinbase script is malformed.", testID)
		{
			bad := gen
			bad.CoinbaseScript = "not-hex"

			if _, err := bad.Block(); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed script.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a malformed script.", success, testID)
		}
	}
}
