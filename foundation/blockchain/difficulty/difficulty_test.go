package difficulty_test

import (
	"errors"
	"testing"

	"github.com/veritascoin/veritas/foundation/blockchain/difficulty"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_TargetExpansion(t *testing.T) {
	type table struct {
		name  string
		bits  uint32
		first [4]byte
	}

	tt := []table{
		{name: "regtest", bits: difficulty.BitsRegtest, first: [4]byte{0x7f, 0xff, 0xff, 0xff}},
		{name: "testnet", bits: difficulty.BitsTestnet, first: [4]byte{0x0f, 0xff, 0xff, 0xff}},
		{name: "mainnet", bits: difficulty.BitsMainnet, first: [4]byte{0x00, 0xff, 0xff, 0xff}},
	}

	t.Log("Given the need to expand compact bits into full width targets.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen expanding the %s minimum 0x%08x.", testID, tst.name, tst.bits)
			{
				target, err := difficulty.TargetFromBits(tst.bits)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to expand bits: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to expand bits.", success, testID)

				value := target.Hash()
				for i, b := range tst.first {
					if value[i] != b {
						t.Fatalf("\t%s\tTest %d:\tShould place byte 0x%02x at offset %d, got 0x%02x.", failed, testID, b, i, value[i])
					}
				}
				t.Logf("\t%s\tTest %d:\tShould match the published target bytes.", success, testID)

				if target.Bits() != tst.bits {
					t.Fatalf("\t%s\tTest %d:\tShould preserve the compact bits, got 0x%08x.", failed, testID, target.Bits())
				}
				t.Logf("\t%s\tTest %d:\tShould preserve the compact bits.", success, testID)
			}
		}
	}
}

func Test_TargetPaths(t *testing.T) {
	t.Log("Given the need to validate both expansion paths agree.")
	{
		bits := []uint32{difficulty.BitsRegtest, difficulty.BitsTestnet, difficulty.BitsMainnet, 0x1b0404cb, 0x1c00ffff}

		for testID, b := range bits {
			t.Logf("\tTest %d:\tWhen expanding 0x%08x through both paths.", testID, b)
			{
				fromBits, err := difficulty.TargetFromBits(b)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to expand bits: %v", failed, testID, err)
				}

				fromDiff, err := difficulty.TargetFromDifficulty(difficulty.FromBits(b))
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to expand difficulty: %v", failed, testID, err)
				}

				if fromBits.Hash() != fromDiff.Hash() {
					t.Fatalf("\t%s\tTest %d:\tShould produce byte identical targets.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould produce byte identical targets.", success, testID)
			}
		}
	}
}

func Test_MalformedBits(t *testing.T) {
	type table struct {
		name string
		bits uint32
	}

	tt := []table{
		{name: "zero exponent", bits: 0x007fffff},
		{name: "zero mantissa", bits: 0x20000000},
		{name: "exponent too small", bits: 0x027fffff},
		{name: "exponent beyond hash width", bits: 0x417fffff},
		{name: "all zero", bits: 0x00000000},
	}

	t.Log("Given the need to reject malformed compact bits values.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen expanding %s 0x%08x.", testID, tst.name, tst.bits)
			{
				if _, err := difficulty.TargetFromBits(tst.bits); !errors.Is(err, difficulty.ErrInvalidBits) {
					t.Fatalf("\t%s\tTest %d:\tShould reject with ErrInvalidBits, got %v.", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject with ErrInvalidBits.", success, testID)
			}
		}
	}
}

func Test_ValidatesHash(t *testing.T) {
	t.Log("Given the need to compare header hashes against a target.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen checking hashes around the regtest boundary.", testID)
		{
			target, err := difficulty.TargetFromBits(difficulty.BitsRegtest)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to expand bits: %v", failed, testID, err)
			}

			if !target.ValidatesHash(hashing.Zero) {
				t.Fatalf("\t%s\tTest %d:\tShould accept the zero hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the zero hash.", success, testID)

			if !target.ValidatesHash(target.Hash()) {
				t.Fatalf("\t%s\tTest %d:\tShould accept a hash equal to the target.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a hash equal to the target.", success, testID)

			var above hashing.Hash
			above[0] = 0x80
			if target.ValidatesHash(above) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a hash above the target.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a hash above the target.", success, testID)
		}
	}
}

func Test_Work(t *testing.T) {
	t.Log("Given the need to measure the expected work behind a target.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen comparing work across network minimums.", testID)
		{
			regtest, err := difficulty.TargetFromBits(difficulty.BitsRegtest)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to expand regtest bits: %v", failed, testID, err)
			}

			mainnet, err := difficulty.TargetFromBits(difficulty.BitsMainnet)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to expand mainnet bits: %v", failed, testID, err)
			}

			if regtest.Work().Sign() <= 0 || mainnet.Work().Sign() <= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould report strictly positive work.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report strictly positive work.", success, testID)

			if mainnet.Work().Cmp(regtest.Work()) <= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould report more work for the harder target.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report more work for the harder target.", success, testID)
		}
	}
}

func Test_Adjust(t *testing.T) {
	t.Log("Given the need to retarget after an adjustment window.")
	{
		base, err := difficulty.TargetFromBits(difficulty.BitsMainnet)
		if err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to expand mainnet bits: %v", failed, err)
		}

		testID := 0
		t.Logf("\tTest %d:\tWhen the window ran exactly on schedule.", testID)
		{
			next, err := difficulty.Adjust(base, difficulty.TargetTimespan(), difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust: %v", failed, testID, err)
			}
			if next.Hash() != base.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould keep the target unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the target unchanged.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the window ran twice as slow.", testID)
		{
			next, err := difficulty.Adjust(base, 2*difficulty.TargetTimespan(), difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust: %v", failed, testID, err)
			}
			if next.Hash().Compare(base.Hash()) <= 0 {
				t.Fatalf("\t%s\tTest %d:\tShould ease to a larger target.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould ease to a larger target.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the window ran twenty times too slow.", testID)
		{
			clamped, err := difficulty.Adjust(base, 20*difficulty.TargetTimespan(), difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust: %v", failed, testID, err)
			}

			quadrupled, err := difficulty.Adjust(base, 4*difficulty.TargetTimespan(), difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust at the bound: %v", failed, testID, err)
			}

			if clamped.Hash() != quadrupled.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould clamp the easing to four times.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould clamp the easing to four times.", success, testID)
		}

		testID = 3
		t.Logf("\tTest %d:\tWhen the window ran twenty times too fast.", testID)
		{
			clamped, err := difficulty.Adjust(base, difficulty.TargetTimespan()/20, difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust: %v", failed, testID, err)
			}

			quartered, err := difficulty.Adjust(base, difficulty.TargetTimespan()/4, difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust at the bound: %v", failed, testID, err)
			}

			if clamped.Hash() != quartered.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould clamp the tightening to one quarter.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould clamp the tightening to one quarter.", success, testID)
		}

		testID = 4
		t.Logf("\tTest %d:\tWhen easing past the network floor.", testID)
		{
			regtest, err := difficulty.TargetFromBits(difficulty.BitsRegtest)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to expand regtest bits: %v", failed, testID, err)
			}

			next, err := difficulty.Adjust(regtest, 4*difficulty.TargetTimespan(), difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to adjust: %v", failed, testID, err)
			}
			if next.Hash() != regtest.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould hold at the floor target.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould hold at the floor target.", success, testID)
		}
	}
}

func Test_CalculateAdjustment(t *testing.T) {
	t.Log("Given the need to reject manipulated retarget windows.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the window has fewer than two samples.", testID)
		{
			window := []difficulty.Sample{{Timestamp: 1000, Bits: difficulty.BitsMainnet}}
			if _, err := difficulty.CalculateAdjustment(window, difficulty.TargetTimespan()); !errors.Is(err, difficulty.ErrInsufficientBlocks) {
				t.Fatalf("\t%s\tTest %d:\tShould reject with ErrInsufficientBlocks, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject with ErrInsufficientBlocks.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen the timestamps run backwards.", testID)
		{
			window := []difficulty.Sample{
				{Timestamp: 2000, Bits: difficulty.BitsMainnet},
				{Timestamp: 1000, Bits: difficulty.BitsMainnet},
			}
			if _, err := difficulty.CalculateAdjustment(window, difficulty.TargetTimespan()); !errors.Is(err, difficulty.ErrInvalidTimespan) {
				t.Fatalf("\t%s\tTest %d:\tShould reject with ErrInvalidTimespan, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject with ErrInvalidTimespan.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the timespan is zero.", testID)
		{
			window := []difficulty.Sample{
				{Timestamp: 1000, Bits: difficulty.BitsMainnet},
				{Timestamp: 1000, Bits: difficulty.BitsMainnet},
			}
			if _, err := difficulty.CalculateAdjustment(window, difficulty.TargetTimespan()); !errors.Is(err, difficulty.ErrInvalidTimespan) {
				t.Fatalf("\t%s\tTest %d:\tShould reject with ErrInvalidTimespan, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject with ErrInvalidTimespan.", success, testID)
		}

		testID = 3
		t.Logf("\tTest %d:\tWhen the timespan exceeds ten full schedules.", testID)
		{
			window := []difficulty.Sample{
				{Timestamp: 0, Bits: difficulty.BitsMainnet},
				{Timestamp: difficulty.TargetTimespan()*10 + 1, Bits: difficulty.BitsMainnet},
			}
			if _, err := difficulty.CalculateAdjustment(window, difficulty.TargetTimespan()); !errors.Is(err, difficulty.ErrInvalidTimespan) {
				t.Fatalf("\t%s\tTest %d:\tShould reject with ErrInvalidTimespan, got %v.", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject with ErrInvalidTimespan.", success, testID)
		}

		testID = 4
		t.Logf("\tTest %d:\tWhen the window is healthy.", testID)
		{
			window := []difficulty.Sample{
				{Timestamp: 0, Bits: difficulty.BitsMainnet},
				{Timestamp: difficulty.TargetTimespan(), Bits: difficulty.BitsMainnet},
			}
			next, err := difficulty.CalculateAdjustment(window, difficulty.TargetTimespan())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to calculate the adjustment: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to calculate the adjustment.", success, testID)

			base, _ := difficulty.TargetFromBits(difficulty.BitsMainnet)
			if next.Hash() != base.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould keep an on-schedule target unchanged.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep an on-schedule target unchanged.", success, testID)
		}
	}
}

func Test_AdjustmentHeight(t *testing.T) {
	t.Log("Given the need to locate retarget heights.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen checking heights around the interval.", testID)
		{
			if difficulty.IsAdjustmentHeight(0) {
				t.Fatalf("\t%s\tTest %d:\tShould not retarget at genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not retarget at genesis.", success, testID)

			if !difficulty.IsAdjustmentHeight(difficulty.AdjustmentInterval) {
				t.Fatalf("\t%s\tTest %d:\tShould retarget at the interval.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould retarget at the interval.", success, testID)

			if difficulty.IsAdjustmentHeight(difficulty.AdjustmentInterval + 1) {
				t.Fatalf("\t%s\tTest %d:\tShould not retarget off the interval.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not retarget off the interval.", success, testID)
		}
	}
}
