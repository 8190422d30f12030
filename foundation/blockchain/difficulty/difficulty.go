// Package difficulty implements the compact bits encoding of the mining
// target, expansion to the full 64 byte comparison value, chain work
// accounting, and the retarget calculation.
package difficulty

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// Consensus constants for the retarget schedule.
const (
	AdjustmentInterval = 2016 // Blocks between retargets.
	TargetBlockTime    = 600  // Seconds per block the schedule aims for.
)

// Well known compact values for the supported networks.
const (
	BitsRegtest = 0x207fffff // Easiest target, for local chains and tests.
	BitsTestnet = 0x1d0fffff
	BitsMainnet = 0x1d00ffff
)

// Set of errors returned by the codec. Malformed bits values are
// rejected, never clamped: a zero exponent or mantissa, or an expansion
// that does not fit the 64 byte hash width, is ErrInvalidBits.
var (
	ErrInvalidBits        = errors.New("invalid compact bits value")
	ErrInsufficientBlocks = errors.New("at least two blocks required for adjustment")
	ErrInvalidTimespan    = errors.New("block window timespan out of range")
)

// =============================================================================

// Difficulty wraps the compact 32 bit representation of a target.
type Difficulty struct {
	bits uint32
}

// FromBits constructs a Difficulty from its compact representation.
func FromBits(bits uint32) Difficulty {
	return Difficulty{bits: bits}
}

// Bits returns the compact representation.
func (d Difficulty) Bits() uint32 {
	return d.bits
}

// =============================================================================

// Target represents the fully expanded 64 byte big-endian threshold a
// header hash must not exceed.
type Target struct {
	bits  uint32
	value [hashing.HashLen]byte
}

// TargetFromBits expands a compact bits value into a full width target.
// The network minimum values expand to their published targets; every
// other value places the 3 byte mantissa at byte offset 64-exponent.
func TargetFromBits(bits uint32) (Target, error) {
	exponent := int(bits >> 24)
	mantissa := bits & 0x00ffffff

	if exponent == 0 || mantissa == 0 {
		return Target{}, fmt.Errorf("%w: 0x%08x", ErrInvalidBits, bits)
	}

	t := Target{bits: bits}

	switch bits {
	case BitsRegtest:
		t.value[0] = 0x7f
		for i := 1; i < hashing.HashLen; i++ {
			t.value[i] = 0xff
		}
		return t, nil

	case BitsTestnet:
		t.value[0] = 0x0f
		t.value[1] = 0xff
		t.value[2] = 0xff
		for i := 3; i < hashing.HashLen; i++ {
			t.value[i] = 0xff
		}
		return t, nil

	case BitsMainnet:
		t.value[1] = 0xff
		t.value[2] = 0xff
		for i := 3; i < hashing.HashLen; i++ {
			t.value[i] = 0xff
		}
		return t, nil
	}

	if exponent < 3 || exponent > hashing.HashLen {
		return Target{}, fmt.Errorf("%w: exponent %d exceeds hash width", ErrInvalidBits, exponent)
	}

	start := hashing.HashLen - exponent
	t.value[start] = byte(mantissa >> 16)
	t.value[start+1] = byte(mantissa >> 8)
	t.value[start+2] = byte(mantissa)

	return t, nil
}

// TargetFromDifficulty expands a Difficulty into a full width target.
// The result is byte-identical to TargetFromBits for the same compact
// value: both run the same expansion.
func TargetFromDifficulty(d Difficulty) (Target, error) {
	return TargetFromBits(d.bits)
}

// TargetFromHash derives a target directly from a 64 byte value, re-
// encoding the compact bits from the first non-zero byte. Used for the
// result of a retarget calculation.
func TargetFromHash(hash hashing.Hash) (Target, error) {
	if hash.IsZero() {
		return Target{}, fmt.Errorf("%w: zero target", ErrInvalidBits)
	}

	return Target{bits: compactFromValue(hash), value: hash}, nil
}

// Bits returns the compact representation of the target.
func (t Target) Bits() uint32 {
	return t.bits
}

// Hash returns the expanded target as a Hash value.
func (t Target) Hash() hashing.Hash {
	return hashing.Hash(t.value)
}

// ValidatesHash reports whether the specified hash, read as a big-endian
// unsigned integer, is less than or equal to the target.
func (t Target) ValidatesHash(hash hashing.Hash) bool {
	return hash.Compare(hashing.Hash(t.value)) <= 0
}

// Work returns the expected number of hash attempts this target
// represents: 2^512 / (target + 1). The result feeds cumulative chain
// work so it uses arbitrary precision arithmetic.
func (t Target) Work() *big.Int {
	denom := new(big.Int).SetBytes(t.value[:])
	denom.Add(denom, big.NewInt(1))

	numer := new(big.Int).Lsh(big.NewInt(1), uint(hashing.HashLen*8))

	return numer.Div(numer, denom)
}

// =============================================================================

// Sample carries the header fields the retarget calculation needs from
// each block in the adjustment window.
type Sample struct {
	Timestamp uint64
	Bits      uint32
}

// TargetTimespan returns the wall clock seconds one full adjustment
// interval is scheduled to take.
func TargetTimespan() uint64 {
	return AdjustmentInterval * TargetBlockTime
}

// IsAdjustmentHeight reports whether a retarget occurs at the height.
func IsAdjustmentHeight(height uint64) bool {
	return height > 0 && height%AdjustmentInterval == 0
}

// Adjust scales the previous target by actual/target timespan, with the
// ratio clamped to [0.25, 4.0]. A larger actual timespan means blocks
// were slow and yields an easier (larger) target.
func Adjust(previous Target, actualTimespan uint64, targetTimespan uint64) (Target, error) {
	if targetTimespan == 0 {
		return Target{}, ErrInvalidTimespan
	}

	// Clamp the ratio to [1/4, 4] by bounding the timespan itself.
	lo := targetTimespan / 4
	hi := targetTimespan * 4
	switch {
	case actualTimespan < lo:
		actualTimespan = lo
	case actualTimespan > hi:
		actualTimespan = hi
	}

	next := new(big.Int).SetBytes(previous.value[:])
	next.Mul(next, new(big.Int).SetUint64(actualTimespan))
	next.Div(next, new(big.Int).SetUint64(targetTimespan))

	// Never ease past the network floor.
	floor, err := TargetFromBits(BitsRegtest)
	if err != nil {
		return Target{}, err
	}
	if next.Cmp(new(big.Int).SetBytes(floor.value[:])) > 0 {
		return floor, nil
	}

	if next.Sign() == 0 {
		next.SetInt64(1)
	}

	var value hashing.Hash
	next.FillBytes(value[:])

	return TargetFromHash(value)
}

// CalculateAdjustment derives the next target from a window of block
// samples ordered oldest first. Timestamp underflow, a zero timespan,
// and a timespan beyond ten times the schedule are all rejected as
// manipulation rather than smoothed over.
func CalculateAdjustment(window []Sample, targetTimespan uint64) (Target, error) {
	if len(window) < 2 {
		return Target{}, ErrInsufficientBlocks
	}

	first := window[0]
	last := window[len(window)-1]

	if last.Timestamp < first.Timestamp {
		return Target{}, fmt.Errorf("%w: timestamps not monotonic", ErrInvalidTimespan)
	}

	actualTimespan := last.Timestamp - first.Timestamp
	if actualTimespan == 0 || actualTimespan > targetTimespan*10 {
		return Target{}, fmt.Errorf("%w: %d seconds", ErrInvalidTimespan, actualTimespan)
	}

	previous, err := TargetFromBits(last.Bits)
	if err != nil {
		return Target{}, err
	}

	return Adjust(previous, actualTimespan, targetTimespan)
}

// =============================================================================

// compactFromValue encodes the first non-zero byte position and the
// three bytes that follow it as exponent and mantissa.
func compactFromValue(value hashing.Hash) uint32 {
	for i, b := range value {
		if b == 0 {
			continue
		}

		exponent := uint32(hashing.HashLen - i)

		var mantissa uint32
		mantissa = uint32(b) << 16
		if i+1 < hashing.HashLen {
			mantissa |= uint32(value[i+1]) << 8
		}
		if i+2 < hashing.HashLen {
			mantissa |= uint32(value[i+2])
		}

		return exponent<<24 | mantissa&0x00ffffff
	}

	return 0
}
