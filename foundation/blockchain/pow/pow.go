// Package pow performs the proof of work search and verification for a
// block header: iterate the nonce until the header hash meets the
// expanded target.
package pow

import (
	"context"
	"errors"
	"math"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/difficulty"
)

// ErrNoSolution is returned when the whole nonce space is exhausted
// without a valid hash. The caller should refresh the timestamp or the
// transaction set and try again.
var ErrNoSolution = errors.New("nonce space exhausted")

// ctxCheckInterval is how many nonce attempts run between context
// cancellation checks.
const ctxCheckInterval = 1 << 16

// Mine searches the nonce space for a header hash that meets the
// target encoded in the header's own bits field. The returned header
// carries the winning nonce; the input is not modified.
func Mine(ctx context.Context, header database.BlockHeader) (database.BlockHeader, error) {
	target, err := difficulty.TargetFromBits(header.Bits)
	if err != nil {
		return database.BlockHeader{}, err
	}

	return MineWithTarget(ctx, header, target)
}

// MineWithTarget searches against an explicit target, for callers that
// already expanded the compact bits.
func MineWithTarget(ctx context.Context, header database.BlockHeader, target difficulty.Target) (database.BlockHeader, error) {
	for nonce := uint64(0); nonce <= math.MaxUint32; nonce++ {
		if nonce%ctxCheckInterval == 0 && ctx.Err() != nil {
			return database.BlockHeader{}, ctx.Err()
		}

		header.Nonce = uint32(nonce)
		if target.ValidatesHash(header.Hash()) {
			return header, nil
		}
	}

	return database.BlockHeader{}, ErrNoSolution
}

// Verify reports whether the header's hash meets the target its bits
// field advertises. Malformed bits never verify.
func Verify(header database.BlockHeader) bool {
	target, err := difficulty.TargetFromBits(header.Bits)
	if err != nil {
		return false
	}

	return target.ValidatesHash(header.Hash())
}
