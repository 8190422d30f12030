// Package hashing provides the fixed-width digest type used across the
// blockchain packages and the double SHA-512 hashing function that
// produces it.
package hashing

import (
	"bytes"
	"crypto/sha512"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashLen is the width in bytes of every digest in the system.
const HashLen = 64

// Hash represents a 64 byte digest. Equality is byte-exact.
type Hash [HashLen]byte

// Zero is the all-zero sentinel used for coinbase and genesis references.
var Zero Hash

// DoubleSum performs two rounds of SHA-512 over the specified data. All
// consensus hashing in the system goes through this function.
func DoubleSum(data []byte) Hash {
	first := sha512.Sum512(data)
	return sha512.Sum512(first[:])
}

// FromBytes constructs a Hash from a byte slice that must be exactly
// HashLen bytes long.
func FromBytes(data []byte) (Hash, error) {
	if len(data) != HashLen {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashLen, len(data))
	}

	var hash Hash
	copy(hash[:], data)

	return hash, nil
}

// FromHex converts a hex encoded string with a 0x prefix into a Hash.
func FromHex(s string) (Hash, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return Hash{}, err
	}

	return FromBytes(data)
}

// IsZero reports whether the hash is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Zero
}

// Hex converts the hash to a hex encoded string with a 0x prefix.
func (h Hash) Hex() string {
	return hexutil.Encode(h[:])
}

// String implements the fmt.Stringer interface.
func (h Hash) String() string {
	return h.Hex()
}

// Compare interprets both hashes as big-endian unsigned integers and
// returns -1, 0 or 1 accordingly. The digest bytes are already stored
// most significant first, so a byte compare is the numeric compare.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// MarshalText implements the encoding.TextMarshaler interface so hashes
// render as hex in JSON payloads.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (h *Hash) UnmarshalText(text []byte) error {
	hash, err := FromHex(string(text))
	if err != nil {
		return err
	}

	*h = hash
	return nil
}
