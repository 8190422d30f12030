package database

import (
	"encoding/binary"
	"fmt"

	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// CoinbaseMaturity is the number of confirmations a coinbase output
// needs before it may be spent.
const CoinbaseMaturity = 100

// UTXO represents one unspent transaction output. Values are owned by
// the store: they are inserted and removed, never mutated in place.
type UTXO struct {
	OutPoint     OutPoint `json:"outpoint"`
	Value        uint64   `json:"value"`
	ScriptPubKey []byte   `json:"script_pubkey"`
	BlockHeight  uint64   `json:"block_height"`
	IsCoinbase   bool     `json:"is_coinbase"`
}

// IsSpendable reports whether the output may be spent at the specified
// chain height, enforcing coinbase maturity.
func (u UTXO) IsSpendable(height uint64) bool {
	if !u.IsCoinbase {
		return true
	}

	return height >= u.BlockHeight+CoinbaseMaturity
}

// Key returns the storage key for the output inside the utxos
// namespace: the full 64 byte transaction id followed by the 4 byte
// little-endian output index. The full width id keeps the mapping
// injective no matter how large the set grows.
func (u UTXO) Key() []byte {
	return UTXOKey(u.OutPoint)
}

// UTXOKey builds the utxos namespace key for an outpoint.
func UTXOKey(op OutPoint) []byte {
	key := make([]byte, hashing.HashLen+4)
	copy(key, op.TxID[:])
	binary.LittleEndian.PutUint32(key[hashing.HashLen:], op.Vout)

	return key
}

// OutPointFromKey reverses UTXOKey.
func OutPointFromKey(key []byte) (OutPoint, error) {
	if len(key) != hashing.HashLen+4 {
		return OutPoint{}, fmt.Errorf("utxo key must be %d bytes, got %d", hashing.HashLen+4, len(key))
	}

	var op OutPoint
	copy(op.TxID[:], key[:hashing.HashLen])
	op.Vout = binary.LittleEndian.Uint32(key[hashing.HashLen:])

	return op, nil
}

// Serialize encodes the stored record: outpoint key, value, height,
// coinbase flag, then the varint prefixed locking script.
func (u UTXO) Serialize() []byte {
	data := make([]byte, 0, hashing.HashLen+4+8+8+1+len(u.ScriptPubKey)+3)

	data = append(data, UTXOKey(u.OutPoint)...)
	data = binary.LittleEndian.AppendUint64(data, u.Value)
	data = binary.LittleEndian.AppendUint64(data, u.BlockHeight)
	if u.IsCoinbase {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	data = appendVarint(data, uint64(len(u.ScriptPubKey)))
	data = append(data, u.ScriptPubKey...)

	return data
}

// DeserializeUTXO decodes a stored record. A failure indicates
// corruption or a version mismatch and is surfaced as ErrInvalidData.
func DeserializeUTXO(data []byte) (UTXO, error) {
	const fixed = hashing.HashLen + 4 + 8 + 8 + 1

	if len(data) < fixed {
		return UTXO{}, fmt.Errorf("%w: utxo record truncated at %d bytes", ErrInvalidData, len(data))
	}

	op, err := OutPointFromKey(data[:hashing.HashLen+4])
	if err != nil {
		return UTXO{}, fmt.Errorf("%w: %s", ErrInvalidData, err)
	}
	cursor := hashing.HashLen + 4

	u := UTXO{OutPoint: op}
	u.Value = binary.LittleEndian.Uint64(data[cursor:])
	cursor += 8
	u.BlockHeight = binary.LittleEndian.Uint64(data[cursor:])
	cursor += 8
	u.IsCoinbase = data[cursor] == 1
	cursor++

	scriptLen, n, err := readVarint(data[cursor:])
	if err != nil {
		return UTXO{}, fmt.Errorf("%w: script length: %s", ErrInvalidData, err)
	}
	cursor += n

	if uint64(len(data)) < uint64(cursor)+scriptLen {
		return UTXO{}, fmt.Errorf("%w: script truncated", ErrInvalidData)
	}
	u.ScriptPubKey = append([]byte(nil), data[cursor:cursor+int(scriptLen)]...)

	return u, nil
}
