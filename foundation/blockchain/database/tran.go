package database

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// Structural limits a transaction must respect on the wire.
const (
	MaxTransactionSize = 100_000
	MaxInputs          = 1000
	MaxOutputs         = 1000
	MaxScriptSize      = 10_000
)

// CoinbaseVout marks the previous output index of a coinbase input.
const CoinbaseVout = 0xffffffff

// CoinbaseSequence is the sequence a coinbase input must carry.
const CoinbaseSequence = 0xffffffff

// ErrShortBuffer is returned when wire bytes end before a field does.
var ErrShortBuffer = errors.New("buffer too short for encoded value")

// =============================================================================

// OutPoint identifies one output of one transaction. Immutable once
// constructed.
type OutPoint struct {
	TxID hashing.Hash `json:"txid"`
	Vout uint32       `json:"vout"`
}

// String implements the fmt.Stringer interface.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxID, op.Vout)
}

// TxInput represents the spend of a previous output.
type TxInput struct {
	PreviousOutPoint OutPoint `json:"previous_outpoint"`
	ScriptSig        []byte   `json:"script_sig"`
	Sequence         uint32   `json:"sequence"`
}

// TxOutput represents value locked under a script.
type TxOutput struct {
	Value        uint64 `json:"value"`
	ScriptPubKey []byte `json:"script_pubkey"`
}

// Transaction moves value between outputs. Its identity is the double
// SHA-512 of its wire encoding.
type Transaction struct {
	Version  uint32     `json:"version"`
	Inputs   []TxInput  `json:"inputs"`
	Outputs  []TxOutput `json:"outputs"`
	LockTime uint32     `json:"lock_time"`
	ForkID   uint8      `json:"fork_id"`
}

// NewCoinbaseTx constructs the block reward transaction. The script
// signature conventionally carries the block height to keep coinbase
// ids unique across heights.
func NewCoinbaseTx(value uint64, scriptPubKey []byte, height uint64) Transaction {
	heightScript := make([]byte, 8)
	binary.LittleEndian.PutUint64(heightScript, height)

	return Transaction{
		Version: 1,
		Inputs: []TxInput{
			{
				PreviousOutPoint: OutPoint{TxID: hashing.Zero, Vout: CoinbaseVout},
				ScriptSig:        heightScript,
				Sequence:         CoinbaseSequence,
			},
		},
		Outputs: []TxOutput{
			{Value: value, ScriptPubKey: scriptPubKey},
		},
	}
}

// IsCoinbase reports whether the transaction creates new supply: one
// input referencing the zero hash at the coinbase vout.
func (tx Transaction) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}

	in := tx.Inputs[0]
	return in.PreviousOutPoint.TxID.IsZero() &&
		in.PreviousOutPoint.Vout == CoinbaseVout &&
		in.Sequence == CoinbaseSequence
}

// Hash returns the transaction identifier.
func (tx Transaction) Hash() hashing.Hash {
	return hashing.DoubleSum(tx.Serialize())
}

// Size returns the measured wire size in bytes. The mempool accounts
// capacity against this value.
func (tx Transaction) Size() int {
	return len(tx.Serialize())
}

// Serialize encodes the transaction into its wire form: all fixed
// width fields little-endian, all counts and byte strings varint
// prefixed, fork id as the trailing byte.
func (tx Transaction) Serialize() []byte {
	data := make([]byte, 0, 256)

	data = binary.LittleEndian.AppendUint32(data, tx.Version)

	data = appendVarint(data, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		data = append(data, in.PreviousOutPoint.TxID[:]...)
		data = binary.LittleEndian.AppendUint32(data, in.PreviousOutPoint.Vout)
		data = appendVarint(data, uint64(len(in.ScriptSig)))
		data = append(data, in.ScriptSig...)
		data = binary.LittleEndian.AppendUint32(data, in.Sequence)
	}

	data = appendVarint(data, uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		data = binary.LittleEndian.AppendUint64(data, out.Value)
		data = appendVarint(data, uint64(len(out.ScriptPubKey)))
		data = append(data, out.ScriptPubKey...)
	}

	data = binary.LittleEndian.AppendUint32(data, tx.LockTime)
	data = append(data, tx.ForkID)

	return data
}

// DeserializeTx decodes one transaction from the front of the buffer
// and returns it with the number of bytes consumed.
func DeserializeTx(data []byte) (Transaction, int, error) {
	var tx Transaction
	cursor := 0

	if len(data) < 4 {
		return Transaction{}, 0, fmt.Errorf("transaction version: %w", ErrShortBuffer)
	}
	tx.Version = binary.LittleEndian.Uint32(data)
	cursor += 4

	inputCount, n, err := readVarint(data[cursor:])
	if err != nil {
		return Transaction{}, 0, fmt.Errorf("input count: %w", err)
	}
	cursor += n

	if inputCount > MaxInputs {
		return Transaction{}, 0, fmt.Errorf("input count %d exceeds limit", inputCount)
	}

	for i := uint64(0); i < inputCount; i++ {
		in, n, err := deserializeInput(data[cursor:])
		if err != nil {
			return Transaction{}, 0, fmt.Errorf("input[%d]: %w", i, err)
		}
		tx.Inputs = append(tx.Inputs, in)
		cursor += n
	}

	outputCount, n, err := readVarint(data[cursor:])
	if err != nil {
		return Transaction{}, 0, fmt.Errorf("output count: %w", err)
	}
	cursor += n

	if outputCount > MaxOutputs {
		return Transaction{}, 0, fmt.Errorf("output count %d exceeds limit", outputCount)
	}

	for i := uint64(0); i < outputCount; i++ {
		out, n, err := deserializeOutput(data[cursor:])
		if err != nil {
			return Transaction{}, 0, fmt.Errorf("output[%d]: %w", i, err)
		}
		tx.Outputs = append(tx.Outputs, out)
		cursor += n
	}

	if len(data) < cursor+5 {
		return Transaction{}, 0, fmt.Errorf("lock time: %w", ErrShortBuffer)
	}
	tx.LockTime = binary.LittleEndian.Uint32(data[cursor:])
	cursor += 4
	tx.ForkID = data[cursor]
	cursor++

	return tx, cursor, nil
}

func deserializeInput(data []byte) (TxInput, int, error) {
	var in TxInput
	cursor := 0

	if len(data) < hashing.HashLen+4 {
		return TxInput{}, 0, ErrShortBuffer
	}
	copy(in.PreviousOutPoint.TxID[:], data[:hashing.HashLen])
	cursor += hashing.HashLen
	in.PreviousOutPoint.Vout = binary.LittleEndian.Uint32(data[cursor:])
	cursor += 4

	scriptLen, n, err := readVarint(data[cursor:])
	if err != nil {
		return TxInput{}, 0, err
	}
	cursor += n

	if scriptLen > MaxTransactionSize {
		return TxInput{}, 0, fmt.Errorf("script length %d exceeds limit", scriptLen)
	}
	if uint64(len(data)) < uint64(cursor)+scriptLen+4 {
		return TxInput{}, 0, ErrShortBuffer
	}

	in.ScriptSig = append([]byte(nil), data[cursor:cursor+int(scriptLen)]...)
	cursor += int(scriptLen)

	in.Sequence = binary.LittleEndian.Uint32(data[cursor:])
	cursor += 4

	return in, cursor, nil
}

func deserializeOutput(data []byte) (TxOutput, int, error) {
	var out TxOutput
	cursor := 0

	if len(data) < 8 {
		return TxOutput{}, 0, ErrShortBuffer
	}
	out.Value = binary.LittleEndian.Uint64(data)
	cursor += 8

	scriptLen, n, err := readVarint(data[cursor:])
	if err != nil {
		return TxOutput{}, 0, err
	}
	cursor += n

	if scriptLen > MaxTransactionSize {
		return TxOutput{}, 0, fmt.Errorf("script length %d exceeds limit", scriptLen)
	}
	if uint64(len(data)) < uint64(cursor)+scriptLen {
		return TxOutput{}, 0, ErrShortBuffer
	}

	out.ScriptPubKey = append([]byte(nil), data[cursor:cursor+int(scriptLen)]...)
	cursor += int(scriptLen)

	return out, cursor, nil
}

// =============================================================================

// appendVarint writes a value in the compact variable length encoding:
// one byte below 0xfd, otherwise a marker byte followed by 2, 4 or 8
// little-endian bytes.
func appendVarint(data []byte, value uint64) []byte {
	switch {
	case value < 0xfd:
		return append(data, byte(value))
	case value <= 0xffff:
		data = append(data, 0xfd)
		return binary.LittleEndian.AppendUint16(data, uint16(value))
	case value <= 0xffffffff:
		data = append(data, 0xfe)
		return binary.LittleEndian.AppendUint32(data, uint32(value))
	default:
		data = append(data, 0xff)
		return binary.LittleEndian.AppendUint64(data, value)
	}
}

// readVarint decodes a compact variable length integer and returns the
// value with the number of bytes consumed.
func readVarint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrShortBuffer
	}

	switch data[0] {
	case 0xfd:
		if len(data) < 3 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(binary.LittleEndian.Uint16(data[1:])), 3, nil
	case 0xfe:
		if len(data) < 5 {
			return 0, 0, ErrShortBuffer
		}
		return uint64(binary.LittleEndian.Uint32(data[1:])), 5, nil
	case 0xff:
		if len(data) < 9 {
			return 0, 0, ErrShortBuffer
		}
		return binary.LittleEndian.Uint64(data[1:]), 9, nil
	default:
		return uint64(data[0]), 1, nil
	}
}
