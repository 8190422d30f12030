package database

import (
	"encoding/binary"
	"fmt"

	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/merkle"
)

// MaxBlockSize is the hard cap on a block's serialized size in bytes.
const MaxBlockSize = 1_000_000

// HeaderSize is the fixed wire size of a block header: version(4) +
// prev_hash(64) + merkle_root(64) + timestamp(8) + bits(4) + nonce(4).
const HeaderSize = 148

// =============================================================================

// BlockHeader commits to a transaction set and carries the proof of
// work fields. The block's identity is this header's hash.
type BlockHeader struct {
	Version       uint32       `json:"version"`
	PrevBlockHash hashing.Hash `json:"prev_block_hash"`
	MerkleRoot    hashing.Hash `json:"merkle_root"`
	Timestamp     uint64       `json:"timestamp"`
	Bits          uint32       `json:"bits"`
	Nonce         uint32       `json:"nonce"`
}

// Serialize encodes the header into its fixed 148 byte wire form, all
// integer fields little-endian.
func (bh BlockHeader) Serialize() [HeaderSize]byte {
	var data [HeaderSize]byte

	binary.LittleEndian.PutUint32(data[0:], bh.Version)
	copy(data[4:], bh.PrevBlockHash[:])
	copy(data[68:], bh.MerkleRoot[:])
	binary.LittleEndian.PutUint64(data[132:], bh.Timestamp)
	binary.LittleEndian.PutUint32(data[140:], bh.Bits)
	binary.LittleEndian.PutUint32(data[144:], bh.Nonce)

	return data
}

// Hash returns the block identifier: the double SHA-512 of the wire
// encoded header.
func (bh BlockHeader) Hash() hashing.Hash {
	data := bh.Serialize()
	return hashing.DoubleSum(data[:])
}

// DeserializeHeader decodes a header from its fixed wire form.
func DeserializeHeader(data []byte) (BlockHeader, error) {
	if len(data) < HeaderSize {
		return BlockHeader{}, fmt.Errorf("block header: %w", ErrShortBuffer)
	}

	var bh BlockHeader
	bh.Version = binary.LittleEndian.Uint32(data[0:])
	copy(bh.PrevBlockHash[:], data[4:68])
	copy(bh.MerkleRoot[:], data[68:132])
	bh.Timestamp = binary.LittleEndian.Uint64(data[132:])
	bh.Bits = binary.LittleEndian.Uint32(data[140:])
	bh.Nonce = binary.LittleEndian.Uint32(data[144:])

	return bh, nil
}

// =============================================================================

// Block groups an ordered transaction set under a proof of work header.
// The first transaction must be the coinbase.
type Block struct {
	Header       BlockHeader   `json:"header"`
	Transactions []Transaction `json:"transactions"`
}

// NewBlock constructs a block over the specified transactions, computing
// the merkle root commitment. The nonce starts at zero; mining adjusts
// it until the header hash meets the target.
func NewBlock(version uint32, prevBlockHash hashing.Hash, timestamp uint64, bits uint32, txs []Transaction) (Block, error) {
	txIDs := make([]hashing.Hash, len(txs))
	for i, tx := range txs {
		txIDs[i] = tx.Hash()
	}

	root, err := merkle.ComputeRoot(txIDs)
	if err != nil {
		return Block{}, fmt.Errorf("computing merkle root: %w", err)
	}

	b := Block{
		Header: BlockHeader{
			Version:       version,
			PrevBlockHash: prevBlockHash,
			MerkleRoot:    root,
			Timestamp:     timestamp,
			Bits:          bits,
		},
		Transactions: txs,
	}

	return b, nil
}

// Hash returns the block identifier.
func (b Block) Hash() hashing.Hash {
	return b.Header.Hash()
}

// MerkleRoot recomputes the root over the block's own transaction list.
func (b Block) MerkleRoot() (hashing.Hash, error) {
	txIDs := make([]hashing.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		txIDs[i] = tx.Hash()
	}

	return merkle.ComputeRoot(txIDs)
}

// Serialize encodes the block: wire header, varint transaction count,
// then each transaction's wire form.
func (b Block) Serialize() []byte {
	header := b.Header.Serialize()

	data := make([]byte, 0, HeaderSize+256*len(b.Transactions))
	data = append(data, header[:]...)
	data = appendVarint(data, uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		data = append(data, tx.Serialize()...)
	}

	return data
}

// Size returns the measured wire size in bytes.
func (b Block) Size() int {
	return len(b.Serialize())
}

// DeserializeBlock decodes a full block from its wire form.
func DeserializeBlock(data []byte) (Block, error) {
	header, err := DeserializeHeader(data)
	if err != nil {
		return Block{}, err
	}
	cursor := HeaderSize

	count, n, err := readVarint(data[cursor:])
	if err != nil {
		return Block{}, fmt.Errorf("transaction count: %w", err)
	}
	cursor += n

	b := Block{Header: header}
	for i := uint64(0); i < count; i++ {
		tx, n, err := DeserializeTx(data[cursor:])
		if err != nil {
			return Block{}, fmt.Errorf("transaction[%d]: %w", i, err)
		}
		b.Transactions = append(b.Transactions, tx)
		cursor += n
	}

	return b, nil
}
