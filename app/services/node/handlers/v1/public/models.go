package public

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
)

// newTx is the request model for submitting a transaction.
type newTx struct {
	Version  uint32        `json:"version" validate:"required,gte=1"`
	Inputs   []newTxInput  `json:"inputs" validate:"required,min=1,dive"`
	Outputs  []newTxOutput `json:"outputs" validate:"required,min=1,dive"`
	LockTime uint32        `json:"lock_time"`
	ForkID   uint8         `json:"fork_id"`
}

type newTxInput struct {
	TxID      string `json:"txid" validate:"required"`
	Vout      uint32 `json:"vout"`
	ScriptSig string `json:"script_sig"`
	Sequence  uint32 `json:"sequence"`
}

type newTxOutput struct {
	Value        uint64 `json:"value" validate:"required,gt=0"`
	ScriptPubKey string `json:"script_pubkey" validate:"required"`
}

// toDatabaseTx converts the request model into a transaction value.
func toDatabaseTx(model newTx) (database.Transaction, error) {
	tx := database.Transaction{
		Version:  model.Version,
		LockTime: model.LockTime,
		ForkID:   model.ForkID,
	}

	for i, in := range model.Inputs {
		txID, err := hashing.FromHex(in.TxID)
		if err != nil {
			return database.Transaction{}, fmt.Errorf("input[%d] txid: %w", i, err)
		}

		var scriptSig []byte
		if in.ScriptSig != "" {
			if scriptSig, err = hexutil.Decode(in.ScriptSig); err != nil {
				return database.Transaction{}, fmt.Errorf("input[%d] script sig: %w", i, err)
			}
		}

		tx.Inputs = append(tx.Inputs, database.TxInput{
			PreviousOutPoint: database.OutPoint{TxID: txID, Vout: in.Vout},
			ScriptSig:        scriptSig,
			Sequence:         in.Sequence,
		})
	}

	for i, out := range model.Outputs {
		scriptPubKey, err := hexutil.Decode(out.ScriptPubKey)
		if err != nil {
			return database.Transaction{}, fmt.Errorf("output[%d] script pubkey: %w", i, err)
		}

		tx.Outputs = append(tx.Outputs, database.TxOutput{
			Value:        out.Value,
			ScriptPubKey: scriptPubKey,
		})
	}

	return tx, nil
}

// tx is the response model for a pooled or confirmed transaction.
type tx struct {
	TxID     string `json:"txid"`
	Version  uint32 `json:"version"`
	Inputs   int    `json:"inputs"`
	Outputs  int    `json:"outputs"`
	Value    uint64 `json:"value"`
	Size     int    `json:"size"`
	Coinbase bool   `json:"coinbase"`
}

func toTxModel(dbTx database.Transaction) tx {
	var value uint64
	for _, out := range dbTx.Outputs {
		value += out.Value
	}

	return tx{
		TxID:     dbTx.Hash().Hex(),
		Version:  dbTx.Version,
		Inputs:   len(dbTx.Inputs),
		Outputs:  len(dbTx.Outputs),
		Value:    value,
		Size:     dbTx.Size(),
		Coinbase: dbTx.IsCoinbase(),
	}
}
