// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/veritascoin/veritas/business/sys/validate"
	"github.com/veritascoin/veritas/business/web/errs"
	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/mempool"
	"github.com/veritascoin/veritas/foundation/blockchain/state"
	"github.com/veritascoin/veritas/foundation/events"
	"github.com/veritascoin/veritas/foundation/web"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(event); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// ChainState returns a snapshot of the chain state.
func (h Handlers) ChainState(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cs := h.State.GetState()

	resp := struct {
		BestBlockHash   string  `json:"best_block_hash"`
		Height          uint64  `json:"height"`
		TotalWork       string  `json:"total_work"`
		UTXOSetHash     string  `json:"utxo_set_hash"`
		TotalSupply     uint64  `json:"total_supply"`
		NetworkHashrate float64 `json:"network_hashrate"`
		LastUpdated     uint64  `json:"last_updated"`
	}{
		BestBlockHash:   cs.BestBlockHash.Hex(),
		Height:          cs.Height,
		TotalWork:       cs.TotalWork.String(),
		UTXOSetHash:     cs.UTXOSetHash.Hex(),
		TotalSupply:     cs.TotalSupply,
		NetworkHashrate: cs.NetworkHashrate,
		LastUpdated:     cs.LastUpdated,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UTXO returns a single unspent output by outpoint.
func (h Handlers) UTXO(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txID, err := hashing.FromHex(web.Param(r, "txid"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid txid: %w", err), http.StatusBadRequest)
	}

	vout, err := strconv.ParseUint(web.Param(r, "vout"), 10, 32)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid vout: %w", err), http.StatusBadRequest)
	}

	utxo, exists, err := h.State.GetUTXO(database.OutPoint{TxID: txID, Vout: uint32(vout)})
	if err != nil {
		return err
	}
	if !exists {
		return errs.NewTrusted(errors.New("utxo not found"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, utxo, http.StatusOK)
}

// UTXOStats returns aggregate statistics over the unspent set.
func (h Handlers) UTXOStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.UTXOStats()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, stats, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.MempoolTransactions()

	trans := make([]tx, len(pool))
	for i, tran := range pool {
		trans[i] = toTxModel(tran)
	}

	resp := struct {
		Stats mempool.Stats `json:"stats"`
		Txs   []tx          `json:"txs"`
	}{
		Stats: h.State.MempoolStats(),
		Txs:   trans,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// MempoolHashes returns the pending transaction ids for inventory.
func (h Handlers) MempoolHashes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hashes := h.State.MempoolHashes()

	resp := make([]string, len(hashes))
	for i, hash := range hashes {
		resp[i] = hash.Hex()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var model newTx
	if err := web.Decode(r, &model); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(model); err != nil {
		return err
	}

	tran, err := toDatabaseTx(model)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit transaction", "traceid", v.TraceID, "txid", tran.Hash().Hex())

	if err := h.State.SubmitTransaction(tran); err != nil {
		switch {
		case errors.Is(err, mempool.ErrMempoolFull):
			return errs.NewTrusted(err, http.StatusTooManyRequests)
		case errors.Is(err, mempool.ErrTxExists):
			return errs.NewTrusted(err, http.StatusConflict)
		default:
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	resp := struct {
		Status string `json:"status"`
		TxID   string `json:"txid"`
	}{
		Status: "transaction added to mempool",
		TxID:   tran.Hash().Hex(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
