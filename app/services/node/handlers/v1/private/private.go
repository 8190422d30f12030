// Package private maintains the group of handlers for node to node
// access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/veritascoin/veritas/business/web/errs"
	"github.com/veritascoin/veritas/foundation/blockchain/database"
	"github.com/veritascoin/veritas/foundation/blockchain/hashing"
	"github.com/veritascoin/veritas/foundation/blockchain/state"
	"github.com/veritascoin/veritas/foundation/events"
	"github.com/veritascoin/veritas/foundation/web"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// SubmitBlock accepts a candidate block from a peer, runs it through
// the full confirmation path, and reports the outcome.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit block", "traceid", v.TraceID, "hash", block.Hash().Hex())

	if err := h.State.ProcessBlock(block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Evts.Send("block_confirmed", "block %s confirmed at height %d", block.Hash().Hex(), h.State.GetState().Height)

	resp := struct {
		Status string `json:"status"`
		Hash   string `json:"hash"`
		Height uint64 `json:"height"`
	}{
		Status: "block accepted",
		Hash:   block.Hash().Hex(),
		Height: h.State.GetState().Height,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlockByHash returns a confirmed block by its header hash.
func (h Handlers) BlockByHash(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	hash, err := hashing.FromHex(web.Param(r, "hash"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block hash: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.GetBlock(hash)
	if err != nil {
		if errors.Is(err, database.ErrBlockNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// BlockByHeight returns a confirmed block through the height index.
func (h Handlers) BlockByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	height, err := strconv.ParseUint(web.Param(r, "height"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid height: %w", err), http.StatusBadRequest)
	}

	block, err := h.State.GetBlockByHeight(height)
	if err != nil {
		if errors.Is(err, database.ErrBlockNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}
