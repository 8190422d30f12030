// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/veritascoin/veritas/app/services/node/handlers/v1/private"
	"github.com/veritascoin/veritas/app/services/node/handlers/v1/public"
	"github.com/veritascoin/veritas/foundation/blockchain/state"
	"github.com/veritascoin/veritas/foundation/events"
	"github.com/veritascoin/veritas/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain/state", pbl.ChainState)
	app.Handle(http.MethodGet, version, "/utxo/stats", pbl.UTXOStats)
	app.Handle(http.MethodGet, version, "/utxo/:txid/:vout", pbl.UTXO)
	app.Handle(http.MethodGet, version, "/mempool", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/mempool/hashes", pbl.MempoolHashes)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/node/block/hash/:hash", prv.BlockByHash)
	app.Handle(http.MethodGet, version, "/node/block/height/:height", prv.BlockByHeight)
	app.Handle(http.MethodPost, version, "/node/block/submit", prv.SubmitBlock)
}
