// Package rest exposes the read surface of the ledger and the single
// submission endpoint for delegated calls.
package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"lendhub/core"
	"lendhub/engine"
	"lendhub/handler/render"
	"lendhub/service/account"
)

// Handle handle rest api request
func Handle(
	assetStr core.IAssetStore,
	spokeStr core.ISpokeStore,
	reserveStr core.IReserveStore,
	eventStr core.IEventStore,
	accountz account.IAccountService,
	verifier core.IVerifier,
	eng *engine.Engine,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/assets", allAssetsHandler(assetStr))
	router.Get("/assets/{asset_id}", assetHandler(assetStr))
	router.Get("/spokes", allSpokesHandler(spokeStr))
	router.Get("/spokes/{spoke_id}/reserves", spokeReservesHandler(reserveStr))
	router.Get("/reserves", allReservesHandler(reserveStr))
	router.Get("/reserves/{reserve_id}", reserveHandler(reserveStr))
	router.Get("/accounts/{user_id}", accountHandler(accountz))
	router.Get("/accounts/{user_id}/positions", positionsHandler(accountz))
	router.Get("/accounts/{user_id}/events", userEventsHandler(eventStr))
	router.Get("/events", eventsHandler(eventStr))
	router.Post("/calls", callsHandler(verifier, eng))

	return router
}
