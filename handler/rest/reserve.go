package rest

import (
	"net/http"

	"lendhub/core"
	"lendhub/handler/param"
	"lendhub/handler/render"
)

type reserveView struct {
	*core.Reserve
	Configs []*core.DynamicConfig `json:"configs"`
}

func allReservesHandler(reserveStr core.IReserveStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reserves, err := reserveStr.All(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, reserves)
	}
}

func spokeReservesHandler(reserveStr core.IReserveStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reserves, err := reserveStr.FindBySpoke(r.Context(), param.String(r, "spoke_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, reserves)
	}
}

func reserveHandler(reserveStr core.IReserveStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		reserveID := param.String(r, "reserve_id")

		reserve, err := reserveStr.Find(ctx, reserveID)
		if err != nil {
			render.Error(w, err)
			return
		}

		configs, err := reserveStr.ListConfigs(ctx, reserveID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, reserveView{Reserve: reserve, Configs: configs})
	}
}
