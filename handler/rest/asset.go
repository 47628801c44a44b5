package rest

import (
	"net/http"

	"lendhub/core"
	"lendhub/handler/param"
	"lendhub/handler/render"
)

func allAssetsHandler(assetStr core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := assetStr.All(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, assets)
	}
}

func assetHandler(assetStr core.IAssetStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := assetStr.Find(r.Context(), param.String(r, "asset_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, asset)
	}
}

func allSpokesHandler(spokeStr core.ISpokeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spokes, err := spokeStr.All(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, spokes)
	}
}
