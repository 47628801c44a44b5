package rest

import (
	"net/http"

	"lendhub/handler/param"
	"lendhub/handler/render"
	"lendhub/service/account"
)

func accountHandler(accountz account.IAccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, err := accountz.GetAccount(r.Context(), param.String(r, "user_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, acc)
	}
}

func positionsHandler(accountz account.IAccountService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := accountz.ValuePositions(r.Context(), param.String(r, "user_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, items)
	}
}
