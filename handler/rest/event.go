package rest

import (
	"net/http"

	"lendhub/core"
	"lendhub/handler/param"
	"lendhub/handler/render"
)

const maxEventPage = 500

func eventsHandler(eventStr core.IEventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			From  uint64 `json:"from"`
			Limit int    `json:"limit"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Limit <= 0 || params.Limit > maxEventPage {
			params.Limit = maxEventPage
		}

		events, err := eventStr.List(r.Context(), params.From, params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, events)
	}
}

func userEventsHandler(eventStr core.IEventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Limit int `json:"limit"`
		}
		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Limit <= 0 || params.Limit > maxEventPage {
			params.Limit = maxEventPage
		}

		events, err := eventStr.FindByUser(r.Context(), param.String(r, "user_id"), params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, events)
	}
}
