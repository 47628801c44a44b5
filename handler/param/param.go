package param

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi"
	"github.com/gorilla/schema"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	return d
}()

// Binding fill v from the request: the json body for mutating methods,
// the query string otherwise. Struct valid tags are enforced either way.
func Binding(r *http.Request, v interface{}) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		if err := decoder.Decode(v, r.URL.Query()); err != nil {
			return err
		}
	default:
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return err
		}
	}

	if _, err := govalidator.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// String read a route param, falling back to the query string
func String(r *http.Request, key string) string {
	if v := chi.URLParam(r, key); v != "" {
		return v
	}

	return r.URL.Query().Get(key)
}
