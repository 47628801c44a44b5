package resthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

var runOnce sync.Once
var restyClient *resty.Client

// Client shared resty client
func Client() *resty.Client {
	runOnce.Do(func() {
		restyClient = resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(10 * time.Second)
	})

	return restyClient
}

// Request new resty request bound to ctx
func Request(ctx context.Context) *resty.Request {
	return Client().R().SetContext(ctx)
}

// ParseResponse decode the body into obj, turning non-2xx into an error
func ParseResponse(r *resty.Response, obj interface{}) error {
	if !r.IsSuccess() {
		return fmt.Errorf("request failed: %s", r.Status())
	}

	if obj != nil {
		return json.Unmarshal(r.Body(), obj)
	}

	return nil
}
