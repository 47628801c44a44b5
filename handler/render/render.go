package render

import (
	"encoding/json"
	"errors"
	"net/http"

	"lendhub/core"
)

type H map[string]interface{}

// JSON render with json
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(v)
}

// Error write err with the http status its code maps to
func Error(w http.ResponseWriter, err error) {
	code := core.ErrUnknown

	var limitErr *core.LimitError
	if errors.As(err, &limitErr) {
		writeError(w, http.StatusBadRequest, H{
			"code":  limitErr.Code,
			"msg":   err.Error(),
			"limit": limitErr.Limit,
		})
		return
	}

	var ec core.ErrorCode
	if errors.As(err, &ec) {
		code = ec
	}

	writeError(w, statusOf(code), H{"code": code, "msg": err.Error()})
}

// BadRequest bad request error
func BadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, H{"code": core.ErrUnknown, "msg": err.Error()})
}

// NotFoundRequest not found request error
func NotFoundRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusNotFound, H{"code": core.ErrUnknown, "msg": err.Error()})
}

func writeError(w http.ResponseWriter, status int, body H) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusOf(code core.ErrorCode) int {
	switch code {
	case core.ErrAssetNotFound,
		core.ErrSpokeNotFound,
		core.ErrReserveNotFound,
		core.ErrPositionNotFound:
		return http.StatusNotFound
	case core.ErrInvalidSignature,
		core.ErrSignatureExpired,
		core.ErrInvalidNonce:
		return http.StatusUnauthorized
	case core.ErrOperationForbidden:
		return http.StatusForbidden
	case core.ErrUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
