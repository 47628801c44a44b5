package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"lendhub/core"
	"lendhub/pkg/resthttp"
)

type callbackVerifier struct {
	users    core.IUserStore
	endpoint string
	clock    func() time.Time
}

// NewCallbackVerifier verifies delegated calls for programmatic principals
// that cannot produce a signature themselves: the call is posted back to the
// verification endpoint, which answers whether the principal approves it.
func NewCallbackVerifier(users core.IUserStore, endpoint string) core.IVerifier {
	return &callbackVerifier{users: users, endpoint: endpoint, clock: time.Now}
}

type callbackRequest struct {
	Principal string `json:"principal"`
	Operation string `json:"operation"`
	Payload   []byte `json:"payload"`
	Nonce     int64  `json:"nonce"`
	Deadline  int64  `json:"deadline"`
	Digest    string `json:"digest"`
}

type callbackResponse struct {
	Valid bool `json:"valid"`
}

func (v *callbackVerifier) Verify(ctx context.Context, call *core.DelegatedCall) error {
	if v.clock().After(call.Deadline) {
		return core.ErrSignatureExpired
	}

	user, err := v.users.Find(ctx, call.Principal)
	if err != nil {
		return err
	}

	if call.Nonce != user.Nonce+1 {
		return core.ErrInvalidNonce
	}

	body := callbackRequest{
		Principal: call.Principal,
		Operation: call.Operation,
		Payload:   call.Payload,
		Nonce:     call.Nonce,
		Deadline:  call.Deadline.Unix(),
		Digest:    base64.StdEncoding.EncodeToString(Digest(call)),
	}

	resp, err := resthttp.Request(ctx).SetBody(body).Post(fmt.Sprintf("%s/verify", v.endpoint))
	if err != nil {
		return err
	}

	var result callbackResponse
	if err := resthttp.ParseResponse(resp, &result); err != nil {
		return err
	}
	if !result.Valid {
		return core.ErrInvalidSignature
	}

	user.Nonce++
	if user.ID == 0 {
		return v.users.Save(ctx, nil, user)
	}
	return v.users.Update(ctx, nil, user)
}
