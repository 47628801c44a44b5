package auth

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"lendhub/core"
)

// Digest the signed message of a delegated call. The deadline and nonce are
// part of the digest so a captured signature cannot be replayed or extended.
func Digest(call *core.DelegatedCall) []byte {
	h := sha256.New()
	h.Write([]byte(call.Principal))
	h.Write([]byte{0})
	h.Write([]byte(call.Operation))
	h.Write([]byte{0})
	h.Write(call.Payload)

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(call.Nonce))
	binary.BigEndian.PutUint64(buf[8:], uint64(call.Deadline.Unix()))
	h.Write(buf[:])

	return h.Sum(nil)
}

type keyVerifier struct {
	users core.IUserStore
	clock func() time.Time
}

// NewKeyVerifier verifies delegated calls signed by the principal's
// registered ed25519 key.
func NewKeyVerifier(users core.IUserStore) core.IVerifier {
	return &keyVerifier{users: users, clock: time.Now}
}

func (v *keyVerifier) Verify(ctx context.Context, call *core.DelegatedCall) error {
	if v.clock().After(call.Deadline) {
		return core.ErrSignatureExpired
	}

	user, err := v.users.Find(ctx, call.Principal)
	if err != nil {
		return err
	}
	if user.PublicKey == "" {
		return core.ErrInvalidSignature
	}

	if call.Nonce != user.Nonce+1 {
		return core.ErrInvalidNonce
	}

	key, err := base64.StdEncoding.DecodeString(user.PublicKey)
	if err != nil || len(key) != ed25519.PublicKeySize {
		return core.ErrInvalidSignature
	}

	if !ed25519.Verify(key, Digest(call), call.Signature) {
		return core.ErrInvalidSignature
	}

	return v.consumeNonce(ctx, user)
}

func (v *keyVerifier) consumeNonce(ctx context.Context, user *core.User) error {
	user.Nonce++
	if user.ID == 0 {
		return v.users.Save(ctx, nil, user)
	}
	return v.users.Update(ctx, nil, user)
}
