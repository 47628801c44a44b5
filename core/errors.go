package core

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrorCode int
type ErrorCode int

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000

	// validation: rejected before any state is touched

	// ErrAssetNotFound no asset listed
	ErrAssetNotFound ErrorCode = 100100
	// ErrSpokeNotFound no spoke
	ErrSpokeNotFound ErrorCode = 100101
	// ErrReserveNotFound no reserve
	ErrReserveNotFound ErrorCode = 100102
	// ErrPositionNotFound no position
	ErrPositionNotFound ErrorCode = 100103
	// ErrInvalidAmount zero or negative amount
	ErrInvalidAmount ErrorCode = 100104
	// ErrReservePaused reserve paused
	ErrReservePaused ErrorCode = 100105
	// ErrReserveFrozen reserve frozen
	ErrReserveFrozen ErrorCode = 100106
	// ErrNotBorrowable reserve not borrowable
	ErrNotBorrowable ErrorCode = 100107
	// ErrSpokeAssetInactive spoke not linked to the asset
	ErrSpokeAssetInactive ErrorCode = 100108
	// ErrInvalidConfig invalid config value
	ErrInvalidConfig ErrorCode = 100109
	// ErrInvalidPrice oracle returned no usable price
	ErrInvalidPrice ErrorCode = 100110
	// ErrSpokeMismatch reserves live on different spokes
	ErrSpokeMismatch ErrorCode = 100111

	// economic / capacity: rejected with the exact limiting value

	// ErrInsufficientLiquidity pool cash cannot cover the draw
	ErrInsufficientLiquidity ErrorCode = 100200
	// ErrDrawCapExceeded spoke draw cap would be exceeded
	ErrDrawCapExceeded ErrorCode = 100201
	// ErrSupplyCapExceeded spoke supply cap would be exceeded
	ErrSupplyCapExceeded ErrorCode = 100202
	// ErrInsufficientBalance supplied balance cannot cover the withdraw
	ErrInsufficientBalance ErrorCode = 100203
	// ErrInsufficientFunds vault balance cannot cover the transfer
	ErrInsufficientFunds ErrorCode = 100204

	// risk

	// ErrBelowThreshold health factor would fall below the liquidation threshold
	ErrBelowThreshold ErrorCode = 100300
	// ErrNotLiquidatable health factor is not below the threshold
	ErrNotLiquidatable ErrorCode = 100301

	// authorization

	// ErrOperationForbidden caller lacks the capability
	ErrOperationForbidden ErrorCode = 100400
	// ErrInvalidSignature delegated signature rejected
	ErrInvalidSignature ErrorCode = 100401
	// ErrSignatureExpired deadline passed
	ErrSignatureExpired ErrorCode = 100402
	// ErrInvalidNonce wrong nonce
	ErrInvalidNonce ErrorCode = 100403

	// ErrReentrantCall entity already mid mutation
	ErrReentrantCall ErrorCode = 100500
)

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	return e.String()
}

// LimitError capacity rejection carrying the exact limiting value so the
// caller can retry with a bounded amount.
type LimitError struct {
	Code  ErrorCode
	Limit decimal.Decimal
}

// WithLimit wrap a capacity code with its limiting value
func WithLimit(code ErrorCode, limit decimal.Decimal) *LimitError {
	return &LimitError{Code: code, Limit: limit}
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%d: limit %s", e.Code, e.Limit)
}

// Unwrap expose the code for errors.Is
func (e *LimitError) Unwrap() error {
	return e.Code
}
