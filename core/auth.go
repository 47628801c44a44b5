package core

import (
	"context"
	"time"
)

// user operations submitted as delegated calls
const (
	OpSupply          = "supply"
	OpWithdraw        = "withdraw"
	OpBorrow          = "borrow"
	OpRepay           = "repay"
	OpSetCollateral   = "set_using_as_collateral"
	OpLiquidationCall = "liquidation_call"
	OpMulticall       = "multicall"
)

// admin operations guarded by the authorizer
const (
	OpAddAsset                = "add_asset"
	OpAddSpoke                = "add_spoke"
	OpSetSpokeAsset           = "set_spoke_asset"
	OpAddReserve              = "add_reserve"
	OpUpdateReserveConfig     = "update_reserve_config"
	OpUpdateDynamicConfig     = "update_dynamic_config"
	OpUpdateLiquidationConfig = "update_liquidation_config"
	OpUpdateLiquidityPremium  = "update_liquidity_premium"
)

// IAuthorizer capability check consulted before any admin mutation
type IAuthorizer interface {
	Allowed(ctx context.Context, caller, operation string) bool
}

// DelegatedCall an action authorized off line by its principal and
// submitted by someone else
type DelegatedCall struct {
	Principal string    `json:"principal"`
	Operation string    `json:"operation"`
	Payload   []byte    `json:"payload"`
	Nonce     int64     `json:"nonce"`
	Deadline  time.Time `json:"deadline"`
	Signature []byte    `json:"signature"`
}

// IVerifier validates a delegated call. Implementations: direct signature
// recovery for plain keypairs, callback verification for programmatic
// principals. Verification consumes the principal's next nonce.
type IVerifier interface {
	Verify(ctx context.Context, call *DelegatedCall) error
}
