// Package engine executes ledger actions. Every action stages its writes on
// copies of the touched entities and commits them together in one database
// transaction; a failure at any point discards the whole staging, so a
// rejected action leaves no observable mutation. Actions are strictly
// serialized and guarded against re-entrant invocation per entity.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"

	"lendhub/core"
)

// TxRunner commits staged writes atomically. *db.DB satisfies it; tests use
// an in-memory runner.
type TxRunner interface {
	Tx(fn func(tx *db.DB) error) error
}

// Engine the ledger action executor
type Engine struct {
	db TxRunner

	assets    core.IAssetStore
	spokes    core.ISpokeStore
	links     core.ISpokeAssetStore
	reserves  core.IReserveStore
	positions core.IPositionStore
	events    core.IEventStore

	assetz   core.IAssetService
	oracle   core.IPriceOracleService
	transfer core.ITransferService
	authz    core.IAuthorizer

	mu   sync.Mutex
	busy map[string]bool

	clock func() time.Time
}

// New new engine
func New(
	db TxRunner,
	assets core.IAssetStore,
	spokes core.ISpokeStore,
	links core.ISpokeAssetStore,
	reserves core.IReserveStore,
	positions core.IPositionStore,
	events core.IEventStore,
	assetz core.IAssetService,
	oracle core.IPriceOracleService,
	transfer core.ITransferService,
	authz core.IAuthorizer,
) *Engine {
	return &Engine{
		db:        db,
		assets:    assets,
		spokes:    spokes,
		links:     links,
		reserves:  reserves,
		positions: positions,
		events:    events,
		assetz:    assetz,
		oracle:    oracle,
		transfer:  transfer,
		authz:     authz,
		busy:      make(map[string]bool),
		clock:     time.Now,
	}
}

// SupplyRequest supply amount into a reserve for OnBehalfOf
type SupplyRequest struct {
	ReserveID  string          `json:"reserve_id"`
	Payer      string          `json:"payer"`
	OnBehalfOf string          `json:"on_behalf_of"`
	Amount     decimal.Decimal `json:"amount"`
	TraceID    string          `json:"trace_id,omitempty"`
}

// WithdrawRequest withdraw amount (or MaxAmount for everything)
type WithdrawRequest struct {
	ReserveID  string          `json:"reserve_id"`
	OnBehalfOf string          `json:"on_behalf_of"`
	Amount     decimal.Decimal `json:"amount"`
	TraceID    string          `json:"trace_id,omitempty"`
}

// BorrowRequest draw amount against OnBehalfOf's collateral
type BorrowRequest struct {
	ReserveID  string          `json:"reserve_id"`
	OnBehalfOf string          `json:"on_behalf_of"`
	Amount     decimal.Decimal `json:"amount"`
	TraceID    string          `json:"trace_id,omitempty"`
}

// RepayRequest repay amount (or MaxAmount for the full debt)
type RepayRequest struct {
	ReserveID string          `json:"reserve_id"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	TraceID   string          `json:"trace_id,omitempty"`
}

// CollateralRequest flag or unflag a reserve as collateral
type CollateralRequest struct {
	ReserveID string `json:"reserve_id"`
	UserID    string `json:"user_id"`
	Enabled   bool   `json:"enabled"`
	TraceID   string `json:"trace_id,omitempty"`
}

// LiquidationRequest close out part of an unhealthy position
type LiquidationRequest struct {
	CollateralReserveID string          `json:"collateral_reserve_id"`
	DebtReserveID       string          `json:"debt_reserve_id"`
	UserID              string          `json:"user_id"`
	Liquidator          string          `json:"liquidator"`
	MaxDebtToCover      decimal.Decimal `json:"max_debt_to_cover"`
	TraceID             string          `json:"trace_id,omitempty"`
}

// LiquidationResult what a liquidation call moved
type LiquidationResult struct {
	RepaidBase      decimal.Decimal `json:"repaid_base"`
	RepaidPremium   decimal.Decimal `json:"repaid_premium"`
	SeizedAmount    decimal.Decimal `json:"seized_amount"`
	SeizedShares    decimal.Decimal `json:"seized_shares"`
	FeeShares       decimal.Decimal `json:"fee_shares"`
	Bonus           decimal.Decimal `json:"bonus"`
	Deficit         decimal.Decimal `json:"deficit"`
	HealthFactor    decimal.Decimal `json:"health_factor"`
	NewHealthFactor decimal.Decimal `json:"new_health_factor"`
}

// run executes one staged action and commits it
func (e *Engine) run(ctx context.Context, fn func(s *staging) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.newStaging(ctx)
	defer s.release()

	if err := fn(s); err != nil {
		return err
	}
	return s.commit()
}

// Supply add liquidity to a reserve
func (e *Engine) Supply(ctx context.Context, req *SupplyRequest) error {
	return e.run(ctx, func(s *staging) error { return s.supply(req) })
}

// Withdraw remove liquidity, returns the amount actually paid out
func (e *Engine) Withdraw(ctx context.Context, req *WithdrawRequest) (decimal.Decimal, error) {
	var actual decimal.Decimal
	err := e.run(ctx, func(s *staging) error {
		var err error
		actual, err = s.withdraw(req)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return actual, nil
}

// Borrow draw liquidity against collateral
func (e *Engine) Borrow(ctx context.Context, req *BorrowRequest) error {
	return e.run(ctx, func(s *staging) error { return s.borrow(req) })
}

// Repay restore debt, returns base and premium restored
func (e *Engine) Repay(ctx context.Context, req *RepayRequest) (decimal.Decimal, decimal.Decimal, error) {
	var base, prem decimal.Decimal
	err := e.run(ctx, func(s *staging) error {
		var err error
		base, prem, err = s.repay(req)
		return err
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return base, prem, nil
}

// SetUsingAsCollateral flag or unflag a position as collateral
func (e *Engine) SetUsingAsCollateral(ctx context.Context, req *CollateralRequest) error {
	return e.run(ctx, func(s *staging) error { return s.setCollateral(req) })
}

// LiquidationCall close out an unhealthy position
func (e *Engine) LiquidationCall(ctx context.Context, req *LiquidationRequest) (*LiquidationResult, error) {
	var res *LiquidationResult
	err := e.run(ctx, func(s *staging) error {
		var err error
		res, err = s.liquidate(req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
