package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"lendhub/core"
)

// Call one step of a batch; exactly one field set
type Call struct {
	Supply        *SupplyRequest      `json:"supply,omitempty"`
	Withdraw      *WithdrawRequest    `json:"withdraw,omitempty"`
	Borrow        *BorrowRequest      `json:"borrow,omitempty"`
	Repay         *RepayRequest       `json:"repay,omitempty"`
	SetCollateral *CollateralRequest  `json:"set_collateral,omitempty"`
	Liquidation   *LiquidationRequest `json:"liquidation,omitempty"`
}

// CallResult what one batch step produced
type CallResult struct {
	Withdrawn     decimal.Decimal    `json:"withdrawn,omitempty"`
	RepaidBase    decimal.Decimal    `json:"repaid_base,omitempty"`
	RepaidPremium decimal.Decimal    `json:"repaid_premium,omitempty"`
	Liquidation   *LiquidationResult `json:"liquidation,omitempty"`
}

// Multicall runs a batch of actions on one shared staging and commits them
// together. Steps execute in order, each validated against the staged state
// left by its predecessors; the first failure discards the whole batch.
func (e *Engine) Multicall(ctx context.Context, calls []Call) ([]CallResult, error) {
	if len(calls) == 0 {
		return nil, core.ErrInvalidAmount
	}

	results := make([]CallResult, 0, len(calls))
	err := e.run(ctx, func(s *staging) error {
		for _, call := range calls {
			res, err := s.apply(call)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *staging) apply(call Call) (CallResult, error) {
	switch {
	case call.Supply != nil:
		return CallResult{}, s.supply(call.Supply)
	case call.Withdraw != nil:
		actual, err := s.withdraw(call.Withdraw)
		return CallResult{Withdrawn: actual}, err
	case call.Borrow != nil:
		return CallResult{}, s.borrow(call.Borrow)
	case call.Repay != nil:
		base, prem, err := s.repay(call.Repay)
		return CallResult{RepaidBase: base, RepaidPremium: prem}, err
	case call.SetCollateral != nil:
		return CallResult{}, s.setCollateral(call.SetCollateral)
	case call.Liquidation != nil:
		res, err := s.liquidate(call.Liquidation)
		return CallResult{Liquidation: res}, err
	default:
		return CallResult{}, core.ErrInvalidAmount
	}
}
