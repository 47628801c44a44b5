package engine

import (
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/number"
	"lendhub/service/account"
)

func (s *staging) withdraw(req *WithdrawRequest) (decimal.Decimal, error) {
	if !req.Amount.IsPositive() {
		return decimal.Zero, core.ErrInvalidAmount
	}

	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return decimal.Zero, err
	}
	if reserve.Paused {
		return decimal.Zero, core.ErrReservePaused
	}

	asset, err := s.asset(reserve.AssetID)
	if err != nil {
		return decimal.Zero, err
	}

	link, err := s.link(reserve.SpokeID, reserve.AssetID)
	if err != nil {
		return decimal.Zero, err
	}

	pos, err := s.position(reserve.ReserveID, req.OnBehalfOf)
	if err != nil {
		return decimal.Zero, err
	}
	if pos.ID == 0 && pos.SuppliedShares.IsZero() {
		return decimal.Zero, core.ErrPositionNotFound
	}

	var shares, actual decimal.Decimal
	if core.IsMaxAmount(req.Amount) {
		shares = pos.SuppliedShares
		actual = number.MulFloor(shares, asset.SupplyIndex)
	} else {
		shares = number.DivCeil(req.Amount, asset.SupplyIndex)
		actual = req.Amount
		if shares.GreaterThan(pos.SuppliedShares) {
			limit := pos.SuppliedAssets(asset.SupplyIndex)
			return decimal.Zero, core.WithLimit(core.ErrInsufficientBalance, limit)
		}
	}
	if !actual.IsPositive() {
		return decimal.Zero, core.ErrInvalidAmount
	}

	if available := asset.AvailableLiquidity(); actual.GreaterThan(available) {
		return decimal.Zero, core.WithLimit(core.ErrInsufficientLiquidity, available)
	}

	pos.SuppliedShares = pos.SuppliedShares.Sub(shares)
	pos.ConfigVersion = reserve.CurrentVersion
	reserve.SuppliedShares = reserve.SuppliedShares.Sub(shares)
	link.SuppliedShares = link.SuppliedShares.Sub(shares)
	asset.TotalSuppliedShares = asset.TotalSuppliedShares.Sub(shares)
	reserve.LastUpdate = s.now

	items, err := s.userItems(reserve.SpokeID, req.OnBehalfOf)
	if err != nil {
		return decimal.Zero, err
	}

	// removing flagged collateral must not leave existing debt uncovered
	if pos.UsingAsCollateral {
		if hf := account.HealthFactor(items); hf.LessThan(account.Threshold) {
			return decimal.Zero, core.ErrBelowThreshold
		}
	}

	s.applyPremium(pos, reserve, link, asset, account.RiskPremium(items), decimal.Zero)

	s.markPosition(pos)
	s.markReserve(reserve)
	s.markLink(link)
	s.markAsset(asset)

	s.transferOut(req.OnBehalfOf, asset.AssetID, actual)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionWithdraw,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.OnBehalfOf,
		Amount:    actual,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyShares, shares)
	event.SetExtra(extra)
	s.emit(event)

	return actual, nil
}
