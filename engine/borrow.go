package engine

import (
	"lendhub/core"
	"lendhub/pkg/number"
	"lendhub/service/account"

	"github.com/shopspring/decimal"
)

func (s *staging) borrow(req *BorrowRequest) error {
	if !req.Amount.IsPositive() || core.IsMaxAmount(req.Amount) {
		return core.ErrInvalidAmount
	}

	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return err
	}
	if reserve.Paused {
		return core.ErrReservePaused
	}
	if reserve.Frozen {
		return core.ErrReserveFrozen
	}
	if !reserve.Borrowable {
		return core.ErrNotBorrowable
	}

	asset, err := s.asset(reserve.AssetID)
	if err != nil {
		return err
	}

	link, err := s.link(reserve.SpokeID, reserve.AssetID)
	if err != nil {
		return err
	}
	if !link.Active {
		return core.ErrSpokeAssetInactive
	}

	if available := asset.AvailableLiquidity(); req.Amount.GreaterThan(available) {
		return core.WithLimit(core.ErrInsufficientLiquidity, available)
	}

	// debt shares round up: rounding favors the pool
	shares := number.DivCeil(req.Amount, asset.BorrowIndex)

	if link.DrawCap.IsPositive() {
		drawn := number.MulCeil(link.BaseDebtShares.Add(shares), asset.BorrowIndex)
		if drawn.GreaterThan(link.DrawCap) {
			headroom := number.NonNegative(link.DrawCap.Sub(number.MulCeil(link.BaseDebtShares, asset.BorrowIndex)))
			return core.WithLimit(core.ErrDrawCapExceeded, headroom)
		}
	}

	pos, err := s.position(reserve.ReserveID, req.OnBehalfOf)
	if err != nil {
		return err
	}

	pos.BaseDebtShares = pos.BaseDebtShares.Add(shares)
	pos.ConfigVersion = reserve.CurrentVersion
	reserve.BaseDebtShares = reserve.BaseDebtShares.Add(shares)
	link.BaseDebtShares = link.BaseDebtShares.Add(shares)
	asset.TotalBaseDebtShares = asset.TotalBaseDebtShares.Add(shares)
	reserve.LastUpdate = s.now

	items, err := s.userItems(reserve.SpokeID, req.OnBehalfOf)
	if err != nil {
		return err
	}

	// debt is valued premium inclusive up to this instant
	if hf := account.HealthFactor(items); hf.LessThan(account.Threshold) {
		return core.ErrBelowThreshold
	}

	s.applyPremium(pos, reserve, link, asset, account.RiskPremium(items), decimal.Zero)

	s.markPosition(pos)
	s.markReserve(reserve)
	s.markLink(link)
	s.markAsset(asset)

	s.transferOut(req.OnBehalfOf, asset.AssetID, req.Amount)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionBorrow,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.OnBehalfOf,
		Amount:    req.Amount,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyShares, shares)
	event.SetExtra(extra)
	s.emit(event)

	return nil
}
