package engine

import (
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/id"
	"lendhub/pkg/number"
	"lendhub/service/account"
)

func (s *staging) supply(req *SupplyRequest) error {
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

	shares := number.DivFloor(req.Amount, asset.SupplyIndex)
	if !shares.IsPositive() {
		return core.ErrInvalidAmount
	}

	if link.SupplyCap.IsPositive() {
		supplied := number.MulFloor(link.SuppliedShares.Add(shares), asset.SupplyIndex)
		if supplied.GreaterThan(link.SupplyCap) {
			headroom := number.NonNegative(link.SupplyCap.Sub(number.MulFloor(link.SuppliedShares, asset.SupplyIndex)))
			return core.WithLimit(core.ErrSupplyCapExceeded, headroom)
		}
	}

	pos, err := s.position(reserve.ReserveID, req.OnBehalfOf)
	if err != nil {
		return err
	}

	pos.SuppliedShares = pos.SuppliedShares.Add(shares)
	pos.ConfigVersion = reserve.CurrentVersion
	reserve.SuppliedShares = reserve.SuppliedShares.Add(shares)
	link.SuppliedShares = link.SuppliedShares.Add(shares)
	asset.TotalSuppliedShares = asset.TotalSuppliedShares.Add(shares)
	reserve.LastUpdate = s.now

	// collateral mix may have changed; re-anchor the premium rate
	items, err := s.userItems(reserve.SpokeID, req.OnBehalfOf)
	if err != nil {
		return err
	}
	s.applyPremium(pos, reserve, link, asset, account.RiskPremium(items), decimal.Zero)

	s.markPosition(pos)
	s.markReserve(reserve)
	s.markLink(link)
	s.markAsset(asset)

	s.transferIn(req.Payer, asset.AssetID, req.Amount)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionSupply,
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

func traceID(trace string) string {
	if trace != "" {
		return trace
	}
	return id.GenTraceID()
}
