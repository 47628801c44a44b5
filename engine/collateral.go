package engine

import (
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/service/account"
)

func (s *staging) setCollateral(req *CollateralRequest) error {
	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return err
	}
	if reserve.Paused {
		return core.ErrReservePaused
	}

	asset, err := s.asset(reserve.AssetID)
	if err != nil {
		return err
	}

	link, err := s.link(reserve.SpokeID, reserve.AssetID)
	if err != nil {
		return err
	}

	pos, err := s.position(reserve.ReserveID, req.UserID)
	if err != nil {
		return err
	}
	if pos.ID == 0 && pos.SuppliedShares.IsZero() && pos.BaseDebtShares.IsZero() {
		return core.ErrPositionNotFound
	}

	if pos.UsingAsCollateral == req.Enabled {
		return nil
	}

	pos.UsingAsCollateral = req.Enabled
	pos.ConfigVersion = reserve.CurrentVersion

	items, err := s.userItems(reserve.SpokeID, req.UserID)
	if err != nil {
		return err
	}

	// turning collateral off must not leave existing debt uncovered
	if !req.Enabled {
		if hf := account.HealthFactor(items); hf.LessThan(account.Threshold) {
			return core.ErrBelowThreshold
		}
	}

	s.applyPremium(pos, reserve, link, asset, account.RiskPremium(items), decimal.Zero)

	s.markPosition(pos)
	s.markReserve(reserve)
	s.markLink(link)
	s.markAsset(asset)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionSetCollateral,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.UserID,
		Amount:    decimal.Zero,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyEnabled, req.Enabled)
	event.SetExtra(extra)
	s.emit(event)

	return nil
}
