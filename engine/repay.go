package engine

import (
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/number"
	"lendhub/service/account"
)

func (s *staging) repay(req *RepayRequest) (decimal.Decimal, decimal.Decimal, error) {
	if !req.Amount.IsPositive() {
		return decimal.Zero, decimal.Zero, core.ErrInvalidAmount
	}

	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if reserve.Paused {
		return decimal.Zero, decimal.Zero, core.ErrReservePaused
	}

	asset, err := s.asset(reserve.AssetID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	link, err := s.link(reserve.SpokeID, reserve.AssetID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	pos, err := s.position(reserve.ReserveID, req.UserID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	baseDebt := pos.BaseDebtAssets(asset.BorrowIndex)
	premiumDebt := pos.PremiumDebtAssets(asset.BorrowIndex)
	if !baseDebt.Add(premiumDebt).IsPositive() {
		return decimal.Zero, decimal.Zero, core.ErrPositionNotFound
	}

	amount := req.Amount
	if core.IsMaxAmount(amount) {
		amount = baseDebt.Add(premiumDebt)
	}

	// base first, then premium
	payBase := decimal.Min(amount, baseDebt)
	payPremium := decimal.Min(amount.Sub(payBase), premiumDebt)

	var shares decimal.Decimal
	if payBase.Equal(baseDebt) {
		shares = pos.BaseDebtShares
	} else {
		// burn shares rounded down so the pool never loses to rounding
		shares = number.DivFloor(payBase, asset.BorrowIndex)
	}

	pos.BaseDebtShares = pos.BaseDebtShares.Sub(shares)
	pos.ConfigVersion = reserve.CurrentVersion
	reserve.BaseDebtShares = reserve.BaseDebtShares.Sub(shares)
	link.BaseDebtShares = link.BaseDebtShares.Sub(shares)
	asset.TotalBaseDebtShares = asset.TotalBaseDebtShares.Sub(shares)
	reserve.LastUpdate = s.now

	items, err := s.userItems(reserve.SpokeID, req.UserID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	s.applyPremium(pos, reserve, link, asset, account.RiskPremium(items), payPremium)

	s.markPosition(pos)
	s.markReserve(reserve)
	s.markLink(link)
	s.markAsset(asset)

	actual := payBase.Add(payPremium)
	s.transferIn(req.UserID, asset.AssetID, actual)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionRepay,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.UserID,
		Amount:    actual,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyShares, shares)
	extra.Put(core.EventKeyBaseRestored, payBase)
	extra.Put(core.EventKeyPremiumRestored, payPremium)
	event.SetExtra(extra)
	s.emit(event)

	return payBase, payPremium, nil
}
