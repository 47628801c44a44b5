package engine

import (
	foxuuid "github.com/fox-one/pkg/uuid"
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/number"
	"lendhub/service/account"
)

var one = decimal.New(1, 0)

// liquidationBonus interpolates between the config's min and max bonus by how
// far below the threshold the account has fallen.
func liquidationBonus(cfg *core.DynamicConfig, spoke *core.Spoke, hf decimal.Decimal) decimal.Decimal {
	span := one.Sub(spoke.HealthFactorForMaxBonus)

	norm := one
	if span.IsPositive() {
		norm = one.Sub(hf).DivRound(span, number.WorkPrecision)
		if norm.GreaterThan(one) {
			norm = one
		} else if norm.IsNegative() {
			norm = decimal.Zero
		}
	}

	bonus := cfg.MinLiquidationBonus.Add(
		cfg.MaxLiquidationBonus.Sub(cfg.MinLiquidationBonus).
			Mul(norm).Mul(spoke.BonusGrowthFactor),
	).Truncate(number.WorkPrecision)

	return decimal.Min(cfg.MaxLiquidationBonus, bonus)
}

func (s *staging) liquidate(req *LiquidationRequest) (*LiquidationResult, error) {
	if !req.MaxDebtToCover.IsPositive() {
		return nil, core.ErrInvalidAmount
	}

	debtReserve, err := s.reserve(req.DebtReserveID)
	if err != nil {
		return nil, err
	}
	colReserve, err := s.reserve(req.CollateralReserveID)
	if err != nil {
		return nil, err
	}
	if debtReserve.SpokeID != colReserve.SpokeID {
		return nil, core.ErrSpokeMismatch
	}
	if debtReserve.Paused || colReserve.Paused {
		return nil, core.ErrReservePaused
	}

	spoke, err := s.spoke(debtReserve.SpokeID)
	if err != nil {
		return nil, err
	}

	debtAsset, err := s.asset(debtReserve.AssetID)
	if err != nil {
		return nil, err
	}
	colAsset, err := s.asset(colReserve.AssetID)
	if err != nil {
		return nil, err
	}

	debtLink, err := s.link(debtReserve.SpokeID, debtReserve.AssetID)
	if err != nil {
		return nil, err
	}

	debtPos, err := s.position(debtReserve.ReserveID, req.UserID)
	if err != nil {
		return nil, err
	}
	colPos, err := s.position(colReserve.ReserveID, req.UserID)
	if err != nil {
		return nil, err
	}
	if !colPos.UsingAsCollateral || !colPos.SuppliedShares.IsPositive() {
		return nil, core.ErrPositionNotFound
	}

	baseDebt := debtPos.BaseDebtAssets(debtAsset.BorrowIndex)
	premiumDebt := debtPos.PremiumDebtAssets(debtAsset.BorrowIndex)
	debtOwed := baseDebt.Add(premiumDebt)
	if !debtOwed.IsPositive() {
		return nil, core.ErrPositionNotFound
	}

	items, err := s.userItems(spoke.SpokeID, req.UserID)
	if err != nil {
		return nil, err
	}

	hf := account.HealthFactor(items)
	if hf.GreaterThanOrEqual(account.Threshold) {
		return nil, core.ErrNotLiquidatable
	}

	// bonus, collateral factor and fee all resolve through the victim's
	// pinned config; liquidation never advances the pin
	colCfg, err := s.config(colReserve.ReserveID, colPos.ConfigVersion)
	if err != nil {
		return nil, err
	}

	bonus := liquidationBonus(colCfg, spoke, hf)
	grossFactor := one.Add(bonus)

	debtPrice, err := s.price(debtAsset.AssetID)
	if err != nil {
		return nil, err
	}
	colPrice, err := s.price(colAsset.AssetID)
	if err != nil {
		return nil, err
	}

	repayCap := debtOwed
	if spoke.CloseFactor.LessThan(one) {
		repayCap = number.MulFloor(debtOwed, spoke.CloseFactor)
	} else {
		// target mode: repay exactly enough to lift the account back to
		// the target health factor
		t := spoke.TargetHealthFactor
		denom := t.Sub(grossFactor.Mul(colCfg.CollateralFactor))
		if denom.IsPositive() {
			needed := t.Mul(account.TotalDebtValue(items)).Sub(account.WeightedCollateral(items))
			repayCap = decimal.Min(debtOwed, number.DivCeil(number.DivCeil(needed, denom), debtPrice))
		}
	}
	if !core.IsMaxAmount(req.MaxDebtToCover) {
		repayCap = decimal.Min(repayCap, req.MaxDebtToCover)
	}

	colSupplied := colPos.SuppliedAssets(colAsset.SupplyIndex)
	coveredByCollateral := number.DivFloor(colSupplied.Mul(colPrice), debtPrice.Mul(grossFactor))

	collateralLimited := repayCap.GreaterThan(coveredByCollateral)
	repaid := decimal.Min(repayCap, coveredByCollateral)
	if !repaid.IsPositive() {
		return nil, core.ErrNotLiquidatable
	}

	trace := traceID(req.TraceID)

	payBase := decimal.Min(repaid, baseDebt)
	payPremium := decimal.Min(repaid.Sub(payBase), premiumDebt)
	repaid = payBase.Add(payPremium)

	var burned decimal.Decimal
	if payBase.Equal(baseDebt) {
		burned = debtPos.BaseDebtShares
	} else {
		burned = number.DivFloor(payBase, debtAsset.BorrowIndex)
	}

	debtPos.BaseDebtShares = debtPos.BaseDebtShares.Sub(burned)
	debtReserve.BaseDebtShares = debtReserve.BaseDebtShares.Sub(burned)
	debtLink.BaseDebtShares = debtLink.BaseDebtShares.Sub(burned)
	debtAsset.TotalBaseDebtShares = debtAsset.TotalBaseDebtShares.Sub(burned)
	debtReserve.LastUpdate = s.now

	// seize collateral: the liquidator is credited supply shares in the
	// collateral reserve, the fee's slice moves to the treasury. When the
	// collateral is the binding constraint every last share goes, no dust.
	var seizedAmount, seizedShares decimal.Decimal
	if collateralLimited {
		seizedAmount = colSupplied
		seizedShares = colPos.SuppliedShares
	} else {
		seizedAmount = number.DivFloor(repaid.Mul(debtPrice).Mul(grossFactor), colPrice)
		seizedShares = decimal.Min(number.DivCeil(seizedAmount, colAsset.SupplyIndex), colPos.SuppliedShares)
	}

	feeAmount := seizedAmount.Mul(bonus).DivRound(grossFactor, number.WorkPrecision).Mul(colCfg.LiquidationFee)
	feeShares := decimal.Min(number.DivFloor(feeAmount, colAsset.SupplyIndex), seizedShares)

	colPos.SuppliedShares = colPos.SuppliedShares.Sub(seizedShares)
	colReserve.SuppliedShares = colReserve.SuppliedShares.Sub(feeShares)
	colReserve.LastUpdate = s.now
	colAsset.TreasuryShares = colAsset.TreasuryShares.Add(feeShares)

	colLink, err := s.link(colReserve.SpokeID, colReserve.AssetID)
	if err != nil {
		return nil, err
	}
	colLink.SuppliedShares = colLink.SuppliedShares.Sub(feeShares)

	liqPos, err := s.position(colReserve.ReserveID, req.Liquidator)
	if err != nil {
		return nil, err
	}
	if liqPos.ID == 0 && liqPos.SuppliedShares.IsZero() && liqPos.BaseDebtShares.IsZero() {
		liqPos.ConfigVersion = colReserve.CurrentVersion
	}
	liqPos.SuppliedShares = liqPos.SuppliedShares.Add(seizedShares.Sub(feeShares))

	afterItems, err := s.userItems(spoke.SpokeID, req.UserID)
	if err != nil {
		return nil, err
	}
	s.applyPremium(debtPos, debtReserve, debtLink, debtAsset, account.RiskPremium(afterItems), payPremium)

	// when the last collateral is gone the leftover debt is unrecoverable;
	// write it off so suppliers see the loss reserved, not lent out again
	deficit := decimal.Zero
	if colPos.SuppliedShares.IsZero() && !hasCollateral(afterItems) {
		remainingBase := debtPos.BaseDebtAssets(debtAsset.BorrowIndex)
		remainingPremium := debtPos.PremiumDebtAssets(debtAsset.BorrowIndex)
		deficit = remainingBase.Add(remainingPremium)

		if deficit.IsPositive() {
			wiped := debtPos.BaseDebtShares
			debtPos.BaseDebtShares = decimal.Zero
			debtReserve.BaseDebtShares = debtReserve.BaseDebtShares.Sub(wiped)
			debtLink.BaseDebtShares = debtLink.BaseDebtShares.Sub(wiped)
			debtAsset.TotalBaseDebtShares = debtAsset.TotalBaseDebtShares.Sub(wiped)
			s.applyPremium(debtPos, debtReserve, debtLink, debtAsset, decimal.Zero, remainingPremium)

			debtAsset.Deficit = debtAsset.Deficit.Add(deficit)

			deficitEvent := &core.Event{
				TraceID:   foxuuid.Modify(trace, "deficit"),
				Action:    core.ActionDeficit,
				SpokeID:   spoke.SpokeID,
				ReserveID: debtReserve.ReserveID,
				UserID:    req.UserID,
				Amount:    deficit,
			}
			s.emit(deficitEvent)
		}
	}

	s.markPosition(debtPos)
	s.markPosition(colPos)
	s.markPosition(liqPos)
	s.markReserve(debtReserve)
	s.markReserve(colReserve)
	s.markLink(debtLink)
	s.markLink(colLink)
	s.markAsset(debtAsset)
	s.markAsset(colAsset)

	s.transferIn(req.Liquidator, debtAsset.AssetID, repaid)

	event := &core.Event{
		TraceID:   trace,
		Action:    core.ActionLiquidation,
		SpokeID:   spoke.SpokeID,
		ReserveID: debtReserve.ReserveID,
		UserID:    req.UserID,
		Amount:    repaid,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyCollateral, colReserve.ReserveID)
	extra.Put(core.EventKeyDebt, debtReserve.ReserveID)
	extra.Put(core.EventKeySeized, seizedAmount)
	extra.Put(core.EventKeyShares, seizedShares)
	extra.Put(core.EventKeyFee, feeShares)
	extra.Put(core.EventKeyBonus, bonus)
	extra.Put(core.EventKeyDeficit, deficit)
	event.SetExtra(extra)
	s.emit(event)

	finalItems, err := s.userItems(spoke.SpokeID, req.UserID)
	if err != nil {
		return nil, err
	}

	return &LiquidationResult{
		RepaidBase:      payBase,
		RepaidPremium:   payPremium,
		SeizedAmount:    seizedAmount,
		SeizedShares:    seizedShares,
		FeeShares:       feeShares,
		Bonus:           bonus,
		Deficit:         deficit,
		HealthFactor:    hf,
		NewHealthFactor: account.HealthFactor(finalItems),
	}, nil
}

func hasCollateral(items []account.PositionValue) bool {
	for _, it := range items {
		if it.CollateralValue.IsPositive() {
			return true
		}
	}
	return false
}
