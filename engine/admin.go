package engine

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"lendhub/core"
)

// AddAssetRequest list a new underlying asset at the hub
type AddAssetRequest struct {
	Caller          string          `json:"caller"`
	AssetID         string          `json:"asset_id"`
	Symbol          string          `json:"symbol"`
	ProtocolFeeRate decimal.Decimal `json:"protocol_fee_rate"`
	BaseRate        decimal.Decimal `json:"base_rate"`
	Slope           decimal.Decimal `json:"slope"`
	JumpSlope       decimal.Decimal `json:"jump_slope"`
	Kink            decimal.Decimal `json:"kink"`
	TraceID         string          `json:"trace_id,omitempty"`
}

// AddSpokeRequest register a spoke with its liquidation policy
type AddSpokeRequest struct {
	Caller                  string          `json:"caller"`
	SpokeID                 string          `json:"spoke_id"`
	Name                    string          `json:"name"`
	CloseFactor             decimal.Decimal `json:"close_factor"`
	TargetHealthFactor      decimal.Decimal `json:"target_health_factor"`
	HealthFactorForMaxBonus decimal.Decimal `json:"health_factor_for_max_bonus"`
	BonusGrowthFactor       decimal.Decimal `json:"bonus_growth_factor"`
	TraceID                 string          `json:"trace_id,omitempty"`
}

// SetSpokeAssetRequest create or reconfigure a spoke-asset link
type SetSpokeAssetRequest struct {
	Caller    string          `json:"caller"`
	SpokeID   string          `json:"spoke_id"`
	AssetID   string          `json:"asset_id"`
	Active    bool            `json:"active"`
	SupplyCap decimal.Decimal `json:"supply_cap"`
	DrawCap   decimal.Decimal `json:"draw_cap"`
	TraceID   string          `json:"trace_id,omitempty"`
}

// AddReserveRequest list an asset on a spoke, with the version zero config
type AddReserveRequest struct {
	Caller           string          `json:"caller"`
	ReserveID        string          `json:"reserve_id"`
	SpokeID          string          `json:"spoke_id"`
	AssetID          string          `json:"asset_id"`
	Symbol           string          `json:"symbol"`
	Borrowable       bool            `json:"borrowable"`
	LiquidityPremium decimal.Decimal `json:"liquidity_premium"`

	CollateralFactor    decimal.Decimal `json:"collateral_factor"`
	MinLiquidationBonus decimal.Decimal `json:"min_liquidation_bonus"`
	MaxLiquidationBonus decimal.Decimal `json:"max_liquidation_bonus"`
	LiquidationFee      decimal.Decimal `json:"liquidation_fee"`

	TraceID string `json:"trace_id,omitempty"`
}

// UpdateReserveConfigRequest flip the reserve's static switches
type UpdateReserveConfigRequest struct {
	Caller     string `json:"caller"`
	ReserveID  string `json:"reserve_id"`
	Paused     bool   `json:"paused"`
	Frozen     bool   `json:"frozen"`
	Borrowable bool   `json:"borrowable"`
	TraceID    string `json:"trace_id,omitempty"`
}

// UpdateDynamicConfigRequest append a new dynamic config version
type UpdateDynamicConfigRequest struct {
	Caller              string          `json:"caller"`
	ReserveID           string          `json:"reserve_id"`
	CollateralFactor    decimal.Decimal `json:"collateral_factor"`
	MinLiquidationBonus decimal.Decimal `json:"min_liquidation_bonus"`
	MaxLiquidationBonus decimal.Decimal `json:"max_liquidation_bonus"`
	LiquidationFee      decimal.Decimal `json:"liquidation_fee"`
	TraceID             string          `json:"trace_id,omitempty"`
}

// UpdateLiquidationConfigRequest replace a spoke's liquidation policy
type UpdateLiquidationConfigRequest struct {
	Caller                  string          `json:"caller"`
	SpokeID                 string          `json:"spoke_id"`
	CloseFactor             decimal.Decimal `json:"close_factor"`
	TargetHealthFactor      decimal.Decimal `json:"target_health_factor"`
	HealthFactorForMaxBonus decimal.Decimal `json:"health_factor_for_max_bonus"`
	BonusGrowthFactor       decimal.Decimal `json:"bonus_growth_factor"`
	TraceID                 string          `json:"trace_id,omitempty"`
}

// UpdateLiquidityPremiumRequest retune the collateral quality spread
type UpdateLiquidityPremiumRequest struct {
	Caller           string          `json:"caller"`
	ReserveID        string          `json:"reserve_id"`
	LiquidityPremium decimal.Decimal `json:"liquidity_premium"`
	TraceID          string          `json:"trace_id,omitempty"`
}

// AddAsset list a new asset
func (e *Engine) AddAsset(ctx context.Context, req *AddAssetRequest) error {
	return e.run(ctx, func(s *staging) error { return s.addAsset(req) })
}

// AddSpoke register a spoke
func (e *Engine) AddSpoke(ctx context.Context, req *AddSpokeRequest) error {
	return e.run(ctx, func(s *staging) error { return s.addSpoke(req) })
}

// SetSpokeAsset create or reconfigure a spoke-asset link
func (e *Engine) SetSpokeAsset(ctx context.Context, req *SetSpokeAssetRequest) error {
	return e.run(ctx, func(s *staging) error { return s.setSpokeAsset(req) })
}

// AddReserve list an asset on a spoke
func (e *Engine) AddReserve(ctx context.Context, req *AddReserveRequest) error {
	return e.run(ctx, func(s *staging) error { return s.addReserve(req) })
}

// UpdateReserveConfig flip static switches
func (e *Engine) UpdateReserveConfig(ctx context.Context, req *UpdateReserveConfigRequest) error {
	return e.run(ctx, func(s *staging) error { return s.updateReserveConfig(req) })
}

// UpdateDynamicConfig append a dynamic config version
func (e *Engine) UpdateDynamicConfig(ctx context.Context, req *UpdateDynamicConfigRequest) error {
	return e.run(ctx, func(s *staging) error { return s.updateDynamicConfig(req) })
}

// UpdateLiquidationConfig replace a spoke's liquidation policy
func (e *Engine) UpdateLiquidationConfig(ctx context.Context, req *UpdateLiquidationConfigRequest) error {
	return e.run(ctx, func(s *staging) error { return s.updateLiquidationConfig(req) })
}

// UpdateLiquidityPremium retune a reserve's liquidity premium
func (e *Engine) UpdateLiquidityPremium(ctx context.Context, req *UpdateLiquidityPremiumRequest) error {
	return e.run(ctx, func(s *staging) error { return s.updateLiquidityPremium(req) })
}

func (s *staging) authorize(caller, op string) error {
	if s.e.authz == nil || !s.e.authz.Allowed(s.ctx, caller, op) {
		return core.ErrOperationForbidden
	}
	return nil
}

func validRate(v decimal.Decimal) bool {
	return !v.IsNegative() && v.LessThanOrEqual(one)
}

func validDynamicConfig(collateralFactor, minBonus, maxBonus, fee decimal.Decimal) bool {
	return validRate(collateralFactor) &&
		!minBonus.IsNegative() &&
		maxBonus.GreaterThanOrEqual(minBonus) &&
		validRate(fee)
}

func validLiquidationPolicy(closeFactor, target, hfMax, growth decimal.Decimal) bool {
	if !closeFactor.IsPositive() || growth.IsNegative() {
		return false
	}
	if hfMax.IsNegative() || hfMax.GreaterThanOrEqual(one) {
		return false
	}
	// target mode needs a target strictly above the threshold
	if closeFactor.GreaterThanOrEqual(one) && !target.GreaterThan(one) {
		return false
	}
	return true
}

func (s *staging) addAsset(req *AddAssetRequest) error {
	if err := s.authorize(req.Caller, core.OpAddAsset); err != nil {
		return err
	}
	if req.AssetID == "" || req.Symbol == "" {
		return core.ErrInvalidConfig
	}
	if !validRate(req.ProtocolFeeRate) || req.BaseRate.IsNegative() ||
		req.Slope.IsNegative() || req.JumpSlope.IsNegative() ||
		!req.Kink.IsPositive() || req.Kink.GreaterThan(one) {
		return core.ErrInvalidConfig
	}
	if _, ok := s.assets[req.AssetID]; ok {
		return core.ErrInvalidConfig
	}
	if _, err := s.e.assets.Find(s.ctx, req.AssetID); err == nil {
		return core.ErrInvalidConfig
	} else if !errors.Is(err, core.ErrAssetNotFound) {
		return err
	}

	if err := s.guard("asset:" + req.AssetID); err != nil {
		return err
	}

	asset := &core.Asset{
		AssetID:         req.AssetID,
		Symbol:          req.Symbol,
		SupplyIndex:     one,
		BorrowIndex:     one,
		ProtocolFeeRate: req.ProtocolFeeRate,
		BaseRate:        req.BaseRate,
		Slope:           req.Slope,
		JumpSlope:       req.JumpSlope,
		Kink:            req.Kink,
		LastUpdate:      s.now,
	}
	s.assets[req.AssetID] = asset
	s.created["asset:"+req.AssetID] = true
	s.markAsset(asset)

	event := &core.Event{
		TraceID: traceID(req.TraceID),
		Action:  core.ActionAddAsset,
		UserID:  req.Caller,
		Amount:  decimal.Zero,
	}
	s.emit(event)

	return nil
}

func (s *staging) addSpoke(req *AddSpokeRequest) error {
	if err := s.authorize(req.Caller, core.OpAddSpoke); err != nil {
		return err
	}
	if req.SpokeID == "" {
		return core.ErrInvalidConfig
	}
	if !validLiquidationPolicy(req.CloseFactor, req.TargetHealthFactor, req.HealthFactorForMaxBonus, req.BonusGrowthFactor) {
		return core.ErrInvalidConfig
	}
	if _, ok := s.spokes[req.SpokeID]; ok {
		return core.ErrInvalidConfig
	}
	if _, err := s.e.spokes.Find(s.ctx, req.SpokeID); err == nil {
		return core.ErrInvalidConfig
	} else if !errors.Is(err, core.ErrSpokeNotFound) {
		return err
	}

	if err := s.guard("spoke:" + req.SpokeID); err != nil {
		return err
	}

	spoke := &core.Spoke{
		SpokeID:                 req.SpokeID,
		Name:                    req.Name,
		CloseFactor:             req.CloseFactor,
		TargetHealthFactor:      req.TargetHealthFactor,
		HealthFactorForMaxBonus: req.HealthFactorForMaxBonus,
		BonusGrowthFactor:       req.BonusGrowthFactor,
	}
	s.spokes[req.SpokeID] = spoke
	s.created["spoke:"+req.SpokeID] = true
	s.markSpoke(spoke)

	event := &core.Event{
		TraceID: traceID(req.TraceID),
		Action:  core.ActionAddSpoke,
		SpokeID: req.SpokeID,
		UserID:  req.Caller,
		Amount:  decimal.Zero,
	}
	s.emit(event)

	return nil
}

func (s *staging) setSpokeAsset(req *SetSpokeAssetRequest) error {
	if err := s.authorize(req.Caller, core.OpSetSpokeAsset); err != nil {
		return err
	}
	if req.SupplyCap.IsNegative() || req.DrawCap.IsNegative() {
		return core.ErrInvalidConfig
	}

	if _, err := s.spoke(req.SpokeID); err != nil {
		return err
	}
	if _, err := s.asset(req.AssetID); err != nil {
		return err
	}

	link, err := s.link(req.SpokeID, req.AssetID)
	if errors.Is(err, core.ErrSpokeAssetInactive) {
		key := linkKey(req.SpokeID, req.AssetID)
		link = &core.SpokeAsset{
			SpokeID: req.SpokeID,
			AssetID: req.AssetID,
		}
		s.links[key] = link
		s.created["link:"+key] = true
	} else if err != nil {
		return err
	}

	link.Active = req.Active
	link.SupplyCap = req.SupplyCap
	link.DrawCap = req.DrawCap
	s.markLink(link)

	event := &core.Event{
		TraceID: traceID(req.TraceID),
		Action:  core.ActionSetSpokeAsset,
		SpokeID: req.SpokeID,
		UserID:  req.Caller,
		Amount:  decimal.Zero,
	}
	s.emit(event)

	return nil
}

func (s *staging) addReserve(req *AddReserveRequest) error {
	if err := s.authorize(req.Caller, core.OpAddReserve); err != nil {
		return err
	}
	if req.ReserveID == "" {
		return core.ErrInvalidConfig
	}
	if !validDynamicConfig(req.CollateralFactor, req.MinLiquidationBonus, req.MaxLiquidationBonus, req.LiquidationFee) {
		return core.ErrInvalidConfig
	}
	if req.LiquidityPremium.IsNegative() {
		return core.ErrInvalidConfig
	}
	if _, ok := s.reserves[req.ReserveID]; ok {
		return core.ErrInvalidConfig
	}
	if _, err := s.e.reserves.Find(s.ctx, req.ReserveID); err == nil {
		return core.ErrInvalidConfig
	} else if !errors.Is(err, core.ErrReserveNotFound) {
		return err
	}

	if _, err := s.spoke(req.SpokeID); err != nil {
		return err
	}
	asset, err := s.asset(req.AssetID)
	if err != nil {
		return err
	}
	link, err := s.link(req.SpokeID, req.AssetID)
	if err != nil {
		return err
	}
	if !link.Active {
		return core.ErrSpokeAssetInactive
	}

	if err := s.guard("reserve:" + req.ReserveID); err != nil {
		return err
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = asset.Symbol
	}

	reserve := &core.Reserve{
		ReserveID:        req.ReserveID,
		SpokeID:          req.SpokeID,
		AssetID:          req.AssetID,
		Symbol:           symbol,
		Borrowable:       req.Borrowable,
		LiquidityPremium: req.LiquidityPremium,
		LastUpdate:       s.now,
	}
	s.reserves[req.ReserveID] = reserve
	s.created["reserve:"+req.ReserveID] = true
	s.markReserve(reserve)

	s.newConfigs = append(s.newConfigs, &core.DynamicConfig{
		ReserveID:           req.ReserveID,
		Ver:                 0,
		CollateralFactor:    req.CollateralFactor,
		MinLiquidationBonus: req.MinLiquidationBonus,
		MaxLiquidationBonus: req.MaxLiquidationBonus,
		LiquidationFee:      req.LiquidationFee,
	})

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionAddReserve,
		SpokeID:   req.SpokeID,
		ReserveID: req.ReserveID,
		UserID:    req.Caller,
		Amount:    decimal.Zero,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyPremium, req.LiquidityPremium)
	event.SetExtra(extra)
	s.emit(event)

	return nil
}

func (s *staging) updateReserveConfig(req *UpdateReserveConfigRequest) error {
	if err := s.authorize(req.Caller, core.OpUpdateReserveConfig); err != nil {
		return err
	}

	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return err
	}

	reserve.Paused = req.Paused
	reserve.Frozen = req.Frozen
	reserve.Borrowable = req.Borrowable
	s.markReserve(reserve)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionReserveConfig,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.Caller,
		Amount:    decimal.Zero,
	}
	s.emit(event)

	return nil
}

func (s *staging) updateDynamicConfig(req *UpdateDynamicConfigRequest) error {
	if err := s.authorize(req.Caller, core.OpUpdateDynamicConfig); err != nil {
		return err
	}
	if !validDynamicConfig(req.CollateralFactor, req.MinLiquidationBonus, req.MaxLiquidationBonus, req.LiquidationFee) {
		return core.ErrInvalidConfig
	}

	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return err
	}

	// versions are append only; pinned positions keep reading theirs
	reserve.CurrentVersion++
	s.markReserve(reserve)

	s.newConfigs = append(s.newConfigs, &core.DynamicConfig{
		ReserveID:           reserve.ReserveID,
		Ver:                 reserve.CurrentVersion,
		CollateralFactor:    req.CollateralFactor,
		MinLiquidationBonus: req.MinLiquidationBonus,
		MaxLiquidationBonus: req.MaxLiquidationBonus,
		LiquidationFee:      req.LiquidationFee,
	})

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionDynamicConfig,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.Caller,
		Amount:    decimal.Zero,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyVersion, reserve.CurrentVersion)
	event.SetExtra(extra)
	s.emit(event)

	return nil
}

func (s *staging) updateLiquidationConfig(req *UpdateLiquidationConfigRequest) error {
	if err := s.authorize(req.Caller, core.OpUpdateLiquidationConfig); err != nil {
		return err
	}
	if !validLiquidationPolicy(req.CloseFactor, req.TargetHealthFactor, req.HealthFactorForMaxBonus, req.BonusGrowthFactor) {
		return core.ErrInvalidConfig
	}

	spoke, err := s.spoke(req.SpokeID)
	if err != nil {
		return err
	}

	spoke.CloseFactor = req.CloseFactor
	spoke.TargetHealthFactor = req.TargetHealthFactor
	spoke.HealthFactorForMaxBonus = req.HealthFactorForMaxBonus
	spoke.BonusGrowthFactor = req.BonusGrowthFactor
	s.markSpoke(spoke)

	event := &core.Event{
		TraceID: traceID(req.TraceID),
		Action:  core.ActionLiquidationConfig,
		SpokeID: spoke.SpokeID,
		UserID:  req.Caller,
		Amount:  decimal.Zero,
	}
	s.emit(event)

	return nil
}

func (s *staging) updateLiquidityPremium(req *UpdateLiquidityPremiumRequest) error {
	if err := s.authorize(req.Caller, core.OpUpdateLiquidityPremium); err != nil {
		return err
	}
	if req.LiquidityPremium.IsNegative() {
		return core.ErrInvalidConfig
	}

	reserve, err := s.reserve(req.ReserveID)
	if err != nil {
		return err
	}

	reserve.LiquidityPremium = req.LiquidityPremium
	s.markReserve(reserve)

	event := &core.Event{
		TraceID:   traceID(req.TraceID),
		Action:    core.ActionLiquidityPremium,
		SpokeID:   reserve.SpokeID,
		ReserveID: reserve.ReserveID,
		UserID:    req.Caller,
		Amount:    req.LiquidityPremium,
	}
	extra := make(core.EventExtra)
	extra.Put(core.EventKeyPremium, req.LiquidityPremium)
	event.SetExtra(extra)
	s.emit(event)

	return nil
}
