// Package account values user positions and computes health factors.
// The pure helpers operate on valued snapshots so the transaction engine
// can run them against staged state; the service resolves committed state
// for queries and the liquidation sentinel.
package account

import (
	"context"

	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/pkg/number"
	"lendhub/service/premium"
)

// Infinite health factor of a debt free account
var Infinite = decimal.New(1, 32)

// Threshold the liquidation threshold; health below it is liquidatable
var Threshold = decimal.New(1, 0)

// PositionValue one position valued in the base currency
type PositionValue struct {
	ReserveID        string
	CollateralValue  decimal.Decimal // zero unless flagged as collateral
	CollateralFactor decimal.Decimal // from the position's pinned config
	DebtValue        decimal.Decimal // base plus premium
	LiquidityPremium decimal.Decimal
}

// Value assemble a PositionValue from a position and its surroundings. The
// collateral factor must come from the position's pinned dynamic config.
func Value(p *core.Position, r *core.Reserve, a *core.Asset, cfg *core.DynamicConfig, price decimal.Decimal) PositionValue {
	v := PositionValue{
		ReserveID:        r.ReserveID,
		CollateralFactor: cfg.CollateralFactor,
		LiquidityPremium: r.LiquidityPremium,
		DebtValue:        p.TotalDebtAssets(a.BorrowIndex).Mul(price).Truncate(number.WorkPrecision),
	}

	if p.UsingAsCollateral {
		v.CollateralValue = p.SuppliedAssets(a.SupplyIndex).Mul(price).Truncate(number.WorkPrecision)
	}

	return v
}

// WeightedCollateral sum of collateral values scaled by their factors
func WeightedCollateral(items []PositionValue) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.CollateralValue.Mul(it.CollateralFactor))
	}
	return sum.Truncate(number.WorkPrecision)
}

// TotalDebtValue sum of debt values
func TotalDebtValue(items []PositionValue) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.DebtValue)
	}
	return sum.Truncate(number.WorkPrecision)
}

// HealthFactor weighted collateral over debt, Infinite when debt free
func HealthFactor(items []PositionValue) decimal.Decimal {
	debt := TotalDebtValue(items)
	if !debt.IsPositive() {
		return Infinite
	}

	return WeightedCollateral(items).DivRound(debt, number.WorkPrecision)
}

// Collaterals waterfall input slices from valued positions
func Collaterals(items []PositionValue) []premium.Collateral {
	cols := make([]premium.Collateral, 0, len(items))
	for _, it := range items {
		if it.CollateralValue.IsPositive() {
			cols = append(cols, premium.Collateral{
				ReserveID: it.ReserveID,
				Value:     it.CollateralValue,
				Premium:   it.LiquidityPremium,
			})
		}
	}
	return cols
}

// RiskPremium the user's personal spread implied by valued positions
func RiskPremium(items []PositionValue) decimal.Decimal {
	return premium.Waterfall(Collaterals(items), TotalDebtValue(items))
}

// Account a valued user account
type Account struct {
	UserID          string          `json:"user_id"`
	HealthFactor    decimal.Decimal `json:"health_factor"`
	RiskPremium     decimal.Decimal `json:"risk_premium"`
	CollateralValue decimal.Decimal `json:"collateral_value"`
	DebtValue       decimal.Decimal `json:"debt_value"`
}

// IAccountService values committed account state
type IAccountService interface {
	ValuePositions(ctx context.Context, userID string) ([]PositionValue, error)
	GetAccount(ctx context.Context, userID string) (*Account, error)
}

type accountService struct {
	assets    core.IAssetStore
	reserves  core.IReserveStore
	positions core.IPositionStore
	oracle    core.IPriceOracleService
}

// NewService new account service
func NewService(
	assets core.IAssetStore,
	reserves core.IReserveStore,
	positions core.IPositionStore,
	oracle core.IPriceOracleService,
) IAccountService {
	return &accountService{
		assets:    assets,
		reserves:  reserves,
		positions: positions,
		oracle:    oracle,
	}
}

func (s *accountService) ValuePositions(ctx context.Context, userID string) ([]PositionValue, error) {
	positions, err := s.positions.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]PositionValue, 0, len(positions))
	for _, p := range positions {
		reserve, err := s.reserves.Find(ctx, p.ReserveID)
		if err != nil {
			return nil, err
		}

		asset, err := s.assets.Find(ctx, reserve.AssetID)
		if err != nil {
			return nil, err
		}

		cfg, err := s.reserves.FindConfig(ctx, reserve.ReserveID, p.ConfigVersion)
		if err != nil {
			return nil, err
		}

		price, err := s.oracle.GetAssetPrice(ctx, asset.AssetID)
		if err != nil {
			return nil, err
		}

		items = append(items, Value(p, reserve, asset, cfg, price))
	}

	return items, nil
}

func (s *accountService) GetAccount(ctx context.Context, userID string) (*Account, error) {
	items, err := s.ValuePositions(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Account{
		UserID:          userID,
		HealthFactor:    HealthFactor(items),
		RiskPremium:     RiskPremium(items),
		CollateralValue: WeightedCollateral(items),
		DebtValue:       TotalDebtValue(items),
	}, nil
}
