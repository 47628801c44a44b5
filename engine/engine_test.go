package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub/core"
)

func setupMarket(env *testEnv) {
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	env.addSpoke("main", "0.5", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "0")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.8", "0")
}

func TestSupplyWithdrawRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "alice", "100"))

	pos, err := env.positions.Find(ctx, "usdc-main", "alice")
	require.NoError(t, err)
	assert.True(t, pos.SuppliedShares.Equal(d("100")))
	env.checkConservation()

	actual, err := env.engine.Withdraw(ctx, &WithdrawRequest{
		ReserveID:  "usdc-main",
		OnBehalfOf: "alice",
		Amount:     core.MaxAmount,
	})
	require.NoError(t, err)
	assert.True(t, actual.Equal(d("100")), "got %s", actual)

	// empty row is reaped
	pos, err = env.positions.Find(ctx, "usdc-main", "alice")
	require.NoError(t, err)
	assert.Zero(t, pos.ID)

	require.Len(t, env.transfer.in, 1)
	require.Len(t, env.transfer.out, 1)
	assert.True(t, env.transfer.out[0].amount.Equal(d("100")))
	env.checkConservation()
}

func TestWithdrawMoreThanSupplied(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "alice", "100"))

	_, err := env.engine.Withdraw(ctx, &WithdrawRequest{
		ReserveID:  "usdc-main",
		OnBehalfOf: "alice",
		Amount:     d("100.5"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientBalance))

	var limitErr *core.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.True(t, limitErr.Limit.Equal(d("100")), "limit %s", limitErr.Limit)
}

func TestSupplyCapLimit(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.addSpoke("main", "0.5", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "100", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")

	require.NoError(t, env.supply("usdc-main", "alice", "60"))

	err := env.supply("usdc-main", "bob", "50")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSupplyCapExceeded))

	var limitErr *core.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.True(t, limitErr.Limit.Equal(d("40")), "headroom %s", limitErr.Limit)

	// a supply inside the headroom still lands
	require.NoError(t, env.supply("usdc-main", "bob", "40"))
}

func TestDrawCapLimit(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	env.addSpoke("main", "0.5", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "30")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.8", "0")

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))

	require.NoError(t, env.borrow("usdc-main", "alice", "20"))

	err := env.borrow("usdc-main", "alice", "20")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDrawCapExceeded))

	var limitErr *core.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.True(t, limitErr.Limit.Equal(d("10")), "headroom %s", limitErr.Limit)
}

func TestBorrowHealthFactorBoundary(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	env.addSpoke("main", "0.5", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "0")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.5", "0")

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))

	// capacity is exactly 100 * 0.5 = 50; the boundary itself is admitted
	require.NoError(t, env.borrow("usdc-main", "alice", "50"))

	// one quantum more trips the threshold
	err := env.borrow("usdc-main", "alice", "0.0000000000000001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrBelowThreshold))
	env.checkConservation()
}

func TestBorrowWithoutCollateral(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))

	// supplying alone never makes collateral
	err := env.borrow("usdc-main", "alice", "10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrBelowThreshold))
}

func TestBorrowRepayRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "50"))
	env.checkConservation()

	env.elapse(365 * 24 * time.Hour)

	base, prem, err := env.engine.Repay(ctx, &RepayRequest{
		ReserveID: "usdc-main",
		UserID:    "alice",
		Amount:    core.MaxAmount,
	})
	require.NoError(t, err)

	// utilization 5% on the kinked curve gives 3% for the year
	expected := d("51.5")
	assert.True(t, base.Sub(expected).Abs().LessThan(d("0.0001")),
		"repaid base %s, expected about %s", base, expected)
	assert.True(t, prem.IsZero(), "premium %s", prem)

	pos, err := env.positions.Find(ctx, "usdc-main", "alice")
	require.NoError(t, err)
	assert.True(t, pos.BaseDebtShares.IsZero())
	env.checkConservation()

	// suppliers and the treasury split the 1.5 of interest
	usdc, err := env.assets.Find(ctx, "usdc")
	require.NoError(t, err)
	assert.True(t, usdc.SupplyIndex.GreaterThan(d("1")))
	assert.True(t, usdc.TreasuryShares.IsPositive())

	growth := usdc.TotalSuppliedAssets().Sub(d("1000"))
	assert.True(t, growth.Sub(d("1.5")).Abs().LessThan(d("0.0001")),
		"supply growth %s", growth)
}

func TestUpdateLiquidityPremium(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.engine.UpdateLiquidityPremium(ctx, &UpdateLiquidityPremiumRequest{
		Caller:           "admin",
		ReserveID:        "btc-main",
		LiquidityPremium: d("0.02"),
	}))

	res, err := env.reserves.Find(ctx, "btc-main")
	require.NoError(t, err)
	assert.True(t, res.LiquidityPremium.Equal(d("0.02")))

	listed := env.events.byAction(core.ActionAddReserve)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].Extra().Decimal(core.EventKeyPremium).IsZero())

	updates := env.events.byAction(core.ActionLiquidityPremium)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].Extra().Decimal(core.EventKeyPremium).Equal(d("0.02")))
}

func TestBorrowRepayImmediate(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "50"))

	// let the borrow index drift off 1 so the share conversions round
	env.elapse(180 * 24 * time.Hour)

	debtShares := func() [4]decimal.Decimal {
		pos, err := env.positions.Find(ctx, "usdc-main", "alice")
		require.NoError(t, err)
		res, err := env.reserves.Find(ctx, "usdc-main")
		require.NoError(t, err)
		link, err := env.links.Find(ctx, "main", "usdc")
		require.NoError(t, err)
		asset, err := env.assets.Find(ctx, "usdc")
		require.NoError(t, err)
		return [4]decimal.Decimal{
			pos.BaseDebtShares,
			res.BaseDebtShares,
			link.BaseDebtShares,
			asset.TotalBaseDebtShares,
		}
	}

	before := debtShares()

	require.NoError(t, env.borrow("usdc-main", "alice", "7"))
	_, _, err := env.engine.Repay(ctx, &RepayRequest{
		ReserveID: "usdc-main",
		UserID:    "alice",
		Amount:    d("7"),
	})
	require.NoError(t, err)

	// minting rounds up and burning rounds down, so the round trip may
	// leave at most one share unit behind, never take one away
	after := debtShares()
	unit := d("0.0000000000000001")
	for i := range before {
		diff := after[i].Sub(before[i])
		assert.False(t, diff.IsNegative(), "level %d lost %s debt shares", i, diff.Neg())
		assert.True(t, diff.LessThanOrEqual(unit), "level %d gained %s debt shares", i, diff)
	}
	env.checkConservation()
}

func TestPremiumAccrual(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	env.addSpoke("main", "0.5", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "0")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.8", "0.02")
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "50"))

	// the collateral covering the debt carries a 2% liquidity premium
	pos, err := env.positions.Find(ctx, "usdc-main", "alice")
	require.NoError(t, err)
	assert.True(t, pos.PremiumShares.Equal(d("1")), "premium shares %s", pos.PremiumShares)
	env.checkConservation()

	env.elapse(365 * 24 * time.Hour)

	base, prem, err := env.engine.Repay(ctx, &RepayRequest{
		ReserveID: "usdc-main",
		UserID:    "alice",
		Amount:    core.MaxAmount,
	})
	require.NoError(t, err)

	// premium is 2% of the base interest growth
	baseInterest := base.Sub(d("50"))
	expectedPrem := baseInterest.Mul(d("0.02"))
	assert.True(t, prem.Sub(expectedPrem).Abs().LessThan(d("0.0001")),
		"premium %s, base interest %s", prem, baseInterest)

	pos, err = env.positions.Find(ctx, "usdc-main", "alice")
	require.NoError(t, err)
	assert.True(t, pos.BaseDebtShares.IsZero())
	assert.True(t, pos.PremiumShares.IsZero())
	env.checkConservation()
}

func TestRepayBaseBeforePremium(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	env.addSpoke("main", "0.5", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "0")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.8", "0.02")
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "50"))

	env.elapse(365 * 24 * time.Hour)

	base, prem, err := env.engine.Repay(ctx, &RepayRequest{
		ReserveID: "usdc-main",
		UserID:    "alice",
		Amount:    d("10"),
	})
	require.NoError(t, err)
	assert.True(t, base.Equal(d("10")), "base %s", base)
	assert.True(t, prem.IsZero(), "premium %s", prem)
	env.checkConservation()
}

func TestLiquidationTargetHealth(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	// close factor 1 switches the spoke to target mode
	env.addSpoke("main", "1", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "0")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.8", "0")
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "60"))

	// healthy accounts are untouchable
	_, err := env.engine.LiquidationCall(ctx, &LiquidationRequest{
		CollateralReserveID: "btc-main",
		DebtReserveID:       "usdc-main",
		UserID:              "alice",
		Liquidator:          "carol",
		MaxDebtToCover:      core.MaxAmount,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotLiquidatable))

	env.setPrice("btc", "70")

	res, err := env.engine.LiquidationCall(ctx, &LiquidationRequest{
		CollateralReserveID: "btc-main",
		DebtReserveID:       "usdc-main",
		UserID:              "alice",
		Liquidator:          "carol",
		MaxDebtToCover:      core.MaxAmount,
	})
	require.NoError(t, err)

	// hf fell to 56/60; bonus interpolates between 5% and 10%
	assert.True(t, res.HealthFactor.Sub(d("0.9333333333333333")).Abs().LessThan(d("0.0001")),
		"hf %s", res.HealthFactor)
	assert.True(t, res.Bonus.GreaterThanOrEqual(d("0.05")))
	assert.True(t, res.Bonus.LessThanOrEqual(d("0.1")))
	assert.True(t, res.Deficit.IsZero())

	// target mode repays just enough to restore the target
	assert.True(t, res.NewHealthFactor.Sub(d("1.1")).Abs().LessThan(d("0.001")),
		"new hf %s", res.NewHealthFactor)

	// the liquidator holds the seized shares minus the fee
	carol, err := env.positions.Find(ctx, "btc-main", "carol")
	require.NoError(t, err)
	assert.True(t, carol.SuppliedShares.Equal(res.SeizedShares.Sub(res.FeeShares)))

	btc, err := env.assets.Find(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, btc.TreasuryShares.Equal(res.FeeShares))

	// the victim's pin stays where it was
	alice, err := env.positions.Find(ctx, "btc-main", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), alice.ConfigVersion)

	liquidations := env.events.byAction(core.ActionLiquidation)
	require.Len(t, liquidations, 1)
	extra := liquidations[0].Extra()
	assert.Equal(t, "btc-main", extra.String(core.EventKeyCollateral))
	assert.Equal(t, "usdc-main", extra.String(core.EventKeyDebt))
	assert.True(t, extra.Decimal(core.EventKeyBonus).Equal(res.Bonus))
	assert.True(t, extra.Decimal(core.EventKeySeized).Equal(res.SeizedAmount))

	env.checkConservation()
}

func TestLiquidationDeficit(t *testing.T) {
	env := newTestEnv(t)
	env.listAsset("usdc", "USDC", "1")
	env.listAsset("btc", "BTC", "100")
	env.addSpoke("main", "1", "1.1", "0.5", "1")
	env.linkAsset("main", "usdc", "0", "0")
	env.linkAsset("main", "btc", "0", "0")
	env.addReserve("usdc-main", "main", "usdc", "0.9", "0")
	env.addReserve("btc-main", "main", "btc", "0.9", "0")
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "80"))

	// the collateral halves; even seizing all of it cannot cover the debt
	env.setPrice("btc", "50")

	res, err := env.engine.LiquidationCall(ctx, &LiquidationRequest{
		CollateralReserveID: "btc-main",
		DebtReserveID:       "usdc-main",
		UserID:              "alice",
		Liquidator:          "carol",
		MaxDebtToCover:      core.MaxAmount,
	})
	require.NoError(t, err)

	assert.True(t, res.SeizedShares.Equal(d("1")), "seized %s", res.SeizedShares)
	assert.True(t, res.Deficit.IsPositive())

	covered := res.RepaidBase.Add(res.RepaidPremium)
	assert.True(t, covered.Add(res.Deficit).Sub(d("80")).Abs().LessThan(d("0.0001")),
		"covered %s + deficit %s should equal the debt", covered, res.Deficit)

	usdc, err := env.assets.Find(ctx, "usdc")
	require.NoError(t, err)
	assert.True(t, usdc.Deficit.Equal(res.Deficit))
	assert.True(t, usdc.TotalBaseDebtShares.IsZero())

	// the write-off stays reserved against the pool's cash
	total := usdc.TotalSuppliedAssets()
	free := usdc.AvailableLiquidity()
	assert.True(t, total.Sub(free).Sub(res.Deficit).Abs().LessThan(d("0.0001")),
		"liquidity %s of %s with deficit %s", free, total, res.Deficit)

	require.Len(t, env.events.byAction(core.ActionDeficit), 1)
	env.checkConservation()
}

func TestLiquidationRespectsPinnedConfig(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "60"))

	// slash the collateral factor; alice stays pinned to the old version
	require.NoError(t, env.engine.UpdateDynamicConfig(ctx, &UpdateDynamicConfigRequest{
		Caller:              "admin",
		ReserveID:           "btc-main",
		CollateralFactor:    d("0.1"),
		MinLiquidationBonus: d("0.05"),
		MaxLiquidationBonus: d("0.1"),
		LiquidationFee:      d("0.1"),
	}))

	_, err := env.engine.LiquidationCall(ctx, &LiquidationRequest{
		CollateralReserveID: "btc-main",
		DebtReserveID:       "usdc-main",
		UserID:              "alice",
		Liquidator:          "carol",
		MaxDebtToCover:      core.MaxAmount,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNotLiquidatable))
}

func TestMulticallCommitsTogether(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))

	results, err := env.engine.Multicall(ctx, []Call{
		{Supply: &SupplyRequest{ReserveID: "btc-main", Payer: "alice", OnBehalfOf: "alice", Amount: d("1")}},
		{SetCollateral: &CollateralRequest{ReserveID: "btc-main", UserID: "alice", Enabled: true}},
		{Borrow: &BorrowRequest{ReserveID: "usdc-main", OnBehalfOf: "alice", Amount: d("50")}},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	pos, err := env.positions.Find(ctx, "usdc-main", "alice")
	require.NoError(t, err)
	assert.True(t, pos.BaseDebtShares.Equal(d("50")))
	env.checkConservation()
}

func TestMulticallDiscardsOnFailure(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	transfersBefore := len(env.transfer.in)

	_, err := env.engine.Multicall(ctx, []Call{
		{Supply: &SupplyRequest{ReserveID: "btc-main", Payer: "alice", OnBehalfOf: "alice", Amount: d("1")}},
		{SetCollateral: &CollateralRequest{ReserveID: "btc-main", UserID: "alice", Enabled: true}},
		{Borrow: &BorrowRequest{ReserveID: "usdc-main", OnBehalfOf: "alice", Amount: d("5000")}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientLiquidity))

	// the whole batch is gone, supply included
	pos, err := env.positions.Find(ctx, "btc-main", "alice")
	require.NoError(t, err)
	assert.Zero(t, pos.ID)
	assert.Len(t, env.transfer.in, transfersBefore)
	env.checkConservation()
}

func TestAdminForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.engine.authz = denyAll{}

	err := env.engine.AddAsset(context.Background(), &AddAssetRequest{
		Caller:          "mallory",
		AssetID:         "usdc",
		Symbol:          "USDC",
		ProtocolFeeRate: d("0.1"),
		BaseRate:        d("0.025"),
		Slope:           d("0.1"),
		JumpSlope:       d("2"),
		Kink:            d("0.8"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrOperationForbidden))
}

func TestDynamicConfigVersionsAppend(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.engine.UpdateDynamicConfig(ctx, &UpdateDynamicConfigRequest{
		Caller:              "admin",
		ReserveID:           "btc-main",
		CollateralFactor:    d("0.7"),
		MinLiquidationBonus: d("0.05"),
		MaxLiquidationBonus: d("0.1"),
		LiquidationFee:      d("0.1"),
	}))

	reserve, err := env.reserves.Find(ctx, "btc-main")
	require.NoError(t, err)
	assert.Equal(t, int64(1), reserve.CurrentVersion)

	// the old version stays readable for pinned positions
	v0, err := env.reserves.FindConfig(ctx, "btc-main", 0)
	require.NoError(t, err)
	assert.True(t, v0.CollateralFactor.Equal(d("0.8")))

	v1, err := env.reserves.FindConfig(ctx, "btc-main", 1)
	require.NoError(t, err)
	assert.True(t, v1.CollateralFactor.Equal(d("0.7")))
}

func TestDisableCollateralWithDebt(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "50"))

	err := env.engine.SetUsingAsCollateral(ctx, &CollateralRequest{
		ReserveID: "btc-main",
		UserID:    "alice",
		Enabled:   false,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrBelowThreshold))

	// still flagged after the rejected flip
	pos, err := env.positions.Find(ctx, "btc-main", "alice")
	require.NoError(t, err)
	assert.True(t, pos.UsingAsCollateral)

	// only the enabling flip was recorded
	flips := env.events.byAction(core.ActionSetCollateral)
	require.Len(t, flips, 1)
	assert.True(t, flips[0].Extra().Bool(core.EventKeyEnabled))
}

func TestFrozenReserve(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)
	ctx := context.Background()

	require.NoError(t, env.supply("usdc-main", "bob", "1000"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))
	require.NoError(t, env.borrow("usdc-main", "alice", "10"))

	require.NoError(t, env.engine.UpdateReserveConfig(ctx, &UpdateReserveConfigRequest{
		Caller:     "admin",
		ReserveID:  "usdc-main",
		Frozen:     true,
		Borrowable: true,
	}))

	// frozen blocks new exposure, existing debt can still be unwound
	assert.True(t, errors.Is(env.supply("usdc-main", "carol", "10"), core.ErrReserveFrozen))
	assert.True(t, errors.Is(env.borrow("usdc-main", "alice", "1"), core.ErrReserveFrozen))

	_, _, err := env.engine.Repay(ctx, &RepayRequest{
		ReserveID: "usdc-main",
		UserID:    "alice",
		Amount:    core.MaxAmount,
	})
	require.NoError(t, err)
}

func TestInsufficientLiquidity(t *testing.T) {
	env := newTestEnv(t)
	setupMarket(env)

	require.NoError(t, env.supply("usdc-main", "bob", "40"))
	require.NoError(t, env.supply("btc-main", "alice", "1"))
	require.NoError(t, env.enableCollateral("btc-main", "alice"))

	err := env.borrow("usdc-main", "alice", "50")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInsufficientLiquidity))

	var limitErr *core.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.True(t, limitErr.Limit.Equal(d("40")))
}

type denyAll struct{}

func (denyAll) Allowed(_ context.Context, _, _ string) bool { return false }
