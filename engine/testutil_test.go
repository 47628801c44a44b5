package engine

import (
	"context"
	"testing"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"lendhub/core"
	assetservice "lendhub/service/asset"
)

type memRunner struct{}

func (memRunner) Tx(fn func(tx *db.DB) error) error { return fn(nil) }

type memAssets struct{ m map[string]core.Asset }

func newMemAssets() *memAssets { return &memAssets{m: make(map[string]core.Asset)} }

func (s *memAssets) Create(_ context.Context, _ *db.DB, a *core.Asset) error {
	a.ID = uint64(len(s.m) + 1)
	s.m[a.AssetID] = *a
	return nil
}

func (s *memAssets) Find(_ context.Context, assetID string) (*core.Asset, error) {
	a, ok := s.m[assetID]
	if !ok {
		return nil, core.ErrAssetNotFound
	}
	return &a, nil
}

func (s *memAssets) All(_ context.Context) ([]*core.Asset, error) {
	out := make([]*core.Asset, 0, len(s.m))
	for k := range s.m {
		a := s.m[k]
		out = append(out, &a)
	}
	return out, nil
}

func (s *memAssets) Update(_ context.Context, _ *db.DB, a *core.Asset) error {
	s.m[a.AssetID] = *a
	return nil
}

type memSpokes struct{ m map[string]core.Spoke }

func newMemSpokes() *memSpokes { return &memSpokes{m: make(map[string]core.Spoke)} }

func (s *memSpokes) Create(_ context.Context, _ *db.DB, sp *core.Spoke) error {
	sp.ID = uint64(len(s.m) + 1)
	s.m[sp.SpokeID] = *sp
	return nil
}

func (s *memSpokes) Find(_ context.Context, spokeID string) (*core.Spoke, error) {
	sp, ok := s.m[spokeID]
	if !ok {
		return nil, core.ErrSpokeNotFound
	}
	return &sp, nil
}

func (s *memSpokes) All(_ context.Context) ([]*core.Spoke, error) {
	out := make([]*core.Spoke, 0, len(s.m))
	for k := range s.m {
		sp := s.m[k]
		out = append(out, &sp)
	}
	return out, nil
}

func (s *memSpokes) Update(_ context.Context, _ *db.DB, sp *core.Spoke) error {
	s.m[sp.SpokeID] = *sp
	return nil
}

type memLinks struct{ m map[string]core.SpokeAsset }

func newMemLinks() *memLinks { return &memLinks{m: make(map[string]core.SpokeAsset)} }

func (s *memLinks) Create(_ context.Context, _ *db.DB, l *core.SpokeAsset) error {
	l.ID = uint64(len(s.m) + 1)
	s.m[linkKey(l.SpokeID, l.AssetID)] = *l
	return nil
}

func (s *memLinks) Find(_ context.Context, spokeID, assetID string) (*core.SpokeAsset, error) {
	l, ok := s.m[linkKey(spokeID, assetID)]
	if !ok {
		return nil, core.ErrSpokeAssetInactive
	}
	return &l, nil
}

func (s *memLinks) FindByAsset(_ context.Context, assetID string) ([]*core.SpokeAsset, error) {
	var out []*core.SpokeAsset
	for k := range s.m {
		l := s.m[k]
		if l.AssetID == assetID {
			out = append(out, &l)
		}
	}
	return out, nil
}

func (s *memLinks) Update(_ context.Context, _ *db.DB, l *core.SpokeAsset) error {
	s.m[linkKey(l.SpokeID, l.AssetID)] = *l
	return nil
}

type memReserves struct {
	m    map[string]core.Reserve
	cfgs map[string]core.DynamicConfig
}

func newMemReserves() *memReserves {
	return &memReserves{
		m:    make(map[string]core.Reserve),
		cfgs: make(map[string]core.DynamicConfig),
	}
}

func (s *memReserves) Create(_ context.Context, _ *db.DB, r *core.Reserve) error {
	r.ID = uint64(len(s.m) + 1)
	s.m[r.ReserveID] = *r
	return nil
}

func (s *memReserves) Find(_ context.Context, reserveID string) (*core.Reserve, error) {
	r, ok := s.m[reserveID]
	if !ok {
		return nil, core.ErrReserveNotFound
	}
	return &r, nil
}

func (s *memReserves) FindBySpoke(_ context.Context, spokeID string) ([]*core.Reserve, error) {
	var out []*core.Reserve
	for k := range s.m {
		r := s.m[k]
		if r.SpokeID == spokeID {
			out = append(out, &r)
		}
	}
	return out, nil
}

func (s *memReserves) All(_ context.Context) ([]*core.Reserve, error) {
	out := make([]*core.Reserve, 0, len(s.m))
	for k := range s.m {
		r := s.m[k]
		out = append(out, &r)
	}
	return out, nil
}

func (s *memReserves) Update(_ context.Context, _ *db.DB, r *core.Reserve) error {
	s.m[r.ReserveID] = *r
	return nil
}

func (s *memReserves) CreateConfig(_ context.Context, _ *db.DB, cfg *core.DynamicConfig) error {
	s.cfgs[configKey(cfg.ReserveID, cfg.Ver)] = *cfg
	return nil
}

func (s *memReserves) FindConfig(_ context.Context, reserveID string, ver int64) (*core.DynamicConfig, error) {
	cfg, ok := s.cfgs[configKey(reserveID, ver)]
	if !ok {
		return nil, core.ErrInvalidConfig
	}
	return &cfg, nil
}

func (s *memReserves) ListConfigs(_ context.Context, reserveID string) ([]*core.DynamicConfig, error) {
	var out []*core.DynamicConfig
	for k := range s.cfgs {
		cfg := s.cfgs[k]
		if cfg.ReserveID == reserveID {
			out = append(out, &cfg)
		}
	}
	return out, nil
}

type memPositions struct {
	m    map[string]core.Position
	next uint64
}

func newMemPositions() *memPositions { return &memPositions{m: make(map[string]core.Position)} }

func (s *memPositions) Save(_ context.Context, _ *db.DB, p *core.Position) error {
	if p.ID == 0 {
		s.next++
		p.ID = s.next
	}
	s.m[positionKey(p.ReserveID, p.UserID)] = *p
	return nil
}

func (s *memPositions) Find(_ context.Context, reserveID, userID string) (*core.Position, error) {
	if p, ok := s.m[positionKey(reserveID, userID)]; ok {
		return &p, nil
	}
	return &core.Position{ReserveID: reserveID, UserID: userID}, nil
}

func (s *memPositions) FindByUser(_ context.Context, userID string) ([]*core.Position, error) {
	var out []*core.Position
	for k := range s.m {
		p := s.m[k]
		if p.UserID == userID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (s *memPositions) FindByReserve(_ context.Context, reserveID string) ([]*core.Position, error) {
	var out []*core.Position
	for k := range s.m {
		p := s.m[k]
		if p.ReserveID == reserveID {
			out = append(out, &p)
		}
	}
	return out, nil
}

func (s *memPositions) Users(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.m {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (s *memPositions) Delete(_ context.Context, _ *db.DB, p *core.Position) error {
	delete(s.m, positionKey(p.ReserveID, p.UserID))
	return nil
}

type memEvents struct{ list []*core.Event }

func (s *memEvents) Create(_ context.Context, _ *db.DB, e *core.Event) error {
	cp := *e
	cp.ID = uint64(len(s.list) + 1)
	s.list = append(s.list, &cp)
	return nil
}

func (s *memEvents) List(_ context.Context, fromID uint64, limit int) ([]*core.Event, error) {
	var out []*core.Event
	for _, e := range s.list {
		if e.ID > fromID {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memEvents) FindByUser(_ context.Context, userID string, limit int) ([]*core.Event, error) {
	var out []*core.Event
	for _, e := range s.list {
		if e.UserID == userID {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memEvents) byAction(action core.ActionType) []*core.Event {
	var out []*core.Event
	for _, e := range s.list {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type memOracle struct{ prices map[string]decimal.Decimal }

func (s *memOracle) GetAssetPrice(_ context.Context, assetID string) (decimal.Decimal, error) {
	p, ok := s.prices[assetID]
	if !ok {
		return decimal.Zero, core.ErrInvalidPrice
	}
	return p, nil
}

type memTransfer struct {
	in  []transferOp
	out []transferOp
}

func (s *memTransfer) TransferFrom(_ context.Context, _ *db.DB, userID, assetID string, amount decimal.Decimal) error {
	s.in = append(s.in, transferOp{userID: userID, assetID: assetID, amount: amount})
	return nil
}

func (s *memTransfer) Transfer(_ context.Context, _ *db.DB, userID, assetID string, amount decimal.Decimal) error {
	s.out = append(s.out, transferOp{userID: userID, assetID: assetID, amount: amount})
	return nil
}

type allowAll struct{}

func (allowAll) Allowed(_ context.Context, _, _ string) bool { return true }

type testEnv struct {
	t *testing.T

	engine    *Engine
	assets    *memAssets
	spokes    *memSpokes
	links     *memLinks
	reserves  *memReserves
	positions *memPositions
	events    *memEvents
	oracle    *memOracle
	transfer  *memTransfer

	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		t:         t,
		assets:    newMemAssets(),
		spokes:    newMemSpokes(),
		links:     newMemLinks(),
		reserves:  newMemReserves(),
		positions: newMemPositions(),
		events:    &memEvents{},
		oracle:    &memOracle{prices: make(map[string]decimal.Decimal)},
		transfer:  &memTransfer{},
		now:       time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	env.engine = New(
		memRunner{},
		env.assets,
		env.spokes,
		env.links,
		env.reserves,
		env.positions,
		env.events,
		assetservice.New(),
		env.oracle,
		env.transfer,
		allowAll{},
	)
	env.engine.clock = func() time.Time { return env.now }

	return env
}

func (env *testEnv) elapse(d time.Duration) {
	env.now = env.now.Add(d)
}

func (env *testEnv) setPrice(assetID, price string) {
	env.oracle.prices[assetID] = d(price)
}

func (env *testEnv) listAsset(assetID, symbol, price string) {
	require.NoError(env.t, env.engine.AddAsset(context.Background(), &AddAssetRequest{
		Caller:          "admin",
		AssetID:         assetID,
		Symbol:          symbol,
		ProtocolFeeRate: d("0.1"),
		BaseRate:        d("0.025"),
		Slope:           d("0.1"),
		JumpSlope:       d("2"),
		Kink:            d("0.8"),
	}))
	env.setPrice(assetID, price)
}

func (env *testEnv) addSpoke(spokeID, closeFactor, target, hfMax, growth string) {
	require.NoError(env.t, env.engine.AddSpoke(context.Background(), &AddSpokeRequest{
		Caller:                  "admin",
		SpokeID:                 spokeID,
		Name:                    spokeID,
		CloseFactor:             d(closeFactor),
		TargetHealthFactor:      d(target),
		HealthFactorForMaxBonus: d(hfMax),
		BonusGrowthFactor:       d(growth),
	}))
}

func (env *testEnv) linkAsset(spokeID, assetID, supplyCap, drawCap string) {
	require.NoError(env.t, env.engine.SetSpokeAsset(context.Background(), &SetSpokeAssetRequest{
		Caller:    "admin",
		SpokeID:   spokeID,
		AssetID:   assetID,
		Active:    true,
		SupplyCap: d(supplyCap),
		DrawCap:   d(drawCap),
	}))
}

func (env *testEnv) addReserve(reserveID, spokeID, assetID, collateralFactor, premium string) {
	require.NoError(env.t, env.engine.AddReserve(context.Background(), &AddReserveRequest{
		Caller:              "admin",
		ReserveID:           reserveID,
		SpokeID:             spokeID,
		AssetID:             assetID,
		Borrowable:          true,
		LiquidityPremium:    d(premium),
		CollateralFactor:    d(collateralFactor),
		MinLiquidationBonus: d("0.05"),
		MaxLiquidationBonus: d("0.1"),
		LiquidationFee:      d("0.1"),
	}))
}

func (env *testEnv) supply(reserveID, user, amount string) error {
	return env.engine.Supply(context.Background(), &SupplyRequest{
		ReserveID:  reserveID,
		Payer:      user,
		OnBehalfOf: user,
		Amount:     d(amount),
	})
}

func (env *testEnv) enableCollateral(reserveID, user string) error {
	return env.engine.SetUsingAsCollateral(context.Background(), &CollateralRequest{
		ReserveID: reserveID,
		UserID:    user,
		Enabled:   true,
	})
}

func (env *testEnv) borrow(reserveID, user, amount string) error {
	return env.engine.Borrow(context.Background(), &BorrowRequest{
		ReserveID:  reserveID,
		OnBehalfOf: user,
		Amount:     d(amount),
	})
}

// checkConservation asserts the nested share ledgers agree at every level
func (env *testEnv) checkConservation() {
	t := env.t

	type sums struct {
		supplied, base, premShares, premOffset decimal.Decimal
	}
	zero := sums{decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero}

	byAsset := make(map[string]sums)
	byReserve := make(map[string]sums)
	for _, p := range env.positions.m {
		r := env.reserves.m[p.ReserveID]

		as, ok := byAsset[r.AssetID]
		if !ok {
			as = zero
		}
		as.supplied = as.supplied.Add(p.SuppliedShares)
		as.base = as.base.Add(p.BaseDebtShares)
		as.premShares = as.premShares.Add(p.PremiumShares)
		as.premOffset = as.premOffset.Add(p.PremiumOffset)
		byAsset[r.AssetID] = as

		rs, ok := byReserve[p.ReserveID]
		if !ok {
			rs = zero
		}
		rs.supplied = rs.supplied.Add(p.SuppliedShares)
		rs.base = rs.base.Add(p.BaseDebtShares)
		byReserve[p.ReserveID] = rs
	}

	for assetID, a := range env.assets.m {
		got, ok := byAsset[assetID]
		if !ok {
			got = zero
		}
		require.True(t, a.TotalSuppliedShares.Equal(got.supplied.Add(a.TreasuryShares)),
			"asset %s supplied shares: ledger %s vs positions %s + treasury %s",
			assetID, a.TotalSuppliedShares, got.supplied, a.TreasuryShares)
		require.True(t, a.TotalBaseDebtShares.Equal(got.base),
			"asset %s base debt shares: ledger %s vs positions %s",
			assetID, a.TotalBaseDebtShares, got.base)
		require.True(t, a.TotalPremiumShares.Equal(got.premShares),
			"asset %s premium shares: ledger %s vs positions %s",
			assetID, a.TotalPremiumShares, got.premShares)
		require.True(t, a.PremiumOffset.Equal(got.premOffset),
			"asset %s premium offset: ledger %s vs positions %s",
			assetID, a.PremiumOffset, got.premOffset)
	}

	for reserveID, r := range env.reserves.m {
		got, ok := byReserve[reserveID]
		if !ok {
			got = zero
		}
		require.True(t, r.SuppliedShares.Equal(got.supplied),
			"reserve %s supplied shares: ledger %s vs positions %s",
			reserveID, r.SuppliedShares, got.supplied)
		require.True(t, r.BaseDebtShares.Equal(got.base),
			"reserve %s base debt shares: ledger %s vs positions %s",
			reserveID, r.BaseDebtShares, got.base)
	}

	// reserves roll up into links, links roll up into assets
	byLink := make(map[string]sums)
	byAssetLinks := make(map[string]sums)
	for _, r := range env.reserves.m {
		key := linkKey(r.SpokeID, r.AssetID)
		ls, ok := byLink[key]
		if !ok {
			ls = zero
		}
		ls.supplied = ls.supplied.Add(r.SuppliedShares)
		ls.base = ls.base.Add(r.BaseDebtShares)
		ls.premShares = ls.premShares.Add(r.PremiumShares)
		ls.premOffset = ls.premOffset.Add(r.PremiumOffset)
		byLink[key] = ls
	}

	for key, l := range env.links.m {
		got, ok := byLink[key]
		if !ok {
			got = zero
		}
		require.True(t, l.SuppliedShares.Equal(got.supplied),
			"link %s supplied shares: ledger %s vs reserves %s",
			key, l.SuppliedShares, got.supplied)
		require.True(t, l.BaseDebtShares.Equal(got.base),
			"link %s base debt shares: ledger %s vs reserves %s",
			key, l.BaseDebtShares, got.base)
		require.True(t, l.PremiumShares.Equal(got.premShares),
			"link %s premium shares: ledger %s vs reserves %s",
			key, l.PremiumShares, got.premShares)
		require.True(t, l.PremiumOffset.Equal(got.premOffset),
			"link %s premium offset: ledger %s vs reserves %s",
			key, l.PremiumOffset, got.premOffset)

		as, ok := byAssetLinks[l.AssetID]
		if !ok {
			as = zero
		}
		as.supplied = as.supplied.Add(l.SuppliedShares)
		as.base = as.base.Add(l.BaseDebtShares)
		as.premShares = as.premShares.Add(l.PremiumShares)
		as.premOffset = as.premOffset.Add(l.PremiumOffset)
		byAssetLinks[l.AssetID] = as
	}

	for assetID, a := range env.assets.m {
		got, ok := byAssetLinks[assetID]
		if !ok {
			got = zero
		}
		require.True(t, a.TotalSuppliedShares.Equal(got.supplied.Add(a.TreasuryShares)),
			"asset %s supplied shares: ledger %s vs links %s + treasury %s",
			assetID, a.TotalSuppliedShares, got.supplied, a.TreasuryShares)
		require.True(t, a.TotalBaseDebtShares.Equal(got.base),
			"asset %s base debt shares: ledger %s vs links %s",
			assetID, a.TotalBaseDebtShares, got.base)
		require.True(t, a.TotalPremiumShares.Equal(got.premShares),
			"asset %s premium shares: ledger %s vs links %s",
			assetID, a.TotalPremiumShares, got.premShares)
		require.True(t, a.PremiumOffset.Equal(got.premOffset),
			"asset %s premium offset: ledger %s vs links %s",
			assetID, a.PremiumOffset, got.premOffset)
	}
}

func d(v string) decimal.Decimal {
	out, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return out
}
