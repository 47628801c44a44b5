package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"

	"lendhub/core"
	"lendhub/service/account"
)

type transferOp struct {
	userID  string
	assetID string
	amount  decimal.Decimal
}

// staging holds copies of every entity touched by one action (or one
// batch). Mutations happen on the copies; commit persists them all in a
// single transaction. Dropping the staging without commit discards
// everything.
type staging struct {
	e   *Engine
	ctx context.Context
	now time.Time

	assets    map[string]*core.Asset
	spokes    map[string]*core.Spoke
	links     map[string]*core.SpokeAsset
	reserves  map[string]*core.Reserve
	positions map[string]*core.Position
	configs   map[string]*core.DynamicConfig
	prices    map[string]decimal.Decimal

	dirty      map[string]bool
	created    map[string]bool
	newConfigs []*core.DynamicConfig

	transfersIn  []transferOp
	transfersOut []transferOp
	events       []*core.Event

	owned []string
}

func (e *Engine) newStaging(ctx context.Context) *staging {
	return &staging{
		e:         e,
		ctx:       ctx,
		now:       e.clock(),
		assets:    make(map[string]*core.Asset),
		spokes:    make(map[string]*core.Spoke),
		links:     make(map[string]*core.SpokeAsset),
		reserves:  make(map[string]*core.Reserve),
		positions: make(map[string]*core.Position),
		configs:   make(map[string]*core.DynamicConfig),
		prices:    make(map[string]decimal.Decimal),
		dirty:     make(map[string]bool),
		created:   make(map[string]bool),
	}
}

// guard marks an entity as mid-mutation for the lifetime of the staging.
// A second action reaching the same entity before release is a re-entrant
// call.
func (s *staging) guard(key string) error {
	if s.e.busy[key] {
		for _, own := range s.owned {
			if own == key {
				return nil
			}
		}
		return core.ErrReentrantCall
	}

	s.e.busy[key] = true
	s.owned = append(s.owned, key)
	return nil
}

func (s *staging) release() {
	for _, key := range s.owned {
		delete(s.e.busy, key)
	}
	s.owned = nil
}

func linkKey(spokeID, assetID string) string {
	return spokeID + "|" + assetID
}

func positionKey(reserveID, userID string) string {
	return reserveID + "|" + userID
}

// asset loads, guards and lazily accrues the asset ledger
func (s *staging) asset(assetID string) (*core.Asset, error) {
	if a, ok := s.assets[assetID]; ok {
		return a, nil
	}

	if err := s.guard("asset:" + assetID); err != nil {
		return nil, err
	}

	found, err := s.e.assets.Find(s.ctx, assetID)
	if err != nil {
		return nil, err
	}

	a := *found
	before := a.LastUpdate
	if err := s.e.assetz.Accrue(s.ctx, &a, s.now); err != nil {
		return nil, err
	}
	if !a.LastUpdate.Equal(before) {
		s.dirty["asset:"+assetID] = true
	}

	s.assets[assetID] = &a
	return &a, nil
}

func (s *staging) spoke(spokeID string) (*core.Spoke, error) {
	if sp, ok := s.spokes[spokeID]; ok {
		return sp, nil
	}

	if err := s.guard("spoke:" + spokeID); err != nil {
		return nil, err
	}

	found, err := s.e.spokes.Find(s.ctx, spokeID)
	if err != nil {
		return nil, err
	}

	sp := *found
	s.spokes[spokeID] = &sp
	return &sp, nil
}

func (s *staging) link(spokeID, assetID string) (*core.SpokeAsset, error) {
	key := linkKey(spokeID, assetID)
	if l, ok := s.links[key]; ok {
		return l, nil
	}

	if err := s.guard("link:" + key); err != nil {
		return nil, err
	}

	found, err := s.e.links.Find(s.ctx, spokeID, assetID)
	if err != nil {
		return nil, err
	}

	l := *found
	s.links[key] = &l
	return &l, nil
}

func (s *staging) reserve(reserveID string) (*core.Reserve, error) {
	if r, ok := s.reserves[reserveID]; ok {
		return r, nil
	}

	if err := s.guard("reserve:" + reserveID); err != nil {
		return nil, err
	}

	found, err := s.e.reserves.Find(s.ctx, reserveID)
	if err != nil {
		return nil, err
	}

	r := *found
	s.reserves[reserveID] = &r
	return &r, nil
}

// position returns an empty model (ID == 0) when the user has no row yet
func (s *staging) position(reserveID, userID string) (*core.Position, error) {
	key := positionKey(reserveID, userID)
	if p, ok := s.positions[key]; ok {
		return p, nil
	}

	if err := s.guard("position:" + key); err != nil {
		return nil, err
	}

	found, err := s.e.positions.Find(s.ctx, reserveID, userID)
	if err != nil {
		return nil, err
	}

	p := *found
	p.ReserveID = reserveID
	p.UserID = userID
	s.positions[key] = &p
	return &p, nil
}

// config resolves a dynamic config version, staged versions included
func (s *staging) config(reserveID string, ver int64) (*core.DynamicConfig, error) {
	for _, cfg := range s.newConfigs {
		if cfg.ReserveID == reserveID && cfg.Ver == ver {
			return cfg, nil
		}
	}

	cacheKey := configKey(reserveID, ver)
	if cfg, ok := s.configs[cacheKey]; ok {
		return cfg, nil
	}

	found, err := s.e.reserves.FindConfig(s.ctx, reserveID, ver)
	if err != nil {
		return nil, err
	}

	cfg := *found
	s.configs[cacheKey] = &cfg
	return &cfg, nil
}

func configKey(reserveID string, ver int64) string {
	return reserveID + "#" + strconv.FormatInt(ver, 10)
}

func (s *staging) price(assetID string) (decimal.Decimal, error) {
	if p, ok := s.prices[assetID]; ok {
		return p, nil
	}

	p, err := s.e.oracle.GetAssetPrice(s.ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	if !p.IsPositive() {
		return decimal.Zero, core.ErrInvalidPrice
	}

	s.prices[assetID] = p
	return p, nil
}

// userItems values every position the user holds on the spoke, staged
// copies first. Pins resolve through each position's own config version.
func (s *staging) userItems(spokeID, userID string) ([]account.PositionValue, error) {
	committed, err := s.e.positions.FindByUser(s.ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]*core.Position)
	for _, p := range committed {
		seen[positionKey(p.ReserveID, p.UserID)] = p
	}
	for key, p := range s.positions {
		if p.UserID == userID {
			seen[key] = p
		}
	}

	items := make([]account.PositionValue, 0, len(seen))
	for _, p := range seen {
		// make sure the staged copy wins even for committed rows
		staged, err := s.position(p.ReserveID, p.UserID)
		if err != nil {
			return nil, err
		}

		reserve, err := s.reserve(staged.ReserveID)
		if err != nil {
			return nil, err
		}
		if reserve.SpokeID != spokeID {
			continue
		}

		asset, err := s.asset(reserve.AssetID)
		if err != nil {
			return nil, err
		}

		cfg, err := s.config(reserve.ReserveID, staged.ConfigVersion)
		if err != nil {
			return nil, err
		}

		price, err := s.price(asset.AssetID)
		if err != nil {
			return nil, err
		}

		items = append(items, account.Value(staged, reserve, asset, cfg, price))
	}

	return items, nil
}

func (s *staging) markAsset(a *core.Asset)       { s.dirty["asset:"+a.AssetID] = true }
func (s *staging) markSpoke(sp *core.Spoke)      { s.dirty["spoke:"+sp.SpokeID] = true }
func (s *staging) markLink(l *core.SpokeAsset)   { s.dirty["link:"+linkKey(l.SpokeID, l.AssetID)] = true }
func (s *staging) markReserve(r *core.Reserve)   { s.dirty["reserve:"+r.ReserveID] = true }
func (s *staging) markPosition(p *core.Position) { s.dirty["position:"+positionKey(p.ReserveID, p.UserID)] = true }

func (s *staging) transferIn(userID, assetID string, amount decimal.Decimal) {
	s.transfersIn = append(s.transfersIn, transferOp{userID: userID, assetID: assetID, amount: amount})
}

func (s *staging) transferOut(userID, assetID string, amount decimal.Decimal) {
	s.transfersOut = append(s.transfersOut, transferOp{userID: userID, assetID: assetID, amount: amount})
}

func (s *staging) emit(event *core.Event) {
	event.CreatedAt = s.now
	s.events = append(s.events, event)
}

// commit persists every dirty entity, staged config, transfer and event in
// one transaction.
func (s *staging) commit() error {
	return s.e.db.Tx(func(tx *db.DB) error {
		for id, a := range s.assets {
			if !s.dirty["asset:"+id] {
				continue
			}
			if s.created["asset:"+id] {
				if err := s.e.assets.Create(s.ctx, tx, a); err != nil {
					return err
				}
				continue
			}
			if err := s.e.assets.Update(s.ctx, tx, a); err != nil {
				return err
			}
		}

		for id, sp := range s.spokes {
			if !s.dirty["spoke:"+id] {
				continue
			}
			if s.created["spoke:"+id] {
				if err := s.e.spokes.Create(s.ctx, tx, sp); err != nil {
					return err
				}
				continue
			}
			if err := s.e.spokes.Update(s.ctx, tx, sp); err != nil {
				return err
			}
		}

		for key, l := range s.links {
			if !s.dirty["link:"+key] {
				continue
			}
			if s.created["link:"+key] {
				if err := s.e.links.Create(s.ctx, tx, l); err != nil {
					return err
				}
				continue
			}
			if err := s.e.links.Update(s.ctx, tx, l); err != nil {
				return err
			}
		}

		for id, r := range s.reserves {
			if !s.dirty["reserve:"+id] {
				continue
			}
			if s.created["reserve:"+id] {
				if err := s.e.reserves.Create(s.ctx, tx, r); err != nil {
					return err
				}
				continue
			}
			if err := s.e.reserves.Update(s.ctx, tx, r); err != nil {
				return err
			}
		}

		for _, cfg := range s.newConfigs {
			if err := s.e.reserves.CreateConfig(s.ctx, tx, cfg); err != nil {
				return err
			}
		}

		for key, p := range s.positions {
			if !s.dirty["position:"+key] {
				continue
			}

			asset, ok := s.assetForPosition(p)
			if ok && p.ID > 0 && p.Empty(asset.BorrowIndex) {
				if err := s.e.positions.Delete(s.ctx, tx, p); err != nil {
					return err
				}
				continue
			}
			if err := s.e.positions.Save(s.ctx, tx, p); err != nil {
				return err
			}
		}

		for _, op := range s.transfersIn {
			if err := s.e.transfer.TransferFrom(s.ctx, tx, op.userID, op.assetID, op.amount); err != nil {
				return err
			}
		}
		for _, op := range s.transfersOut {
			if err := s.e.transfer.Transfer(s.ctx, tx, op.userID, op.assetID, op.amount); err != nil {
				return err
			}
		}

		for _, event := range s.events {
			if err := s.e.events.Create(s.ctx, tx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s *staging) assetForPosition(p *core.Position) (*core.Asset, bool) {
	r, ok := s.reserves[p.ReserveID]
	if !ok {
		return nil, false
	}
	a, ok := s.assets[r.AssetID]
	return a, ok
}
