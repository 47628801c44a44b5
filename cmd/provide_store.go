package cmd

import (
	"time"

	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
	"lendhub/store/asset"
	"lendhub/store/event"
	"lendhub/store/position"
	"lendhub/store/price"
	"lendhub/store/reserve"
	"lendhub/store/spoke"
	"lendhub/store/spokeasset"
	"lendhub/store/user"
	"lendhub/store/vault"
)

func provideAssetStore(db *db.DB) core.IAssetStore {
	return asset.New(db)
}

func provideSpokeStore(db *db.DB) core.ISpokeStore {
	return spoke.New(db)
}

func provideSpokeAssetStore(db *db.DB) core.ISpokeAssetStore {
	return spokeasset.New(db)
}

func provideReserveStore(db *db.DB) core.IReserveStore {
	return reserve.New(db)
}

func providePositionStore(db *db.DB) core.IPositionStore {
	return position.New(db)
}

func provideEventStore(db *db.DB) core.IEventStore {
	return event.New(db)
}

func providePriceStore(db *db.DB) core.IPriceStore {
	return price.Cache(price.New(db), time.Second)
}

func provideVaultStore(db *db.DB) core.IVaultStore {
	return vault.New(db)
}

func provideUserStore(db *db.DB) core.IUserStore {
	return user.New(db)
}
