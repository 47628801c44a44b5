package cmd

import (
	"time"

	"github.com/fox-one/pkg/store/db"

	"lendhub/core"
	"lendhub/engine"
	"lendhub/service/account"
	assetservice "lendhub/service/asset"
	"lendhub/service/auth"
	"lendhub/service/oracle"
	vaultservice "lendhub/service/vault"
)

func provideAssetService() core.IAssetService {
	return assetservice.New()
}

func provideOracleService(prices core.IPriceStore) core.IPriceOracleService {
	maxAge := cfg.Oracle.MaxAge
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return oracle.New(prices, maxAge)
}

func provideTransferService(vaults core.IVaultStore) core.ITransferService {
	return vaultservice.New(vaults)
}

func provideAuthorizer() core.IAuthorizer {
	return auth.NewAuthorizer(cfg.Admins)
}

func provideVerifier(users core.IUserStore) core.IVerifier {
	if endpoint := cfg.Auth.CallbackEndpoint; endpoint != "" {
		return auth.NewCallbackVerifier(users, endpoint)
	}

	return auth.NewKeyVerifier(users)
}

func provideAccountService(
	assets core.IAssetStore,
	reserves core.IReserveStore,
	positions core.IPositionStore,
	oraclez core.IPriceOracleService,
) account.IAccountService {
	return account.NewService(assets, reserves, positions, oraclez)
}

func provideEngine(database *db.DB) *engine.Engine {
	assets := provideAssetStore(database)
	spokes := provideSpokeStore(database)
	links := provideSpokeAssetStore(database)
	reserves := provideReserveStore(database)
	positions := providePositionStore(database)
	events := provideEventStore(database)
	prices := providePriceStore(database)
	vaults := provideVaultStore(database)

	return engine.New(
		database,
		assets,
		spokes,
		links,
		reserves,
		positions,
		events,
		provideAssetService(),
		provideOracleService(prices),
		provideTransferService(vaults),
		provideAuthorizer(),
	)
}
