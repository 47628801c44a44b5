package cmd

import (
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lendhub/service/oracle"
	"lendhub/worker"
	"lendhub/worker/pricefeed"
	"lendhub/worker/sentinel"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "lendhub job worker",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		propertyStore := providePropertyStore(database)
		positionStore := providePositionStore(database)
		priceStore := providePriceStore(database)
		assetStore := provideAssetStore(database)
		reserveStore := provideReserveStore(database)

		accountService := provideAccountService(assetStore, reserveStore, positionStore, provideOracleService(priceStore))

		workers := []worker.Worker{
			pricefeed.New(oracle.NewFeedClient(cfg.Oracle.Endpoint), priceStore, cfg.Oracle.Interval),
			sentinel.New(positionStore, accountService, propertyStore, cfg.Sentinel.Interval),
		}

		g, ctx := errgroup.WithContext(ctx)
		for _, w := range workers {
			w := w
			g.Go(func() error {
				return w.Run(ctx)
			})
		}

		if err := g.Wait(); err != nil {
			log.WithError(err).Errorln("worker aborted")
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
