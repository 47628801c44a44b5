package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lendhub/handler/hc"
	"lendhub/handler/rest"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run lendhub api server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		assets := provideAssetStore(database)
		spokes := provideSpokeStore(database)
		reserves := provideReserveStore(database)
		positions := providePositionStore(database)
		events := provideEventStore(database)
		prices := providePriceStore(database)
		users := provideUserStore(database)

		accountz := provideAccountService(assets, reserves, positions, provideOracleService(prices))

		mux := chi.NewMux()
		mux.Use(middleware.Recoverer)
		mux.Use(middleware.StripSlashes)
		mux.Use(cors.AllowAll().Handler)
		mux.Use(logger.WithRequestID)
		mux.Use(middleware.Logger)
		mux.Use(middleware.NewCompressor(5).Handler)

		{
			//hc
			mux.Mount("/hc", hc.Handle(rootCmd.Version))
		}

		{
			//restful api
			mux.Mount("/api", rest.Handle(
				assets,
				spokes,
				reserves,
				events,
				accountz,
				provideVerifier(users),
				provideEngine(database),
			))
		}

		port, _ := cmd.Flags().GetInt("port")
		if port <= 0 {
			port = cfg.App.Port
		}
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
}
