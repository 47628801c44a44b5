package cmd

import (
	"github.com/spf13/cobra"
)

// command for inspecting listed reserves
var reservesCmd = &cobra.Command{
	Use:     "reserves",
	Aliases: []string{"rs"},
	Short:   "list reserves",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		reserveStore := provideReserveStore(database)

		spokeID, _ := cmd.Flags().GetString("spoke")

		reserves, err := reserveStore.All(ctx)
		if spokeID != "" {
			reserves, err = reserveStore.FindBySpoke(ctx, spokeID)
		}
		if err != nil {
			cmd.PrintErrln("list reserves error:", err)
			return
		}

		for _, r := range reserves {
			cfg, err := reserveStore.FindConfig(ctx, r.ReserveID, r.CurrentVersion)
			if err != nil {
				cmd.PrintErrln("read config error:", r.ReserveID, err)
				return
			}

			cmd.Printf("%s\tspoke=%s asset=%s v%d cf=%s bonus=[%s,%s] fee=%s premium=%s paused=%v frozen=%v borrowable=%v\n",
				r.ReserveID, r.SpokeID, r.AssetID, r.CurrentVersion,
				cfg.CollateralFactor, cfg.MinLiquidationBonus, cfg.MaxLiquidationBonus,
				cfg.LiquidationFee, r.LiquidityPremium,
				r.Paused, r.Frozen, r.Borrowable)
		}
	},
}

func init() {
	rootCmd.AddCommand(reservesCmd)
	reservesCmd.Flags().String("spoke", "", "only reserves of this spoke")
}
