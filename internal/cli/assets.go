package cli

import (
	"github.com/spf13/cobra"

	"mmsim/internal/config"
	"mmsim/internal/models"
	"mmsim/pkg/utils"
)

func newAssetsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List the asset table",
		Long:  "List the built-in assets with any configured overrides applied.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			assets := make([]models.AssetConfig, 0, len(config.AssetSymbols()))
			for _, symbol := range config.AssetSymbols() {
				asset, err := app.Config.ResolveAsset(symbol)
				if err != nil {
					return err
				}
				assets = append(assets, asset)
			}

			if output.IsJSON() {
				return output.JSON(assets)
			}

			table := NewTable(output, "SYMBOL", "FEED", "INIT PRICE", "TICK", "MAX POS", "K_VOL", "K_POS", "BASE VOL")
			for _, a := range assets {
				table.AddRow(
					a.Symbol,
					a.FeedID,
					utils.FormatPrice(a.InitPrice, a.Precision),
					utils.FormatQty(a.TickSize),
					utils.FormatQty(a.MaxPosition),
					utils.FormatQty(a.KVol),
					utils.FormatQty(a.KPos),
					utils.FormatQty(a.BaseVol),
				)
			}
			table.Render()
			return nil
		},
	}
}
