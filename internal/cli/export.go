package cli

import (
	"github.com/spf13/cobra"

	"mmsim/internal/errors"
	"mmsim/internal/export"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		flagFormat string
		flagOut    string
		flagTrades bool
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a saved session to CSV or JSON",
		Long: `Export a saved session. CSV exports the per-tick history (or the
trade list with --trades); JSON exports the full session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "csv" && flagFormat != "json" {
				return errors.NewValidationError("format", flagFormat, "must be 'csv' or 'json'")
			}
			if app.Store == nil {
				return errors.ErrDatabaseError
			}
			output := NewOutput(cmd)

			sess, err := app.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch flagFormat {
			case "csv":
				if flagOut == "" {
					if flagTrades {
						return export.WriteTradesCSV(output.Writer(), sess.Trades)
					}
					return export.WriteHistoryCSV(output.Writer(), sess.History)
				}
				if flagTrades {
					err = export.TradesCSVFile(flagOut, sess.Trades)
				} else {
					err = export.HistoryCSVFile(flagOut, sess.History)
				}
			case "json":
				if flagOut == "" {
					return export.WriteJSON(output.Writer(), sess)
				}
				err = export.JSONFile(flagOut, sess)
			}
			if err != nil {
				return err
			}
			if !output.IsJSON() {
				output.Success("Exported %s to %s", sess.ID, flagOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "csv", "export format: csv or json")
	cmd.Flags().StringVar(&flagOut, "out", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&flagTrades, "trades", false, "export the trade list instead of the tick history (csv only)")

	return cmd
}
