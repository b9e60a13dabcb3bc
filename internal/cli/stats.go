package cli

import (
	"github.com/spf13/cobra"

	"mmsim/internal/errors"
	"mmsim/internal/performance"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <session-id>",
		Short: "Show performance statistics for a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errors.ErrDatabaseError
			}
			output := NewOutput(cmd)

			sess, err := app.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			summary := performance.Compute(sess.History, sess.Trades, sess.Collapses)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"id":      sess.ID,
					"asset":   sess.Asset.Symbol,
					"summary": summary,
				})
			}
			performance.Print(output.Writer(), sess.Asset.Symbol, summary)
			return nil
		},
	}
}
