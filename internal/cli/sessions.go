package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mmsim/internal/errors"
	"mmsim/internal/performance"
	"mmsim/pkg/utils"
)

func newSessionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved sessions",
	}

	var listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errors.ErrDatabaseError
			}
			output := NewOutput(cmd)

			sessions, err := app.Store.List(cmd.Context(), listLimit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(sessions)
			}
			if len(sessions) == 0 {
				output.Dim("No saved sessions.")
				return nil
			}

			table := NewTable(output, "ID", "CREATED", "ASSET", "MODE", "SEED", "EQUITY", "TRADES", "COLLAPSES")
			for _, s := range sessions {
				table.AddRow(
					s.ID,
					s.CreatedAt.Format(time.DateTime),
					s.Symbol,
					s.Mode,
					strconv.FormatUint(uint64(s.Seed), 10),
					utils.FormatPrice(s.FinalEquity, 2),
					strconv.Itoa(s.TradeCount),
					strconv.Itoa(s.CollapseCount),
				)
			}
			table.Render()
			return nil
		},
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum sessions to list (0: all)")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a saved session",
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
			if output.IsJSON() {
				return output.JSON(sess)
			}

			output.Bold("Session %s", sess.ID)
			output.Printf("  Created:   %s\n", sess.CreatedAt.Format(time.DateTime))
			output.Printf("  Asset:     %s\n", sess.Asset.Symbol)
			output.Printf("  Mode:      %s\n", sess.Mode)
			output.Printf("  Regime:    %s\n", sess.Regime)
			output.Printf("  Seed:      %d\n", sess.Seed)
			output.Println()
			performance.Print(output.Writer(), sess.Asset.Symbol,
				performance.Compute(sess.History, sess.Trades, sess.Collapses))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errors.ErrDatabaseError
			}
			output := NewOutput(cmd)
			if err := app.Store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("Deleted session %s", args[0])
			return nil
		},
	})

	return cmd
}
