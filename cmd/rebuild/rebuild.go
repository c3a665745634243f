package rebuild

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/internal/app"
)

// Command creates the rebuild command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild TONE",
		Short: "Recompute the note map of a tone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Open(nil); err != nil {
				return err
			}

			tone, err := ctx.Catalog.ToneByRef(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m, err := ctx.Catalog.RebuildMap(cmd.Context(), tone.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rebuilt %s from %d samples\n", tone.Name, len(m.Roster))
			return nil
		},
	}
}
