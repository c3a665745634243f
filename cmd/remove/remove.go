package remove

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/internal/app"
)

// Command creates the remove command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "remove SAMPLE_ID",
		Short: "Delete a sample and its managed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sample id %q: %w", args[0], err)
			}
			if err := ctx.Open(nil); err != nil {
				return err
			}

			if err := ctx.Catalog.RemoveSample(cmd.Context(), uint(id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed sample %d\n", id)
			return nil
		},
	}
}
