package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/internal/app"
)

// Command creates the list command, printing one "id: name" line per tone.
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.Open(nil); err != nil {
				return err
			}

			tones, err := ctx.Catalog.ListTones(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tones {
				fmt.Fprintf(out, "%d: %s (%d samples)\n", t.ID, t.Name, t.Samples)
			}
			return nil
		},
	}
}
