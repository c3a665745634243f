package retune

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/internal/app"
	"github.com/tphakala/tonebank/internal/music"
)

// Command creates the retune command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "retune SAMPLE_ID PITCH",
		Short: "Correct the recorded pitch of a sample",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sample id %q: %w", args[0], err)
			}
			midi, err := music.ParseMIDIOrPitch(args[1], ctx.Settings.Resolver.DefaultOctave)
			if err != nil {
				return err
			}
			if err := ctx.Open(nil); err != nil {
				return err
			}

			sample, err := ctx.Catalog.RetuneSample(cmd.Context(), uint(id), midi)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample %d is now %d (%s)\n", sample.ID, sample.MIDI, music.Name(sample.MIDI))
			return nil
		},
	}
}
