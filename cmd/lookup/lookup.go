package lookup

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/tonebank/internal/app"
	"github.com/tphakala/tonebank/internal/music"
)

// Command creates the lookup command
func Command(ctx *app.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup TONE PITCH",
		Short: "Show which sample plays a pitch",
		Long:  "Show the sample and playback rate a tone uses for PITCH, given as a MIDI number or a note name such as C#4.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			midi, err := music.ParseMIDIOrPitch(args[1], ctx.Settings.Resolver.DefaultOctave)
			if err != nil {
				return err
			}
			if err := ctx.Open(nil); err != nil {
				return err
			}

			c := cmd.Context()
			tone, err := ctx.Catalog.ToneByRef(c, args[0])
			if err != nil {
				return err
			}
			info, err := ctx.Catalog.Lookup(c, tone.ID, midi)
			if err != nil {
				return err
			}
			sample, err := ctx.Catalog.Sample(c, info.SampleID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d (%s): sample %d %s (%s) rate %.4f\n",
				tone.Name, midi, music.Name(midi), sample.ID, sample.Name, music.Name(sample.MIDI), info.Transform)
			return nil
		},
	}
}
