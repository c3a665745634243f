package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/tonebank/internal/app"
	"github.com/tphakala/tonebank/internal/audiofile"
	"github.com/tphakala/tonebank/internal/catalog"
	"github.com/tphakala/tonebank/internal/datastore/entities"
	"github.com/tphakala/tonebank/internal/errors"
	"github.com/tphakala/tonebank/internal/logger"
	"github.com/tphakala/tonebank/internal/music"
	"github.com/tphakala/tonebank/internal/resolver"
)

const (
	// DefaultBPM is recorded for samples ingested without --bpm
	DefaultBPM = 110

	// previewMIDI is the pitch whose play info is printed after ingestion
	previewMIDI = 60

	// maxConcurrentTones bounds how many tones are ingested in parallel
	maxConcurrentTones = 4
)

// Options holds the ingest flags
type Options struct {
	Tone        string
	MIDI        int
	Note        string
	Octave      int
	BPM         int
	Source      string
	SampleRate  int
	Interactive bool
}

// Command creates the ingest command
func Command(ctx *app.Context) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Add audio files to the catalog",
		Long: `Add WAV and FLAC files to the catalog. Directories are walked recursively.
Each file joins the tone named after its parent directory unless --tone is given.
Pitches come from --midi, --note/--octave, the file name, pitch tracking and,
with --interactive, a prompt.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, ctx, opts, args)
		},
	}

	setupFlags(cmd, opts)
	return cmd
}

func setupFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVar(&opts.Tone, "tone", "", "Tone to add files to (default: parent directory name)")
	cmd.Flags().IntVar(&opts.MIDI, "midi", 0, "MIDI pitch of every file")
	cmd.Flags().StringVar(&opts.Note, "note", "", "Note name of every file, e.g. D or F#")
	cmd.Flags().IntVar(&opts.Octave, "octave", 0, "Octave for --note")
	cmd.Flags().IntVar(&opts.BPM, "bpm", DefaultBPM, "Tempo recorded with the samples")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Source URL or description recorded with the samples")
	cmd.Flags().IntVar(&opts.SampleRate, "samplerate", 0, "Sample rate when the file header does not provide one")
	cmd.Flags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for the note when it cannot be determined")
}

// request builds the ingest request for one file from the flags
func (o *Options) request(cmd *cobra.Command, path, tone string) catalog.IngestRequest {
	req := catalog.IngestRequest{
		Path: path,
		Tone: tone,
		Options: catalog.SampleOptions{
			SampleRate: o.SampleRate,
		},
	}
	if cmd.Flags().Changed("midi") {
		midi := o.MIDI
		req.MIDI = &midi
	}
	if o.Note != "" {
		req.NoteName = o.Note
		if cmd.Flags().Changed("octave") {
			octave := o.Octave
			req.Octave = &octave
		}
	}
	bpm := o.BPM
	req.Options.BPM = &bpm
	if o.Source != "" {
		source := o.Source
		req.Options.Source = &source
	}
	return req
}

func run(cmd *cobra.Command, ctx *app.Context, opts *Options, args []string) error {
	var prompter resolver.Prompter
	if opts.Interactive {
		prompter = newLinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	if err := ctx.Open(prompter); err != nil {
		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .wav or .flac files found")
	}
	groups := groupByTone(files, opts.Tone)

	log := ctx.Log
	var (
		mu      sync.Mutex
		failed  int
		touched = map[string]*entities.Tone{}
	)

	g, gctx := errgroup.WithContext(cmd.Context())
	// one prompt at a time
	if opts.Interactive {
		g.SetLimit(1)
	} else {
		g.SetLimit(maxConcurrentTones)
	}

	for _, group := range groups {
		g.Go(func() error {
			for _, path := range group.files {
				res, err := ctx.Catalog.Ingest(gctx, opts.request(cmd, path, group.tone))
				if errors.IsCancelled(err) {
					return err
				}

				mu.Lock()
				if err != nil {
					failed++
					log.Warn("file skipped", logger.String("path", path), logger.Error(err))
				} else {
					touched[res.Tone.Name] = res.Tone
				}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printPlayInfo(cmd.Context(), cmd.OutOrStdout(), ctx.Catalog, touched)

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be ingested", failed, len(files))
	}
	return nil
}

type toneGroup struct {
	tone  string
	files []string
}

// groupByTone keeps files in order within a tone, tones in order of first appearance
func groupByTone(files []string, tone string) []*toneGroup {
	var groups []*toneGroup
	index := map[string]*toneGroup{}
	for _, f := range files {
		name := tone
		if name == "" {
			name = catalog.ToneNameForPath(f)
		}
		g, ok := index[name]
		if !ok {
			g = &toneGroup{tone: name}
			index[name] = g
			groups = append(groups, g)
		}
		g.files = append(g.files, f)
	}
	return groups
}

// collectFiles expands directories into their supported audio files
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.FileError(err, arg, 0)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && audiofile.IsSupported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.FileError(err, arg, 0)
		}
		slices.Sort(found)
		files = append(files, found...)
	}
	return files, nil
}

// printPlayInfo shows what each touched tone plays for middle C
func printPlayInfo(ctx context.Context, out io.Writer, cat *catalog.Service, tones map[string]*entities.Tone) {
	names := make([]string, 0, len(tones))
	for name := range tones {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		tone := tones[name]
		info, err := cat.Lookup(ctx, tone.ID, previewMIDI)
		if err != nil {
			fmt.Fprintf(out, "%s: no sample for %s\n", name, music.Name(previewMIDI))
			continue
		}
		fmt.Fprintf(out, "%s (id %d): %s plays sample %d at rate %.4f\n",
			name, tone.ID, music.Name(previewMIDI), info.SampleID, info.Transform)
	}
}
