package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/koe/pkg/audio/pcm"
	"github.com/haivivi/koe/pkg/audioquery"
	"github.com/haivivi/koe/pkg/cli"
	"github.com/haivivi/koe/pkg/kana"
)

var synthFlags struct {
	speaker    int64
	kana       string
	save       string
	speed      float64
	pitch      float64
	intonation float64
	volume     float64
	rate       int
	stereo     bool
}

var synthCmd = &cobra.Command{
	Use:   "synth [text]",
	Short: "Synthesize a WAV file",
	Long: `Synthesize speech as 16-bit PCM WAV.

The query comes from -f (an audio query file), from --kana (kana
notation) or from text. Scale flags override the query's values.

The WAV goes to -o as a local file, or with --save into the context's
output store (a directory or s3:// bucket).

Examples:
  koe synth こんにちは -o hello.wav
  koe synth -f hello.json --speed 1.2 --save out/hello.wav
  koe synth --kana "コンニチワ'" --rate 48000 --stereo -o hello.wav`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if outputFile == "" && synthFlags.save == "" {
			return fmt.Errorf("-o or --save is required")
		}
		c, err := getContext()
		if err != nil {
			return err
		}
		fromText := inputFile == "" && synthFlags.kana == ""
		e, err := openEngine(c, fromText)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		spk := speakerFlag(c, synthFlags.speaker, cmd.Flags().Changed("speaker"))

		var q *audioquery.AudioQuery
		switch {
		case inputFile != "":
			q, err = cli.LoadQuery(inputFile)
		case synthFlags.kana != "":
			var phrases []audioquery.AccentPhrase
			phrases, err = e.engine.AccentPhrasesFromKana(ctx, synthFlags.kana, spk)
			if err == nil {
				q = audioquery.New(phrases, kana.Create(phrases))
			}
		case len(args) > 0:
			q, err = e.engine.AudioQuery(ctx, strings.Join(args, " "), spk)
		default:
			return fmt.Errorf("text, --kana or -f is required")
		}
		if err != nil {
			return err
		}
		applyScaleFlags(cmd, q)

		wav, err := e.engine.SynthesizeWAV(ctx, q, spk)
		if err != nil {
			return err
		}
		f := pcm.L16(q.OutputSamplingRate, q.Channels())
		dur := f.Duration(int64(len(wav) - 44))

		opts := cli.OutputOptions{Format: cli.FormatRaw, File: outputFile}
		dest := outputFile
		if synthFlags.save != "" {
			store, err := openStore(c)
			if err != nil {
				return err
			}
			opts.File = synthFlags.save
			opts.Store = store
			dest = synthFlags.save
		}
		if err := cli.Output(wav, opts); err != nil {
			return err
		}
		cli.PrintSuccess("Wrote %s (%s, %s, %s)", dest, f, cli.FormatDuration(dur.Round(time.Millisecond)), cli.FormatBytes(len(wav)))
		return nil
	},
}

// applyScaleFlags copies explicitly set scale flags into q.
func applyScaleFlags(cmd *cobra.Command, q *audioquery.AudioQuery) {
	flags := cmd.Flags()
	if flags.Changed("speed") {
		q.SpeedScale = synthFlags.speed
	}
	if flags.Changed("pitch") {
		q.PitchScale = synthFlags.pitch
	}
	if flags.Changed("intonation") {
		q.IntonationScale = synthFlags.intonation
	}
	if flags.Changed("volume") {
		q.VolumeScale = synthFlags.volume
	}
	if flags.Changed("rate") {
		q.OutputSamplingRate = synthFlags.rate
	}
	if flags.Changed("stereo") {
		q.OutputStereo = synthFlags.stereo
	}
}

func init() {
	f := synthCmd.Flags()
	f.Int64VarP(&synthFlags.speaker, "speaker", "s", 0, "speaker (style) ID (default: context speaker)")
	f.StringVar(&synthFlags.kana, "kana", "", "synthesize kana notation instead of text")
	f.StringVar(&synthFlags.save, "save", "", "save to this path in the output store")
	f.Float64Var(&synthFlags.speed, "speed", audioquery.DefaultSpeedScale, "speed scale")
	f.Float64Var(&synthFlags.pitch, "pitch", audioquery.DefaultPitchScale, "pitch scale")
	f.Float64Var(&synthFlags.intonation, "intonation", audioquery.DefaultIntonationScale, "intonation scale")
	f.Float64Var(&synthFlags.volume, "volume", audioquery.DefaultVolumeScale, "volume scale")
	f.IntVar(&synthFlags.rate, "rate", audioquery.DefaultOutputSamplingRate, "output sample rate (a multiple of 24000)")
	f.BoolVar(&synthFlags.stereo, "stereo", false, "output stereo")

	rootCmd.AddCommand(synthCmd)
}
